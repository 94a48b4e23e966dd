// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import "hash/adler32"

// sectorChecksum computes the Adler-32 checksum MPQ uses to verify
// decompressed sectors against the per-file extra-data CRC table (spec.md
// §4.8, SPEC_FULL.md §4 SUPPLEMENT). Delegates to the standard library implementation
// for the same reason crc32.go does: it's the exact algorithm the format
// calls for, and no hand-rolled version improves on it.
func sectorChecksum(data []byte) uint32 {
	return adler32.Checksum(data)
}
