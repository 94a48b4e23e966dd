// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import "hash/crc32"

// crc32Checksum computes the IEEE CRC-32 used to verify (attributes)
// entries (SPEC_FULL.md §1 SUPPLEMENT). Kept on the standard library's
// hash/crc32 rather than a hand-rolled table: it is the exact IEEE
// polynomial the format uses, and the corpus carries no third-party CRC32
// implementation that improves on it (see DESIGN.md).
func crc32Checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}
