// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import "strings"

// FileNumber resolves a file name to its dense file index (spec.md §4.6),
// grounded in original_source/libmpq/mpq.c's libmpq__file_number.
//
// The probe starts at hash(name, saltTableOffset) mod len(hashTable) and
// walks forward WITHOUT wrapping to the start of the table. This preserves
// the original implementation's legacy behavior rather than StormLib's
// wrapping probe (spec.md §9 open question; see DESIGN.md). Entries whose
// block index is hashTableEmpty are skipped; hashTableDeleted is not
// distinguished from hashTableEmpty, again matching the original (see
// DESIGN.md).
func (a *Archive) FileNumber(name string) (int, error) {
	normalized := strings.ReplaceAll(name, "/", "\\")

	h0 := hashString(normalized, saltTableOffset)
	h1 := hashString(normalized, saltNameA)
	h2 := hashString(normalized, saltNameB)

	count := uint32(len(a.hashTable))
	if count == 0 {
		return 0, newErr("FileNumber", KindExist, nil)
	}

	start := h0 % count
	for i := start; i < count; i++ {
		e := a.hashTable[i]
		if e.BlockIndex == hashTableEmpty {
			continue
		}
		if e.HashA == h1 && e.HashB == h2 {
			raw := e.BlockIndex
			if raw >= uint32(len(a.blockTable)) || !a.blockTable[raw].Flags.Has(FlagExists) {
				return 0, newErr("FileNumber", KindExist, nil)
			}
			return a.denseIndex(raw), nil
		}
	}

	return 0, newErr("FileNumber", KindExist, nil)
}

// denseIndex converts a raw block table index into the dense, order-
// preserving file index used everywhere else in the public API.
func (a *Archive) denseIndex(raw uint32) int {
	for i, r := range a.fileIndices {
		if r == raw {
			return i
		}
	}
	return -1
}
