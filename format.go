// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"encoding/binary"
	"io"
)

// On-disk constants (little-endian throughout). See spec.md §6.
const (
	mpqMagic = 0x1A51504D // "MPQ\x1A"

	formatVersion1 = 0 // original format, up to 4GiB
	formatVersion2 = 1 // extended format, >4GiB

	headerSizeV1 = 0x20 // 32 bytes
	headerSizeV2 = 0x2C // 44 bytes (v1 header + extended header)

	hashTableEmpty   = 0xFFFFFFFF // entry is empty and has always been empty
	hashTableDeleted = 0xFFFFFFFE // entry was deleted; see DESIGN.md open question

	headerScanStride = 512
)

// BlockFlags is the set of bits carried by a block table entry. The on-disk
// form is one uint32; this type names the bits spec.md §3 calls out so call
// sites never compare against a raw mask (see spec.md §9 "Bitfield flags").
type BlockFlags uint32

const (
	FlagCompressPKWare BlockFlags = 0x00000100 // PKWARE DCL "implode" only, no mask byte
	FlagCompressMulti  BlockFlags = 0x00000200 // mask-byte transform chain
	FlagCompressed     BlockFlags = 0x0000FF00 // mask of all compression bits, including the two above
	FlagEncrypted      BlockFlags = 0x00010000
	FlagFixKey         BlockFlags = 0x00020000 // key adjusted by block offset; unsupported, see DESIGN.md
	FlagPatchFile      BlockFlags = 0x00100000
	FlagSingleUnit     BlockFlags = 0x01000000
	FlagDeleteMarker   BlockFlags = 0x02000000
	FlagExtraData      BlockFlags = 0x04000000 // extra word in offset table, trailing sector CRCs
	FlagExists         BlockFlags = 0x80000000
)

// Has reports whether all bits of bit are set.
func (f BlockFlags) Has(bit BlockFlags) bool { return f&bit == bit }

// baseHeader is the 32-byte v1 MPQ header.
type baseHeader struct {
	Magic            uint32
	HeaderSize       uint32
	ArchiveSize      uint32
	FormatVersion    uint16
	BlockSizeLog2    uint16
	HashTableOffset  uint32
	BlockTableOffset uint32
	HashTableCount   uint32
	BlockTableCount  uint32
}

// extendedHeader is the 12 bytes appended for version 2 archives.
type extendedHeader struct {
	ExtendedBlockTableOffset uint64
	HashTableOffsetHigh      uint16
	BlockTableOffsetHigh     uint16
}

type archiveHeader struct {
	baseHeader
	extendedHeader
}

func (h *archiveHeader) hashTableOffset64() uint64 {
	return uint64(h.HashTableOffset) | uint64(h.HashTableOffsetHigh)<<32
}

func (h *archiveHeader) blockTableOffset64() uint64 {
	return uint64(h.BlockTableOffset) | uint64(h.BlockTableOffsetHigh)<<32
}

// findHeader implements spec.md §4.5 steps 1-3: read the header at a fixed
// offset, or (when autoDetect is set) scan forward on 512-byte boundaries
// until the magic is found or EOF.
func findHeader(r io.ReadSeeker, start int64, autoDetect bool) (*archiveHeader, int64, error) {
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, newErr("findHeader", KindSeek, err)
	}

	offset := start
	for {
		if offset+headerSizeV1 > end {
			return nil, 0, newErr("findHeader", KindFormat, errBadMagic)
		}

		if _, err := r.Seek(offset, io.SeekStart); err != nil {
			return nil, 0, newErr("findHeader", KindSeek, err)
		}

		var base baseHeader
		err := binary.Read(r, binary.LittleEndian, &base)
		if err != nil || base.Magic != mpqMagic {
			if !autoDetect {
				return nil, 0, newErr("findHeader", KindFormat, errBadMagic)
			}
			offset += headerScanStride
			continue
		}

		h := &archiveHeader{baseHeader: base}

		// Some archive protectors lie about header size; patch it to the
		// canonical size (spec.md §4.5 step 2).
		switch {
		case h.FormatVersion == formatVersion1 && h.HeaderSize != headerSizeV1:
			h.HeaderSize = headerSizeV1
		case h.FormatVersion == formatVersion2 && h.HeaderSize != headerSizeV2:
			h.HeaderSize = headerSizeV2
		}

		if h.FormatVersion >= formatVersion2 {
			var ext extendedHeader
			if err := binary.Read(r, binary.LittleEndian, &ext); err != nil {
				return nil, 0, newErr("findHeader", KindFormat, err)
			}
			h.extendedHeader = ext
		}

		return h, offset, nil
	}
}

// hashTableEntry is the 16-byte on-disk hash table record (spec.md §3, §6).
type hashTableEntry struct {
	HashA      uint32
	HashB      uint32
	Locale     uint16
	Platform   uint16
	BlockIndex uint32
}

// blockTableEntry is the 16-byte on-disk block table record, plus the
// optional high offset word carried by the extended block table.
type blockTableEntry struct {
	Offset       uint32
	PackedSize   uint32
	UnpackedSize uint32
	Flags        BlockFlags
	OffsetHigh   uint16 // 0 unless the archive has an extended block table
}

func (b *blockTableEntry) offset64() uint64 {
	return uint64(b.Offset) | uint64(b.OffsetHigh)<<32
}

func readUint32Words(r io.Reader, words []uint32) error {
	return binary.Read(r, binary.LittleEndian, words)
}

func readUint16Words(r io.Reader, words []uint16) error {
	return binary.Read(r, binary.LittleEndian, words)
}
