// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// Archive is an opened, read-only MPQ container (spec.md §3). It owns the
// underlying file handle and the decrypted hash/block tables; all file
// access goes through OpenFile.
//
// Grounded in original_source/libmpq/mpq.c's mpq_archive struct and
// _examples/suprsokr-go-mpq's Archive, trimmed to the read-only fields.
type Archive struct {
	file          *os.File
	path          string
	archiveOffset int64 // absolute offset of the header within the file
	header        *archiveHeader

	hashTable  []hashTableEntry
	blockTable []blockTableEntry

	// fileIndices maps a dense file index (spec.md §3's "file number") to
	// its raw blockTable index, in table order, skipping non-EXISTS blocks.
	fileIndices []uint32

	sectorSize uint32
}

// OffsetAutoDetect tells Open to scan forward from the start of the file on
// 512-byte boundaries looking for the header, matching archive protectors
// that relocate it (spec.md §4.5). Pass a non-negative offset to read the
// header at a known, fixed location instead.
const OffsetAutoDetect int64 = -1

// Open opens the MPQ archive at path, decrypting and loading its hash and
// block tables. The caller must have called Init first; Open returns a
// KindNotInitialized error otherwise.
func Open(path string, offset int64) (*Archive, error) {
	const op = "Open"

	if err := checkInitialized(op); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, newErr(op, KindOpen, err)
	}

	a := &Archive{file: f, path: path}
	if err := a.load(offset); err != nil {
		f.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) load(offset int64) error {
	const op = "Open"

	start := offset
	autoDetect := offset < 0
	if autoDetect {
		start = 0
	}

	header, headerOffset, err := findHeader(a.file, start, autoDetect)
	if err != nil {
		return err
	}
	a.header = header
	a.archiveOffset = headerOffset
	a.sectorSize = 512 << header.BlockSizeLog2

	if err := a.loadHashTable(); err != nil {
		return err
	}
	if err := a.loadBlockTable(); err != nil {
		return err
	}

	a.fileIndices = a.fileIndices[:0]
	for i, b := range a.blockTable {
		if b.Flags.Has(FlagExists) {
			a.fileIndices = append(a.fileIndices, uint32(i))
		}
	}

	return nil
}

func (a *Archive) loadHashTable() error {
	const op = "Open"

	count := a.header.HashTableCount
	words := make([]uint32, count*4)
	pos := int64(a.header.hashTableOffset64()) + a.archiveOffset
	if _, err := a.file.Seek(pos, 0); err != nil {
		return newErr(op, KindSeek, err)
	}
	if err := readUint32Words(a.file, words); err != nil {
		return newErr(op, KindRead, errors.Wrap(err, "hash table"))
	}
	decryptTableWords(words, "(hash table)")

	a.hashTable = make([]hashTableEntry, count)
	for i := range a.hashTable {
		w := words[i*4:]
		a.hashTable[i] = hashTableEntry{
			HashA:      w[0],
			HashB:      w[1],
			Locale:     uint16(w[2]),
			Platform:   uint16(w[2] >> 16),
			BlockIndex: w[3],
		}
	}
	return nil
}

func (a *Archive) loadBlockTable() error {
	const op = "Open"

	count := a.header.BlockTableCount
	words := make([]uint32, count*4)
	pos := int64(a.header.blockTableOffset64()) + a.archiveOffset
	if _, err := a.file.Seek(pos, 0); err != nil {
		return newErr(op, KindSeek, err)
	}
	if err := readUint32Words(a.file, words); err != nil {
		return newErr(op, KindRead, errors.Wrap(err, "block table"))
	}
	decryptTableWords(words, "(block table)")

	a.blockTable = make([]blockTableEntry, count)
	for i := range a.blockTable {
		w := words[i*4:]
		a.blockTable[i] = blockTableEntry{
			Offset:       w[0],
			PackedSize:   w[1],
			UnpackedSize: w[2],
			Flags:        BlockFlags(w[3]),
		}
	}

	if a.header.ExtendedBlockTableOffset != 0 {
		if err := a.loadExtendedBlockTable(); err != nil {
			return err
		}
	}
	return nil
}

// loadExtendedBlockTable reads the high 16 bits of each block's offset,
// present only in archives over 4GiB (spec.md §3, §6).
func (a *Archive) loadExtendedBlockTable() error {
	const op = "Open"

	highs := make([]uint16, len(a.blockTable))
	pos := int64(a.header.ExtendedBlockTableOffset) + a.archiveOffset
	if _, err := a.file.Seek(pos, 0); err != nil {
		return newErr(op, KindSeek, err)
	}
	if err := readUint16Words(a.file, highs); err != nil {
		return newErr(op, KindRead, errors.Wrap(err, "extended block table"))
	}
	for i := range a.blockTable {
		a.blockTable[i].OffsetHigh = highs[i]
	}
	return nil
}

// Close releases the archive's file handle. It does not affect the
// process-wide crypt table; call Shutdown for that.
func (a *Archive) Close() error {
	if err := a.file.Close(); err != nil {
		return newErr("Close", KindClose, err)
	}
	return nil
}

// PackedSize returns the size of the archive file on disk as recorded in
// its header.
func (a *Archive) PackedSize() uint32 { return a.header.ArchiveSize }

// Version returns the archive format version: 1 for the original format,
// 2 for the extended (>4GiB) format.
func (a *Archive) Version() int { return int(a.header.FormatVersion) + 1 }

// FileCount returns the number of files present in the archive (dense file
// indices 0..FileCount()-1 are valid).
func (a *Archive) FileCount() int { return len(a.fileIndices) }

// UnpackedSize returns the sum of the decompressed sizes of every existing
// file (spec.md §6 archive_unpacked_size).
func (a *Archive) UnpackedSize() uint32 {
	var total uint64
	for _, idx := range a.fileIndices {
		total += uint64(a.blockTable[idx].UnpackedSize)
	}
	return uint32(total)
}

// Offset returns the archive's base offset within the host file, as
// resolved by Open's header search (spec.md §6 archive_offset;
// original_source/libmpq/mpq.h's mpq_archive_s.archive_offset).
func (a *Archive) Offset() int64 { return a.archiveOffset }

func (a *Archive) blockAt(dense int) (*blockTableEntry, error) {
	if dense < 0 || dense >= len(a.fileIndices) {
		return nil, newErr("blockAt", KindExist, nil)
	}
	return &a.blockTable[a.fileIndices[dense]], nil
}

// FileName returns the synthetic name libmpq produces for a file index when
// no listfile is parsed: "file%06d.xxx" (spec.md §6 file_name;
// original_source/libmpq/mpq.c:libmpq__file_name). Listfile-backed real
// names are out of scope (spec.md §1 non-goals).
func (a *Archive) FileName(dense int) (string, error) {
	if dense < 0 || dense >= len(a.fileIndices) {
		return "", newErr("FileName", KindExist, nil)
	}
	return fmt.Sprintf("file%06d.xxx", dense), nil
}

// FilePackedSize returns the on-disk packed size of the file at dense index
// (spec.md §6 file_packed_size), without requiring it to be opened.
func (a *Archive) FilePackedSize(dense int) (uint32, error) {
	b, err := a.blockAt(dense)
	if err != nil {
		return 0, err
	}
	return b.PackedSize, nil
}

// FileUnpackedSize returns the decompressed size of the file at dense index
// (spec.md §6 file_unpacked_size).
func (a *Archive) FileUnpackedSize(dense int) (uint32, error) {
	b, err := a.blockAt(dense)
	if err != nil {
		return 0, err
	}
	return b.UnpackedSize, nil
}

// FileOffset returns the file's packed-data offset relative to the
// archive base (spec.md §6 file_offset).
func (a *Archive) FileOffset(dense int) (uint64, error) {
	b, err := a.blockAt(dense)
	if err != nil {
		return 0, err
	}
	return b.offset64(), nil
}

// FileBlockCount returns the number of sectors the file at dense index is
// split across (spec.md §6 file_block_count).
func (a *Archive) FileBlockCount(dense int) (int, error) {
	b, err := a.blockAt(dense)
	if err != nil {
		return 0, err
	}
	return blockCountFor(b.Flags, b.UnpackedSize, a.sectorSize), nil
}

// FileIsEncrypted reports whether the file at dense index carries the
// ENCRYPTED flag (spec.md §6 file_is_encrypted).
func (a *Archive) FileIsEncrypted(dense int) (bool, error) {
	b, err := a.blockAt(dense)
	if err != nil {
		return false, err
	}
	return b.Flags.Has(FlagEncrypted), nil
}

// FileIsCompressed reports whether the file at dense index uses the
// mask-byte multi-codec chain (spec.md §6 file_is_compressed;
// original_source/libmpq/mpq.c:libmpq__file_compressed checks
// LIBMPQ_FLAG_COMPRESS_MULTI, not the broader COMPRESSED mask).
func (a *Archive) FileIsCompressed(dense int) (bool, error) {
	b, err := a.blockAt(dense)
	if err != nil {
		return false, err
	}
	return b.Flags.Has(FlagCompressMulti), nil
}

// FileIsImploded reports whether the file at dense index uses plain PKWARE
// DCL implode with no mask byte (spec.md §6 file_is_imploded;
// original_source/libmpq/mpq.c:libmpq__file_imploded checks
// LIBMPQ_FLAG_COMPRESS_PKWARE).
func (a *Archive) FileIsImploded(dense int) (bool, error) {
	b, err := a.blockAt(dense)
	if err != nil {
		return false, err
	}
	return b.Flags.Has(FlagCompressPKWare), nil
}
