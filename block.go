// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"fmt"
	"io"
)

// ReadBlock implements spec.md §4.8: seek to the block's packed bytes,
// decrypt them if the file is encrypted (using BlockSeed(i)), and run them
// through the compression chain. Grounded in
// original_source/libmpq/mpq.c's libmpq__block_read.
func (f *File) ReadBlock(i int) ([]byte, error) {
	const op = "ReadBlock"

	n := f.blockCount()
	if i < 0 || i >= n {
		return nil, newErr(op, KindSize, fmt.Errorf("block index %d out of range [0,%d)", i, n))
	}

	start, end := f.offsets[i], f.offsets[i+1]
	if end < start {
		return nil, newErr(op, KindFormat, fmt.Errorf("block %d has a negative-length offset range", i))
	}

	packed := make([]byte, end-start)
	pos := int64(f.block.offset64()) + f.archive.archiveOffset + int64(start)
	if _, err := f.archive.file.Seek(pos, 0); err != nil {
		return nil, newErr(op, KindSeek, err)
	}
	if _, err := io.ReadFull(f.archive.file, packed); err != nil {
		return nil, newErr(op, KindRead, err)
	}

	if f.block.Flags.Has(FlagEncrypted) {
		words := bytesToWords(packed)
		decryptWords(words, f.BlockSeed(i))
		wordsToBytes(words, packed)
	}

	unpackedSize := f.BlockUnpackedSize(i)
	out, err := decompressBlock(packed, unpackedSize, f.block.Flags)
	if err != nil {
		return nil, err
	}

	if f.sectorCRC != nil && i < len(f.sectorCRC) {
		if sectorChecksum(out) != f.sectorCRC[i] {
			return nil, newErr(op, KindFormat, fmt.Errorf("sector %d failed Adler-32 verification", i))
		}
	}

	return out, nil
}

func bytesToWords(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) | uint32(b[i*4+1])<<8 | uint32(b[i*4+2])<<16 | uint32(b[i*4+3])<<24
	}
	return words
}

func wordsToBytes(words []uint32, dst []byte) {
	for i, w := range words {
		dst[i*4] = byte(w)
		dst[i*4+1] = byte(w >> 8)
		dst[i*4+2] = byte(w >> 16)
		dst[i*4+3] = byte(w >> 24)
	}
}

// Read implements io.Reader over the file's full decompressed content,
// decoding blocks on demand and advancing an internal position (spec.md
// §4.9). It is not safe for concurrent use by multiple goroutines.
func (f *File) Read(p []byte) (int, error) {
	total := int64(f.block.UnpackedSize)
	if f.pos >= total {
		return 0, io.EOF
	}

	blockIdx := int(f.pos / int64(f.sectorSizeOrUnit()))
	data, err := f.ReadBlock(blockIdx)
	if err != nil {
		return 0, err
	}

	blockStart := int64(blockIdx) * int64(f.sectorSizeOrUnit())
	offsetInBlock := f.pos - blockStart
	if offsetInBlock < 0 || offsetInBlock > int64(len(data)) {
		return 0, newErr("Read", KindFormat, fmt.Errorf("position %d outside decoded block %d", f.pos, blockIdx))
	}

	n := copy(p, data[offsetInBlock:])
	f.pos += int64(n)
	return n, nil
}

func (f *File) sectorSizeOrUnit() uint32 {
	if f.block.Flags.Has(FlagSingleUnit) {
		return f.block.UnpackedSize
	}
	return f.archive.sectorSize
}

// ReadAll decodes every block and returns the file's full contents.
func (f *File) ReadAll() ([]byte, error) {
	out := make([]byte, 0, f.block.UnpackedSize)
	for i := 0; i < f.blockCount(); i++ {
		data, err := f.ReadBlock(i)
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
	}
	return out, nil
}
