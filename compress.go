// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"bytes"
	"compress/bzip2"
	"compress/zlib"
	"fmt"
	"io"
)

// Compression mask bits, one per transform (spec.md §4.4). A packed block's
// leading byte is a bitmask of these values naming which codecs ran, in
// the fixed order codecTable lists them.
const (
	compressHuffman   = 0x01
	compressZlib      = 0x02
	compressPKWare    = 0x08
	compressBzip2     = 0x10
	compressADPCMMono = 0x40
	compressADPCM     = 0x80
)

type codecFunc func(out, in []byte) (int, error)

// codecTable is scanned in this fixed order every time (spec.md §4.4,
// grounded in original_source/libmpq/extract.c's dcmp_table): a block's
// mask byte is checked bit-by-bit against this list, not iterated in
// numeric bit order, and any set bit with no matching entry is
// KindUnsupported.
var codecTable = []struct {
	bit  byte
	name string
	fn   codecFunc
}{
	{compressHuffman, "huffman", decompressHuffman},
	{compressZlib, "zlib", decompressZlibCodec},
	{compressPKWare, "pkware", decompressExplode},
	{compressBzip2, "bzip2", decompressBzip2Codec},
	{compressADPCMMono, "adpcm-mono", decompressADPCMMono},
	{compressADPCM, "adpcm-stereo", decompressADPCMStereo},
}

func decompressZlibCodec(out, in []byte) (int, error) {
	r, err := zlib.NewReader(bytes.NewReader(in))
	if err != nil {
		return 0, fmt.Errorf("zlib: %w", err)
	}
	defer r.Close()

	n, err := io.ReadFull(r, out)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return 0, fmt.Errorf("zlib: %w", err)
	}
	return n, nil
}

func decompressBzip2Codec(out, in []byte) (int, error) {
	r := bzip2.NewReader(bytes.NewReader(in))
	n, err := io.ReadFull(r, out)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return 0, fmt.Errorf("bzip2: %w", err)
	}
	return n, nil
}

// decompressBlock implements spec.md §4.4's full contract for one packed
// block, given the block's flags (to tell PKWARE-only from multi-transform
// blocks) and the expected unpacked size.
//
// Grounded directly in original_source/libmpq/common.c's
// libmpq__decompress_block (the COMPRESS_NONE/memcpy short-circuit and the
// dispatch between "only PKWARE" and "multi") and extract.c's
// libmpq__decompress_multi (the mask byte, the ping-pong scratch buffer,
// and the in-order bit scan).
func decompressBlock(packed []byte, unpackedSize uint32, flags BlockFlags) ([]byte, error) {
	if uint32(len(packed)) == unpackedSize {
		// Size mismatch is the only signal; an equal-length block is a
		// verbatim copy even if compression flags are set (spec.md §4.4,
		// scenario 6 of §8).
		out := make([]byte, len(packed))
		copy(out, packed)
		return out, nil
	}

	if flags.Has(FlagCompressPKWare) && !flags.Has(FlagCompressMulti) {
		out := make([]byte, unpackedSize)
		n, err := decompressExplode(out, packed)
		if err != nil {
			return nil, err
		}
		return out[:n], nil
	}

	return decompressMulti(packed, unpackedSize)
}

// decompressMulti runs the mask-byte transform chain. count(active codecs)
// is computed first; with two or more stages a scratch buffer is allocated
// and stage output alternates between it and the final buffer so no codec
// ever reads and writes the same slice.
func decompressMulti(packed []byte, unpackedSize uint32) ([]byte, error) {
	if len(packed) == 0 {
		return nil, newErr("decompressMulti", KindUnpack, fmt.Errorf("empty packed block"))
	}

	mask := packed[0]
	in := packed[1:]

	remaining := mask
	var stages []codecFunc
	for _, c := range codecTable {
		if mask&c.bit != 0 {
			stages = append(stages, c.fn)
			remaining &^= c.bit
		}
	}
	if remaining != 0 {
		return nil, newErr("decompressMulti", KindUnsupported, fmt.Errorf("%w: 0x%02x", errUnknownCodecBit, remaining))
	}
	if len(stages) == 0 {
		return nil, newErr("decompressMulti", KindUnsupported, fmt.Errorf("empty compression mask"))
	}

	out := make([]byte, unpackedSize)

	if len(stages) == 1 {
		n, err := stages[0](out, in)
		if err != nil {
			return nil, newErr("decompressMulti", KindUnpack, err)
		}
		return out[:n], nil
	}

	temp := make([]byte, unpackedSize)
	cur := in
	for i, stage := range stages {
		dst := out
		if i%2 == 0 {
			dst = temp
		}
		n, err := stage(dst, cur)
		if err != nil {
			return nil, newErr("decompressMulti", KindUnpack, err)
		}
		cur = dst[:n]
	}

	if len(cur) > 0 && &cur[0] != &out[0] {
		copy(out, cur)
		out = out[:len(cur)]
	} else if len(cur) == 0 {
		out = out[:0]
	}
	return out, nil
}
