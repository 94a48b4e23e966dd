// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import "fmt"

// PKWARE Data Compression Library "explode" decompressor, mask bit 0x08
// (spec.md §4.4) and the sole codec used when FlagCompressPKWare is set
// without FlagCompressMulti (no leading mask byte in that case).
//
// original_source/libmpq/explode.h declares the pkzip_data_cmp/pkzip_data
// structs and the function contracts (skip_bit, generate_tables, decode_
// literal, decode_distance, expand) but, like huffman.h, carries no literal
// table *values* — those are static data in the original binary. The code
// length tables and base/extra-bit tables below follow the canonical public
// description of this format (the same fixed tables used by Mark Adler's
// public-domain "blast" decompressor for the PKWARE DCL format); see
// DESIGN.md.

// canonical code length tables for literals, match lengths and match
// distances (one length per symbol), used to build Huffman decode tables
// below.
var explodeLitLen = [256]byte{
	11, 12, 12, 12, 12, 12, 12, 12, 12, 8, 7, 12, 12, 7, 12, 12,
	12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 13, 12, 12, 12, 12, 12,
	4, 10, 8, 12, 10, 12, 10, 8, 7, 7, 8, 9, 7, 6, 7, 8,
	7, 6, 7, 7, 7, 7, 8, 7, 7, 8, 8, 12, 11, 7, 9, 11,
	12, 6, 7, 6, 6, 5, 7, 8, 8, 6, 11, 9, 6, 7, 6, 6,
	7, 11, 6, 6, 6, 7, 9, 8, 9, 9, 11, 8, 11, 9, 12, 8,
	12, 5, 6, 6, 6, 5, 6, 6, 6, 5, 11, 7, 5, 6, 5, 5,
	6, 10, 5, 5, 5, 5, 8, 7, 8, 8, 10, 11, 11, 12, 12, 12,
	13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13,
	13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13,
	13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13,
	12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12,
	12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12,
	12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12,
	13, 12, 13, 13, 13, 12, 13, 13, 13, 12, 13, 13, 13, 13, 12, 13,
	13, 13, 12, 12, 12, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13,
}

var explodeLenBase = [16]uint16{3, 2, 4, 5, 6, 7, 8, 9, 10, 12, 16, 24, 40, 72, 136, 264}
var explodeLenExtra = [16]byte{0, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3, 4, 5, 6, 7, 8}
var explodeLenCodeLen = [16]byte{2, 3, 3, 3, 4, 4, 4, 5, 5, 5, 5, 6, 6, 6, 7, 7}

var explodeDistCodeLen = [64]byte{
	2, 4, 4, 5, 5, 5, 5, 6, 6, 6, 6, 6, 6, 6, 6, 6,
	6, 6, 6, 6, 6, 6, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7,
	7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7,
	8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8,
}

// huffTable is a canonical Huffman decode table: the number of codes of
// each bit length and the symbols in canonical order. decode reads its
// codewords bit-by-bit from an LSB-first stream (see decode below).
type huffTable struct {
	counts [17]uint16 // counts[n] = number of codes of length n
	symbol []uint16   // symbols sorted by code length then value
}

func buildHuffTable(lengths []byte) *huffTable {
	t := &huffTable{symbol: make([]uint16, len(lengths))}
	for _, l := range lengths {
		t.counts[l]++
	}
	t.counts[0] = 0

	var offsets [17]uint16
	for i := 1; i < 17; i++ {
		offsets[i] = offsets[i-1] + t.counts[i-1]
	}
	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		t.symbol[offsets[l]] = uint16(sym)
		offsets[l]++
	}
	return t
}

type explodeBitReader struct {
	in  []byte
	pos int
	buf uint32
	n   uint
}

func (r *explodeBitReader) need(count uint) error {
	for r.n < count {
		if r.pos >= len(r.in) {
			return fmt.Errorf("explode: input exhausted")
		}
		r.buf |= uint32(r.in[r.pos]) << r.n
		r.pos++
		r.n += 8
	}
	return nil
}

func (r *explodeBitReader) bits(count uint) (uint32, error) {
	if err := r.need(count); err != nil {
		return 0, err
	}
	v := r.buf & ((1 << count) - 1)
	r.buf >>= count
	r.n -= count
	return v, nil
}

// decode reads a canonical Huffman symbol LSB-first, matching the DCL bit
// convention: codes are consumed bit-by-bit and compared as if read
// most-significant-bit-first of the *code*, least-significant-bit-first of
// the *stream*.
func (t *huffTable) decode(r *explodeBitReader) (uint16, error) {
	var code, first, index int
	for l := 1; l <= 16; l++ {
		b, err := r.bits(1)
		if err != nil {
			return 0, err
		}
		code |= int(b)
		count := int(t.counts[l])
		if code-first < count {
			return t.symbol[index+(code-first)], nil
		}
		index += count
		first += count
		first <<= 1
		code <<= 1
	}
	return 0, fmt.Errorf("explode: bad code")
}

// decompressExplode implements the codec contract shared by every entry in
// codecTable.
func decompressExplode(out, in []byte) (int, error) {
	if len(in) < 2 {
		return 0, newErr("decompressExplode", KindUnpack, fmt.Errorf("explode: short input"))
	}

	litCoded := in[0] != 0
	dictBits := uint(in[1])
	if dictBits < 4 || dictBits > 6 {
		return 0, newErr("decompressExplode", KindUnpack, fmt.Errorf("explode: bad dict size bits %d", dictBits))
	}
	windowMask := uint32(1<<(dictBits+6)) - 1

	r := &explodeBitReader{in: in[2:]}

	var litTable *huffTable
	if litCoded {
		litTable = buildHuffTable(explodeLitLen[:])
	}
	lenTable := buildHuffTable(explodeLenCodeLen[:])
	distTable := buildHuffTable(explodeDistCodeLen[:])

	n := 0
	for n < len(out) {
		isMatch, err := r.bits(1)
		if err != nil {
			return n, nil // clean EOF between symbols: treat as end of stream
		}

		if isMatch == 0 {
			var lit uint16
			if litCoded {
				lit, err = litTable.decode(r)
			} else {
				var b uint32
				b, err = r.bits(8)
				lit = uint16(b)
			}
			if err != nil {
				return 0, newErr("decompressExplode", KindUnpack, err)
			}
			out[n] = byte(lit)
			n++
			continue
		}

		lenSym, err := lenTable.decode(r)
		if err != nil {
			return 0, newErr("decompressExplode", KindUnpack, err)
		}
		extra, err := r.bits(uint(explodeLenExtra[lenSym]))
		if err != nil {
			return 0, newErr("decompressExplode", KindUnpack, err)
		}
		length := int(explodeLenBase[lenSym]) + int(extra)

		distSym, err := distTable.decode(r)
		if err != nil {
			return 0, newErr("decompressExplode", KindUnpack, err)
		}
		var distExtraBits uint
		if length == 2 {
			distExtraBits = 2
		} else {
			distExtraBits = dictBits
		}
		distExtra, err := r.bits(distExtraBits)
		if err != nil {
			return 0, newErr("decompressExplode", KindUnpack, err)
		}
		distance := int((uint32(distSym)<<distExtraBits|distExtra)&windowMask) + 1

		if distance > n {
			return 0, newErr("decompressExplode", KindUnpack, fmt.Errorf("explode: distance %d exceeds output %d", distance, n))
		}
		for i := 0; i < length && n < len(out); i++ {
			out[n] = out[n-distance]
			n++
		}
	}

	return n, nil
}
