// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"encoding/binary"
	"fmt"
)

// Attributes holds the optional per-file metadata carried by the
// "(attributes)" special file (SPEC_FULL.md §1 SUPPLEMENT). Each slice, when
// non-nil, has one entry per dense file index.
type Attributes struct {
	Version  uint32
	Flags    uint32
	CRC32    []uint32
	FileTime []uint64
	MD5      [][16]byte
}

const (
	attributesFlagCRC32    = 0x00000001
	attributesFlagFileTime = 0x00000002
	attributesFlagMD5      = 0x00000004
)

// ReadAttributes opens and parses "(attributes)", if present. It returns
// KindExist if the archive carries no such file.
func (a *Archive) ReadAttributes() (*Attributes, error) {
	const op = "ReadAttributes"

	f, err := a.OpenFile("(attributes)")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := f.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(data) < 8 {
		return nil, newErr(op, KindFormat, fmt.Errorf("attributes file too short"))
	}

	attrs := &Attributes{
		Version: binary.LittleEndian.Uint32(data[0:4]),
		Flags:   binary.LittleEndian.Uint32(data[4:8]),
	}

	count := a.FileCount()
	pos := 8

	if attrs.Flags&attributesFlagCRC32 != 0 {
		vals, n, err := readUint32Array(data[pos:], count)
		if err != nil {
			return nil, newErr(op, KindFormat, err)
		}
		attrs.CRC32 = vals
		pos += n
	}

	if attrs.Flags&attributesFlagFileTime != 0 {
		vals, n, err := readUint64Array(data[pos:], count)
		if err != nil {
			return nil, newErr(op, KindFormat, err)
		}
		attrs.FileTime = vals
		pos += n
	}

	if attrs.Flags&attributesFlagMD5 != 0 {
		vals, n, err := readMD5Array(data[pos:], count)
		if err != nil {
			return nil, newErr(op, KindFormat, err)
		}
		attrs.MD5 = vals
		pos += n
	}

	return attrs, nil
}

// VerifyFile reports whether dense index i's decoded contents match the
// stored CRC32 in attrs, if one was recorded.
func (a *Archive) VerifyFile(attrs *Attributes, dense int, data []byte) (bool, error) {
	if attrs.CRC32 == nil {
		return false, newErr("VerifyFile", KindUnsupported, fmt.Errorf("attributes file carries no CRC32 table"))
	}
	if dense < 0 || dense >= len(attrs.CRC32) {
		return false, newErr("VerifyFile", KindSize, nil)
	}
	return crc32Checksum(data) == attrs.CRC32[dense], nil
}

func readUint32Array(data []byte, count int) ([]uint32, int, error) {
	need := count * 4
	if len(data) < need {
		return nil, 0, fmt.Errorf("truncated uint32 array")
	}
	out := make([]uint32, count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return out, need, nil
}

func readUint64Array(data []byte, count int) ([]uint64, int, error) {
	need := count * 8
	if len(data) < need {
		return nil, 0, fmt.Errorf("truncated uint64 array")
	}
	out := make([]uint64, count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(data[i*8:])
	}
	return out, need, nil
}

func readMD5Array(data []byte, count int) ([][16]byte, int, error) {
	need := count * 16
	if len(data) < need {
		return nil, 0, fmt.Errorf("truncated md5 array")
	}
	out := make([][16]byte, count)
	for i := range out {
		copy(out[i][:], data[i*16:i*16+16])
	}
	return out, need, nil
}
