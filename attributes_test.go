// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadAttributesCRC32Table(t *testing.T) {
	fileContent := []byte("tracked by attributes")
	crc := crc32Checksum(fileContent)

	attrBody := make([]byte, 8+4*2)
	binary.LittleEndian.PutUint32(attrBody[0:], 100)
	binary.LittleEndian.PutUint32(attrBody[4:], attributesFlagCRC32)
	binary.LittleEndian.PutUint32(attrBody[8:], 0)   // CRC for dense 0, "(attributes)" itself
	binary.LittleEndian.PutUint32(attrBody[12:], crc) // CRC for dense 1, "tracked.txt"

	path := buildFixtureArchive(t, []testFile{
		{name: "(attributes)", data: attrBody},
		{name: "tracked.txt", data: fileContent},
	})

	Init()
	defer Shutdown()

	a, err := Open(path, OffsetAutoDetect)
	require.NoError(t, err)
	defer a.Close()

	attrs, err := a.ReadAttributes()
	require.NoError(t, err)
	require.Equal(t, uint32(100), attrs.Version)
	require.Len(t, attrs.CRC32, a.FileCount())

	dense, err := a.FileNumber("tracked.txt")
	require.NoError(t, err)

	ok, err := a.VerifyFile(attrs, dense, fileContent)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestReadAttributesMissingIsExist(t *testing.T) {
	path := buildFixtureArchive(t, []testFile{{name: "solo.txt", data: []byte("x")}})

	Init()
	defer Shutdown()

	a, err := Open(path, OffsetAutoDetect)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.ReadAttributes()
	require.Error(t, err)

	var mErr *Error
	require.ErrorAs(t, err, &mErr)
	require.Equal(t, KindExist, mErr.Kind)
}

func TestVerifyFileWithoutCRC32TableIsUnsupported(t *testing.T) {
	a := &Archive{}
	attrs := &Attributes{Version: 1, Flags: 0}

	_, err := a.VerifyFile(attrs, 0, []byte("data"))
	require.Error(t, err)

	var mErr *Error
	require.ErrorAs(t, err, &mErr)
	require.Equal(t, KindUnsupported, mErr.Kind)
}
