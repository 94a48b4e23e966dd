// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCryptTableSize(t *testing.T) {
	Init()
	defer Shutdown()

	require.Len(t, cryptTable, 0x500)
}

// These constants are the StormLib-derived reference values for the two
// well-known table encryption keys; every MPQ implementation must
// reproduce them exactly since they gate hash/block table decryption.
func TestHashStringKnownKeys(t *testing.T) {
	Init()
	defer Shutdown()

	require.Equal(t, uint32(0xC3AF3770), hashString("(hash table)", saltTableKey))
	require.Equal(t, uint32(0xEC83B3A3), hashString("(block table)", saltTableKey))
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	Init()
	defer Shutdown()

	plain := []uint32{1, 2, 3, 4, 0xDEADBEEF, 0}
	seed := hashString("test key", saltTableKey)

	cipher := append([]uint32(nil), plain...)
	encryptWords(cipher, seed)
	require.NotEqual(t, plain, cipher)

	decryptWords(cipher, seed)
	require.Equal(t, plain, cipher)
}

func TestRecoverKey(t *testing.T) {
	Init()
	defer Shutdown()

	expectedSize := uint32(12)
	words := []uint32{expectedSize, 512}
	seed := hashString("recovered", saltTableKey)

	cipher := append([]uint32(nil), words...)
	encryptWords(cipher, seed)

	recovered, ok := recoverKey(cipher, expectedSize, 512)
	require.True(t, ok)
	require.Equal(t, seed+1, recovered)
}

func TestFileKeyRejectsFixKey(t *testing.T) {
	Init()
	defer Shutdown()

	_, err := fileKey("Data\\file.txt", FlagFixKey, 0, 0)
	require.Error(t, err)

	var mErr *Error
	require.ErrorAs(t, err, &mErr)
	require.Equal(t, KindUnsupported, mErr.Kind)
}
