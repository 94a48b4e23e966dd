// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadSignatureWeak(t *testing.T) {
	sig := make([]byte, 64)
	for i := range sig {
		sig[i] = byte(i)
	}
	body := make([]byte, 8+len(sig))
	binary.LittleEndian.PutUint32(body[0:], 0)
	binary.LittleEndian.PutUint32(body[4:], uint32(len(sig)))
	copy(body[8:], sig)

	path := buildFixtureArchive(t, []testFile{{name: "(signature)", data: body}})

	Init()
	defer Shutdown()

	a, err := Open(path, OffsetAutoDetect)
	require.NoError(t, err)
	defer a.Close()

	info, err := a.ReadSignature()
	require.NoError(t, err)
	require.NotNil(t, info)
	require.Equal(t, uint32(0), info.Version)
	require.Equal(t, sig, info.Signature)
	require.NoError(t, info.VerifySignature())
}

func TestReadSignatureMissingIsNilNil(t *testing.T) {
	path := buildFixtureArchive(t, []testFile{{name: "solo.txt", data: []byte("x")}})

	Init()
	defer Shutdown()

	a, err := Open(path, OffsetAutoDetect)
	require.NoError(t, err)
	defer a.Close()

	info, err := a.ReadSignature()
	require.NoError(t, err)
	require.Nil(t, info)
}

func TestVerifySignatureRejectsShortWeakSignature(t *testing.T) {
	info := &SignatureInfo{Version: 0, Signature: make([]byte, 10)}
	err := info.VerifySignature()
	require.Error(t, err)
}

func TestVerifySignatureRejectsUnknownVersion(t *testing.T) {
	info := &SignatureInfo{Version: 99, Signature: make([]byte, 300)}
	err := info.VerifySignature()
	require.Error(t, err)
}
