// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestADPCMMonoDecodesInitialSample(t *testing.T) {
	// level byte + one int16 initial sample, no nibble data.
	in := []byte{4, 0x34, 0x12}
	out := make([]byte, 2)

	n, err := decompressADPCMMono(out, in)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, byte(0x34), out[0])
	require.Equal(t, byte(0x12), out[1])
}

func TestADPCMStereoShortInputIsUnpack(t *testing.T) {
	out := make([]byte, 4)
	_, err := decompressADPCMStereo(out, []byte{1})
	require.Error(t, err)

	var mErr *Error
	require.ErrorAs(t, err, &mErr)
	require.Equal(t, KindUnpack, mErr.Kind)
}
