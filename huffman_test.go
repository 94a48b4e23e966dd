// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHuffmanTreeRebalancesUnderLoad(t *testing.T) {
	tree := newHuffmanTree()
	for i := 0; i < huffmanMaxWeight+10; i++ {
		tree.bump(int('a'))
	}
	require.NotNil(t, tree.root)
	require.LessOrEqual(t, tree.root.weight, uint32(huffmanMaxWeight)*2)
}

func TestBuildHuffTableSingleSymbol(t *testing.T) {
	lengths := make([]byte, 4)
	lengths[0] = 1
	table := buildHuffTable(lengths)
	require.Equal(t, uint16(1), table.counts[1])
}
