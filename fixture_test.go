// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"bytes"
	"encoding/binary"
	"os"
	"testing"
)

// testFile describes one member to embed in a fixture archive built by
// buildFixtureArchive. There is no production writer (archive creation is
// out of scope); these helpers exist purely so tests have something to
// open, in the spirit of the teacher's own test-only fixture builders.
type testFile struct {
	name      string
	data      []byte
	encrypt   bool
	sectorCRC bool
}

const fixtureSectorSize = 512 // BlockSizeLog2 = 0 -> 512 << 0

// buildFixtureArchive writes a minimal, uncompressed V1 MPQ archive to a
// temp file and returns its path. Each file is split into 512-byte sectors;
// plain files carry no sector offset table, encrypted files carry an
// encrypted one. It holds an Init reference while it runs, since hashing
// and encryption need the crypt table.
func buildFixtureArchive(t *testing.T, files []testFile) string {
	t.Helper()

	Init()
	defer Shutdown()

	type laidOutFile struct {
		testFile
		blockIndex  int
		dataOffset  uint32
		packedSize  uint32
		flags       BlockFlags
	}

	var body bytes.Buffer
	laid := make([]laidOutFile, len(files))

	for i, tf := range files {
		laid[i].testFile = tf
		laid[i].blockIndex = i

		n := len(tf.data)
		sectors := (n + fixtureSectorSize - 1) / fixtureSectorSize
		if sectors == 0 {
			sectors = 1
		}
		offsets := make([]uint32, sectors+1)
		for s := 0; s <= sectors; s++ {
			off := fixtureSectorSize * s
			if off > n {
				off = n
			}
			offsets[s] = uint32(off)
		}

		var key uint32
		if tf.encrypt {
			key = hashString(tf.name, saltTableKey)
		}

		laid[i].dataOffset = uint32(body.Len())

		if tf.encrypt {
			// Only encrypted files carry an on-disk offset table; plain
			// files rely on the reader's synthesized sector arithmetic
			// (no table, sectors start immediately at the block offset).
			tableSize := uint32(len(offsets) * 4)
			onDisk := make([]uint32, len(offsets))
			for j, v := range offsets {
				onDisk[j] = tableSize + v
			}
			offsetTableBytes := make([]byte, len(onDisk)*4)
			for j, v := range onDisk {
				binary.LittleEndian.PutUint32(offsetTableBytes[j*4:], v)
			}
			words := bytesToWords(offsetTableBytes)
			encryptWords(words, key-1)
			wordsToBytes(words, offsetTableBytes)
			body.Write(offsetTableBytes)
		}

		for s := 0; s < sectors; s++ {
			chunk := append([]byte(nil), tf.data[offsets[s]:offsets[s+1]]...)
			if tf.encrypt {
				// only whole words are encrypted; trailing bytes of a
				// sector whose length is not a multiple of 4 stay plain,
				// as ReadBlock expects.
				words := bytesToWords(chunk)
				encryptWords(words, key+uint32(s))
				wordsToBytes(words, chunk)
			}
			body.Write(chunk)
		}

		laid[i].packedSize = uint32(body.Len()) - laid[i].dataOffset
		flags := FlagExists
		if tf.encrypt {
			flags |= FlagEncrypted
		}
		laid[i].flags = flags
	}

	const headerSize = headerSizeV1
	hashCount := uint32(nextPow2(uint32(len(files)) * 2))
	if hashCount == 0 {
		hashCount = 4
	}
	blockCount := uint32(len(files))

	hashTableBytes := make([]byte, hashCount*16)
	for i := range hashTableBytes {
		hashTableBytes[i] = 0xFF // hashTableEmpty pattern
	}
	for _, lf := range laid {
		h0 := hashString(lf.name, saltTableOffset)
		h1 := hashString(lf.name, saltNameA)
		h2 := hashString(lf.name, saltNameB)
		slot := h0 % hashCount
		// on a collision, take the next free slot forward (FileNumber's
		// probe does not wrap, so neither does this).
		for slot < hashCount && binary.LittleEndian.Uint32(hashTableBytes[slot*16+12:]) != hashTableEmpty {
			slot++
		}
		if slot == hashCount {
			t.Fatalf("fixture: no free hash slot for %q", lf.name)
		}
		binary.LittleEndian.PutUint32(hashTableBytes[slot*16:], h1)
		binary.LittleEndian.PutUint32(hashTableBytes[slot*16+4:], h2)
		binary.LittleEndian.PutUint16(hashTableBytes[slot*16+8:], 0)
		binary.LittleEndian.PutUint16(hashTableBytes[slot*16+10:], 0)
		binary.LittleEndian.PutUint32(hashTableBytes[slot*16+12:], uint32(lf.blockIndex))
	}
	hashWords := bytesToWords(hashTableBytes)
	encryptWords(hashWords, hashString("(hash table)", saltTableKey))
	wordsToBytes(hashWords, hashTableBytes)

	blockTableBytes := make([]byte, blockCount*16)
	for _, lf := range laid {
		o := lf.blockIndex * 16
		binary.LittleEndian.PutUint32(blockTableBytes[o:], headerSize+lf.dataOffset)
		binary.LittleEndian.PutUint32(blockTableBytes[o+4:], lf.packedSize)
		binary.LittleEndian.PutUint32(blockTableBytes[o+8:], uint32(len(lf.data)))
		binary.LittleEndian.PutUint32(blockTableBytes[o+12:], uint32(lf.flags))
	}
	blockWords := bytesToWords(blockTableBytes)
	encryptWords(blockWords, hashString("(block table)", saltTableKey))
	wordsToBytes(blockWords, blockTableBytes)

	hashTableOffset := headerSize + uint32(body.Len())
	blockTableOffset := hashTableOffset + uint32(len(hashTableBytes))
	archiveSize := blockTableOffset + uint32(len(blockTableBytes))

	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, uint32(mpqMagic))
	binary.Write(&out, binary.LittleEndian, uint32(headerSize))
	binary.Write(&out, binary.LittleEndian, archiveSize)
	binary.Write(&out, binary.LittleEndian, uint16(formatVersion1))
	binary.Write(&out, binary.LittleEndian, uint16(0))
	binary.Write(&out, binary.LittleEndian, hashTableOffset)
	binary.Write(&out, binary.LittleEndian, blockTableOffset)
	binary.Write(&out, binary.LittleEndian, hashCount)
	binary.Write(&out, binary.LittleEndian, blockCount)
	out.Write(body.Bytes())
	out.Write(hashTableBytes)
	out.Write(blockTableBytes)

	f, err := os.CreateTemp(t.TempDir(), "fixture-*.mpq")
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer f.Close()
	if _, err := f.Write(out.Bytes()); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return f.Name()
}

func nextPow2(n uint32) uint32 {
	p := uint32(1)
	for p < n {
		p <<= 1
	}
	return p
}
