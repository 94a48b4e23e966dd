// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

/*
Package mpq provides pure Go support for reading MPQ (Mo'PaQ) archives.

MPQ is an archive format created by Blizzard Entertainment, used in games like
Diablo, StarCraft, and World of Warcraft. This package supports MPQ format
versions 1 and 2 and reads archives; it does not create or modify them.

# Features

  - Pure Go implementation, no CGO
  - Format V1 (original, up to 4GiB) and V2 (extended, >4GiB) headers
  - Hash/block table decryption, encrypted file key derivation and
    recovery, and sector CRC verification
  - Huffman, DEFLATE (zlib framing), PKWARE DCL explode, bzip2, and
    ADPCM mono/stereo decompression, including multi-transform chains

# Basic Usage

	mpq.Init()
	defer mpq.Shutdown()

	archive, err := mpq.Open("game.mpq", mpq.OffsetAutoDetect)
	if err != nil {
		log.Fatal(err)
	}
	defer archive.Close()

	f, err := archive.OpenFile("Data\\file.txt")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	data, err := f.ReadAll()
	if err != nil {
		log.Fatal(err)
	}

# Path Conventions

MPQ archives use backslash (\) as the path separator. FileNumber and
OpenFile normalize forward slashes to backslashes before hashing, so both
forms resolve to the same file.

# Limitations

  - No support for creating, writing, or modifying archives
  - No support for MPQ format V3/V4 (Cataclysm+)
  - No support for the FIX_KEY block flag (KindUnsupported; see DESIGN.md)
  - (listfile) parsing is left to callers; this package only exposes dense
    file indices and, where a name is already known, name-based lookup
*/
package mpq
