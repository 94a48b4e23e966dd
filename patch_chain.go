// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"fmt"
	"strings"
)

// PatchChain is a read-only, priority-ordered view over several archives:
// the last archive in the list wins for any file present in more than one
// (SPEC_FULL.md §1 SUPPLEMENT). It performs no writes; it is built entirely
// out of Archive.FileNumber/OpenFileAt/Open, already restricted to reading.
type PatchChain struct {
	archives []*Archive
}

// OpenPatchChain opens each path in order and returns a chain over them.
// On any failure, archives already opened are closed before returning.
func OpenPatchChain(paths []string) (*PatchChain, error) {
	archives := make([]*Archive, 0, len(paths))

	for _, path := range paths {
		archive, err := Open(path, OffsetAutoDetect)
		if err != nil {
			for _, opened := range archives {
				_ = opened.Close()
			}
			return nil, newErr("OpenPatchChain", KindOpen, fmt.Errorf("%s: %w", path, err))
		}
		archives = append(archives, archive)
	}

	return &PatchChain{archives: archives}, nil
}

// Close closes every archive in the chain, returning the first error.
func (p *PatchChain) Close() error {
	var firstErr error
	for _, archive := range p.archives {
		if err := archive.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// resolve walks the chain from highest to lowest priority looking for name,
// returning the archive and its dense index, or ok=false if no archive
// carries the name.
func (p *PatchChain) resolve(name string) (archive *Archive, dense int, ok bool) {
	normalized := strings.ReplaceAll(name, "/", "\\")
	for i := len(p.archives) - 1; i >= 0; i-- {
		a := p.archives[i]
		d, err := a.FileNumber(normalized)
		if err == nil {
			return a, d, true
		}
	}
	return nil, 0, false
}

// HasFile reports whether any archive in the chain carries name and it is
// not shadowed by a delete marker in a higher-priority archive.
func (p *PatchChain) HasFile(name string) bool {
	a, dense, ok := p.resolve(name)
	if !ok {
		return false
	}
	block, err := a.blockAt(dense)
	if err != nil {
		return false
	}
	return !block.Flags.Has(FlagDeleteMarker)
}

// OpenFile opens the highest-priority, non-deleted copy of name.
func (p *PatchChain) OpenFile(name string) (*File, error) {
	a, dense, ok := p.resolve(name)
	if !ok {
		return nil, newErr("OpenFile", KindExist, nil)
	}
	block, err := a.blockAt(dense)
	if err != nil {
		return nil, err
	}
	if block.Flags.Has(FlagDeleteMarker) {
		return nil, newErr("OpenFile", KindExist, fmt.Errorf("%s marked deleted", name))
	}
	return a.openFileAt(dense, strings.ReplaceAll(name, "/", "\\"))
}

// ArchiveCount returns the number of archives in the chain.
func (p *PatchChain) ArchiveCount() int { return len(p.archives) }

// HasPatchFile reports whether name's highest-priority copy carries the
// patch-file flag.
func (p *PatchChain) HasPatchFile(name string) bool {
	a, dense, ok := p.resolve(name)
	if !ok {
		return false
	}
	block, err := a.blockAt(dense)
	if err != nil {
		return false
	}
	return block.Flags.Has(FlagPatchFile)
}
