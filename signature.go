// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// SignatureInfo holds the parsed contents of the optional "(signature)"
// special file (SPEC_FULL.md §1 SUPPLEMENT).
type SignatureInfo struct {
	Version   uint32
	Signature []byte
}

// ReadSignature reads and parses "(signature)" if present, returning
// (nil, nil) if the archive carries none.
func (a *Archive) ReadSignature() (*SignatureInfo, error) {
	f, err := a.OpenFile("(signature)")
	if err != nil {
		var mErr *Error
		if errors.As(err, &mErr) && mErr.Kind == KindExist {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	data, err := f.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(data) < 8 {
		return nil, newErr("ReadSignature", KindFormat, fmt.Errorf("signature data too small: %d bytes", len(data)))
	}

	version := binary.LittleEndian.Uint32(data[0:4])
	sigLength := binary.LittleEndian.Uint32(data[4:8])
	if len(data) < int(8+sigLength) {
		return nil, newErr("ReadSignature", KindFormat, fmt.Errorf("signature truncated: want %d bytes, have %d", 8+sigLength, len(data)))
	}

	signature := make([]byte, sigLength)
	copy(signature, data[8:8+sigLength])

	return &SignatureInfo{Version: version, Signature: signature}, nil
}

// VerifySignature performs the size checks spec.md's signature format
// defines for each known version. Full RSA verification is out of scope:
// no public key material is specified anywhere in the source corpus (see
// SPEC_FULL.md §1 SUPPLEMENT).
func (s *SignatureInfo) VerifySignature() error {
	const op = "VerifySignature"

	if s == nil {
		return newErr(op, KindExist, fmt.Errorf("no signature available"))
	}
	switch s.Version {
	case 0: // weak signature
		if len(s.Signature) < 64 {
			return newErr(op, KindFormat, fmt.Errorf("weak signature too short: %d bytes", len(s.Signature)))
		}
	case 1: // strong signature
		if len(s.Signature) < 256 {
			return newErr(op, KindFormat, fmt.Errorf("strong signature too short: %d bytes", len(s.Signature)))
		}
	default:
		return newErr(op, KindUnsupported, fmt.Errorf("unknown signature version: %d", s.Version))
	}
	return nil
}
