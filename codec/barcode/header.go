/*
DESCRIPTION
  header.go extracts and builds the 5-byte frame header: a big-endian 32-bit
  file length followed by its CRC-8. A zero length is the transmitter's idle
  pattern and means no file is on screen yet.

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package barcode

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Header codec errors.
var (
	ErrHeaderShort       = errors.New("header needs 5 bytes")
	ErrHeaderCRCMismatch = errors.New("header CRC mismatch")
)

// ParseHeader returns the file byte length from the first HeaderBytes of b.
// The checksum must match; a zero length is valid and means the transmitter
// has nothing on screen yet.
func ParseHeader(b []byte) (uint32, error) {
	if len(b) < HeaderBytes {
		return 0, errors.Wrapf(ErrHeaderShort, "got %d", len(b))
	}
	if CRC8(b[:4]) != b[4] {
		return 0, errors.Wrapf(ErrHeaderCRCMismatch, "want %#02x got %#02x", CRC8(b[:4]), b[4])
	}
	return binary.BigEndian.Uint32(b), nil
}

// PutHeader writes the header for a file of the given byte length into the
// first HeaderBytes of b.
func PutHeader(b []byte, length uint32) {
	binary.BigEndian.PutUint32(b, length)
	b[4] = CRC8(b[:4])
}
