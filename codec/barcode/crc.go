/*
DESCRIPTION
  crc.go implements the CRC-8/ITU-T checksum guarding the frame header:
  polynomial 0x07, zero initial value, no reflection, no final xor.

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

const crcPoly = 0x07

var crcTable = makeCRCTable()

func makeCRCTable() [256]byte {
	var t [256]byte
	for i := 0; i < 256; i++ {
		c := byte(i)
		for b := 0; b < 8; b++ {
			if c&0x80 != 0 {
				c = c<<1 ^ crcPoly
			} else {
				c <<= 1
			}
		}
		t[i] = c
	}
	return t
}

// CRC8 returns the CRC-8/ITU-T checksum of p.
func CRC8(p []byte) byte {
	var c byte
	for _, b := range p {
		c = crcTable[c^b]
	}
	return c
}
