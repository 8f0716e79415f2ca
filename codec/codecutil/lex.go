/*
DESCRIPTION
  lex.go provides a lexer for fixed-size access units, used to slice a raw
  luminance byte stream into whole frames.

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package codecutil provides general utilities for moving data through the
// receive pipeline.
package codecutil

import (
	"fmt"
	"io"
	"time"
)

// ByteLexer is used to lex fixed-size units using a buffer size which is
// configured upon construction.
type ByteLexer struct {
	bufSize int
}

// NewByteLexer returns a pointer to a ByteLexer with the given buffer size.
func NewByteLexer(s int) (*ByteLexer, error) {
	if s <= 0 {
		return nil, fmt.Errorf("invalid buffer size: %v", s)
	}
	return &ByteLexer{bufSize: s}, nil
}

// zeroTicks can be used to create an instant ticker.
var zeroTicks chan time.Time

func init() {
	zeroTicks = make(chan time.Time)
	close(zeroTicks)
}

// Lex reads whole l.bufSize byte units from src and writes them to dst every
// d seconds. Units are read in full; a trailing partial unit is discarded.
func (l *ByteLexer) Lex(dst io.Writer, src io.Reader, d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("invalid delay: %v", d)
	}

	var ticker *time.Ticker
	if d == 0 {
		ticker = &time.Ticker{C: zeroTicks}
	} else {
		ticker = time.NewTicker(d)
		defer ticker.Stop()
	}

	buf := make([]byte, l.bufSize)
	for {
		<-ticker.C
		_, err := io.ReadFull(src, buf)
		switch err {
		case nil:
		case io.EOF, io.ErrUnexpectedEOF, io.ErrClosedPipe:
			// The only errors that will stop the lexer are end of input or a
			// closed source.
			return io.EOF
		default:
			continue
		}
		_, err = dst.Write(buf)
		if err != nil {
			return err
		}
	}
}
