/*
DESCRIPTION
  pipeline.go provides the per-frame decode pipeline and the transfer state
  machine: binarize and locate the barcode, sample the content grid through
  the perspective transform, check the header, correct the payload with
  Reed-Solomon and feed the recovered encoding packets to the fountain
  decoder. A frame that fails any step is dropped and the next frame is
  fetched.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package rx

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/ausocean/utils/bitrate"
	"github.com/ausocean/utils/logging"

	"github.com/ausocean/optic/codec/barcode"
	"github.com/ausocean/optic/codec/rs"
	"github.com/ausocean/optic/fountain"
	"github.com/ausocean/optic/rx/config"
)

// Transfer states.
const (
	stateAwaitingHeader = iota
	stateAccumulating
	stateComplete
)

// decoder is the per-transfer decode state machine. It owns the fountain
// decoder, the only state that persists across frames; everything else is
// scoped to one frame.
type decoder struct {
	cfg     config.Config
	log     logging.Logger
	cb      Callbacks
	bitrate *bitrate.Calculator

	geom      barcode.Geometry
	rs        *rs.Codec
	numBlocks int

	state       int
	fileLen     uint32
	fd          *fountain.Decoder
	frameIndex  int
	lastSuccess int
	frameTotal  int
}

// newDecoder derives the barcode geometry and symbol codecs from the given
// configuration.
func newDecoder(c config.Config, cb Callbacks, br *bitrate.Calculator) (*decoder, error) {
	geom, err := barcode.NewGeometry(c)
	if err != nil {
		return nil, err
	}

	numBlocks := 1
	if v, ok := c.Hints[config.HintSourceBlocks]; ok {
		numBlocks, err = strconv.Atoi(v)
		if err != nil || numBlocks < 1 {
			return nil, fmt.Errorf("bad %s hint %q: %w", config.HintSourceBlocks, v, config.ErrInvalid)
		}
	}

	// The frame total is estimated from the nominal transmission duration;
	// when that gives zero, begin substitutes the source symbol count once
	// the header is known.
	frameTotal := int(float64(c.FPS) * c.Distance)

	return &decoder{
		cfg:        c,
		log:        c.Logger,
		cb:         cb,
		bitrate:    br,
		geom:       geom,
		rs:         rs.NewCodec(geom.ECByteNum),
		numBlocks:  numBlocks,
		frameTotal: frameTotal,
	}, nil
}

// frame passes one luminance frame through the decode pipeline and reports
// whether the transfer is complete. All failures are per-frame and
// recoverable: decode failures are logged at debug level, a transfer that
// cannot begin at warning level, and the frame is dropped.
func (d *decoder) frame(lum []byte, w, h int) bool {
	d.frameIndex++
	defer d.progress()

	m, err := barcode.NewMatrix(lum, w, h)
	if err != nil {
		d.log.Debug("dropping frame", "frame", d.frameIndex, "error", err.Error())
		return false
	}

	strat := barcode.NewMono(barcode.SamplerFor(m, d.geom))
	ring := d.geom.RingWidth()
	content, err := strat.SampleZone(barcode.Zone{X: ring, Y: ring, W: d.geom.ContentLength, H: d.geom.ContentLength})
	if err != nil {
		d.log.Debug("dropping frame", "frame", d.frameIndex, "error", err.Error())
		return false
	}

	length, err := barcode.ParseHeader(content)
	if err != nil {
		d.log.Debug("dropping frame", "frame", d.frameIndex, "error", err.Error())
		return false
	}
	if length == 0 {
		// The transmitter is between files; try again on the next frame.
		d.log.Debug("no transmission on screen", "frame", d.frameIndex)
		return false
	}

	if d.state == stateAwaitingHeader {
		err = d.begin(length)
		if err != nil {
			d.log.Warning("could not begin transfer", "length", length, "error", err.Error())
			return false
		}
	}

	// Each frame carries up to two independent packets: the payload as
	// sampled and the payload with bit polarity flipped.
	packets := 0
	for _, reverse := range []bool{false, true} {
		if d.readPacket(content[barcode.HeaderBytes:], reverse) {
			packets++
		}
		if d.state == stateComplete {
			break
		}
	}
	if packets > 0 {
		d.lastSuccess = d.frameIndex
	}
	return d.state == stateComplete
}

// begin initializes the fountain decoder once the header is known and moves
// the state machine to accumulation.
func (d *decoder) begin(length uint32) error {
	fd, err := fountain.NewDecoder(int(length), d.geom.SymbolSize(), d.numBlocks)
	if err != nil {
		return err
	}
	d.fd = fd
	d.fileLen = length
	d.state = stateAccumulating
	if d.frameTotal == 0 {
		d.frameTotal = fd.SourceSymbols()
	}
	d.log.Info("transfer started", "bytes", length, "sourceSymbols", fd.SourceSymbols())
	d.status(fmt.Sprintf("receiving %d bytes", length))
	return nil
}

// readPacket error-corrects one reading of the payload area and feeds the
// recovered encoding packet to the fountain decoder. It reports whether the
// reading contributed a packet.
func (d *decoder) readPacket(area []byte, reverse bool) bool {
	buf := make([]byte, len(area))
	if reverse {
		for i, b := range area {
			buf[i] = ^b
		}
	} else {
		copy(buf, area)
	}

	data, corrected, err := d.correct(buf)
	if err != nil {
		d.log.Debug("dropping reading", "frame", d.frameIndex, "reverse", reverse, "error", err.Error())
		return false
	}
	if corrected > 0 {
		d.log.Debug("corrected symbols", "frame", d.frameIndex, "reverse", reverse, "corrected", corrected)
	}

	p, err := fountain.ParsePacket(data, d.numBlocks)
	if err != nil {
		d.log.Debug("dropping reading", "frame", d.frameIndex, "reverse", reverse, "error", err.Error())
		return false
	}

	complete, err := d.fd.Put(p)
	if err != nil {
		d.log.Debug("dropping reading", "frame", d.frameIndex, "reverse", reverse, "error", err.Error())
		return false
	}
	d.bitrate.Report(len(p.Data))
	if complete {
		d.state = stateComplete
	}
	return true
}

// correct splits the payload area into its interleaved Reed-Solomon
// codewords, decodes each, and reassembles the corrected data bytes.
func (d *decoder) correct(area []byte) ([]byte, int, error) {
	dataLen := d.geom.DataBytes()
	parity := area[dataLen:]

	cws := make([][]byte, d.geom.ECNum)
	for i := 0; i < dataLen; i++ {
		cws[i%d.geom.ECNum] = append(cws[i%d.geom.ECNum], area[i])
	}
	corrected := 0
	for i, cw := range cws {
		cw = append(cw, parity[i*d.geom.ECByteNum:(i+1)*d.geom.ECByteNum]...)
		n, err := d.rs.Decode(cw, nil)
		if err != nil {
			return nil, corrected, err
		}
		corrected += n
		cws[i] = cw
	}

	data := make([]byte, dataLen)
	for i := range data {
		data[i] = cws[i%d.geom.ECNum][i/d.geom.ECNum]
	}
	return data, corrected, nil
}

// finish hashes the reconstructed bytes, reports the digest and hands the
// artifact to the sink.
func (d *decoder) finish() error {
	data, err := d.fd.Data()
	if err != nil {
		return err
	}

	sum := sha1.Sum(data)
	digest := hex.EncodeToString(sum[:])
	d.log.Info("transfer verified", "bytes", len(data), "sha1", digest)
	d.status("SHA-1 " + digest)

	name := d.cfg.OutputName
	if name == "" {
		name = digest
	}
	if d.cb.Sink != nil {
		return d.cb.Sink(data, name)
	}
	return nil
}

// progress fires the per-frame progress callback.
func (d *decoder) progress() {
	if d.cb.Progress == nil {
		return
	}
	processed := 0
	if d.fd != nil {
		processed = d.fd.Received()
	}
	d.cb.Progress(d.frameIndex, d.lastSuccess, d.frameTotal, processed)
}

// status fires the status message callback.
func (d *decoder) status(msg string) {
	if d.cb.Status != nil {
		d.cb.Status(msg)
	}
}
