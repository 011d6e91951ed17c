package lzma

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

type Status int

const (
	StatusNotFinished Status = iota
	StatusFinishedWithMark
	StatusMaybeFinishedWithoutMark
)

func (s Status) String() string {
	switch s {
	case StatusNotFinished:
		return "not finished"
	case StatusFinishedWithMark:
		return "finished with end marker"
	case StatusMaybeFinishedWithoutMark:
		return "maybe finished without end marker"
	}

	return fmt.Sprintf("Status(%d)", int(s))
}

// Result describes one decode call: bytes written to the destination,
// bytes consumed from the source and how the stream ended.
type Result struct {
	Written  int
	Consumed int
	Status   Status
}

// Decoder decodes raw LZMA streams, one independent stream per call. It
// owns its probability model and window and is not safe for concurrent
// use; use one Decoder per goroutine.
type Decoder struct {
	props Properties
	cfg   Config
	log   logrus.FieldLogger

	s   *state
	win *window
	rd  rangeDecoder

	reserved int64
	closed   bool
}

func NewDecoder(p Properties) (*Decoder, error) {
	return Config{}.NewDecoder(p)
}

// NewDecoder verifies p, then allocates the probability tables and the
// window.
func (c Config) NewDecoder(p Properties) (*Decoder, error) {
	if err := c.Verify(); err != nil {
		return nil, err
	}

	if err := p.Verify(); err != nil {
		return nil, err
	}

	winSize := c.windowSize(p)
	reserved := p.TableBytes() + int64(winSize)

	if err := c.Budget.Reserve(reserved); err != nil {
		return nil, err
	}

	created := false
	defer func() {
		if !created {
			c.Budget.Release(reserved)
		}
	}()

	win, err := newWindow(winSize, p.dictSize())
	if err != nil {
		return nil, err
	}

	d := &Decoder{
		props: p,
		cfg:   c,
		log:   c.logger(),

		s:   newState(p.LC, p.LP, p.PB),
		win: win,

		reserved: reserved,
	}
	created = true

	d.log.WithFields(logrus.Fields{
		"lc":     p.LC,
		"lp":     p.LP,
		"pb":     p.PB,
		"dict":   p.DictSize,
		"window": winSize,
	}).Debug("lzma: decoder created")

	return d, nil
}

func (d *Decoder) Properties() Properties {
	return d.props
}

// Reset restores the initial probability model and clears the rep
// distances and the operation state. The window is kept.
func (d *Decoder) Reset() {
	if d == nil || d.closed {
		return
	}

	d.s.Reset()
}

// Close releases the decoder's memory. It is a no-op on a nil or already
// closed decoder.
func (d *Decoder) Close() error {
	if d == nil || d.closed {
		return nil
	}

	d.cfg.Budget.Release(d.reserved)
	d.reserved = 0
	d.closed = true
	d.s = nil
	d.win = nil
	d.rd = rangeDecoder{}

	d.log.Debug("lzma: decoder closed")

	return nil
}

// ensureWindow grows the window so that a destination of n bytes can be
// decoded. The window never exceeds the rounded dictionary size.
func (d *Decoder) ensureWindow(n int) error {
	size := d.props.BufferSize()
	if uint64(n) < uint64(size) {
		size = uint32(n)
	}

	if size <= d.win.size {
		return nil
	}

	grow := int64(size) - int64(d.win.size)
	if err := d.cfg.Budget.Reserve(grow); err != nil {
		return err
	}

	buf, err := allocBytes(size)
	if err != nil {
		d.cfg.Budget.Release(grow)

		return err
	}

	d.win.buf = buf
	d.win.size = size
	d.reserved += grow

	d.log.WithField("window", size).Debug("lzma: window grown")

	return nil
}

// DecodePartial decodes one stream from src into dst without checking that
// both were used up. Decoding stops at an end marker, or once dst is full
// and the range coder may be at its end.
func (d *Decoder) DecodePartial(dst, src []byte) (Result, error) {
	if d == nil || d.closed {
		return Result{}, ErrClosed
	}

	if err := d.ensureWindow(len(dst)); err != nil {
		return Result{}, err
	}

	d.Reset()
	d.win.Reset(dst)

	status, err := d.decode(src)
	res := Result{
		Written:  d.win.total,
		Consumed: d.rd.Consumed(),
		Status:   status,
	}
	d.win.Reset(nil)

	if err != nil {
		d.log.WithFields(logrus.Fields{
			"in":  res.Consumed,
			"out": res.Written,
		}).WithError(err).Debug("lzma: decode failed")
	}

	return res, err
}

// Decompress decodes src into dst and requires that all of src was
// consumed and all of dst was produced.
func (d *Decoder) Decompress(dst, src []byte) (int, error) {
	res, err := d.DecodePartial(dst, src)
	if err != nil {
		return res.Written, err
	}

	if res.Written != len(dst) {
		return res.Written, fmt.Errorf("%w: decoded %d of %d bytes", ErrFormatMismatch, res.Written, len(dst))
	}

	if res.Consumed != len(src) {
		return res.Written, fmt.Errorf("%w: consumed %d of %d input bytes", ErrFormatMismatch, res.Consumed, len(src))
	}

	return res.Written, nil
}

// Decompress decodes a single raw stream with a temporary decoder.
func Decompress(p Properties, dst, src []byte) (int, error) {
	d, err := Config{MaxOutput: outputBound(len(dst))}.NewDecoder(p)
	if err != nil {
		return 0, err
	}
	defer d.Close()

	return d.Decompress(dst, src)
}

func (d *Decoder) decode(src []byte) (Status, error) {
	if err := d.rd.Init(src); err != nil {
		return StatusNotFinished, err
	}

	// every operation but the end marker writes at least one byte, so the
	// loop ends by overflow or end marker once the destination is full
	for {
		if d.win.Full() && d.rd.IsFinishedOK() {
			return StatusMaybeFinishedWithoutMark, nil
		}

		eos, err := d.decodeOp()
		if err != nil {
			return StatusNotFinished, err
		}

		if eos {
			if !d.rd.IsFinishedOK() {
				return StatusNotFinished, fmt.Errorf("%w: range coder not finished at end marker", ErrFormatMismatch)
			}

			return StatusFinishedWithMark, nil
		}
	}
}

// decodeOp decodes one literal, match or rep match. It reports true for the
// end marker.
func (d *Decoder) decodeOp() (bool, error) {
	s := d.s
	rd := &d.rd
	w := d.win

	posState := w.Pos() & s.posMask
	state2 := (uint32(s.state) << kNumPosBitsMax) + posState

	bit, err := rd.DecodeBit(&s.isMatch[state2])
	if err != nil {
		return false, err
	}

	if bit == 0 { // literal
		err = d.decodeLiteral()
		if err != nil {
			return false, fmt.Errorf("decode literal: %w", err)
		}

		return false, nil
	}

	var length uint32

	bit, err = rd.DecodeBit(&s.isRep[s.state])
	if err != nil {
		return false, err
	}

	if bit == 0 { // simple match
		length, err = s.lenDecoder.Decode(rd, posState)
		if err != nil {
			return false, fmt.Errorf("decode length: %w", err)
		}

		dist, err := s.distDecoder.Decode(rd, length)
		if err != nil {
			return false, fmt.Errorf("decode distance: %w", err)
		}

		if dist == endMarkerDist {
			return true, nil
		}

		s.rep3, s.rep2, s.rep1, s.rep0 = s.rep2, s.rep1, s.rep0, dist
		s.state = s.state.afterMatch()
	} else { // rep match
		if w.IsEmpty() {
			return false, fmt.Errorf("%w: rep match before any output", ErrDistanceOutOfRange)
		}

		bit, err = rd.DecodeBit(&s.isRepG0[s.state])
		if err != nil {
			return false, err
		}

		if bit == 0 {
			bit, err = rd.DecodeBit(&s.isRep0Long[state2])
			if err != nil {
				return false, err
			}

			if bit == 0 { // short rep
				s.state = s.state.afterShortRep()

				b, err := w.GetByte(s.rep0)
				if err != nil {
					return false, fmt.Errorf("short rep: %w", err)
				}

				return false, w.PutByte(b)
			}
		} else {
			var dist uint32

			bit, err = rd.DecodeBit(&s.isRepG1[s.state])
			if err != nil {
				return false, err
			}

			if bit == 0 {
				dist = s.rep1
			} else {
				bit, err = rd.DecodeBit(&s.isRepG2[s.state])
				if err != nil {
					return false, err
				}

				if bit == 0 {
					dist = s.rep2
				} else {
					dist = s.rep3
					s.rep3 = s.rep2
				}

				s.rep2 = s.rep1
			}

			s.rep1 = s.rep0
			s.rep0 = dist
		}

		length, err = s.repLenDecoder.Decode(rd, posState)
		if err != nil {
			return false, fmt.Errorf("decode rep length: %w", err)
		}

		s.state = s.state.afterRep()
	}

	err = w.CopyMatch(s.rep0, length+kMatchMinLen)
	if err != nil {
		return false, fmt.Errorf("copy match: %w", err)
	}

	return false, nil
}

func (d *Decoder) decodeLiteral() error {
	s := d.s
	w := d.win

	var matchByte byte

	matched := !s.state.isLiteral()
	if matched {
		b, err := w.GetByte(s.rep0)
		if err != nil {
			return err
		}

		matchByte = b
	}

	b, err := s.litDecoder.Decode(&d.rd, w.PrevByte(), w.Pos(), matched, matchByte)
	if err != nil {
		return err
	}

	s.state = s.state.afterLiteral()

	return w.PutByte(b)
}
