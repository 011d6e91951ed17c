package lzma

import "fmt"

const (
	kTopValue = 1 << 24

	rangeDecoderInitLen = 5
)

// rangeDecoder reads the range-coded bit stream out of an in-memory slice.
// It never reads past len(in); running dry is reported as ErrInputExhausted.
type rangeDecoder struct {
	in  []byte
	pos int

	Range uint32
	Code  uint32
}

func (d *rangeDecoder) Init(in []byte) error {
	d.in = in
	d.pos = 0
	d.Range = 0xFFFFFFFF
	d.Code = 0

	if len(in) < rangeDecoderInitLen {
		return fmt.Errorf("%w: %d bytes, need %d to start", ErrInputExhausted, len(in), rangeDecoderInitLen)
	}

	if in[0] != 0 {
		return fmt.Errorf("%w: first byte is %#02x", ErrFormatMismatch, in[0])
	}

	for i := 1; i < rangeDecoderInitLen; i++ {
		d.Code = (d.Code << 8) | uint32(in[i])
	}
	d.pos = rangeDecoderInitLen

	if d.Code == d.Range {
		return fmt.Errorf("%w: code out of range", ErrFormatMismatch)
	}

	return nil
}

func (d *rangeDecoder) IsFinishedOK() bool {
	return d.Code == 0
}

func (d *rangeDecoder) Consumed() int {
	return d.pos
}

func (d *rangeDecoder) normalize() error {
	if d.Range >= kTopValue {
		return nil
	}

	if d.pos >= len(d.in) {
		return ErrInputExhausted
	}

	d.Range <<= 8
	d.Code = (d.Code << 8) | uint32(d.in[d.pos])
	d.pos++

	return nil
}

func (d *rangeDecoder) DecodeBit(p *prob) (uint32, error) {
	bound := p.bound(d.Range)

	var bit uint32

	if d.Code < bound {
		d.Range = bound
		p.inc()
	} else {
		d.Code -= bound
		d.Range -= bound
		p.dec()
		bit = 1
	}

	if err := d.normalize(); err != nil {
		return 0, err
	}

	return bit, nil
}

func (d *rangeDecoder) DecodeDirectBits(numBits uint32) (uint32, error) {
	var res uint32

	for ; numBits > 0; numBits-- {
		d.Range >>= 1
		d.Code -= d.Range
		t := 0 - (d.Code >> 31)
		d.Code += d.Range & t

		res = (res << 1) + (t + 1)

		if err := d.normalize(); err != nil {
			return 0, err
		}
	}

	return res, nil
}
