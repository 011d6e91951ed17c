package lzma

const kLiteralCoderSize = 0x300

type literalDecoder struct {
	probs  []prob
	lc     uint32
	lpMask uint32
}

func newLiteralDecoder(lc, lp uint8) *literalDecoder {
	d := &literalDecoder{
		probs:  make([]prob, uint32(kLiteralCoderSize)<<(lc+lp)),
		lc:     uint32(lc),
		lpMask: (uint32(1) << lp) - 1,
	}
	d.Reset()

	return d
}

func (d *literalDecoder) Reset() {
	initProbs(d.probs)
}

func (d *literalDecoder) litState(prevByte byte, pos uint32) uint32 {
	return ((pos & d.lpMask) << d.lc) | (uint32(prevByte) >> (8 - d.lc))
}

// Decode reads one literal. When matched is set the bits of matchByte steer
// the probability selection until the first decoded bit that differs.
func (d *literalDecoder) Decode(rc *rangeDecoder, prevByte byte, pos uint32, matched bool, matchByte byte) (byte, error) {
	probs := d.probs[kLiteralCoderSize*d.litState(prevByte, pos):][:kLiteralCoderSize]
	symbol := uint32(1)

	if matched {
		mb := uint32(matchByte)

		for symbol < 0x100 {
			matchBit := (mb >> 7) & 1
			mb <<= 1

			bit, err := rc.DecodeBit(&probs[((1+matchBit)<<8)+symbol])
			if err != nil {
				return 0, err
			}

			symbol = (symbol << 1) | bit
			if matchBit != bit {
				break
			}
		}
	}

	for symbol < 0x100 {
		bit, err := rc.DecodeBit(&probs[symbol])
		if err != nil {
			return 0, err
		}

		symbol = (symbol << 1) | bit
	}

	return byte(symbol - 0x100), nil
}
