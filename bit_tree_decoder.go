package lzma

type bitTreeDecoder struct {
	probs   []prob
	numBits uint32
}

func newBitTreeDecoder(numBits uint32) bitTreeDecoder {
	d := bitTreeDecoder{
		numBits: numBits,
		probs:   make([]prob, uint32(1)<<numBits),
	}
	d.Reset()

	return d
}

func (d *bitTreeDecoder) Reset() {
	initProbs(d.probs)
}

func (d *bitTreeDecoder) Decode(rc *rangeDecoder) (uint32, error) {
	m := uint32(1)

	for i := uint32(0); i < d.numBits; i++ {
		bit, err := rc.DecodeBit(&d.probs[m])
		if err != nil {
			return 0, err
		}

		m = (m << 1) + bit
	}

	return m - (uint32(1) << d.numBits), nil
}

func (d *bitTreeDecoder) ReverseDecode(rc *rangeDecoder) (uint32, error) {
	return bitTreeReverseDecode(d.probs, d.numBits, rc)
}

// bitTreeReverseDecode decodes numBits bits least significant first. probs
// must hold at least 1<<numBits entries.
func bitTreeReverseDecode(probs []prob, numBits uint32, rc *rangeDecoder) (uint32, error) {
	m := uint32(1)
	symbol := uint32(0)

	for i := uint32(0); i < numBits; i++ {
		bit, err := rc.DecodeBit(&probs[m])
		if err != nil {
			return 0, err
		}

		m = (m << 1) | bit
		symbol |= bit << i
	}

	return symbol, nil
}
