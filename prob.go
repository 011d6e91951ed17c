package lzma

const (
	kNumBitModelTotalBits = 11
	kBitModelTotal        = 1 << kNumBitModelTotalBits
	kNumMoveBits          = 5

	probInitVal prob = kBitModelTotal / 2
)

// prob is an adaptive estimate of the probability that the next bit is 0,
// scaled to kBitModelTotal.
type prob uint16

func (p *prob) inc() {
	*p += (kBitModelTotal - *p) >> kNumMoveBits
}

func (p *prob) dec() {
	*p -= *p >> kNumMoveBits
}

func (p prob) bound(rang uint32) uint32 {
	return (rang >> kNumBitModelTotalBits) * uint32(p)
}

func initProbs(probs []prob) {
	for i := range probs {
		probs[i] = probInitVal
	}
}
