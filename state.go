package lzma

// state is the adaptive model of one stream: every probability table plus
// the rep distances and the operation state.
type state struct {
	lc, lp, pb uint8

	posMask uint32

	litDecoder    *literalDecoder
	lenDecoder    *lenDecoder
	repLenDecoder *lenDecoder
	distDecoder   *distDecoder

	isMatch    [kNumStates << kNumPosBitsMax]prob
	isRep      [kNumStates]prob
	isRepG0    [kNumStates]prob
	isRepG1    [kNumStates]prob
	isRepG2    [kNumStates]prob
	isRep0Long [kNumStates << kNumPosBitsMax]prob

	rep0, rep1, rep2, rep3 uint32

	state opState
}

func newState(lc, lp, pb uint8) *state {
	s := &state{
		lc: lc,
		lp: lp,
		pb: pb,

		posMask: (1 << pb) - 1,

		litDecoder:    newLiteralDecoder(lc, lp),
		lenDecoder:    newLenDecoder(),
		repLenDecoder: newLenDecoder(),
		distDecoder:   newDistDecoder(),
	}

	s.Reset()

	return s
}

func (s *state) Reset() {
	s.litDecoder.Reset()
	s.lenDecoder.Reset()
	s.repLenDecoder.Reset()
	s.distDecoder.Reset()

	initProbs(s.isMatch[:])
	initProbs(s.isRep[:])
	initProbs(s.isRepG0[:])
	initProbs(s.isRepG1[:])
	initProbs(s.isRepG2[:])
	initProbs(s.isRep0Long[:])

	s.rep0, s.rep1, s.rep2, s.rep3 = 0, 0, 0, 0
	s.state = 0
}

// probCount is the number of probability counters a state with the given
// literal parameters owns.
func probCount(lc, lp uint8) int64 {
	const (
		flags   = 2*(kNumStates<<kNumPosBitsMax) + 4*kNumStates
		lengths = 2 * (2 + 2*(1<<kNumPosBitsMax)*kLenNumLowSymbols + (1 << kLenNumHighBits))
		dists   = kNumLenToPosStates*(1<<kNumPosSlotBits) + 1 + kNumFullDistances - kEndPosModelIndex + (1 << kNumAlignBits)
	)

	return int64(kLiteralCoderSize)<<(lc+lp) + flags + lengths + dists
}
