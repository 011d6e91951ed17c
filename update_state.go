package lzma

const (
	kNumStates     = 12
	kNumPosBitsMax = 4

	// states below kNumLitStates were entered by a literal
	kNumLitStates = 7
)

// opState is the index of the 12-state machine recording the kinds of the
// most recent operations.
type opState uint32

func (s opState) afterLiteral() opState {
	switch {
	case s < 4:
		return 0
	case s < 10:
		return s - 3
	}

	return s - 6
}

func (s opState) afterMatch() opState {
	if s < kNumLitStates {
		return 7
	}

	return 10
}

func (s opState) afterRep() opState {
	if s < kNumLitStates {
		return 8
	}

	return 11
}

func (s opState) afterShortRep() opState {
	if s < kNumLitStates {
		return 9
	}

	return 11
}

func (s opState) isLiteral() bool {
	return s < kNumLitStates
}
