package lzma

const (
	kNumLenToPosStates = 4
	kNumPosSlotBits    = 6

	kStartPosModelIndex = 4
	kEndPosModelIndex   = 14
	kNumFullDistances   = 1 << (kEndPosModelIndex >> 1)

	kNumAlignBits = 4

	endMarkerDist = 0xFFFFFFFF
)

type distDecoder struct {
	posSlotDecoder [kNumLenToPosStates]bitTreeDecoder
	posDecoders    [1 + kNumFullDistances - kEndPosModelIndex]prob
	alignDecoder   bitTreeDecoder
}

func newDistDecoder() *distDecoder {
	d := &distDecoder{
		alignDecoder: newBitTreeDecoder(kNumAlignBits),
	}

	for i := range d.posSlotDecoder {
		d.posSlotDecoder[i] = newBitTreeDecoder(kNumPosSlotBits)
	}

	d.Reset()

	return d
}

func (d *distDecoder) Reset() {
	for i := range d.posSlotDecoder {
		d.posSlotDecoder[i].Reset()
	}

	initProbs(d.posDecoders[:])
	d.alignDecoder.Reset()
}

// Decode returns the zero-based match distance. length is the decoded
// length value without kMatchMinLen. endMarkerDist signals the end of the
// stream.
func (d *distDecoder) Decode(rc *rangeDecoder, length uint32) (uint32, error) {
	lenState := length
	if lenState > kNumLenToPosStates-1 {
		lenState = kNumLenToPosStates - 1
	}

	posSlot, err := d.posSlotDecoder[lenState].Decode(rc)
	if err != nil {
		return 0, err
	}

	if posSlot < kStartPosModelIndex {
		return posSlot, nil
	}

	numDirectBits := (posSlot >> 1) - 1
	dist := (2 | (posSlot & 1)) << numDirectBits

	if posSlot < kEndPosModelIndex {
		bits, err := bitTreeReverseDecode(d.posDecoders[dist-posSlot:], numDirectBits, rc)
		if err != nil {
			return 0, err
		}

		return dist + bits, nil
	}

	bits, err := rc.DecodeDirectBits(numDirectBits - kNumAlignBits)
	if err != nil {
		return 0, err
	}

	dist += bits << kNumAlignBits

	bits, err = d.alignDecoder.ReverseDecode(rc)
	if err != nil {
		return 0, err
	}

	return dist + bits, nil
}
