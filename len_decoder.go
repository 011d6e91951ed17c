package lzma

const (
	kMatchMinLen = 2

	kLenNumLowBits  = 3
	kLenNumMidBits  = 3
	kLenNumHighBits = 8

	kLenNumLowSymbols = 1 << kLenNumLowBits
	kLenNumMidSymbols = 1 << kLenNumMidBits

	kMatchMaxLen = kMatchMinLen + kLenNumLowSymbols + kLenNumMidSymbols + (1 << kLenNumHighBits) - 1
)

// lenDecoder returns match lengths minus kMatchMinLen. The low and mid
// trees are selected by posState; the high tree is shared.
type lenDecoder struct {
	choice  prob
	choice2 prob

	lowCoder  [1 << kNumPosBitsMax]bitTreeDecoder
	midCoder  [1 << kNumPosBitsMax]bitTreeDecoder
	highCoder bitTreeDecoder
}

func newLenDecoder() *lenDecoder {
	d := &lenDecoder{
		highCoder: newBitTreeDecoder(kLenNumHighBits),
	}

	for i := range d.lowCoder {
		d.lowCoder[i] = newBitTreeDecoder(kLenNumLowBits)
		d.midCoder[i] = newBitTreeDecoder(kLenNumMidBits)
	}

	d.Reset()

	return d
}

func (d *lenDecoder) Reset() {
	d.choice = probInitVal
	d.choice2 = probInitVal

	for i := range d.lowCoder {
		d.lowCoder[i].Reset()
		d.midCoder[i].Reset()
	}

	d.highCoder.Reset()
}

func (d *lenDecoder) Decode(rc *rangeDecoder, posState uint32) (uint32, error) {
	bit, err := rc.DecodeBit(&d.choice)
	if err != nil {
		return 0, err
	}

	if bit == 0 {
		return d.lowCoder[posState].Decode(rc)
	}

	bit, err = rc.DecodeBit(&d.choice2)
	if err != nil {
		return 0, err
	}

	if bit == 0 {
		l, err := d.midCoder[posState].Decode(rc)
		if err != nil {
			return 0, err
		}

		return kLenNumLowSymbols + l, nil
	}

	l, err := d.highCoder.Decode(rc)
	if err != nil {
		return 0, err
	}

	return kLenNumLowSymbols + kLenNumMidSymbols + l, nil
}
