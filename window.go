package lzma

import "fmt"

// window is the circular dictionary. Every byte that enters it is also
// written to out, which bounds the output of one decode call.
type window struct {
	buf      []byte
	pos      uint32
	size     uint32
	dictSize uint32

	out   []byte
	total int
}

func newWindow(size, dictSize uint32) (*window, error) {
	buf, err := allocBytes(size)
	if err != nil {
		return nil, err
	}

	return &window{
		buf:      buf,
		size:     size,
		dictSize: dictSize,
	}, nil
}

func allocBytes(n uint32) (b []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("%w: %d bytes: %v", ErrAllocationFailed, n, r)
		}
	}()

	return make([]byte, n), nil
}

func (w *window) Reset(out []byte) {
	w.pos = 0
	w.out = out
	w.total = 0
}

func (w *window) Full() bool {
	return w.total >= len(w.out)
}

func (w *window) IsEmpty() bool {
	return w.total == 0
}

// Pos is the output position modulo 2^32, as used for the position states.
func (w *window) Pos() uint32 {
	return uint32(w.total)
}

func (w *window) PutByte(b byte) error {
	if w.total >= len(w.out) {
		return ErrOutputOverflow
	}

	w.buf[w.pos] = b
	w.pos++
	if w.pos == w.size {
		w.pos = 0
	}

	w.out[w.total] = b
	w.total++

	return nil
}

func (w *window) checkDistance(dist uint32) error {
	if int64(dist) >= int64(w.total) {
		return fmt.Errorf("%w: distance %d, %d bytes decoded", ErrDistanceOutOfRange, dist, w.total)
	}

	if dist >= w.dictSize {
		return fmt.Errorf("%w: distance %d, dictionary %d", ErrDistanceOutOfRange, dist, w.dictSize)
	}

	return nil
}

// index returns the buffer index of the byte dist+1 positions back. The
// distance must have passed checkDistance.
func (w *window) index(dist uint32) uint32 {
	if dist < w.pos {
		return w.pos - dist - 1
	}

	return w.size - (dist - w.pos) - 1
}

// GetByte returns the byte at zero-based distance dist behind the cursor.
func (w *window) GetByte(dist uint32) (byte, error) {
	if err := w.checkDistance(dist); err != nil {
		return 0, err
	}

	return w.buf[w.index(dist)], nil
}

func (w *window) PrevByte() byte {
	if w.total == 0 {
		return 0
	}

	return w.buf[w.index(0)]
}

// CopyMatch repeats length bytes starting dist+1 bytes back. Source and
// destination may overlap, which repeats the pattern.
func (w *window) CopyMatch(dist, length uint32) error {
	if err := w.checkDistance(dist); err != nil {
		return err
	}

	src := w.index(dist)

	for ; length > 0; length-- {
		if err := w.PutByte(w.buf[src]); err != nil {
			return err
		}

		src++
		if src == w.size {
			src = 0
		}
	}

	return nil
}
