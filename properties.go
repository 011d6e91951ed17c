package lzma

import (
	"encoding/binary"
	"fmt"
)

const (
	PropertiesLen = 5

	MinDictSize = 1 << 12

	maxLC = 8
	maxLP = 4
	maxPB = 4

	// maxLCLP bounds the literal table to 0x300<<8 counters.
	maxLCLP = 8

	maxPropsByte = (maxPB+1)*(maxLP+1)*(maxLC+1) - 1
)

// Properties are the decoder parameters an encoder chose for a stream. They
// have to be stored next to the compressed data; they cannot be recovered
// from it.
type Properties struct {
	LC uint8 // literal context bits
	LP uint8 // literal position bits
	PB uint8 // position bits

	DictSize uint32
}

func (p Properties) Verify() error {
	if p.LC > maxLC {
		return fmt.Errorf("%w: lc %d out of range", ErrInvalidProperties, p.LC)
	}

	if p.LP > maxLP {
		return fmt.Errorf("%w: lp %d out of range", ErrInvalidProperties, p.LP)
	}

	if p.PB > maxPB {
		return fmt.Errorf("%w: pb %d out of range", ErrInvalidProperties, p.PB)
	}

	if p.LC+p.LP > maxLCLP {
		return fmt.Errorf("%w: lc+lp is %d, max %d", ErrInvalidProperties, p.LC+p.LP, maxLCLP)
	}

	return nil
}

func (p Properties) String() string {
	return fmt.Sprintf("lc=%d lp=%d pb=%d dict=%d", p.LC, p.LP, p.PB, p.DictSize)
}

// PropsByte packs lc, lp and pb the way the 5-byte header stores them.
func (p Properties) PropsByte() byte {
	return (p.PB*5+p.LP)*9 + p.LC
}

func (p Properties) AppendBinary(b []byte) ([]byte, error) {
	if err := p.Verify(); err != nil {
		return b, err
	}

	b = append(b, p.PropsByte())

	return binary.LittleEndian.AppendUint32(b, p.DictSize), nil
}

func (p Properties) MarshalBinary() ([]byte, error) {
	return p.AppendBinary(make([]byte, 0, PropertiesLen))
}

func (p *Properties) UnmarshalBinary(data []byte) error {
	props, err := DecodeProperties(data)
	if err != nil {
		return err
	}

	*p = props

	return nil
}

// DecodeProperties parses the 5-byte properties header. Bytes after the
// header are ignored.
func DecodeProperties(header []byte) (Properties, error) {
	if len(header) < PropertiesLen {
		return Properties{}, fmt.Errorf("%w: header has %d bytes, need %d", ErrInvalidProperties, len(header), PropertiesLen)
	}

	lc, lp, pb, err := decodePropsByte(header[0])
	if err != nil {
		return Properties{}, err
	}

	p := Properties{
		LC:       lc,
		LP:       lp,
		PB:       pb,
		DictSize: binary.LittleEndian.Uint32(header[1:PropertiesLen]),
	}

	return p, p.Verify()
}

func decodePropsByte(d byte) (lc, lp, pb uint8, err error) {
	if d > maxPropsByte {
		return 0, 0, 0, fmt.Errorf("%w: properties byte %#02x", ErrInvalidProperties, d)
	}

	lc = d % 9
	d /= 9
	lp = d % 5
	pb = d / 5

	return lc, lp, pb, nil
}

// dictSize is the effective dictionary size; smaller values are raised to
// the format minimum.
func (p Properties) dictSize() uint32 {
	if p.DictSize < MinDictSize {
		return MinDictSize
	}

	return p.DictSize
}

// BufferSize rounds the dictionary size up the same way the reference
// decoder sizes its dictionary buffer.
func (p Properties) BufferSize() uint32 {
	dictSize := p.dictSize()

	mask := uint32(1<<12) - 1
	if dictSize >= 1<<30 {
		mask = (1 << 22) - 1
	} else if dictSize >= 1<<22 {
		mask = (1 << 20) - 1
	}

	size := (dictSize + mask) &^ mask
	if size < dictSize {
		return dictSize
	}

	return size
}

// TableBytes is the memory taken by the probability tables of a decoder.
func (p Properties) TableBytes() int64 {
	return 2 * probCount(p.LC, p.LP)
}
