package lzma

import (
	"encoding/binary"
	"fmt"
)

const (
	HeaderLen = PropertiesLen + 8

	unknownUnpackSize = 0xFFFFFFFFFFFFFFFF
)

// Header is the 13-byte header of a classic .lzma file: the properties
// followed by the little-endian uncompressed size.
type Header struct {
	Properties

	// UnpackSize is -1 when the size is not stored; the stream then ends
	// with an end marker.
	UnpackSize int64
}

func (h Header) SizeKnown() bool {
	return h.UnpackSize >= 0
}

func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderLen {
		return Header{}, fmt.Errorf("%w: header has %d bytes, need %d", ErrInvalidProperties, len(data), HeaderLen)
	}

	p, err := DecodeProperties(data)
	if err != nil {
		return Header{}, err
	}

	h := Header{Properties: p, UnpackSize: -1}

	unpackSize := binary.LittleEndian.Uint64(data[PropertiesLen:HeaderLen])
	if unpackSize != unknownUnpackSize {
		if unpackSize > 1<<63-1 {
			return Header{}, fmt.Errorf("%w: unpack size %d", ErrInvalidProperties, unpackSize)
		}

		h.UnpackSize = int64(unpackSize)
	}

	return h, nil
}

func (h Header) AppendBinary(b []byte) ([]byte, error) {
	b, err := h.Properties.AppendBinary(b)
	if err != nil {
		return b, err
	}

	unpackSize := uint64(unknownUnpackSize)
	if h.SizeKnown() {
		unpackSize = uint64(h.UnpackSize)
	}

	return binary.LittleEndian.AppendUint64(b, unpackSize), nil
}

func (h Header) MarshalBinary() ([]byte, error) {
	return h.AppendBinary(make([]byte, 0, HeaderLen))
}

func (h *Header) UnmarshalBinary(data []byte) error {
	parsed, err := ParseHeader(data)
	if err != nil {
		return err
	}

	*h = parsed

	return nil
}

func (h Header) String() string {
	if !h.SizeKnown() {
		return h.Properties.String() + " size=unknown"
	}

	return fmt.Sprintf("%s size=%d", h.Properties, h.UnpackSize)
}
