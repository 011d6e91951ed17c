package lzma

import "fmt"

// Decompressor decompresses one self-contained object into a destination of
// exactly the expected size.
type Decompressor interface {
	Decompress(dst, src []byte) error
}

// AppendHunk frames payload as a hunk: the 5-byte properties header used
// at encode time followed by the raw stream.
func AppendHunk(dst []byte, p Properties, payload []byte) ([]byte, error) {
	dst, err := p.AppendBinary(dst)
	if err != nil {
		return dst, err
	}

	return append(dst, payload...), nil
}

// SplitHunk returns the stored properties and the raw stream of a hunk.
func SplitHunk(hunk []byte) (Properties, []byte, error) {
	p, err := DecodeProperties(hunk)
	if err != nil {
		return Properties{}, nil, fmt.Errorf("hunk header: %w", err)
	}

	return p, hunk[PropertiesLen:], nil
}

// HunkDecompressor decodes hunks that carry their own properties header.
// The decoder is kept between calls and only recreated when a hunk was
// encoded with different properties.
type HunkDecompressor struct {
	cfg Config
	dec *Decoder
}

var _ Decompressor = (*HunkDecompressor)(nil)

func NewHunkDecompressor(c Config, hunkBytes int) (*HunkDecompressor, error) {
	if hunkBytes < 0 {
		return nil, fmt.Errorf("lzma: negative hunk size %d", hunkBytes)
	}

	if c.MaxOutput == 0 {
		c.MaxOutput = outputBound(hunkBytes)
	}

	if err := c.Verify(); err != nil {
		return nil, err
	}

	return &HunkDecompressor{cfg: c}, nil
}

func (h *HunkDecompressor) Decompress(dst, src []byte) error {
	p, payload, err := SplitHunk(src)
	if err != nil {
		return err
	}

	if h.dec == nil || h.dec.Properties() != p {
		if err = h.dec.Close(); err != nil {
			return err
		}
		h.dec = nil

		h.dec, err = h.cfg.NewDecoder(p)
		if err != nil {
			return err
		}
	}

	_, err = h.dec.Decompress(dst, payload)

	return err
}

func (h *HunkDecompressor) Close() error {
	err := h.dec.Close()
	h.dec = nil

	return err
}
