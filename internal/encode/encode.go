// Package encode produces raw LZMA streams with the encoder of
// github.com/ulikunitz/xz/lzma. The streams carry no header; the caller
// persists the properties separately.
package encode

import (
	"bytes"
	"fmt"

	"github.com/ulikunitz/xz/lzma"
)

const classicHeaderLen = lzma.HeaderLen

type Params struct {
	LC, LP, PB int
	DictSize   int

	// EndMarker appends the end-of-stream marker after the data.
	EndMarker bool
}

// Classic encodes data as a classic .lzma file with the size stored in the
// header.
func Classic(p Params, data []byte) ([]byte, error) {
	cfg := lzma.WriterConfig{
		Properties:   &lzma.Properties{LC: p.LC, LP: p.LP, PB: p.PB},
		DictCap:      p.DictSize,
		SizeInHeader: true,
		Size:         int64(len(data)),
		EOSMarker:    p.EndMarker,
	}
	if err := cfg.Verify(); err != nil {
		return nil, fmt.Errorf("writer config: %w", err)
	}

	buf := &bytes.Buffer{}

	w, err := cfg.NewWriter(buf)
	if err != nil {
		return nil, fmt.Errorf("new writer: %w", err)
	}

	if _, err = w.Write(data); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	if err = w.Close(); err != nil {
		return nil, fmt.Errorf("close: %w", err)
	}

	return buf.Bytes(), nil
}

// Raw encodes data and strips the classic header.
func Raw(p Params, data []byte) ([]byte, error) {
	b, err := Classic(p, data)
	if err != nil {
		return nil, err
	}

	return b[classicHeaderLen:], nil
}
