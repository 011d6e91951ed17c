package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"

	"github.com/kulaginds/rawlzma"
	"github.com/kulaginds/rawlzma/internal/encode"
)

type mode int

const (
	modeCompress mode = iota
	modeDecompress
	modeList
)

type options struct {
	mode   mode
	stdout bool
	force  bool
	keep   bool
	hunk   bool

	lc, lp, pb int
	dict       int
	eos        bool
	maxSize    int

	log *logrus.Logger

	hunks *lzma.HunkDecompressor
}

func (o *options) verify() error {
	if o.lc < 0 || o.lp < 0 || o.pb < 0 || o.lc > math.MaxUint8 || o.lp > math.MaxUint8 || o.pb > math.MaxUint8 {
		return fmt.Errorf("properties lc=%d lp=%d pb=%d out of range", o.lc, o.lp, o.pb)
	}

	if err := o.properties().Verify(); err != nil {
		return err
	}

	if o.dict < lzma.MinDictSize || int64(o.dict) > math.MaxUint32 {
		return fmt.Errorf("dictionary size %d out of range", o.dict)
	}

	if o.maxSize < 0 {
		return fmt.Errorf("negative --max-size %d", o.maxSize)
	}

	if o.hunk && o.mode == modeDecompress {
		h, err := lzma.NewHunkDecompressor(o.decoderConfig(o.maxSize), o.maxSize)
		if err != nil {
			return err
		}

		o.hunks = h
	}

	return nil
}

func (o *options) properties() lzma.Properties {
	return lzma.Properties{
		LC:       uint8(o.lc),
		LP:       uint8(o.lp),
		PB:       uint8(o.pb),
		DictSize: uint32(o.dict),
	}
}

// decoderConfig bounds the window by the expected output. An empty output
// still gets a one-byte bound; a zero MaxOutput would allocate the whole
// dictionary.
func (o *options) decoderConfig(maxOutput int) lzma.Config {
	if maxOutput < 1 {
		maxOutput = 1
	}

	return lzma.Config{
		MaxOutput: maxOutput,
		Logger:    o.log,
	}
}

func (o *options) ext() string {
	if o.hunk {
		return hunkExt
	}

	return lzmaExt
}

// outputPath derives the output file name; "-" stands for standard output.
func (o *options) outputPath(path string) (string, error) {
	if o.stdout {
		return "-", nil
	}

	ext := o.ext()

	if o.mode == modeCompress {
		if strings.HasSuffix(path, ext) {
			return "", fmt.Errorf("already has suffix %s", ext)
		}

		return path + ext, nil
	}

	if !strings.HasSuffix(path, ext) || filepath.Base(path) == ext {
		return "", fmt.Errorf("has no suffix %s", ext)
	}

	return strings.TrimSuffix(path, ext), nil
}

func processFile(path string, o *options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if o.mode == modeList {
		return o.list(os.Stdout, path, data)
	}

	out, err := o.outputPath(path)
	if err != nil {
		return err
	}

	var result []byte

	switch o.mode {
	case modeCompress:
		result, err = o.compress(data)
	case modeDecompress:
		result, err = o.decompress(data)
	}
	if err != nil {
		return err
	}

	if err = o.write(out, result); err != nil {
		return err
	}

	o.log.WithFields(logrus.Fields{
		"file": path,
		"in":   len(data),
		"out":  len(result),
	}).Info("done")

	if !o.keep {
		return os.Remove(path)
	}

	return nil
}

func (o *options) compress(data []byte) ([]byte, error) {
	params := encode.Params{
		LC:        o.lc,
		LP:        o.lp,
		PB:        o.pb,
		DictSize:  o.dict,
		EndMarker: o.eos,
	}

	if !o.hunk {
		return encode.Classic(params, data)
	}

	raw, err := encode.Raw(params, data)
	if err != nil {
		return nil, err
	}

	return lzma.AppendHunk(nil, o.properties(), raw)
}

func (o *options) decompress(data []byte) ([]byte, error) {
	if o.hunk {
		dst := make([]byte, o.maxSize)
		if err := o.hunks.Decompress(dst, data); err != nil {
			return nil, err
		}

		return dst, nil
	}

	h, err := lzma.ParseHeader(data)
	if err != nil {
		return nil, err
	}

	payload := data[lzma.HeaderLen:]

	if h.SizeKnown() {
		if h.UnpackSize > math.MaxInt32 {
			return nil, fmt.Errorf("stored size %d too large", h.UnpackSize)
		}

		d, err := o.decoderConfig(int(h.UnpackSize)).NewDecoder(h.Properties)
		if err != nil {
			return nil, err
		}
		defer d.Close()

		dst := make([]byte, h.UnpackSize)
		if _, err = d.Decompress(dst, payload); err != nil {
			return nil, err
		}

		return dst, nil
	}

	d, err := o.decoderConfig(o.maxSize).NewDecoder(h.Properties)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	dst := make([]byte, o.maxSize)

	res, err := d.DecodePartial(dst, payload)
	if err != nil {
		return nil, err
	}

	if res.Status != lzma.StatusFinishedWithMark {
		return nil, fmt.Errorf("%w: no end marker within %d bytes", lzma.ErrFormatMismatch, o.maxSize)
	}

	if res.Consumed != len(payload) {
		return nil, fmt.Errorf("%w: %d trailing bytes", lzma.ErrFormatMismatch, len(payload)-res.Consumed)
	}

	return dst[:res.Written], nil
}

// write stores data through a temporary file so that a failed run leaves
// no partial output behind.
func (o *options) write(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)

		return err
	}

	if !o.force {
		if _, err := os.Lstat(path); err == nil {
			return fmt.Errorf("output file %s exists", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)

		return err
	}

	return nil
}

type listing struct {
	File       string
	Properties lzma.Properties
	UnpackSize int64
	Window     uint32
	TableBytes int64
	Compressed int
}

func (o *options) list(w io.Writer, path string, data []byte) error {
	l := listing{
		File:       path,
		UnpackSize: -1,
	}

	if o.hunk {
		p, payload, err := lzma.SplitHunk(data)
		if err != nil {
			return err
		}

		l.Properties = p
		l.Compressed = len(payload)
	} else {
		h, err := lzma.ParseHeader(data)
		if err != nil {
			return err
		}

		l.Properties = h.Properties
		l.UnpackSize = h.UnpackSize
		l.Compressed = len(data) - lzma.HeaderLen
	}

	l.Window = l.Properties.BufferSize()
	l.TableBytes = l.Properties.TableBytes()

	_, err := pretty.Fprintf(w, "%# v\n", l)

	return err
}
