package lzma

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/kulaginds/rawlzma/internal/encode"
)

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}

	return b
}

var foxText = []byte(strings.Repeat("The quick brown fox jumps over the lazy dog. ", 3))

// Streams produced by liblzma without a header.
var fixtures = []struct {
	name  string
	props Properties
	raw   []byte
	want  []byte
	eos   bool
}{
	{
		name:  "abab",
		props: Properties{LC: 3, LP: 0, PB: 2, DictSize: 1 << 20},
		raw:   mustHex("002090a204000000"),
		want:  []byte("ABABABABAB"),
	},
	{
		name:  "abab_eos",
		props: Properties{LC: 3, LP: 0, PB: 2, DictSize: 1 << 20},
		raw:   mustHex("002090a2060ffbffffff00400000"),
		want:  []byte("ABABABABAB"),
		eos:   true,
	},
	{
		name:  "single_literal",
		props: Properties{LC: 3, LP: 0, PB: 2, DictSize: 1 << 20},
		raw:   mustHex("00207ffc0000"),
		want:  []byte("A"),
	},
	{
		name:  "empty",
		props: Properties{LC: 3, LP: 0, PB: 2, DictSize: 1 << 20},
		raw:   mustHex("0000000000"),
		want:  []byte{},
	},
	{
		name:  "empty_eos",
		props: Properties{LC: 3, LP: 0, PB: 2, DictSize: 1 << 20},
		raw:   mustHex("0083fffbffffc0000000"),
		want:  []byte{},
		eos:   true,
	},
	{
		name:  "fox",
		props: Properties{LC: 3, LP: 0, PB: 2, DictSize: 1 << 16},
		raw:   mustHex("002a1a08a2032566f14b78c5a205ff2ee6d9d2201aad34f8e21de84136fadc0669bb3ce410342709ebb366e3ed375ae80f618000"),
		want:  foxText,
	},
	{
		name:  "fox_eos",
		props: Properties{LC: 3, LP: 0, PB: 2, DictSize: 1 << 16},
		raw:   mustHex("002a1a08a2032566f14b78c5a205ff2ee6d9d2201aad34f8e21de84136fadc0669bb3ce410342709ebb366e3ed375ae81ae477fffffac0a000"),
		want:  foxText,
		eos:   true,
	},
	{
		name:  "fox_lc0_lp4_pb4",
		props: Properties{LC: 0, LP: 4, PB: 4, DictSize: 1 << 16},
		raw:   mustHex("002a1a08a20389d4d26335880c472379dcdc20365f74fd7ac20ae1b4b927e8f8684ac1ec4ef2173782d6d1bb74f940c1bf7bfaf277170000"),
		want:  foxText,
	},
	{
		name:  "fox_lc1_lp2_pb3",
		props: Properties{LC: 1, LP: 2, PB: 3, DictSize: 4096},
		raw:   mustHex("002a1a08a203a64ce45bccdb6edba5addd3b182b8df196a6d15ed3357dfb1433516e5426052e269b3e42ccec1463f53a32b21a9a0000"),
		want:  foxText,
	},
	{
		name:  "fox_lc1_lp2_pb3_eos",
		props: Properties{LC: 1, LP: 2, PB: 3, DictSize: 4096},
		raw:   mustHex("002a1a08a203a64ce45bccdb6edba5addd3b182b8df196a6d15ed3357dfb1433516e5426052e269b3e42ccec1463f53a32b2219f69fffffc996000"),
		want:  foxText,
		eos:   true,
	},
	{
		name:  "bytes_lc4_pb4",
		props: Properties{LC: 4, LP: 0, PB: 4, DictSize: 4096},
		raw:   mustHex("00000052500a7fea2c2e075f7fbe39c76c1a4d02340c699c8da9476208d3a62a27ee01e2fe0707302a6d4f25fd2bb227b09ec70dd14876e186eead8a97e647095fdd5da576740000"),
		want:  bytes.Repeat(byteRange(64), 4),
	},
	{
		name:  "zeros",
		props: Properties{LC: 3, LP: 0, PB: 2, DictSize: 4096},
		raw:   mustHex("00006ffdffffa3b75a0d5e00"),
		want:  make([]byte, 1000),
	},
	{
		name:  "zeros_eos",
		props: Properties{LC: 3, LP: 0, PB: 2, DictSize: 4096},
		raw:   mustHex("00006ffdffffa3b75ad3aedbffff9ff00000"),
		want:  make([]byte, 1000),
		eos:   true,
	},
}

func byteRange(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}

	return b
}

func TestDecompressFixtures(t *testing.T) {
	for _, tc := range fixtures {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)

			dst := make([]byte, len(tc.want))
			n, err := Decompress(tc.props, dst, tc.raw)
			r.NoError(err)
			r.Equal(len(tc.want), n)
			r.Equal(tc.want, dst)
		})
	}
}

func TestDecodePartialStatus(t *testing.T) {
	for _, tc := range fixtures {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)

			d, err := NewDecoder(tc.props)
			r.NoError(err)
			defer d.Close()

			res, err := d.DecodePartial(make([]byte, len(tc.want)), tc.raw)
			r.NoError(err)
			r.Equal(len(tc.want), res.Written)
			r.Equal(len(tc.raw), res.Consumed)

			if tc.eos {
				r.Equal(StatusFinishedWithMark, res.Status)
			} else {
				r.Equal(StatusMaybeFinishedWithoutMark, res.Status)
			}
		})
	}
}

func TestDecompressABABHunk(t *testing.T) {
	r := require.New(t)

	hunk := mustHex("5d00001000002090a204000000")
	r.Len(hunk, 13)

	p, payload, err := SplitHunk(hunk)
	r.NoError(err)
	r.Equal(Properties{LC: 3, LP: 0, PB: 2, DictSize: 1 << 20}, p)

	d, err := NewDecoder(p)
	r.NoError(err)
	defer d.Close()

	dst := make([]byte, 10)
	n, err := d.Decompress(dst, payload)
	r.NoError(err)
	r.Equal(10, n)
	r.Equal("ABABABABAB", string(dst))
}

func TestDecompressErrors(t *testing.T) {
	abab := Properties{LC: 3, LP: 0, PB: 2, DictSize: 1 << 20}
	ababRaw := mustHex("002090a204000000")
	ababEOS := mustHex("002090a2060ffbffffff00400000")

	testCases := []struct {
		name    string
		props   Properties
		src     []byte
		dstLen  int
		wantErr error
	}{
		{
			name:    "empty_input",
			props:   abab,
			src:     nil,
			dstLen:  10,
			wantErr: ErrInputExhausted,
		},
		{
			name:    "first_byte_not_zero",
			props:   abab,
			src:     append([]byte{1}, ababRaw[1:]...),
			dstLen:  10,
			wantErr: ErrFormatMismatch,
		},
		{
			name:    "truncated",
			props:   abab,
			src:     ababRaw[:6],
			dstLen:  10,
			wantErr: ErrInputExhausted,
		},
		{
			name:    "trailing_garbage",
			props:   abab,
			src:     append(append([]byte{}, ababRaw...), 0, 0),
			dstLen:  10,
			wantErr: ErrFormatMismatch,
		},
		{
			name:    "destination_too_small",
			props:   abab,
			src:     ababEOS,
			dstLen:  4,
			wantErr: ErrOutputOverflow,
		},
		{
			name:    "end_marker_before_capacity",
			props:   abab,
			src:     ababEOS,
			dstLen:  11,
			wantErr: ErrFormatMismatch,
		},
		{
			name:    "invalid_properties",
			props:   Properties{LC: 5, LP: 4, PB: 2, DictSize: 1 << 20},
			src:     ababRaw,
			dstLen:  10,
			wantErr: ErrInvalidProperties,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)

			_, err := Decompress(tc.props, make([]byte, tc.dstLen), tc.src)
			r.ErrorIs(err, tc.wantErr)
		})
	}
}

func TestDecompressEmptyDestination(t *testing.T) {
	r := require.New(t)

	props := Properties{LC: 3, LP: 0, PB: 2, DictSize: 1 << 30}

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)

	n, err := Decompress(props, nil, mustHex("0000000000"))

	runtime.ReadMemStats(&after)

	r.NoError(err)
	r.Zero(n)
	// tables only; the dictionary is never allocated for zero output
	r.Less(after.TotalAlloc-before.TotalAlloc, uint64(16<<20))
	r.Equal(1, outputBound(0))
}

func TestDecoderResetIsIdempotent(t *testing.T) {
	r := require.New(t)

	tc := fixtures[5]
	d, err := NewDecoder(tc.props)
	r.NoError(err)
	defer d.Close()

	first := make([]byte, len(tc.want))
	_, err = d.Decompress(first, tc.raw)
	r.NoError(err)

	d.Reset()

	second := make([]byte, len(tc.want))
	_, err = d.Decompress(second, tc.raw)
	r.NoError(err)

	r.Equal(first, second)
	r.Equal(tc.want, second)
}

func TestDecoderReuseAfterFailure(t *testing.T) {
	r := require.New(t)

	tc := fixtures[5]
	d, err := NewDecoder(tc.props)
	r.NoError(err)
	defer d.Close()

	_, err = d.Decompress(make([]byte, len(tc.want)), tc.raw[:len(tc.raw)/2])
	r.ErrorIs(err, ErrInputExhausted)

	dst := make([]byte, len(tc.want))
	_, err = d.Decompress(dst, tc.raw)
	r.NoError(err)
	r.Equal(tc.want, dst)
}

func TestDecoderClose(t *testing.T) {
	r := require.New(t)

	var nilDecoder *Decoder
	r.NoError(nilDecoder.Close())

	d, err := NewDecoder(fixtures[0].props)
	r.NoError(err)
	r.NoError(d.Close())
	r.NoError(d.Close())

	_, err = d.Decompress(make([]byte, 10), fixtures[0].raw)
	r.ErrorIs(err, ErrClosed)
}

func TestDecoderWindowGrows(t *testing.T) {
	r := require.New(t)

	tc := fixtures[11] // 1000 zeros, dictionary 4096
	d, err := Config{MaxOutput: 16}.NewDecoder(tc.props)
	r.NoError(err)
	defer d.Close()
	r.Equal(uint32(16), d.win.size)

	dst := make([]byte, len(tc.want))
	_, err = d.Decompress(dst, tc.raw)
	r.NoError(err)
	r.Equal(tc.want, dst)
	r.Equal(uint32(len(tc.want)), d.win.size)
}

func TestDecoderLogsFailures(t *testing.T) {
	r := require.New(t)

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	d, err := Config{Logger: logger}.NewDecoder(fixtures[0].props)
	r.NoError(err)
	defer d.Close()

	_, err = d.Decompress(make([]byte, 10), fixtures[0].raw[:5])
	r.Error(err)

	entry := hook.LastEntry()
	r.NotNil(entry)
	r.Equal("lzma: decode failed", entry.Message)
	r.Equal(logrus.DebugLevel, entry.Level)
	r.ErrorIs(entry.Data[logrus.ErrorKey].(error), ErrInputExhausted)
}

func TestRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))

	random := make([]byte, 20000)
	rnd.Read(random)

	words := []string{"alpha ", "beta ", "gamma ", "delta\n", "epsilon ", "zeta "}
	var text strings.Builder
	for text.Len() < 100000 {
		text.WriteString(words[rnd.Intn(len(words))])
	}

	inputs := map[string][]byte{
		"empty":  {},
		"one":    {'x'},
		"random": random,
		"text":   []byte(text.String()),
		"zeros":  make([]byte, 70000),
		"mixed":  append(append([]byte(text.String()[:30000]), random[:5000]...), text.String()[:30000]...),
	}

	params := []encode.Params{
		{LC: 3, LP: 0, PB: 2, DictSize: 1 << 20},
		{LC: 0, LP: 0, PB: 0, DictSize: 4096},
		{LC: 8, LP: 0, PB: 4, DictSize: 1 << 16},
		{LC: 4, LP: 4, PB: 2, DictSize: 1 << 16},
		{LC: 1, LP: 3, PB: 1, DictSize: 1 << 16, EndMarker: true},
	}

	for name, data := range inputs {
		for _, p := range params {
			t.Run(fmt.Sprintf("%s/lc%d_lp%d_pb%d_eos%t", name, p.LC, p.LP, p.PB, p.EndMarker), func(t *testing.T) {
				r := require.New(t)

				raw, err := encode.Raw(p, data)
				r.NoError(err)

				props := Properties{LC: uint8(p.LC), LP: uint8(p.LP), PB: uint8(p.PB), DictSize: uint32(p.DictSize)}

				dst := make([]byte, len(data))
				n, err := Decompress(props, dst, raw)
				r.NoError(err)
				r.Equal(len(data), n)
				r.True(bytes.Equal(data, dst), "decompressed data differs")
			})
		}
	}
}

func TestDictionaryBoundsDistance(t *testing.T) {
	r := require.New(t)

	rnd := rand.New(rand.NewSource(7))
	block := make([]byte, 6000)
	rnd.Read(block)
	data := append(append([]byte{}, block...), block...)

	raw, err := encode.Raw(encode.Params{LC: 3, LP: 0, PB: 2, DictSize: 1 << 16}, data)
	r.NoError(err)

	dst := make([]byte, len(data))
	_, err = Decompress(Properties{LC: 3, LP: 0, PB: 2, DictSize: 1 << 16}, dst, raw)
	r.NoError(err)
	r.Equal(data, dst)

	_, err = Decompress(Properties{LC: 3, LP: 0, PB: 2, DictSize: 4096}, dst, raw)
	r.ErrorIs(err, ErrDistanceOutOfRange)
}

var taxonomy = []error{
	ErrInputExhausted,
	ErrDistanceOutOfRange,
	ErrOutputOverflow,
	ErrFormatMismatch,
}

func requireTaxonomy(t *testing.T, err error) {
	t.Helper()

	if err == nil {
		return
	}

	for _, target := range taxonomy {
		if errors.Is(err, target) {
			return
		}
	}

	t.Fatalf("unexpected error %v", err)
}

func TestCorruptedInput(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))

	tc := fixtures[6] // fox with end marker
	d, err := NewDecoder(tc.props)
	require.NoError(t, err)
	defer d.Close()

	sizes := []int{0, 1, 10, len(tc.want), 4096}

	for i := 0; i < 5000; i++ {
		var src []byte

		if i%3 == 0 {
			src = make([]byte, rnd.Intn(300))
			rnd.Read(src)
			if len(src) > 0 && i%2 == 0 {
				src[0] = 0
			}
		} else {
			src = append([]byte{}, tc.raw...)
			for k := rnd.Intn(4) + 1; k > 0; k-- {
				src[rnd.Intn(len(src))] = byte(rnd.Intn(256))
			}
			if i%5 == 0 {
				src = src[:rnd.Intn(len(src))]
			}
		}

		size := sizes[rnd.Intn(len(sizes))]

		// guard bytes detect writes past the destination
		buf := make([]byte, size+8)
		for j := size; j < len(buf); j++ {
			buf[j] = 0xA5
		}

		srcCopy := append([]byte{}, src...)

		res, err := d.DecodePartial(buf[:size:size], src)
		requireTaxonomy(t, err)
		require.LessOrEqual(t, res.Written, size)
		require.LessOrEqual(t, res.Consumed, len(src))
		require.Equal(t, srcCopy, src)

		for j := size; j < len(buf); j++ {
			require.Equal(t, byte(0xA5), buf[j])
		}

		_, err = d.Decompress(make([]byte, size), src)
		requireTaxonomy(t, err)
	}
}

func BenchmarkDecompress(b *testing.B) {
	rnd := rand.New(rand.NewSource(3))

	words := []string{"alpha ", "beta ", "gamma ", "delta\n", "epsilon "}
	var text strings.Builder
	for text.Len() < 1<<20 {
		text.WriteString(words[rnd.Intn(len(words))])
	}
	data := []byte(text.String())

	raw, err := encode.Raw(encode.Params{LC: 3, LP: 0, PB: 2, DictSize: 1 << 20}, data)
	if err != nil {
		b.Fatal(err)
	}

	d, err := NewDecoder(Properties{LC: 3, LP: 0, PB: 2, DictSize: 1 << 20})
	if err != nil {
		b.Fatal(err)
	}
	defer d.Close()

	dst := make([]byte, len(data))

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, err = d.Decompress(dst, raw)
		if err != nil {
			b.Fatal(err)
		}

		b.SetBytes(int64(len(dst)))
	}
}
