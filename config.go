package lzma

import (
	"errors"
	"io"

	"github.com/sirupsen/logrus"
)

// Config holds the optional settings of a Decoder. The zero value is
// usable.
type Config struct {
	// MaxOutput is the largest destination the decoder expects, e.g. the
	// hunk size of a container. When set, the window is no larger than
	// MaxOutput; a bigger destination grows it on demand. Zero allocates
	// the full dictionary up front.
	MaxOutput int

	// Budget, if not nil, accounts the memory of the decoder and may be
	// shared by many decoders.
	Budget *MemoryBudget

	// Logger receives lifecycle and failure events at debug level. Nil
	// disables logging.
	Logger logrus.FieldLogger
}

func (c Config) Verify() error {
	if c.MaxOutput < 0 {
		return errors.New("lzma: Config.MaxOutput is negative")
	}

	return nil
}

var discardLogger = func() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return l
}()

func (c Config) logger() logrus.FieldLogger {
	if c.Logger == nil {
		return discardLogger
	}

	return c.Logger
}

func (c Config) windowSize(p Properties) uint32 {
	size := p.BufferSize()
	if c.MaxOutput > 0 && uint64(c.MaxOutput) < uint64(size) {
		size = uint32(c.MaxOutput)
	}

	return size
}

// outputBound turns a destination length into a MaxOutput. An empty
// destination still bounds the window, unlike the zero MaxOutput.
func outputBound(n int) int {
	if n < 1 {
		return 1
	}

	return n
}
