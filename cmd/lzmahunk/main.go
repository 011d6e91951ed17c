package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ogier/pflag"
	"github.com/sirupsen/logrus"
)

const (
	lzmaExt  = ".lzma"
	hunkExt  = ".hunk"
	usageStr = `Usage: lzmahunk [OPTION]... FILE...
Compress, uncompress or list FILEs in the classic .lzma format or as
hunks (5-byte properties header followed by the raw stream).

  -c, --stdout      write to standard output and don't delete input files
  -d, --decompress  decompress
  -z, --compress    compress (default)
  -l, --list        list header information
  -f, --force       force overwrite of output files
  -k, --keep        keep (don't delete) input files
  -H, --hunk        use hunk framing instead of the classic header
  -q, --quiet       only report errors
  -v, --verbose     log decoder events
  -h, --help        give this help

Compression properties:
      --lc N        literal context bits (default 3)
      --lp N        literal position bits (default 0)
      --pb N        position bits (default 2)
      --dict N      dictionary size in bytes (default 8 MiB)
      --eos         write an end marker

Decompression limits:
      --max-size N  output size for hunks and for files without a stored
                    size (default 64 MiB)
`
)

func usage(w io.Writer) {
	fmt.Fprint(w, usageStr)
}

func main() {
	cmdName := filepath.Base(os.Args[0])

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	pflag.CommandLine = pflag.NewFlagSet(cmdName, pflag.ExitOnError)
	pflag.SetInterspersed(true)
	pflag.Usage = func() { usage(os.Stderr); os.Exit(1) }

	var (
		help       = pflag.BoolP("help", "h", false, "")
		stdout     = pflag.BoolP("stdout", "c", false, "")
		decompress = pflag.BoolP("decompress", "d", false, "")
		compress   = pflag.BoolP("compress", "z", false, "")
		list       = pflag.BoolP("list", "l", false, "")
		force      = pflag.BoolP("force", "f", false, "")
		keep       = pflag.BoolP("keep", "k", false, "")
		hunk       = pflag.BoolP("hunk", "H", false, "")
		quiet      = pflag.BoolP("quiet", "q", false, "")
		verbose    = pflag.BoolP("verbose", "v", false, "")

		lc      = pflag.Int("lc", 3, "")
		lp      = pflag.Int("lp", 0, "")
		pb      = pflag.Int("pb", 2, "")
		dict    = pflag.Int("dict", 8<<20, "")
		eos     = pflag.Bool("eos", false, "")
		maxSize = pflag.Int("max-size", 64<<20, "")
	)

	pflag.Parse()

	if *help {
		usage(os.Stdout)
		os.Exit(0)
	}

	switch {
	case *quiet:
		log.SetLevel(logrus.ErrorLevel)
	case *verbose:
		log.SetLevel(logrus.DebugLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	if pflag.NArg() == 0 {
		log.Fatalf("no files given; for help, type %s -h", cmdName)
	}

	modes := 0
	for _, m := range []bool{*decompress, *compress, *list} {
		if m {
			modes++
		}
	}
	if modes > 1 {
		log.Fatal("only one of -d, -z and -l may be given")
	}

	opts := options{
		mode:    modeCompress,
		stdout:  *stdout,
		force:   *force,
		keep:    *keep || *stdout,
		hunk:    *hunk,
		lc:      *lc,
		lp:      *lp,
		pb:      *pb,
		dict:    *dict,
		eos:     *eos,
		maxSize: *maxSize,
		log:     log,
	}

	switch {
	case *decompress:
		opts.mode = modeDecompress
	case *list:
		opts.mode = modeList
	}

	if err := opts.verify(); err != nil {
		log.Fatal(err)
	}

	failed := false

	for _, path := range pflag.Args() {
		if err := processFile(path, &opts); err != nil {
			log.WithField("file", path).Error(err)
			failed = true
		}
	}

	if opts.hunks != nil {
		opts.hunks.Close()
	}

	if failed {
		os.Exit(1)
	}
}
