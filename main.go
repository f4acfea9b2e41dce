package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/peterbourgon/ff/v3"
	log "github.com/sirupsen/logrus"

	"parca.dev/stackfold/collapse"
)

func main() {
	fs := flag.NewFlagSet("stackfold", flag.ExitOnError)
	var (
		pid      = fs.Bool("pid", false, "include PID with process names")
		tid      = fs.Bool("tid", false, "include TID and PID with process names")
		inline   = fs.Bool("inline", false, "expand addresses into inlined call chains with addr2line")
		kernel   = fs.Bool("kernel", false, "annotate kernel functions with _[k]")
		srcCtx   = fs.Bool("context", false, "add file:line context to inlined frames")
		pprofOut = fs.String("pprof", "", "also write the aggregate as a gzipped pprof profile to this file")
		verbose  = fs.Bool("v", false, "enable debug logging")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("STACKFOLD")); err != nil {
		log.WithError(err).Fatal("parsing flags")
	}
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	input := io.Reader(os.Stdin)
	if fs.NArg() > 0 {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			log.WithError(err).Fatal("opening input")
		}
		defer f.Close()
		input = f
	}

	opts := collapse.DefaultOptions()
	opts.IncludePid = *pid
	opts.IncludeTid = *tid
	opts.ShowInline = *inline
	opts.AnnotateKernel = *kernel
	opts.ShowContext = *srcCtx

	c := collapse.New(opts)
	if err := c.Run(input); err != nil {
		log.WithError(err).Fatal("folding stacks")
	}
	if name := c.TargetProcess(); name != "" {
		log.WithField("target", name).Debug("profiled command")
	}
	if err := c.Aggregate().WriteFolded(os.Stdout); err != nil {
		log.WithError(err).Fatal("writing folded stacks")
	}
	if *pprofOut != "" {
		if err := writeProfile(c.Aggregate(), *pprofOut); err != nil {
			log.WithError(err).Fatal("writing pprof profile")
		}
	}
}

func writeProfile(agg *collapse.Aggregate, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := agg.Profile().Write(f); err != nil {
		f.Close()
		return fmt.Errorf("encoding profile: %w", err)
	}
	return f.Close()
}
