// Package analyze implements the analyze subcommand: run the capability
// inference pipeline over IR artifacts or a Go build and render the report.
package analyze

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/rustfoundation/cargo-capslock/internal/analyzer"
	"github.com/rustfoundation/cargo-capslock/internal/frontend/golang"
	"github.com/rustfoundation/cargo-capslock/internal/ir"
	"github.com/rustfoundation/cargo-capslock/internal/logger"
	"github.com/rustfoundation/cargo-capslock/internal/report"
	"github.com/rustfoundation/cargo-capslock/internal/rules"
)

type options struct {
	rulesPath string
	format    string
	full      bool
	goDir     string
	timeout   time.Duration
	artifacts []string
}

func Run(args []string) int {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage:
  capslock analyze [flags] ARTIFACT...
  capslock analyze [flags] --go DIR

Flags:
  --rules FILE     rule table to use instead of the embedded default
  --format FORMAT  output format: text, json, or sarif (default text)
  --full           include the per-function capability dump
  --go DIR         analyze the Go build rooted at DIR instead of artifacts
  --timeout D      abort the run after D (default: no limit)
  --log-level L    trace, debug, info, warn, or error
  --log-json       emit log lines as JSON`)
	}

	var opts options
	var logLevel string
	var logJSON bool
	fs.StringVar(&opts.rulesPath, "rules", "", "")
	fs.StringVar(&opts.format, "format", "text", "")
	fs.BoolVar(&opts.full, "full", false, "")
	fs.StringVar(&opts.goDir, "go", "", "")
	fs.DurationVar(&opts.timeout, "timeout", 0, "")
	fs.StringVar(&logLevel, "log-level", "", "")
	fs.BoolVar(&logJSON, "log-json", false, "")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	opts.artifacts = fs.Args()

	if (opts.goDir == "") == (len(opts.artifacts) == 0) {
		fmt.Fprintln(os.Stderr, "analyze: pass either artifact paths or --go DIR")
		fs.Usage()
		return 2
	}
	switch opts.format {
	case "text", "json", "sarif":
	default:
		fmt.Fprintf(os.Stderr, "analyze: unknown format %q\n", opts.format)
		return 2
	}

	log := logger.New("capslock", logger.Options{Level: logLevel, JSONFormat: logJSON})

	ctx := context.Background()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	if err := run(ctx, opts, log, os.Stdout); err != nil {
		log.Error("analysis failed", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, opts options, log hclog.Logger, out io.Writer) error {
	tbl, err := loadRules(opts)
	if err != nil {
		return err
	}

	var mods []*ir.Module
	if opts.goDir != "" {
		mods, err = golang.Load(ctx, opts.goDir, log)
	} else {
		mods, err = ir.LoadModules(opts.artifacts)
	}
	if err != nil {
		return err
	}

	r, err := analyzer.Analyze(ctx, mods, analyzer.Config{
		Rules:  tbl,
		Full:   opts.full,
		Logger: log,
	})
	if err != nil {
		return err
	}

	switch opts.format {
	case "json":
		return report.WriteJSON(out, r)
	case "sarif":
		return report.WriteSARIF(out, r)
	default:
		report.WriteText(out, r)
		return nil
	}
}

// loadRules picks the rule table: an explicit file wins, then the embedded
// table matching the input kind.
func loadRules(opts options) (*rules.Table, error) {
	if opts.rulesPath != "" {
		return rules.LoadFile(opts.rulesPath)
	}
	if opts.goDir != "" {
		return rules.Embedded("go.yaml")
	}
	return rules.Default()
}
