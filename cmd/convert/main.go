// Command convert turns a shared map link, a saved map page or a state
// document into a GPX file.
//
//	convert [flags] <url | page.html | state.json | ->
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/samirrijal/ymaps2gpx/internal/adapters/elevation"
	"github.com/samirrijal/ymaps2gpx/internal/adapters/fetcher"
	"github.com/samirrijal/ymaps2gpx/internal/adapters/gpxenc"
	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
	"github.com/samirrijal/ymaps2gpx/internal/core/extract"
	"github.com/samirrijal/ymaps2gpx/internal/core/ports"
	"github.com/samirrijal/ymaps2gpx/internal/core/synth"
	"github.com/samirrijal/ymaps2gpx/internal/core/usecases"
	"github.com/samirrijal/ymaps2gpx/internal/pkg/config"
	"github.com/samirrijal/ymaps2gpx/internal/pkg/logging"
)

func main() {
	var (
		shapeName = pflag.StringP("shape", "s", "", "routes, tracks or segments (default from config)")
		withEle   = pflag.BoolP("elevation", "e", false, "add terrain elevation to track points")
		output    = pflag.StringP("output", "o", "", "write GPX here instead of stdout")
		quiet     = pflag.BoolP("quiet", "q", false, "do not print the summary")
		verbose   = pflag.BoolP("verbose", "v", false, "log extraction details to stderr")
	)
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <url | page.html | state.json | ->\n", filepath.Base(os.Args[0]))
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load("ymaps2gpx-cli")
	if err != nil {
		fail(err)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	// stdout may carry the GPX document
	logging.Setup(logging.Options{
		Level:      level,
		Format:     "text",
		Output:     os.Stderr,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	if *shapeName == "" {
		*shapeName = cfg.Conversion.DefaultShape
	}
	shape, err := synth.ParseShape(*shapeName)
	if err != nil {
		fail(err)
	}

	var elevations ports.ElevationService
	if *withEle {
		client, err := elevation.New(elevation.Config{
			BaseURL:   cfg.Elevation.BaseURL,
			Timeout:   time.Duration(cfg.Elevation.Timeout) * time.Second,
			BatchSize: cfg.Elevation.BatchSize,
			CacheSize: cfg.Elevation.CacheSize,
		}, nil)
		if err != nil {
			fail(err)
		}
		elevations = client
	}

	pages := fetcher.New(fetcher.Config{
		UserAgent:    cfg.Fetcher.UserAgent,
		Timeout:      time.Duration(cfg.Fetcher.Timeout) * time.Second,
		MaxBodyBytes: cfg.Fetcher.MaxBodyMB << 20,
		MaxRedirects: cfg.Fetcher.MaxRedirects,
	})
	svc := usecases.NewConversionService(
		pages,
		gpxenc.New(cfg.Conversion.Creator),
		nil, nil,
		extract.New(extract.WithHelpURL(cfg.Conversion.HelpURL)),
		synth.New(elevations),
		cfg.Conversion.SummaryLimit,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := usecases.ConvertOptions{Shape: shape, Elevation: *withEle}
	conv, err := convert(ctx, svc, pflag.Arg(0), opts)
	if err != nil {
		fail(err)
	}

	if err := write(*output, conv.GPX); err != nil {
		fail(err)
	}
	if !*quiet {
		fmt.Fprintln(os.Stderr, conv.Summary)
	}
}

// convert picks the pipeline entry point from what input looks like.
func convert(ctx context.Context, svc *usecases.ConversionService, input string, opts usecases.ConvertOptions) (*domain.Conversion, error) {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return svc.ConvertURL(ctx, input, opts)
	}

	var (
		data []byte
		err  error
	)
	if input == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(input)
	}
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(input)) {
	case ".html", ".htm":
		if data, err = fetcher.ExtractState(data); err != nil {
			return nil, err
		}
	}
	return svc.ConvertDocument(ctx, data, opts)
}

func write(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// fail prints the user-facing explanation when there is one.
func fail(err error) {
	if msg := domain.UserMessage(err); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	} else {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	os.Exit(1)
}
