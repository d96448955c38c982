package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/esimov/imgtensor"
	"github.com/esimov/imgtensor/logging"
	"github.com/esimov/imgtensor/manifest"
	"github.com/esimov/imgtensor/utils"
)

const HelpBanner = `
┬┌┬┐┌─┐┌┬┐┌─┐┌┐┌┌─┐┌─┐┬─┐
││││ ┬ │ ├┤ │││└─┐│ │├┬┘
┴┴ ┴└─┘ ┴ └─┘┘└┘└─┘└─┘┴└─

Image to ResNet50 input tensor converter.
    Version: %s

Usage:
    imgtensor [convert] [flags]
    imgtensor classify [flags] FILE...
    imgtensor resamplers

`

// Version indicates the current build version.
var Version string

// useColors is set when the standard output is a terminal.
var useColors bool

func main() {
	log.SetFlags(0)
	useColors = utils.IsTerminal(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatal(decorate(err.Error(), utils.ErrorMessage))
	}
}

// run dispatches the subcommand. Convert is selected when no subcommand is named.
func run(ctx context.Context, args []string) error {
	cmd := "convert"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "convert":
		return convertCmd(ctx, args)
	case "classify":
		return classifyCmd(ctx, args)
	case "resamplers":
		for _, name := range imgtensor.Resamplers() {
			if name == imgtensor.DefaultResampler {
				name += " (default)"
			}
			fmt.Println(name)
		}
		return nil
	case "version":
		fmt.Println(Version)
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		fmt.Fprintf(os.Stderr, "Flags of %s:\n", name)
		fs.PrintDefaults()
	}
	return fs
}

func convertCmd(ctx context.Context, args []string) error {
	var (
		fs        = newFlagSet("convert")
		dir       = fs.String("dir", ".", "Directory containing the images")
		suffix    = fs.String("suffix", imgtensor.DefaultSuffix, "File name suffix of the images to convert (case sensitive)")
		resampler = fs.String("resampler", imgtensor.DefaultResampler, "Resampling filter used for the initial resize")
		workers   = fs.Int("conc", 1, "Number of files to process concurrently")
		dbPath    = fs.String("db", "", "SQLite manifest used to skip the unchanged images")
		force     = fs.Bool("force", false, "Convert every image, even if the manifest reports it unchanged")
		debug     = fs.Bool("debug", false, "Enable debug logging")
		logFile   = fs.String("logfile", "", "Debug log file (default stderr)")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	if err := setupLogging(*debug, *logFile); err != nil {
		return err
	}
	defer logging.CloseLogger()

	rs, err := imgtensor.LookupResampler(*resampler)
	if err != nil {
		return err
	}
	proc := imgtensor.NewProcessor()
	proc.Resampler = rs
	proc.Debug = *debug

	op := &imgtensor.Ops{
		Dir:     *dir,
		Suffix:  *suffix,
		Workers: *workers,
		Out:     os.Stdout,
		Color:   useColors,
		Force:   *force,
	}

	var mf *manifest.Manifest
	if *dbPath != "" {
		mf, err = manifest.Open(*dbPath)
		if err != nil {
			return fmt.Errorf("cannot open the manifest: %w", err)
		}
		defer mf.Close()
		op.Ledger = mf
	}

	now := time.Now()
	if _, err := proc.Execute(ctx, op); err != nil {
		if errors.Is(err, context.Canceled) {
			return errors.New("conversion interrupted")
		}
		return err
	}

	if mf != nil {
		stats, err := mf.Stats()
		if err != nil {
			logging.LogError("%v", err)
		} else {
			logging.DebugLog("Manifest holds %d records: %d ok, %d failed", stats.Total, stats.OK, stats.Failed)
		}
	}
	if *debug {
		fmt.Fprintf(os.Stderr, "\nExecution time: %s\n",
			decorate(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
	}
	return nil
}

// setupLogging enables the debug log. Without a log file the messages go to stderr.
func setupLogging(debug bool, path string) error {
	if !debug {
		return nil
	}
	if path == "" {
		logging.SetOutput(os.Stderr)
		return nil
	}
	return logging.SetupLogger(path)
}

func decorate(s string, msgType utils.MessageType) string {
	if !useColors {
		return s
	}
	return utils.DecorateText(s, msgType)
}
