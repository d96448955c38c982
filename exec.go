package imgtensor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/esimov/imgtensor/logging"
	"github.com/esimov/imgtensor/utils"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

// DefaultSuffix is the file name suffix selecting the images to convert.
const DefaultSuffix = "jpg"

// Ledger keeps track of the already converted images, so that unchanged ones can be skipped.
type Ledger interface {
	Unchanged(path string, modTime time.Time, resampler string) (bool, error)
	Record(res Result, modTime time.Time, size int64, resampler string) error
}

// Ops holds the batch conversion options.
type Ops struct {
	// Dir is the directory scanned for images. It is not walked recursively.
	Dir string
	// Suffix is matched literally and case sensitively against the file names.
	Suffix string
	// Workers is the number of files converted concurrently. 1 converts them sequentially.
	Workers int
	// Out receives the progress and summary lines. Defaults to os.Stdout.
	Out io.Writer
	// Color decorates the output with ANSI colors.
	Color bool
	// Ledger is optional. When set, unchanged images are skipped unless Force is true.
	Ledger Ledger
	Force  bool
}

// ScanDir lists the entries of dir whose name ends with suffix, in lexical order.
// Entries are not filtered by type: a directory matching the suffix is returned as well.
func ScanDir(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to read the directory %s: %w", dir, err)
	}

	matched := lo.Filter(entries, func(e os.DirEntry, _ int) bool {
		return HasSuffix(e.Name(), suffix)
	})
	return lo.Map(matched, func(e os.DirEntry, _ int) string {
		return filepath.Join(dir, e.Name())
	}), nil
}

// tally serializes the console output and the accounting of the results.
type tally struct {
	mu      sync.Mutex
	op      *Ops
	summary Summary
}

func (t *tally) start(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.op.Out, "processing image %s...\n", filepath.Base(path))
}

func (t *tally) add(res Result) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.summary.Add(res)
	name := filepath.Base(res.Path)

	switch res.Status {
	case StatusOK:
		fmt.Fprintf(t.op.Out, "%s %s\n",
			t.decorate("✔", utils.SuccessMessage),
			fmt.Sprintf("image %s converted into %s", name, filepath.Base(res.Output)))
		logging.LogImageProcessed(res.Path, res.Output, true, "")
	case StatusSkipped:
		fmt.Fprintf(t.op.Out, "%s %s\n",
			t.decorate("=", utils.StatusMessage),
			fmt.Sprintf("image %s unchanged, keeping %s", name, filepath.Base(res.Output)))
		logging.DebugLog("SKIPPED: %s", res.Path)
	default:
		fmt.Fprintf(t.op.Out, "%s %s\n\tReason: %v\n",
			t.decorate("✘", utils.ErrorMessage),
			fmt.Sprintf("failed to process image %s", name),
			res.Err)
		logging.LogImageProcessed(res.Path, res.Output, false, fmt.Sprintf("[%s] %v", res.Kind, res.Err))
	}
}

func (t *tally) decorate(s string, msgType utils.MessageType) string {
	if !t.op.Color {
		return s
	}
	return utils.DecorateText(s, msgType)
}

// Execute converts every image of the directory described by op.
// A failing image never stops the batch: the failures are reported and counted.
// Cancelling the context stops dispatching new images; the returned summary
// accounts for the images processed until then.
func (p *Processor) Execute(ctx context.Context, op *Ops) (Summary, error) {
	if op.Dir == "" {
		op.Dir = "."
	}
	if op.Suffix == "" {
		op.Suffix = DefaultSuffix
	}
	if op.Out == nil {
		op.Out = os.Stdout
	}
	// Limit the concurrently running workers to maxWorkers.
	op.Workers = utils.Min(utils.Max(op.Workers, 1), maxWorkers)

	paths, err := ScanDir(op.Dir, op.Suffix)
	if err != nil {
		return Summary{}, err
	}
	if p.Debug {
		logging.DebugLog("Found %d files ending in %q in %s, using %d worker(s)",
			len(paths), op.Suffix, op.Dir, op.Workers)
	}

	now := time.Now()
	t := &tally{op: op}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(op.Workers)

	for _, path := range paths {
		if gctx.Err() != nil {
			break
		}
		path := path
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			t.start(path)
			t.add(p.convert(path, op))
			return nil
		})
	}
	g.Wait()

	summary := t.summary
	fmt.Fprintln(op.Out, summary.String())
	if p.Debug {
		logging.DebugLog("Batch completed in %s: %s (%d skipped)",
			utils.FormatTime(time.Since(now)), summary, summary.Skipped)
	}
	return summary, ctx.Err()
}

// convert processes a single file, consulting the ledger when there is one.
func (p *Processor) convert(path string, op *Ops) Result {
	if op.Ledger == nil {
		return p.ProcessFile(path)
	}

	name := DefaultResampler
	if p.Resampler != nil {
		name = p.Resampler.Name()
	}

	fi, err := os.Stat(path)
	if err != nil {
		return Result{
			Path:   path,
			Output: OutputPath(path),
			Status: StatusFailed,
			Kind:   KindOpen,
			Err:    fmt.Errorf("cannot stat file %s: %w", path, err),
		}
	}

	if !op.Force {
		unchanged, err := op.Ledger.Unchanged(path, fi.ModTime(), name)
		if err != nil {
			logging.LogError("manifest lookup failed for %s: %v", path, err)
		} else if unchanged {
			return Result{Path: path, Output: OutputPath(path), Status: StatusSkipped}
		}
	}

	res := p.ProcessFile(path)
	if err := op.Ledger.Record(res, fi.ModTime(), fi.Size(), name); err != nil {
		logging.LogError("cannot record %s in the manifest: %v", path, err)
	}
	return res
}
