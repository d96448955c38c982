package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/esimov/imgtensor"
	"github.com/esimov/imgtensor/classify"
	"github.com/esimov/imgtensor/logging"
	"github.com/esimov/imgtensor/utils"
	"golang.org/x/term"
)

// pipeName is the file name that indicates stdin is being used.
const pipeName = "-"

func classifyCmd(ctx context.Context, args []string) error {
	var (
		fs         = newFlagSet("classify")
		modelPath  = fs.String("model", "", "ONNX model file")
		libPath    = fs.String("lib", "", "Path of the onnxruntime shared library")
		inputName  = fs.String("input", classify.DefaultInputName, "Name of the model input")
		outputName = fs.String("output", classify.DefaultOutputName, "Name of the model output")
		classes    = fs.Int("classes", classify.DefaultClasses, "Number of classes of the model output")
		top        = fs.Int("top", classify.DefaultTop, "Number of classes to report")
		labelsPath = fs.String("labels", "", "Text file with one class label per line")
		resampler  = fs.String("resampler", imgtensor.DefaultResampler, "Resampling filter used for the image inputs")
		debug      = fs.Bool("debug", false, "Enable debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *modelPath == "" || fs.NArg() == 0 {
		fs.Usage()
		return errors.New("please provide a model file and at least one tensor or image file")
	}

	if err := setupLogging(*debug, ""); err != nil {
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

	var labels []string
	if *labelsPath != "" {
		if labels, err = classify.LoadLabels(*labelsPath); err != nil {
			return err
		}
	}

	clf, err := classify.New(classify.Config{
		ModelPath:   *modelPath,
		LibraryPath: *libPath,
		InputName:   *inputName,
		OutputName:  *outputName,
		Classes:     *classes,
		Labels:      labels,
	})
	if err != nil {
		return err
	}
	defer clf.Close()

	spinnerText := fmt.Sprintf("%s %s",
		decorate("⚡ IMGTENSOR", utils.StatusMessage),
		decorate("is classifying the image...", utils.DefaultMessage))
	spinner := utils.NewSpinner(os.Stderr, spinnerText, 100*time.Millisecond, utils.IsTerminal(os.Stderr))

	// Restore the cursor visibility if the command is interrupted.
	stop := context.AfterFunc(ctx, spinner.Stop)
	defer stop()

	for _, name := range fs.Args() {
		if ctx.Err() != nil {
			return errors.New("classification interrupted")
		}

		t, err := loadTensor(name, proc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %s\n\tReason: %v\n",
				decorate("✘", utils.ErrorMessage), fmt.Sprintf("cannot load %s", name), err)
			continue
		}

		spinner.Start()
		preds, err := clf.Classify(t, *top)
		spinner.Stop()

		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %s\n\tReason: %v\n",
				decorate("✘", utils.ErrorMessage), fmt.Sprintf("cannot classify %s", name), err)
			continue
		}
		printPredictions(os.Stdout, name, preds)
	}
	return nil
}

// loadTensor reads a tensor file as is, while the images, either local, remote or
// piped through stdin, are converted in memory.
func loadTensor(name string, proc *imgtensor.Processor) (*imgtensor.Tensor, error) {
	switch {
	case name == pipeName:
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, errors.New("`-` should be used with a pipe for stdin")
		}
		return proc.Tensor(os.Stdin)
	case utils.IsValidUrl(name):
		f, err := utils.DownloadImage(name)
		if err != nil {
			return nil, err
		}
		defer os.Remove(f.Name())
		defer f.Close()

		return proc.Tensor(f)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.HasSuffix(name, imgtensor.TensorExt) {
		return imgtensor.ReadTensor(f, imgtensor.InputShape)
	}
	return proc.Tensor(f)
}

func printPredictions(w io.Writer, name string, preds []classify.Prediction) {
	fmt.Fprintf(w, "%s\n", decorate(filepath.Base(name), utils.StatusMessage))
	for i, p := range preds {
		fmt.Fprintf(w, "top %d: %s\n", i+1, p)
	}
}
