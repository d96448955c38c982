// Package classify runs the generated tensors through an ONNX image classification model
// and reports the most probable classes.
package classify

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/esimov/imgtensor"
	ort "github.com/yalue/onnxruntime_go"
)

// Default model settings, matching the ImageNet ResNet50 export.
const (
	DefaultInputName  = "input"
	DefaultOutputName = "output"
	DefaultClasses    = 1000
	DefaultTop        = 5
)

// ErrShape is returned when the tensor does not match the model input.
var ErrShape = errors.New("tensor shape does not match the model input")

// Config holds the model settings.
type Config struct {
	// ModelPath is the path of the .onnx model file.
	ModelPath string
	// LibraryPath overrides the location of the onnxruntime shared library.
	LibraryPath string
	InputName   string
	OutputName  string
	// Classes is the length of the model output.
	Classes int
	// Labels are optional class names, indexed by class.
	Labels []string
}

// Prediction is a single class ranked by probability.
type Prediction struct {
	Index       int
	Label       string
	Probability float64
}

func (p Prediction) String() string {
	if p.Label == "" {
		return fmt.Sprintf("index[%d] value[%f]", p.Index, p.Probability)
	}
	return fmt.Sprintf("index[%d] value[%f] %s", p.Index, p.Probability, p.Label)
}

// Classifier wraps an onnxruntime session with preallocated input and output tensors.
// It is not safe for concurrent use.
type Classifier struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	labels  []string
}

// New initializes the onnxruntime environment and loads the model.
func New(cfg Config) (*Classifier, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("no model file provided")
	}
	if cfg.InputName == "" {
		cfg.InputName = DefaultInputName
	}
	if cfg.OutputName == "" {
		cfg.OutputName = DefaultOutputName
	}
	if cfg.Classes <= 0 {
		cfg.Classes = DefaultClasses
	}
	if cfg.LibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.LibraryPath)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	shape := imgtensor.InputShape
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(
		int64(shape[0]), int64(shape[1]), int64(shape[2]), int64(shape[3])))
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(cfg.Classes)))
	if err != nil {
		input.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName},
		[]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output},
		nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Classifier{
		session: session,
		input:   input,
		output:  output,
		labels:  cfg.Labels,
	}, nil
}

// Classify runs the model on t and returns the k most probable classes.
func (c *Classifier) Classify(t *imgtensor.Tensor, k int) ([]Prediction, error) {
	if t == nil || t.Shape != imgtensor.InputShape || len(t.Data) != t.Shape.Len() {
		return nil, ErrShape
	}
	copy(c.input.GetData(), t.Data)

	if err := c.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	preds := TopK(c.output.GetData(), k)
	for i := range preds {
		if idx := preds[i].Index; idx < len(c.labels) {
			preds[i].Label = c.labels[idx]
		}
	}
	return preds, nil
}

// Close releases the session, the tensors and the onnxruntime environment.
func (c *Classifier) Close() {
	if c.input != nil {
		c.input.Destroy()
	}
	if c.output != nil {
		c.output.Destroy()
	}
	if c.session != nil {
		c.session.Destroy()
	}
	ort.DestroyEnvironment()
}

// TopK applies softmax over all the scores and returns the k classes with the highest probability,
// in descending order. Equal scores are ordered by class index.
func TopK(scores []float32, k int) []Prediction {
	if len(scores) == 0 || k <= 0 {
		return nil
	}
	k = min(k, len(scores))

	maxScore := math.Inf(-1)
	for _, s := range scores {
		maxScore = math.Max(maxScore, float64(s))
	}

	// Shifting by the maximum keeps exp from overflowing.
	var total float64
	preds := make([]Prediction, len(scores))
	for i, s := range scores {
		e := math.Exp(float64(s) - maxScore)
		preds[i] = Prediction{Index: i, Probability: e}
		total += e
	}
	for i := range preds {
		preds[i].Probability /= total
	}

	sort.SliceStable(preds, func(i, j int) bool {
		return preds[i].Probability > preds[j].Probability
	})
	return preds[:k]
}

// LoadLabels reads the class names from a text file, one per line.
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open the labels file: %w", err)
	}
	defer f.Close()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		labels = append(labels, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read the labels file: %w", err)
	}
	// Drop the trailing empty lines.
	for len(labels) > 0 && labels[len(labels)-1] == "" {
		labels = labels[:len(labels)-1]
	}
	return labels, nil
}
