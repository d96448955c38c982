package imgtensor

import "fmt"

// Status is the outcome of the conversion of a single file.
type Status int

// The possible conversion outcomes.
const (
	StatusOK Status = iota
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ErrorKind tells at which stage a conversion failed.
type ErrorKind int

// The stages of the conversion pipeline which can fail.
const (
	KindNone ErrorKind = iota
	KindOpen
	KindNotImage
	KindDecode
	KindColorModel
	KindResize
	KindCrop
	KindWrite
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindOpen:
		return "open"
	case KindNotImage:
		return "not-image"
	case KindDecode:
		return "decode"
	case KindColorModel:
		return "color-model"
	case KindResize:
		return "resize"
	case KindCrop:
		return "crop"
	case KindWrite:
		return "write"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Result holds the relevant information about the conversion of a single image.
type Result struct {
	Path   string
	Output string
	Status Status
	Kind   ErrorKind
	Err    error
}

// OK reports whether the tensor file is available, either generated or kept from a previous run.
func (r Result) OK() bool {
	return r.Status != StatusFailed
}

// stageError wraps an error with the pipeline stage it originated from.
type stageError struct {
	kind ErrorKind
	err  error
}

func (e *stageError) Error() string { return e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func failAt(kind ErrorKind, err error) error {
	return &stageError{kind: kind, err: err}
}

// Summary accumulates the results of a batch conversion.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
}

// Add accounts for a single conversion result.
func (s *Summary) Add(r Result) {
	s.Total++
	switch r.Status {
	case StatusFailed:
		s.Failed++
	case StatusSkipped:
		s.Skipped++
		s.Succeeded++
	default:
		s.Succeeded++
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("%d images in total, %d images processed successfully, %d images failed",
		s.Total, s.Succeeded, s.Failed)
}
