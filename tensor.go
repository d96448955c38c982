package imgtensor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrTensorSize is returned when the serialized tensor does not match the expected shape.
var ErrTensorSize = errors.New("tensor size mismatch")

// Shape holds the tensor dimensions in NCHW order.
type Shape [4]int

// InputShape is the layout expected by the downstream classification network.
var InputShape = Shape{1, 3, CropSize, CropSize}

// Len returns the number of elements described by the shape.
func (s Shape) Len() int {
	return s[0] * s[1] * s[2] * s[3]
}

// Tensor is a dense, row-major float32 tensor in NCHW layout.
type Tensor struct {
	Shape Shape
	Data  []float32
}

// NewTensor allocates a zero filled tensor of the given shape.
func NewTensor(shape Shape) *Tensor {
	return &Tensor{
		Shape: shape,
		Data:  make([]float32, shape.Len()),
	}
}

// Len returns the number of elements stored in the tensor.
func (t *Tensor) Len() int {
	return len(t.Data)
}

// ByteSize returns the size in bytes of the serialized tensor.
func (t *Tensor) ByteSize() int {
	return len(t.Data) * 4
}

// offset returns the index into Data of the element at (n, c, h, w).
func (t *Tensor) offset(n, c, h, w int) int {
	s := t.Shape
	return ((n*s[1]+c)*s[2]+h)*s[3] + w
}

// At returns the element at (n, c, h, w).
func (t *Tensor) At(n, c, h, w int) float32 {
	return t.Data[t.offset(n, c, h, w)]
}

// WriteTo dumps the raw tensor values as little-endian float32, without any header.
// It implements the io.WriterTo interface.
func (t *Tensor) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, t.ByteSize())
	for i, v := range t.Data {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// ReadTensor reads a raw little-endian float32 dump of the given shape.
// The reader must hold exactly shape.Len() values.
func ReadTensor(r io.Reader, shape Shape) (*Tensor, error) {
	size := shape.Len() * 4
	buf := make([]byte, size+1)

	n, err := io.ReadFull(r, buf)
	switch {
	case err == io.ErrUnexpectedEOF || err == io.EOF:
		if n != size {
			return nil, fmt.Errorf("%w: got %d bytes, expected %d", ErrTensorSize, n, size)
		}
	case err != nil:
		return nil, err
	default:
		return nil, fmt.Errorf("%w: input is larger than %d bytes", ErrTensorSize, size)
	}

	t := NewTensor(shape)
	for i := range t.Data {
		t.Data[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return t, nil
}

// fromHWC reshapes an interleaved height x width x channels buffer into a
// [1, height, width, channels] tensor and transposes it to [1, channels, height, width].
func fromHWC(hwc []float32, height, width, channels int) *Tensor {
	t := NewTensor(Shape{1, channels, height, width})
	plane := height * width
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			si := (y*width + x) * channels
			di := y*width + x
			for c := 0; c < channels; c++ {
				t.Data[c*plane+di] = hwc[si+c]
			}
		}
	}
	return t
}
