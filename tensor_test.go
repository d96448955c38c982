package imgtensor

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTensor_InputShape(t *testing.T) {
	assert.Equal(t, 150528, InputShape.Len())

	tensor := NewTensor(InputShape)
	assert.Equal(t, 150528, tensor.Len())
	assert.Equal(t, 602112, tensor.ByteSize())
}

func TestTensor_FromHWC(t *testing.T) {
	// 2x3 image with 3 channels, value = c*100 + y*10 + x
	height, width, channels := 2, 3, 3
	hwc := make([]float32, height*width*channels)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for c := 0; c < channels; c++ {
				hwc[(y*width+x)*channels+c] = float32(c*100 + y*10 + x)
			}
		}
	}

	tensor := fromHWC(hwc, height, width, channels)
	assert.Equal(t, Shape{1, 3, 2, 3}, tensor.Shape)

	for c := 0; c < channels; c++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				assert.Equal(t, float32(c*100+y*10+x), tensor.At(0, c, y, x))
			}
		}
	}
	// The channels are stored as contiguous planes.
	assert.Equal(t, []float32{0, 1, 2, 10, 11, 12}, tensor.Data[:6])
	assert.Equal(t, []float32{100, 101, 102, 110, 111, 112}, tensor.Data[6:12])
}

func TestTensor_WriteTo(t *testing.T) {
	tensor := &Tensor{Shape: Shape{1, 1, 1, 3}, Data: []float32{1, -2.5, float32(math.Pi)}}

	var buf bytes.Buffer
	n, err := tensor.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	// No header, little-endian float32 values.
	raw := buf.Bytes()
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, raw[:4])
	for i, want := range tensor.Data {
		got := math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		assert.Equal(t, want, got)
	}
}

func TestTensor_ReadTensor(t *testing.T) {
	shape := Shape{1, 3, 2, 2}
	src := NewTensor(shape)
	for i := range src.Data {
		src.Data[i] = float32(i) / 3
	}

	var buf bytes.Buffer
	_, err := src.WriteTo(&buf)
	require.NoError(t, err)

	got, err := ReadTensor(bytes.NewReader(buf.Bytes()), shape)
	require.NoError(t, err)
	assert.Equal(t, src, got)

	_, err = ReadTensor(bytes.NewReader(buf.Bytes()[:buf.Len()-1]), shape)
	assert.ErrorIs(t, err, ErrTensorSize)

	_, err = ReadTensor(bytes.NewReader(append(buf.Bytes(), 0)), shape)
	assert.ErrorIs(t, err, ErrTensorSize)

	_, err = ReadTensor(bytes.NewReader(nil), shape)
	assert.ErrorIs(t, err, ErrTensorSize)
}
