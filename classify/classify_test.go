package classify

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/esimov/imgtensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopK(t *testing.T) {
	assert := assert.New(t)

	scores := []float32{1, 3, 2, 0, 5, 4}
	preds := TopK(scores, 5)
	assert.Len(preds, 5)

	indices := make([]int, 0, len(preds))
	for _, p := range preds {
		indices = append(indices, p.Index)
	}
	assert.Equal([]int{4, 5, 1, 2, 0}, indices)

	// softmax: p[i] = exp(s[i]) / sum(exp(s))
	var total float64
	for _, s := range scores {
		total += math.Exp(float64(s))
	}
	assert.InDelta(math.Exp(5)/total, preds[0].Probability, 1e-9)
	assert.InDelta(math.Exp(1)/total, preds[4].Probability, 1e-9)

	for i := 1; i < len(preds); i++ {
		assert.GreaterOrEqual(preds[i-1].Probability, preds[i].Probability)
	}
}

func TestTopK_ProbabilitiesSumToOne(t *testing.T) {
	scores := []float32{-2, 0.5, 7, 7, 1000}
	preds := TopK(scores, len(scores))

	var sum float64
	for _, p := range preds {
		assert.False(t, math.IsNaN(p.Probability))
		sum += p.Probability
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Equal(t, 4, preds[0].Index)
}

func TestTopK_Ties(t *testing.T) {
	preds := TopK([]float32{2, 1, 2, 2}, 3)
	require.Len(t, preds, 3)

	assert.Equal(t, 0, preds[0].Index)
	assert.Equal(t, 2, preds[1].Index)
	assert.Equal(t, 3, preds[2].Index)
	assert.Equal(t, preds[0].Probability, preds[2].Probability)
}

func TestTopK_Clamp(t *testing.T) {
	assert.Len(t, TopK([]float32{1, 2}, 5), 2)
	assert.Nil(t, TopK(nil, 5))
	assert.Nil(t, TopK([]float32{1, 2}, 0))
}

func TestPrediction_String(t *testing.T) {
	p := Prediction{Index: 281, Probability: 0.5}
	assert.Equal(t, "index[281] value[0.500000]", p.String())

	p.Label = "tabby cat"
	assert.Equal(t, "index[281] value[0.500000] tabby cat", p.String())
}

func TestLoadLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.txt")
	require.NoError(t, os.WriteFile(path, []byte("tench\ngoldfish \r\ngreat white shark\n\n"), 0644))

	labels, err := LoadLabels(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"tench", "goldfish", "great white shark"}, labels)

	_, err = LoadLabels(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestClassify_ShapeMismatch(t *testing.T) {
	c := &Classifier{}

	_, err := c.Classify(nil, 5)
	assert.ErrorIs(t, err, ErrShape)

	tensor := imgtensor.NewTensor(imgtensor.Shape{1, 3, 10, 10})
	_, err = c.Classify(tensor, 5)
	assert.ErrorIs(t, err, ErrShape)
}

func TestNew_NoModel(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
