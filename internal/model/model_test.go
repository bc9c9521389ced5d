package model_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/phishcatcher/internal/model"
)

func vec(ip float64) []float64 {
	x := make([]float64, 23)
	x[12] = ip
	return x
}

func sum(p []float64) float64 {
	s := 0.0
	for _, v := range p {
		s += v
	}
	return s
}

func TestLoad_Forest(t *testing.T) {
	t.Parallel()
	c, err := model.Load(filepath.Join("testdata", "forest.json"))
	require.NoError(t, err)
	assert.Equal(t, 23, c.NumFeatures())
	assert.Equal(t, 4, c.NumClasses())

	p, err := c.PredictProba(vec(1))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.125, 0.125, 0.225, 0.525}, p, 1e-12)
	assert.InDelta(t, 1.0, sum(p), 1e-12)

	p, err = c.PredictProba(vec(0))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.625, 0.125, 0.125, 0.125}, p, 1e-12)
}

func TestForest_WidthMismatch(t *testing.T) {
	t.Parallel()
	c, err := model.Load(filepath.Join("testdata", "forest.json"))
	require.NoError(t, err)

	_, err = c.PredictProba(make([]float64, 22))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInputWidth))
}

func TestNewForest_Validation(t *testing.T) {
	t.Parallel()
	good := model.Tree{
		ChildrenLeft:  []int{1, -1, -1},
		ChildrenRight: []int{2, -1, -1},
		Feature:       []int{0, -2, -2},
		Threshold:     []float64{0.5, -2, -2},
		Value:         [][]float64{{1, 1}, {1, 0}, {0, 1}},
	}
	_, err := model.NewForest(1, 2, []model.Tree{good})
	require.NoError(t, err)

	cycle := good
	cycle.ChildrenLeft = []int{0, -1, -1}
	_, err = model.NewForest(1, 2, []model.Tree{cycle})
	assert.Error(t, err, "a node pointing at itself must be rejected")

	badFeature := good
	badFeature.Feature = []int{5, -2, -2}
	_, err = model.NewForest(1, 2, []model.Tree{badFeature})
	assert.Error(t, err)

	badClasses := good
	badClasses.Value = [][]float64{{1, 1}, {1}, {0, 1}}
	_, err = model.NewForest(1, 2, []model.Tree{badClasses})
	assert.Error(t, err)

	_, err = model.NewForest(1, 2, nil)
	assert.Error(t, err)
}

func TestForest_Float32Split(t *testing.T) {
	t.Parallel()
	// 0.1 as float32 is slightly above 0.1 as float64, so an input of
	// exactly 0.1 must go right against a float64 threshold of 0.1.
	tree := model.Tree{
		ChildrenLeft:  []int{1, -1, -1},
		ChildrenRight: []int{2, -1, -1},
		Feature:       []int{0, -2, -2},
		Threshold:     []float64{0.1, -2, -2},
		Value:         [][]float64{{1, 1}, {1, 0}, {0, 1}},
	}
	f, err := model.NewForest(1, 2, []model.Tree{tree})
	require.NoError(t, err)
	p, err := f.PredictProba([]float64{0.1})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, p)
}

func TestLinear(t *testing.T) {
	t.Parallel()
	a := model.Artifact{
		Format:     "linear",
		NumFeature: 2,
		NumClass:   2,
		Coef:       [][]float64{{1, 0}, {-1, 0}},
		Intercept:  []float64{0, 0},
	}
	c, err := a.Build()
	require.NoError(t, err)

	p, err := c.PredictProba([]float64{0, 5})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, p, 1e-12)

	p, err = c.PredictProba([]float64{1000, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, p[0], 1e-12, "large logits must not overflow")
	assert.InDelta(t, 1.0, sum(p), 1e-12)
}

func TestLinear_Standardized(t *testing.T) {
	t.Parallel()
	l, err := model.NewLinear(1, 2, [][]float64{{1}, {0}}, []float64{0, 0}, []float64{10}, []float64{2})
	require.NoError(t, err)
	p, err := l.PredictProba([]float64{10})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, p, 1e-12)

	_, err = model.NewLinear(1, 2, [][]float64{{1}, {0}}, []float64{0, 0}, []float64{10}, nil)
	assert.Error(t, err)
	_, err = model.NewLinear(1, 2, [][]float64{{1}, {0}}, []float64{0, 0}, []float64{10}, []float64{0})
	assert.Error(t, err)
	_, err = model.NewLinear(2, 2, [][]float64{{1}, {0}}, []float64{0, 0}, nil, nil)
	assert.Error(t, err)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	unknown := filepath.Join(dir, "unknown.json")
	require.NoError(t, os.WriteFile(unknown, []byte(`{"format":"svm","n_features":23,"n_classes":4}`), 0o644))
	_, err := model.Load(unknown)
	assert.True(t, errors.Is(err, model.ErrUnknownFormat))

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte(`not json`), 0o644))
	_, err = model.Load(garbage)
	assert.Error(t, err)

	_, err = model.Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	noClasses := filepath.Join(dir, "one-class.json")
	require.NoError(t, os.WriteFile(noClasses, []byte(`{"format":"forest","n_features":23,"n_classes":1}`), 0o644))
	_, err = model.Load(noClasses)
	assert.Error(t, err)
}

func TestLabels(t *testing.T) {
	t.Parallel()
	le, err := model.LoadLabels(filepath.Join("testdata", "labels.json"))
	require.NoError(t, err)
	assert.Equal(t, 4, le.Len())

	got, err := le.Decode(3)
	require.NoError(t, err)
	assert.Equal(t, "phishing", got)

	_, err = le.Decode(4)
	assert.Error(t, err)
	_, err = le.Decode(-1)
	assert.Error(t, err)

	_, err = model.NewLabelEncoder("benign", "Benign")
	assert.Error(t, err, "duplicates are rejected case-insensitively")
	_, err = model.NewLabelEncoder()
	assert.Error(t, err)
}
