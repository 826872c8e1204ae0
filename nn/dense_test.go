package nn

import (
	"math"
	"testing"

	"github.com/LukasMasuch/deeplearning4j/activation"
	"github.com/LukasMasuch/deeplearning4j/linalg"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

func TestDenseLayerWithRequiresArrays(t *testing.T) {
	if _, err := NewDenseLayerWith(DefaultConfig(2, 2), nil, mat.NewDense(1, 2, nil), nil); err == nil {
		t.Error("expected error for nil weight")
	}
	if _, err := NewDenseLayerWith(DefaultConfig(2, 2), mat.NewDense(2, 2, nil), nil, nil); err == nil {
		t.Error("expected error for nil bias")
	}
}

func TestDenseGradientWithoutLabels(t *testing.T) {
	layer, x := onesLayer(t)
	layer.SetInput(x)
	if _, _, err := layer.GradientAndScore(); err == nil {
		t.Fatal("expected error without labels")
	}
}

func TestDenseGradientWithoutInput(t *testing.T) {
	layer, _ := onesLayer(t)
	layer.SetLabels(linalg.Ones(2, 2))
	if _, _, err := layer.GradientAndScore(); err == nil {
		t.Fatal("expected error without input")
	}
}

func TestDenseGradientMatchesFiniteDifference(t *testing.T) {
	conf := DefaultConfig(3, 2)
	conf.Activation = activation.Sigmoid
	conf.Seed = 42
	layer := NewDenseLayer(conf)
	if err := layer.InitParams(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	src := rand.NewSource(11)
	layer.SetInput(linalg.RandUniform(5, 3, -1, 1, src))
	layer.SetLabels(linalg.RandUniform(5, 2, 0, 1, src))

	grad, _, err := layer.GradientAndScore()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	analytic := grad.Flatten()

	score := func(p []float64) float64 {
		if err := layer.SetParams(p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, s, err := layer.GradientAndScore()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return s
	}
	params := layer.Params()
	numeric := fd.Gradient(nil, score, params, &fd.Settings{Formula: fd.Central})

	if len(numeric) != len(analytic) {
		t.Fatalf("gradient lengths differ: %d vs %d", len(numeric), len(analytic))
	}
	for i := range analytic {
		if math.Abs(analytic[i]-numeric[i]) > 1e-6 {
			t.Errorf("position %d: analytic %v, finite difference %v", i, analytic[i], numeric[i])
		}
	}
}

func TestDenseFitReducesScore(t *testing.T) {
	conf := DefaultConfig(2, 1)
	conf.Activation = activation.Identity
	conf.LearningRate = 0.5
	conf.NumIterations = 300
	conf.Seed = 42
	w := mat.NewDense(2, 1, nil)
	b := mat.NewDense(1, 1, nil)
	layer, err := NewDenseLayerWith(conf, w, b, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	x := mat.NewDense(4, 2, []float64{0, 0, 0, 1, 1, 0, 1, 1})
	// y = x1 + 2*x2
	y := mat.NewDense(4, 1, []float64{0, 2, 1, 3})
	layer.SetInput(x)
	layer.SetLabels(y)

	_, before, err := layer.GradientAndScore()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := layer.Fit(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, after, err := layer.GradientAndScore()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after >= before {
		t.Errorf("score did not improve: before %v, after %v", before, after)
	}
	if after > 1e-4 {
		t.Errorf("expected near-zero squared error, got %v", after)
	}
	if got := layer.GetParam(WeightKey).At(1, 0); math.Abs(got-2) > 0.05 {
		t.Errorf("expected second weight near 2, got %v", got)
	}
}

func TestDenseFitWithoutLabels(t *testing.T) {
	layer, x := onesLayer(t)
	if err := layer.Fit(x); err == nil {
		t.Fatal("expected error fitting without labels")
	}
}

func TestDenseGradientKeepsStoredInput(t *testing.T) {
	conf := DefaultConfig(3, 2)
	conf.Dropout = 0.5
	conf.Seed = 42
	layer := NewDenseLayer(conf)
	if err := layer.InitParams(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in := linalg.Ones(4, 3)
	layer.SetInput(in)
	layer.SetLabels(linalg.Ones(4, 2))

	if _, _, err := layer.GradientAndScore(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := layer.GradientAndScore(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range linalg.Flatten(layer.Input()) {
		if v != 1 {
			t.Fatalf("stored input was corrupted by dropout: %v", v)
		}
	}
}

func TestDenseGradientFollowsRegistrationOrder(t *testing.T) {
	conf := DefaultConfig(1, 1)
	conf.Activation = activation.Identity
	conf.LearningRate = 0.1
	conf.NumIterations = 1
	conf.Seed = 42
	layer := NewDenseLayer(conf)
	// Register the bias before the weight: flatten order is then b, W.
	layer.SetParam(BiasKey, mat.NewDense(1, 1, []float64{1}))
	layer.SetParam(WeightKey, mat.NewDense(1, 1, []float64{1}))
	layer.SetInput(mat.NewDense(1, 1, []float64{2}))
	layer.SetLabels(mat.NewDense(1, 1, nil))

	grad, _, err := layer.GradientAndScore()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	paramKeys := layer.ParamTable().Keys()
	gradKeys := grad.Keys()
	if len(gradKeys) != len(paramKeys) {
		t.Fatalf("expected %d gradient keys, got %d", len(paramKeys), len(gradKeys))
	}
	for i := range paramKeys {
		if gradKeys[i] != paramKeys[i] {
			t.Errorf("position %d: gradient key %q does not match parameter key %q", i, gradKeys[i], paramKeys[i])
		}
	}

	// out = 2*W + b = 3, delta = 3, so gb = 3 and gW = x*delta = 6.
	flat := grad.Flatten()
	if flat[0] != 3 || flat[1] != 6 {
		t.Fatalf("expected flattened gradient [3 6] in b, W order, got %v", flat)
	}

	// One descent step must apply each gradient to its own parameter:
	// b = 1 - 0.1*3 = 0.7 and W = 1 - 0.1*6 = 0.4.
	if err := layer.Fit(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := layer.GetParam(BiasKey).At(0, 0); math.Abs(got-0.7) > 1e-12 {
		t.Errorf("expected bias 0.7 after one step, got %v", got)
	}
	if got := layer.GetParam(WeightKey).At(0, 0); math.Abs(got-0.4) > 1e-12 {
		t.Errorf("expected weight 0.4 after one step, got %v", got)
	}
}

func TestDenseCloneIsDense(t *testing.T) {
	layer, x := onesLayer(t)
	layer.SetInput(x)
	cloned, err := layer.Clone()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cloned.(*DenseLayer); !ok {
		t.Fatalf("expected *DenseLayer, got %T", cloned)
	}
}
