package nn

import (
	"fmt"
	"math"

	"github.com/LukasMasuch/deeplearning4j/linalg"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// ParamInitializer populates a layer's parameter table from its config.
type ParamInitializer interface {
	Init(table *ParamTable, conf *Config, src rand.Source) error
}

// DefaultInitializer registers a uniformly sampled weight and a zero bias
// under the standard keys.
type DefaultInitializer struct{}

// Init creates the weight (NIn x NOut, uniform in ±scale) and bias
// (1 x NOut, zeros). The scale is WeightScale when set, 1/sqrt(NIn)
// otherwise. Fails on non-positive widths.
func (DefaultInitializer) Init(table *ParamTable, conf *Config, src rand.Source) error {
	if conf.NIn <= 0 || conf.NOut <= 0 {
		return fmt.Errorf("nn: cannot initialize parameters for %dx%d layer", conf.NIn, conf.NOut)
	}
	scale := conf.WeightScale
	if scale <= 0 {
		scale = 1 / math.Sqrt(float64(conf.NIn))
	}
	table.Set(WeightKey, linalg.RandUniform(conf.NIn, conf.NOut, -scale, scale, src))
	table.Set(BiasKey, mat.NewDense(1, conf.NOut, nil))
	return nil
}
