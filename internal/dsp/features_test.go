package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/pkg/models"
)

func TestExtractFeaturesKnownVector(t *testing.T) {
	samples := []float64{1, -1, 1, -1}
	fv := ExtractFeatures(samples, SpectralResult{})

	assert.Equal(t, 1.0, fv.MeanAmplitude)
	assert.Equal(t, 1.0, fv.RMSAmplitude)
	assert.Equal(t, 1.0, fv.SignalEnergy)
	// Variância em torno da amplitude média (1): (0+4+0+4)/4
	assert.Equal(t, 2.0, fv.SignalVariance)
}

func TestExtractFeaturesZeroCrossingRateAlternating(t *testing.T) {
	// Sinal alternante: toda transição cruza zero
	n := 8
	samples := make([]float64, n)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 1
		} else {
			samples[i] = -1
		}
	}

	fv := ExtractFeatures(samples, SpectralResult{})
	assert.Equal(t, float64(n-1)/float64(n), fv.ZeroCrossingRate)
}

func TestExtractFeaturesZeroSampleDoesNotCross(t *testing.T) {
	// Amostras exatamente em zero não contam como cruzamento
	samples := []float64{1, 0, 1, 0, 1}
	fv := ExtractFeatures(samples, SpectralResult{})
	assert.Equal(t, 0.0, fv.ZeroCrossingRate)
}

func TestExtractFeaturesCarriesSpectralScalars(t *testing.T) {
	spectral := SpectralResult{
		DominantFrequency: 5.5,
		SpectralCentroid:  6.1,
		FrequencyPower:    1234.0,
	}

	fv := ExtractFeatures([]float64{1, 2, 3}, spectral)
	assert.Equal(t, 5.5, fv.DominantFrequency)
	assert.Equal(t, 6.1, fv.SpectralCentroid)
	assert.Equal(t, 1234.0, fv.FrequencyPower)
}

func TestExtractFeaturesEmptyWindow(t *testing.T) {
	fv := ExtractFeatures(nil, SpectralResult{DominantFrequency: 4.0})

	assert.Equal(t, 0.0, fv.RMSAmplitude)
	assert.Equal(t, 4.0, fv.DominantFrequency)
}

func TestEntropyNeverNegative(t *testing.T) {
	cases := map[string][]float64{
		"senoide":   sineWindow(6.0, 40.0, 256),
		"ruído":     combWindow(256),
		"silêncio":  make([]float64, 256),
		"constante": {5, 5, 5, 5, 5},
	}

	for name, samples := range cases {
		fv := ExtractFeatures(samples, SpectralResult{})
		assert.GreaterOrEqual(t, fv.Entropy, 0.0, "entropia negativa no caso %s", name)
	}
}

func TestHjorthParametersConstantSignal(t *testing.T) {
	// Sinal constante não tem derivada: mobilidade e complexidade zero
	mobility, complexity := hjorthParameters([]float64{3, 3, 3, 3, 3})
	assert.Equal(t, 0.0, mobility)
	assert.Equal(t, 0.0, complexity)
}

func TestHjorthParametersSineIsFinite(t *testing.T) {
	mobility, complexity := hjorthParameters(sineWindow(6.0, 40.0, 256))

	assert.Greater(t, mobility, 0.0)
	assert.Greater(t, complexity, 0.0)
	assert.False(t, math.IsNaN(mobility))
	assert.False(t, math.IsNaN(complexity))
}

func TestSmootherSeedsFromFirstWindow(t *testing.T) {
	s := NewSmoother()

	fv := models.FeatureVector{MeanAmplitude: 8, RMSAmplitude: 10, SignalEnergy: 100}
	out := s.Apply(fv)

	// Primeira janela passa inalterada: nada de viés para zero
	assert.Equal(t, 8.0, out.MeanAmplitude)
	assert.Equal(t, 10.0, out.RMSAmplitude)
}

func TestSmootherBlendsSubsequentWindows(t *testing.T) {
	s := NewSmoother()

	s.Apply(models.FeatureVector{MeanAmplitude: 8, RMSAmplitude: 10})
	out := s.Apply(models.FeatureVector{MeanAmplitude: 16, RMSAmplitude: 20})

	// 0.8 * anterior + 0.2 * atual
	assert.InDelta(t, 9.6, out.MeanAmplitude, 1e-9)
	assert.InDelta(t, 12.0, out.RMSAmplitude, 1e-9)
	// Energia recalculada a partir do RMS suavizado
	assert.InDelta(t, 144.0, out.SignalEnergy, 1e-9)
}

func TestSmootherLeavesOtherFieldsUntouched(t *testing.T) {
	s := NewSmoother()
	s.Apply(models.FeatureVector{RMSAmplitude: 10})

	out := s.Apply(models.FeatureVector{RMSAmplitude: 10, DominantFrequency: 6.25, Entropy: 1.2})
	assert.Equal(t, 6.25, out.DominantFrequency)
	assert.Equal(t, 1.2, out.Entropy)
}

func TestSmootherResetStartsNewSession(t *testing.T) {
	s := NewSmoother()
	s.Apply(models.FeatureVector{MeanAmplitude: 100, RMSAmplitude: 100})
	s.Reset()

	out := s.Apply(models.FeatureVector{MeanAmplitude: 2, RMSAmplitude: 3})
	require.Equal(t, 2.0, out.MeanAmplitude)
	require.Equal(t, 3.0, out.RMSAmplitude)

	state := s.State()
	assert.Equal(t, 1, state.Windows)
}

func TestSmootherIndependentInstances(t *testing.T) {
	a := NewSmoother()
	b := NewSmoother()

	a.Apply(models.FeatureVector{RMSAmplitude: 50})
	out := b.Apply(models.FeatureVector{RMSAmplitude: 1})

	// Estado de uma fonte nunca vaza para outra
	assert.Equal(t, 1.0, out.RMSAmplitude)
}
