package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSampleRate = 200

// sineWindow gera uma janela de senoide pura
func sineWindow(freq, amplitude float64, n int) []float64 {
	samples := make([]float64, n)
	for t := 0; t < n; t++ {
		samples[t] = amplitude * math.Sin(2*math.Pi*freq*float64(t)/testSampleRate)
	}
	return samples
}

// combWindow gera ruído determinístico de banda larga: tons de baixa
// amplitude espalhados pela banda, sem componente que se destaque
func combWindow(n int) []float64 {
	samples := make([]float64, n)
	for t := 0; t < n; t++ {
		for k := 0; k < 5; k++ {
			freq := 3.2 + 1.7*float64(k)
			samples[t] += 0.25 * math.Sin(2*math.Pi*freq*float64(t)/testSampleRate)
		}
	}
	return samples
}

func TestNewSpectralAnalyzerRejectsInvalidRate(t *testing.T) {
	_, err := NewSpectralAnalyzer(0)
	assert.Error(t, err)

	_, err = NewSpectralAnalyzer(-200)
	assert.Error(t, err)

	sa, err := NewSpectralAnalyzer(testSampleRate)
	require.NoError(t, err)
	assert.Equal(t, testSampleRate, sa.SampleRate())
}

func TestAnalyzeRecovers5HzSine(t *testing.T) {
	sa, err := NewSpectralAnalyzer(testSampleRate)
	require.NoError(t, err)

	result := sa.Analyze(sineWindow(5.0, 30.0, 256))

	// Resolução de um bin: 200/256 Hz
	binWidth := float64(testSampleRate) / 256.0
	assert.InDelta(t, 5.0, result.DominantFrequency, binWidth)
	assert.InDelta(t, 5.0, result.SpectralCentroid, 1.5)
	assert.Greater(t, result.FrequencyPower, 0.0)
	assert.Len(t, result.Magnitudes, 128)
}

func TestAnalyzeRecovers8HzSine(t *testing.T) {
	sa, err := NewSpectralAnalyzer(testSampleRate)
	require.NoError(t, err)

	result := sa.Analyze(sineWindow(8.0, 20.0, 256))

	binWidth := float64(testSampleRate) / 256.0
	assert.InDelta(t, 8.0, result.DominantFrequency, binWidth)
}

func TestAnalyzeNoiseHasNoDominantFrequency(t *testing.T) {
	sa, err := NewSpectralAnalyzer(testSampleRate)
	require.NoError(t, err)

	result := sa.Analyze(combWindow(256))

	// Nenhum pico se destaca da média da banda: frequência dominante 0
	assert.Equal(t, 0.0, result.DominantFrequency)
	assert.Greater(t, result.FrequencyPower, 0.0)
}

func TestAnalyzeIgnoresOutOfBandComponents(t *testing.T) {
	sa, err := NewSpectralAnalyzer(testSampleRate)
	require.NoError(t, err)

	// 50 Hz forte (interferência de rede) + 5 Hz fraco: a banda de
	// tremor só vê o 5 Hz
	samples := sineWindow(50.0, 100.0, 256)
	weak := sineWindow(5.0, 10.0, 256)
	for i := range samples {
		samples[i] += weak[i]
	}

	result := sa.Analyze(samples)

	binWidth := float64(testSampleRate) / 256.0
	assert.InDelta(t, 5.0, result.DominantFrequency, binWidth)
	assert.LessOrEqual(t, result.SpectralCentroid, TremorBandHighHz)
}

func TestAnalyzeEmptyWindow(t *testing.T) {
	sa, err := NewSpectralAnalyzer(testSampleRate)
	require.NoError(t, err)

	result := sa.Analyze(nil)

	assert.Empty(t, result.Magnitudes)
	assert.Equal(t, 0.0, result.DominantFrequency)
	assert.Equal(t, 0.0, result.FrequencyPower)
}

func TestAnalyzeSilenceHasZeroScalars(t *testing.T) {
	sa, err := NewSpectralAnalyzer(testSampleRate)
	require.NoError(t, err)

	result := sa.Analyze(make([]float64, 256))

	assert.Equal(t, 0.0, result.DominantFrequency)
	assert.Equal(t, 0.0, result.FrequencyPower)
	assert.Equal(t, 0.0, result.SpectralCentroid)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	sa, err := NewSpectralAnalyzer(testSampleRate)
	require.NoError(t, err)

	window := sineWindow(6.0, 40.0, 256)
	first := sa.Analyze(window)
	second := sa.Analyze(window)

	assert.Equal(t, first.DominantFrequency, second.DominantFrequency)
	assert.Equal(t, first.FrequencyPower, second.FrequencyPower)
	assert.Equal(t, first.Magnitudes, second.Magnitudes)
}
