package dsp

import (
	"fmt"
	"math"
)

// Banda clinicamente relevante do tremor parkinsoniano/essencial
const (
	TremorBandLowHz  = 3.0
	TremorBandHighHz = 12.0

	// Razão mínima pico/média na banda para considerar que existe uma
	// componente dominante real. Abaixo disso a janela é só ruído e a
	// frequência dominante reportada é 0.
	peakSignificanceRatio = 3.0
)

// SpectralResult resultado da análise espectral de uma janela
type SpectralResult struct {
	Magnitudes        []float64
	DominantFrequency float64
	FrequencyPower    float64
	SpectralCentroid  float64
}

// SpectralAnalyzer calcula o espectro de magnitude por somatório de Fourier
// direto (O(W²)). Intencional: W é pequeno (≤256) e o alvo embarcado pode
// não ter biblioteca de FFT.
type SpectralAnalyzer struct {
	sampleRate int
}

// NewSpectralAnalyzer cria analisador para a taxa de amostragem dada.
// Taxa inválida é erro de configuração, detectado na construção.
func NewSpectralAnalyzer(sampleRate int) (*SpectralAnalyzer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("taxa de amostragem inválida: %d", sampleRate)
	}
	return &SpectralAnalyzer{sampleRate: sampleRate}, nil
}

// SampleRate retorna a taxa de amostragem configurada
func (sa *SpectralAnalyzer) SampleRate() int {
	return sa.sampleRate
}

// Analyze calcula o espectro completo e os escalares derivados da banda
// de tremor. Determinístico: a mesma janela produz o mesmo resultado.
func (sa *SpectralAnalyzer) Analyze(samples []float64) SpectralResult {
	n := len(samples)
	if n == 0 {
		return SpectralResult{Magnitudes: []float64{}}
	}

	halfN := n / 2
	magnitudes := make([]float64, halfN)
	fs := float64(sa.sampleRate)

	for k := 0; k < halfN; k++ {
		frequency := float64(k) * fs / float64(n)

		var real, imag float64
		for t := 0; t < n; t++ {
			angle := -2 * math.Pi * frequency * float64(t) / fs
			real += samples[t] * math.Cos(angle)
			imag += samples[t] * math.Sin(angle)
		}

		magnitudes[k] = math.Sqrt(real*real + imag*imag)
	}

	return sa.deriveBandScalars(magnitudes, n)
}

// deriveBandScalars extrai frequência dominante, potência total e centroide
// espectral restritos à banda [3,12] Hz. Bins fora da banda entram no
// espectro completo mas não nos escalares.
func (sa *SpectralAnalyzer) deriveBandScalars(magnitudes []float64, n int) SpectralResult {
	result := SpectralResult{Magnitudes: magnitudes}
	fs := float64(sa.sampleRate)

	var maxMagnitude float64
	dominantBin := 0
	totalPower := 0.0
	weightedSum := 0.0
	bandBins := 0

	// Bin 0 (DC) nunca participa
	for k := 1; k < len(magnitudes); k++ {
		freq := float64(k) * fs / float64(n)
		if freq < TremorBandLowHz || freq > TremorBandHighHz {
			continue
		}

		bandBins++
		totalPower += magnitudes[k]
		weightedSum += freq * magnitudes[k]

		if magnitudes[k] > maxMagnitude {
			maxMagnitude = magnitudes[k]
			dominantBin = k
		}
	}

	result.FrequencyPower = totalPower

	// Potência zero na banda: não dividir por zero, escalares ficam em 0
	if totalPower <= 0 || bandBins == 0 {
		return result
	}

	result.SpectralCentroid = weightedSum / totalPower

	// Piso de significância: um pico que não se destaca da média da banda
	// é ruído, não componente de tremor
	meanMagnitude := totalPower / float64(bandBins)
	if maxMagnitude >= peakSignificanceRatio*meanMagnitude {
		result.DominantFrequency = float64(dominantBin) * fs / float64(n)
	}

	return result
}
