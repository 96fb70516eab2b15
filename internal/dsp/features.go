package dsp

import (
	"math"
	"time"

	"backend/pkg/models"
)

const (
	// Alfa da média móvel exponencial aplicada entre janelas sucessivas
	// (0.2 novo / 0.8 anterior, igual ao firmware embarcado)
	smoothingAlpha = 0.2

	// Amostras normalizadas abaixo deste limiar não contribuem para a
	// entropia (evita log(0) e suprime o piso de ruído)
	entropyFloor = 0.001
)

// ExtractFeatures computa o vetor de características de uma janela,
// mesclando descritores de tempo com os escalares espectrais.
// Função pura: a mesma janela produz o mesmo vetor.
func ExtractFeatures(samples []float64, spectral SpectralResult) models.FeatureVector {
	fv := models.FeatureVector{
		DominantFrequency: spectral.DominantFrequency,
		SpectralCentroid:  spectral.SpectralCentroid,
		FrequencyPower:    spectral.FrequencyPower,
	}

	n := len(samples)
	if n == 0 {
		return fv
	}

	// Amplitude média e RMS
	var sumAbs, sumSq float64
	for _, x := range samples {
		sumAbs += math.Abs(x)
		sumSq += x * x
	}
	fv.MeanAmplitude = sumAbs / float64(n)
	fv.RMSAmplitude = math.Sqrt(sumSq / float64(n))
	fv.SignalEnergy = fv.RMSAmplitude * fv.RMSAmplitude

	// Variância populacional em torno da amplitude média
	var sumVar float64
	for _, x := range samples {
		d := x - fv.MeanAmplitude
		sumVar += d * d
	}
	fv.SignalVariance = sumVar / float64(n)

	// Taxa de cruzamento por zero: só troca de sinal estrita conta;
	// amostras exatamente em zero não cruzam
	crossings := 0
	for i := 1; i < n; i++ {
		if (samples[i-1] > 0 && samples[i] < 0) || (samples[i-1] < 0 && samples[i] > 0) {
			crossings++
		}
	}
	fv.ZeroCrossingRate = float64(crossings) / float64(n)

	fv.Entropy = signalEntropy(samples, fv.RMSAmplitude)
	fv.Mobility, fv.Complexity = hjorthParameters(samples)

	return fv
}

// signalEntropy mede a complexidade do sinal a partir das amplitudes
// normalizadas pelo RMS. RMS zero implica entropia zero (guarda contra
// divisão por zero); o resultado nunca é negativo.
func signalEntropy(samples []float64, rms float64) float64 {
	if rms <= 0 {
		return 0
	}

	entropy := 0.0
	for _, x := range samples {
		p := math.Abs(x) / rms
		if p > entropyFloor {
			entropy -= p * math.Log(p)
		}
	}

	if entropy < 0 {
		return 0
	}
	return entropy
}

// hjorthParameters calcula mobilidade e complexidade de Hjorth
// (descritores clássicos de complexidade de sinais biomédicos)
func hjorthParameters(samples []float64) (mobility, complexity float64) {
	if len(samples) < 3 {
		return 0, 0
	}

	rms := func(xs []float64) float64 {
		var sum float64
		for _, x := range xs {
			sum += x * x
		}
		return math.Sqrt(sum / float64(len(xs)))
	}

	diff := make([]float64, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		diff[i-1] = samples[i] - samples[i-1]
	}
	diff2 := make([]float64, len(diff)-1)
	for i := 1; i < len(diff); i++ {
		diff2[i-1] = diff[i] - diff[i-1]
	}

	rmsSignal := rms(samples)
	rmsDiff := rms(diff)
	rmsDiff2 := rms(diff2)

	if rmsSignal <= 0 || rmsDiff <= 0 {
		return 0, 0
	}

	mobility = rmsDiff / rmsSignal
	complexity = (rmsDiff2 / rmsDiff) / mobility

	return mobility, complexity
}

// Smoother estado de suavização exponencial de uma fonte lógica.
// Única memória entre janelas de todo o pipeline: uma instância por
// dispositivo/canal, nunca compartilhada entre fontes.
type Smoother struct {
	meanAmplitude float64
	rmsAmplitude  float64
	windows       int
	lastUpdate    time.Time
}

// NewSmoother cria estado de suavização vazio
func NewSmoother() *Smoother {
	return &Smoother{}
}

// Apply suaviza meanAmplitude e rmsAmplitude do vetor com o histórico da
// fonte; os demais campos passam inalterados. A primeira janela semeia o
// estado com o próprio valor para não começar com viés para zero.
func (s *Smoother) Apply(fv models.FeatureVector) models.FeatureVector {
	s.windows++
	s.lastUpdate = time.Now()

	if s.windows == 1 {
		s.meanAmplitude = fv.MeanAmplitude
		s.rmsAmplitude = fv.RMSAmplitude
		return fv
	}

	s.meanAmplitude = (1-smoothingAlpha)*s.meanAmplitude + smoothingAlpha*fv.MeanAmplitude
	s.rmsAmplitude = (1-smoothingAlpha)*s.rmsAmplitude + smoothingAlpha*fv.RMSAmplitude

	fv.MeanAmplitude = s.meanAmplitude
	fv.RMSAmplitude = s.rmsAmplitude
	fv.SignalEnergy = s.rmsAmplitude * s.rmsAmplitude

	return fv
}

// Reset descarta o histórico (reinício de stream)
func (s *Smoother) Reset() {
	s.meanAmplitude = 0
	s.rmsAmplitude = 0
	s.windows = 0
}

// State retorna snapshot do estado para inspeção
func (s *Smoother) State() models.SmootherState {
	return models.SmootherState{
		MeanAmplitude: s.meanAmplitude,
		RMSAmplitude:  s.rmsAmplitude,
		Windows:       s.windows,
		LastUpdate:    s.lastUpdate,
	}
}
