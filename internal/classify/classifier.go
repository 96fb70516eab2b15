package classify

import (
	"math"

	"backend/pkg/models"
	"backend/pkg/utils"
)

const (
	// Banda clínica completa de tremor, usada no indicador do score
	tremorBandLowHz  = 3.0
	tremorBandHighHz = 12.0

	// Sub-banda parkinsoniana esperada, usada no reforço de confiança
	parkinsonianBandLowHz  = 3.0
	parkinsonianBandHighHz = 8.0

	// Confiança fixa de resultados classificados no próprio dispositivo
	// embarcado e apenas repassados pelo servidor
	PreclassifiedConfidence = 0.95

	maxConfidence = 0.95
)

// PreclassifiedResult embala uma classe calculada no dispositivo num
// resultado com confiança fixa, sem reclassificar no servidor
func PreclassifiedResult(pattern models.SeverityClass, severityIndex float64) models.ClassificationResult {
	return models.ClassificationResult{
		Pattern:       pattern,
		Confidence:    PreclassifiedConfidence,
		SeverityIndex: utils.Clamp(severityIndex, 0, 100),
	}
}

// Strategy estratégia de classificação plugável.
// Implementações devem ser stateless e seguras para uso concorrente:
// o mesmo classificador é compartilhado entre todas as fontes.
type Strategy interface {
	Classify(features models.FeatureVector) models.ClassificationResult
	Name() string
}

// SeverityIndex escala contínua 0-100 para gráficos de tendência.
// Independente da classe discreta: a classe alimenta a narrativa
// clínica, o índice alimenta a visualização.
func SeverityIndex(rmsAmplitude, dominantFrequency float64) float64 {
	return utils.Clamp(rmsAmplitude*10+dominantFrequency*2, 0, 100)
}

// sanitize zera componentes NaN/Inf do vetor antes da pontuação,
// para não propagar corrupção aos registros armazenados
func sanitize(fv models.FeatureVector) models.FeatureVector {
	clean := func(v float64) float64 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	}

	fv.MeanAmplitude = clean(fv.MeanAmplitude)
	fv.RMSAmplitude = clean(fv.RMSAmplitude)
	fv.ZeroCrossingRate = clean(fv.ZeroCrossingRate)
	fv.SignalEnergy = clean(fv.SignalEnergy)
	fv.SignalVariance = clean(fv.SignalVariance)
	fv.DominantFrequency = clean(fv.DominantFrequency)
	fv.SpectralCentroid = clean(fv.SpectralCentroid)
	fv.FrequencyPower = clean(fv.FrequencyPower)
	fv.Entropy = clean(fv.Entropy)
	fv.Mobility = clean(fv.Mobility)
	fv.Complexity = clean(fv.Complexity)

	return fv
}

// confidence estima a confiança da classificação: cresce com a entropia
// do sinal e com a concordância da frequência dominante com a banda
// parkinsoniana esperada (3-8 Hz). Limitada a 0.95.
func confidence(fv models.FeatureVector) float64 {
	c := 0.7 + fv.Entropy/20.0
	if fv.DominantFrequency >= parkinsonianBandLowHz && fv.DominantFrequency <= parkinsonianBandHighHz {
		c += 0.05
	}
	return utils.Clamp(c, 0, maxConfidence)
}

// ========== ESTRATÉGIA POR REGRAS (perfil embarcado) ==========

// RuleConfig pontos de corte da classificação por regras.
// Parâmetros de implantação, ajustáveis por instalação.
type RuleConfig struct {
	MildHz     float64 // frequência mínima para mild
	ModerateHz float64 // frequência mínima para moderate
	SevereHz   float64 // frequência mínima para severe
	UpperHz    float64 // acima disso é ruído, volta para normal
	MinRMS     float64 // porta de amplitude: abaixo disso, normal
}

// DefaultRuleConfig cortes padrão derivados das faixas de severidade
// observadas nos dados de calibração clínica
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		MildHz:     3.0,
		ModerateHz: 4.0,
		SevereHz:   6.0,
		UpperHz:    12.0,
		MinRMS:     5.0,
	}
}

// RuleBased classificador por limiares clínicos, para implantação de
// baixo recurso. Frequência dominante é o critério primário; amplitude
// RMS é porta secundária.
type RuleBased struct {
	config RuleConfig
}

// NewRuleBased cria classificador por regras com os cortes dados
func NewRuleBased(config RuleConfig) *RuleBased {
	return &RuleBased{config: config}
}

func (rb *RuleBased) Name() string { return "rule_based" }

// Classify aplica os limiares ascendentes de frequência.
// Frequências acima do envelope esperado são tratadas como ruído
// (normal), não como erro.
func (rb *RuleBased) Classify(features models.FeatureVector) models.ClassificationResult {
	fv := sanitize(features)

	result := models.ClassificationResult{
		Pattern:       models.SeverityNormal,
		Confidence:    confidence(fv),
		SeverityIndex: SeverityIndex(fv.RMSAmplitude, fv.DominantFrequency),
	}

	freq := fv.DominantFrequency
	if freq < rb.config.MildHz || freq > rb.config.UpperHz {
		return result
	}
	if fv.RMSAmplitude < rb.config.MinRMS {
		return result
	}

	switch {
	case freq >= rb.config.SevereHz:
		result.Pattern = models.SeveritySevere
	case freq >= rb.config.ModerateHz:
		result.Pattern = models.SeverityModerate
	default:
		result.Pattern = models.SeverityMild
	}

	return result
}

// ========== ESTRATÉGIA POR PONTUAÇÃO PONDERADA (perfil servidor) ==========

// Pontos de corte do score escalar em quatro faixas
const (
	scoreSevere   = 0.7
	scoreModerate = 0.4
	scoreMild     = 0.1
)

// Escalas fixas por característica. Não são ajuste estatístico, apenas
// achatam as diferenças de ordem de grandeza entre as características.
var featureScales = [10]float64{
	50.0,    // meanAmplitude
	50.0,    // rmsAmplitude
	10.0,    // dominantFrequency
	10000.0, // frequencyPower
	10.0,    // spectralCentroid
	1.0,     // zeroCrossingRate
	2500.0,  // signalEnergy
	50.0,    // entropy
	1.0,     // indicador de banda de tremor
	1.0,     // indicador de amplitude alta
}

// WeightedScore classificador por soma ponderada linear, para implantação
// hospedada. A forma é a do modelo "neural" do firmware (bias + Σ w·f);
// pesos recalibrados para as escalas acima.
type WeightedScore struct {
	weights [10]float64
	bias    float64
}

// NewWeightedScore cria classificador com o vetor de pesos padrão
func NewWeightedScore() *WeightedScore {
	return &WeightedScore{
		weights: [10]float64{0.10, 0.35, 0.20, 0.10, 0.05, -0.20, 0.10, 0.05, 0.15, 0.10},
		bias:    -0.05,
	}
}

func (ws *WeightedScore) Name() string { return "weighted_score" }

// Classify normaliza o vetor, pontua e converte o escalar em classe.
// Monotônico na frequência dominante dentro do envelope de tremor:
// aumentar a frequência nunca reduz a classe antes da zona de ruído.
func (ws *WeightedScore) Classify(features models.FeatureVector) models.ClassificationResult {
	fv := sanitize(features)

	score := ws.Score(fv)

	result := models.ClassificationResult{
		Confidence:    confidence(fv),
		SeverityIndex: SeverityIndex(fv.RMSAmplitude, fv.DominantFrequency),
	}

	switch {
	case score > scoreSevere:
		result.Pattern = models.SeveritySevere
	case score > scoreModerate:
		result.Pattern = models.SeverityModerate
	case score > scoreMild:
		result.Pattern = models.SeverityMild
	default:
		result.Pattern = models.SeverityNormal
	}

	return result
}

// Score calcula o escalar de severidade antes da discretização
func (ws *WeightedScore) Score(fv models.FeatureVector) float64 {
	bandIndicator := 0.0
	if fv.DominantFrequency >= tremorBandLowHz && fv.DominantFrequency <= tremorBandHighHz {
		bandIndicator = 1.0
	}
	highAmplitude := 0.0
	if fv.RMSAmplitude > 10 {
		highAmplitude = 1.0
	}

	raw := [10]float64{
		fv.MeanAmplitude,
		fv.RMSAmplitude,
		fv.DominantFrequency,
		fv.FrequencyPower,
		fv.SpectralCentroid,
		fv.ZeroCrossingRate,
		fv.SignalEnergy,
		fv.Entropy,
		bandIndicator,
		highAmplitude,
	}

	score := ws.bias
	for i, value := range raw {
		score += ws.weights[i] * value / featureScales[i]
	}

	return score
}
