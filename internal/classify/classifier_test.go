package classify

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/pkg/models"
)

func TestSeverityIndexScaleAndClamp(t *testing.T) {
	assert.Equal(t, 0.0, SeverityIndex(0, 0))
	assert.InDelta(t, 62.0, SeverityIndex(5, 6), 1e-9) // 5*10 + 6*2
	assert.Equal(t, 100.0, SeverityIndex(20, 10))      // 220 limitado a 100
	assert.Equal(t, 0.0, SeverityIndex(-5, 0))
}

func TestConfidenceNeverExceedsCap(t *testing.T) {
	fv := models.FeatureVector{Entropy: 1000, DominantFrequency: 5}
	assert.LessOrEqual(t, confidence(fv), maxConfidence)

	// Sem entropia nem banda: piso de 0.7
	assert.InDelta(t, 0.7, confidence(models.FeatureVector{}), 1e-9)

	// Frequência na banda parkinsoniana soma 0.05
	inBand := models.FeatureVector{DominantFrequency: 5}
	assert.InDelta(t, 0.75, confidence(inBand), 1e-9)
}

func TestRuleBasedThresholds(t *testing.T) {
	rb := NewRuleBased(DefaultRuleConfig())

	cases := []struct {
		name string
		freq float64
		rms  float64
		want models.SeverityClass
	}{
		{"sem tremor", 0, 20, models.SeverityNormal},
		{"abaixo da banda", 2.0, 20, models.SeverityNormal},
		{"mild", 3.5, 20, models.SeverityMild},
		{"moderate", 4.5, 20, models.SeverityModerate},
		{"severe", 6.5, 20, models.SeveritySevere},
		{"limite superior", 11.9, 20, models.SeveritySevere},
		{"acima da banda é ruído", 13.0, 20, models.SeverityNormal},
		{"amplitude insuficiente", 6.5, 2, models.SeverityNormal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := rb.Classify(models.FeatureVector{
				DominantFrequency: tc.freq,
				RMSAmplitude:      tc.rms,
			})
			assert.Equal(t, tc.want, result.Pattern)
		})
	}
}

func TestWeightedScoreZeroVectorIsNormal(t *testing.T) {
	ws := NewWeightedScore()

	result := ws.Classify(models.FeatureVector{})
	assert.Equal(t, models.SeverityNormal, result.Pattern)
	assert.Equal(t, 0.0, result.SeverityIndex)
}

func TestWeightedScoreStrongTremorIsSevere(t *testing.T) {
	ws := NewWeightedScore()

	// Vetor representativo de senoide de 6 Hz com amplitude 40
	fv := models.FeatureVector{
		MeanAmplitude:     25.5,
		RMSAmplitude:      28.3,
		ZeroCrossingRate:  0.06,
		SignalEnergy:      800,
		SignalVariance:    400,
		DominantFrequency: 6.25,
		SpectralCentroid:  6.3,
		FrequencyPower:    11000,
		Entropy:           0,
	}

	result := ws.Classify(fv)
	assert.Equal(t, models.SeveritySevere, result.Pattern)
	assert.Equal(t, 100.0, result.SeverityIndex)
}

func TestWeightedScoreMonotonicInFrequency(t *testing.T) {
	ws := NewWeightedScore()

	// Dentro do envelope de tremor, mais frequência nunca reduz a classe
	base := models.FeatureVector{
		MeanAmplitude:  12,
		RMSAmplitude:   15,
		SignalEnergy:   225,
		FrequencyPower: 3000,
	}

	lastOrdinal := -1
	lastScore := math.Inf(-1)
	for freq := 0.0; freq <= 12.0; freq += 0.5 {
		fv := base
		fv.DominantFrequency = freq
		fv.SpectralCentroid = freq

		score := ws.Score(fv)
		result := ws.Classify(fv)

		require.GreaterOrEqual(t, score, lastScore, "score regrediu em %.1f Hz", freq)
		require.GreaterOrEqual(t, result.Pattern.Ordinal(), lastOrdinal, "classe regrediu em %.1f Hz", freq)

		lastScore = score
		lastOrdinal = result.Pattern.Ordinal()
	}
}

func TestClassifySanitizesCorruptVector(t *testing.T) {
	for _, strategy := range []Strategy{NewWeightedScore(), NewRuleBased(DefaultRuleConfig())} {
		fv := models.FeatureVector{
			RMSAmplitude:      math.NaN(),
			DominantFrequency: math.Inf(1),
			Entropy:           math.NaN(),
		}

		result := strategy.Classify(fv)

		assert.False(t, math.IsNaN(result.SeverityIndex), strategy.Name())
		assert.False(t, math.IsNaN(result.Confidence), strategy.Name())
		assert.Equal(t, models.SeverityNormal, result.Pattern, strategy.Name())
	}
}

func TestPreclassifiedResultKeepsFixedConfidence(t *testing.T) {
	result := PreclassifiedResult(models.SeverityModerate, 47.5)

	assert.Equal(t, models.SeverityModerate, result.Pattern)
	assert.Equal(t, PreclassifiedConfidence, result.Confidence)
	assert.Equal(t, 47.5, result.SeverityIndex)

	// Índice fora da escala é limitado, nunca propagado
	assert.Equal(t, 100.0, PreclassifiedResult(models.SeveritySevere, 240).SeverityIndex)
	assert.Equal(t, 0.0, PreclassifiedResult(models.SeverityNormal, -3).SeverityIndex)

	// O registro repassado ainda gera insight normalmente
	insight := GenerateInsight(result)
	assert.Len(t, insight.Recommendations, 3)
}

func TestStrategyNames(t *testing.T) {
	assert.Equal(t, "weighted_score", NewWeightedScore().Name())
	assert.Equal(t, "rule_based", NewRuleBased(DefaultRuleConfig()).Name())
}
