package dsp

import (
	"math"

	"backend/pkg/models"
	"backend/pkg/utils"
)

// Limiar de SNR por faixa de qualidade, em dB
const (
	snrExcellentDb = 20.0
	snrGoodDb      = 10.0
	snrFairDb      = 5.0

	// Teto reportado quando o resíduo é numericamente zero
	snrCeilingDb = 60.0
)

// AssessQuality compara o sinal bruto com o filtrado dentro de uma janela
// e produz as métricas de qualidade do registro final. O ruído é o resíduo
// quadrático médio entre bruto e filtrado; a saturação usa o fundo de
// escala conhecido do ADC.
func AssessQuality(raw, filtered []float64, fullScale float64) models.QualityMetrics {
	metrics := models.QualityMetrics{DataQuality: models.QualityPoor}

	n := len(raw)
	if n == 0 || n != len(filtered) || fullScale <= 0 {
		return metrics
	}

	var filteredPower, noisePower, maxAbsRaw float64
	for i := 0; i < n; i++ {
		filteredPower += filtered[i] * filtered[i]
		residual := raw[i] - filtered[i]
		noisePower += residual * residual

		if abs := math.Abs(raw[i]); abs > maxAbsRaw {
			maxAbsRaw = abs
		}
	}
	filteredPower /= float64(n)
	noisePower /= float64(n)

	switch {
	case filteredPower <= 0:
		metrics.SignalToNoiseRatioDb = 0
	case noisePower <= 0:
		metrics.SignalToNoiseRatioDb = snrCeilingDb
	default:
		metrics.SignalToNoiseRatioDb = 10 * math.Log10(filteredPower/noisePower)
	}

	metrics.DataQuality = bucketQuality(metrics.SignalToNoiseRatioDb)
	metrics.SaturationPercent = utils.Clamp(maxAbsRaw/fullScale*100, 0, 100)

	return metrics
}

// bucketQuality converte SNR em faixa discreta de qualidade
func bucketQuality(snrDb float64) models.DataQuality {
	switch {
	case snrDb > snrExcellentDb:
		return models.QualityExcellent
	case snrDb > snrGoodDb:
		return models.QualityGood
	case snrDb > snrFairDb:
		return models.QualityFair
	default:
		return models.QualityPoor
	}
}
