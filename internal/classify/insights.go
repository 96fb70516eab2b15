package classify

import "backend/pkg/models"

// insightTemplate conjunto fixo de mensagens por classe de severidade
type insightTemplate struct {
	recommendations [3]string
	progression     string
}

// Tabela de mensagens clínicas por classe, idêntica em conteúdo à do
// firmware embarcado. Geração de insight é lookup puro: nenhum
// cálculo além de anexar a confiança do classificador.
var insightTable = map[models.SeverityClass]insightTemplate{
	models.SeveritySevere: {
		recommendations: [3]string{
			"Contact healthcare provider immediately",
			"Monitor for medication effectiveness",
			"Consider DBS evaluation if persistent",
		},
		progression: "Rapid progression likely - immediate intervention recommended",
	},
	models.SeverityModerate: {
		recommendations: [3]string{
			"Continue current medication regimen",
			"Monitor for pattern changes",
			"Consider physical therapy",
		},
		progression: "Stable with potential slow progression",
	},
	models.SeverityMild: {
		recommendations: [3]string{
			"Regular monitoring recommended",
			"Maintain healthy lifestyle",
			"Watch for progression indicators",
		},
		progression: "Early stage - monitor closely",
	},
	models.SeverityNormal: {
		recommendations: [3]string{
			"Continue normal activities",
			"Regular check-ups recommended",
			"No immediate concerns",
		},
		progression: "Normal variation - no progression detected",
	},
}

// GenerateInsight monta o insight a partir do resultado da classificação
func GenerateInsight(result models.ClassificationResult) models.Insight {
	template, ok := insightTable[result.Pattern]
	if !ok {
		template = insightTable[models.SeverityNormal]
	}

	return models.Insight{
		Pattern:              result.Pattern,
		Confidence:           result.Confidence,
		Recommendations:      template.recommendations[:],
		PredictedProgression: template.progression,
	}
}
