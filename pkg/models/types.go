package models

import "time"

// SeverityClass classe clínica discreta do tremor
type SeverityClass string

const (
	SeverityNormal   SeverityClass = "normal"
	SeverityMild     SeverityClass = "mild"
	SeverityModerate SeverityClass = "moderate"
	SeveritySevere   SeverityClass = "severe"
)

// Ordinal retorna a posição da classe na escala clínica (0=normal .. 3=severe)
func (s SeverityClass) Ordinal() int {
	switch s {
	case SeverityMild:
		return 1
	case SeverityModerate:
		return 2
	case SeveritySevere:
		return 3
	default:
		return 0
	}
}

// DataQuality qualidade do sinal estimada por SNR
type DataQuality string

const (
	QualityExcellent DataQuality = "excellent"
	QualityGood      DataQuality = "good"
	QualityFair      DataQuality = "fair"
	QualityPoor      DataQuality = "poor"
)

// FeatureVector vetor de características extraído de uma janela completa
type FeatureVector struct {
	MeanAmplitude     float64 `json:"meanAmplitude"`
	RMSAmplitude      float64 `json:"rmsAmplitude"`
	ZeroCrossingRate  float64 `json:"zeroCrossingRate"`
	SignalEnergy      float64 `json:"signalEnergy"`
	SignalVariance    float64 `json:"signalVariance"`
	DominantFrequency float64 `json:"dominantFrequency"`
	SpectralCentroid  float64 `json:"spectralCentroid"`
	FrequencyPower    float64 `json:"frequencyPower"`
	Entropy           float64 `json:"entropy"`
	// Parâmetros de Hjorth (complexidade do sinal)
	Mobility   float64 `json:"mobility"`
	Complexity float64 `json:"complexity"`
}

// ClassificationResult resultado da classificação de severidade
type ClassificationResult struct {
	Pattern       SeverityClass `json:"pattern"`
	Confidence    float64       `json:"confidence"`
	SeverityIndex float64       `json:"severityIndex"`
}

// Insight recomendações e narrativa de progressão derivadas da classificação
type Insight struct {
	Pattern              SeverityClass `json:"pattern"`
	Confidence           float64       `json:"confidence"`
	Recommendations      []string      `json:"recommendations"`
	PredictedProgression string        `json:"predictedProgression"`
}

// QualityMetrics métricas de qualidade do sinal bruto vs filtrado
type QualityMetrics struct {
	SignalToNoiseRatioDb float64     `json:"signalToNoiseRatioDb"`
	DataQuality          DataQuality `json:"dataQuality"`
	SaturationPercent    float64     `json:"saturationPercent"`
}

// TremorRecord registro estruturado final entregue aos consumidores
// externos. A fonte é publicada como "sourceId", o nome do contrato
// consumido pelo dashboard e pelos assinantes NATS.
type TremorRecord struct {
	DeviceID             string          `json:"sourceId"`
	WindowTimestamp      int64           `json:"windowTimestamp"` // epoch ms do último sample da janela
	Frequency            float64         `json:"frequency"`       // Hz, = dominantFrequency
	Amplitude            float64         `json:"amplitude"`       // = rmsAmplitude suavizado
	SeverityIndex        float64         `json:"severityIndex"`   // [0,100]
	Classification       Classification  `json:"classification"`
	Recommendations      []string        `json:"recommendations"`
	PredictedProgression string          `json:"predictedProgression"`
	QualityMetrics       *QualityMetrics `json:"qualityMetrics,omitempty"`
	Features             *FeatureVector  `json:"features,omitempty"`
	Preview              bool            `json:"preview,omitempty"`           // janela parcial de baixa confiança
	IrregularSampling    bool            `json:"irregularSampling,omitempty"` // intervalo de amostragem fora da tolerância
}

// Classification par classe/confiança publicado no registro
type Classification struct {
	Pattern    SeverityClass `json:"pattern"`
	Confidence float64       `json:"confidence"`
}

// DeviceData estrutura enviada via WebSocket para o dashboard
type DeviceData struct {
	DeviceID  string        `json:"deviceId"`
	Name      string        `json:"name"`
	Connected bool          `json:"connected"`
	Record    *TremorRecord `json:"record,omitempty"`
	Timestamp int64         `json:"timestamp"`
}

// MultiDeviceData dados de todos os dispositivos monitorados
type MultiDeviceData struct {
	Devices   []DeviceData `json:"devices"`
	Timestamp int64        `json:"timestamp"`
}

// SmootherState snapshot do estado de suavização por fonte (inspeção/debug)
type SmootherState struct {
	MeanAmplitude float64
	RMSAmplitude  float64
	Windows       int
	LastUpdate    time.Time
}
