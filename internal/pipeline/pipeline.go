package pipeline

import (
	"fmt"
	"time"

	"backend/internal/classify"
	"backend/internal/dsp"
	"backend/pkg/models"
	"backend/pkg/utils"
)

// Intervalo padrão entre previews de janela parcial
const DefaultPreviewInterval = 2 * time.Second

// Fator aplicado à confiança de registros de preview (janela incompleta)
const previewConfidenceFactor = 0.5

// Tolerância de irregularidade: intervalo entre amostras acima de
// 1.5x o nominal invalida a calibração de frequência da janela
const irregularityFactor = 1.5

// Config configuração de um pipeline por fonte lógica
type Config struct {
	DeviceID        string
	SampleRate      int           // Hz
	WindowSize      int           // amostras por janela de análise
	FullScale       float64       // fundo de escala do ADC da fonte
	PreviewInterval time.Duration // flush periódico de janela parcial
}

// DefaultConfig configuração do sensor embarcado (200 Hz, W=256, 12 bits)
func DefaultConfig(deviceID string) Config {
	return Config{
		DeviceID:        deviceID,
		SampleRate:      200,
		WindowSize:      dsp.DefaultWindowSize,
		FullScale:       utils.ADCFullScale,
		PreviewInterval: DefaultPreviewInterval,
	}
}

// Pipeline pipeline completo de uma fonte: filtro -> janela -> análise
// espectral + extração de características -> classificação -> registro.
// Estritamente unidirecional e síncrono; todo o estado (filtro, buffers,
// suavização) pertence à fonte e nunca é compartilhado.
type Pipeline struct {
	config     Config
	filter     *dsp.BandpassFilter
	rawBuffer  *dsp.WindowBuffer // sinal bruto, para métricas de qualidade
	window     *dsp.WindowBuffer // sinal filtrado, para análise
	analyzer   *dsp.SpectralAnalyzer
	smoother   *dsp.Smoother
	classifier classify.Strategy

	// Relógio injetável: testes controlam a cadência de amostragem
	now func() time.Time

	lastSampleAt   time.Time
	lastEmitAt     time.Time
	irregularFlag  bool
	windowsEmitted int64
}

// New cria pipeline para uma fonte. Erros aqui são de configuração
// (taxa ou janela inválidas) e falham na construção, nunca por amostra.
func New(config Config, classifier classify.Strategy) (*Pipeline, error) {
	if config.DeviceID == "" {
		return nil, fmt.Errorf("deviceID vazio")
	}
	if classifier == nil {
		return nil, fmt.Errorf("classificador não informado")
	}
	if config.WindowSize <= 0 {
		config.WindowSize = dsp.DefaultWindowSize
	}
	if config.FullScale <= 0 {
		config.FullScale = utils.ADCFullScale
	}
	if config.PreviewInterval <= 0 {
		config.PreviewInterval = DefaultPreviewInterval
	}

	analyzer, err := dsp.NewSpectralAnalyzer(config.SampleRate)
	if err != nil {
		return nil, err
	}

	window, err := dsp.NewWindowBuffer(config.WindowSize)
	if err != nil {
		return nil, err
	}
	rawBuffer, err := dsp.NewWindowBuffer(config.WindowSize)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		config:     config,
		filter:     dsp.NewBandpassFilter(),
		rawBuffer:  rawBuffer,
		window:     window,
		analyzer:   analyzer,
		smoother:   dsp.NewSmoother(),
		classifier: classifier,
		now:        time.Now,
	}, nil
}

// DeviceID retorna o identificador da fonte
func (p *Pipeline) DeviceID() string {
	return p.config.DeviceID
}

// Ingest admite uma amostra bruta. Quando a janela completa, executa o
// ciclo de análise e retorna o registro; caso contrário retorna (nil,
// false). Caminho quente: nenhum I/O, nenhuma transmissão.
func (p *Pipeline) Ingest(raw float64) (*models.TremorRecord, bool) {
	now := p.now()
	p.trackSamplingRegularity(now)

	raw = utils.SanitizeSample(raw)
	filtered := p.filter.Filter(raw)

	// Buffers bruto e filtrado andam em passo: completam juntos
	rawWindow, _ := p.rawBuffer.Push(raw)
	window, full := p.window.Push(filtered)
	if !full {
		return nil, false
	}

	record := p.analyzeWindow(window.Samples(), rawWindow.Samples(), now, false)
	p.windowsEmitted++
	p.lastEmitAt = now
	p.irregularFlag = false

	return record, true
}

// MaybePreview emite um registro de baixa confiança a partir da janela
// parcial quando o intervalo de flush expirou sem janela completa.
// Não toca o estado de suavização: só janelas completas o atualizam.
func (p *Pipeline) MaybePreview(now time.Time) (*models.TremorRecord, bool) {
	if now.Sub(p.lastEmitAt) < p.config.PreviewInterval {
		return nil, false
	}
	partial := p.window.PeekPartial()
	if len(partial) == 0 {
		return nil, false
	}

	rawPartial := p.rawBuffer.PeekPartial()
	record := p.analyzeWindow(partial, rawPartial, now, true)
	p.lastEmitAt = now

	return record, true
}

// analyzeWindow executa análise espectral, extração de características,
// classificação e montagem do registro final para uma janela
func (p *Pipeline) analyzeWindow(filtered, raw []float64, now time.Time, preview bool) *models.TremorRecord {
	spectral := p.analyzer.Analyze(filtered)
	features := dsp.ExtractFeatures(filtered, spectral)

	if !preview {
		features = p.smoother.Apply(features)
	}

	result := p.classifier.Classify(features)
	if preview {
		result.Confidence *= previewConfidenceFactor
	}

	insight := classify.GenerateInsight(result)
	quality := dsp.AssessQuality(raw, filtered, p.config.FullScale)

	featuresCopy := features
	qualityCopy := quality

	return &models.TremorRecord{
		DeviceID:        p.config.DeviceID,
		WindowTimestamp: now.UnixMilli(),
		Frequency:       features.DominantFrequency,
		Amplitude:       features.RMSAmplitude,
		SeverityIndex:   result.SeverityIndex,
		Classification: models.Classification{
			Pattern:    result.Pattern,
			Confidence: result.Confidence,
		},
		Recommendations:      insight.Recommendations,
		PredictedProgression: insight.PredictedProgression,
		QualityMetrics:       &qualityCopy,
		Features:             &featuresCopy,
		Preview:              preview,
		IrregularSampling:    p.irregularFlag,
	}
}

// trackSamplingRegularity marca a janela corrente quando o intervalo
// entre amostras foge da tolerância. Amostragem irregular invalida a
// calibração de frequência e é sinalizada como questão de qualidade,
// nunca processada silenciosamente.
func (p *Pipeline) trackSamplingRegularity(now time.Time) {
	if !p.lastSampleAt.IsZero() && p.config.SampleRate > 0 {
		nominal := time.Second / time.Duration(p.config.SampleRate)
		if now.Sub(p.lastSampleAt) > time.Duration(irregularityFactor*float64(nominal)) {
			p.irregularFlag = true
		}
	}
	p.lastSampleAt = now
}

// Reset reinicia a sessão de amostragem: zera filtro, buffers e estado
// de suavização
func (p *Pipeline) Reset() {
	p.filter.Reset()
	p.window.Reset()
	p.rawBuffer.Reset()
	p.smoother.Reset()
	p.lastSampleAt = time.Time{}
	p.irregularFlag = false
}

// WindowsEmitted retorna quantas janelas completas já foram analisadas
func (p *Pipeline) WindowsEmitted() int64 {
	return p.windowsEmitted
}

// SmootherState retorna snapshot do estado de suavização da fonte
func (p *Pipeline) SmootherState() models.SmootherState {
	return p.smoother.State()
}
