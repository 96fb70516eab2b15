package utils

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
)

// Constantes do conversor A/D e do stream serial
const (
	// Fundo de escala do ADC de 12 bits do dispositivo de amostragem
	ADCFullScale = 4095.0

	// Separador das linhas "raw,filtered" enviadas pela serial
	SampleSeparator = ","
)

// ParseError representa erro de conversão de uma linha do stream serial
type ParseError struct {
	Input     string
	Operation string
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("erro na conversão %s com entrada '%s': %v",
		e.Operation, e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SampleParser converte linhas do stream serial em amostras numéricas
type SampleParser struct {
	logger    *slog.Logger
	debugMode bool
}

// NewSampleParser cria novo parser com configurações
func NewSampleParser(debugMode bool, logger *slog.Logger) *SampleParser {
	if logger == nil {
		logger = slog.Default()
	}

	return &SampleParser{
		logger:    logger.With("component", "sample_parser"),
		debugMode: debugMode,
	}
}

// ParseLine converte uma linha "raw,filtered" em um par de amostras.
// A linha pode conter espaços e terminadores de linha residuais.
func (sp *SampleParser) ParseLine(line string) (raw, filtered float64, err error) {
	clean := strings.TrimSpace(line)
	if clean == "" {
		return 0, 0, &ParseError{line, "ParseLine", fmt.Errorf("linha vazia")}
	}

	parts := strings.Split(clean, SampleSeparator)
	if len(parts) < 2 {
		return 0, 0, &ParseError{line, "ParseLine", fmt.Errorf("esperados 2 campos, recebidos %d", len(parts))}
	}

	raw, err = sp.parseField(parts[0], "raw")
	if err != nil {
		return 0, 0, err
	}

	filtered, err = sp.parseField(parts[1], "filtered")
	if err != nil {
		return 0, 0, err
	}

	if sp.debugMode {
		sp.logger.Debug("Amostra convertida",
			"line", clean,
			"raw", raw,
			"filtered", filtered,
		)
	}

	return raw, filtered, nil
}

// parseField converte um campo individual para float64
func (sp *SampleParser) parseField(field, name string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		if sp.debugMode {
			sp.logger.Error("Conversão de campo falhou",
				"field", name, "input", field, "error", err)
		}
		return 0, &ParseError{field, "parseField:" + name, err}
	}
	return value, nil
}

// SanitizeSample limita uma amostra bruta à faixa física do ADC.
// NaN/Inf viram zero (glitch de ADC) e valores além do fundo de escala
// físico são limitados para nunca interromper o loop de amostragem.
func SanitizeSample(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	if value > ADCFullScale {
		return ADCFullScale
	}
	if value < -ADCFullScale {
		return -ADCFullScale
	}
	return value
}

// Clamp limita value ao intervalo [min, max]
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// FormatDuration formata duração no estilo "1h 2m 3s" para exibição
func FormatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
