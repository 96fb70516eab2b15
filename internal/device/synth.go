package device

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// SynthConfig parâmetros do gerador sintético de EMG
type SynthConfig struct {
	SampleRate      int
	TremorFrequency float64 // Hz do tremor dominante
	Amplitude       float64 // amplitude do componente fundamental
	NoiseLevel      float64 // desvio padrão do ruído aditivo
	DriftAmplitude  float64 // deriva lenta de linha de base
	Seed            int64
}

// DefaultSynthConfig tremor parkinsoniano típico a 200 Hz
func DefaultSynthConfig() SynthConfig {
	return SynthConfig{
		SampleRate:      200,
		TremorFrequency: 5.0,
		Amplitude:       30.0,
		NoiseLevel:      2.0,
		DriftAmplitude:  8.0,
		Seed:            1,
	}
}

// SyntheticEMG gera um sinal EMG simulado para operar o sistema sem o
// hardware: fundamental do tremor, harmônicos atenuados, deriva lenta
// de linha de base e ruído gaussiano. Não é seguro para uso concorrente;
// cada fonte simulada usa seu próprio gerador.
type SyntheticEMG struct {
	config SynthConfig
	rng    *rand.Rand
	tick   int64
}

// NewSyntheticEMG cria um gerador com a configuração indicada
func NewSyntheticEMG(config SynthConfig) *SyntheticEMG {
	if config.SampleRate <= 0 {
		config.SampleRate = 200
	}
	return &SyntheticEMG{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Next gera a próxima amostra do sinal simulado
func (g *SyntheticEMG) Next() float64 {
	t := float64(g.tick) / float64(g.config.SampleRate)
	g.tick++

	w := 2 * math.Pi * g.config.TremorFrequency * t

	// Fundamental + segundo e terceiro harmônicos atenuados
	sample := g.config.Amplitude * math.Sin(w)
	sample += 0.3 * g.config.Amplitude * math.Sin(2*w)
	sample += 0.1 * g.config.Amplitude * math.Sin(3*w)

	// Deriva lenta de linha de base (0.1 Hz), fora da banda do filtro
	sample += g.config.DriftAmplitude * math.Sin(2*math.Pi*0.1*t)

	sample += g.config.NoiseLevel * g.rng.NormFloat64()

	return sample
}

// Stream emite amostras na taxa configurada até o contexto cancelar.
// Entrega ao handler o mesmo valor nos dois campos: o gerador não
// aplica filtragem, isso é papel do pipeline.
func (g *SyntheticEMG) Stream(ctx context.Context, handler SampleHandler) error {
	interval := time.Second / time.Duration(g.config.SampleRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			sample := g.Next()
			handler(sample, sample)
		}
	}
}
