package device

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticEMGDeterministicWithSameSeed(t *testing.T) {
	cfg := DefaultSynthConfig()

	a := NewSyntheticEMG(cfg)
	b := NewSyntheticEMG(cfg)

	for i := 0; i < 500; i++ {
		require.Equal(t, a.Next(), b.Next(), "divergiu na amostra %d", i)
	}
}

func TestSyntheticEMGSamplesAreFinite(t *testing.T) {
	g := NewSyntheticEMG(DefaultSynthConfig())

	for i := 0; i < 2000; i++ {
		sample := g.Next()
		require.False(t, math.IsNaN(sample))
		require.False(t, math.IsInf(sample, 0))
	}
}

func TestSyntheticEMGAmplitudeEnvelope(t *testing.T) {
	cfg := DefaultSynthConfig()
	g := NewSyntheticEMG(cfg)

	// Fundamental + harmônicos + deriva + ruído: o pico fica bem abaixo
	// de 2x a amplitude configurada
	var maxAbs float64
	for i := 0; i < 2000; i++ {
		if abs := math.Abs(g.Next()); abs > maxAbs {
			maxAbs = abs
		}
	}

	assert.Greater(t, maxAbs, cfg.Amplitude*0.5)
	assert.Less(t, maxAbs, cfg.Amplitude*2.0)
}

func TestSyntheticEMGStreamStopsOnCancel(t *testing.T) {
	cfg := DefaultSynthConfig()
	cfg.SampleRate = 1000
	g := NewSyntheticEMG(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	received := 0
	err := g.Stream(ctx, func(raw, filtered float64) {
		received++
		assert.Equal(t, raw, filtered)
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, received, 0)
}
