package utils

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineValid(t *testing.T) {
	sp := NewSampleParser(false, nil)

	raw, filtered, err := sp.ParseLine("2048.5,12.25")
	require.NoError(t, err)
	assert.Equal(t, 2048.5, raw)
	assert.Equal(t, 12.25, filtered)
}

func TestParseLineTrimsWhitespace(t *testing.T) {
	sp := NewSampleParser(false, nil)

	raw, filtered, err := sp.ParseLine("  100 , -42.0 \r\n")
	require.NoError(t, err)
	assert.Equal(t, 100.0, raw)
	assert.Equal(t, -42.0, filtered)
}

func TestParseLineMalformed(t *testing.T) {
	sp := NewSampleParser(false, nil)

	cases := []string{
		"",
		"   ",
		"100",
		"abc,def",
		"100,xyz",
	}

	for _, line := range cases {
		_, _, err := sp.ParseLine(line)
		assert.Error(t, err, "linha %q deveria falhar", line)

		var parseErr *ParseError
		assert.True(t, errors.As(err, &parseErr), "linha %q: erro deveria ser ParseError", line)
	}
}

func TestParseLineExtraFieldsIgnored(t *testing.T) {
	sp := NewSampleParser(false, nil)

	// Firmware antigo anexava campos de debug: os dois primeiros valem
	raw, filtered, err := sp.ParseLine("10,20,999")
	require.NoError(t, err)
	assert.Equal(t, 10.0, raw)
	assert.Equal(t, 20.0, filtered)
}

func TestSanitizeSample(t *testing.T) {
	assert.Equal(t, 0.0, SanitizeSample(math.NaN()))
	assert.Equal(t, 0.0, SanitizeSample(math.Inf(1)))
	assert.Equal(t, 0.0, SanitizeSample(math.Inf(-1)))
	assert.Equal(t, ADCFullScale, SanitizeSample(99999))
	assert.Equal(t, -ADCFullScale, SanitizeSample(-99999))
	assert.Equal(t, 123.4, SanitizeSample(123.4))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 5.0, Clamp(5, 0, 10))
	assert.Equal(t, 0.0, Clamp(-3, 0, 10))
	assert.Equal(t, 10.0, Clamp(42, 0, 10))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "5s", FormatDuration(5*time.Second))
	assert.Equal(t, "2m 10s", FormatDuration(130*time.Second))
	assert.Equal(t, "1h 1m 5s", FormatDuration(time.Hour+65*time.Second))
}
