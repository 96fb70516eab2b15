package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/pkg/models"
)

func testLoggerConfig(t *testing.T) LogConfig {
	return LogConfig{
		BasePath:         t.TempDir(),
		MaxFileSize:      1024 * 1024,
		RetentionDays:    7,
		RotationInterval: 24 * time.Hour,
		EnableDebug:      true,
		CleanupInterval:  time.Hour,
		ConsoleOutput:    false,
		ThrottleInterval: 50 * time.Millisecond,
	}
}

func readCategory(t *testing.T, basePath, category string) string {
	dir := filepath.Join(basePath, category)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	content, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	return string(content)
}

func TestSystemLoggerWritesDomainEvents(t *testing.T) {
	cfg := testLoggerConfig(t)
	sl := NewSystemLoggerWithConfig(cfg)
	defer sl.Close()

	sl.LogSystemStarted()
	sl.LogSensorDisconnected("emg_1", 3, fmt.Errorf("porta fechada"))
	sl.LogSensorReconnected("emg_1", 2*time.Second)
	sl.LogWindowQuality("emg_1", models.QualityMetrics{
		SignalToNoiseRatioDb: 3.2,
		DataQuality:          models.QualityPoor,
		SaturationPercent:    88.0,
	})
	sl.LogSeverityChange("emg_1", models.SeverityNormal, models.SeverityModerate, 45.0)

	system := readCategory(t, cfg.BasePath, "system")
	assert.Contains(t, system, "SYSTEM_STARTED")
	assert.Contains(t, system, "SENSOR_RECONNECTED: device=emg_1")
	assert.Contains(t, system, "SEVERITY_CHANGE: device=emg_1 normal->moderate")

	errors := readCategory(t, cfg.BasePath, "errors")
	assert.Contains(t, errors, "SENSOR_DISCONNECTED: device=emg_1 attempts=3")

	warnings := readCategory(t, cfg.BasePath, "warnings")
	assert.Contains(t, warnings, "WINDOW_QUALITY: device=emg_1 snr=3.2dB quality=poor")
}

func TestSystemLoggerThrottlesRepeatedErrors(t *testing.T) {
	cfg := testLoggerConfig(t)
	cfg.ThrottleInterval = time.Hour
	sl := NewSystemLoggerWithConfig(cfg)
	defer sl.Close()

	err := fmt.Errorf("broker indisponível")
	for i := 0; i < 50; i++ {
		sl.LogCriticalError("nats", "publish", err)
	}

	content := readCategory(t, cfg.BasePath, "errors")
	// Uma ocorrência gravada, o resto agrupado pelo throttle
	assert.Equal(t, 1, strings.Count(content, "CRITICAL_ERROR"))
}

func TestSystemLoggerNilErrorIsIgnored(t *testing.T) {
	cfg := testLoggerConfig(t)
	sl := NewSystemLoggerWithConfig(cfg)
	defer sl.Close()

	sl.LogCriticalError("x", "y", nil)

	content := readCategory(t, cfg.BasePath, "errors")
	assert.NotContains(t, content, "CRITICAL_ERROR")
}

func TestSystemLoggerForceRotation(t *testing.T) {
	cfg := testLoggerConfig(t)
	sl := NewSystemLoggerWithConfig(cfg)
	defer sl.Close()

	require.NoError(t, sl.ForceRotation())

	stats := sl.GetLogStats()
	assert.Contains(t, stats, "last_rotation")
}
