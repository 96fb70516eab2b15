package logger

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"backend/pkg/models"
)

type LogLevel int

const (
	LOG_ERROR LogLevel = iota
	LOG_WARN
	LOG_INFO
	LOG_DEBUG
)

// Categorias de arquivo, uma por nível
var categories = map[LogLevel]string{
	LOG_ERROR: "errors",
	LOG_WARN:  "warnings",
	LOG_INFO:  "system",
	LOG_DEBUG: "debug",
}

var levelPrefix = map[LogLevel]string{
	LOG_ERROR: "[ERROR] ",
	LOG_WARN:  "[WARN]  ",
	LOG_INFO:  "[INFO]  ",
	LOG_DEBUG: "[DEBUG] ",
}

type LogConfig struct {
	BasePath         string        // Caminho base para logs
	MaxFileSize      int64         // Tamanho máximo por arquivo (bytes)
	RetentionDays    int           // Dias para manter logs
	RotationInterval time.Duration // Intervalo de rotação
	EnableDebug      bool          // Habilitar logs de debug
	CleanupInterval  time.Duration // Intervalo entre limpezas

	// Controle de saída no console (stdout). Default: false (silencioso).
	ConsoleOutput bool

	// Throttling de mensagens idênticas
	ThrottleInterval time.Duration
}

// SystemLogger logger de sistema com um arquivo por categoria, rotação
// diária/por tamanho, retenção com limpeza automática e throttling de
// mensagens repetidas
type SystemLogger struct {
	config LogConfig

	mu      sync.RWMutex
	files   map[LogLevel]*os.File
	loggers map[LogLevel]*log.Logger

	lastRotation   time.Time
	cleanupCancel  context.CancelFunc
	isShuttingDown bool

	// Throttling: mensagens idênticas dentro do intervalo são agrupadas
	throttleMu  sync.Mutex
	lastLog     map[string]time.Time
	repeatCount map[string]int
}

// NewSystemLogger cria um novo logger com configuração padrão
func NewSystemLogger() *SystemLogger {
	return NewSystemLoggerWithConfig(LogConfig{
		BasePath:         "backend/logs",
		MaxFileSize:      50 * 1024 * 1024, // 50MB
		RetentionDays:    7,
		RotationInterval: 24 * time.Hour,
		EnableDebug:      false,
		CleanupInterval:  1 * time.Hour,
		ConsoleOutput:    false,
		ThrottleInterval: 30 * time.Second,
	})
}

// NewSystemLoggerWithConfig cria um logger com configuração customizada
func NewSystemLoggerWithConfig(config LogConfig) *SystemLogger {
	sl := &SystemLogger{
		config:       config,
		files:        make(map[LogLevel]*os.File),
		loggers:      make(map[LogLevel]*log.Logger),
		lastRotation: time.Now(),
		lastLog:      make(map[string]time.Time),
		repeatCount:  make(map[string]int),
	}

	if err := sl.openLogFiles(); err != nil {
		log.Fatalf("Erro ao inicializar arquivos de log: %v", err)
	}

	sl.startCleanupRoutine()

	return sl
}

// openLogFiles cria diretórios e abre o arquivo do dia de cada categoria
func (sl *SystemLogger) openLogFiles() error {
	dateStr := time.Now().Format("2006-01-02")

	for level, category := range categories {
		if level == LOG_DEBUG && !sl.config.EnableDebug {
			// Debug desabilitado vai para stdout
			sl.loggers[level] = log.New(os.Stdout, levelPrefix[level], log.LstdFlags)
			continue
		}

		dir := filepath.Join(sl.config.BasePath, category)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("erro ao criar diretório %s: %v", dir, err)
		}

		path := filepath.Join(dir, fmt.Sprintf("%s_%s.log", category, dateStr))
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("erro ao criar arquivo %s: %v", path, err)
		}

		flags := log.LstdFlags
		if level == LOG_ERROR || level == LOG_DEBUG {
			flags |= log.Lshortfile
		}

		sl.files[level] = file
		sl.loggers[level] = log.New(file, levelPrefix[level], flags)
	}

	return nil
}

// startCleanupRoutine inicia a rotina de manutenção automática
func (sl *SystemLogger) startCleanupRoutine() {
	ctx, cancel := context.WithCancel(context.Background())
	sl.cleanupCancel = cancel

	go func() {
		ticker := time.NewTicker(sl.config.CleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sl.performMaintenance()
			}
		}
	}()
}

// performMaintenance rotaciona por idade ou tamanho e limpa logs antigos
func (sl *SystemLogger) performMaintenance() {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.isShuttingDown {
		return
	}

	needRotation := time.Since(sl.lastRotation) >= sl.config.RotationInterval
	if !needRotation {
		for _, file := range sl.files {
			if stat, err := file.Stat(); err == nil && stat.Size() >= sl.config.MaxFileSize {
				needRotation = true
				break
			}
		}
	}

	if needRotation {
		if err := sl.rotateLogsUnsafe(); err != nil && sl.config.ConsoleOutput {
			fmt.Printf("Erro na rotação de logs: %v\n", err)
		}
	}

	if err := sl.cleanupOldLogs(); err != nil && sl.config.ConsoleOutput {
		fmt.Printf("Erro na limpeza de logs: %v\n", err)
	}
}

// rotateLogsUnsafe rotaciona os logs (deve ser chamado com lock)
func (sl *SystemLogger) rotateLogsUnsafe() error {
	sl.closeFilesUnsafe()

	if err := sl.openLogFiles(); err != nil {
		return err
	}

	sl.lastRotation = time.Now()
	if info := sl.loggers[LOG_INFO]; info != nil {
		info.Printf("LOG_ROTATION_COMPLETED: timestamp=%s", sl.lastRotation.Format(time.RFC3339))
	}

	return nil
}

// cleanupOldLogs remove arquivos além da retenção, exceto os ativos
func (sl *SystemLogger) cleanupOldLogs() error {
	cutoff := time.Now().AddDate(0, 0, -sl.config.RetentionDays)

	active := make(map[string]bool)
	for _, file := range sl.files {
		active[file.Name()] = true
	}

	for _, category := range categories {
		categoryPath := filepath.Join(sl.config.BasePath, category)

		entries, err := os.ReadDir(categoryPath)
		if err != nil {
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(categoryPath, entry.Name())
			if active[path] {
				continue
			}

			info, err := entry.Info()
			if err != nil || !info.ModTime().Before(cutoff) {
				continue
			}

			if err := os.Remove(path); err != nil {
				if errLog := sl.loggers[LOG_ERROR]; errLog != nil {
					errLog.Printf("CLEANUP_ERROR: file=%s error=%v", path, err)
				}
			}
		}
	}

	return nil
}

// closeFilesUnsafe fecha arquivos (deve ser chamado com lock)
func (sl *SystemLogger) closeFilesUnsafe() {
	for level, file := range sl.files {
		file.Close()
		delete(sl.files, level)
	}
}

// write grava no arquivo da categoria e opcionalmente no console
func (sl *SystemLogger) write(level LogLevel, format string, args ...interface{}) {
	sl.mu.RLock()
	if logger := sl.loggers[level]; logger != nil {
		logger.Printf(format, args...)
	}
	sl.mu.RUnlock()

	if sl.config.ConsoleOutput {
		fmt.Printf(format+"\n", args...)
	}
}

// ====================== EVENTOS DO DOMÍNIO ======================

// LogSensorDisconnected grava o evento; não decide política de reconexão
func (sl *SystemLogger) LogSensorDisconnected(deviceID string, attempts int, lastError error) {
	sl.write(LOG_ERROR, "SENSOR_DISCONNECTED: device=%s attempts=%d error=%v", deviceID, attempts, lastError)
}

// LogSensorReconnected grava o evento de reconexão
func (sl *SystemLogger) LogSensorReconnected(deviceID string, downtime time.Duration) {
	sl.write(LOG_INFO, "SENSOR_RECONNECTED: device=%s downtime=%v", deviceID, downtime)
}

// LogWindowQuality grava degradação de qualidade de sinal de uma janela
func (sl *SystemLogger) LogWindowQuality(deviceID string, quality models.QualityMetrics) {
	sl.write(LOG_WARN, "WINDOW_QUALITY: device=%s snr=%.1fdB quality=%s saturation=%.1f%%",
		deviceID, quality.SignalToNoiseRatioDb, quality.DataQuality, quality.SaturationPercent)
}

// LogIrregularSampling grava janela com amostragem irregular
func (sl *SystemLogger) LogIrregularSampling(deviceID string) {
	sl.write(LOG_WARN, "IRREGULAR_SAMPLING: device=%s calibração de frequência comprometida", deviceID)
}

// LogSeverityChange grava mudança de classe de severidade de uma fonte
func (sl *SystemLogger) LogSeverityChange(deviceID string, from, to models.SeverityClass, severityIndex float64) {
	sl.write(LOG_INFO, "SEVERITY_CHANGE: device=%s %s->%s index=%.1f", deviceID, from, to, severityIndex)
}

func (sl *SystemLogger) LogSystemStarted() {
	sl.write(LOG_INFO, "SYSTEM_STARTED: version=2.0")
}

func (sl *SystemLogger) LogSystemShutdown(uptime time.Duration) {
	sl.write(LOG_INFO, "SYSTEM_SHUTDOWN: uptime=%v", uptime)
}

// LogCriticalError grava erro crítico com throttling por mensagem.
// A política de "quando logar" fica em quem chama; o logger só agrupa
// repetições dentro do intervalo configurado.
func (sl *SystemLogger) LogCriticalError(component, operation string, err error) {
	if err == nil {
		return
	}

	key := fmt.Sprintf("%s|%s|%s", component, operation, err.Error())
	now := time.Now()

	sl.throttleMu.Lock()
	last, seen := sl.lastLog[key]
	if seen && now.Sub(last) < sl.config.ThrottleInterval {
		sl.repeatCount[key]++
		sl.throttleMu.Unlock()
		return
	}

	repeats := sl.repeatCount[key]
	sl.repeatCount[key] = 0
	sl.lastLog[key] = now
	sl.throttleMu.Unlock()

	if repeats > 0 {
		err = fmt.Errorf("%v (repetido %d vezes desde %s)", err, repeats, last.Format(time.RFC3339))
	}

	sl.write(LOG_ERROR, "CRITICAL_ERROR: component=%s operation=%s error=%v", component, operation, err)
	if sl.config.ConsoleOutput {
		fmt.Printf("🔥 ERRO CRÍTICO em %s.%s: %v\n", component, operation, err)
	}
}

// LogDebug adiciona log de debug
func (sl *SystemLogger) LogDebug(component, message string) {
	if !sl.config.EnableDebug {
		return
	}
	sl.write(LOG_DEBUG, "DEBUG: component=%s message=%s", component, message)
}

// GetLogStats retorna tamanhos e contagens dos arquivos de log
func (sl *SystemLogger) GetLogStats() map[string]interface{} {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	stats := make(map[string]interface{})

	for level, file := range sl.files {
		if stat, err := file.Stat(); err == nil {
			stats[fmt.Sprintf("%s_file_size", categories[level])] = stat.Size()
		}
	}

	for _, category := range categories {
		categoryPath := filepath.Join(sl.config.BasePath, category)
		if entries, err := os.ReadDir(categoryPath); err == nil {
			stats[fmt.Sprintf("%s_file_count", category)] = len(entries)
		}
	}

	stats["last_rotation"] = sl.lastRotation

	return stats
}

// ForceRotation força a rotação dos logs
func (sl *SystemLogger) ForceRotation() error {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.isShuttingDown {
		return fmt.Errorf("logger em encerramento")
	}

	return sl.rotateLogsUnsafe()
}

// Close fecha o logger com segurança
func (sl *SystemLogger) Close() {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	sl.isShuttingDown = true

	if sl.cleanupCancel != nil {
		sl.cleanupCancel()
	}

	if info := sl.loggers[LOG_INFO]; info != nil {
		info.Printf("LOGGER_SHUTDOWN: timestamp=%s", time.Now().Format(time.RFC3339))
	}

	sl.closeFilesUnsafe()
}
