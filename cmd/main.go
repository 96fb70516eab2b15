package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strconv"
	"sync"
	"syscall"
	"time"

	"backend/internal/classify"
	"backend/internal/device"
	"backend/internal/logger"
	"backend/internal/nats"
	"backend/internal/pipeline"
	"backend/internal/store"
	"backend/internal/websocket"
	"backend/pkg/models"
	"backend/pkg/utils"
)

var (
	systemLogger *logger.SystemLogger

	// Estados anteriores com proteção thread-safe
	lastSeverity map[string]models.SeverityClass
	stateMutex   sync.RWMutex

	// Context global para controle de goroutines
	globalCtx    context.Context
	globalCancel context.CancelFunc
	mainWg       sync.WaitGroup
)

// SystemMetrics métricas do sistema com proteção thread-safe
type SystemMetrics struct {
	mutex             sync.RWMutex
	StartTime         time.Time
	SamplesIngested   int64
	WindowsAnalyzed   int64
	PreviewsEmitted   int64
	SensorReconnects  int64
	TotalErrors       int64
	LastSeverityIndex float64
}

func (m *SystemMetrics) AddSamples(n int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.SamplesIngested += n
}

func (m *SystemMetrics) IncrementWindows(severityIndex float64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.WindowsAnalyzed++
	m.LastSeverityIndex = severityIndex
}

func (m *SystemMetrics) IncrementPreviews() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.PreviewsEmitted++
}

func (m *SystemMetrics) IncrementReconnects() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.SensorReconnects++
}

func (m *SystemMetrics) IncrementErrors() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.TotalErrors++
}

func (m *SystemMetrics) GetStats() (int64, int64, int64, int64, int64, float64) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.SamplesIngested, m.WindowsAnalyzed, m.PreviewsEmitted, m.SensorReconnects, m.TotalErrors, m.LastSeverityIndex
}

var metrics *SystemMetrics

// appConfig configuração via variáveis de ambiente
type appConfig struct {
	DeviceID   string
	SerialPort string // vazio ativa o gerador sintético
	BaudRate   int
	SampleRate int
	HTTPPort   int
	NatsURL    string
	RedisAddr  string // vazio desativa persistência
	HistoryCap int    // registros retidos por fonte no Redis
	DebugMode  bool
}

func loadConfig() appConfig {
	cfg := appConfig{
		DeviceID:   envOr("EMG_DEVICE_ID", "emg_wrist_1"),
		SerialPort: os.Getenv("EMG_SERIAL_PORT"),
		BaudRate:   envIntOr("EMG_BAUD_RATE", 115200),
		SampleRate: envIntOr("EMG_SAMPLE_RATE", 200),
		HTTPPort:   envIntOr("HTTP_PORT", 8080),
		NatsURL:    envOr("NATS_URL", "nats://localhost:4222"),
		RedisAddr:  os.Getenv("REDIS_ADDR"),
		HistoryCap: envIntOr("REDIS_HISTORY_CAP", 1000),
		DebugMode:  os.Getenv("EMG_DEBUG") == "1",
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func main() {
	globalCtx, globalCancel = context.WithCancel(context.Background())

	// PANIC RECOVERY
	defer func() {
		if r := recover(); r != nil {
			timestamp := time.Now().Format("2006-01-02 15:04:05")

			if systemLogger != nil {
				systemLogger.LogCriticalError("main", "panic",
					fmt.Errorf("%v\nstack: %s", r, string(debug.Stack())))
			}

			fmt.Printf("\n🔥 CRASH DETECTADO: %s - Erro: %v\n", timestamp, r)
			gracefulShutdown()
			os.Exit(1)
		}
	}()

	cfg := loadConfig()

	systemLogger = logger.NewSystemLoggerWithConfig(logger.LogConfig{
		BasePath:         "backend/logs",
		MaxFileSize:      50 * 1024 * 1024,
		RetentionDays:    7,
		RotationInterval: 24 * time.Hour,
		EnableDebug:      cfg.DebugMode,
		CleanupInterval:  1 * time.Hour,
		ConsoleOutput:    false,
		ThrottleInterval: 30 * time.Second,
	})
	defer systemLogger.Close()

	setupGracefulShutdown()
	initStates()
	metrics = &SystemMetrics{StartTime: time.Now()}

	printSystemHeader(cfg)
	systemLogger.LogSystemStarted()

	// Gerenciador de pipelines com o classificador ponderado
	manager := pipeline.NewManager(classify.NewWeightedScore())
	pipelineConfig := pipeline.DefaultConfig(cfg.DeviceID)
	pipelineConfig.SampleRate = cfg.SampleRate
	if _, err := manager.Register(pipelineConfig); err != nil {
		fmt.Printf("Erro ao registrar pipeline: %v\n", err)
		os.Exit(1)
	}

	// WebSocket
	wsManager := websocket.NewWebSocketManager()
	mainWg.Add(1)
	go func() {
		defer mainWg.Done()
		defer recoverGoroutine("websocket.Run")
		wsManager.Run()
	}()
	mainWg.Add(1)
	go func() {
		defer mainWg.Done()
		defer recoverGoroutine("websocket.ServeHTTP")
		wsManager.ServeHTTP(cfg.HTTPPort, func() models.MultiDeviceData {
			return snapshotDevices(manager)
		})
	}()

	// NATS (opcional: sistema segue sem broker)
	publisher := nats.NewPublisher()
	if err := publisher.Connect(cfg.NatsURL); err != nil {
		systemLogger.LogCriticalError("nats", "connect", err)
		fmt.Printf("⚠️ NATS indisponível: %v\n", err)
	}
	defer publisher.Disconnect()

	// Redis (opcional)
	var recordStore *store.RecordStore
	if cfg.RedisAddr != "" {
		var err error
		recordStore, err = store.NewRecordStore(cfg.RedisAddr, "", 0)
		if err != nil {
			systemLogger.LogCriticalError("redis", "connect", err)
			fmt.Printf("⚠️ Redis indisponível: %v\n", err)
			recordStore = nil
		} else {
			defer recordStore.Close()
			recordStore.SetHistoryCap(int64(cfg.HistoryCap))
			registerHistoryAPI(recordStore)
		}
	}

	// Despachante: desacopla análise de transmissão
	sinks := []pipeline.Sink{
		pipeline.SinkFunc(func(record *models.TremorRecord) error {
			wsManager.BroadcastRecord(record)
			return nil
		}),
		pipeline.SinkFunc(func(record *models.TremorRecord) error {
			return publisher.PublishRecord(record)
		}),
	}
	if recordStore != nil {
		sinks = append(sinks, pipeline.SinkFunc(func(record *models.TremorRecord) error {
			ctx, cancel := context.WithTimeout(globalCtx, 2*time.Second)
			defer cancel()
			return recordStore.SaveRecord(ctx, record)
		}))
	}

	dispatcher := pipeline.NewDispatcher(0, func(_ pipeline.Sink, err error) {
		metrics.IncrementErrors()
		systemLogger.LogCriticalError("dispatcher", "publish", err)
	}, sinks...)
	dispatcher.Start(globalCtx)

	// Entrega de registros: métricas + log de mudança de severidade
	emit := func(record *models.TremorRecord) {
		if record.Preview {
			metrics.IncrementPreviews()
		} else {
			metrics.IncrementWindows(record.SeverityIndex)
			logSeverityChange(record)
			if record.QualityMetrics != nil && record.QualityMetrics.DataQuality == models.QualityPoor {
				systemLogger.LogWindowQuality(record.DeviceID, *record.QualityMetrics)
			}
			if record.IrregularSampling {
				systemLogger.LogIrregularSampling(record.DeviceID)
			}
		}
		dispatcher.Enqueue(record)
	}

	// Fonte de amostras: sensor serial ou gerador sintético
	mainWg.Add(1)
	go func() {
		defer mainWg.Done()
		defer recoverGoroutine("acquisition")
		runAcquisition(cfg, manager, emit)
	}()

	systemLogger.LogDebug("main", "loop principal iniciado")

	// Loop principal: previews de janela parcial + status no console
	previewTicker := time.NewTicker(500 * time.Millisecond)
	defer previewTicker.Stop()
	lastStatusUpdate := time.Now()

	for {
		select {
		case <-globalCtx.Done():
			fmt.Println("🛑 Sistema recebeu sinal de parada - finalizando loop principal")
			gracefulShutdown()
			return

		case <-previewTicker.C:
			for _, record := range manager.FlushPreviews(time.Now()) {
				emit(record)
			}

			if time.Since(lastStatusUpdate) >= 5*time.Second {
				snapshot := snapshotDevices(manager)
				wsManager.BroadcastMultiDeviceData(snapshot)
				if err := publisher.PublishSnapshot(snapshot); err != nil {
					systemLogger.LogCriticalError("nats", "snapshot", err)
				}
				displaySystemStatus(cfg, manager, wsManager, publisher, dispatcher)
				lastStatusUpdate = time.Now()
			}
		}
	}
}

// runAcquisition alimenta o pipeline a partir do sensor serial, com
// reconexão automática, ou do gerador sintético quando nenhuma porta
// está configurada
func runAcquisition(cfg appConfig, manager *pipeline.Manager, emit func(*models.TremorRecord)) {
	ingest := func(raw, _ float64) {
		metrics.AddSamples(1)
		record, full, err := manager.Ingest(cfg.DeviceID, raw)
		if err != nil {
			metrics.IncrementErrors()
			return
		}
		if full {
			emit(record)
		}
	}

	if cfg.SerialPort == "" {
		fmt.Println("📡 Nenhuma porta serial configurada - usando gerador sintético")
		synthCfg := device.DefaultSynthConfig()
		synthCfg.SampleRate = cfg.SampleRate
		synth := device.NewSyntheticEMG(synthCfg)
		synth.Stream(globalCtx, ingest)
		return
	}

	parser := utils.NewSampleParser(cfg.DebugMode, nil)
	sensor := device.NewEMGSensor(cfg.SerialPort, cfg.BaudRate, parser)
	sensor.DebugMode = cfg.DebugMode

	p, _ := manager.Get(cfg.DeviceID)
	reconnect := device.NewReconnectionManager(sensor, device.DefaultRetryPolicy(), func() {
		// Sessão nova após reconexão
		if p != nil {
			p.Reset()
		}
		metrics.IncrementReconnects()
	})

	if err := sensor.Connect(); err != nil {
		systemLogger.LogSensorDisconnected(cfg.DeviceID, 0, err)
		if err := reconnect.StartReconnection(); err != nil {
			systemLogger.LogCriticalError("sensor", "connect", err)
			return
		}
	}

	for {
		select {
		case <-globalCtx.Done():
			sensor.Disconnect()
			return
		default:
		}

		err := sensor.ReadSamples(globalCtx, ingest)
		if err == context.Canceled {
			sensor.Disconnect()
			return
		}

		if !reconnect.CheckConnectionHealth(err) && reconnect.IsConnectionLost() && !reconnect.IsReconnecting() {
			downStart := time.Now()
			systemLogger.LogSensorDisconnected(cfg.DeviceID, reconnect.GetConsecutiveErrors(), reconnect.GetLastError())

			if err := reconnect.StartReconnection(); err != nil {
				systemLogger.LogCriticalError("sensor", "reconnect", err)
				return
			}
			systemLogger.LogSensorReconnected(cfg.DeviceID, time.Since(downStart))
		}
	}
}

// logSeverityChange grava no log só quando a classe de severidade muda
func logSeverityChange(record *models.TremorRecord) {
	stateMutex.Lock()
	defer stateMutex.Unlock()

	previous, exists := lastSeverity[record.DeviceID]
	current := record.Classification.Pattern

	if !exists || previous != current {
		systemLogger.LogSeverityChange(record.DeviceID, previous, current, record.SeverityIndex)
		lastSeverity[record.DeviceID] = current
	}
}

// snapshotDevices monta o snapshot consolidado para a API de status
func snapshotDevices(manager *pipeline.Manager) models.MultiDeviceData {
	data := models.MultiDeviceData{
		Timestamp: time.Now().UnixMilli(),
	}

	for _, id := range manager.DeviceIDs() {
		if _, ok := manager.Get(id); !ok {
			continue
		}
		data.Devices = append(data.Devices, models.DeviceData{
			DeviceID:  id,
			Name:      id,
			Connected: true,
			Timestamp: data.Timestamp,
		})
	}

	return data
}

// registerHistoryAPI expõe consultas ao histórico persistido no Redis.
func registerHistoryAPI(recordStore *store.RecordStore) {
	http.HandleFunc("/api/latest", func(w http.ResponseWriter, r *http.Request) {
		deviceID := r.URL.Query().Get("device")
		if deviceID == "" {
			http.Error(w, "parâmetro 'device' obrigatório", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		record, err := recordStore.GetLatest(ctx, deviceID)
		if err != nil {
			http.Error(w, "erro ao consultar Redis", http.StatusInternalServerError)
			return
		}
		if record == nil {
			http.Error(w, "dispositivo sem registros", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(record)
	})

	http.HandleFunc("/api/history", func(w http.ResponseWriter, r *http.Request) {
		deviceID := r.URL.Query().Get("device")
		if deviceID == "" {
			http.Error(w, "parâmetro 'device' obrigatório", http.StatusBadRequest)
			return
		}

		limit := int64(100)
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		records, err := recordStore.GetHistory(ctx, deviceID, limit)
		if err != nil {
			http.Error(w, "erro ao consultar Redis", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(records)
	})
}

func gracefulShutdown() {
	fmt.Println("\n🛑 Iniciando shutdown gracioso...")

	if globalCancel != nil {
		globalCancel()
	}

	done := make(chan struct{})
	go func() {
		mainWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		fmt.Println("✅ Todas as goroutines finalizadas")
	case <-time.After(10 * time.Second):
		fmt.Println("⚠️ Timeout no shutdown - forçando parada")
	}

	if systemLogger != nil {
		systemLogger.LogSystemShutdown(time.Since(metrics.StartTime))
	}
}

func setupGracefulShutdown() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		sig := <-c
		fmt.Printf("\n\n🛑 Sinal: %v - Encerrando...\n", sig)
		gracefulShutdown()
		os.Exit(0)
	}()
}

func initStates() {
	stateMutex.Lock()
	defer stateMutex.Unlock()
	lastSeverity = make(map[string]models.SeverityClass)
}

func recoverGoroutine(name string) {
	if r := recover(); r != nil {
		if systemLogger != nil {
			systemLogger.LogCriticalError(name, "panic",
				fmt.Errorf("%v\nstack: %s", r, string(debug.Stack())))
		}
	}
}

func printSystemHeader(cfg appConfig) {
	fmt.Print("\033[2J\033[H")
	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                  MONITOR DE TREMOR EMG v2.0                  ║")
	fmt.Println("╠══════════════════════════════════════════════════════════════╣")
	fmt.Printf("║ Fonte: %-20s         Taxa: %d Hz              ║\n", cfg.DeviceID, cfg.SampleRate)
	fmt.Printf("║ Data: %-19s            Porta HTTP: %d          ║\n",
		time.Now().Format("2006-01-02 15:04:05"), cfg.HTTPPort)
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Println()
}

func displaySystemStatus(cfg appConfig, manager *pipeline.Manager, wsManager *websocket.WebSocketManager,
	publisher *nats.Publisher, dispatcher *pipeline.Dispatcher) {

	fmt.Print("\033[9H\033[J")

	natsStatus := "🔴 DESCONECTADO"
	if publisher.IsConnected() {
		natsStatus = "🟢 CONECTADO"
	}

	samples, windows, previews, reconnects, errors, lastSeverityIndex := metrics.GetStats()

	fmt.Printf("🧠 EMG Tremor Monitor | NATS: %s | WebSocket: %d clientes\n",
		natsStatus, wsManager.GetConnectedCount())
	fmt.Println("┌─────────────────────────────────────────────────────────────┐")

	stateMutex.RLock()
	for _, id := range manager.DeviceIDs() {
		severity := lastSeverity[id]
		if severity == "" {
			severity = "aguardando"
		}
		fmt.Printf("│ %-20s severidade: %-10s índice: %5.1f    │\n", id, severity, lastSeverityIndex)
	}
	stateMutex.RUnlock()

	fmt.Println("└─────────────────────────────────────────────────────────────┘")

	uptime := time.Since(metrics.StartTime)
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	memMB := float64(m.Alloc) / (1024 * 1024)

	fmt.Println()
	fmt.Println("📈 MÉTRICAS:")
	fmt.Printf("   ⏱️  Uptime: %s\n", utils.FormatDuration(uptime))
	fmt.Printf("   📦 Amostras: %d | Janelas: %d | Previews: %d\n", samples, windows, previews)
	fmt.Printf("   🔌 Reconexões do sensor: %d\n", reconnects)
	fmt.Printf("   ❌ Erros: %d | Descartes na fila: %d\n", errors, dispatcher.Dropped())
	fmt.Printf("   💾 Memória: %.1fMB\n", memMB)
	fmt.Println()
	fmt.Println("🚨 Sistema em monitoramento contínuo... Ctrl+C para parar.")
}
