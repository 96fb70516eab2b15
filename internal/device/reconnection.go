package device

import (
	"fmt"
	"log"
	"time"
)

// RetryPolicy parâmetros da reconexão automática
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// Erros consecutivos de leitura antes de declarar conexão perdida
	ErrorThreshold int
}

// DefaultRetryPolicy política padrão: backoff exponencial de 1s a 15s
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      10,
		InitialInterval: 1 * time.Second,
		MaxInterval:     15 * time.Second,
		ErrorThreshold:  5,
	}
}

// ReconnectionManager gerencia reconexão automática do sensor EMG.
// Erros de leitura esporádicos são tolerados; uma sequência acima do
// limiar marca a conexão como perdida e dispara o ciclo de reconexão.
type ReconnectionManager struct {
	sensor            *EMGSensor
	policy            RetryPolicy
	isReconnecting    bool
	connectionLost    bool
	consecutiveErrors int
	lastError         error
	onReconnect       func()
}

// NewReconnectionManager cria um novo gerenciador de reconexão.
// onReconnect (opcional) roda após cada reconexão bem sucedida, usado
// para reiniciar a sessão do pipeline da fonte.
func NewReconnectionManager(sensor *EMGSensor, policy RetryPolicy, onReconnect func()) *ReconnectionManager {
	if policy.MaxRetries <= 0 {
		policy = DefaultRetryPolicy()
	}
	return &ReconnectionManager{
		sensor:      sensor,
		policy:      policy,
		onReconnect: onReconnect,
	}
}

// CheckConnectionHealth registra o resultado de uma leitura e informa
// se a conexão ainda é considerada saudável
func (rm *ReconnectionManager) CheckConnectionHealth(err error) bool {
	if err != nil {
		rm.consecutiveErrors++
		rm.lastError = err

		if rm.consecutiveErrors >= rm.policy.ErrorThreshold {
			if !rm.connectionLost {
				rm.connectionLost = true
				log.Printf("🔴 SENSOR: Conexão perdida detectada após %d erros consecutivos", rm.consecutiveErrors)
				log.Printf("🔴 SENSOR: Último erro: %v", err)
			}
			return false
		}
	} else {
		// Reset contador se leitura bem sucedida
		if rm.consecutiveErrors > 0 {
			log.Printf("✅ SENSOR: Conexão estável - resetando contador de erros")
		}
		rm.consecutiveErrors = 0
		rm.connectionLost = false
	}

	return true
}

// StartReconnection executa o ciclo de reconexão com backoff
// exponencial até conectar ou esgotar as tentativas
func (rm *ReconnectionManager) StartReconnection() error {
	if rm.isReconnecting {
		return nil // Já está tentando reconectar
	}

	rm.isReconnecting = true
	defer func() { rm.isReconnecting = false }()

	log.Printf("🔄 SENSOR: Iniciando reconexão automática...")

	interval := rm.policy.InitialInterval
	for attempt := 1; attempt <= rm.policy.MaxRetries; attempt++ {
		log.Printf("🔄 SENSOR: Tentativa de reconexão %d/%d", attempt, rm.policy.MaxRetries)

		rm.sensor.Disconnect()
		time.Sleep(interval)

		if interval *= 2; interval > rm.policy.MaxInterval {
			interval = rm.policy.MaxInterval
		}

		if err := rm.sensor.Connect(); err != nil {
			log.Printf("❌ SENSOR: Tentativa %d falhou: %v", attempt, err)
			continue
		}

		log.Printf("✅ SENSOR: Reconectado com sucesso na tentativa %d", attempt)
		rm.connectionLost = false
		rm.consecutiveErrors = 0

		// Sessão nova: o filtro e as janelas da fonte recomeçam do zero
		if rm.onReconnect != nil {
			rm.onReconnect()
		}
		return nil
	}

	return fmt.Errorf("falha ao reconectar após %d tentativas", rm.policy.MaxRetries)
}

// IsReconnecting verifica se está em processo de reconexão
func (rm *ReconnectionManager) IsReconnecting() bool {
	return rm.isReconnecting
}

// IsConnectionLost verifica se a conexão foi perdida
func (rm *ReconnectionManager) IsConnectionLost() bool {
	return rm.connectionLost
}

// GetConsecutiveErrors retorna número de erros consecutivos
func (rm *ReconnectionManager) GetConsecutiveErrors() int {
	return rm.consecutiveErrors
}

// GetLastError retorna o último erro
func (rm *ReconnectionManager) GetLastError() error {
	return rm.lastError
}
