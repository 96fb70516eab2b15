package nats

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"backend/pkg/models"
)

// Prefixo dos tópicos de análise: emg.tremor.<deviceID>
const subjectPrefix = "emg.tremor"

// Publisher gerencia a publicação dos registros de análise no NATS.
// NATS indisponível não derruba o pipeline: publicações com o broker
// fora do ar são descartadas silenciosamente.
type Publisher struct {
	conn    *nats.Conn
	mutex   sync.Mutex
	enabled bool
}

// NewPublisher cria um novo publisher NATS
func NewPublisher() *Publisher {
	return &Publisher{enabled: false}
}

// Connect conecta ao servidor NATS
func (p *Publisher) Connect(natsURL string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	// Opções de conexão com retry automático
	opts := []nats.Option{
		nats.Name("EMG-Tremor-Publisher"),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1), // Retry infinito
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("NATS desconectado: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("NATS reconectado: %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Printf("NATS conexão fechada")
		}),
	}

	var err error
	p.conn, err = nats.Connect(natsURL, opts...)
	if err != nil {
		p.enabled = false
		return fmt.Errorf("erro ao conectar ao NATS: %v", err)
	}

	p.enabled = true
	log.Printf("NATS conectado em: %s", natsURL)
	return nil
}

// SubjectFor retorna o tópico de uma fonte
func SubjectFor(deviceID string) string {
	return fmt.Sprintf("%s.%s", subjectPrefix, deviceID)
}

// PublishRecord publica um registro de análise no tópico da fonte
func (p *Publisher) PublishRecord(record *models.TremorRecord) error {
	if record == nil {
		return fmt.Errorf("registro nulo")
	}
	return p.publish(SubjectFor(record.DeviceID), record)
}

// PublishSnapshot publica o snapshot consolidado de todas as fontes
func (p *Publisher) PublishSnapshot(data models.MultiDeviceData) error {
	return p.publish(subjectPrefix+".snapshot", data)
}

func (p *Publisher) publish(subject string, data interface{}) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.enabled || p.conn == nil {
		// NATS indisponível: não falha o pipeline
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("erro ao serializar dados: %v", err)
	}

	if err := p.conn.Publish(subject, jsonData); err != nil {
		return fmt.Errorf("erro ao publicar no NATS em %s: %v", subject, err)
	}

	return nil
}

// PublishRaw publica dados brutos (bytes) em um tópico específico
func (p *Publisher) PublishRaw(subject string, data []byte) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.enabled || p.conn == nil {
		return nil
	}

	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("erro ao publicar no NATS em %s: %v", subject, err)
	}

	return nil
}

// Disconnect desconecta do NATS
func (p *Publisher) Disconnect() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
		p.enabled = false
		log.Println("NATS desconectado")
	}
}

// IsConnected verifica se está conectado ao NATS
func (p *Publisher) IsConnected() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.enabled && p.conn != nil && p.conn.IsConnected()
}

// IsEnabled verifica se NATS está habilitado
func (p *Publisher) IsEnabled() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.enabled
}
