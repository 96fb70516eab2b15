package device

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"backend/pkg/utils"
)

// SampleHandler recebe cada par de amostras lido do sensor
type SampleHandler func(raw, filtered float64)

// EMGSensor representa a conexão e funcionalidade do sensor EMG serial.
// O firmware transmite uma linha CSV "bruto,filtrado" por amostra.
type EMGSensor struct {
	PortName  string
	BaudRate  int
	port      serial.Port
	Connected bool
	DebugMode bool
	parser    *utils.SampleParser
	mutex     sync.Mutex
}

// NewEMGSensor cria uma nova instância do sensor
func NewEMGSensor(portName string, baudRate int, parser *utils.SampleParser) *EMGSensor {
	if baudRate == 0 {
		baudRate = 115200 // Baud rate padrão do firmware
	}
	return &EMGSensor{
		PortName:  portName,
		BaudRate:  baudRate,
		Connected: false,
		DebugMode: false,
		parser:    parser,
	}
}

// Connect abre a porta serial do sensor
func (s *EMGSensor) Connect() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	mode := &serial.Mode{
		BaudRate: s.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(s.PortName, mode)
	if err != nil {
		s.Connected = false
		return fmt.Errorf("erro ao abrir porta %s: %v", s.PortName, err)
	}

	// Timeout de leitura curto para o loop poder observar o contexto
	if err := port.SetReadTimeout(500 * time.Millisecond); err != nil {
		port.Close()
		s.Connected = false
		return fmt.Errorf("erro ao definir timeout de leitura: %v", err)
	}

	s.port = port
	s.Connected = true
	fmt.Printf("Conectado ao sensor EMG em %s @ %d baud\n", s.PortName, s.BaudRate)
	return nil
}

// Disconnect fecha a porta serial
func (s *EMGSensor) Disconnect() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.port != nil {
		s.port.Close()
		s.port = nil
		s.Connected = false
		fmt.Println("Desconectado do sensor EMG")
	}
}

// IsConnected verifica se está conectado
func (s *EMGSensor) IsConnected() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.Connected
}

// ReadSamples lê linhas do sensor até erro de leitura ou cancelamento
// do contexto, entregando cada par de amostras ao handler. Timeout de
// leitura sem dados (Read retorna 0, nil) significa sensor ocioso e o
// loop apenas continua; só erros reais de leitura encerram o fluxo.
// Linhas malformadas são descartadas individualmente; uma amostra
// corrompida nunca derruba o fluxo.
func (s *EMGSensor) ReadSamples(ctx context.Context, handler SampleHandler) error {
	s.mutex.Lock()
	port := s.port
	s.mutex.Unlock()

	if port == nil {
		return fmt.Errorf("não conectado ao sensor")
	}

	buf := make([]byte, 256)
	var line []byte
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := port.Read(buf)
		if err != nil {
			return fmt.Errorf("erro de leitura serial: %v", err)
		}
		if n == 0 {
			// Timeout sem dados: sensor ocioso, segue aguardando
			continue
		}

		for _, b := range buf[:n] {
			if b != '\n' {
				line = append(line, b)
				continue
			}

			text := strings.TrimSpace(string(line))
			line = line[:0]
			if text == "" {
				continue
			}

			raw, filtered, err := s.parser.ParseLine(text)
			if err != nil {
				if s.DebugMode {
					fmt.Printf("Linha descartada: %v\n", err)
				}
				continue
			}

			handler(raw, filtered)
		}
	}
}
