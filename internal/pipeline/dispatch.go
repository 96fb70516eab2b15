package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"backend/pkg/models"
)

// Capacidade padrão da fila de despacho de registros
const defaultDispatchBuffer = 64

// Sink destino de registros analisados (WebSocket, NATS, Redis, log)
type Sink interface {
	Publish(record *models.TremorRecord) error
}

// SinkFunc adaptador de função para Sink
type SinkFunc func(record *models.TremorRecord) error

func (f SinkFunc) Publish(record *models.TremorRecord) error {
	return f(record)
}

// Dispatcher desacopla o caminho quente de ingestão da transmissão:
// registros entram numa fila limitada e são entregues aos sinks numa
// goroutine própria. Fila cheia descarta o registro mais novo e conta
// o descarte; a ingestão nunca bloqueia em transporte lento.
type Dispatcher struct {
	queue   chan *models.TremorRecord
	sinks   []Sink
	onError func(sink Sink, err error)
	dropped int64
	wg      sync.WaitGroup
}

// NewDispatcher cria o despachante com a fila de tamanho indicado
// (<= 0 usa o padrão). onError recebe falhas de publicação; com nil
// as falhas são ignoradas silenciosamente.
func NewDispatcher(buffer int, onError func(sink Sink, err error), sinks ...Sink) *Dispatcher {
	if buffer <= 0 {
		buffer = defaultDispatchBuffer
	}
	return &Dispatcher{
		queue:   make(chan *models.TremorRecord, buffer),
		sinks:   sinks,
		onError: onError,
	}
}

// Start inicia a goroutine de entrega. Encerra quando o contexto é
// cancelado; registros já enfileirados são drenados antes de sair.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-ctx.Done():
				d.drain()
				return
			case record := <-d.queue:
				d.deliver(record)
			}
		}
	}()
}

// Enqueue enfileira um registro para entrega. Não bloqueia: com a
// fila cheia o registro é descartado e contabilizado.
func (d *Dispatcher) Enqueue(record *models.TremorRecord) {
	select {
	case d.queue <- record:
	default:
		atomic.AddInt64(&d.dropped, 1)
	}
}

// Dropped retorna o total de registros descartados por fila cheia
func (d *Dispatcher) Dropped() int64 {
	return atomic.LoadInt64(&d.dropped)
}

// Wait aguarda o término da goroutine de entrega
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(record *models.TremorRecord) {
	for _, sink := range d.sinks {
		if err := sink.Publish(record); err != nil && d.onError != nil {
			d.onError(sink, err)
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case record := <-d.queue:
			d.deliver(record)
		default:
			return
		}
	}
}
