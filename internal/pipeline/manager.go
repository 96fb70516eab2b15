package pipeline

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"backend/internal/classify"
	"backend/pkg/models"
)

// Manager gerencia os pipelines de múltiplas fontes. O classificador é
// imutável e compartilhado; todo o estado mutável (filtro, janelas,
// suavização) vive no pipeline de cada fonte, particionado por
// identificador. Seguro para uso concorrente.
type Manager struct {
	mu         sync.RWMutex
	pipelines  map[string]*Pipeline
	classifier classify.Strategy
}

// NewManager cria o gerenciador. Com classifier nil usa o classificador
// ponderado padrão.
func NewManager(classifier classify.Strategy) *Manager {
	if classifier == nil {
		classifier = classify.NewWeightedScore()
	}
	return &Manager{
		pipelines:  make(map[string]*Pipeline),
		classifier: classifier,
	}
}

// Register cria e registra o pipeline de uma fonte. Registrar um
// deviceID já existente substitui o pipeline anterior (sessão nova).
func (m *Manager) Register(config Config) (*Pipeline, error) {
	p, err := New(config, m.classifier)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.pipelines[config.DeviceID] = p
	m.mu.Unlock()

	return p, nil
}

// Remove descarta o pipeline de uma fonte
func (m *Manager) Remove(deviceID string) {
	m.mu.Lock()
	delete(m.pipelines, deviceID)
	m.mu.Unlock()
}

// Get retorna o pipeline de uma fonte, se registrado
func (m *Manager) Get(deviceID string) (*Pipeline, bool) {
	m.mu.RLock()
	p, ok := m.pipelines[deviceID]
	m.mu.RUnlock()
	return p, ok
}

// DeviceIDs retorna os identificadores registrados, em ordem estável
func (m *Manager) DeviceIDs() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.pipelines))
	for id := range m.pipelines {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Ingest encaminha uma amostra bruta ao pipeline da fonte
func (m *Manager) Ingest(deviceID string, raw float64) (*models.TremorRecord, bool, error) {
	p, ok := m.Get(deviceID)
	if !ok {
		return nil, false, fmt.Errorf("fonte não registrada: %s", deviceID)
	}
	record, full := p.Ingest(raw)
	return record, full, nil
}

// ProcessSequence processa um lote de amostras brutas de uma fonte e
// retorna um registro: o da última janela completa, ou um preview da
// janela parcial se nenhuma completou. Fronteira de uso em lote do
// pipeline, com a mesma cadeia de análise do fluxo contínuo.
func (m *Manager) ProcessSequence(deviceID string, samples []float64) (*models.TremorRecord, error) {
	p, ok := m.Get(deviceID)
	if !ok {
		return nil, fmt.Errorf("fonte não registrada: %s", deviceID)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("lote vazio para %s", deviceID)
	}

	var last *models.TremorRecord
	for _, s := range samples {
		if record, full := p.Ingest(s); full {
			last = record
		}
	}
	if last != nil {
		return last, nil
	}

	// Nenhuma janela completou: força preview da parcial
	record, ok := p.MaybePreview(p.now().Add(p.config.PreviewInterval))
	if !ok {
		return nil, fmt.Errorf("lote insuficiente para análise de %s", deviceID)
	}
	return record, nil
}

// FlushPreviews percorre as fontes e coleta previews de janelas
// parciais cujo intervalo de flush expirou. Chamado pelo ticker do
// loop principal.
func (m *Manager) FlushPreviews(now time.Time) []*models.TremorRecord {
	m.mu.RLock()
	pipelines := make([]*Pipeline, 0, len(m.pipelines))
	for _, p := range m.pipelines {
		pipelines = append(pipelines, p)
	}
	m.mu.RUnlock()

	var records []*models.TremorRecord
	for _, p := range pipelines {
		if record, ok := p.MaybePreview(now); ok {
			records = append(records, record)
		}
	}
	return records
}

// ResetAll reinicia a sessão de todas as fontes
func (m *Manager) ResetAll() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.pipelines {
		p.Reset()
	}
}
