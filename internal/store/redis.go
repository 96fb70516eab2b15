package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"backend/pkg/models"
)

const (
	latestKeyPrefix  = "emg:latest:"
	historyKeyPrefix = "emg:history:"

	// Registros retidos por fonte no histórico
	defaultHistoryCap = 1000
)

// RecordStore persiste registros de análise no Redis: último registro
// por fonte mais uma lista capada de histórico. Indisponibilidade do
// Redis é reportada ao chamador mas nunca derruba o pipeline.
type RecordStore struct {
	client     *redis.Client
	historyCap int64
}

// NewRecordStore conecta ao Redis e verifica a conexão
func NewRecordStore(addr, password string, db int) (*RecordStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("erro ao conectar ao Redis em %s: %v", addr, err)
	}

	log.Printf("Redis conectado em: %s (db=%d)", addr, db)

	return &RecordStore{
		client:     client,
		historyCap: defaultHistoryCap,
	}, nil
}

// SetHistoryCap ajusta o tamanho máximo do histórico por fonte
func (rs *RecordStore) SetHistoryCap(cap int64) {
	if cap > 0 {
		rs.historyCap = cap
	}
}

// SaveRecord grava o registro como último da fonte e adiciona ao
// histórico. Previews atualizam apenas o último registro; o histórico
// guarda só janelas completas.
func (rs *RecordStore) SaveRecord(ctx context.Context, record *models.TremorRecord) error {
	if record == nil {
		return fmt.Errorf("registro nulo")
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("erro ao serializar registro: %v", err)
	}

	pipe := rs.client.TxPipeline()
	pipe.Set(ctx, latestKeyPrefix+record.DeviceID, payload, 0)

	if !record.Preview {
		historyKey := historyKeyPrefix + record.DeviceID
		pipe.LPush(ctx, historyKey, payload)
		pipe.LTrim(ctx, historyKey, 0, rs.historyCap-1)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("erro ao gravar registro no Redis: %v", err)
	}

	return nil
}

// GetLatest retorna o último registro de uma fonte
func (rs *RecordStore) GetLatest(ctx context.Context, deviceID string) (*models.TremorRecord, error) {
	payload, err := rs.client.Get(ctx, latestKeyPrefix+deviceID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erro ao ler registro do Redis: %v", err)
	}

	var record models.TremorRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("erro ao decodificar registro: %v", err)
	}
	return &record, nil
}

// GetHistory retorna os últimos n registros de janela completa de uma
// fonte, do mais recente para o mais antigo
func (rs *RecordStore) GetHistory(ctx context.Context, deviceID string, n int64) ([]*models.TremorRecord, error) {
	if n <= 0 || n > rs.historyCap {
		n = rs.historyCap
	}

	payloads, err := rs.client.LRange(ctx, historyKeyPrefix+deviceID, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("erro ao ler histórico do Redis: %v", err)
	}

	records := make([]*models.TremorRecord, 0, len(payloads))
	for _, payload := range payloads {
		var record models.TremorRecord
		if err := json.Unmarshal([]byte(payload), &record); err != nil {
			// Entrada corrompida não invalida o resto do histórico
			continue
		}
		records = append(records, &record)
	}
	return records, nil
}

// Ping verifica a conexão com o Redis
func (rs *RecordStore) Ping(ctx context.Context) error {
	return rs.client.Ping(ctx).Err()
}

// Close fecha a conexão com o Redis
func (rs *RecordStore) Close() error {
	return rs.client.Close()
}
