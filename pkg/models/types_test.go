package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTremorRecordPublishesSourceIdKey(t *testing.T) {
	record := TremorRecord{
		DeviceID:      "emg_wrist_1",
		SeverityIndex: 72.5,
		Classification: Classification{
			Pattern:    SeveritySevere,
			Confidence: 0.9,
		},
	}

	payload, err := json.Marshal(record)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))

	// Contrato de saída: a fonte sai como "sourceId"
	assert.Equal(t, "emg_wrist_1", decoded["sourceId"])
	assert.NotContains(t, decoded, "deviceId")

	var roundTrip TremorRecord
	require.NoError(t, json.Unmarshal(payload, &roundTrip))
	assert.Equal(t, "emg_wrist_1", roundTrip.DeviceID)
}

func TestSeverityClassOrdinalScale(t *testing.T) {
	assert.Equal(t, 0, SeverityNormal.Ordinal())
	assert.Equal(t, 1, SeverityMild.Ordinal())
	assert.Equal(t, 2, SeverityModerate.Ordinal())
	assert.Equal(t, 3, SeveritySevere.Ordinal())

	// Classe desconhecida cai na base da escala
	assert.Equal(t, 0, SeverityClass("desconhecida").Ordinal())
}
