package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/couchcryptid/neo-harvester/internal/config"
	"github.com/couchcryptid/neo-harvester/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestSerializeToMessage(t *testing.T) {
	rec := domain.CanonicalRecord{
		Designation:     strPtr("433 Eros (A898 PA)"),
		NeoReferenceID:  strPtr("2000433"),
		EpochTDB:        2461000.5,
		SemiMajorAxisKm: 218_132_000,
		Eccentricity:    0.2228,
		Hazardous:       true,
	}

	msg, err := serializeToMessage(rec, "2025-09-30T16:04:05Z")
	require.NoError(t, err)

	assert.Equal(t, []byte("2000433"), msg.Key)
	assert.Contains(t, string(msg.Value), `"neo_reference_id":"2000433"`)
	assert.Contains(t, string(msg.Value), `"pha_flag":true`)
	assert.Contains(t, string(msg.Value), `"H_mag":null`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "pha_flag", msg.Headers[0].Key)
	assert.Equal(t, []byte("true"), msg.Headers[0].Value)
	assert.Equal(t, "generated_utc", msg.Headers[1].Key)
	assert.Equal(t, []byte("2025-09-30T16:04:05Z"), msg.Headers[1].Value)
}

func TestSerializeToMessage_KeyFallsBackToDesignation(t *testing.T) {
	msg, err := serializeToMessage(domain.CanonicalRecord{Designation: strPtr("(2024 AB1)")}, "")
	require.NoError(t, err)
	assert.Equal(t, []byte("(2024 AB1)"), msg.Key)
	assert.Equal(t, []byte("false"), msg.Headers[0].Value)
}

func TestNewWriter_UsesConfiguredTopic(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"broker-a:9092"}, KafkaTopic: "neo-records"}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	assert.Equal(t, "kafka", w.Name())
	assert.Equal(t, "neo-records", w.writer.Topic)
}

func TestWriter_LoadEmptyDocumentIsNoop(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"127.0.0.1:1"}, KafkaTopic: "neo-records"}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.Load(context.Background(), domain.NewDocument(nil)))
}
