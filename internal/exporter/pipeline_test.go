package exporter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/picklevibe/bookings-crawler/internal/domain"
	"github.com/picklevibe/bookings-crawler/internal/storage"
)

func testDataset() []domain.BookingRecord {
	return []domain.BookingRecord{
		{Organization: "Kepong", BookingID: "BK-1", Price: "RM 10.00"},
		{Organization: "Puchong", BookingID: "BK-2", Price: "RM 5.50"},
	}
}

func newStore(t *testing.T) (*storage.SnapshotStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "all_bookings.json")
	return storage.NewSnapshotStore(storage.NewLocalStore(path), nil, zap.NewNop()), path
}

func ackServer(t *testing.T, ack Ack, status int, received *[]domain.BookingRecord) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if received != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(received))
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(ack)
	}))
}

func TestDeliverRemoteSuccessSkipsLocalWrite(t *testing.T) {
	var received []domain.BookingRecord
	server := ackServer(t, Ack{Status: "success", Count: 2}, http.StatusOK, &received)
	defer server.Close()

	store, path := newStore(t)
	p := NewPipeline(NewRemoteSink(server.URL, time.Second), store, zap.NewNop())

	count, err := p.Deliver(context.Background(), testDataset())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, testDataset(), received, "full dataset posted as a JSON array")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no local write on remote success")
}

func TestDeliverRemoteSuccessLeavesPriorSnapshotUntouched(t *testing.T) {
	server := ackServer(t, Ack{Status: "success", Count: 2}, http.StatusOK, nil)
	defer server.Close()

	store, path := newStore(t)
	prior := []domain.BookingRecord{{Organization: "Kepong", BookingID: "OLD"}}
	require.NoError(t, store.Write(context.Background(), prior))

	p := NewPipeline(NewRemoteSink(server.URL, time.Second), store, zap.NewNop())
	_, err := p.Deliver(context.Background(), testDataset())
	require.NoError(t, err)

	payload, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk []domain.BookingRecord
	require.NoError(t, json.Unmarshal(payload, &onDisk))
	assert.Equal(t, prior, onDisk)
}

func TestDeliverRemoteErrorAckFallsBackLocally(t *testing.T) {
	server := ackServer(t, Ack{Status: "error", Message: "sheet is full"}, http.StatusOK, nil)
	defer server.Close()

	store, _ := newStore(t)
	p := NewPipeline(NewRemoteSink(server.URL, time.Second), store, zap.NewNop())

	count, err := p.Deliver(context.Background(), testDataset())
	require.NoError(t, err, "fallback persistence still counts as a successful delivery")
	assert.Equal(t, 2, count)

	persisted, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testDataset(), persisted)
}

func TestDeliverUnreachableRemoteFallsBackLocally(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // unreachable

	store, _ := newStore(t)
	p := NewPipeline(NewRemoteSink(server.URL, time.Second), store, zap.NewNop())

	count, err := p.Deliver(context.Background(), testDataset())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	persisted, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Len(t, persisted, 2)
}

func TestDeliverMalformedAckFallsBackLocally(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	store, _ := newStore(t)
	p := NewPipeline(NewRemoteSink(server.URL, time.Second), store, zap.NewNop())

	_, err := p.Deliver(context.Background(), testDataset())
	require.NoError(t, err)

	persisted, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Len(t, persisted, 2)
}

func TestDeliverWithoutEndpointPersistsLocally(t *testing.T) {
	store, _ := newStore(t)
	p := NewPipeline(nil, store, zap.NewNop())

	count, err := p.Deliver(context.Background(), testDataset())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDeliverLocalWriteFailureFailsDelivery(t *testing.T) {
	server := ackServer(t, Ack{Status: "error", Message: "nope"}, http.StatusOK, nil)
	defer server.Close()

	// A snapshot path inside a missing directory makes the local write fail.
	path := filepath.Join(t.TempDir(), "missing", "all_bookings.json")
	store := storage.NewSnapshotStore(storage.NewLocalStore(path), nil, zap.NewNop())
	p := NewPipeline(NewRemoteSink(server.URL, time.Second), store, zap.NewNop())

	_, err := p.Deliver(context.Background(), testDataset())
	assert.Error(t, err, "failed local fallback escalates to a failed run")
}

func TestRemoteSinkNon2xxResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sink := NewRemoteSink(server.URL, time.Second)
	_, err := sink.Send(context.Background(), []byte("[]"))
	assert.Error(t, err)
}
