package heartbeat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ExoPexodus/crimson-cloud-command/internal/analytics"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/models"
)

type fakeBackend struct {
	t *testing.T

	registerCalls  int32
	heartbeatCalls int32
	configCalls    int32

	lastHeartbeat models.Heartbeat
	lastAPIKey    string

	ack    models.HeartbeatAck
	config models.ConfigResponse
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/nodes/register", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.registerCalls, 1)
		json.NewEncoder(w).Encode(models.RegisterResponse{
			NodeID: 42, APIKey: "secret-key", Name: "node-1", Region: "us-ashburn-1",
		})
	})

	mux.HandleFunc("/nodes/42/heartbeat", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.heartbeatCalls, 1)
		f.lastAPIKey = r.Header.Get("X-API-Key")
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&f.lastHeartbeat))
		json.NewEncoder(w).Encode(f.ack)
	})

	mux.HandleFunc("/nodes/42/config", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.configCalls, 1)
		f.lastAPIKey = r.Header.Get("X-API-Key")
		json.NewEncoder(w).Encode(f.config)
	})

	return mux
}

func newTestService(t *testing.T, backend *fakeBackend, applied *[][]byte) (*Service, *analytics.Queue, string) {
	t.Helper()

	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	queue := analytics.NewQueue(100)
	credsFile := filepath.Join(t.TempDir(), "creds.json")

	svc := NewService(NewClient(server.URL, 5*time.Second), queue, ServiceConfig{
		Interval:        time.Hour,
		CredentialsFile: credsFile,
		Register:        models.RegisterRequest{Name: "node-1", Region: "us-ashburn-1"},
		Status:          func() (string, string) { return "active", "" },
		ConfigHash:      func() string { return "hash-abc" },
		ApplyConfig: func(raw []byte) error {
			*applied = append(*applied, raw)
			return nil
		},
	})
	return svc, queue, credsFile
}

func TestService_RegistersOnce(t *testing.T) {
	backend := &fakeBackend{t: t}
	var applied [][]byte
	svc, _, credsFile := newTestService(t, backend, &applied)

	require.NoError(t, svc.EnsureRegistered(context.Background()))
	assert.EqualValues(t, 1, backend.registerCalls)

	creds, err := LoadCredentials(credsFile)
	require.NoError(t, err)
	assert.EqualValues(t, 42, creds.NodeID)
	assert.Equal(t, "secret-key", creds.APIKey)

	// Second startup finds the credentials file and never registers.
	require.NoError(t, svc.EnsureRegistered(context.Background()))
	assert.EqualValues(t, 1, backend.registerCalls)
}

func TestService_BeatDrainsAnalytics(t *testing.T) {
	backend := &fakeBackend{t: t, ack: models.HeartbeatAck{Status: "ok"}}
	var applied [][]byte
	svc, queue, _ := newTestService(t, backend, &applied)
	require.NoError(t, svc.EnsureRegistered(context.Background()))

	queue.Append(models.PoolAnalytics{OraclePoolID: "pool-a", CurrentInstances: 3})
	queue.Append(models.PoolAnalytics{OraclePoolID: "pool-b", CurrentInstances: 5})

	require.NoError(t, svc.Beat(context.Background()))

	assert.Equal(t, "secret-key", backend.lastAPIKey)
	assert.Equal(t, "active", backend.lastHeartbeat.Status)
	assert.Equal(t, "hash-abc", backend.lastHeartbeat.ConfigHash)
	require.Len(t, backend.lastHeartbeat.PoolAnalytics, 2)
	assert.Equal(t, "pool-a", backend.lastHeartbeat.PoolAnalytics[0].OraclePoolID)

	// Queue is empty after the beat; records ride exactly one heartbeat.
	assert.Equal(t, 0, queue.Len())
	require.NoError(t, svc.Beat(context.Background()))
	assert.Empty(t, backend.lastHeartbeat.PoolAnalytics)
}

func TestService_DropsAnalyticsOnSendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	queue := analytics.NewQueue(100)
	client := NewClient(server.URL, time.Second)
	client.SetCredentials(&Credentials{NodeID: 42, APIKey: "k"})

	svc := NewService(client, queue, ServiceConfig{
		Interval:   time.Hour,
		Status:     func() (string, string) { return "active", "" },
		ConfigHash: func() string { return "" },
	})

	queue.Append(models.PoolAnalytics{OraclePoolID: "pool-a"})
	require.Error(t, svc.Beat(context.Background()))

	// At-most-once delivery: the failed batch is not re-queued.
	assert.Equal(t, 0, queue.Len())
}

func TestService_PullsConfigOnDrift(t *testing.T) {
	backend := &fakeBackend{
		t:      t,
		ack:    models.HeartbeatAck{Status: "ok", ConfigUpdateNeeded: true, CurrentConfigHash: "hash-new"},
		config: models.ConfigResponse{YAMLConfig: "pools: []\n", ConfigHash: "hash-new"},
	}
	var applied [][]byte
	svc, _, _ := newTestService(t, backend, &applied)
	require.NoError(t, svc.EnsureRegistered(context.Background()))

	require.NoError(t, svc.Beat(context.Background()))

	assert.EqualValues(t, 1, backend.configCalls)
	require.Len(t, applied, 1)
	assert.Equal(t, "pools: []\n", string(applied[0]))
}

func TestService_SkipsSentinelConfig(t *testing.T) {
	backend := &fakeBackend{
		t:      t,
		ack:    models.HeartbeatAck{Status: "ok", ConfigUpdateNeeded: true},
		config: models.ConfigResponse{YAMLConfig: models.NoConfigSentinel},
	}
	var applied [][]byte
	svc, _, _ := newTestService(t, backend, &applied)
	require.NoError(t, svc.EnsureRegistered(context.Background()))

	require.NoError(t, svc.Beat(context.Background()))
	assert.Empty(t, applied)
}

func TestClient_UnauthorizedIsSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	client.SetCredentials(&Credentials{NodeID: 7, APIKey: "wrong"})

	_, err := client.SendHeartbeat(context.Background(), models.Heartbeat{Status: "active"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLoadCredentials_Missing(t *testing.T) {
	_, err := LoadCredentials(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
	assert.False(t, HaveCredentials(filepath.Join(t.TempDir(), "nope.json")))
}
