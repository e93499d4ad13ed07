package agent

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ExoPexodus/crimson-cloud-command/internal/analytics"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/config"
)

// fakeProvider serves the instance pool API: size reads and resizes.
type fakeProvider struct {
	size int
}

func (f *fakeProvider) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/pools/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			var body struct {
				Size int `json:"size"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			f.size = body.Size
			w.WriteHeader(http.StatusOK)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"pool_id": "alpha", "size": f.size})
	})
	return mux
}

func newTestAgent(t *testing.T, providerURL string) (*Agent, *analytics.Queue) {
	t.Helper()

	queue := analytics.NewQueue(100)
	cfg := &config.NodeConfig{}
	cfg.Provider.Endpoint = providerURL
	cfg.Provider.RequestTimeout = 2 * time.Second
	cfg.Pools.CacheFile = filepath.Join(t.TempDir(), "pools.yaml")

	return New(cfg, queue), queue
}

func poolsYAML(monitoringURL string) []byte {
	return []byte(fmt.Sprintf(`
pools:
  - oracle_pool_id: alpha
    poll_interval: 1h
    monitoring:
      method: cloud
      url: %s
    scaling_limits: {min: 1, max: 5}
    thresholds:
      cpu: {min: 20, max: 70}
      ram: {min: 20, max: 80}
`, monitoringURL))
}

func TestAgent_ApplyConfigRunsPipelines(t *testing.T) {
	monitoring := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"pool_id": "alpha", "cpu_utilization": 50.0, "ram_utilization": 40.0, "sample_count": 5,
		})
	}))
	defer monitoring.Close()

	provider := &fakeProvider{size: 3}
	providerSrv := httptest.NewServer(provider.handler())
	defer providerSrv.Close()

	agent, queue := newTestAgent(t, providerSrv.URL)
	defer agent.Stop()

	require.NoError(t, agent.ApplyConfig(poolsYAML(monitoring.URL)))
	assert.NotEmpty(t, agent.ConfigHash())

	status, errMsg := agent.Status()
	assert.Equal(t, "active", status)
	assert.Empty(t, errMsg)

	// The first cycle runs on start; wait for its analytics record.
	require.Eventually(t, func() bool { return queue.Len() > 0 }, 3*time.Second, 20*time.Millisecond)

	batch := queue.Drain()
	require.NotEmpty(t, batch)
	rec := batch[0]
	assert.Equal(t, "alpha", rec.OraclePoolID)
	assert.Equal(t, 3, rec.CurrentInstances)
	assert.Equal(t, 50.0, rec.AvgCPUUtilization)
	assert.Empty(t, rec.ScalingEvent)
	assert.Equal(t, "within thresholds", rec.ScalingReason)

	assert.Equal(t, []string{"alpha"}, agent.RunningPools())
}

func TestAgent_InvalidConfigChangesNothing(t *testing.T) {
	monitoring := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"sample_count": 0})
	}))
	defer monitoring.Close()

	provider := &fakeProvider{size: 2}
	providerSrv := httptest.NewServer(provider.handler())
	defer providerSrv.Close()

	agent, _ := newTestAgent(t, providerSrv.URL)
	defer agent.Stop()

	require.NoError(t, agent.ApplyConfig(poolsYAML(monitoring.URL)))
	oldHash := agent.ConfigHash()

	err := agent.ApplyConfig([]byte("pools: []"))
	require.Error(t, err)

	// The running config survives a bad push, but the heartbeat
	// reports the error.
	assert.Equal(t, oldHash, agent.ConfigHash())
	assert.Equal(t, []string{"alpha"}, agent.RunningPools())

	status, errMsg := agent.Status()
	assert.Equal(t, "error", status)
	assert.Contains(t, errMsg, "no pools")
}

func TestAgent_LoadCachedMissingFileIsFine(t *testing.T) {
	agent, _ := newTestAgent(t, "http://localhost:9000")
	require.NoError(t, agent.LoadCached())
	assert.Empty(t, agent.ConfigHash())
}

func TestAgent_UnknownMonitoringMethodRejected(t *testing.T) {
	agent, _ := newTestAgent(t, "http://localhost:9000")

	err := agent.ApplyConfig([]byte(`
pools:
  - oracle_pool_id: alpha
    monitoring: {method: snmp, url: http://x}
    scaling_limits: {min: 1, max: 5}
    thresholds:
      cpu: {min: 20, max: 70}
      ram: {min: 20, max: 80}
`))
	require.Error(t, err)

	status, _ := agent.Status()
	assert.Equal(t, "error", status)
}
