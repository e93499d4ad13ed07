package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ExoPexodus/crimson-cloud-command/internal/resilience"
)

func TestCloudCollector_GetMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pools/ocid1.instancepool.oc1..test/metrics", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"pool_id":"ocid1.instancepool.oc1..test","cpu_utilization":62.5,"ram_utilization":41.0,"sample_count":12}`))
	}))
	defer server.Close()

	c := NewCloudCollector(CloudConfig{
		BaseURL: server.URL,
		PoolID:  "ocid1.instancepool.oc1..test",
	})

	cpu, ram, err := c.GetMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 62.5, cpu)
	assert.Equal(t, 41.0, ram)
}

func TestCloudCollector_NoSamples(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pool_id":"p","cpu_utilization":0,"ram_utilization":0,"sample_count":0}`))
	}))
	defer server.Close()

	c := NewCloudCollector(CloudConfig{BaseURL: server.URL, PoolID: "p"})

	cpu, ram, err := c.GetMetrics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, cpu)
	assert.Zero(t, ram)
}

func TestCloudCollector_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewCloudCollector(CloudConfig{BaseURL: server.URL, PoolID: "p"})

	_, _, err := c.GetMetrics(context.Background())
	assert.ErrorIs(t, err, ErrCollectionFailed)
}

func TestCloudCollector_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	c := NewCloudCollector(CloudConfig{BaseURL: server.URL, PoolID: "p"})

	_, _, err := c.GetMetrics(context.Background())
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestResilientCollector_RetriesThenSucceeds(t *testing.T) {
	mock := NewMockCollector(55.0, 33.0)
	mock.Fail(errors.New("transient"))

	r := NewResilientCollector(mock, ResilientConfig{
		PoolID:     "p",
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	})

	_, _, err := r.GetMetrics(context.Background())
	require.Error(t, err)
	assert.Equal(t, 3, mock.Calls())

	mock.Fail(nil)
	cpu, ram, err := r.GetMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 55.0, cpu)
	assert.Equal(t, 33.0, ram)
}

func TestResilientCollector_BreakerOpens(t *testing.T) {
	mock := NewMockCollector(0, 0)
	mock.Fail(errors.New("down"))

	r := NewResilientCollector(mock, ResilientConfig{
		PoolID:     "p",
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
		Breaker: resilience.CircuitBreakerConfig{
			FailureThreshold: 3,
			ResetTimeout:     time.Hour,
		},
	})

	_, _, err := r.GetMetrics(context.Background())
	require.Error(t, err)
	assert.Equal(t, resilience.StateOpen, r.BreakerState())

	// Circuit is open now, the inner collector must not be called again.
	before := mock.Calls()
	_, _, err = r.GetMetrics(context.Background())
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, before, mock.Calls())
}

func TestNew_UnknownMethod(t *testing.T) {
	_, err := New(Options{Method: "snmp", PoolID: "p"})
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestNew_CloudMethod(t *testing.T) {
	c, err := New(Options{Method: MethodCloud, PoolID: "p", URL: "http://localhost:9000"})
	require.NoError(t, err)
	assert.IsType(t, &ResilientCollector{}, c)
}
