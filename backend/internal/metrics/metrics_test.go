package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a := New(prometheus.NewRegistry())
	b := New(prometheus.NewRegistry())

	a.UsersLoaded.Set(12)
	assert.Equal(t, 12.0, testutil.ToFloat64(a.UsersLoaded))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.UsersLoaded))
}

func TestRecordRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordRequest("GET", "/health", 200, time.Millisecond)
	m.RecordRequest("GET", "/health", 204, time.Millisecond)
	m.RecordRequest("POST", "/api/users", 409, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/health", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "/api/users", "4xx")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.RequestDuration))
}

func TestRecordQueryAndTransition(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordQuery("exact", 3, nil)
	m.RecordQuery("exact", 0, errors.New("boom"))
	m.RecordTransition("request", nil)
	m.RecordTransition("request", errors.New("no suggestion"))
	m.RecordTransition("request", errors.New("no suggestion"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.MatchQueries.WithLabelValues("exact", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MatchQueries.WithLabelValues("exact", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("request", "rejected")))
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(200))
	assert.Equal(t, "3xx", statusClass(302))
	assert.Equal(t, "4xx", statusClass(404))
	assert.Equal(t, "5xx", statusClass(503))
}
