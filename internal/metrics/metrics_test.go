package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := New()

	m.RecordOperation("theory.create", ResultOK)
	m.RecordOperation("theory.create", ResultOK)
	m.RecordOperation("comment.update", ResultUnauthorized)
	m.RecordTokenIssued()
	m.RecordTokenResolution(true)
	m.RecordTokenResolution(false)
	m.RecordQuery(3*time.Millisecond, 15)
	m.RecordHTTPRequest(http.MethodGet, "/api/v1/theories", http.StatusOK, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("theory.create", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("comment.update", ResultUnauthorized)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokensIssued))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokenResolutions.WithLabelValues("anonymous")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/theories", "200")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordOperation("x", ResultOK)
		m.RecordQuery(time.Second, 1)
		m.RecordTokenIssued()
		m.RecordTokenResolution(true)
		m.RecordHTTPRequest("GET", "/", 200, time.Second)
		m.RegisterEntityGauges(nil)
	})
}

func TestMetrics_HandlerExposesEntityGauges(t *testing.T) {
	m := New()
	m.RegisterEntityGauges(func(ctx context.Context) (int64, int64, int64, error) {
		return 3, 20, 7, nil
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `forum_entities{kind="theory"} 20`), body)
	assert.True(t, strings.Contains(body, `forum_entities{kind="comment"} 7`))
	assert.True(t, strings.Contains(body, `forum_entities{kind="user"} 3`))
}

func TestMetrics_EntityGaugeError(t *testing.T) {
	m := New()
	m.RegisterEntityGauges(func(ctx context.Context) (int64, int64, int64, error) {
		return 0, 0, 0, errors.New("backend down")
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `forum_entities{kind="user"} -1`)
}
