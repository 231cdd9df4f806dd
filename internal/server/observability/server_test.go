package observability

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveAuth(t *testing.T) {
	t.Parallel()
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveAuth("signin", "ok", 10*time.Millisecond)
	m.ObserveAuth("signin", "InvalidCredentials", time.Millisecond)
	m.ObserveAuth("signin", "InvalidCredentials", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthTotal.WithLabelValues("signin", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthTotal.WithLabelValues("signin", "InvalidCredentials")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.AuthDuration))
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()
	s := NewServer(":0", logging.Discard(), nil)
	s.Metrics().ObserveAuth("signup", "ok", time.Millisecond)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "gophauth_auth_operations_total")
	assert.Contains(t, body, `operation="signup"`)
	assert.Contains(t, body, "go_goroutines")
}

func TestRouter_Healthz(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		ready ReadinessChecker
		code  int
	}{
		{"no checker", nil, http.StatusOK},
		{"ready", func(context.Context) error { return nil }, http.StatusOK},
		{"db down", func(context.Context) error { return errors.New("db down") }, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := NewServer(":0", logging.Discard(), tt.ready)
			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	t.Parallel()
	s := NewServer("", logging.Discard(), nil)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + lis.Addr().String() + "/healthz")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok", strings.TrimSpace(string(b)))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
