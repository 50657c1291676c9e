package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(_ context.Context) error {
	return s.err
}

func TestServerHandler(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name       string
		store      Pinger
		path       string
		wantStatus int
	}{
		{name: "healthz", store: nil, path: "/healthz", wantStatus: http.StatusOK},
		{name: "ready without store", store: nil, path: "/readyz", wantStatus: http.StatusOK},
		{name: "ready with healthy store", store: stubPinger{}, path: "/readyz", wantStatus: http.StatusOK},
		{name: "ready with failing store", store: stubPinger{err: errors.New("down")}, path: "/readyz", wantStatus: http.StatusServiceUnavailable},
		{name: "metrics", store: nil, path: "/metrics", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(tt.store, 0, &logger)
			rec := httptest.NewRecorder()

			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
