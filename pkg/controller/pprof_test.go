package controller_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"sitepaths/pkg/controller"

	"github.com/stretchr/testify/require"
)

func TestPprofMux(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle(controller.PprofPrefix, controller.PprofMux())

	tests := map[string]struct {
		path       string
		wantStatus int
	}{
		"index":         {path: "/debug/pprof/", wantStatus: http.StatusOK},
		"cmdline":       {path: "/debug/pprof/cmdline", wantStatus: http.StatusOK},
		"named profile": {path: "/debug/pprof/goroutine?debug=1", wantStatus: http.StatusOK},
		"unknown":       {path: "/debug/pprof/nope", wantStatus: http.StatusNotFound},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://pprof.local"+tt.path, nil)
			rec := httptest.NewRecorder()

			mux.ServeHTTP(rec, req)

			res := rec.Result()
			require.Equal(t, tt.wantStatus, res.StatusCode)
			require.NotEmpty(t, res.Header.Get("Content-Type"))
		})
	}
}
