package checks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jwebframework/jweb/health"
)

func TestHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/slow":
			time.Sleep(30 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		case "/auth":
			if r.Header.Get("X-Probe") != "1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	tests := []struct {
		name     string
		path     string
		opts     []HTTPOption
		want     health.State
		wantCode int
	}{
		{name: "ok", path: "/ok", want: health.StateUp, wantCode: 200},
		{name: "server error", path: "/fail", want: health.StateDown, wantCode: 500},
		{name: "header", path: "/auth", opts: []HTTPOption{WithHeader("X-Probe", "1")}, want: health.StateUp, wantCode: 204},
		{name: "missing header", path: "/auth", want: health.StateDown, wantCode: 401},
		{
			name:     "accept custom status",
			path:     "/fail",
			opts:     []HTTPOption{WithAcceptStatus(func(code int) bool { return code < 600 })},
			want:     health.StateUp,
			wantCode: 500,
		},
		{
			name:     "slow",
			path:     "/slow",
			opts:     []HTTPOption{WithDegradedLatency(time.Millisecond)},
			want:     health.StateDegraded,
			wantCode: 200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]HTTPOption{WithHTTPClient(srv.Client())}, tt.opts...)
			status, err := HTTP(srv.URL+tt.path, opts...).Check(context.Background())
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if status.State != tt.want {
				t.Errorf("State = %v, want %v (%s)", status.State, tt.want, status.Message)
			}
			if status.Details["statusCode"] != tt.wantCode {
				t.Errorf("statusCode = %v, want %d", status.Details["statusCode"], tt.wantCode)
			}
		})
	}
}

func TestHTTP_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	status, err := HTTP(url, WithMethod(http.MethodHead)).Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !status.IsDown() {
		t.Errorf("State = %v, want DOWN", status.State)
	}
	if status.Details["error"] == nil {
		t.Error("error detail should be set")
	}
}

func TestHTTP_InvalidURL(t *testing.T) {
	if _, err := HTTP("://bad").Check(context.Background()); err == nil {
		t.Error("Check() should fail for an invalid URL")
	}
}
