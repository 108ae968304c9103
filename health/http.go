package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// HealthHandler returns an HTTP handler reporting the general check set.
func HealthHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := reg.Check(r.Context())
		writeJSON(w, report.HTTPStatus(), report)
	}
}

// LivenessHandler returns an HTTP handler for liveness probes.
func LivenessHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := reg.CheckLiveness(r.Context())
		writeJSON(w, report.HTTPStatus(), report)
	}
}

// ReadinessHandler returns an HTTP handler for readiness probes.
func ReadinessHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := reg.CheckReadiness(r.Context())
		writeJSON(w, report.HTTPStatus(), report)
	}
}

// ComponentHandler returns an HTTP handler for a single general check.
// An empty name means the name is taken from the {name} path wildcard.
func ComponentHandler(reg *Registry, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		component := name
		if component == "" {
			component = r.PathValue("name")
		}

		report, err := reg.CheckComponent(r.Context(), component)
		if errors.Is(err, ErrCheckNotFound) {
			writeJSON(w, http.StatusNotFound, NotFoundResponse{
				Error:     err.Error(),
				Component: component,
			})
			return
		}

		writeJSON(w, report.HTTPStatus(), report)
	}
}

// NotFoundResponse is the body returned for an unknown component.
type NotFoundResponse struct {
	Error     string `json:"error"`
	Component string `json:"component"`
}

// Mount registers the health routes on mux under prefix:
//
//	GET {prefix}/health
//	GET {prefix}/health/live
//	GET {prefix}/health/ready
//	GET {prefix}/health/{name}
//
// The live and ready routes take precedence over components with those names.
func Mount(mux *http.ServeMux, prefix string, reg *Registry) {
	base := Paths(prefix)

	mux.HandleFunc("GET "+base.Health, HealthHandler(reg))
	mux.HandleFunc("GET "+base.Liveness, LivenessHandler(reg))
	mux.HandleFunc("GET "+base.Readiness, ReadinessHandler(reg))
	mux.HandleFunc("GET "+base.Health+"/{name}", ComponentHandler(reg, ""))
}

// RoutePaths holds the resolved health endpoint paths.
type RoutePaths struct {
	Health    string
	Liveness  string
	Readiness string
}

// Paths resolves the health endpoint paths under prefix. The prefix is given
// a leading slash and stripped of trailing slashes.
func Paths(prefix string) RoutePaths {
	prefix = strings.TrimRight(prefix, "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}

	health := prefix + "/health"
	return RoutePaths{
		Health:    health,
		Liveness:  health + "/live",
		Readiness: health + "/ready",
	}
}

// EncodeResponse renders body for a health response. When body cannot be
// encoded the result is a DOWN payload carrying the encoding error and code
// becomes 503, so callers always receive well-formed JSON.
func EncodeResponse(code int, body any) (int, []byte) {
	data, err := json.Marshal(body)
	if err != nil {
		data, _ = json.Marshal(map[string]string{
			"status": StateDown.String(),
			"error":  err.Error(),
		})
		code = http.StatusServiceUnavailable
	}
	return code, append(data, '\n')
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	code, data := EncodeResponse(code, body)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.WriteHeader(code)
	_, _ = w.Write(data)
}
