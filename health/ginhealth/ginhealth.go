// Package ginhealth exposes a health.Registry on a gin router with the same
// routes and payloads as health.Mount.
package ginhealth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwebframework/jweb/health"
)

// Handler serves health reports from a registry.
type Handler struct {
	reg *health.Registry
}

// NewHandler returns a Handler backed by reg.
func NewHandler(reg *health.Registry) *Handler {
	return &Handler{reg: reg}
}

// Register adds the health routes to router under prefix:
//
//	GET {prefix}/health
//	GET {prefix}/health/live
//	GET {prefix}/health/ready
//	GET {prefix}/health/:name
func Register(router gin.IRouter, prefix string, reg *health.Registry) {
	h := NewHandler(reg)
	paths := health.Paths(prefix)

	router.GET(paths.Health, h.Health)
	router.GET(paths.Liveness, h.Liveness)
	router.GET(paths.Readiness, h.Readiness)
	router.GET(paths.Health+"/:name", h.Component)
}

// Health responds with the general report.
func (h *Handler) Health(c *gin.Context) {
	report := h.reg.Check(c.Request.Context())
	respond(c, report.HTTPStatus(), report)
}

// Liveness responds with the liveness report.
func (h *Handler) Liveness(c *gin.Context) {
	report := h.reg.CheckLiveness(c.Request.Context())
	respond(c, report.HTTPStatus(), report)
}

// Readiness responds with the readiness report.
func (h *Handler) Readiness(c *gin.Context) {
	report := h.reg.CheckReadiness(c.Request.Context())
	respond(c, report.HTTPStatus(), report)
}

// Component responds with the status of the general check named by the
// :name path parameter, or 404 when no such check is registered.
func (h *Handler) Component(c *gin.Context) {
	name := c.Param("name")

	report, err := h.reg.CheckComponent(c.Request.Context(), name)
	if errors.Is(err, health.ErrCheckNotFound) {
		respond(c, http.StatusNotFound, health.NotFoundResponse{
			Error:     err.Error(),
			Component: name,
		})
		return
	}

	respond(c, report.HTTPStatus(), report)
}

func respond(c *gin.Context, code int, body any) {
	code, data := health.EncodeResponse(code, body)

	c.Header("Cache-Control", "no-cache, no-store")
	c.Data(code, "application/json", data)
}
