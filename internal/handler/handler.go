package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// PlotSource opens stored charts by identifier.
type PlotSource interface {
	Open(id string) (io.ReadCloser, error)
}

type Handler struct {
	tracer trace.Tracer
	log    zerolog.Logger
	plots  PlotSource
}

func New(tracer trace.Tracer, logger zerolog.Logger, plots PlotSource) *Handler {
	return &Handler{
		tracer: tracer,
		log:    logger,
		plots:  plots,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/plts", h.GetPlot)
}

// RegisterMCP mounts the MCP endpoint behind API key auth.
func RegisterMCP(r *gin.Engine, mcpHandler http.Handler, apiKey string) {
	r.Any("/mcp", APIKeyAuth(apiKey), gin.WrapH(mcpHandler))
}
