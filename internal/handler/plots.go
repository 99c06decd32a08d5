package handler

import (
	"errors"
	"io"
	"net/http"

	"coinplot/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const (
	svgContentType = "image/svg+xml"
	fileIDError    = "File ID error"
)

// GetPlot godoc
// @Summary      Get a generated chart
// @Description  Returns a previously generated chart image for inline display
// @Tags         plots
// @Produce      image/svg+xml
// @Produce      plain
// @Param        id  query  string  true  "Chart identifier"
// @Success      200  {file}    file
// @Failure      400  {string}  string  "File ID error"
// @Router       /plts [get]
func (h *Handler) GetPlot(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-plot")
	defer span.End()

	id := c.Query("id")
	span.SetAttributes(attribute.String("id", id))

	rc, err := h.plots.Open(id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			h.log.Error().Err(err).Str("id", id).Msg("open plot")
		}
		c.String(http.StatusBadRequest, fileIDError)
		return
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("read plot")
		c.String(http.StatusBadRequest, fileIDError)
		return
	}

	c.Header("Content-Disposition", "inline")
	c.Data(http.StatusOK, svgContentType, data)
}
