package http

import "github.com/gin-gonic/gin"

// Register registers the telemetry routes. submit runs before the submission
// handler only, typically rate limiting.
func (h *Handler) Register(rg *gin.RouterGroup, submit ...gin.HandlerFunc) {
	rg.POST("", append(submit, h.Submit)...)
	rg.GET("/schema.json", h.Schema)
}
