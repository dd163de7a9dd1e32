package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/GoSim-25-26J-441/telemetry-backend/internal/platform/logger"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/telemetry/service"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/telemetry/validator"
	"github.com/gin-gonic/gin"
)

// MaxBodyBytes bounds the size of a submission body
const MaxBodyBytes = 1 << 20

type Handler struct {
	svc *service.IngestService
	log *logger.Logger
}

func New(svc *service.IngestService, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{svc: svc, log: log}
}

// Submit accepts one telemetry submission
func (h *Handler) Submit(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	if _, err := h.svc.Submit(c.Request.Context(), body); err != nil {
		if errors.Is(err, service.ErrInvalidSubmission) {
			resp := gin.H{"error": "invalid submission"}
			var se *validator.SubmissionError
			if errors.As(err, &se) {
				resp["details"] = se.Problems
			} else {
				resp["details"] = err.Error()
			}
			c.JSON(http.StatusBadRequest, resp)
			return
		}
		h.log.Error("failed to store telemetry", "error", err, "request_id", c.GetString("request_id"))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store telemetry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "OK"})
}

// Schema serves the composed project schema
func (h *Handler) Schema(c *gin.Context) {
	doc, err := h.svc.Schema(c.Request.Context())
	if err != nil {
		h.log.Error("failed to compose schema", "error", err, "request_id", c.GetString("request_id"))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compose schema"})
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", doc)
}
