package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/callpulse-hq/callpulse/errors"
	dto "github.com/callpulse-hq/callpulse/internal/adapter/dto/call"
	"github.com/callpulse-hq/callpulse/internal/usecase/pipeline"
	"github.com/callpulse-hq/callpulse/pkg/ai"
)

// signatureHeader carries the hex HMAC of the raw webhook body
const signatureHeader = "X-Webhook-Signature"

// Webhook handles transcription provider callbacks
type Webhook struct {
	service *pipeline.Service
	secret  string
	logger  *zap.Logger
}

// NewWebhook creates the webhook handler. An empty secret disables
// signature verification.
func NewWebhook(service *pipeline.Service, secret string, logger *zap.Logger) *Webhook {
	return &Webhook{service: service, secret: secret, logger: logger}
}

// Transcription processes an AssemblyAI status callback. The body carries
// only the transcript id and status. A non-2xx response makes the provider
// retry the delivery, so only retryable failures return errors; everything
// the pipeline settled, including no-ops, acknowledges with 200.
func (h *Webhook) Transcription(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidPayload())
	}

	if h.secret != "" {
		signature := c.Request().Header.Get(signatureHeader)
		if !ai.VerifyHMAC(h.secret, body, signature) {
			h.logger.Warn("webhook signature rejected",
				zap.String("remote", c.RealIP()),
			)
			return c.JSON(http.StatusUnauthorized, errs{
				Code:    apperrors.ErrorCode_UNAUTHENTICATED,
				Message: "Invalid webhook signature",
			})
		}
	}

	var req dto.TranscriptionWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument(err.Error()))
	}

	h.logger.Info("transcription callback received",
		zap.String("provider_job_id", req.TranscriptID),
		zap.String("status", req.Status),
	)

	if err := h.service.HandleTranscriptionCallback(c.Request().Context(), req.TranscriptID, req.Status); err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, http.StatusOK, nil)
}
