package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"lead-intake/internal/common/config"
	"lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/common/metrics"
	"lead-intake/internal/common/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RoutePath is the single inbound endpoint of the service.
const RoutePath = "/api/v1/leads/discovery-call"

type Handler struct {
	config  *Config
	logger  logger.Logger
	service *Service
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Dependencies ServiceDependencies
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	handlerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := handlerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for lead intake: %w", err)
	}

	var loggerInstance logger.Logger
	if opts.Logger != nil {
		loggerInstance = opts.Logger
	} else {
		loggerInstance = logger.NewStructured("info", "json")
	}

	deps := opts.Dependencies
	if deps.Logger == nil {
		deps.Logger = loggerInstance
	}

	handler := &Handler{
		config: handlerConfig,
		logger: loggerInstance,
	}
	handler.service = NewService(deps, handlerConfig)

	return handler, nil
}

// Register wires the intake route into the router. Any other method on the
// path answers 405 with the stable JSON body.
func (h *Handler) Register(router *gin.Engine) {
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, Result{
			Success: false,
			Message: "Method not allowed",
		})
	})
	router.POST(RoutePath, h.Handle)
}

func (h *Handler) Handle(c *gin.Context) {
	startTime := time.Now()
	requestID := uuid.New().String()

	if !h.config.Enabled {
		c.JSON(http.StatusServiceUnavailable, Result{
			Success: false,
			Message: "Lead intake is temporarily unavailable",
		})
		return
	}

	raw, err := c.GetRawData()
	if err != nil || len(raw) == 0 {
		h.rejectInvalid(c, requestID, "Invalid request body")
		return
	}

	validationResult, err := validation.ValidateJSON(raw, GetSubmissionSchema())
	if err != nil {
		// Malformed JSON lands here as well
		h.rejectInvalid(c, requestID, "Invalid request body")
		return
	}
	if !validationResult.Valid {
		h.rejectInvalid(c, requestID, "Validation failed: "+strings.Join(validationResult.GetErrorMessages(), "; "))
		return
	}

	var sub Submission
	if err := json.Unmarshal(raw, &sub); err != nil {
		h.rejectInvalid(c, requestID, "Invalid request body")
		return
	}

	h.logger.Info("Processing discovery call submission", map[string]interface{}{
		"requestId": requestID,
		"email":     sub.Email,
		"photos":    len(sub.Photos),
	})

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.config.RequestTimeout)
	defer cancel()

	result, err := h.service.Execute(ctx, &sub)
	if err != nil {
		stdErr := errors.Normalize(err)
		h.logger.Error("Discovery call submission failed", map[string]interface{}{
			"requestId": requestID,
			"errorCode": string(stdErr.Code),
			"details":   stdErr.Details,
		})
		metrics.IntakeRequestsTotal.WithLabelValues("server_error").Inc()
		c.JSON(errors.HTTPStatus(err), Result{
			Success: false,
			Message: errors.PublicMessage(err),
		})
		return
	}

	metrics.IntakeRequestsTotal.WithLabelValues("success").Inc()
	metrics.IntakeRequestDuration.Observe(time.Since(startTime).Seconds())

	h.logger.Info("Discovery call submission handled", map[string]interface{}{
		"requestId": requestID,
		"contactId": result.ContactID,
	})

	c.JSON(http.StatusOK, result)
}

func (h *Handler) rejectInvalid(c *gin.Context, requestID, message string) {
	h.logger.Warn("Rejected invalid submission", map[string]interface{}{
		"requestId": requestID,
		"reason":    message,
	})
	metrics.IntakeRequestsTotal.WithLabelValues("validation_error").Inc()
	c.JSON(http.StatusBadRequest, Result{
		Success: false,
		Message: message,
	})
}
