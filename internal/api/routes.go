package api

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vocalis-app/vocalis/domain"
	"github.com/vocalis-app/vocalis/domain/entities"
	"github.com/vocalis-app/vocalis/internal/auth"
	"github.com/vocalis-app/vocalis/internal/notify"
	"github.com/vocalis-app/vocalis/usecase"
)

// Handlers bundles the services behind the HTTP surface.
type Handlers struct {
	vocabulary     *usecase.VocabularyService
	transcriptions *usecase.TranscriptionService
	corrections    *usecase.CorrectionService
	hub            *notify.Hub
	jwt            *auth.JWT
	logger         *zap.Logger
}

// NewHandlers creates the HTTP handler set
func NewHandlers(
	vocabulary *usecase.VocabularyService,
	transcriptions *usecase.TranscriptionService,
	corrections *usecase.CorrectionService,
	hub *notify.Hub,
	jwt *auth.JWT,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		vocabulary:     vocabulary,
		transcriptions: transcriptions,
		corrections:    corrections,
		hub:            hub,
		jwt:            jwt,
		logger:         logger,
	}
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, h *Handlers) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "vocalis-server",
		})
	})

	// Provider-facing callback, authenticated out of band by the
	// provider integration, not by user tokens.
	e.POST("/api/v1/transcriptions/callback", h.transcriptionCallback)

	v1 := e.Group("/api/v1", h.requireUser)

	v1.GET("/phrases", h.listPhrases)
	v1.POST("/phrases", h.addPhrase)
	v1.DELETE("/phrases/:text", h.removePhrase)

	v1.POST("/transcriptions", h.submitTranscription)
	v1.GET("/transcriptions/:id", h.getTranscription)

	v1.POST("/corrections", h.submitCorrections)

	v1.GET("/ws", h.notifications)
}

// requireUser extracts and validates the bearer token, stashing the
// user id on the request context.
func (h *Handlers) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var token string
		authHeader := c.Request().Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = authHeader[7:]
		}
		if token == "" {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "missing_token",
				Message: "Bearer token is required",
			})
		}

		claims, err := h.jwt.ValidateToken(token)
		if err != nil {
			h.logger.Warn("Token validation failed", zap.Error(err))
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "invalid_token",
				Message: "Invalid or expired token",
			})
		}

		c.Set("user_id", claims.UserID)
		return next(c)
	}
}

func userID(c echo.Context) string {
	id, _ := c.Get("user_id").(string)
	return id
}

func (h *Handlers) listPhrases(c echo.Context) error {
	phrases, err := h.vocabulary.ListPhrases(c.Request().Context(), userID(c))
	if err != nil {
		return h.fail(c, err)
	}
	if phrases == nil {
		phrases = entities.VocabularySnapshot{}
	}
	return c.JSON(http.StatusOK, ListPhrasesResponse{Phrases: phrases})
}

func (h *Handlers) addPhrase(c echo.Context) error {
	var req AddPhraseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.Boost == 0 {
		req.Boost = usecase.DefaultBoost
	}

	result, err := h.vocabulary.AddPhrase(c.Request().Context(), userID(c), req.Text, req.Boost)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, mutationResponse(result))
}

func (h *Handlers) removePhrase(c echo.Context) error {
	result, err := h.vocabulary.RemovePhrase(c.Request().Context(), userID(c), c.Param("text"))
	if err != nil {
		return h.fail(c, err)
	}
	if !result.Applied {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Phrase not found",
		})
	}
	return c.JSON(http.StatusOK, mutationResponse(result))
}

func mutationResponse(result *usecase.MutationResult) PhraseMutationResponse {
	resp := PhraseMutationResponse{Applied: result.Applied}
	if !result.Synced {
		resp.Warning = "saved locally, recognition bias not yet updated"
	}
	return resp
}

func (h *Handlers) submitTranscription(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_file",
			Message: "Audio file is required",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return h.fail(c, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return h.fail(c, err)
	}

	audio := entities.AudioPayload{
		Data:     data,
		MIMEType: declaredMIME(fileHeader.Filename, fileHeader.Header.Get("Content-Type")),
	}

	outcome, err := h.transcriptions.Submit(c.Request().Context(), userID(c), audio)
	if err != nil {
		return h.fail(c, err)
	}

	if outcome.Async {
		return c.JSON(http.StatusAccepted, TranscriptionResponse{
			Status: string(entities.JobStatusProcessing),
			JobID:  outcome.JobID,
		})
	}

	return c.JSON(http.StatusOK, TranscriptionResponse{
		Status:       string(entities.JobStatusCompleted),
		Text:         outcome.Result.BestText(),
		EnhancedText: outcome.Result.EnhancedText,
		Alternatives: outcome.Result.Alternatives,
		AudioPreview: outcome.Result.AudioPreview,
	})
}

func (h *Handlers) getTranscription(c echo.Context) error {
	job, err := h.transcriptions.GetJob(c.Request().Context(), userID(c), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, JobResponse{
		JobID:  job.ProviderJobID,
		Status: job.Status,
		Result: job.Result,
	})
}

func (h *Handlers) transcriptionCallback(c echo.Context) error {
	var req CallbackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid callback format",
		})
	}
	if req.ProviderJobID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "provider_job_id is required",
		})
	}

	failed := strings.EqualFold(req.Status, "failed") || strings.EqualFold(req.Status, "error")
	applied, err := h.transcriptions.ResolveCallback(
		c.Request().Context(), req.ProviderJobID, failed, req.Error, req.Alternatives)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, CallbackResponse{Accepted: true, Duplicate: !applied})
}

func (h *Handlers) submitCorrections(c echo.Context) error {
	var req CorrectionsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.Boost == 0 {
		req.Boost = usecase.DefaultBoost
	}

	result, err := h.corrections.SubmitCorrections(c.Request().Context(), userID(c), req.Pairs, req.Boost)
	if err != nil {
		return h.fail(c, err)
	}

	resp := CorrectionsResponse{Added: result.Added}
	if !result.Synced {
		resp.Warning = "saved locally, recognition bias not yet updated"
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handlers) notifications(c echo.Context) error {
	return h.hub.Serve(c, userID(c))
}

// fail maps domain errors onto HTTP statuses. Raw provider detail stays
// in the logs; the caller gets the short categorized message.
func (h *Handlers) fail(c echo.Context, err error) error {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: ve.Reason,
		})
	}
	if errors.Is(err, domain.ErrUnknownJob) {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "unknown_job",
			Message: "No transcription job matches that id",
		})
	}

	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		h.logger.Error("Provider failure",
			zap.String("provider", pe.Provider),
			zap.String("stage", pe.Stage),
			zap.Error(pe.Err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "provider_failed",
			Message: "The " + pe.Stage + " backend is unavailable, try again later",
		})
	}

	h.logger.Error("Unhandled error", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "Something went wrong",
	})
}

// declaredMIME resolves the payload MIME type from the filename
// extension, falling back to the multipart header.
func declaredMIME(filename, headerType string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".flac":
		return "audio/flac"
	}
	if headerType != "" {
		return headerType
	}
	return "application/octet-stream"
}
