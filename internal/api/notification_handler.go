package api

import (
	"log/slog"
	"net/http"

	"github.com/naskhq/nask/internal/api/shared"
	"github.com/naskhq/nask/internal/domain"
	"github.com/naskhq/nask/internal/notify"
)

// NotificationHandler handles the liveness probe and notification
// ingestion on the root path.
type NotificationHandler struct {
	ingest *notify.IngestService
	logger *slog.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(ingest *notify.IngestService, logger *slog.Logger) *NotificationHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for NotificationHandler")
	}

	return &NotificationHandler{
		ingest: ingest,
		logger: logger.With(slog.String("component", "notification_handler")),
	}
}

// Health handles GET / requests as a liveness probe.
func (h *NotificationHandler) Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"task": "nask"})
}

// Ingest handles POST / requests carrying a self-reported task snapshot.
func (h *NotificationHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r,
			http.StatusUnprocessableEntity, "Invalid notification body", err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r,
			http.StatusUnprocessableEntity, "Invalid notification data", err)
		return
	}

	outcome, err := h.ingest.Ingest(r.Context(), notify.Report{
		ID:     domain.TaskID(req.ID),
		Status: domain.TaskStatus(req.Status),
		Result: req.Result,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, IngestResponse{Status: string(outcome)})
}
