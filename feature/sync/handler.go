package sync

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"flightplan-bridge/core/logger"
	"flightplan-bridge/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for sync passes.
type Handler struct {
	service      *Service
	historyLimit int
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, historyLimit int) *Handler {
	if historyLimit <= 0 {
		historyLimit = 20
	}
	return &Handler{service: service, historyLimit: historyLimit}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Post("/run", h.HandleRun)
	group.Get("/runs", h.HandleRuns)
	group.Get("/runs/:id/flights", h.HandleRunFlights)
	group.Get("/status", h.HandleStatus)
}

type runRequest struct {
	DateFromUTC string `json:"date_from_utc" form:"date_from_utc" query:"date_from_utc"`
	DateToUTC   string `json:"date_to_utc" form:"date_to_utc" query:"date_to_utc"`
}

// HandleRun triggers a manual sync pass and waits for it.
// @Summary Run Sync Pass
// @Description Reconciles roster flights into the planning system. Without dates the rolling window is used.
// @Tags sync
// @Accept json
// @Produce json
// @Param date_from_utc query string false "Window start (UTC)"
// @Param date_to_utc query string false "Window end (UTC)"
// @Success 200 {object} reconcile.Result "Pass Result"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 409 {object} map[string]string "Pass Already Running"
// @Failure 502 {object} map[string]string "Remote System Unavailable"
// @Router /sync/run [post]
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req runRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}
	if req.DateFromUTC == "" && req.DateToUTC == "" {
		if err := c.QueryParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid query"})
		}
	}

	from, to, err := parseRange(req.DateFromUTC, req.DateToUTC)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	initiatedBy := c.Get("X-Initiated-By")
	if initiatedBy == "" {
		initiatedBy = "api"
	}

	l.Info("Manual sync requested", zap.String("initiated_by", initiatedBy))
	res, err := h.service.RunOnce(c.Context(), Trigger{Type: RunManual, InitiatedBy: initiatedBy, From: from, To: to})
	if err != nil {
		status := statusFor(err)
		if status != fiber.StatusConflict {
			l.Error("Manual sync failed", zap.Error(err))
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(res)
}

// HandleRuns lists recent passes.
// @Summary List Sync Runs
// @Description Returns the most recent recorded passes, newest first.
// @Tags sync
// @Produce json
// @Success 200 {array} SyncRun "Runs"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/runs [get]
func (h *Handler) HandleRuns(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", h.historyLimit)
	if limit <= 0 || limit > 200 {
		limit = h.historyLimit
	}
	runs, err := h.service.Recent(c.Context(), limit)
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Failed to list sync runs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if runs == nil {
		runs = []SyncRun{}
	}
	return c.JSON(runs)
}

// HandleRunFlights lists the flight outcomes of one pass.
// @Summary List Run Flights
// @Description Returns the per-flight log of a recorded pass.
// @Tags sync
// @Produce json
// @Param id path int true "Run ID"
// @Success 200 {array} SyncFlightLog "Flights"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 404 {object} map[string]string "Run Not Found"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/runs/{id}/flights [get]
func (h *Handler) HandleRunFlights(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid run id"})
	}

	flights, err := h.service.Flights(c.Context(), uint(id))
	if errors.Is(err, ErrRunNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Failed to list run flights", zap.Int("run_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if flights == nil {
		flights = []SyncFlightLog{}
	}
	return c.JSON(flights)
}

// HandleStatus reports whether a pass is running and the last outcome.
// @Summary Sync Status
// @Tags sync
// @Produce json
// @Success 200 {object} Status "Status"
// @Router /sync/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrRunInProgress):
		return fiber.StatusConflict
	case errors.Is(err, reconcile.ErrAuthentication), errors.Is(err, reconcile.ErrSourceUnavailable):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseUTC reads a timestamp. Values without an offset are taken as UTC.
func ParseUTC(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// parseRange returns nil bounds when both are empty. A single bound is an error.
func parseRange(fromRaw, toRaw string) (*time.Time, *time.Time, error) {
	if strings.TrimSpace(fromRaw) == "" && strings.TrimSpace(toRaw) == "" {
		return nil, nil, nil
	}
	if strings.TrimSpace(fromRaw) == "" || strings.TrimSpace(toRaw) == "" {
		return nil, nil, errors.New("date_from_utc and date_to_utc must be given together")
	}
	from, err := ParseUTC(fromRaw)
	if err != nil {
		return nil, nil, fmt.Errorf("date_from_utc: %w", err)
	}
	to, err := ParseUTC(toRaw)
	if err != nil {
		return nil, nil, fmt.Errorf("date_to_utc: %w", err)
	}
	if to.Before(from) {
		return nil, nil, errors.New("date_to_utc is before date_from_utc")
	}
	return &from, &to, nil
}
