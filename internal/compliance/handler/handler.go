// Package handler is the thin HTTP layer over the compliance service. It
// owns request parsing and response mapping; business logic stays in the
// service.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"staywatch/internal/compliance/models"
	"staywatch/internal/compliance/service"
	"staywatch/internal/engine"
	"staywatch/pkg/domain"
	dErrors "staywatch/pkg/domain-errors"
)

type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register wires all compliance endpoints onto the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/subjects/{subjectID}", func(r chi.Router) {
		r.Post("/intervals", h.handleAddInterval)
		r.Get("/intervals", h.handleListIntervals)
		r.Delete("/intervals", h.handlePurgeSubject)
		r.Put("/intervals/{intervalID}", h.handleUpdateInterval)
		r.Delete("/intervals/{intervalID}", h.handleExcludeInterval)
		r.Get("/status", h.handleStatus)
		r.Get("/forecast", h.handleForecast)
	})
	r.Post("/overview", h.handleOverview)
	r.Route("/zones", func(r chi.Router) {
		r.Get("/", h.handleListZoneRules)
		r.Put("/{zone}", h.handleUpsertZoneRule)
		r.Get("/{zone}", h.handleGetZoneRule)
		r.Delete("/{zone}", h.handleDeleteZoneRule)
	})
}

func (h *Handler) handleAddInterval(w http.ResponseWriter, r *http.Request) {
	subjectID, err := subjectParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req models.IntervalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	raw, err := req.Parse()
	if err != nil {
		h.writeError(w, err)
		return
	}

	record, err := h.svc.AddInterval(r.Context(), subjectID, raw)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, record)
}

func (h *Handler) handleListIntervals(w http.ResponseWriter, r *http.Request) {
	subjectID, err := subjectParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	records, err := h.svc.ListIntervals(r.Context(), subjectID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handlePurgeSubject(w http.ResponseWriter, r *http.Request) {
	subjectID, err := subjectParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.svc.PurgeSubject(r.Context(), subjectID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUpdateInterval(w http.ResponseWriter, r *http.Request) {
	subjectID, err := subjectParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	intervalID, err := domain.ParseIntervalID(chi.URLParam(r, "intervalID"))
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid interval id"))
		return
	}
	var req models.IntervalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	raw, err := req.Parse()
	if err != nil {
		h.writeError(w, err)
		return
	}

	record, err := h.svc.UpdateInterval(r.Context(), subjectID, intervalID, raw)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

func (h *Handler) handleExcludeInterval(w http.ResponseWriter, r *http.Request) {
	subjectID, err := subjectParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	intervalID, err := domain.ParseIntervalID(chi.URLParam(r, "intervalID"))
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid interval id"))
		return
	}
	if err := h.svc.ExcludeInterval(r.Context(), subjectID, intervalID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	subjectID, err := subjectParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	ref, err := optionalDate(r, "date")
	if err != nil {
		h.writeError(w, err)
		return
	}

	res, err := h.svc.Status(r.Context(), subjectID, ref)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleForecast(w http.ResponseWriter, r *http.Request) {
	subjectID, err := subjectParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	stayDays, err := strconv.Atoi(r.URL.Query().Get("stay_days"))
	if err != nil {
		h.writeError(w, dErrors.New(dErrors.CodeInvalidInput, "stay_days must be an integer"))
		return
	}
	from, err := optionalDate(r, "from")
	if err != nil {
		h.writeError(w, err)
		return
	}

	res, err := h.svc.Forecast(r.Context(), subjectID, stayDays, from)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	var req models.OverviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	subjectIDs := make([]domain.SubjectID, 0, len(req.SubjectIDs))
	for _, raw := range req.SubjectIDs {
		id, err := domain.ParseSubjectID(raw)
		if err != nil {
			h.writeError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid subject id"))
			return
		}
		subjectIDs = append(subjectIDs, id)
	}
	var ref *engine.Date
	if req.Date != "" {
		d, err := engine.ParseDate(req.Date)
		if err != nil {
			h.writeError(w, err)
			return
		}
		ref = &d
	}

	res, err := h.svc.Overview(r.Context(), subjectIDs, ref)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleUpsertZoneRule(w http.ResponseWriter, r *http.Request) {
	zone, err := domain.ParseZone(chi.URLParam(r, "zone"))
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid zone"))
		return
	}
	var req models.ZoneRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	rule := models.ZoneRule{Zone: zone, Counted: req.Counted, Note: req.Note}
	if err := h.svc.UpsertZoneRule(r.Context(), rule); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rule)
}

func (h *Handler) handleGetZoneRule(w http.ResponseWriter, r *http.Request) {
	zone, err := domain.ParseZone(chi.URLParam(r, "zone"))
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid zone"))
		return
	}
	rule, err := h.svc.ZoneRule(r.Context(), zone)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rule)
}

func (h *Handler) handleListZoneRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.svc.ZoneRules(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rules)
}

func (h *Handler) handleDeleteZoneRule(w http.ResponseWriter, r *http.Request) {
	zone, err := domain.ParseZone(chi.URLParam(r, "zone"))
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid zone"))
		return
	}
	if err := h.svc.DeleteZoneRule(r.Context(), zone); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func subjectParam(r *http.Request) (domain.SubjectID, error) {
	id, err := domain.ParseSubjectID(chi.URLParam(r, "subjectID"))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid subject id")
	}
	return id, nil
}

func optionalDate(r *http.Request, param string) (*engine.Date, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return nil, nil
	}
	d, err := engine.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil && h.logger != nil {
		h.logger.Error("encode response failed", "error", err)
	}
}

// writeError centralizes domain error translation so every endpoint
// returns the same JSON error envelope.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)
	if status >= http.StatusInternalServerError && h.logger != nil {
		h.logger.Error("request failed", "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": string(code),
	})
}
