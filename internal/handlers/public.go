package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ignitecall/ignitecall/internal/scheduling"
)

// PublicHandler serves the visitor-facing endpoints of a user's scheduling
// page.
type PublicHandler struct {
	svc    *scheduling.Service
	logger *slog.Logger
}

func NewPublicHandler(svc *scheduling.Service, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{svc: svc, logger: logger}
}

func (h *PublicHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	username := strings.TrimSpace(r.URL.Query().Get("username"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))

	result, err := h.svc.Availability(r.Context(), username, date)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *PublicHandler) BlockedDates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	username := strings.TrimSpace(r.URL.Query().Get("username"))
	year := queryInt(r, "year")
	month := queryInt(r, "month")

	result, err := h.svc.BlockedDates(r.Context(), username, year, month)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type scheduleRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Notes    string `json:"observations"`
	Date     string `json:"date"`
}

type scheduleResponse struct {
	SchedulingID string `json:"schedulingId"`
}

func (h *PublicHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	created, err := h.svc.CreateScheduling(r.Context(), strings.TrimSpace(req.Username), scheduling.CreateSchedulingInput{
		Name:  req.Name,
		Email: req.Email,
		Notes: req.Notes,
		Date:  req.Date,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, scheduleResponse{SchedulingID: created.ID})
}

// queryInt returns 0 for missing or malformed values; the service reports the
// field violation.
func queryInt(r *http.Request, key string) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
