package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ignitecall/ignitecall/internal/scheduling"
	"github.com/ignitecall/ignitecall/libs/auth"
)

const (
	sessionCookie = "ignitecall_session"
	sessionTTL    = 7 * 24 * time.Hour
)

// UserHandler serves the owner-facing endpoints: onboarding, profile and the
// schedulings list. All but registration require the session cookie set at
// registration time.
type UserHandler struct {
	svc          *scheduling.Service
	logger       *slog.Logger
	jwtSecret    string
	secureCookie bool
}

func NewUserHandler(svc *scheduling.Service, logger *slog.Logger, jwtSecret string, secureCookie bool) *UserHandler {
	return &UserHandler{
		svc:          svc,
		logger:       logger,
		jwtSecret:    jwtSecret,
		secureCookie: secureCookie,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

type registerResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	user, err := h.svc.RegisterUser(r.Context(), req.Username, req.Name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	now := time.Now()
	token, err := auth.SignHS256(auth.Claims{
		Sub:      user.ID,
		Username: user.Username,
		Iat:      now.Unix(),
		Exp:      now.Add(sessionTTL).Unix(),
	}, h.jwtSecret)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusCreated, registerResponse{
		ID:       user.ID,
		Username: user.Username,
		Name:     user.Name,
	})
}

type updateProfileRequest struct {
	Bio string `json:"bio"`
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := h.session(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	if err := h.svc.UpdateProfile(r.Context(), claims.Sub, req.Bio); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type timeIntervalsRequest struct {
	Intervals []scheduling.IntervalInput `json:"intervals"`
}

func (h *UserHandler) SaveTimeIntervals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := h.session(w, r)
	if !ok {
		return
	}

	var req timeIntervalsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	if _, err := h.svc.SaveTimeIntervals(r.Context(), claims.Sub, req.Intervals); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

type schedulingItem struct {
	ID         string `json:"id"`
	Date       string `json:"date"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Notes      string `json:"observations,omitempty"`
	SyncStatus string `json:"calendarSyncStatus"`
	CreatedAt  string `json:"createdAt"`
}

func (h *UserHandler) ListSchedulings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := h.session(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	views, err := h.svc.ListSchedulings(r.Context(), claims.Sub, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	items := make([]schedulingItem, 0, len(views))
	for _, v := range views {
		items = append(items, schedulingItem{
			ID:         v.ID,
			Date:       v.Date.UTC().Format(time.RFC3339),
			Name:       v.Name,
			Email:      v.Email,
			Notes:      v.Notes,
			SyncStatus: v.SyncStatus,
			CreatedAt:  v.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *UserHandler) session(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return nil, false
	}
	claims, err := auth.ParseAndVerifyHS256(cookie.Value, h.jwtSecret)
	if err != nil {
		http.Error(w, "invalid session", http.StatusUnauthorized)
		return nil, false
	}
	return claims, true
}
