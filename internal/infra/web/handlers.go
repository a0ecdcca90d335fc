package web

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"subscription-billing/internal/domain"
	"subscription-billing/internal/domain/model"
	"subscription-billing/internal/infra/logging"
	red "subscription-billing/internal/infra/redis"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.subUC.GetPlan(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error retrieving subscription plan")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

type initiateRequest struct {
	PlanID string `json:"planId"`
}

func (s *Server) handleInitiate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := UserID(ctx)

	var req initiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlanID == "" {
		writeError(w, http.StatusBadRequest, "planId is required")
		return
	}

	res, err := s.subUC.Initiate(ctx, userID, req.PlanID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidPlan):
			writeError(w, http.StatusBadRequest, "Invalid plan ID")
		case errors.Is(err, domain.ErrAlreadySubscribed):
			writeError(w, http.StatusPaymentRequired, "User already has an active subscription")
		default:
			logging.With(ctx, s.log).Error().Err(err).Msg("initiate subscription failed")
			writeError(w, http.StatusInternalServerError, "Error processing subscription request")
		}
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

type cancelRequest struct {
	EffectiveDate string `json:"effectiveDate,omitempty"`
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := UserID(ctx)

	var req cancelRequest
	if r.Body != nil {
		// Body is optional; an empty or absent body means cancel now.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	var effective *time.Time
	if req.EffectiveDate != "" {
		t, err := time.Parse(time.RFC3339, req.EffectiveDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "effectiveDate must be RFC 3339")
			return
		}
		effective = &t
	}

	res, err := s.subUC.Cancel(ctx, userID, effective)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoActiveSubscription):
			writeError(w, http.StatusNotFound, "No active subscription found to cancel")
		default:
			logging.With(ctx, s.log).Error().Err(err).Msg("cancel subscription failed")
			writeError(w, http.StatusInternalServerError, "Error canceling subscription")
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := UserID(ctx)

	res, err := s.subUC.Status(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "No subscription found")
		default:
			logging.With(ctx, s.log).Error().Err(err).Msg("subscription status failed")
			writeError(w, http.StatusInternalServerError, "Error retrieving subscription status")
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var event model.PaymentEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid webhook payload")
		return
	}

	if err := s.hookUC.HandleEvent(ctx, &event); err != nil {
		if errors.Is(err, domain.ErrInvalidWebhookPayload) {
			writeError(w, http.StatusBadRequest, "Invalid webhook payload")
			return
		}
		logging.With(ctx, s.log).Error().Err(err).Msg("webhook processing failed")
		writeError(w, http.StatusInternalServerError, "Error processing webhook")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.userUC.Register(ctx, req.Email, req.Name, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, "email and a password of at least 8 characters are required")
		case errors.Is(err, domain.ErrEmailTaken):
			writeError(w, http.StatusConflict, "Email already registered")
		default:
			logging.With(ctx, s.log).Error().Err(err).Msg("register failed")
			writeError(w, http.StatusInternalServerError, "Error registering user")
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": user.ID, "email": user.Email, "name": user.Name})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !s.allowLogin(r) {
		writeError(w, http.StatusTooManyRequests, "Too many attempts, try again later")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.userUC.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		logging.With(ctx, s.log).Error().Err(err).Msg("login failed")
		writeError(w, http.StatusInternalServerError, "Error logging in")
		return
	}

	token, err := s.auth.Mint(user.ID)
	if err != nil {
		logging.With(ctx, s.log).Error().Err(err).Msg("token mint failed")
		writeError(w, http.StatusInternalServerError, "Error logging in")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := s.userUC.Profile(ctx, UserID(ctx))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		logging.With(ctx, s.log).Error().Err(err).Msg("profile lookup failed")
		writeError(w, http.StatusInternalServerError, "Error retrieving user profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":        user.ID,
		"email":     user.Email,
		"name":      user.Name,
		"createdAt": user.CreatedAt,
		"updatedAt": user.UpdatedAt,
	})
}

// allowLogin rate limits credential attempts per client IP. Limiter outages
// fail open; losing throttling is better than locking everyone out.
func (s *Server) allowLogin(r *http.Request) bool {
	if s.limiter == nil {
		return true
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	ok, err := s.limiter.Allow(r.Context(), red.LoginKey(ip), s.loginLimit, s.loginWindow)
	if err != nil {
		return true
	}
	return ok
}
