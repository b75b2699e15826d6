package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"kirana/internal/auth"
	"kirana/internal/domain"
	apperrors "kirana/internal/errors"
)

type UserRepository interface {
	FindByID(ctx context.Context, id uint64) (*domain.User, error)
}

// TokenController mints JWTs for known users. The real OTP login flow lives
// outside this service; this endpoint stands in for it.
type TokenController struct {
	users    UserRepository
	secret   string
	tokenTTL time.Duration
	logger   *zap.Logger
}

func NewTokenController(users UserRepository, secret string, tokenTTL time.Duration, logger *zap.Logger) *TokenController {
	return &TokenController{
		users:    users,
		secret:   secret,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

type tokenRequest struct {
	UserID uint64 `json:"userId"`
}

type tokenResponse struct {
	Token  string `json:"token"`
	UserID uint64 `json:"userId"`
	Role   string `json:"role"`
}

func (c *TokenController) Mint(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "VALIDATION_ERROR",
			"message": "userId must be a positive integer",
		})
		return
	}

	user, err := c.users.FindByID(r.Context(), req.UserID)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error":   "NOT_FOUND",
				"message": err.Error(),
			})
			return
		}
		c.logger.Error("looking up user", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "INTERNAL_ERROR",
			"message": "an unexpected error occurred",
		})
		return
	}

	token, err := auth.MintToken(c.secret, c.tokenTTL, user)
	if err != nil {
		c.logger.Error("minting token", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "INTERNAL_ERROR",
			"message": "an unexpected error occurred",
		})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		Token:  token,
		UserID: user.ID,
		Role:   string(user.Role),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
