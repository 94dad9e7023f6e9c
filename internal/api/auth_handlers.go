package api

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"time"

	"vaultify/internal/auth"
	"vaultify/internal/database"
	"vaultify/internal/identity"
	"vaultify/internal/models"

	"github.com/google/uuid"
)

const minPasswordLength = 8

var errInvalidRefreshToken = errors.New("invalid or expired refresh token")

type CredentialsRequest struct {
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"password123"`
}

type TokenResponse struct {
	AccessToken  string       `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...."`
	RefreshToken string       `json:"refresh_token" example:"V1StGXR8_Z5jdHi6B-myT78q_Z5jdHi6"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID    string `json:"id" example:"6f1c7d1e-1b9f-4c0e-9d3a-2f5b8e7a1c44"`
	Email string `json:"email" example:"alice@example.com"`
}

// issueTokens opens a new refresh-token session for user inside q's
// transaction and returns the token pair.
func (s *Server) issueTokens(ctx context.Context, q database.Querier, r *http.Request, user *models.User) (*TokenResponse, error) {
	accessToken, err := auth.GenerateJWT(user, s.config.JWT.Secret, s.config.JWT.AccessTTL)
	if err != nil {
		return nil, err
	}

	refreshToken := auth.NewRefreshToken()
	err = q.CreateSession(ctx, database.CreateSessionParams{
		ID:           uuid.New(),
		UserID:       user.ID,
		RefreshToken: refreshToken,
		UserAgent:    r.UserAgent(),
		ClientIP:     r.RemoteAddr,
		ExpiresAt:    time.Now().Add(s.config.JWT.RefreshTTL),
	})
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         UserResponse{ID: user.ID, Email: user.Email},
	}, nil
}

// @Summary      Sign up
// @Description  Creates an account and logs it in.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        signupRequest  body      CredentialsRequest  true  "Email and password"
// @Success      201            {object}  TokenResponse
// @Failure      400            {object}  ErrorResponse
// @Failure      409            {object}  ErrorResponse "Email already registered"
// @Failure      500            {object}  ErrorResponse
// @Router       /auth/signup [post]
func (s *Server) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	email := identity.NormalizeEmail(req.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		writeError(w, http.StatusBadRequest, "A valid email is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error(r.Context(), "hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	var tokens *TokenResponse
	err = s.store.ExecTx(r.Context(), func(q database.Querier) error {
		user, err := q.CreateUser(r.Context(), database.CreateUserParams{
			ID:           uuid.NewString(),
			Email:        email,
			PasswordHash: hash,
		})
		if err != nil {
			return err
		}
		tokens, err = s.issueTokens(r.Context(), q, r, user)
		return err
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "An account with that email already exists")
			return
		}
		s.logger.Error(r.Context(), "signup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	s.logger.Info(r.Context(), "user signed up", "user_id", tokens.User.ID)
	writeJSON(w, http.StatusCreated, tokens)
}

// @Summary      Logs a user in
// @Description  Authenticates a user and returns a short-lived access token and a long-lived refresh token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        loginRequest   body      CredentialsRequest  true  "Login Credentials"
// @Success      200            {object}  TokenResponse
// @Failure      400            {object}  ErrorResponse "Invalid request body"
// @Failure      401            {object}  ErrorResponse "Invalid email or password"
// @Failure      500            {object}  ErrorResponse
// @Router       /auth/login [post]
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var tokens *TokenResponse
	var badCredentials bool
	err := s.store.ExecTx(r.Context(), func(q database.Querier) error {
		user, err := q.GetUserByEmail(r.Context(), identity.NormalizeEmail(req.Email))
		if err != nil {
			return err
		}
		if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
			badCredentials = true
			return nil
		}
		tokens, err = s.issueTokens(r.Context(), q, r, user)
		return err
	})
	if err != nil {
		s.logger.Error(r.Context(), "login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process login session")
		return
	}
	if badCredentials {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" example:"V1StGXR8_Z5jdHi6B-myT78q_Z5jdHi6"`
}

// @Summary      Refresh access token
// @Description  Provides a new short-lived access token and a new refresh token in exchange for a valid, non-expired refresh token. Implements refresh token rotation.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        refreshTokenRequest   body      RefreshTokenRequest  true  "Refresh Token"
// @Success      200                   {object}  TokenResponse
// @Failure      400                   {object}  ErrorResponse "Invalid request body or missing token"
// @Failure      401                   {object}  ErrorResponse "Invalid or expired refresh token"
// @Failure      500                   {object}  ErrorResponse
// @Router       /auth/refresh [post]
func (s *Server) RefreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	var tokens *TokenResponse
	txErr := s.store.ExecTx(r.Context(), func(q database.Querier) error {
		user, err := q.GetUserByRefreshToken(r.Context(), req.RefreshToken)
		if err != nil {
			return err
		}
		if user == nil {
			return errInvalidRefreshToken
		}

		if err := q.DeleteSessionByRefreshToken(r.Context(), req.RefreshToken); err != nil {
			return err
		}

		tokens, err = s.issueTokens(r.Context(), q, r, user)
		return err
	})

	if txErr != nil {
		if errors.Is(txErr, errInvalidRefreshToken) {
			writeError(w, http.StatusUnauthorized, txErr.Error())
		} else {
			s.logger.Error(r.Context(), "refresh token transaction failed", "error", txErr)
			writeError(w, http.StatusInternalServerError, "Failed to refresh token")
		}
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

// @Summary      Log out
// @Description  Ends the session that owns the given refresh token. Unknown tokens are ignored.
// @Tags         auth
// @Accept       json
// @Param        logoutRequest  body      RefreshTokenRequest  true  "Refresh Token"
// @Success      204            {null}    nil "No Content"
// @Failure      400            {object}  ErrorResponse
// @Failure      500            {object}  ErrorResponse
// @Router       /auth/logout [post]
func (s *Server) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := decodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	err := s.store.ExecTx(r.Context(), func(q database.Querier) error {
		return q.DeleteSessionByRefreshToken(r.Context(), req.RefreshToken)
	})
	if err != nil {
		s.logger.Error(r.Context(), "logout failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to log out")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
