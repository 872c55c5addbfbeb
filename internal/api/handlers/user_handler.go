package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/guildvault/internal/auth"
	"github.com/isdelr/guildvault/internal/services"
)

// UserHandler handles dashboard operator login.
type UserHandler struct {
	service      services.AuthServiceProvider
	tokens       *auth.TokenIssuer
	secureCookie bool
}

// NewUserHandler creates a new UserHandler. secureCookie marks the token
// cookie as HTTPS only.
func NewUserHandler(service services.AuthServiceProvider, tokens *auth.TokenIssuer, secureCookie bool) *UserHandler {
	return &UserHandler{service: service, tokens: tokens, secureCookie: secureCookie}
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login checks the operator credentials and issues a token.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.service.AuthenticateUser(payload.Username, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Failed authentication attempt")
		http.Error(w, "Invalid credentials", statusFor(err))
		return
	}

	token, err := h.tokens.GenerateJWT(user)
	if err != nil {
		log.Error().Err(err).Str("username", user.Username).Msg("Failed to generate JWT")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Expires:  time.Now().Add(h.tokens.TTL()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// GetMe returns the operator identified by the request's token.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user claims from context")
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"username": claims.Username,
		"admin":    claims.Admin,
	})
}

// Logout clears the token cookie.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
	w.WriteHeader(http.StatusNoContent)
}
