package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"portal/pkg/auth"
	"portal/pkg/middleware"
)

type LoginForm struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

// Carrier signs session ids into the token handed to clients.
type Carrier interface {
	Encode(sessionID string, issuedAt, expiresAt time.Time) (string, error)
	Decode(carrier string) (string, error)
}

type AuthHandler struct {
	Service      auth.ServiceInterface
	Carriers     Carrier
	Logger       *slog.Logger
	SecureCookie bool
}

func NewAuthHandler(service auth.ServiceInterface, carriers Carrier, logger *slog.Logger, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		Service:      service,
		Carriers:     carriers,
		Logger:       logger,
		SecureCookie: secureCookie,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginForm
	if ok := DecodeJSONBody(w, r, &req); !ok {
		return
	}

	sess, err := h.Service.Login(r.Context(), req.Identifier, req.Secret)
	if err != nil {
		// credential failures are already audited by the authenticator
		if auth.HTTPStatus(err) != http.StatusUnauthorized {
			h.Logger.Error("login", "error", err.Error())
		}
		writeError(w, auth.HTTPStatus(err), typeMessage, auth.PublicMessage(err))
		return
	}

	token, err := h.Carriers.Encode(sess.ID, sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		h.Logger.Error("token signing", "error", err)
		// the session can never be presented, so drop it
		_ = h.Service.Logout(r.Context(), sess.ID)
		writeError(w, http.StatusInternalServerError, typeMessage, auth.MsgInternal)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	WriteResp(w, h.Logger, map[string]any{
		"sessionSummary": sess.Summary,
		"token":          token,
		"expiresAt":      sess.ExpiresAt,
	}, http.StatusOK)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if carrier := middleware.ExtractCarrier(r); carrier != "" {
		if sessionID, err := h.Carriers.Decode(carrier); err == nil {
			_ = h.Service.Logout(r.Context(), sessionID)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	WriteResp(w, h.Logger, map[string]any{"success": true}, http.StatusOK)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	unauthenticated := map[string]any{"authenticated": false}

	carrier := middleware.ExtractCarrier(r)
	if carrier == "" {
		WriteResp(w, h.Logger, unauthenticated, http.StatusUnauthorized)
		return
	}

	sessionID, err := h.Carriers.Decode(carrier)
	if err != nil {
		WriteResp(w, h.Logger, unauthenticated, http.StatusUnauthorized)
		return
	}

	summary, err := h.Service.CurrentUser(r.Context(), sessionID)
	if err != nil {
		WriteResp(w, h.Logger, unauthenticated, http.StatusUnauthorized)
		return
	}

	WriteResp(w, h.Logger, map[string]any{
		"authenticated":  true,
		"sessionSummary": summary,
	}, http.StatusOK)
}
