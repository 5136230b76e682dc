package handler

import (
	"net/http"

	"github.com/skulipro/authcore"
	"github.com/skulipro/authcore/middleware"
)

type loginRequest struct {
	Username  string `json:"username" validate:"required,min=4,max=40"`
	Password  string `json:"password" validate:"required,min=8,max=40"`
	SessionID string `json:"sessionId" validate:"max=128"`
}

type verifyRequest struct {
	SessionID string `json:"sessionId" validate:"required,max=128"`
	OTP       string `json:"otpInput" validate:"required,numeric,max=10"`
}

type resendRequest struct {
	SessionID string `json:"sessionId" validate:"required,max=128"`
}

// AuthHandler serves the login, OTP, and session endpoints.
type AuthHandler struct {
	engine *authcore.Engine
}

func NewAuthHandler(engine *authcore.Engine) *AuthHandler {
	return &AuthHandler{engine: engine}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.engine.Login(r.Context(), authcore.LoginRequest{
		Username:  clean(req.Username),
		Password:  clean(req.Password),
		SessionID: clean(req.SessionID),
	})
	if err != nil {
		write(w, nil, err)
		return
	}
	write(w, res, nil)
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.engine.VerifyOTP(r.Context(), clean(req.SessionID), clean(req.OTP))
	if err != nil {
		write(w, nil, err)
		return
	}
	write(w, res, nil)
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.engine.ResendOTP(r.Context(), clean(req.SessionID))
	if err != nil {
		write(w, nil, err)
		return
	}
	write(w, res, nil)
}

// Logout revokes the bearer token. It is not guarded: a token that no longer
// validates is reported as invalid by the engine itself.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		write(w, nil, authcore.ErrTokenInvalid)
		return
	}
	if err := h.engine.Logout(r.Context(), token); err != nil {
		write(w, nil, err)
		return
	}
	res := authcore.ResultOf(nil, nil)
	res.Message = "Logged out successfully"
	middleware.WriteResult(w, res)
}

// Me returns the session stored by middleware.Guard.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		write(w, nil, authcore.ErrTokenInvalid)
		return
	}
	write(w, session, nil)
}
