package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/skulipro/authcore"
	"github.com/skulipro/authcore/directory"
	"github.com/skulipro/authcore/middleware"
)

type issueLinkRequest struct {
	SchoolID string `json:"schoolId" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Phone    string `json:"phone" validate:"required,startswith=255,numeric,min=12,max=12"`
}

type activateRequest struct {
	Token string `json:"token" validate:"required,max=2048"`
}

// issueLinkResponse adds the pending-registration reference to the
// delivery report. The reference is what the activation step completes.
type issueLinkResponse struct {
	*authcore.ActionLinkResult
	Reference string `json:"reference"`
}

// LinkHandler serves invitation and activation links.
type LinkHandler struct {
	engine    *authcore.Engine
	directory directory.Store
}

func NewLinkHandler(engine *authcore.Engine, dir directory.Store) *LinkHandler {
	return &LinkHandler{engine: engine, directory: dir}
}

// Issue sends an activation link for the role in the path. The caller's own
// identity supplies the SMS sender label.
func (h *LinkHandler) Issue(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		write(w, nil, authcore.ErrTokenInvalid)
		return
	}
	var req issueLinkRequest
	if !decode(w, r, &req) {
		return
	}

	issuer, err := h.directory.FindByID(r.Context(), session.IdentityID)
	if err != nil {
		write(w, nil, authcore.ErrStoreUnavailable)
		return
	}

	reference := uuid.NewString()
	res, err := h.engine.IssueActionLink(r.Context(), authcore.ActionLinkRequest{
		Role:       chi.URLParam(r, "role"),
		TenantID:   clean(req.SchoolID),
		Reference:  reference,
		Phone:      clean(req.Phone),
		Email:      clean(req.Email),
		SenderName: issuer.SenderName,
	})
	if err != nil {
		write(w, nil, err)
		return
	}
	out := authcore.ResultOf(res, nil)
	out.Payload = issueLinkResponse{ActionLinkResult: res, Reference: reference}
	middleware.WriteResult(w, out)
}

// Activate consumes an action token. The token is spent before the
// response is written.
func (h *LinkHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.engine.ConsumeActionToken(r.Context(), clean(req.Token))
	if err != nil {
		write(w, nil, err)
		return
	}
	write(w, res, nil)
}
