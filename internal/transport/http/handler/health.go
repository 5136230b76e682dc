package handler

import (
	"net/http"

	"github.com/skulipro/authcore"
	"github.com/skulipro/authcore/middleware"
)

// HealthHandler reports whether the counter store answers.
type HealthHandler struct {
	engine *authcore.Engine
}

func NewHealthHandler(engine *authcore.Engine) *HealthHandler {
	return &HealthHandler{engine: engine}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Health(r.Context()); err != nil {
		write(w, nil, err)
		return
	}
	res := authcore.ResultOf(nil, nil)
	res.Message = "ok"
	middleware.WriteResult(w, res)
}
