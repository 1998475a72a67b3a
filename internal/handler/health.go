package handler

import (
	"net/http"

	"github.com/deolamide/wallex/internal/errHandler"
	"github.com/deolamide/wallex/internal/response"
	"github.com/deolamide/wallex/internal/version"
)

type HealthHandler struct {
	ErrHandler *errHandler.ErrorRepository
}

func NewHealthHandler(errHandler *errHandler.ErrorRepository) *HealthHandler {
	return &HealthHandler{ErrHandler: errHandler}
}

func (h *HealthHandler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	data := map[string]string{
		"status":  "OK",
		"version": version.Get(),
	}

	err := response.JSONOkResponse(w, data, "", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
