package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"portal/pkg/gate"
	"portal/pkg/user"
)

type FieldError struct {
	Location string `json:"location"`
	Param    string `json:"param"`
	Value    string `json:"value"`
	Msg      string `json:"msg"`
}

type UserHandler struct {
	Service user.ServiceInterface
	Logger  *slog.Logger
}

func NewUserHandler(service user.ServiceInterface, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		Service: service,
		Logger:  logger,
	}
}

// Create registers an account. Routed behind the gate and an admin role check.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var form user.RegisterForm
	if ok := DecodeJSONBody(w, r, &form); !ok {
		return
	}

	created, err := h.Service.Register(r.Context(), form)
	switch {
	case err == nil:
	case errors.Is(err, user.ErrUserExists):
		WriteResp(w, h.Logger, map[string]any{
			"errors": []FieldError{
				{
					Location: "body",
					Param:    "username",
					Value:    form.Username,
					Msg:      "already exists",
				},
			},
		}, http.StatusUnprocessableEntity)
		return
	case errors.Is(err, user.ErrInvalidForm):
		writeError(w, http.StatusBadRequest, typeMessage, err.Error())
		return
	default:
		h.Logger.Error("register", "error", err.Error())
		writeError(w, http.StatusInternalServerError, typeMessage, "internal server error")
		return
	}

	if ok := WriteResp(w, h.Logger, map[string]any{"user": created}, http.StatusCreated); ok {
		by, _ := gate.SummaryFromContext(r.Context())
		h.Logger.Info("register", "user", created.ID, "by", by.ID)
	}
}
