package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/samandr77/microservices/onboarding/internal/entity"
)

const errInternalText = "Internal error, please try again later"

type ErrorResponse struct {
	Kind    entity.Kind `json:"kind"`
	Message string      `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

var kindStatus = map[entity.Kind]int{
	entity.KindConflict:     http.StatusConflict,
	entity.KindUnauthorized: http.StatusUnauthorized,
	entity.KindNotFound:     http.StatusNotFound,
	entity.KindValidation:   http.StatusUnprocessableEntity,
	entity.KindRateLimited:  http.StatusTooManyRequests,
	entity.KindInternal:     http.StatusInternalServerError,
}

func SendErr(ctx context.Context, w http.ResponseWriter, code int, kind entity.Kind, err error, msg string) {
	if code >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, msg, "error", err.Error(), "http_code", code)
	} else {
		slog.InfoContext(ctx, msg, "error", err.Error(), "http_code", code)
	}

	SendJSON(ctx, w, code, ErrorResponse{Kind: kind, Message: msg})
}

// SendServiceErr answers with the status and message matching the error
// kind. Internal errors are logged but their text is not sent.
func SendServiceErr(ctx context.Context, w http.ResponseWriter, err error) {
	kind := entity.KindOf(err)

	code, ok := kindStatus[kind]
	if !ok {
		code = http.StatusInternalServerError
	}

	msg := errInternalText
	if public := entity.Public(err); public != nil {
		msg = publicText(public)
	}

	SendErr(ctx, w, code, kind, err, msg)
}

func SendBadRequest(ctx context.Context, w http.ResponseWriter, err error) {
	SendErr(ctx, w, http.StatusBadRequest, entity.KindValidation, err, "Malformed request")
}

func SendJSON(ctx context.Context, w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		slog.ErrorContext(ctx, "encode response", "error", err)
	}
}

var publicTexts = map[error]string{
	entity.ErrEmailInUse:              "An account with this email already exists",
	entity.ErrGovernmentEmailRequired: "Government accounts must register with a .gov email",
	entity.ErrVersionConflict:         "The onboarding was changed concurrently, please retry",
	entity.ErrInvalidOrExpiredCode:    "Invalid or expired code",
	entity.ErrInvalidCredentials:      "Invalid email or password",
	entity.ErrInvalidToken:            "Invalid or expired token",
	entity.ErrAccountNotFound:         "Account not found",
	entity.ErrEntityNotFound:          "Entity not found",
	entity.ErrTooManyRequests:         "Too many requests, please try again later",
	entity.ErrIncompleteRegistration:  "Entity name and type are required to start onboarding",
}

func publicText(err error) string {
	if text, ok := publicTexts[err]; ok {
		return text
	}

	return err.Error()
}
