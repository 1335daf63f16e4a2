package main

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/yemun/blog/internal/commentservice"
	"github.com/yemun/blog/internal/common"
)

func (app *application) logError(r *http.Request, err error) {
	var (
		method  = r.Method
		url     = r.URL.RequestURI()
		message = err.Error()
	)

	app.logger.Error(message, slog.String("method", method), slog.String("url", url))
}

func (app *application) writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
	err := app.writeJSON(w, status, envelope{"error": message}, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
}

func (app *application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	message := "the server encountered a problem and could not process your request"
	app.writeErrorResponse(w, r, http.StatusInternalServerError, message)
}

func (app *application) badRequestErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.writeErrorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *application) notFoundErrorResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusNotFound, "resource not found")
}

func (app *application) failedValidationErrorResponse(w http.ResponseWriter, r *http.Request, errors map[string]string) {
	app.writeErrorResponse(w, r, http.StatusUnprocessableEntity, errors)
}

func (app *application) forbiddenErrorResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusForbidden, "email does not match the comment author")
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusUnauthorized, "Unauthorized")
}

func (app *application) methodNotAllowedErrorResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func (app *application) serviceUnavailableErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	app.writeErrorResponse(w, r, http.StatusServiceUnavailable, "the comment store is unavailable")
}

func (app *application) gatewayTimeoutErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	app.writeErrorResponse(w, r, http.StatusGatewayTimeout, "the comment store did not respond in time")
}

// commentErrorResponse maps comment service errors onto status codes.
func (app *application) commentErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr common.ValidationError

	switch {
	case errors.As(err, &validationErr):
		app.failedValidationErrorResponse(w, r, validationErr.Errors)
	case errors.Is(err, commentservice.ErrRecordNotFound):
		app.notFoundErrorResponse(w, r)
	case errors.Is(err, commentservice.ErrEmailMismatch):
		app.forbiddenErrorResponse(w, r)
	case errors.Is(err, commentservice.ErrStoreTimeout):
		app.gatewayTimeoutErrorResponse(w, r, err)
	case errors.Is(err, commentservice.ErrNotConfigured), errors.Is(err, commentservice.ErrStoreUnavailable):
		app.serviceUnavailableErrorResponse(w, r, err)
	default:
		app.serverErrorResponse(w, r, err)
	}
}
