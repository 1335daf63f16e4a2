package main

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
)

// revalidatedPaths are the read endpoints whose answers change after a reload.
var revalidatedPaths = []string{"/v1/posts", "/v1/posts/*path", "/v1/profile", "/v1/search"}

var blogEvents = []string{"entry.create", "entry.update", "entry.delete", "entry.publish", "entry.unpublish"}

const blogModel = "blog"

type webhookPayload struct {
	Event string `json:"event"`
	Model string `json:"model"`
	Entry *struct {
		ID any `json:"id"`
	} `json:"entry"`
}

func (app *application) revalidateStatusHandler(w http.ResponseWriter, r *http.Request) {
	env := envelope{
		"status":    "ok",
		"message":   "Revalidation endpoint is ready",
		"note":      "Supports both webhook and manual revalidation",
		"timestamp": timestamp(),
	}

	err := app.writeJSON(w, http.StatusOK, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) checkRevalidateToken(w http.ResponseWriter, r *http.Request) bool {
	if app.config.RevalidateToken == "" {
		app.logger.Error("revalidate token is not configured")
		app.writeErrorResponse(w, r, http.StatusInternalServerError, "Server configuration error")
		return false
	}

	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(app.config.RevalidateToken)) != 1 {
		app.unauthorizedErrorResponse(w, r)
		return false
	}

	return true
}

// readWebhook returns nil when the body is not a webhook payload. Such requests are manual revalidations.
func (app *application) readWebhook(w http.ResponseWriter, r *http.Request) *webhookPayload {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1_048_576))
	if err != nil || len(body) == 0 {
		return nil
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	if payload.Event == "" || payload.Model == "" {
		return nil
	}

	return &payload
}

func (app *application) revalidateHandler(w http.ResponseWriter, r *http.Request) {
	if !app.checkRevalidateToken(w, r) {
		return
	}

	webhook := app.readWebhook(w, r)

	if webhook != nil {
		var ignored string
		switch {
		case webhook.Model != blogModel:
			ignored = "Event ignored - not a blog entry"
		case !slices.Contains(blogEvents, webhook.Event):
			ignored = "Event ignored - not a relevant blog event"
		}

		if ignored != "" {
			app.logger.Info("revalidation skipped", slog.String("event", webhook.Event), slog.String("model", webhook.Model))
			if err := app.writeJSON(w, http.StatusOK, envelope{"message": ignored}, nil); err != nil {
				app.serverErrorResponse(w, r, err)
			}
			return
		}
	}

	if err := app.contentService.Reload(); err != nil {
		app.logError(r, err)
		env := envelope{"error": "Revalidation failed", "details": err.Error()}
		if err := app.writeJSON(w, http.StatusInternalServerError, env, nil); err != nil {
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	if err := app.commentService.InvalidateAll(r.Context()); err != nil {
		app.logger.Warn("failed to flush comment cache", slog.String("error", err.Error()))
	}

	env := envelope{
		"message":     "Manual revalidation successful",
		"type":        "manual",
		"revalidated": revalidatedPaths,
		"documents":   app.contentService.Count(),
		"timestamp":   timestamp(),
	}

	if webhook != nil {
		env["message"] = "Webhook revalidation successful"
		env["type"] = "webhook"
		env["event"] = webhook.Event
		env["model"] = webhook.Model
		if webhook.Entry != nil {
			env["entry"] = webhook.Entry.ID
		}
	}

	app.logger.Info("content revalidated", slog.String("type", env["type"].(string)), slog.Int("documents", app.contentService.Count()))

	err := app.writeJSON(w, http.StatusOK, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
