package main

import (
	"context"
	"net/http"

	"github.com/yemun/blog/internal/contentservice"
)

type contextKey string

const localeContextKey = contextKey("locale")

func (app *application) createLocaleContext(r *http.Request, locale contentservice.Locale) *http.Request {
	ctx := context.WithValue(r.Context(), localeContextKey, locale)
	return r.WithContext(ctx)
}

func (app *application) getLocaleContext(r *http.Request) contentservice.Locale {
	locale, ok := r.Context().Value(localeContextKey).(contentservice.Locale)
	if !ok {
		return contentservice.DefaultLocale
	}
	return locale
}
