package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/yemun/blog/internal/contentservice"
	"golang.org/x/text/language"
)

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.serverErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (app *application) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			ip     = r.RemoteAddr
			method = r.Method
			proto  = r.Proto
			uri    = r.URL.RequestURI()
		)

		app.logger.Info("request from", slog.String("method", method), slog.String("uri", uri), slog.String("remote_addr", ip), slog.String("proto", proto))

		next.ServeHTTP(w, r)
	})
}

func (app *application) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Origin")
		w.Header().Add("Vary", "Access-Control-Request-Method")

		origin := r.Header.Get("Origin")
		if origin == "" || !slices.Contains(app.config.TrustedOrigins, origin) {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)

		// preflight
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.Header().Set("Access-Control-Allow-Methods", "OPTIONS, GET, POST, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

var localeMatcher = language.NewMatcher([]language.Tag{language.Korean, language.English})

// detectLocale picks the request locale from ?locale, then Accept-Language.
func (app *application) detectLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept-Language")

		locale, ok := contentservice.ParseLocale(r.URL.Query().Get("locale"))
		if !ok {
			locale = matchLocale(r.Header.Get("Accept-Language"))
		}

		next.ServeHTTP(w, app.createLocaleContext(r, locale))
	})
}

func matchLocale(acceptLanguage string) contentservice.Locale {
	if acceptLanguage == "" {
		return contentservice.DefaultLocale
	}

	_, index, confidence := localeMatcher.Match(parseAcceptLanguage(acceptLanguage)...)
	if confidence == language.No {
		return contentservice.DefaultLocale
	}

	return contentservice.SupportedLocales[index]
}

func parseAcceptLanguage(s string) []language.Tag {
	tags, _, err := language.ParseAcceptLanguage(s)
	if err != nil {
		return nil
	}
	return tags
}
