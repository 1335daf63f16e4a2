package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yemun/blog/internal/contentservice"
)

func TestRecoverPanic(t *testing.T) {
	app := newTestApplication(t, testContent(), nil)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("something went wrong")
	})

	middleware := app.recoverPanic(handler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res := httptest.NewRecorder()

	middleware.ServeHTTP(res, req)

	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.Equal(t, "close", res.Header().Get("Connection"))
}

func TestEnableCORS(t *testing.T) {
	app := newTestApplication(t, testContent(), nil)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	testCases := []struct {
		name        string
		method      string
		origin      string
		preflight   bool
		wantStatus  int
		wantAllowed string
	}{
		{name: "no origin", method: http.MethodGet, wantStatus: http.StatusTeapot},
		{name: "untrusted origin", method: http.MethodGet, origin: "http://evil.example", wantStatus: http.StatusTeapot},
		{name: "trusted origin", method: http.MethodGet, origin: "http://localhost:3000", wantStatus: http.StatusTeapot, wantAllowed: "http://localhost:3000"},
		{name: "preflight", method: http.MethodOptions, origin: "http://localhost:3000", preflight: true, wantStatus: http.StatusOK, wantAllowed: "http://localhost:3000"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			if tc.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPut)
			}
			res := httptest.NewRecorder()

			app.enableCORS(next).ServeHTTP(res, req)

			assert.Equal(t, tc.wantStatus, res.Code)
			assert.Equal(t, tc.wantAllowed, res.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, res.Header().Values("Vary"), "Origin")
			if tc.preflight {
				assert.Contains(t, res.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
			}
		})
	}
}

func TestDetectLocale(t *testing.T) {
	app := newTestApplication(t, testContent(), nil)

	testCases := []struct {
		name           string
		query          string
		acceptLanguage string
		want           contentservice.Locale
	}{
		{name: "nothing", want: contentservice.LocaleKo},
		{name: "query", query: "?locale=en", want: contentservice.LocaleEn},
		{name: "query wins over header", query: "?locale=ko", acceptLanguage: "en", want: contentservice.LocaleKo},
		{name: "header", acceptLanguage: "en-GB,en;q=0.8", want: contentservice.LocaleEn},
		{name: "header korean", acceptLanguage: "ko-KR,ko;q=0.9,en;q=0.5", want: contentservice.LocaleKo},
		{name: "header weighted", acceptLanguage: "ko;q=0.2,en;q=0.9", want: contentservice.LocaleEn},
		{name: "unsupported header", acceptLanguage: "fr-FR", want: contentservice.LocaleKo},
		{name: "garbage header", acceptLanguage: ";;;", want: contentservice.LocaleKo},
		{name: "unsupported query", query: "?locale=jp", want: contentservice.LocaleKo},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var got contentservice.Locale
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = app.getLocaleContext(r)
			})

			req := httptest.NewRequest(http.MethodGet, "/"+tc.query, nil)
			if tc.acceptLanguage != "" {
				req.Header.Set("Accept-Language", tc.acceptLanguage)
			}

			app.detectLocale(next).ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tc.want, got)
		})
	}
}
