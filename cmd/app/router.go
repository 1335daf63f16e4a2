package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)

	// content service
	router.HandlerFunc(http.MethodGet, "/v1/posts", app.listPostsHandler)
	// Slugs may contain "/", so posts and their comments share one catch-all route.
	router.HandlerFunc(http.MethodGet, "/v1/posts/*path", app.getPostPathHandler)
	router.HandlerFunc(http.MethodPost, "/v1/posts/*path", app.postPostPathHandler)
	router.HandlerFunc(http.MethodGet, "/v1/search", app.searchPostsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/profile", app.getProfileHandler)

	// comment service
	router.HandlerFunc(http.MethodPut, "/v1/comments/:id", app.updateCommentHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/comments/:id", app.deleteCommentHandler)

	router.HandlerFunc(http.MethodGet, "/v1/revalidate", app.revalidateStatusHandler)
	router.HandlerFunc(http.MethodPost, "/v1/revalidate", app.revalidateHandler)

	return app.recoverPanic(app.logRequest(app.enableCORS(app.detectLocale(router))))
}
