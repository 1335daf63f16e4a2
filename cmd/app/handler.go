package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/yemun/blog/internal/commentservice"
	"github.com/yemun/blog/internal/common"
	"github.com/yemun/blog/internal/contentservice"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
)

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func (app *application) listPostsHandler(w http.ResponseWriter, r *http.Request) {
	locale := app.getLocaleContext(r)
	posts := app.contentService.ListPosts(locale)

	err := app.writeJSON(w, http.StatusOK, envelope{"posts": posts, "count": len(posts), "locale": locale}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getPostPathHandler(w http.ResponseWriter, r *http.Request) {
	slug, comments := app.readPostPath(r)
	if slug == "" {
		app.notFoundErrorResponse(w, r)
		return
	}

	if comments {
		app.getCommentsHandler(w, r, slug)
		return
	}

	app.getPostHandler(w, r, slug)
}

func (app *application) postPostPathHandler(w http.ResponseWriter, r *http.Request) {
	slug, comments := app.readPostPath(r)
	if slug == "" || !comments {
		app.methodNotAllowedErrorResponse(w, r)
		return
	}

	app.createCommentHandler(w, r, slug)
}

func (app *application) getPostHandler(w http.ResponseWriter, r *http.Request, slug string) {
	details := app.contentService.ResolvePost(r.Context(), slug, app.getLocaleContext(r))
	if details.Post == nil {
		app.notFoundErrorResponse(w, r)
		return
	}

	env := envelope{
		"post":           details.Post,
		"adjacent_posts": details.AdjacentPosts,
		"comments":       details.Comments,
	}

	err := app.writeJSON(w, http.StatusOK, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getCommentsHandler(w http.ResponseWriter, r *http.Request, slug string) {
	comments, err := app.commentService.FetchComments(r.Context(), slug)
	if err != nil {
		app.logError(r, err)
		env := envelope{
			"error":     "Failed to fetch comments",
			"details":   err.Error(),
			"comments":  []commentservice.Comment{},
			"count":     0,
			"timestamp": timestamp(),
		}
		if err := app.writeJSON(w, http.StatusInternalServerError, env, nil); err != nil {
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"comments": comments, "count": len(comments), "timestamp": timestamp()}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) createCommentHandler(w http.ResponseWriter, r *http.Request, slug string) {
	var input struct {
		AuthorName  string `json:"author_name"`
		AuthorEmail string `json:"author_email"`
		Content     string `json:"content"`
	}

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	if !app.contentService.HasPost(slug) {
		app.notFoundErrorResponse(w, r)
		return
	}

	comment, err := app.commentService.CreateComment(r.Context(), &commentservice.CreateCommentRequest{
		PostSlug:    slug,
		AuthorName:  input.AuthorName,
		AuthorEmail: input.AuthorEmail,
		Content:     input.Content,
	})
	if err != nil {
		app.commentErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"comment": comment}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// authorizeComment checks email against the stored author before any mutation.
func (app *application) authorizeComment(w http.ResponseWriter, r *http.Request, id, email string) bool {
	v := common.NewValidator()
	v.Check(v.NotBlank(email), "email", "must be provided")
	if !v.Valid() {
		app.failedValidationErrorResponse(w, r, v.Errors)
		return false
	}

	_, err := app.commentService.AuthorizeComment(r.Context(), id, strings.TrimSpace(email))
	if err != nil {
		app.commentErrorResponse(w, r, err)
		return false
	}

	return true
}

func (app *application) updateCommentHandler(w http.ResponseWriter, r *http.Request) {
	id := app.readIDParam(r, "id")

	var input struct {
		Email       string  `json:"email"`
		Content     *string `json:"content"`
		AuthorName  *string `json:"author_name"`
		AuthorEmail *string `json:"author_email"`
	}

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	if !app.authorizeComment(w, r, id, input.Email) {
		return
	}

	comment, err := app.commentService.UpdateComment(r.Context(), id, &commentservice.UpdateCommentRequest{
		Content:     input.Content,
		AuthorName:  input.AuthorName,
		AuthorEmail: input.AuthorEmail,
	})
	if err != nil {
		app.commentErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"comment": comment}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	id := app.readIDParam(r, "id")

	var input struct {
		Email string `json:"email"`
	}

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	if !app.authorizeComment(w, r, id, input.Email) {
		return
	}

	deleted, err := app.commentService.DeleteComment(r.Context(), id)
	if err != nil {
		app.commentErrorResponse(w, r, err)
		return
	}
	if !deleted {
		app.notFoundErrorResponse(w, r)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "comment successfully deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) searchPostsHandler(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	v := common.NewValidator()
	v.Check(v.NotBlank(q), "q", "must be provided")
	if !v.Valid() {
		app.failedValidationErrorResponse(w, r, v.Errors)
		return
	}

	limit, err := app.readIntQuery(r, "limit", defaultSearchLimit)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}
	if limit == 0 || limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	locale := app.getLocaleContext(r)
	results, err := app.contentService.Search(q, locale, limit)
	if err != nil {
		switch {
		case errors.Is(err, contentservice.ErrInvalidQuery):
			app.badRequestErrorResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"results": results, "count": len(results), "locale": locale}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	profile := app.contentService.Profile(app.getLocaleContext(r))
	if profile == nil {
		app.notFoundErrorResponse(w, r)
		return
	}

	err := app.writeJSON(w, http.StatusOK, envelope{"profile": profile}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
