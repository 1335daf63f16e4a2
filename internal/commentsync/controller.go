package commentsync

import (
	"context"
	"log/slog"
	"strings"

	"github.com/yemun/blog/internal/commentservice"
	"github.com/yemun/blog/internal/common"
)

func NewController(store Store, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		store:  store,
		logger: logger,
		emails: make(map[string]string),
	}
}

// Mount attaches the controller to postSlug. It runs once per slug: a non-empty initial snapshot
// is used as is, an empty one triggers a fetch. Mounting a different slug starts over.
func (c *Controller) Mount(ctx context.Context, postSlug string, initial []commentservice.Comment) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mounted && c.slug == postSlug {
		return nil
	}

	c.slug = postSlug
	c.mounted = true
	c.comments = nil
	c.err = nil
	c.emails = make(map[string]string)

	if len(initial) > 0 {
		c.comments = append([]commentservice.Comment(nil), initial...)
		c.state = StateReady
		return nil
	}

	return c.fetch(ctx)
}

// fetch replaces the list with the store's. Callers hold c.mu.
func (c *Controller) fetch(ctx context.Context) error {
	c.state = StateLoading

	comments, err := c.store.ListComments(ctx, c.slug)
	if err != nil {
		c.state = StateError
		c.err = err
		c.logger.Warn("could not fetch comments", slog.String("slug", c.slug), slog.Any("error", err))
		return err
	}

	c.comments = comments
	c.state = StateReady
	c.err = nil

	return nil
}

// Retry repeats the fetch, typically after the controller entered StateError.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.mounted {
		return ErrNotMounted
	}

	return c.fetch(ctx)
}

func validateDraft(d Draft) error {
	v := common.NewValidator()
	v.Check(v.NotBlank(d.AuthorName), "author_name", "must be provided")
	v.Check(v.NotBlank(d.AuthorEmail), "author_email", "must be provided")
	v.Check(v.IsEmail(strings.TrimSpace(d.AuthorEmail)), "author_email", "must be a valid email address")
	v.Check(v.NotBlank(d.Content), "content", "must be provided")
	if !v.Valid() {
		return v.ValidationError()
	}
	return nil
}

// Submit validates the draft locally and sends it. A confirmed comment is appended to the end of
// the list without a re-fetch; a rejected one triggers a full re-fetch.
func (c *Controller) Submit(ctx context.Context, d Draft) (*Submission, error) {
	sub := &Submission{Draft: d, Status: StatusDraft}

	if err := validateDraft(d); err != nil {
		sub.Err = err
		return sub, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.mounted {
		sub.Err = ErrNotMounted
		return sub, ErrNotMounted
	}

	sub.Status = StatusSubmitted

	comment, err := c.store.CreateComment(ctx, &commentservice.CreateCommentRequest{
		PostSlug:    c.slug,
		AuthorName:  d.AuthorName,
		AuthorEmail: d.AuthorEmail,
		Content:     d.Content,
	})
	if err != nil || comment == nil {
		sub.Status = StatusRejected
		sub.Err = err
		c.logger.Warn("comment rejected", slog.String("slug", c.slug), slog.Any("error", err))

		// the list is reconciled even though the submission failed. The caller gets the
		// submit error; a failed reconcile is left in State and Err for Retry.
		if ferr := c.fetch(ctx); ferr != nil {
			c.logger.Warn("could not reconcile comments after rejection", slog.String("slug", c.slug), slog.Any("error", ferr))
		}
		return sub, err
	}

	c.emails[comment.ID] = strings.TrimSpace(d.AuthorEmail)
	c.appendComment(*comment)

	sub.Status = StatusConfirmed
	sub.Comment = comment

	return sub, nil
}

// appendComment puts comment last, dropping any earlier copy with the same id.
func (c *Controller) appendComment(comment commentservice.Comment) {
	kept := c.comments[:0:0]
	for _, existing := range c.comments {
		if existing.ID != comment.ID {
			kept = append(kept, existing)
		}
	}
	c.comments = append(kept, comment)
}

// authorize checks email against what this view knows about the comment. Callers hold c.mu.
//
// Only comments submitted through this controller, or loaded from a Store that exposes
// emails, can be rejected here. Comments listed over HTTP carry no email, so for those
// the mutation is sent and the server's own check answers with ErrEmailMismatch.
func (c *Controller) authorize(id, email string) error {
	if !c.mounted {
		return ErrNotMounted
	}

	for _, existing := range c.comments {
		if existing.ID != id {
			continue
		}

		known := existing.AuthorEmail
		if known == "" {
			known = c.emails[id]
		}
		// unknown locally: the store makes the same check before mutating
		if known != "" && !commentservice.EmailMatches(known, email) {
			return commentservice.ErrEmailMismatch
		}
		return nil
	}

	return ErrCommentNotFound
}

// Edit updates a comment after checking email locally, then re-fetches the list.
func (c *Controller) Edit(ctx context.Context, id, email string, req commentservice.UpdateCommentRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.authorize(id, email); err != nil {
		return err
	}

	if _, err := c.store.UpdateComment(ctx, id, email, &req); err != nil {
		return err
	}

	if req.AuthorEmail != nil {
		c.emails[id] = strings.TrimSpace(*req.AuthorEmail)
	}

	return c.fetch(ctx)
}

// Delete removes a comment after checking email locally, then re-fetches the list.
func (c *Controller) Delete(ctx context.Context, id, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.authorize(id, email); err != nil {
		return err
	}

	if err := c.store.DeleteComment(ctx, id, email); err != nil {
		return err
	}

	delete(c.emails, id)

	return c.fetch(ctx)
}

// Comments returns a copy of the current list, oldest first.
func (c *Controller) Comments() []commentservice.Comment {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]commentservice.Comment{}, c.comments...)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err is the error that put the controller into StateError, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Controller) Slug() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slug
}
