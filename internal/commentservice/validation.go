package commentservice

import (
	"strings"

	"github.com/google/uuid"
	"github.com/yemun/blog/internal/common"
)

const (
	maxAuthorNameLength = 50
	maxContentLength    = 2000
)

func validatePostSlug(v *common.Validator, slug string) {
	v.Check(v.NotBlank(slug), "post_slug", "must be provided")
}

func validateAuthorName(v *common.Validator, name string) {
	v.Check(v.NotBlank(name), "author_name", "must be provided")
	v.Check(v.CheckStringLength(name, 0, maxAuthorNameLength), "author_name", "must not be more than 50 characters long")
}

func validateAuthorEmail(v *common.Validator, email string) {
	v.Check(v.NotBlank(email), "author_email", "must be provided")
	v.Check(v.IsEmail(email), "author_email", "must be a valid email address")
}

func validateContent(v *common.Validator, content string) {
	v.Check(v.NotBlank(content), "content", "must be provided")
	v.Check(v.CheckStringLength(content, 0, maxContentLength), "content", "must not be more than 2000 characters long")
}

func validateID(v *common.Validator, id string) {
	_, err := uuid.Parse(id)
	v.Check(err == nil, "id", "must be a valid comment id")
}

// normalize trims every field and sanitizes the content in place.
func (r *CreateCommentRequest) normalize() {
	r.PostSlug = strings.TrimSpace(r.PostSlug)
	r.AuthorName = strings.TrimSpace(r.AuthorName)
	r.AuthorEmail = strings.TrimSpace(r.AuthorEmail)
	r.Content = sanitizeContent(strings.TrimSpace(r.Content))
}

func (r *CreateCommentRequest) validate(v *common.Validator) {
	validatePostSlug(v, r.PostSlug)
	validateAuthorName(v, r.AuthorName)
	validateAuthorEmail(v, r.AuthorEmail)
	validateContent(v, r.Content)
}

func (r *UpdateCommentRequest) normalize() {
	trim := func(s *string) {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	trim(r.AuthorName)
	trim(r.AuthorEmail)
	if r.Content != nil {
		*r.Content = sanitizeContent(strings.TrimSpace(*r.Content))
	}
}

func (r *UpdateCommentRequest) validate(v *common.Validator) {
	v.Check(r.Content != nil || r.AuthorName != nil || r.AuthorEmail != nil, "body", "must contain at least one field")

	if r.Content != nil {
		validateContent(v, *r.Content)
	}
	if r.AuthorName != nil {
		validateAuthorName(v, *r.AuthorName)
	}
	if r.AuthorEmail != nil {
		validateAuthorEmail(v, *r.AuthorEmail)
	}
}

// EmailMatches compares addresses the way authorship is checked: trimmed and case-insensitive.
func EmailMatches(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
