package commentservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func newCommentModel(db *sql.DB) *CommentModel {
	if db == nil {
		return nil
	}
	return &CommentModel{db: db}
}

func (m *CommentModel) insert(ctx context.Context, c *Comment) error {
	query := `
		INSERT INTO comments (id, post_slug, author_name, author_email, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	return m.db.QueryRowContext(ctx, query, c.ID, c.PostSlug, c.AuthorName, c.AuthorEmail, c.Content).Scan(&c.CreatedAt, &c.UpdatedAt)
}

// getCommentsByPostSlug returns the thread oldest first. id breaks ties between equal timestamps.
func (m *CommentModel) getCommentsByPostSlug(ctx context.Context, postSlug string) ([]Comment, error) {
	query := `
		SELECT id, post_slug, author_name, author_email, content, created_at, updated_at
		FROM comments
		WHERE post_slug = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := m.db.QueryContext(ctx, query, postSlug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		var c Comment
		err := rows.Scan(&c.ID, &c.PostSlug, &c.AuthorName, &c.AuthorEmail, &c.Content, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}

func (m *CommentModel) getCommentByID(ctx context.Context, id string) (*Comment, error) {
	query := `
		SELECT id, post_slug, author_name, author_email, content, created_at, updated_at
		FROM comments
		WHERE id = $1`

	var c Comment
	err := m.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.PostSlug, &c.AuthorName, &c.AuthorEmail, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &c, nil
}

// update applies only the non-nil fields.
func (m *CommentModel) update(ctx context.Context, id string, content, authorName, authorEmail *string) (*Comment, error) {
	query := `
		UPDATE comments
		SET content = COALESCE($2, content),
			author_name = COALESCE($3, author_name),
			author_email = COALESCE($4, author_email),
			updated_at = NOW()
		WHERE id = $1
		RETURNING id, post_slug, author_name, author_email, content, created_at, updated_at`

	var c Comment
	err := m.db.QueryRowContext(ctx, query, id, content, authorName, authorEmail).Scan(&c.ID, &c.PostSlug, &c.AuthorName, &c.AuthorEmail, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &c, nil
}

// delete removes the comment and returns the slug it belonged to.
func (m *CommentModel) delete(ctx context.Context, id string) (string, error) {
	query := `
		DELETE FROM comments
		WHERE id = $1
		RETURNING post_slug`

	var postSlug string
	err := m.db.QueryRowContext(ctx, query, id).Scan(&postSlug)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return "", ErrRecordNotFound
		default:
			return "", fmt.Errorf("delete comment %s: %w", id, err)
		}
	}

	return postSlug, nil
}
