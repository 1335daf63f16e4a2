package contentservice

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"time"
)

const postsDir = "posts"

// NewRepository reads posts and profiles from fsys, which is usually os.DirFS(contentDir).
// Call Load before use.
func NewRepository(fsys fs.FS, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}

	return &Repository{
		fsys:   fsys,
		logger: logger,
		snap:   &snapshot{profiles: map[Locale]*Profile{}},
	}
}

// Load builds the first snapshot. A missing content directory is not an error.
func (r *Repository) Load() error {
	return r.Reload()
}

// Reload builds a fresh snapshot and swaps it in. On failure the current snapshot stays.
func (r *Repository) Reload() error {
	snap, err := r.build()
	if err != nil {
		return err
	}

	r.mu.Lock()
	old := r.snap
	r.snap = snap
	r.mu.Unlock()

	if old != nil && old.index != nil {
		go func() {
			old.readers.Wait()
			old.index.Close()
		}()
	}

	r.logger.Info("content loaded", slog.Int("documents", len(snap.docs)), slog.Int("profiles", len(snap.profiles)))

	return nil
}

func (r *Repository) current() *snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

// acquire pins the current snapshot's index until release is called.
func (r *Repository) acquire() (*snapshot, func()) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := r.snap
	snap.readers.Add(1)
	return snap, snap.readers.Done
}

// ListDocuments returns a copy of the documents for locale, or of every document when locale is "".
func (r *Repository) ListDocuments(locale Locale) []Document {
	snap := r.current()

	docs := make([]Document, 0, len(snap.docs))
	for _, d := range snap.docs {
		if locale == "" || d.Locale == locale {
			docs = append(docs, d)
		}
	}

	return docs
}

func (r *Repository) Count() int {
	return len(r.current().docs)
}

func (r *Repository) LoadedAt() time.Time {
	return r.current().loadedAt
}

func (r *Repository) build() (*snapshot, error) {
	docs, err := r.readDocuments()
	if err != nil {
		return nil, err
	}

	sortDocuments(docs)

	index, err := buildIndex(docs)
	if err != nil {
		return nil, fmt.Errorf("build search index: %w", err)
	}

	return &snapshot{
		docs:     docs,
		index:    index,
		profiles: r.readProfiles(),
		loadedAt: time.Now(),
	}, nil
}

// readDocuments skips malformed files with a warning. Only an unexpected walk error is returned.
func (r *Repository) readDocuments() ([]Document, error) {
	if _, err := fs.Stat(r.fsys, postsDir); err != nil {
		r.logger.Warn("content directory unavailable, serving no posts", slog.String("dir", postsDir), slog.Any("error", err))
		return []Document{}, nil
	}

	type key struct {
		slug   string
		locale Locale
	}
	seen := make(map[key]string)

	docs := []Document{}
	err := fs.WalkDir(r.fsys, postsDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			r.logger.Warn("could not read content path", slog.String("path", p), slog.Any("error", err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		switch path.Ext(p) {
		case ".md", ".mdx":
		default:
			return nil
		}

		src, err := fs.ReadFile(r.fsys, p)
		if err != nil {
			r.logger.Warn("could not read document", slog.String("path", p), slog.Any("error", err))
			return nil
		}

		doc, err := parseDocument(p, src)
		if err != nil {
			r.logger.Warn("skipping malformed document", slog.String("path", p), slog.Any("error", err))
			return nil
		}

		k := key{doc.Slug, doc.Locale}
		if prev, ok := seen[k]; ok {
			r.logger.Warn("skipping duplicate document", slog.String("path", p), slog.String("duplicate_of", prev))
			return nil
		}
		seen[k] = p

		docs = append(docs, *doc)
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return docs, nil
}
