package contentservice

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"gopkg.in/yaml.v3"
)

const excerptLength = 160

var (
	errMissingTitle       = errors.New("front matter: title is required")
	errMissingPublishedAt = errors.New("front matter: publishedAt is required")

	localeSuffixRX = regexp.MustCompile(`-(ko|en)$`)

	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)

	dateLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
)

type frontMatter struct {
	Title       string   `yaml:"title"`
	PublishedAt string   `yaml:"publishedAt"`
	Date        string   `yaml:"date"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
}

// slugFromPath maps "posts/2024/hello-en.md" to ("2024/hello", "2024/hello-en", en).
func slugFromPath(p string) (slug, original string, locale Locale) {
	original = strings.TrimPrefix(p, "posts/")
	original = strings.TrimSuffix(original, path.Ext(original))

	locale = LocaleKo
	if strings.HasSuffix(original, "-en") {
		locale = LocaleEn
	}

	return localeSuffixRX.ReplaceAllString(original, ""), original, locale
}

// splitFrontMatter separates a leading "---" delimited YAML block from the body.
func splitFrontMatter(src []byte) ([]byte, []byte, error) {
	src = bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(src, []byte("---\n")) {
		return nil, nil, errors.New("front matter: missing opening delimiter")
	}

	rest := src[len("---\n"):]
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return nil, nil, errors.New("front matter: missing closing delimiter")
	}

	body := rest[end+len("\n---"):]
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = nil
	}

	return rest[:end], body, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("front matter: unrecognised date %q", s)
}

// parseDocument builds a Document from a file under posts/.
func parseDocument(p string, src []byte) (*Document, error) {
	head, body, err := splitFrontMatter(src)
	if err != nil {
		return nil, err
	}

	var fm frontMatter
	if err := yaml.Unmarshal(head, &fm); err != nil {
		return nil, fmt.Errorf("front matter: %w", err)
	}

	if strings.TrimSpace(fm.Title) == "" {
		return nil, errMissingTitle
	}

	published := fm.PublishedAt
	if published == "" {
		published = fm.Date
	}
	if published == "" {
		return nil, errMissingPublishedAt
	}

	publishedAt, err := parseDate(published)
	if err != nil {
		return nil, err
	}

	var html bytes.Buffer
	if err := md.Convert(body, &html); err != nil {
		return nil, fmt.Errorf("compile markdown: %w", err)
	}

	slug, original, locale := slugFromPath(p)

	doc := &Document{
		Slug:            slug,
		OriginalSlug:    original,
		Locale:          locale,
		Title:           strings.TrimSpace(fm.Title),
		RawContent:      string(body),
		CompiledContent: html.String(),
		PublishedAt:     publishedAt,
		Description:     strings.TrimSpace(fm.Description),
		Tags:            fm.Tags,
	}

	if doc.Description == "" {
		doc.Description = excerpt(doc.CompiledContent, excerptLength)
	}

	return doc, nil
}

// plainText returns the visible text of compiled HTML with whitespace collapsed.
func plainText(compiled string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(compiled))
	if err != nil {
		return ""
	}
	doc.Find("pre, script, style").Remove()

	return strings.Join(strings.Fields(doc.Text()), " ")
}

func excerpt(compiled string, n int) string {
	text := plainText(compiled)
	if utf8.RuneCountInString(text) <= n {
		return text
	}

	runes := []rune(text)
	return strings.TrimSpace(string(runes[:n])) + "…"
}

// sortDocuments orders newest first. Equal dates fall back to slug then locale so the order is total.
func sortDocuments(docs []Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		if a.Slug != b.Slug {
			return a.Slug < b.Slug
		}
		return a.Locale < b.Locale
	})
}

func (d *Document) summary() PostSummary {
	return PostSummary{
		Slug:        d.Slug,
		Locale:      d.Locale,
		Title:       d.Title,
		PublishedAt: d.PublishedAt,
		Description: d.Description,
		Tags:        d.Tags,
	}
}
