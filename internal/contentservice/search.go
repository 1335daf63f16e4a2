package contentservice

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// ErrInvalidQuery is returned by Search when the query string does not parse.
var ErrInvalidQuery = errors.New("invalid search query")

type indexedDocument struct {
	Slug        string
	Locale      string
	Title       string
	Description string
	Content     string
	Tags        []string
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("Slug", bleve.NewKeywordFieldMapping())
	docMapping.AddFieldMappingsAt("Locale", bleve.NewKeywordFieldMapping())
	docMapping.AddFieldMappingsAt("Title", textFieldMapping)
	docMapping.AddFieldMappingsAt("Description", textFieldMapping)
	docMapping.AddFieldMappingsAt("Content", textFieldMapping)
	docMapping.AddFieldMappingsAt("Tags", bleve.NewTextFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping

	return indexMapping
}

func indexID(slug string, locale Locale) string {
	return string(locale) + "/" + slug
}

// buildIndex creates an in-memory index of docs. It lives as long as the snapshot that owns it.
func buildIndex(docs []Document) (bleve.Index, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, err
	}

	batch := index.NewBatch()
	for _, d := range docs {
		doc := indexedDocument{
			Slug:        d.Slug,
			Locale:      string(d.Locale),
			Title:       d.Title,
			Description: d.Description,
			Content:     plainText(d.CompiledContent),
			Tags:        d.Tags,
		}

		if err := batch.Index(indexID(d.Slug, d.Locale), doc); err != nil {
			index.Close()
			return nil, fmt.Errorf("batch index %s: %w", d.OriginalSlug, err)
		}
	}

	if err := index.Batch(batch); err != nil {
		index.Close()
		return nil, fmt.Errorf("commit batch: %w", err)
	}

	return index, nil
}

// Search runs a query string query over titles, descriptions, tags and bodies.
// An empty locale searches every locale.
func (r *Repository) Search(queryStr string, locale Locale, limit int) ([]SearchResult, error) {
	queryStr = strings.TrimSpace(queryStr)
	if queryStr == "" {
		return []SearchResult{}, nil
	}
	if limit < 1 {
		limit = 10
	}

	q := bleve.NewQueryStringQuery(queryStr)
	if _, err := q.Parse(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	snap, release := r.acquire()
	defer release()

	if snap.index == nil {
		return []SearchResult{}, nil
	}

	search := bleve.NewSearchRequestOptions(q, limit, 0, false)
	if locale != "" {
		lq := bleve.NewTermQuery(string(locale))
		lq.SetField("Locale")
		search = bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(q, lq), limit, 0, false)
	}
	search.Fields = []string{"Slug", "Locale", "Title"}

	res, err := snap.index.Search(search)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results := make([]SearchResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		result := SearchResult{Score: hit.Score}

		if slug, ok := hit.Fields["Slug"].(string); ok {
			result.Slug = slug
		}
		if l, ok := hit.Fields["Locale"].(string); ok {
			result.Locale = Locale(l)
		}
		if title, ok := hit.Fields["Title"].(string); ok {
			result.Title = title
		}

		results = append(results, result)
	}

	return results, nil
}
