package search

import (
	"strings"
	"time"

	"github.com/lingxijiao/backend/internal/models"
)

// PostSearchDoc represents a post document for Elasticsearch indexing.
// Tokens are produced by the application tokenizer and indexed with the
// whitespace analyzer, so ES never re-segments Chinese text on its own.
type PostSearchDoc struct {
	ID        string `json:"id"`
	Gender    string `json:"gender"`
	Tokens    string `json:"tokens"`
	CreatedAt string `json:"created_at"`
}

// PostToSearchDoc converts a Post and its index tokens to a search document
func PostToSearchDoc(post *models.Post, tokens []string) PostSearchDoc {
	return PostSearchDoc{
		ID:        post.ID,
		Gender:    string(post.Gender),
		Tokens:    strings.Join(tokens, " "),
		CreatedAt: post.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// PostQuery mirrors repository.PostFilter for the search backend
type PostQuery struct {
	Gender models.Gender
	Before time.Time
	Limit  int
	Tokens []string
}

// body builds the bool query: filters on gender and cursor, OR-match on tokens,
// newest first.
func (q PostQuery) body() map[string]interface{} {
	return map[string]interface{}{
		"size":    q.Limit,
		"_source": false,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{
						"term": map[string]interface{}{"gender": string(q.Gender)},
					},
					map[string]interface{}{
						"range": map[string]interface{}{
							"created_at": map[string]interface{}{
								"lt": q.Before.UTC().Format(time.RFC3339Nano),
							},
						},
					},
				},
				"must": []interface{}{
					map[string]interface{}{
						"match": map[string]interface{}{
							"tokens": map[string]interface{}{
								"query":    strings.Join(q.Tokens, " "),
								"operator": "or",
							},
						},
					},
				},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"created_at": map[string]interface{}{"order": "desc"}},
		},
	}
}
