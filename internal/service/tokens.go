package service

import (
	"github.com/lingxijiao/backend/internal/models"
	"github.com/lingxijiao/backend/internal/tokenizer"
)

// IndexTokens segments every narration of post into ContentTokens and
// returns the post's distinct search tokens, location included. Creation,
// backfill and seeding all go through here so stored tokens match the ones
// produced for queries.
func IndexTokens(tok tokenizer.Tokenizer, post *models.Post) []string {
	for i := range post.Narrations {
		post.Narrations[i].ContentTokens = tokenizer.Join(tok.Tokens(post.Narrations[i].Content))
	}
	return post.SearchTokens(tok.Tokens(post.Location))
}
