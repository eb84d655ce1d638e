package main

import (
	"errors"
	"fmt"

	"github.com/lingxijiao/backend/internal/models"
	"github.com/lingxijiao/backend/internal/search"
	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Push every post to Elasticsearch",
	Long: `Create the posts index if needed and index every stored post.
Requires ELASTICSEARCH_URL.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if !cfg.Search.Enabled() {
			return errors.New("ELASTICSEARCH_URL is not set")
		}

		k, cleanup, err := openKernel(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		sc := k.Search()
		if sc == nil {
			return errors.New("elasticsearch is unreachable")
		}
		if err := sc.EnsureIndex(ctx); err != nil {
			return err
		}

		batchSize, _ := cmd.Flags().GetInt("batch-size")
		tok := k.Tokenizer()
		indexed := 0
		err = k.Posts().EachBatch(ctx, batchSize, func(batch []models.Post) error {
			for i := range batch {
				tokens := batch[i].SearchTokens(tok.Tokens(batch[i].Location))
				if err := sc.IndexPost(ctx, search.PostToSearchDoc(&batch[i], tokens)); err != nil {
					return fmt.Errorf("post %s: %w", batch[i].ID, err)
				}
				indexed++
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("reindex failed after %d posts: %w", indexed, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Indexed %d posts into %s\n", indexed, search.IndexPosts)
		return nil
	},
}

func init() {
	reindexCmd.Flags().Int("batch-size", 200, "Posts per batch")
}
