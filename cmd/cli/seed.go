package main

import (
	"fmt"
	"time"

	"github.com/lingxijiao/backend/internal/models"
	"github.com/lingxijiao/backend/internal/search"
	"github.com/lingxijiao/backend/internal/seed"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert fake users and posts",
	Long: `Insert fake users and posts for development.

Examples:
  lingxijiao seed --users 20 --posts 100
  lingxijiao seed --users 5 --posts 30 --gender female --prefix demo`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		users, _ := cmd.Flags().GetInt("users")
		posts, _ := cmd.Flags().GetInt("posts")
		prefix, _ := cmd.Flags().GetString("prefix")
		gender, _ := cmd.Flags().GetString("gender")
		days, _ := cmd.Flags().GetInt("days")
		randSeed, _ := cmd.Flags().GetUint64("seed")

		k, cleanup, err := openKernel(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		s := seed.NewSeeder(k.Users(), k.Posts(), k.Tokenizer(), cfg.Limits, randSeed, log)
		ids, err := s.SeedPosts(ctx, seed.Options{
			Users:  users,
			Posts:  posts,
			Prefix: prefix,
			Gender: models.Gender(gender),
			Spread: time.Duration(days) * 24 * time.Hour,
		})
		if err != nil {
			return err
		}

		if sc := k.Search(); sc != nil {
			stored, err := k.Posts().GetPosts(ctx, ids)
			if err != nil {
				return err
			}
			for i := range stored {
				tokens := stored[i].SearchTokens(k.Tokenizer().Tokens(stored[i].Location))
				if err := sc.IndexPost(ctx, search.PostToSearchDoc(&stored[i], tokens)); err != nil {
					log.Warn("Failed to index seeded post", zap.String("post_id", stored[i].ID), zap.Error(err))
				}
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✅ Seeded %d posts across %d users\n", len(ids), users)
		return nil
	},
}

func init() {
	seedCmd.Flags().Int("users", 10, "Number of users")
	seedCmd.Flags().Int("posts", 50, "Number of posts")
	seedCmd.Flags().String("prefix", "seed", "Email prefix for generated users")
	seedCmd.Flags().String("gender", "", "Gender of every post: male or female (default random)")
	seedCmd.Flags().Int("days", 30, "Scatter creation times over this many past days")
	seedCmd.Flags().Uint64("seed", 0, "Random seed (0 = random)")
}
