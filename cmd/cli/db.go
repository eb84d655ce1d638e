package main

import (
	"errors"
	"fmt"

	"github.com/lingxijiao/backend/internal/database"
	"github.com/lingxijiao/backend/internal/models"
	"github.com/lingxijiao/backend/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, closeDB, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB()

		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✅ All migrations completed successfully!")
		return nil
	},
}

var resetDBCmd = &cobra.Command{
	Use:   "reset-db",
	Short: "Drop every table and migrate again",
	Long: `Drop every lingxijiao table and recreate the schema.
All users, posts and replies are lost. Requires --yes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return errors.New("refusing to reset the database without --yes")
		}

		db, closeDB, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB()

		if err := database.Reset(db); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✅ Database reset")
		return nil
	},
}

var backfillTokensCmd = &cobra.Command{
	Use:   "backfill-tokens",
	Short: "Recompute narration tokens and the keyword index for every post",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		k, cleanup, err := openKernel(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		batchSize, _ := cmd.Flags().GetInt("batch-size")
		posts := k.Posts()
		tok := k.Tokenizer()

		updated := 0
		err = posts.EachBatch(ctx, batchSize, func(batch []models.Post) error {
			for i := range batch {
				tokens := service.IndexTokens(tok, &batch[i])
				if err := posts.ReplaceTokens(ctx, &batch[i], tokens); err != nil {
					return fmt.Errorf("post %s: %w", batch[i].ID, err)
				}
				updated++
			}
			log.Info("Backfilled token batch", zap.Int("updated", updated))
			return nil
		})
		if err != nil {
			return fmt.Errorf("backfill failed after %d posts: %w", updated, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Backfilled tokens for %d posts\n", updated)
		return nil
	},
}

func init() {
	resetDBCmd.Flags().Bool("yes", false, "Confirm dropping all data")
	backfillTokensCmd.Flags().Int("batch-size", 200, "Posts per batch")
}
