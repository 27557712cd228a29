package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/AnshRaj112/thoughtify-backend/internal/config"
	"github.com/AnshRaj112/thoughtify-backend/internal/database"
	"github.com/AnshRaj112/thoughtify-backend/internal/models"
	"github.com/AnshRaj112/thoughtify-backend/internal/services"
	"github.com/AnshRaj112/thoughtify-backend/pkg/logger"
	"github.com/spf13/cobra"
)

// opener returns a database handle for one command run.
type opener func(ctx context.Context) (*sql.DB, error)

func postgresOpener(cfg *config.Config) opener {
	return func(ctx context.Context) (*sql.DB, error) {
		return database.OpenPostgres(ctx, cfg.PostgresURI)
	}
}

// withDB opens the database around fn.
func withDB(open opener, fn func(ctx context.Context, db *sql.DB) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		db, err := open(ctx)
		if err != nil {
			return fmt.Errorf("connect to PostgreSQL: %w", err)
		}
		defer db.Close()
		return fn(ctx, db)
	}
}

func newRootCmd(cfg *config.Config, log *logger.Logger, open opener) *cobra.Command {
	root := &cobra.Command{
		Use:          "manage",
		Short:        "Thoughtify maintenance commands",
		SilenceUsage: true,
	}
	root.AddCommand(
		newMigrateCmd(log, open),
		newSeedTagsCmd(log, open),
		newCreateAdminCmd(log, open),
		newSampleThoughtsCmd(cfg, log, open),
		newBackfillProfilesCmd(log, open),
		newPurgeDraftsCmd(log, open),
	)
	return root
}

func newMigrateCmd(log *logger.Logger, open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and indexes",
		RunE: withDB(open, func(ctx context.Context, db *sql.DB) error {
			if err := database.InitPostgresTables(ctx, db); err != nil {
				return err
			}
			log.Info("schema is up to date", "statements", len(database.Schema))
			return nil
		}),
	}
}

func newSeedTagsCmd(log *logger.Logger, open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-tags",
		Short: "Create the default emotion tags",
		RunE: withDB(open, func(ctx context.Context, db *sql.DB) error {
			n, err := services.NewEmotionService(db, nil).EnsureDefaults(ctx)
			if err != nil {
				return err
			}
			log.Info("emotion tags seeded", "created", n, "known", len(services.DefaultEmotionTags))
			return nil
		}),
	}
}

func newCreateAdminCmd(log *logger.Logger, open opener) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a staff account",
		RunE: withDB(open, func(ctx context.Context, db *sql.DB) error {
			user, err := services.NewAccountService(db).CreateAdmin(ctx, email, password)
			if err != nil {
				return err
			}
			log.Info("admin created", "user_id", user.ID, "email", user.Email)
			return nil
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSampleThoughtsCmd(cfg *config.Config, log *logger.Logger, open opener) *cobra.Command {
	var author string
	var perTag int
	cmd := &cobra.Command{
		Use:   "sample-thoughts",
		Short: "Generate public sample thoughts for every emotion tag",
		RunE: withDB(open, func(ctx context.Context, db *sql.DB) error {
			accounts := services.NewAccountService(db)
			var user *models.User
			var err error
			if author != "" {
				user, err = accounts.GetUserByEmail(ctx, author)
			} else {
				user, err = accounts.FirstStaffUser(ctx)
			}
			if err != nil {
				return fmt.Errorf("find author: %w", err)
			}

			tags, err := services.NewEmotionService(db, nil).List(ctx)
			if err != nil {
				return err
			}
			n, err := services.NewThoughtService(db, cfg.TimeZone).SeedSamples(ctx, user.ID, tags, perTag)
			if err != nil {
				return err
			}
			log.Info("sample thoughts created", "count", n, "author", user.Email)
			return nil
		}),
	}
	cmd.Flags().StringVar(&author, "author", "", "author email (defaults to the first staff user)")
	cmd.Flags().IntVar(&perTag, "per-tag", 10, "thoughts per emotion tag")
	return cmd
}

func newBackfillProfilesCmd(log *logger.Logger, open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "backfill-profiles",
		Short: "Create missing profiles for existing users",
		RunE: withDB(open, func(ctx context.Context, db *sql.DB) error {
			n, err := services.NewAccountService(db).BackfillProfiles(ctx)
			if err != nil {
				return err
			}
			log.Info("profiles backfilled", "created", n)
			return nil
		}),
	}
}

func newPurgeDraftsCmd(log *logger.Logger, open opener) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "purge-drafts",
		Short: "Delete drafts that can no longer be published",
		RunE: withDB(open, func(ctx context.Context, db *sql.DB) error {
			n, err := services.NewDraftService(db, log).PurgeExpired(ctx, olderThan)
			if err != nil {
				return err
			}
			log.Info("drafts purged", "count", n)
			return nil
		}),
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", services.DraftMaxAge, "purge drafts older than this")
	return cmd
}
