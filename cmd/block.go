package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bekzodm/dilbot/internal/config"
	"github.com/bekzodm/dilbot/internal/store"
)

func openBlockStore() (store.BlockStore, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.Driver == "" {
		return nil, fmt.Errorf("no database driver configured; block commands need postgres or sqlite")
	}
	return store.Open(store.Options{
		Driver:      cfg.Database.Driver,
		PostgresDSN: cfg.Database.PostgresDSN,
		SQLitePath:  cfg.Database.SQLitePath,
	})
}

func blockCmd() *cobra.Command {
	var duration time.Duration
	cmd := &cobra.Command{
		Use:   "block <user-id>",
		Short: "Block a user for a duration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blocks, err := openBlockStore()
			if err != nil {
				return err
			}
			defer blocks.Close()

			until := time.Now().Add(duration)
			if err := blocks.Block(context.Background(), args[0], until); err != nil {
				return fmt.Errorf("block user: %w", err)
			}
			fmt.Printf("user %s blocked until %s\n", args[0], until.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().DurationVarP(&duration, "for", "d", 24*time.Hour, "block duration (e.g. 30m, 24h, 168h)")
	return cmd
}

func unblockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unblock <user-id>",
		Short: "Remove a user's block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blocks, err := openBlockStore()
			if err != nil {
				return err
			}
			defer blocks.Close()

			if err := blocks.Unblock(context.Background(), args[0]); err != nil {
				return fmt.Errorf("unblock user: %w", err)
			}
			fmt.Printf("user %s unblocked\n", args[0])
			return nil
		},
	}
}
