package cmd

import (
	"context"
	"fmt"
	"time"

	"environovalab/config"
	"environovalab/jarstore"
	"environovalab/log"

	"github.com/spf13/cobra"
)

var Jars *cobra.Command

func init() {
	Jars = &cobra.Command{
		Use:   "jars",
		Short: "Maintain the store of API cookie jars",
	}

	migrateCmd := &cobra.Command{
		Use: "migrate",
		Run: func(cmd *cobra.Command, _ []string) {
			migrateJars(cmd.Context())
		},
	}

	var olderThan time.Duration
	pruneCmd := &cobra.Command{
		Use: "prune",
		Run: func(cmd *cobra.Command, _ []string) {
			pruneJars(cmd.Context(), olderThan)
		},
	}
	pruneCmd.Flags().DurationVar(&olderThan, "older-than", jarstore.DefaultMaxAge, "drop jars untouched for this long")

	Jars.AddCommand(migrateCmd)
	Jars.AddCommand(pruneCmd)
}

func mustOpenJarStore(ctx context.Context) jarstore.Store {
	store, err := jarstore.NewStore(ctx, config.Cfg.JarStore)
	if err != nil {
		panic(err)
	}
	return store
}

func migrateJars(ctx context.Context) {
	store := mustOpenJarStore(ctx)
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		panic(err)
	}
	log.Info().Str("store", config.Cfg.JarStore.String()).Msg("Jar store migrated")
}

func pruneJars(ctx context.Context, olderThan time.Duration) {
	store := mustOpenJarStore(ctx)
	defer store.Close()

	pruned, err := jarstore.Cleanup(ctx, store, olderThan, &log.TaskLogger{Component: "jars"})
	if err != nil {
		panic(err)
	}
	fmt.Printf("Pruned %d jars\n", pruned)
}
