package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"livingroom/internal/casecache"
)

var cacheNamespaces = []string{casecache.NamespaceCases, casecache.NamespaceCV}

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and prune cached case tables and CV series",
	}
	cmd.AddCommand(newCacheListCommand(ctx))
	cmd.AddCommand(newCacheDropCommand(ctx))
	return cmd
}

func openCache(ctx *commandContext) (casecache.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := ctx.logger()
	if err != nil {
		return nil, err
	}
	if !cfg.Cache.Enabled {
		return nil, errors.New("case cache is disabled (cache.enabled = false)")
	}
	return casecache.Open(cfg, logger)
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list [namespace]",
		Short: "List cached entries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			namespaces := cacheNamespaces
			if len(args) == 1 {
				namespaces = args
			}
			var rows [][]string
			for _, ns := range namespaces {
				keys, err := store.Keys(cmd.Context(), ns)
				if err != nil {
					return err
				}
				for _, key := range keys {
					rows = append(rows, []string{ns, key})
				}
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "Cache is empty")
				return nil
			}
			fmt.Fprintln(out, renderTable([]string{"Namespace", "Key"}, rows))
			return nil
		},
	}
}

func newCacheDropCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "drop NAMESPACE KEY",
		Short: "Remove a cached entry so the next run recomputes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), args[0], args[1]); err != nil {
				if errors.Is(err, casecache.ErrNotFound) {
					return fmt.Errorf("no cached %s entry for %s", args[0], args[1])
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dropped %s/%s\n", args[0], args[1])
			return nil
		},
	}
}
