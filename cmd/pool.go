package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/s0up4200/szuru/booru"
	"github.com/s0up4200/szuru/szurubooru"
)

var (
	poolWhere    string
	poolLimit    int
	poolCategory string
	poolAlias    bool
)

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Work with pools",
}

var poolGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show a pool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		pool, err := client.GetPool(cmd.Context(), ids[0])
		if err != nil {
			return err
		}
		operations.PrintPools([]*szurubooru.Pool{pool}, booru.FormatOptions{ShowDetails: true})
		return nil
	},
}

var poolSearchCmd = &cobra.Command{
	Use:   "search [QUERY]",
	Short: "Search pools",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := booru.SearchOptions{
			Where:    poolWhere,
			Limit:    poolLimit,
			PageSize: cfg.Search.PageSize,
			Eager:    cfg.Search.EagerLoad,
		}
		if len(args) == 1 {
			opts.Query = args[0]
		}
		pools, err := operations.SearchPools(cmd.Context(), opts)
		if err != nil {
			return err
		}
		operations.PrintPools(pools, formatOptions())
		return nil
	},
}

var poolCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create an empty pool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if cfg.Safety.DryRun {
			logger.Info().Str("name", args[0]).Msg("DRY RUN MODE - No pool will be created")
			return nil
		}
		pool, err := client.CreatePool(ctx, args[0])
		if err != nil {
			return err
		}
		if poolCategory != "" {
			if err := pool.SetCategory(ctx, poolCategory); err != nil {
				return err
			}
			if err := pool.Push(ctx); err != nil {
				return fmt.Errorf("pool created but category change failed: %w", err)
			}
		}
		operations.PrintPools([]*szurubooru.Pool{pool}, formatOptions())
		return nil
	},
}

var poolDeleteCmd = &cobra.Command{
	Use:   "delete ID...",
	Short: "Delete pools; their posts are kept",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if cfg.Safety.DryRun {
				logger.Info().Int("pool", id).Msg("DRY RUN MODE - Would delete pool")
				continue
			}
			if err := client.DeletePool(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to delete pool %d: %w", id, err)
			}
			fmt.Printf("Deleted pool #%d\n", id)
		}
		return nil
	},
}

var poolMergeCmd = &cobra.Command{
	Use:   "merge SOURCE TARGET",
	Short: "Merge pool SOURCE into pool TARGET",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		if cfg.Safety.DryRun {
			logger.Info().Int("source", ids[0]).Int("target", ids[1]).Msg("DRY RUN MODE - No pools will be merged")
			return nil
		}
		pool, err := client.MergePools(cmd.Context(), ids[0], ids[1], poolAlias)
		if pool != nil {
			operations.PrintPools([]*szurubooru.Pool{pool}, booru.FormatOptions{ShowDetails: true})
		}
		return err
	},
}

var poolAddPostsCmd = &cobra.Command{
	Use:   "add-posts POOL POST...",
	Short: "Append posts to a pool",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		pool, err := client.GetPool(ctx, ids[0])
		if err != nil {
			return err
		}
		posts, err := pool.Posts(ctx)
		if err != nil {
			return err
		}

		current := make([]int, 0, len(posts)+len(ids)-1)
		for _, post := range posts {
			id, err := post.ID(ctx)
			if err != nil {
				return err
			}
			current = append(current, id)
		}
		for _, id := range ids[1:] {
			if !slices.Contains(current, id) {
				current = append(current, id)
			}
		}

		if err := pool.SetPostIDs(ctx, current); err != nil {
			return err
		}
		return pushOrPreview(ctx, pool.Resource, func() {
			operations.PrintPools([]*szurubooru.Pool{pool}, formatOptions())
		})
	},
}

func init() {
	rootCmd.AddCommand(poolCmd)
	poolCmd.AddCommand(poolGetCmd, poolSearchCmd, poolCreateCmd, poolDeleteCmd, poolMergeCmd, poolAddPostsCmd)

	poolSearchCmd.Flags().StringVarP(&poolWhere, "where", "w", "", "filter expression or preset name")
	poolSearchCmd.Flags().IntVarP(&poolLimit, "limit", "n", 0, "stop after this many matches")
	poolCreateCmd.Flags().StringVar(&poolCategory, "category", "", "category (default: the server's default category)")
	poolMergeCmd.Flags().BoolVar(&poolAlias, "alias", false, "keep SOURCE's names as aliases of TARGET")
}
