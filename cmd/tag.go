package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/szuru/booru"
	"github.com/s0up4200/szuru/szurubooru"
)

var (
	tagWhere    string
	tagLimit    int
	tagCategory string
	mergeAlias  bool
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Work with tags",
}

var tagGetCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Show a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, err := client.GetTag(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		operations.PrintTags([]*szurubooru.Tag{tag}, booru.FormatOptions{ShowDetails: true})
		return nil
	},
}

var tagSearchCmd = &cobra.Command{
	Use:   "search [QUERY]",
	Short: "Search tags",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := booru.SearchOptions{
			Where:    tagWhere,
			Limit:    tagLimit,
			PageSize: cfg.Search.PageSize,
			Eager:    cfg.Search.EagerLoad,
		}
		if len(args) == 1 {
			opts.Query = args[0]
		}
		tags, err := operations.SearchTags(cmd.Context(), opts)
		if err != nil {
			return err
		}
		operations.PrintTags(tags, formatOptions())
		return nil
	},
}

var tagCreateCmd = &cobra.Command{
	Use:   "create NAME [ALIAS...]",
	Short: "Create a tag",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if cfg.Safety.DryRun {
			logger.Info().Strs("names", args).Msg("DRY RUN MODE - No tag will be created")
			return nil
		}

		tag, err := client.CreateTag(ctx, args[0], args[1:]...)
		if err != nil {
			return err
		}
		if tagCategory != "" {
			if err := tag.SetCategory(ctx, tagCategory); err != nil {
				return err
			}
			if err := tag.Push(ctx); err != nil {
				return fmt.Errorf("tag created but category change failed: %w", err)
			}
		}
		operations.PrintTags([]*szurubooru.Tag{tag}, formatOptions())
		return nil
	},
}

var tagDeleteCmd = &cobra.Command{
	Use:   "delete NAME...",
	Short: "Delete tags",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range args {
			if cfg.Safety.DryRun {
				logger.Info().Str("tag", name).Msg("DRY RUN MODE - Would delete tag")
				continue
			}
			if err := client.DeleteTag(cmd.Context(), name); err != nil {
				return fmt.Errorf("failed to delete tag %s: %w", name, err)
			}
			fmt.Printf("Deleted tag %s\n", name)
		}
		return nil
	},
}

var tagMergeCmd = &cobra.Command{
	Use:   "merge SOURCE TARGET",
	Short: "Merge tag SOURCE into tag TARGET",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Safety.DryRun {
			logger.Info().Str("source", args[0]).Str("target", args[1]).Msg("DRY RUN MODE - No tags will be merged")
			return nil
		}
		tag, err := client.MergeTags(cmd.Context(), args[0], args[1], mergeAlias)
		if tag != nil {
			operations.PrintTags([]*szurubooru.Tag{tag}, booru.FormatOptions{ShowDetails: true})
		}
		return err
	},
}

var tagSiblingsCmd = &cobra.Command{
	Use:   "siblings NAME",
	Short: "List tags that often appear together with a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		siblings, err := client.ListTagSiblings(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(siblings) == 0 {
			fmt.Printf("No siblings for %s\n", args[0])
			return nil
		}
		for _, sibling := range siblings {
			summary := booru.SummarizeTag(sibling.Tag)
			name := ""
			if len(summary.Names) > 0 {
				name = summary.Names[0]
			}
			fmt.Printf("%-30s %d\n", name, sibling.Occurrences)
		}
		return nil
	},
}

var tagSetCmd = &cobra.Command{
	Use:   "set NAME KEY=VALUE...",
	Short: "Edit fields of a tag",
	Long: `Edit fields of a tag. Keys: names, name, category, description,
implications, suggestions. List values are comma-separated.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		values, err := parseAssignments(args[1:])
		if err != nil {
			return err
		}
		tag, err := client.GetTag(ctx, args[0])
		if err != nil {
			return err
		}
		if err := applyTagAssignments(ctx, tag, values); err != nil {
			return err
		}
		return pushOrPreview(ctx, tag.Resource, func() {
			operations.PrintTags([]*szurubooru.Tag{tag}, booru.FormatOptions{ShowDetails: true})
		})
	},
}

func init() {
	rootCmd.AddCommand(tagCmd)
	tagCmd.AddCommand(tagGetCmd, tagSearchCmd, tagCreateCmd, tagDeleteCmd, tagMergeCmd, tagSiblingsCmd, tagSetCmd)

	tagSearchCmd.Flags().StringVarP(&tagWhere, "where", "w", "", "filter expression or preset name")
	tagSearchCmd.Flags().IntVarP(&tagLimit, "limit", "n", 0, "stop after this many matches")
	tagCreateCmd.Flags().StringVar(&tagCategory, "category", "", "category (default: the server's default category)")
	tagMergeCmd.Flags().BoolVar(&mergeAlias, "alias", false, "keep SOURCE's names as aliases of TARGET")
}
