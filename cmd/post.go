package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/s0up4200/szuru/booru"
	"github.com/s0up4200/szuru/szurubooru"
)

var (
	postQuery string
	postWhere string
	postLimit int

	addTags    []string
	removeTags []string

	createSafety  string
	createTags    []string
	createSources []string

	replaceContent bool
	unfavorite     bool
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Work with posts",
}

var postGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid post id %q", args[0])
		}
		post, err := client.GetPost(cmd.Context(), id)
		if err != nil {
			return err
		}
		operations.PrintPosts([]*szurubooru.Post{post}, booru.FormatOptions{ShowDetails: true})

		if url, err := post.ContentURL(cmd.Context()); err == nil {
			fmt.Printf("Content: %s\n", url)
		}
		return nil
	},
}

var postSearchCmd = &cobra.Command{
	Use:   "search [QUERY]",
	Short: "Search posts, optionally narrowed by a filter expression",
	Long: `Search posts with the server's query syntax. --where runs a filter
expression or a preset from the config over every result, for example:

  szuru post search "tag:sun" --where 'safety == "safe" and score > 2'
  szuru post search --where @unsafe`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			postQuery = args[0]
		}
		posts, err := operations.SearchPosts(cmd.Context(), postSearchOptions())
		if err != nil {
			return err
		}
		operations.PrintPosts(posts, formatOptions())
		return nil
	},
}

var postCreateCmd = &cobra.Command{
	Use:   "create FILE",
	Short: "Upload a file as a new post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		safety, err := szurubooru.ParseSafety(createSafety)
		if err != nil {
			return err
		}

		if cfg.Safety.DryRun {
			logger.Info().Str("file", args[0]).Msg("DRY RUN MODE - No post will be created")
			return nil
		}

		token, err := client.UploadFile(ctx, appFs, args[0])
		if err != nil {
			return err
		}
		post, err := client.CreatePost(ctx, token, safety)
		if err != nil {
			return err
		}

		if len(createTags) > 0 || len(createSources) > 0 {
			if len(createTags) > 0 {
				if err := post.SetTagNames(ctx, createTags); err != nil {
					return err
				}
			}
			if len(createSources) > 0 {
				if err := post.SetSources(ctx, createSources); err != nil {
					return err
				}
			}
			if err := post.Push(ctx); err != nil {
				return fmt.Errorf("post created but tagging failed: %w", err)
			}
		}

		operations.PrintPosts([]*szurubooru.Post{post}, formatOptions())
		return nil
	},
}

var postDeleteCmd = &cobra.Command{
	Use:   "delete [ID...]",
	Short: "Delete posts by id or by search",
	RunE: func(cmd *cobra.Command, args []string) error {
		posts, err := selectPosts(cmd.Context(), args)
		if err != nil {
			return err
		}
		result, err := operations.DeletePosts(cmd.Context(), posts, batchOptions())
		if len(result.Successful) > 0 || len(result.Failed) > 0 {
			operations.PrintBatchResult("delete", result)
		}
		return err
	},
}

var postTagCmd = &cobra.Command{
	Use:   "tag [ID...]",
	Short: "Add or remove tags on posts selected by id or by search",
	RunE: func(cmd *cobra.Command, args []string) error {
		posts, err := selectPosts(cmd.Context(), args)
		if err != nil {
			return err
		}
		edit := booru.TagEdit{Add: addTags, Remove: removeTags}
		result, err := operations.EditTags(cmd.Context(), posts, edit, batchOptions())
		if len(result.Successful) > 0 || len(result.Failed) > 0 {
			operations.PrintBatchResult("tag", result)
		}
		return err
	},
}

var postSafetyCmd = &cobra.Command{
	Use:   "safety SAFETY [ID...]",
	Short: "Set the safety rating of posts selected by id or by search",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		safety, err := szurubooru.ParseSafety(args[0])
		if err != nil {
			return err
		}
		posts, err := selectPosts(cmd.Context(), args[1:])
		if err != nil {
			return err
		}
		result, err := operations.SetSafety(cmd.Context(), posts, safety, batchOptions())
		if len(result.Successful) > 0 || len(result.Failed) > 0 {
			operations.PrintBatchResult("safety", result)
		}
		return err
	},
}

var postSetCmd = &cobra.Command{
	Use:   "set ID KEY=VALUE...",
	Short: "Edit fields of a post",
	Long: `Edit fields of a post. Keys: safety, source, tags, relations, loop, sound.
List values are comma-separated, e.g. tags=sun,sky relations=4,5`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid post id %q", args[0])
		}
		values, err := parseAssignments(args[1:])
		if err != nil {
			return err
		}

		post, err := client.GetPost(ctx, id)
		if err != nil {
			return err
		}
		if err := applyPostAssignments(ctx, post, values); err != nil {
			return err
		}
		return pushOrPreview(ctx, post.Resource, func() {
			operations.PrintPosts([]*szurubooru.Post{post}, booru.FormatOptions{ShowDetails: true})
		})
	},
}

var postMergeCmd = &cobra.Command{
	Use:   "merge SOURCE TARGET",
	Short: "Merge post SOURCE into post TARGET and delete SOURCE",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		if cfg.Safety.DryRun {
			logger.Info().Int("source", ids[0]).Int("target", ids[1]).Msg("DRY RUN MODE - No posts will be merged")
			return nil
		}
		post, err := client.MergePosts(cmd.Context(), ids[0], ids[1], replaceContent)
		if err != nil {
			return err
		}
		operations.PrintPosts([]*szurubooru.Post{post}, formatOptions())
		return nil
	},
}

var postAroundCmd = &cobra.Command{
	Use:   "around ID",
	Short: "Show the posts before and after a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		prev, next, err := client.GetAroundPost(cmd.Context(), ids[0])
		if err != nil {
			return err
		}
		printNeighbor("Previous", prev)
		printNeighbor("Next", next)
		return nil
	},
}

var postRateCmd = &cobra.Command{
	Use:   "rate ID SCORE",
	Short: "Rate a post with -1, 0 or 1",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := parseIDs(args)
		if err != nil {
			return err
		}
		post, err := client.GetPost(cmd.Context(), values[0])
		if err != nil {
			return err
		}
		return post.SetRating(cmd.Context(), values[1])
	},
}

var postFavoriteCmd = &cobra.Command{
	Use:   "favorite ID",
	Short: "Add a post to your favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		post, err := client.GetPost(cmd.Context(), ids[0])
		if err != nil {
			return err
		}
		return post.SetFavorite(cmd.Context(), !unfavorite)
	},
}

var postFeatureCmd = &cobra.Command{
	Use:   "feature [ID]",
	Short: "Show the featured post, or feature a post",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if len(args) == 0 {
			post, err := client.GetFeaturedPost(ctx)
			if err != nil {
				return err
			}
			if post == nil {
				fmt.Println("No post is featured")
				return nil
			}
			operations.PrintPosts([]*szurubooru.Post{post}, formatOptions())
			return nil
		}

		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		post, err := client.SetFeaturedPost(ctx, ids[0])
		if err != nil {
			return err
		}
		operations.PrintPosts([]*szurubooru.Post{post}, formatOptions())
		return nil
	},
}

var postReverseCmd = &cobra.Command{
	Use:   "reverse FILE",
	Short: "Find posts similar to an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		token, err := client.UploadFile(ctx, appFs, args[0])
		if err != nil {
			return err
		}
		results, err := client.SearchByImage(ctx, token, cfg.Search.EagerLoad)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Printf("No posts resemble %s\n", filepath.Base(args[0]))
			return nil
		}
		for _, result := range results {
			summary := booru.SummarizePost(result.Post)
			if result.Exact {
				fmt.Printf("#%d exact match\n", summary.ID)
				continue
			}
			fmt.Printf("#%d distance %.4f\n", summary.ID, result.Distance)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(postCmd)
	postCmd.AddCommand(postGetCmd, postSearchCmd, postCreateCmd, postDeleteCmd, postTagCmd,
		postSafetyCmd, postSetCmd, postMergeCmd, postAroundCmd, postRateCmd, postFavoriteCmd,
		postFeatureCmd, postReverseCmd)

	for _, c := range []*cobra.Command{postSearchCmd, postDeleteCmd, postTagCmd, postSafetyCmd} {
		c.Flags().StringVarP(&postQuery, "query", "q", "", "server search query")
		c.Flags().StringVarP(&postWhere, "where", "w", "", "filter expression or preset name")
		c.Flags().IntVarP(&postLimit, "limit", "n", 0, "stop after this many matches")
	}

	postTagCmd.Flags().StringSliceVarP(&addTags, "add", "a", nil, "tags to add")
	postTagCmd.Flags().StringSliceVarP(&removeTags, "remove", "r", nil, "tags to remove")

	postCreateCmd.Flags().StringVar(&createSafety, "safety", string(szurubooru.SafetySafe), "safety rating (safe, sketchy, unsafe)")
	postCreateCmd.Flags().StringSliceVar(&createTags, "tags", nil, "tags to apply")
	postCreateCmd.Flags().StringSliceVar(&createSources, "source", nil, "source URLs")

	postMergeCmd.Flags().BoolVar(&replaceContent, "replace-content", false, "use the content of SOURCE")
	postFavoriteCmd.Flags().BoolVar(&unfavorite, "remove", false, "remove from favorites instead")
}

func postSearchOptions() booru.SearchOptions {
	return booru.SearchOptions{
		Query:    postQuery,
		Where:    postWhere,
		Limit:    postLimit,
		PageSize: cfg.Search.PageSize,
		Eager:    cfg.Search.EagerLoad,
	}
}

// selectPosts loads posts by id, or searches when no ids are given. A bare
// invocation is refused so a batch never silently covers every post.
func selectPosts(ctx context.Context, args []string) ([]*szurubooru.Post, error) {
	if len(args) == 0 {
		if postQuery == "" && postWhere == "" {
			return nil, errors.New("give post ids, --query or --where")
		}
		return operations.SearchPosts(ctx, postSearchOptions())
	}

	ids, err := parseIDs(args)
	if err != nil {
		return nil, err
	}
	posts := make([]*szurubooru.Post, 0, len(ids))
	for _, id := range ids {
		post, err := client.GetPost(ctx, id)
		if err != nil {
			if szurubooru.IsAPIError(err, "PostNotFoundError") {
				logger.Warn().Int("id", id).Msg("Post not found, skipping")
				continue
			}
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func printNeighbor(label string, post *szurubooru.Post) {
	if post == nil {
		fmt.Printf("%s: none\n", label)
		return
	}
	fmt.Printf("%s: #%d\n", label, booru.SummarizePost(post).ID)
}

// pushOrPreview pushes r, or shows its pending edits in dry-run mode
func pushOrPreview(ctx context.Context, r *szurubooru.Resource, show func()) error {
	if !r.IsDirty() {
		fmt.Println("Nothing to change")
		return nil
	}
	if cfg.Safety.DryRun {
		logger.Info().Interface("changes", r.Pending()).Msg("DRY RUN MODE - No changes will be pushed")
		show()
		return nil
	}
	if err := r.Push(ctx); err != nil {
		return err
	}
	show()
	return nil
}
