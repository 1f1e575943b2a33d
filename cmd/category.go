package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/szuru/szurubooru"
)

// categoryHandle is what tag and pool categories have in common
type categoryHandle interface {
	Name(ctx context.Context) (string, error)
	Color(ctx context.Context) (string, error)
	SetColor(ctx context.Context, color string) error
	Usages(ctx context.Context) (int, error)
	IsDefault(ctx context.Context) (bool, error)
	Push(ctx context.Context) error
}

type categoryOps struct {
	noun       string
	list       func(ctx context.Context) ([]categoryHandle, error)
	create     func(ctx context.Context, name string) (categoryHandle, error)
	remove     func(ctx context.Context, name string) error
	setDefault func(ctx context.Context, name string) error
}

func handles[T categoryHandle](items []T, err error) ([]categoryHandle, error) {
	if err != nil {
		return nil, err
	}
	out := make([]categoryHandle, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out, nil
}

var tagCategoryOps = categoryOps{
	noun: "tag category",
	list: func(ctx context.Context) ([]categoryHandle, error) {
		categories, err := client.ListTagCategories(ctx)
		return handles(categories, err)
	},
	create: func(ctx context.Context, name string) (categoryHandle, error) {
		return client.CreateTagCategory(ctx, name)
	},
	remove: func(ctx context.Context, name string) error {
		return client.DeleteTagCategory(ctx, name)
	},
	setDefault: func(ctx context.Context, name string) error {
		_, err := client.SetDefaultTagCategory(ctx, name)
		return err
	},
}

var poolCategoryOps = categoryOps{
	noun: "pool category",
	list: func(ctx context.Context) ([]categoryHandle, error) {
		categories, err := client.ListPoolCategories(ctx)
		return handles(categories, err)
	},
	create: func(ctx context.Context, name string) (categoryHandle, error) {
		return client.CreatePoolCategory(ctx, name)
	},
	remove: func(ctx context.Context, name string) error {
		return client.DeletePoolCategory(ctx, name)
	},
	setDefault: func(ctx context.Context, name string) error {
		_, err := client.SetDefaultPoolCategory(ctx, name)
		return err
	},
}

func newCategoryCmd(use string, ops categoryOps) *cobra.Command {
	var (
		color string
		order int
	)

	parent := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Manage %s entries", ops.noun),
	}

	list := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List every %s", ops.noun),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			categories, err := ops.list(cmd.Context())
			if err != nil {
				return err
			}
			if len(categories) == 0 {
				fmt.Println("No categories found")
				return nil
			}
			for _, c := range categories {
				printCategory(cmd.Context(), c)
			}
			return nil
		},
	}

	create := &cobra.Command{
		Use:   "create NAME",
		Short: fmt.Sprintf("Create a %s", ops.noun),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cfg.Safety.DryRun {
				logger.Info().Str("name", args[0]).Msgf("DRY RUN MODE - No %s will be created", ops.noun)
				return nil
			}
			c, err := ops.create(ctx, args[0])
			if err != nil {
				return err
			}

			changed := false
			if color != "" {
				if err := c.SetColor(ctx, color); err != nil {
					return err
				}
				changed = true
			}
			if cmd.Flags().Changed("order") {
				ordered, ok := c.(interface {
					SetOrder(ctx context.Context, order int) error
				})
				if !ok {
					return fmt.Errorf("a %s has no order", ops.noun)
				}
				if err := ordered.SetOrder(ctx, order); err != nil {
					return err
				}
				changed = true
			}
			if changed {
				if err := c.Push(ctx); err != nil {
					return fmt.Errorf("%s created but update failed: %w", ops.noun, err)
				}
			}
			printCategory(ctx, c)
			return nil
		},
	}
	create.Flags().StringVar(&color, "color", "", "CSS color or palette name")
	if ops.noun == tagCategoryOps.noun {
		create.Flags().IntVar(&order, "order", 1, "sort order")
	}

	remove := &cobra.Command{
		Use:   "delete NAME",
		Short: fmt.Sprintf("Delete a %s", ops.noun),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Safety.DryRun {
				logger.Info().Str("name", args[0]).Msgf("DRY RUN MODE - Would delete %s", ops.noun)
				return nil
			}
			if err := ops.remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s %s\n", ops.noun, args[0])
			return nil
		},
	}

	makeDefault := &cobra.Command{
		Use:   "default NAME",
		Short: fmt.Sprintf("Make NAME the default %s", ops.noun),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ops.setDefault(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("%s is now the default %s\n", args[0], ops.noun)
			return nil
		},
	}

	parent.AddCommand(list, create, remove, makeDefault)
	return parent
}

func printCategory(ctx context.Context, c categoryHandle) {
	name, _ := c.Name(ctx)
	color, _ := c.Color(ctx)
	usages, _ := c.Usages(ctx)
	marker := ""
	if isDefault, _ := c.IsDefault(ctx); isDefault {
		marker = " (default)"
	}
	fmt.Printf("%s%s [%s] %d used\n", name, marker, color, usages)
}

func init() {
	rootCmd.AddCommand(
		newCategoryCmd("tag-category", tagCategoryOps),
		newCategoryCmd("pool-category", poolCategoryOps),
	)
}

var (
	_ categoryHandle = (*szurubooru.TagCategory)(nil)
	_ categoryHandle = (*szurubooru.PoolCategory)(nil)
)
