package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/osvaldoandrade/visiongo/pkg/app"
	"github.com/osvaldoandrade/visiongo/pkg/predictions"
	"github.com/osvaldoandrade/visiongo/pkg/requests"

	"github.com/spf13/cobra"
)

func pageFlags(cmd *cobra.Command, page *requests.Page) {
	cmd.Flags().IntVar(&page.Page, "page", 0, "Page number (1-based)")
	cmd.Flags().IntVar(&page.PerPage, "per-page", 0, "Items per page")
}

func conceptCmd(c *cli) *cobra.Command {
	concept := &cobra.Command{
		Use:   "concept",
		Short: "Concept operations",
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Get a concept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, a *app.Application) error {
				got, err := value(a.Client.GetConcept(ctx, args[0]))
				if err != nil {
					return err
				}
				printConcepts(cmd.OutOrStdout(), c.ui, []predictions.Concept{got})
				return nil
			})
		},
	}

	var page requests.Page
	list := &cobra.Command{
		Use:   "list",
		Short: "List concepts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, a *app.Application) error {
				spin := newSpinner(cmd.ErrOrStderr(), "Fetching concepts...")
				spin.Start()
				got, err := value(a.Client.GetConcepts(ctx, page))
				spin.Stop()
				if err != nil {
					return err
				}
				printConcepts(cmd.OutOrStdout(), c.ui, got)
				return nil
			})
		},
	}
	pageFlags(list, &page)

	var name string
	add := &cobra.Command{
		Use:     "add <id>...",
		Short:   "Add concepts",
		Example: "visiongo concept add boscoe --name Boscoe",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name != "" && len(args) > 1 {
				return errors.New("--name applies to a single concept")
			}
			concepts := make([]predictions.Concept, 0, len(args))
			for _, id := range args {
				concepts = append(concepts, predictions.Concept{ID: id, Name: name})
			}
			return c.run(cmd, func(ctx context.Context, a *app.Application) error {
				added, err := value(a.Client.AddConcepts(ctx, concepts...))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Added %d concept(s)\n", c.ui.ok("[OK]"), len(added))
				printConcepts(cmd.OutOrStdout(), c.ui, added)
				return nil
			})
		},
	}
	add.Flags().StringVar(&name, "name", "", "Concept name (defaults to the id)")

	var action string
	modify := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a concept",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			act, err := requests.ParseModifyAction(action)
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, a *app.Application) error {
				got, err := value(a.Client.ModifyConcepts(ctx, act, predictions.Concept{ID: args[0], Name: args[1]}))
				if err != nil {
					return err
				}
				printConcepts(cmd.OutOrStdout(), c.ui, got)
				return nil
			})
		},
	}
	modify.Flags().StringVar(&action, "action", string(requests.ModifyOverwrite), "Modify action: overwrite|merge|remove")

	var language string
	search := &cobra.Command{
		Use:     "search <name>",
		Short:   "Search concepts by name (supports * wildcards)",
		Example: "visiongo concept search 'dog*' --language en",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang := language
			if lang == "" {
				lang = c.profile().Language
			}
			return c.run(cmd, func(ctx context.Context, a *app.Application) error {
				got, err := value(a.Client.SearchConcepts(ctx, args[0], lang))
				if err != nil {
					return err
				}
				printConcepts(cmd.OutOrStdout(), c.ui, got)
				return nil
			})
		},
	}
	search.Flags().StringVar(&language, "language", "", "Concept language")

	concept.AddCommand(get, list, add, modify, search)
	return concept
}
