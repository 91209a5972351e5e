package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/osvaldoandrade/visiongo/pkg/app"
	"github.com/osvaldoandrade/visiongo/pkg/domain"
	"github.com/osvaldoandrade/visiongo/pkg/requests"

	"github.com/spf13/cobra"
)

func inputCmd(c *cli) *cobra.Command {
	input := &cobra.Command{
		Use:   "input",
		Short: "Input operations",
	}

	var (
		id             string
		positive       string
		negative       string
		metadata       string
		allowDuplicate bool
	)
	add := &cobra.Command{
		Use:     "add <url-or-file>...",
		Short:   "Add inputs from URLs or local files",
		Example: "visiongo input add https://samples.clarifai.com/puppy.jpeg --concepts dog",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if id != "" && len(args) > 1 {
				return errors.New("--id applies to a single input")
			}
			opts := []domain.InputOption{domain.WithAllowDuplicateURL(allowDuplicate)}
			if id != "" {
				opts = append(opts, domain.WithInputID(id))
			}
			if ids := splitList(positive); len(ids) > 0 {
				opts = append(opts, domain.WithPositiveConcepts(ids...))
			}
			if ids := splitList(negative); len(ids) > 0 {
				opts = append(opts, domain.WithNegativeConcepts(ids...))
			}
			if metadata != "" {
				opts = append(opts, domain.WithMetadata(metadata))
			}
			return c.run(cmd, func(ctx context.Context, a *app.Application) error {
				inputs := make([]domain.Input, 0, len(args))
				for _, source := range args {
					in, err := a.Inputs.Load(ctx, source, opts...)
					if err != nil {
						return err
					}
					inputs = append(inputs, in)
				}
				spin := newSpinner(cmd.ErrOrStderr(), "Uploading inputs...")
				spin.Start()
				added, err := value(a.Client.AddInputs(ctx, inputs...))
				spin.Stop()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Added %d input(s)\n", c.ui.ok("[OK]"), len(added))
				printInputs(cmd.OutOrStdout(), c.ui, added)
				return nil
			})
		},
	}
	add.Flags().StringVar(&id, "id", "", "Input id")
	add.Flags().StringVar(&positive, "concepts", "", "Comma-separated positive concept ids")
	add.Flags().StringVar(&negative, "not-concepts", "", "Comma-separated negative concept ids")
	add.Flags().StringVar(&metadata, "metadata", "", "JSON object metadata")
	add.Flags().BoolVar(&allowDuplicate, "allow-duplicate", false, "Allow an already added URL")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Get an input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, a *app.Application) error {
				in, err := value(a.Client.GetInput(ctx, args[0]))
				if err != nil {
					return err
				}
				printInputs(cmd.OutOrStdout(), c.ui, []domain.Input{in})
				printConcepts(cmd.OutOrStdout(), c.ui, in.Concepts)
				return nil
			})
		},
	}

	var page requests.Page
	list := &cobra.Command{
		Use:   "list",
		Short: "List inputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, a *app.Application) error {
				got, err := value(a.Client.GetInputs(ctx, page))
				if err != nil {
					return err
				}
				printInputs(cmd.OutOrStdout(), c.ui, got)
				return nil
			})
		},
	}
	pageFlags(list, &page)

	var deleteAll bool
	del := &cobra.Command{
		Use:   "delete [id]...",
		Short: "Delete inputs, or every input with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			if deleteAll == (len(args) > 0) {
				return errors.New("provide input ids or --all")
			}
			return c.run(cmd, func(ctx context.Context, a *app.Application) error {
				var err error
				if deleteAll {
					_, err = value(a.Client.DeleteAllInputs(ctx))
				} else {
					_, err = value(a.Client.DeleteInputs(ctx, args...))
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Inputs deleted\n", c.ui.ok("[OK]"))
				return nil
			})
		},
	}
	del.Flags().BoolVar(&deleteAll, "all", false, "Delete every input of the app")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show input processing counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, a *app.Application) error {
				s, err := value(a.Client.GetInputsStatus(ctx))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d | %s: %d | %s: %d | %s: %d\n",
					c.ui.ok("PROCESSED"), s.Processed,
					c.ui.info("PROCESSING"), s.Processing,
					c.ui.warn("TO_PROCESS"), s.ToProcess,
					c.ui.err("ERRORS"), s.Errors,
				)
				return nil
			})
		},
	}

	input.AddCommand(add, get, list, del, status)
	return input
}
