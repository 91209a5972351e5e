package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/osvaldoandrade/visiongo/pkg/app"
	"github.com/osvaldoandrade/visiongo/pkg/client"
	"github.com/osvaldoandrade/visiongo/pkg/domain"
	"github.com/osvaldoandrade/visiongo/pkg/requests"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// withProgress runs fn behind an open-ended progress bar.
func withProgress[T any](w io.Writer, desc string, fn func() (T, error)) (T, error) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(18),
		progressbar.OptionClearOnFinish(),
	)
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(200 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				_ = bar.Add(1)
			}
		}
	}()
	v, err := fn()
	close(stop)
	wg.Wait()
	_ = bar.Finish()
	return v, err
}

func waitTrained(ctx context.Context, w io.Writer, ui *ui, a *app.Application, modelID string) error {
	m, err := withProgress(w, "Training "+modelID, func() (domain.Model, error) {
		return a.Client.WaitForTraining(ctx, modelID)
	})
	var failed *client.TrainingFailedError
	if errors.As(err, &failed) {
		fmt.Fprintf(w, "%s Training ended with %d %s\n", ui.err("[FAIL]"), failed.Status.Code, failed.Status.Description)
		return err
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s Model %s trained (version %s)\n", ui.ok("[OK]"), m.ID, m.Version.ID)
	return nil
}

func modelCmd(c *cli) *cobra.Command {
	model := &cobra.Command{
		Use:   "model",
		Short: "Model operations",
	}

	var searchType string
	search := &cobra.Command{
		Use:     "search <name>",
		Short:   "Search models by name and type",
		Example: "visiongo model search '*' --type logo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var mt domain.ModelType
			if searchType != "" {
				t, err := domain.ParseModelType(searchType)
				if err != nil {
					return err
				}
				mt = t
			}
			return c.run(cmd, func(ctx context.Context, a *app.Application) error {
				got, err := value(a.Client.SearchModels(ctx, args[0], mt))
				if err != nil {
					return err
				}
				printModels(cmd.OutOrStdout(), c.ui, got)
				return nil
			})
		},
	}
	search.Flags().StringVar(&searchType, "type", "", "Model type (concept, color, detect-concept, logo, ...)")

	var getVersion string
	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Get a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, a *app.Application) error {
				m, err := value(a.Client.GetModel(ctx, args[0], getVersion))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				printModels(out, c.ui, []domain.Model{m})
				if m.Version != nil {
					printVersion(out, c.ui, *m.Version)
				}
				return nil
			})
		},
	}
	get.Flags().StringVar(&getVersion, "version", "", "Model version id")

	var page requests.Page
	list := &cobra.Command{
		Use:   "list",
		Short: "List models",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, a *app.Application) error {
				spin := newSpinner(cmd.ErrOrStderr(), "Fetching models...")
				spin.Start()
				got, err := value(a.Client.GetModels(ctx, page))
				spin.Stop()
				if err != nil {
					return err
				}
				printModels(cmd.OutOrStdout(), c.ui, got)
				return nil
			})
		},
	}
	pageFlags(list, &page)

	var (
		name      string
		concepts  string
		exclusive bool
		closedEnv bool
		language  string
	)
	create := &cobra.Command{
		Use:     "create <id>",
		Short:   "Create a custom model",
		Example: "visiongo model create pets --concepts dog,cat --exclusive",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []requests.CreateModelOption{requests.WithModelName(name), requests.WithModelLanguage(language)}
			if ids := splitList(concepts); len(ids) > 0 {
				opts = append(opts, requests.WithModelConcepts(ids...))
			}
			if cmd.Flags().Changed("exclusive") {
				opts = append(opts, requests.WithMutuallyExclusive(exclusive))
			}
			if cmd.Flags().Changed("closed-env") {
				opts = append(opts, requests.WithClosedEnvironment(closedEnv))
			}
			return c.run(cmd, func(ctx context.Context, a *app.Application) error {
				m, err := value(a.Client.CreateModel(ctx, args[0], opts...))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Model created: %s\n", c.ui.ok("[OK]"), m.ID)
				return nil
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "Model name")
	create.Flags().StringVar(&concepts, "concepts", "", "Comma-separated concept ids")
	create.Flags().BoolVar(&exclusive, "exclusive", false, "Concepts are mutually exclusive")
	create.Flags().BoolVar(&closedEnv, "closed-env", false, "Closed environment")
	create.Flags().StringVar(&language, "language", "", "Concept language")

	var deleteAll bool
	del := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a model, or every model with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if deleteAll == (len(args) == 1) {
				return errors.New("provide a model id or --all")
			}
			return c.run(cmd, func(ctx context.Context, a *app.Application) error {
				if deleteAll {
					if _, err := value(a.Client.DeleteAllModels(ctx)); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s All models deleted\n", c.ui.ok("[OK]"))
					return nil
				}
				if _, err := value(a.Client.DeleteModel(ctx, args[0])); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Model deleted: %s\n", c.ui.ok("[OK]"), args[0])
				return nil
			})
		},
	}
	del.Flags().BoolVar(&deleteAll, "all", false, "Delete every model of the app")

	var trainWait bool
	train := &cobra.Command{
		Use:   "train <id>",
		Short: "Queue training of a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, a *app.Application) error {
				m, err := value(a.Client.TrainModel(ctx, args[0]))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if m.Version != nil {
					fmt.Fprintf(out, "%s Training queued: version %s\n", c.ui.info("[INFO]"), m.Version.ID)
				}
				if !trainWait {
					return nil
				}
				return waitTrained(ctx, out, c.ui, a, args[0])
			})
		},
	}
	train.Flags().BoolVar(&trainWait, "wait", false, "Wait until training finishes")

	wait := &cobra.Command{
		Use:   "wait <id>",
		Short: "Wait until the latest model version finishes training",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, a *app.Application) error {
				return waitTrained(ctx, cmd.OutOrStdout(), c.ui, a, args[0])
			})
		},
	}

	var evalWait bool
	eval := &cobra.Command{
		Use:   "eval <id> <version>",
		Short: "Start evaluation of a model version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			modelID, versionID := args[0], args[1]
			return c.run(cmd, func(ctx context.Context, a *app.Application) error {
				if _, err := value(a.Client.ModelEvaluation(ctx, modelID, versionID)); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s Evaluation started for %s/%s\n", c.ui.info("[INFO]"), modelID, versionID)
				if !evalWait {
					return nil
				}
				v, err := withProgress(out, "Evaluating "+versionID, func() (domain.ModelVersion, error) {
					return a.Client.WaitForEvaluation(ctx, modelID, versionID)
				})
				if err != nil {
					return err
				}
				printVersion(out, c.ui, v)
				return nil
			})
		},
	}
	eval.Flags().BoolVar(&evalWait, "wait", false, "Wait until evaluation finishes")

	var versionsPage requests.Page
	versions := &cobra.Command{
		Use:   "versions <id>",
		Short: "List the versions of a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, a *app.Application) error {
				got, err := value(a.Client.GetModelVersions(ctx, args[0], versionsPage))
				if err != nil {
					return err
				}
				for _, v := range got {
					printVersion(cmd.OutOrStdout(), c.ui, v)
				}
				return nil
			})
		},
	}
	pageFlags(versions, &versionsPage)

	model.AddCommand(search, get, list, create, del, train, wait, eval, versions)
	return model
}

func splitList(s string) []string {
	var out []string
	for _, e := range strings.Split(s, ",") {
		e = strings.TrimSpace(e)
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
