package main

import (
	"context"
	"fmt"
	"io"

	"github.com/osvaldoandrade/visiongo/internal/providers"
	"github.com/osvaldoandrade/visiongo/pkg/api"
	"github.com/osvaldoandrade/visiongo/pkg/app"
	"github.com/osvaldoandrade/visiongo/pkg/client"
	"github.com/osvaldoandrade/visiongo/pkg/domain"
	"github.com/osvaldoandrade/visiongo/pkg/predictions"
	"github.com/osvaldoandrade/visiongo/pkg/requests"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type predictFlags struct {
	kind        string
	language    string
	minValue    string
	maxConcepts int
	selected    string
	sampleMs    int
	version     string
	concurrency int
	batch       bool
}

func (f predictFlags) options(kind predictions.Type, defaultLanguage string) ([]requests.PredictOption, error) {
	opts := []requests.PredictOption{requests.WithPredictionType(kind)}
	lang := f.language
	if lang == "" {
		lang = defaultLanguage
	}
	if lang != "" {
		opts = append(opts, requests.WithLanguage(lang))
	}
	if f.minValue != "" {
		v, err := decimal.NewFromString(f.minValue)
		if err != nil {
			return nil, errors.Wrap(err, "--min-value")
		}
		opts = append(opts, requests.WithMinValue(v))
	}
	if f.maxConcepts > 0 {
		opts = append(opts, requests.WithMaxConcepts(f.maxConcepts))
	}
	if ids := splitList(f.selected); len(ids) > 0 {
		opts = append(opts, requests.WithSelectConcepts(lo.Map(ids, func(id string, _ int) predictions.Concept {
			return predictions.NewConcept(id)
		})...))
	}
	if f.sampleMs > 0 {
		opts = append(opts, requests.WithSampleMs(f.sampleMs))
	}
	if f.version != "" {
		opts = append(opts, requests.WithModelVersion(f.version))
	}
	return opts, nil
}

// resolveKind picks the prediction kind to decode: the --type flag, frames
// for video inputs, otherwise what the model's output info declares.
func resolveKind(ctx context.Context, a *app.Application, f predictFlags, modelID string, sources []string) (predictions.Type, error) {
	if f.kind != "" {
		kind := predictions.Type(f.kind)
		if !lo.Contains(predictions.Types, kind) {
			return "", fmt.Errorf("unknown prediction type %q", f.kind)
		}
		return kind, nil
	}
	videos := lo.CountBy(sources, providers.IsVideo)
	switch {
	case videos == len(sources):
		return predictions.TypeFrame, nil
	case videos > 0:
		return "", errors.New("cannot mix image and video inputs in one predict")
	}
	m, err := value(a.Client.GetModel(ctx, modelID, f.version))
	if err != nil {
		return "", err
	}
	kind := m.PredictionType()
	if kind == predictions.TypeUnknown {
		return "", fmt.Errorf("model %s has no known prediction type, pass --type", modelID)
	}
	return kind, nil
}

func predictCmd(c *cli) *cobra.Command {
	var f predictFlags
	cmd := &cobra.Command{
		Use:   "predict <model-id> <url-or-file>...",
		Short: "Run inputs through a model",
		Example: "visiongo predict aaa03c23b3724a16a56b629203edc62c https://samples.clarifai.com/metro-north.jpg --min-value 0.9\n" +
			"  visiongo predict aaa03c23b3724a16a56b629203edc62c ./beach.mp4 --sample-ms 500",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			modelID, sources := args[0], args[1:]
			return c.run(cmd, func(ctx context.Context, a *app.Application) error {
				inputs := make([]domain.Input, 0, len(sources))
				for _, source := range sources {
					in, err := a.Inputs.Load(ctx, source)
					if err != nil {
						return err
					}
					inputs = append(inputs, in)
				}
				kind, err := resolveKind(ctx, a, f, modelID, sources)
				if err != nil {
					return err
				}
				opts, err := f.options(kind, c.profile().Language)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				spin := newSpinner(cmd.ErrOrStderr(), fmt.Sprintf("Predicting %d input(s)...", len(inputs)))
				spin.Start()
				defer spin.Stop()

				if f.batch {
					outs, err := value(client.BatchPredict[predictions.Prediction](ctx, a.Client, modelID, inputs, opts...))
					spin.Stop()
					if err != nil {
						return err
					}
					for i, o := range outs {
						printOutput(out, c.ui, sources[i], o)
					}
					return nil
				}

				limit := f.concurrency
				if limit <= 0 {
					limit = a.Config.PredictConcurrency
				}
				resps, err := client.PredictEach[predictions.Prediction](ctx, a.Client, modelID, inputs, limit, opts...)
				spin.Stop()
				if err != nil {
					return err
				}
				return printEach(out, c.ui, sources, resps)
			})
		},
	}
	cmd.Flags().StringVar(&f.kind, "type", "", "Prediction type (concept, color, region, logo, frame, ...)")
	cmd.Flags().StringVar(&f.language, "language", "", "Concept language")
	cmd.Flags().StringVar(&f.minValue, "min-value", "", "Drop concepts scoring below this value")
	cmd.Flags().IntVar(&f.maxConcepts, "max-concepts", 0, "Return at most this many concepts")
	cmd.Flags().StringVar(&f.selected, "select", "", "Comma-separated concept ids to score")
	cmd.Flags().IntVar(&f.sampleMs, "sample-ms", 0, "Video frame sampling interval")
	cmd.Flags().StringVar(&f.version, "version", "", "Model version id")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "Parallel predict calls (defaults to predictConcurrency)")
	cmd.Flags().BoolVar(&f.batch, "batch", false, "Send every input in one call")
	return cmd
}

func printEach(w io.Writer, ui *ui, sources []string, resps []api.Response[domain.Output[predictions.Prediction]]) error {
	failed := 0
	for i, resp := range resps {
		o, err := resp.Value()
		if err != nil {
			failed++
			fmt.Fprintf(w, "%s %s %s\n", ui.err("[FAIL]"), sources[i], resp.Status())
			continue
		}
		printOutput(w, ui, sources[i], o)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d predictions failed", failed, len(resps))
	}
	return nil
}
