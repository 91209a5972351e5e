package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/osvaldoandrade/visiongo/pkg/api"
	"github.com/osvaldoandrade/visiongo/pkg/domain"
	"github.com/osvaldoandrade/visiongo/pkg/predictions"
)

// value unwraps a call result, turning a service failure into an error.
func value[T any](resp api.Response[T], err error) (T, error) {
	if err != nil {
		var zero T
		return zero, err
	}
	return resp.Value()
}

func score(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func printConcepts(w io.Writer, ui *ui, concepts []predictions.Concept) {
	if len(concepts) == 0 {
		fmt.Fprintln(w, ui.dim("(no concepts)"))
		return
	}
	for _, c := range concepts {
		line := fmt.Sprintf("%-24s %-24s", c.ID, emptyOr(c.Name, "-"))
		if c.HasValue {
			line += " " + score(c.Value)
		}
		if c.Language != "" {
			line += " " + ui.dim(c.Language)
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

func modelType(m domain.Model) string {
	if m.OutputInfo == nil {
		return "-"
	}
	return emptyOr(m.OutputInfo.TypeExt(), m.OutputInfo.Type())
}

func printModels(w io.Writer, ui *ui, models []domain.Model) {
	if len(models) == 0 {
		fmt.Fprintln(w, ui.dim("(no models)"))
		return
	}
	for _, m := range models {
		status := "-"
		if m.Version != nil {
			status = fmt.Sprintf("%d %s", m.Version.Status.Code, m.Version.Status.Description)
		}
		fmt.Fprintf(w, "%-34s %-20s %-24s %s\n", m.ID, emptyOr(m.Name, "-"), modelType(m), ui.dim(status))
	}
}

func printVersion(w io.Writer, ui *ui, v domain.ModelVersion) {
	fmt.Fprintf(w, "%s %s\n", ui.title("version"), v.ID)
	fmt.Fprintf(w, "%s Training: %d %s\n", ui.info("•"), v.Status.Code, v.Status.Description)
	if v.Metrics != nil {
		fmt.Fprintf(w, "%s Metrics:  %d %s\n", ui.info("•"), v.Metrics.Code, v.Metrics.Description)
	}
	if v.ActiveConceptCount != nil {
		fmt.Fprintf(w, "%s Concepts: %d\n", ui.info("•"), *v.ActiveConceptCount)
	}
	if v.TotalInputCount != nil {
		fmt.Fprintf(w, "%s Inputs:   %d\n", ui.info("•"), *v.TotalInputCount)
	}
}

func printInputs(w io.Writer, ui *ui, inputs []domain.Input) {
	if len(inputs) == 0 {
		fmt.Fprintln(w, ui.dim("(no inputs)"))
		return
	}
	for _, in := range inputs {
		source := in.URL
		if source == "" {
			source = fmt.Sprintf("<%d bytes>", len(in.Bytes))
		}
		status := "-"
		if in.Status != nil {
			status = fmt.Sprintf("%d %s", in.Status.Code, in.Status.Description)
		}
		fmt.Fprintf(w, "%-34s %-6s %s %s\n", in.ID, in.Kind, source, ui.dim(status))
	}
}

// printOutput renders one prediction output. Concepts and frames get a table,
// every other kind is printed in its wire form.
func printOutput(w io.Writer, ui *ui, source string, out domain.Output[predictions.Prediction]) {
	fmt.Fprintf(w, "%s %s %s\n", ui.ok("[OK]"), source, ui.dim(out.Status.Description))
	var concepts []predictions.Concept
	for _, p := range out.Data {
		switch v := p.(type) {
		case predictions.Concept:
			concepts = append(concepts, v)
		case predictions.Frame:
			fmt.Fprintf(w, "%s frame %d @ %dms\n", ui.info("•"), v.Index, v.Time)
			printConcepts(w, ui, v.Concepts)
		default:
			fmt.Fprintf(w, "%s %s %s\n", ui.info("•"), p.Type(), p.Serialize())
		}
	}
	if len(concepts) > 0 {
		printConcepts(w, ui, concepts)
	}
}
