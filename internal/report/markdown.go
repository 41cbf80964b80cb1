package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/hostprint/hostprint/internal/model"
	"github.com/nao1215/markdown"
)

// MarkdownWriter outputs results in Markdown format.
// This format is designed for documentation and sharing, e.g. attaching a
// fingerprint snapshot to an inventory ticket.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full result in Markdown format.
func (w *MarkdownWriter) Write(result *model.CombinedResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)

	for i := range result.PerEngine {
		w.writeEngine(md, &result.PerEngine[i])
	}

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSummary outputs the compact summary in Markdown format.
func (w *MarkdownWriter) WriteSummary(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Hostprint Summary")
	md.PlainText("")

	rows := make([][]string, 0, len(summary.Engines)+2)
	rows = append(rows,
		[]string{"combined", "`" + summary.CombinedHash + "`", "-"},
	)
	for _, eng := range summary.Engines {
		degraded := "-"
		if len(eng.Degraded) > 0 {
			degraded = strings.Join(eng.Degraded, ", ")
		}
		rows = append(rows, []string{eng.Name, "`" + eng.Hash + "`", degraded})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Engine", "Hash", "Degraded Probes"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with the composite identifiers.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.CombinedResult) {
	md.H1("Hostprint Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Fingerprint", "`" + result.CombinedHash + "`"},
			{"Digest", "`" + result.Digest + "`"},
			{"Generated", result.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Engines", strconv.Itoa(len(result.PerEngine))},
		},
	})
	md.PlainText("")
}

// writeEngine writes one engine's section.
func (w *MarkdownWriter) writeEngine(md *markdown.Markdown, er *model.EngineResult) {
	md.H2("Engine: " + er.Engine)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Hash", "`" + er.Hash + "`"},
			{"Schema", er.SchemaVersion},
			{"Stable features", strconv.Itoa(len(er.Features))},
			{"Elapsed", er.Elapsed.String()},
		},
	})
	md.PlainText("")

	w.writeFeatures(md, er.Features)
	w.writeDegraded(md, er)
}

// writeFeatures writes the stable feature table.
func (w *MarkdownWriter) writeFeatures(md *markdown.Markdown, features model.FeatureSet) {
	if len(features) == 0 {
		md.PlainText("No stable features selected.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(features))
	for i, f := range features {
		rows[i] = []string{f.Label, "`" + truncateString(f.Value, 60) + "`"}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Feature", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeDegraded writes an alert when probes did not settle cleanly.
func (w *MarkdownWriter) writeDegraded(md *markdown.Markdown, er *model.EngineResult) {
	switch {
	case len(er.Failed) > 0:
		md.Warningf(
			"Probes failed this run: %s. Their record fields hold the null sentinel.",
			strings.Join(er.Failed, ", "),
		)
	case len(er.TimedOut) > 0:
		md.Importantf(
			"Probes timed out: %s. Their declared partial payloads were used.",
			strings.Join(er.TimedOut, ", "),
		)
	case len(er.Unsupported) > 0:
		md.Note("Capabilities absent on this host: " + strings.Join(er.Unsupported, ", ") + ".")
	default:
		md.Tip("All probes settled cleanly.")
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [hostprint](https://github.com/hostprint/hostprint)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
