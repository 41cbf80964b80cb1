package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/hostprint/hostprint/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables the per-engine stable feature listing.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with the full stable feature listing.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full result in human-readable format.
func (w *SimpleWriter) Write(result *model.CombinedResult) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, result)

	for _, er := range result.PerEngine {
		w.writeEngine(&sb, &er)
	}

	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteSummary outputs the compact summary in human-readable format.
func (w *SimpleWriter) WriteSummary(summary *model.Summary) (int, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Fingerprint: %s\n", summary.CombinedHash))
	sb.WriteString(fmt.Sprintf("Digest:      %s\n", summary.Digest))
	sb.WriteString(fmt.Sprintf("Generated:   %s\n", summary.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
	for _, eng := range summary.Engines {
		sb.WriteString(fmt.Sprintf("  %-10s %s  (%d/%d stable", eng.Name, eng.Hash, eng.StableFeatures, eng.ProbeCount))
		if len(eng.Degraded) > 0 {
			sb.WriteString(fmt.Sprintf(", degraded: %s", strings.Join(eng.Degraded, ", ")))
		}
		sb.WriteString(")\n")
	}

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with the composite identifiers.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, result *model.CombinedResult) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         HOSTPRINT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Fingerprint:  %s\n", result.CombinedHash))
	sb.WriteString(fmt.Sprintf("Digest:       %s\n", result.Digest))
	sb.WriteString(fmt.Sprintf("Generated:    %s\n", result.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Engines:      %d\n", len(result.PerEngine)))
	sb.WriteString("\n")
}

// writeEngine writes one engine's section.
func (w *SimpleWriter) writeEngine(sb *strings.Builder, er *model.EngineResult) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("ENGINE: %s (%s)\n", strings.ToUpper(er.Engine), er.SchemaVersion))
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Hash:            %s\n", er.Hash))
	sb.WriteString(fmt.Sprintf("  Stable features: %d\n", len(er.Features)))
	sb.WriteString(fmt.Sprintf("  Elapsed:         %s\n", er.Elapsed))

	w.writeProbeList(sb, "Failed", er.Failed)
	w.writeProbeList(sb, "Unsupported", er.Unsupported)
	w.writeProbeList(sb, "Timed out", er.TimedOut)
	sb.WriteString("\n")

	if w.verbose {
		for _, f := range er.Features {
			sb.WriteString(fmt.Sprintf("  %-18s %s\n", f.Label+":", truncateString(f.Value, 48)))
		}
		sb.WriteString("\n")
	}
}

// writeProbeList writes a labeled probe name list, skipping empty lists.
func (w *SimpleWriter) writeProbeList(sb *strings.Builder, label string, probes []string) {
	if len(probes) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("  %-16s %s\n", label+":", strings.Join(probes, ", ")))
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by hostprint\n")
	sb.WriteString("https://github.com/hostprint/hostprint\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
