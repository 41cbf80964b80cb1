package engine

import (
	"github.com/hostprint/hostprint/internal/model"
	"github.com/hostprint/hostprint/internal/probe"
)

// assemble maps an outcome bundle into a fixed-shape record. It is a pure,
// synchronous, total function: every schema field is present in the output
// regardless of how its probe settled.
//
// This is a structural reshape only. Semantic filtering (stable versus
// volatile) belongs to the stability classifier, never here.
func assemble(version string, schema []string, outcomes map[string]probe.Outcome) *model.Record {
	record := model.NewRecord(version, schema)

	for _, key := range schema {
		outcome, ok := outcomes[key]
		if !ok {
			// The executor guarantees one outcome per spec; a missing
			// entry can only mean the schema and specs diverged, which
			// New rejects. Keep the null sentinel.
			continue
		}

		switch outcome.Status {
		case model.StatusOK:
			record.Set(key, outcome.Value)
		case model.StatusTimeout:
			// Partial success: the executor already substituted the
			// spec's declared Empty payload.
			record.Set(key, outcome.Value)
		case model.StatusUnsupported, model.StatusFailed:
			// Keep the null sentinel.
		}
	}

	return record
}
