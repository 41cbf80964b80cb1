package model

import "time"

// Status classifies a probe outcome at the probe boundary.
//
// Design decision: "unsupported" and "failed" are distinct statuses rather
// than a shared null, so that downstream consumers can tell "this host lacks
// the capability" apart from "the probe broke this run". Timeout is a third
// status because a probe that ran out of budget still contributes its
// declared partial payload.
type Status int

// Probe outcome statuses.
const (
	// StatusOK means the probe returned a value (possibly Null, meaning
	// "nothing to report").
	StatusOK Status = iota

	// StatusUnsupported means the capability is absent on this host.
	StatusUnsupported

	// StatusFailed means the probe returned an unexpected error or panicked.
	StatusFailed

	// StatusTimeout means the probe did not settle within its budget and
	// contributed its declared partial payload instead.
	StatusTimeout
)

// String returns a lowercase name for the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUnsupported:
		return "unsupported"
	case StatusFailed:
		return "failed"
	case StatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Feature is one (label, canonical string) pair selected by the stability
// classifier.
type Feature struct {
	// Label is the allow-list label for the feature.
	Label string `json:"label"`

	// Value is the canonical string serialization of the feature.
	Value string `json:"value"`
}

// FeatureSet is an ordered sequence of stable features. Ordering is fixed
// by allow-list declaration order, never by field insertion or completion
// order, so two records with identical stable content always canonicalize
// to the same sequence.
type FeatureSet []Feature

// Labels returns the feature labels in declaration order.
func (fs FeatureSet) Labels() []string {
	labels := make([]string, len(fs))
	for i, f := range fs {
		labels[i] = f.Label
	}
	return labels
}

// EngineResult is the output of one engine's Generate call.
type EngineResult struct {
	// Engine is the engine name (e.g., "platform", "hardware").
	Engine string `json:"engine"`

	// SchemaVersion is the record schema version.
	SchemaVersion string `json:"schema_version"`

	// Record is the complete fixed-shape fingerprint record.
	Record *Record `json:"record"`

	// Features is the stable feature set selected from Record.
	Features FeatureSet `json:"features"`

	// Hash is the deterministic fold of Features, as lowercase hex.
	Hash string `json:"hash"`

	// Failed lists probes that errored or panicked this run.
	Failed []string `json:"failed,omitempty"`

	// Unsupported lists probes whose capability is absent on this host.
	Unsupported []string `json:"unsupported,omitempty"`

	// TimedOut lists probes that exhausted their budget.
	TimedOut []string `json:"timed_out,omitempty"`

	// Elapsed is the wall time of the Generate call.
	Elapsed time.Duration `json:"elapsed_ns"`
}

// CombinedResult is the output of the multi-engine combiner.
type CombinedResult struct {
	// PerEngine holds each engine's result in declared engine order.
	PerEngine []EngineResult `json:"per_engine"`

	// CombinedHash folds the per-engine hashes into one composite
	// identifier with the same algorithm used per engine.
	CombinedHash string `json:"combined_hash"`

	// Digest is a SHA3-256 checksum of the joined canonical payloads.
	// Unlike CombinedHash it is collision-safe, so history comparison can
	// detect content drift that the 32-bit fold aliases.
	Digest string `json:"digest"`

	// GeneratedAt records when the run completed. It is metadata only and
	// never participates in hashing.
	GeneratedAt time.Time `json:"generated_at"`
}

// EngineSummary is the compact per-engine view used by Summary.
type EngineSummary struct {
	// Name is the engine name.
	Name string `json:"name"`

	// Hash is the engine's fingerprint hash.
	Hash string `json:"hash"`

	// StableFeatures is the number of features selected for hashing.
	StableFeatures int `json:"stable_features"`

	// ProbeCount is the number of schema fields in the record.
	ProbeCount int `json:"probe_count"`

	// Degraded lists probes that did not return a full value this run
	// (failed, unsupported, or timed out).
	Degraded []string `json:"degraded,omitempty"`
}

// Summary is a compact, human-oriented reshape of a CombinedResult.
type Summary struct {
	// CombinedHash is the composite identifier.
	CombinedHash string `json:"combined_hash"`

	// Digest is the collision-safe content checksum.
	Digest string `json:"digest"`

	// GeneratedAt records when the run completed.
	GeneratedAt time.Time `json:"generated_at"`

	// Engines summarizes each engine in declared order.
	Engines []EngineSummary `json:"engines"`
}

// NewSummary builds a Summary from a CombinedResult.
func NewSummary(result *CombinedResult) *Summary {
	s := &Summary{
		CombinedHash: result.CombinedHash,
		Digest:       result.Digest,
		GeneratedAt:  result.GeneratedAt,
		Engines:      make([]EngineSummary, 0, len(result.PerEngine)),
	}

	for _, er := range result.PerEngine {
		degraded := make([]string, 0, len(er.Failed)+len(er.Unsupported)+len(er.TimedOut))
		degraded = append(degraded, er.Failed...)
		degraded = append(degraded, er.Unsupported...)
		degraded = append(degraded, er.TimedOut...)

		probeCount := 0
		if er.Record != nil {
			probeCount = len(er.Record.Schema())
		}

		s.Engines = append(s.Engines, EngineSummary{
			Name:           er.Engine,
			Hash:           er.Hash,
			StableFeatures: len(er.Features),
			ProbeCount:     probeCount,
			Degraded:       degraded,
		})
	}

	return s
}
