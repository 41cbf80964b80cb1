package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hostprint/hostprint/internal/config"
	"github.com/hostprint/hostprint/internal/database"
	"github.com/hostprint/hostprint/internal/model"
)

// NewCompareCmd creates the compare command.
// This command compares fingerprint runs stored in the history database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [host]",
		Short: "Compare fingerprint runs from the history database",
		Long: `Compare displays differences between the latest two fingerprint runs.

This command retrieves historical runs from the database and shows:
- Whether the composite hash and content digest changed
- Which engines drifted
- Stable features that were added, removed, or changed

The comparison requires at least two runs in the database for the host.
Use 'hostprint collect' to generate and save runs. When no host is given,
the local hostname is used.

Examples:
  # Compare the latest two runs for this host
  hostprint compare

  # List run history for a host
  hostprint compare --list workstation

  # Compare the latest run with a specific run by ID
  hostprint compare --with-run-id 5

  # Output comparison in JSON format
  hostprint compare --json

  # List all hosts in the database
  hostprint compare --list-hosts`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List run history for the host")
	cmd.Flags().BoolP("list-hosts", "L", false,
		"List all hosts in the database")

	// Comparison target flags
	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare with a specific run by ID (use --list to see available IDs)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	listHosts, err := cmd.Flags().GetBool("list-hosts")
	if err != nil {
		return err
	}

	// Resolve the host before opening the database (unless --list-hosts)
	var host string
	if !listHosts {
		if len(args) > 0 {
			host = args[0]
		} else {
			host, err = os.Hostname()
			if err != nil {
				return errors.New("host is required (could not determine local hostname)")
			}
		}
	}

	// Use XDG data directory for database
	dbDir := config.XDGDataDir()

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if listHosts {
		return listKnownHosts(ctx, db)
	}

	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listRunHistory(ctx, db, host)
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	withRunID, err := cmd.Flags().GetInt64("with-run-id")
	if err != nil {
		return err
	}

	return runComparison(ctx, db, host, withRunID, jsonOutput)
}

// listKnownHosts lists all hosts that have runs in the database.
func listKnownHosts(ctx context.Context, db *database.HistoryDB) error {
	hosts, err := db.ListHosts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list hosts: %w", err)
	}

	if len(hosts) == 0 {
		fmt.Println("No fingerprint runs found in the database.")
		fmt.Println("\nUse 'hostprint collect' to generate and save a fingerprint.")
		return nil
	}

	fmt.Printf("Known hosts (%d):\n\n", len(hosts))
	for _, h := range hosts {
		fmt.Printf("  • %s\n", h)
	}
	fmt.Println("\nUse 'hostprint compare --list <host>' to see run history for a host.")

	return nil
}

// listRunHistory lists all runs for a host.
func listRunHistory(ctx context.Context, db *database.HistoryDB, host string) error {
	runs, err := db.ListRuns(ctx, host)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Printf("No run history found for %s\n", host)
		fmt.Println("\nUse 'hostprint collect' to generate and save a fingerprint.")
		return nil
	}

	fmt.Printf("Run history for %s (%d runs):\n\n", host, len(runs))
	fmt.Printf("  %-6s  %-20s  %-10s  %s\n", "ID", "Date", "Hash", "Digest")
	fmt.Println("  " + strings.Repeat("-", 70))

	for _, run := range runs {
		fmt.Printf("  %-6d  %-20s  %-10s  %s\n",
			run.ID,
			run.CreatedAt.Format("2006-01-02 15:04:05"),
			run.CombinedHash,
			truncateDigest(run.Digest),
		)
	}

	fmt.Println("\nUse 'hostprint compare <host>' to compare the latest two runs.")
	fmt.Println("Use 'hostprint compare --with-run-id <id> <host>' to compare with a specific run.")

	return nil
}

// truncateDigest shortens a content digest for tabular display.
func truncateDigest(digest string) string {
	if len(digest) <= 16 {
		return digest
	}
	return digest[:16] + "..."
}

// runComparison performs the actual comparison between fingerprint runs.
func runComparison(ctx context.Context, db *database.HistoryDB, host string, withRunID int64, jsonOutput bool) error {
	current, err := db.LatestRun(ctx, host)
	if err != nil {
		return fmt.Errorf("failed to get latest run: %w", err)
	}
	if current == nil {
		return fmt.Errorf("no run history found for %s", host)
	}

	var previous *database.Run
	if withRunID > 0 {
		previous, err = db.GetRunByID(ctx, withRunID)
		if err != nil {
			return fmt.Errorf("failed to get run with ID %d: %w", withRunID, err)
		}
		if previous == nil {
			return fmt.Errorf("run with ID %d not found", withRunID)
		}
		// Validate that the run ID belongs to the same host
		if previous.Host != host {
			return fmt.Errorf("run ID %d belongs to %s, not %s", withRunID, previous.Host, host)
		}
	} else {
		// Default: compare with the run before the latest
		runs, err := db.ListRuns(ctx, host)
		if err != nil {
			return fmt.Errorf("failed to get run history: %w", err)
		}
		if len(runs) < 2 {
			return fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(runs))
		}
		previous, err = db.GetRunByID(ctx, runs[1].ID)
		if err != nil {
			return fmt.Errorf("failed to get run with ID %d: %w", runs[1].ID, err)
		}
	}

	comparison := compareRuns(previous, current)

	if jsonOutput {
		return outputComparisonJSON(comparison)
	}
	return outputComparisonText(comparison)
}

// ComparisonResult holds the result of comparing two fingerprint runs.
type ComparisonResult struct {
	// Host is the compared host.
	Host string `json:"host"`

	// PreviousRun contains metadata about the older run.
	PreviousRun RunMetadata `json:"previous_run"`

	// CurrentRun contains metadata about the newer run.
	CurrentRun RunMetadata `json:"current_run"`

	// Identical reports whether the content digests match. The composite
	// hash can collide, so identity is judged on the digest.
	Identical bool `json:"identical"`

	// EngineChanges lists per-engine drift, one entry per engine whose
	// hash differs or that appears in only one run.
	EngineChanges []EngineChange `json:"engine_changes,omitempty"`
}

// RunMetadata contains metadata about a run for comparison display.
type RunMetadata struct {
	// RunID is the database identifier of the run.
	RunID int64 `json:"run_id"`

	// CreatedAt is when the run was saved.
	CreatedAt time.Time `json:"created_at"`

	// CombinedHash is the composite fingerprint hash.
	CombinedHash string `json:"combined_hash"`

	// Digest is the collision-safe content digest.
	Digest string `json:"digest"`
}

// EngineChange describes drift within one engine between two runs.
type EngineChange struct {
	// Engine is the engine name.
	Engine string `json:"engine"`

	// PreviousHash is the engine hash in the older run. Empty when the
	// engine did not exist in that run.
	PreviousHash string `json:"previous_hash,omitempty"`

	// CurrentHash is the engine hash in the newer run. Empty when the
	// engine no longer exists.
	CurrentHash string `json:"current_hash,omitempty"`

	// Added lists stable features present only in the newer run.
	Added []model.Feature `json:"added,omitempty"`

	// Removed lists stable features present only in the older run.
	Removed []model.Feature `json:"removed,omitempty"`

	// Changed lists stable features whose canonical value changed.
	Changed []FeatureChange `json:"changed,omitempty"`
}

// FeatureChange describes one stable feature whose value drifted.
type FeatureChange struct {
	// Label is the allow-list label of the feature.
	Label string `json:"label"`

	// Previous is the canonical value in the older run.
	Previous string `json:"previous"`

	// Current is the canonical value in the newer run.
	Current string `json:"current"`
}

// compareRuns compares two stored runs and generates a comparison result.
func compareRuns(previous, current *database.Run) *ComparisonResult {
	result := &ComparisonResult{
		Host: current.Host,
		PreviousRun: RunMetadata{
			RunID:        previous.ID,
			CreatedAt:    previous.CreatedAt,
			CombinedHash: previous.CombinedHash,
			Digest:       previous.Digest,
		},
		CurrentRun: RunMetadata{
			RunID:        current.ID,
			CreatedAt:    current.CreatedAt,
			CombinedHash: current.CombinedHash,
			Digest:       current.Digest,
		},
		Identical: previous.Digest == current.Digest,
	}

	if result.Identical || previous.Result == nil || current.Result == nil {
		return result
	}

	prevEngines := make(map[string]model.EngineResult, len(previous.Result.PerEngine))
	for _, er := range previous.Result.PerEngine {
		prevEngines[er.Engine] = er
	}

	seen := make(map[string]bool, len(current.Result.PerEngine))
	for _, er := range current.Result.PerEngine {
		seen[er.Engine] = true

		prev, ok := prevEngines[er.Engine]
		if !ok {
			result.EngineChanges = append(result.EngineChanges, EngineChange{
				Engine:      er.Engine,
				CurrentHash: er.Hash,
				Added:       er.Features,
			})
			continue
		}
		if prev.Hash == er.Hash {
			continue
		}

		change := EngineChange{
			Engine:       er.Engine,
			PreviousHash: prev.Hash,
			CurrentHash:  er.Hash,
		}
		change.Added, change.Removed, change.Changed = diffFeatures(prev.Features, er.Features)
		result.EngineChanges = append(result.EngineChanges, change)
	}

	for _, er := range previous.Result.PerEngine {
		if !seen[er.Engine] {
			result.EngineChanges = append(result.EngineChanges, EngineChange{
				Engine:       er.Engine,
				PreviousHash: er.Hash,
				Removed:      er.Features,
			})
		}
	}

	return result
}

// diffFeatures compares two stable feature sets by label.
func diffFeatures(previous, current model.FeatureSet) (added, removed []model.Feature, changed []FeatureChange) {
	prevByLabel := make(map[string]string, len(previous))
	for _, f := range previous {
		prevByLabel[f.Label] = f.Value
	}

	seen := make(map[string]bool, len(current))
	for _, f := range current {
		seen[f.Label] = true

		prevValue, ok := prevByLabel[f.Label]
		switch {
		case !ok:
			added = append(added, f)
		case prevValue != f.Value:
			changed = append(changed, FeatureChange{
				Label:    f.Label,
				Previous: prevValue,
				Current:  f.Value,
			})
		}
	}

	for _, f := range previous {
		if !seen[f.Label] {
			removed = append(removed, f)
		}
	}

	return added, removed, changed
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(result *ComparisonResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(result *ComparisonResult) error {
	fmt.Printf("Fingerprint Comparison: %s\n", result.Host)
	fmt.Println(strings.Repeat("=", 60))

	if result.Identical {
		fmt.Println("\nStatus: IDENTICAL (content digests match)")
	} else {
		fmt.Println("\nStatus: DRIFTED")
	}

	fmt.Printf("\nPrevious run: #%d  %s\n",
		result.PreviousRun.RunID,
		result.PreviousRun.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Current run:  #%d  %s\n",
		result.CurrentRun.RunID,
		result.CurrentRun.CreatedAt.Format("2006-01-02 15:04:05"))

	fmt.Printf("\nHash:   %s -> %s\n", result.PreviousRun.CombinedHash, result.CurrentRun.CombinedHash)
	fmt.Printf("Digest: %s -> %s\n",
		truncateDigest(result.PreviousRun.Digest),
		truncateDigest(result.CurrentRun.Digest))

	for _, change := range result.EngineChanges {
		fmt.Printf("\nEngine %s: %s -> %s\n",
			change.Engine,
			orAbsent(change.PreviousHash),
			orAbsent(change.CurrentHash))

		for _, f := range change.Added {
			fmt.Printf("  [+] %s: %s\n", f.Label, f.Value)
		}
		for _, f := range change.Removed {
			fmt.Printf("  [-] %s: %s\n", f.Label, f.Value)
		}
		for _, fc := range change.Changed {
			fmt.Printf("  [~] %s: %s -> %s\n", fc.Label, fc.Previous, fc.Current)
		}
	}

	return nil
}

// orAbsent substitutes a placeholder for an empty hash.
func orAbsent(hash string) string {
	if hash == "" {
		return "(absent)"
	}
	return hash
}
