// Package monitor provides scheduled fingerprint regeneration with drift
// detection.
//
// A Monitor regenerates the combined fingerprint on a cron schedule and
// compares each run's content digest against the previous one. When the
// digest changes, the drift is logged, persisted to the history database,
// and optionally delivered through a notifier (Shoutrrr service URLs:
// telegram, slack, smtp, and so on).
//
// Comparison uses the collision-safe digest rather than the 32-bit folded
// hash, so content drift that the fold happens to alias is still detected.
package monitor
