// Package log provides redacting logging built on top of the standard slog
// package.
//
// Fingerprinting code handles raw hardware identifiers: machine UUIDs, DMI
// serials, MAC addresses. Those values are exactly what must not land in
// shared log files verbatim, even in verbose mode. The RedactHandler wraps
// any slog.Handler and masks attribute values that look like (or are keyed
// as) hardware identifiers before they reach the underlying handler.
//
// Derived values pass through untouched: the 32-bit fingerprint hash,
// feature counts, and probe names are the intended log vocabulary.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//	logger.Debug("probe settled",
//	    "probe", "machine_uuid",
//	    "serial", "S649NX0T123456",  // masked
//	)
//	slog.SetDefault(logger)
package log
