// Package main provides the entry point for the hostprint CLI.
//
// hostprint synthesizes a deterministic fingerprint for the local Linux
// host from OS and hardware signals.
//
// Usage:
//
//	hostprint collect
//	hostprint compare
//	hostprint watch
//
// See --help for all available options.
package main

// main is the entry point for hostprint.
func main() {
	Execute()
}
