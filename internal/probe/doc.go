// Package probe defines the probe boundary and the concurrent executor.
//
// A probe is a named, zero-argument measurement against the host: it reads a
// file, runs a command, or inspects the runtime, and returns a model.Value or
// an error. The executor launches a fixed set of probes concurrently,
// isolates every failure at the probe boundary, races each probe against a
// time budget, and returns exactly one outcome per declared probe name.
//
// Probes share a per-run Session that carries the logger, a command runner,
// overridable filesystem roots for tests, and a memo so concurrent probes
// read expensive sources (cpuinfo, os-release) once per run.
package probe
