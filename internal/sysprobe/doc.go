// Package sysprobe implements the host probes behind the two fingerprint
// engines.
//
// The platform engine measures OS and runtime identity: os-release fields,
// kernel identity, architecture, timezone, locale, floating-point behavior,
// installed fonts, and kernel feature support. The hardware engine measures
// hardware-reported identity: DMI strings, machine identifiers, CPU model
// and flags, memory size, physical MAC addresses, block devices, and GPUs.
//
// Every probe reads through the session's overridable roots, respects its
// context, and returns probe.ErrUnsupported when the host simply lacks the
// capability. Both engines also collect a few deliberately volatile signals
// (load, uptime, battery, usage ratios) that are visible in the record but
// rejected from hashing by the engine's declared rejection set.
package sysprobe
