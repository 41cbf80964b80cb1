package sysprobe

import (
	"github.com/hostprint/hostprint/internal/engine"
	"github.com/hostprint/hostprint/internal/model"
	"github.com/hostprint/hostprint/internal/probe"
)

// Engine names, in declared combiner order.
const (
	// PlatformEngineName identifies the OS/runtime identity engine.
	PlatformEngineName = "platform"

	// HardwareEngineName identifies the hardware identity engine.
	HardwareEngineName = "hardware"
)

// platformSchemaVersion versions the platform record schema. Bump on any
// probe addition, removal, or payload shape change.
const platformSchemaVersion = "v1"

// hardwareSchemaVersion versions the hardware record schema.
const hardwareSchemaVersion = "v1"

// PlatformDefinition declares the platform engine: OS and runtime identity.
//
// The volatile rejection set is deliberate and auditable: load and uptime
// are collected so a report shows them, but they change run to run and must
// never reach the hash.
func PlatformDefinition() engine.Definition {
	return engine.Definition{
		Name:          PlatformEngineName,
		SchemaVersion: platformSchemaVersion,
		Specs: []probe.Spec{
			{Name: "os_release", Run: probeOSRelease},
			{Name: "kernel", Run: probeKernel},
			{Name: "arch", Run: probeArch},
			{Name: "timezone", Run: probeTimezone},
			{Name: "locale", Run: probeLocale},
			{Name: "math_signature", Run: probeMathSignature},
			{Name: "fonts", Run: probeFonts, Empty: model.List()},
			{Name: "features", Run: probeFeatures},
			{Name: "load", Run: probeLoad},
			{Name: "uptime", Run: probeUptime},
		},
		Stable: []engine.StableRule{
			{Label: "os_release", Key: "os_release"},
			{Label: "kernel", Key: "kernel"},
			{Label: "arch", Key: "arch"},
			{Label: "timezone", Key: "timezone"},
			{Label: "locale", Key: "locale"},
			{Label: "math", Key: "math_signature"},
			{Label: "fonts", Key: "fonts", SortElements: true},
			{Label: "features", Key: "features"},
		},
		Volatile: []string{"load", "uptime"},
	}
}

// HardwareDefinition declares the hardware engine: firmware- and
// device-reported identity.
//
// Battery charge, memory availability, storage usage, and network counters
// are in the rejection set for the same reason as above: visible, never
// hashed.
func HardwareDefinition() engine.Definition {
	return engine.Definition{
		Name:          HardwareEngineName,
		SchemaVersion: hardwareSchemaVersion,
		Specs: []probe.Spec{
			{Name: "dmi", Run: probeDMI},
			{Name: "machine_uuid", Run: probeMachineUUID},
			{Name: "machine_id", Run: probeMachineID},
			{Name: "cpu", Run: probeCPU},
			{Name: "memory", Run: probeMemory},
			{Name: "mac_addresses", Run: probeMACAddresses, Empty: model.List()},
			{Name: "block_devices", Run: probeBlockDevices, Empty: model.List()},
			{Name: "gpu", Run: probeGPU, Empty: model.List()},
			{Name: "battery", Run: probeBattery},
			{Name: "memory_usage", Run: probeMemoryUsage},
			{Name: "storage_usage", Run: probeStorageUsage},
			{Name: "network_activity", Run: probeNetworkActivity},
		},
		Stable: []engine.StableRule{
			{Label: "dmi", Key: "dmi"},
			{Label: "machine_uuid", Key: "machine_uuid"},
			{Label: "machine_id", Key: "machine_id"},
			{Label: "cpu", Key: "cpu"},
			{Label: "memory", Key: "memory"},
			{Label: "mac", Key: "mac_addresses", SortElements: true},
			{Label: "disks", Key: "block_devices", SortElements: true},
			{Label: "gpu", Key: "gpu", SortElements: true},
		},
		Volatile: []string{"battery", "memory_usage", "storage_usage", "network_activity"},
	}
}

// Engines builds the two production engines in declared combiner order:
// platform first, hardware second. The order is part of the composite hash
// contract and must not change between releases.
func Engines(opts ...engine.Option) ([]*engine.Engine, error) {
	platform, err := engine.New(PlatformDefinition(), opts...)
	if err != nil {
		return nil, err
	}

	hardware, err := engine.New(HardwareDefinition(), opts...)
	if err != nil {
		return nil, err
	}

	return []*engine.Engine{platform, hardware}, nil
}
