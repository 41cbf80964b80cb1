package config

// EngineConfig holds per-engine configuration loaded from the config file.
// This allows tuning a single engine without touching the others.
type EngineConfig struct {
	// Disabled lists probe names to remove from this engine's probe set.
	// Disabling a probe removes its key from the engine schema, which
	// changes the fingerprint for every run of this configuration. Use it
	// for probes that are meaningless in a deployment (e.g. "battery" on
	// servers), not for probes that merely fail; failed probes already
	// settle to a fixed null payload.
	Disabled []string `yaml:"disabled,omitempty"`
}

// WatchConfig holds settings for the watch command.
type WatchConfig struct {
	// Schedule is a cron expression ("0 * * * *") or @every duration
	// ("@every 15m") controlling how often the fingerprint is regenerated.
	Schedule string `yaml:"schedule,omitempty"`

	// NotifyURL is a shoutrrr service URL for drift notifications.
	NotifyURL string `yaml:"notify_url,omitempty"`
}

// File represents the structure of the .hostprint configuration file.
type File struct {
	// ProbeTimeout overrides the default per-probe execution budget.
	// Accepts Go duration syntax ("750ms", "2s").
	ProbeTimeout string `yaml:"probe_timeout,omitempty"`

	// AppID is the application scope used to derive protected IDs.
	AppID string `yaml:"app_id,omitempty"`

	// Engines maps engine names ("platform", "hardware") to their
	// per-engine configuration.
	Engines map[string]EngineConfig `yaml:"engines,omitempty"`

	// Watch configures the watch command.
	Watch WatchConfig `yaml:"watch,omitempty"`
}

// DisabledProbes returns the disabled probe names for the given engine.
// It returns nil when the engine has no configuration.
func (cf *File) DisabledProbes(engineName string) []string {
	if cf == nil || cf.Engines == nil {
		return nil
	}
	return cf.Engines[engineName].Disabled
}
