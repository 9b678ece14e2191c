package ir

// Version constants for the configuration schema and engine.
const (
	// ConfigVersion is the newest configuration schema version understood.
	ConfigVersion = "1.0.0"

	// ConfigConstraint is the semver range of accepted configuration versions.
	ConfigConstraint = "^1"

	// EngineVersion is the scopecard engine version.
	EngineVersion = "0.1.0"
)
