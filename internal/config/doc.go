// Package config loads, normalizes, and validates framelock's TOML
// configuration.
//
// Load resolves the config path (explicit flag, then the user config dir,
// then a project-local framelock.toml), applies defaults for anything unset,
// expands home-relative paths, and validates the result. Configuration is
// passed explicitly to the stages that need it; nothing reads ambient global
// state, which keeps render fingerprints a pure function of declared inputs.
package config
