// Package config handles configuration management for mcenv.
//
// Configuration is layered with koanf, later sources overriding earlier
// ones:
//
//  1. Embedded defaults (embedded/defaults.toml)
//  2. config.toml, config.yaml or config.yml in the config directory
//  3. MCENV_<SECTION>__<KEY> environment variables
//
// SetValue writes a single key back into the user's config file, keeping
// its format. The runtime locator uses it to remember a java executable
// once one has been found.
package config
