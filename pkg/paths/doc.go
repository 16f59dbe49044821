// Package paths provides centralized path handling for mcenv.
//
// mcenv keeps its own files in XDG locations and writes content into the
// launcher's game directory:
//
//   - Data: $XDG_DATA_HOME/mcenv (backup/, tmp/, bin/jdk)
//   - Config: $XDG_CONFIG_HOME/mcenv (config.toml)
//   - State: $XDG_STATE_HOME/mcenv (installer.log)
//   - Game: the platform's .minecraft directory
//
// # Environment Variables
//
//   - MCENV_DATA_DIR: Override the data directory
//   - MCENV_CONFIG_DIR: Override the config directory
//   - MCENV_STATE_DIR: Override the state directory
//   - MCENV_GAME_DIR: Override the game directory
//
// Overrides passed to New take precedence over the environment.
package paths
