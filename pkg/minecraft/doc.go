// Package minecraft talks to the launcher's side of the game directory:
// installing vanilla versions from the public version manifest and
// editing launcher_profiles.json.
package minecraft
