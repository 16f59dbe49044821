// Package installer drives a modpack archive into the game directory.
//
// A run unpacks the archive into the temporary directory, reads its
// manifest and then takes one of two branches:
//
//   - a backup archive is restored: each content slot it carries replaces
//     the one in the game directory and nothing else happens;
//   - a modpack is installed: the game version is ensured, the current
//     slots are snapshotted into a backup archive, the mod loader is
//     installed when the archive ships one, the carried slots replace the
//     game's, every replaced slot is verified byte for byte and finally a
//     launcher profile is added.
//
// Slots the archive does not carry are never touched. The first failing
// step ends the run with a *StageError; the temporary directory is removed
// either way.
package installer
