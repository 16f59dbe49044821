// Package backup snapshots the game directory's content slots into a zip
// archive before an install, and lists the archives kept so far.
//
// A backup archive is itself a restorable modpack: its data.json carries
// type "backup", so feeding it back to the installer restores the slots.
package backup
