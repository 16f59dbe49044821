// Package types holds the small interfaces shared across mcenv packages.
//
// Keeping them here lets the sync engine, archive handler and backup
// subsystem run against either the real OS filesystem or an in-memory one
// in tests without importing each other.
package types
