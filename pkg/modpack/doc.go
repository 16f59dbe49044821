// Package modpack defines the archive manifest (data.json) and the fixed
// content slots a modpack may carry.
package modpack
