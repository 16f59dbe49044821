// Package archive extracts, probes and creates zip archives.
//
// Deflate streams go through github.com/klauspost/compress/flate, which is
// registered on every reader and writer the handler opens.
package archive
