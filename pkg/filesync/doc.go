// Package filesync holds the copy, replace and verify primitives that move
// content slots between an extracted archive and the game directory.
//
// Replace makes a destination mirror its source; Verify checks that the two
// are byte-identical. Both operate through types.FS so tests can run on an
// in-memory filesystem.
package filesync
