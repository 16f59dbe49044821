// Package testutil provides helpers for mcenv tests: on-disk file trees and
// zip fixtures built inside t.TempDir().
//
// Helpers fail the test through t.Fatalf instead of returning errors, so
// call sites stay one line long.
package testutil
