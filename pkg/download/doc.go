// Package download fetches remote files over HTTP with the installer's
// User-Agent, optionally checking a SHA-1 digest.
package download
