// Package process runs external programs with a timeout and captures
// their output line by line.
package process
