// Package jdk locates a Java runtime for running mod-loader installers.
package jdk
