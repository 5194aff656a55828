// Package app builds the dependency graph the CLI runs on.
package app
