// Package domain defines the data models and interfaces shared across styx.
package domain
