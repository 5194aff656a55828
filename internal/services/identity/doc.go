// Package identity manages the local long-term key pairs.
package identity
