// Package prekey generates signed and one-time prekeys and assembles the
// public bundle registered with the relay.
package prekey
