// Package relay implements the HTTP client for the styx relay server:
// bundle registration and lookup, plus the per-user message queue.
package relay
