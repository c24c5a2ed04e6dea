package config

import "time"

const (
	// Baseline polling (client): how often an open room re-fetches the full
	// message list to catch anything the live channel missed.
	PollInterval = 3 * time.Second

	// Reconciliation polling (client): after a successful fallback send the
	// client polls for list growth at this spacing, giving up silently after
	// the attempt bound.
	ReconcileInterval = 1 * time.Second
	ReconcileAttempts = 15

	// Typing debounce (client): a quiet gap of this length after the last
	// keystroke emits typing=false.
	TypingQuietPeriod = 1 * time.Second

	// Live channel reconnection (client): fixed backoff, bounded attempts.
	ReconnectBackoff  = 2 * time.Second
	ReconnectAttempts = 10

	// Auto-responder: delay before a canned reply is submitted.
	ResponderDelay = 800 * time.Millisecond
)
