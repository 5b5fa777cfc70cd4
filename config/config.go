// Package config holds plain typed configuration structs for the session
// and engine layers. There is no global singleton or environment-variable
// parsing here: the host constructs a config value and passes it in,
// matching §6's "Configuration: supplied by the host via typed structures;
// no environment variables are required by the core."
package config

import "time"

// SessionConfig controls one session state machine's timing and behavior.
type SessionConfig struct {
	// SessionID is the SenderCompID-TargetCompID identity pair.
	SessionID string

	// HeartBtInt is the negotiated heartbeat interval.
	HeartBtInt time.Duration

	// TestRequestFactor scales HeartBtInt to derive the idle-inbound
	// threshold before a TestRequest is sent (§4.7: "~1.2x HeartBtInt").
	TestRequestFactor float64

	// LogoutTimeout bounds how long the session waits for a Logout reply
	// after HandleShutdown before forcing Closed.
	LogoutTimeout time.Duration

	// LockStaleAfter bounds how long a Locked.txt lock file may persist
	// before an operator may treat the prior owner as hung and override it
	// (§5: "not less than 2x HeartBtInt").
	LockStaleAfter time.Duration

	// JournalEveryInbound persists the session record (its sequence
	// numbers) after every accepted inbound message and every sent
	// message; default true. Set false to write the record only when the
	// session's lease is released, for lower write volume.
	JournalEveryInbound bool

	// StrictGroupTermination selects the parser's repeating-group
	// termination rule: false (default) uses the pragmatic rule (an
	// unexpected tag ends the group early but does not malform the whole
	// message); true rejects any deviation from count/delimiter as
	// MsgMalformed.
	StrictGroupTermination bool

	// ResendGapBufferLimit caps how many out-of-order messages a session
	// buffers while a ResendRequest is outstanding, before treating the
	// gap as unrecoverable and shutting the session down without a Logout.
	ResendGapBufferLimit int
}

// DefaultSessionConfig returns the reference session configuration.
func DefaultSessionConfig() *SessionConfig {
	heartBtInt := 30 * time.Second
	return &SessionConfig{
		HeartBtInt:             heartBtInt,
		TestRequestFactor:      1.2,
		LogoutTimeout:          10 * time.Second,
		LockStaleAfter:         2 * heartBtInt,
		JournalEveryInbound:    true,
		StrictGroupTermination: false,
		ResendGapBufferLimit:   1000,
	}
}

// EngineConfig controls the session pool and its housekeeping.
type EngineConfig struct {
	// SessionRoot is the root directory SessionDb stores per-session
	// subdirectories under.
	SessionRoot string

	// Sessions lists the sessions the engine brings up at startup.
	Sessions []SessionConfig

	// MetricsNamespace is carried for the host; the observability package
	// registers its metrics under the fixed "versafix_" prefix and does not
	// read this field.
	MetricsNamespace string

	// CleanupInterval is how often the engine's cleanup loop calls Tick on
	// every pooled session to drive its heartbeat/test-request/logout timers.
	CleanupInterval time.Duration
}

// DefaultEngineConfig returns the reference engine configuration.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		SessionRoot:      "./sessions",
		MetricsNamespace: "versafix",
		CleanupInterval:  time.Minute,
	}
}
