// Package config contains compile-time defaults for the insurance assistant.
// Edit these values and recompile to tune behavior.
package config

import "time"

// =============================================================================
// CONVERSATION DEFAULTS
// =============================================================================

// Authentication
const (
	// MaxPINAttempts is how many wrong PINs lock a session
	MaxPINAttempts = 3

	// PINLength is the number of digits in a customer PIN
	PINLength = 4
)

// Feedback
const (
	// FeedbackCompletionEndSession clears the whole session when feedback completes
	FeedbackCompletionEndSession = "end_session"

	// FeedbackCompletionKeepSession clears only the feedback sub-state
	FeedbackCompletionKeepSession = "keep_session"

	// DefaultFeedbackCompletion is the policy used when none is configured
	DefaultFeedbackCompletion = FeedbackCompletionEndSession
)

// =============================================================================
// SESSION STORE DEFAULTS
// =============================================================================

const (
	// SessionStore is the default session store driver (memory, redis)
	SessionStore = "memory"

	// SessionIdleTimeout expires sessions with no activity
	SessionIdleTimeout = 30 * time.Minute

	// SessionSweepInterval is how often the memory store looks for idle sessions
	SessionSweepInterval = time.Minute

	// RedisKeyPrefix namespaces session keys
	RedisKeyPrefix = "assistant:session:"
)

// =============================================================================
// AUDIT RECORDER DEFAULTS
// =============================================================================

const (
	// AuditBackend is where audit and feedback records go (log, mysql)
	AuditBackend = "log"

	// AuditBufferSize is the recorder channel capacity
	AuditBufferSize = 10000

	// AuditBatchSize is records per backend write
	AuditBatchSize = 100

	// AuditFlushInterval is the maximum time a record waits in a partial batch
	AuditFlushInterval = 500 * time.Millisecond

	// AuditWorkers is the number of concurrent writers
	AuditWorkers = 2
)

// =============================================================================
// HTTP SERVER DEFAULTS
// =============================================================================

const (
	// ServerPort is the listen port when PORT is not set
	ServerPort = 3000

	// ServerReadTimeout bounds reading a request
	ServerReadTimeout = 10 * time.Second

	// ServerWriteTimeout bounds writing a response
	ServerWriteTimeout = 10 * time.Second

	// MaxUtteranceBytes caps the size of a single message body
	MaxUtteranceBytes = 4096
)

// =============================================================================
// SIMULATION DEFAULTS
// =============================================================================

const (
	// SimNumSessions is the number of concurrent scripted callers
	SimNumSessions = 20

	// MinThinkTime is minimum delay between utterances
	MinThinkTime = 10 * time.Millisecond

	// MaxThinkTime is maximum delay between utterances
	MaxThinkTime = 200 * time.Millisecond

	// SimWrongPINRate is the chance a scripted caller mistypes a PIN
	SimWrongPINRate = 0.15

	// SimLockoutRate is the chance a scripted caller exhausts every attempt
	SimLockoutRate = 0.05

	// SimFeedbackRate is the chance a scripted caller leaves feedback
	SimFeedbackRate = 0.4
)

// =============================================================================
// DATABASE DEFAULTS
// =============================================================================

const (
	// DBDriver is the database driver to use
	DBDriver = "mysql"

	// DBMaxOpenConns is maximum open connections in the pool
	DBMaxOpenConns = 20

	// DBMaxIdleConns is maximum idle connections in the pool
	DBMaxIdleConns = 5

	// DBConnMaxLifetime is how long a connection can be reused
	DBConnMaxLifetime = 5 * time.Minute

	// DBConnMaxIdleTime is how long an idle connection is kept
	DBConnMaxIdleTime = 1 * time.Minute
)

// =============================================================================
// METRICS AND MONITORING
// =============================================================================

const (
	// MetricsInterval is how often to report real-time metrics
	MetricsInterval = 5 * time.Second

	// GracefulShutdownTimeout is max wait time for graceful shutdown
	GracefulShutdownTimeout = 30 * time.Second
)
