package constants

import "time"

// Message length limits for different platforms
const (
	// MaxTelegramMessageLength is Telegram's message character limit
	MaxTelegramMessageLength = 4096
	// MaxDiscordMessageLength is Discord's message character limit
	MaxDiscordMessageLength = 2000
	// MaxQQMessageLength is the QQ open platform's message character limit
	MaxQQMessageLength = 4500
	// MaxOneBotMessageLength is a conservative limit for OneBot implementations
	MaxOneBotMessageLength = 4500
)

// Timeouts and delays
const (
	// DefaultConnectionTimeout is the timeout for establishing connections
	DefaultConnectionTimeout = 5 * time.Second
	// DefaultPollTimeout is the timeout for long polling operations
	DefaultPollTimeout = 60 * time.Second
	// DefaultInvokeTimeout is the timeout for a single remote operation
	DefaultInvokeTimeout = 15 * time.Second
	// DefaultReconnectDelay is the delay between websocket reconnect attempts
	DefaultReconnectDelay = 3 * time.Second
)

// Auto-revoke defaults
const (
	// DefaultAutoRevokeDelay is the delay before a scheduled revoke fires
	// when the caller does not specify one
	DefaultAutoRevokeDelay = 60 * time.Second
	// MinAutoRevokeDelay is the minimum accepted auto-revoke delay
	MinAutoRevokeDelay = time.Second
)

// Event buffer sizes
const (
	// EventChannelBufferSize is the buffer size for the inbound event channel
	EventChannelBufferSize = 100
)

// Secret masking
const (
	// MinSecretLengthForMasking is the minimum secret length to apply masking
	MinSecretLengthForMasking = 10
	// SecretMaskPrefixLength is the length of prefix to show before masking
	SecretMaskPrefixLength = 4
	// SecretMaskSuffixLength is the length of suffix to show after masking
	SecretMaskSuffixLength = 4
)

// Logging defaults
const (
	// DefaultLogLevel is the default log level
	DefaultLogLevel = "info"
	// DefaultLogMaxSize is the default maximum log file size in MB
	DefaultLogMaxSize = 100
	// DefaultLogMaxBackups is the default number of rotated files to keep
	DefaultLogMaxBackups = 5
	// DefaultLogMaxAge is the default maximum number of days to retain old logs
	DefaultLogMaxAge = 30
)
