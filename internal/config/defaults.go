package config

const (
	DefaultSessionTTLMinutes     = 24 * 60
	DefaultMediaURLTTLMinutes    = 24 * 60
	DefaultMaxUploadMB           = 100
	DefaultProcessTimeoutSeconds = 60
	DefaultUploadRatePerMinute   = 10
)
