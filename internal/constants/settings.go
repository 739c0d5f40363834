package constants

const (
	// Config keys, also used for STRIDE_* environment variables
	SettingStore       = "store"
	SettingTimezone    = "timezone"
	SettingSeed        = "seed"
	SettingDebug       = "debug"
	SettingLogDir      = "log_dir"
	SettingRedisPrefix = "redis_prefix"

	// Default Settings Values
	DefaultTimezone    = "Local" // Use system local timezone by default
	DefaultSeed        = true
	DefaultRedisPrefix = "stride:"
)
