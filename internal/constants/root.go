package constants

import "time"

// SessionState represents the current state of the TUI application
type SessionState int

const (
	AppName            = "stride"
	Version            = "v0.3.0"
	DefaultConfigDir   = "~/.config/stride"
	DefaultConfigFile  = "~/.config/stride/config.yaml"
	DefaultStorePath   = "~/.config/stride/stride.db"
	DefaultKeyringUser = "store-connection"
	EnvPrefix          = "STRIDE_"
	LockFileName       = "stride.lock"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "stride-"

	// Notices stay visible in the TUI for this long
	NoticeDuration = 3 * time.Second

	// Data file changes closer together than this are coalesced into one reload
	WatchDebounce = 250 * time.Millisecond
	// Network backends are polled for new revisions at this interval
	PollInterval = 2 * time.Second

	// Default colors for new entities
	DefaultHabitColor = "#4CAF50"
	DefaultGoalColor  = "#2196F3"
)

// Session States
const (
	StateDashboard SessionState = iota
	StateHabits
	StateGoals
	StateStats
	StateAddHabit
	StateAddGoal
	StateGoalDelta
	StateConfirmDelete
)
