package config

import "time"

const (
	// Room display
	AspectRatio = 0.5  // Terminal char aspect correction (chars are ~2:1 tall)
	TrailDeg    = 45.0 // Arc of orbit kept lit behind the selected source
	TargetFPS   = 30   // Target frames per second
	HistoryLen  = 60   // Operation counts kept per pair for the sparkline

	// Runs
	DefaultScenarioFile = "whisper.yaml"
	DefaultEnvFile      = ".env"
	DefaultMetricsAddr  = ":2112"
	DefaultTraceTicks   = 4000
	WatchPeriod         = 200 * time.Millisecond // Job period when the dashboard has no override

	// Environment
	EnvPrefix = "WHISPER_"

	// App
	AppName    = "WHISPER-LOAD"
	AppVersion = "1.0"
)
