package config

const (
	defaultWorkDir             = "~/.local/share/framelock/work"
	defaultLogDir              = "~/.local/share/framelock/logs"
	defaultLedgerPath          = "~/.local/share/framelock/ledger.db"
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFmpegTimeoutSecs   = 600
	defaultPlaceholderFontPath = "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"
	defaultPlaceholderFontSize = 36
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:    defaultWorkDir,
			LogDir:     defaultLogDir,
			LedgerPath: defaultLedgerPath,
		},
		FFmpeg: FFmpeg{
			Binary:         defaultFFmpegBinary,
			TimeoutSeconds: defaultFFmpegTimeoutSecs,
		},
		Placeholder: Placeholder{
			FontPath: defaultPlaceholderFontPath,
			FontSize: defaultPlaceholderFontSize,
		},
		Render: Render{
			LeadInMS:  0,
			LeadOutMS: 0,
		},
		Ledger: Ledger{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
