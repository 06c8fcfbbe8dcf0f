package logger

// Config holds logging configuration. It is embedded in the chessline
// configuration file under the logging key.
type Config struct {
	Level          string `yaml:"level" env:"LOG_LEVEL"`
	ConsoleEnabled bool   `yaml:"console_enabled" env:"LOG_CONSOLE_ENABLED"`
	Format         string `yaml:"format" env:"LOG_FORMAT"`

	FileEnabled    bool   `yaml:"file_enabled" env:"LOG_FILE_ENABLED"`
	FilePath       string `yaml:"file_path" env:"LOG_FILE_PATH"`
	FileFormat     string `yaml:"file_format" env:"LOG_FILE_FORMAT"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxBackups int    `yaml:"file_max_backups"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
}

// DefaultConfig logs warnings and errors as text to the console only.
// An interactive client keeps the console quiet unless asked otherwise.
func DefaultConfig() Config {
	return Config{
		Level:          "WARN",
		ConsoleEnabled: true,
		Format:         "text",
		FileEnabled:    false,
		FilePath:       "logs/chessline.log",
		FileFormat:     "json",
		FileMaxSizeMB:  10,
		FileMaxBackups: 5,
		FileMaxAgeDays: 30,
	}
}
