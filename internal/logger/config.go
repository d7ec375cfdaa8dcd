package logger

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	DefaultLevel string            `yaml:"default_level" mapstructure:"default_level"` // default log level for all modules
	Timezone     string            `yaml:"timezone" mapstructure:"timezone"`           // "Local", "UTC" or IANA name
	Console      *ConsoleOutput    `yaml:"console" mapstructure:"console"`
	FileOutput   *FileOutput       `yaml:"file_output" mapstructure:"file_output"`
	ModuleLevels map[string]string `yaml:"module_levels" mapstructure:"module_levels"` // per-module log levels
}

// ConsoleOutput represents console logging configuration. Console output is human readable text.
type ConsoleOutput struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Level   string `yaml:"level" mapstructure:"level"`
}

// FileOutput represents file logging configuration. File output is JSON.
type FileOutput struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
	Level   string `yaml:"level" mapstructure:"level"`
}

const (
	DefaultLogLevel = "info"
	DefaultLogPath  = "logs/composite.log"
)

// DefaultConfig returns console-only logging at info level.
func DefaultConfig() *LoggingConfig {
	return &LoggingConfig{
		DefaultLevel: DefaultLogLevel,
		Timezone:     "Local",
		Console:      &ConsoleOutput{Enabled: true, Level: DefaultLogLevel},
		FileOutput:   &FileOutput{Enabled: false, Path: DefaultLogPath, Level: DefaultLogLevel},
	}
}
