// Package configfile reads the YAML file that describes an aggregator and the
// loggers to register with it. The file is rendered as a text/template first,
// so values can come from the environment.
package configfile

import (
	"fmt"
	"io/ioutil"
	"time"

	"github.com/c2h5oh/datasize"
	"gopkg.in/yaml.v2"

	"github.com/morfien101/logorganizer/aggregator"
	"github.com/morfien101/logorganizer/configfile/templating"
	"github.com/morfien101/logorganizer/record"
)

// Config is a struct that represents the YAML file that we want to pass in.
type Config struct {
	Aggregator AggregatorConfig `yaml:"aggregator"`
	Loggers    []LoggerConfig   `yaml:"loggers,omitempty"`
	Syslog     SyslogConfig     `yaml:"syslog,omitempty"`
}

// AggregatorConfig holds the settings of the aggregator itself.
type AggregatorConfig struct {
	Name                string            `yaml:"name"`
	BaseDir             string            `yaml:"base_dir"`
	QueueCapacity       int               `yaml:"queue_capacity,omitempty"`
	BackupCount         int               `yaml:"backup_count,omitempty"`
	MaxFileSize         datasize.ByteSize `yaml:"max_file_size,omitempty"`
	CompressBackups     bool              `yaml:"compress_backups,omitempty"`
	ConsoleLevel        string            `yaml:"console_level,omitempty"`
	CloseTimeoutSeconds *int              `yaml:"close_timeout_seconds,omitempty"`
	SocketPath          string            `yaml:"socket_path,omitempty"`
}

// LoggerConfig describes one named logger. Stream loggers show on the
// console, File adds a file of their own. A logger with only File set is a
// direct file logger.
type LoggerConfig struct {
	Name       string `yaml:"name"`
	ColorIndex *int   `yaml:"color_index,omitempty"`
	Stream     bool   `yaml:"stream"`
	File       bool   `yaml:"file,omitempty"`
}

// SyslogConfig turns on the local syslog mirror.
type SyslogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Tag     string `yaml:"tag,omitempty"`
	Level   string `yaml:"level,omitempty"`
}

// New will return a new config if one can be read from the location
// specified. An error is also returned if something goes wrong.
func New(filePath string) (*Config, error) {
	fileBytes, err := ioutil.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("could not read config file. Error: %s", err)
	}
	return Parse(fileBytes)
}

// Parse templates, decodes, defaults and validates a configuration.
func Parse(source []byte) (*Config, error) {
	decodedYaml, err := templating.GenerateTemplate(source)
	if err != nil {
		return nil, fmt.Errorf("failed to decode template. Error: %s", err)
	}

	newConfig := blankConfig()
	if err := yaml.Unmarshal(decodedYaml, newConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml. Error: %s", err)
	}

	newConfig.setDefaultAggregator()
	newConfig.setDefaultSyslog()
	if err := newConfig.validate(); err != nil {
		return nil, err
	}
	return newConfig, nil
}

func blankConfig() *Config {
	return &Config{
		Aggregator: defaultAggregator,
	}
}

func (cf *Config) setDefaultAggregator() {
	if cf.Aggregator.Name == "" {
		cf.Aggregator.Name = defaultAggregator.Name
	}
	if cf.Aggregator.BaseDir == "" {
		cf.Aggregator.BaseDir = defaultAggregator.BaseDir
	}
	if cf.Aggregator.QueueCapacity <= 0 {
		cf.Aggregator.QueueCapacity = defaultAggregator.QueueCapacity
	}
	if cf.Aggregator.BackupCount <= 0 {
		cf.Aggregator.BackupCount = defaultAggregator.BackupCount
	}
	if cf.Aggregator.ConsoleLevel == "" {
		cf.Aggregator.ConsoleLevel = defaultAggregator.ConsoleLevel
	}
	if cf.Aggregator.CloseTimeoutSeconds == nil {
		timeout := defaultCloseTimeoutSeconds
		cf.Aggregator.CloseTimeoutSeconds = &timeout
	}
}

func (cf *Config) setDefaultSyslog() {
	if cf.Syslog.Tag == "" {
		cf.Syslog.Tag = defaultSyslog.Tag
	}
	if cf.Syslog.Level == "" {
		cf.Syslog.Level = defaultSyslog.Level
	}
}

func (cf *Config) validate() error {
	if _, err := record.ParseSeverity(cf.Aggregator.ConsoleLevel); err != nil {
		return fmt.Errorf("console_level is invalid. Error: %s", err)
	}
	if _, err := record.ParseSeverity(cf.Syslog.Level); err != nil {
		return fmt.Errorf("syslog level is invalid. Error: %s", err)
	}
	if *cf.Aggregator.CloseTimeoutSeconds < 0 {
		return fmt.Errorf("close_timeout_seconds can not be negative")
	}

	seen := make(map[string]bool)
	for i, lc := range cf.Loggers {
		if lc.Name == "" {
			return fmt.Errorf("logger %d has no name", i)
		}
		if seen[lc.Name] {
			return fmt.Errorf("logger %s is defined more than once", lc.Name)
		}
		seen[lc.Name] = true
		if !lc.Stream && !lc.File {
			return fmt.Errorf("logger %s needs stream or file output", lc.Name)
		}
		if lc.ColorIndex != nil && *lc.ColorIndex < 0 {
			return fmt.Errorf("logger %s has a negative color_index", lc.Name)
		}
	}
	return nil
}

// AggregatorSettings converts the file settings into an aggregator.Config.
func (cf *Config) AggregatorSettings() aggregator.Config {
	cfg := aggregator.DefaultConfig()
	cfg.Name = cf.Aggregator.Name
	cfg.BaseDir = cf.Aggregator.BaseDir
	cfg.QueueCapacity = cf.Aggregator.QueueCapacity
	cfg.BackupCount = cf.Aggregator.BackupCount
	cfg.MaxFileSize = cf.Aggregator.MaxFileSize
	cfg.CompressBackups = cf.Aggregator.CompressBackups
	// Validated in Parse.
	cfg.ConsoleLevel, _ = record.ParseSeverity(cf.Aggregator.ConsoleLevel)
	cfg.CloseTimeout = time.Duration(*cf.Aggregator.CloseTimeoutSeconds) * time.Second
	cfg.SocketPath = cf.Aggregator.SocketPath
	return cfg
}

func (cf Config) String() string {
	output, _ := yaml.Marshal(cf)
	return string(output)
}
