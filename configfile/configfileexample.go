package configfile

import (
	"fmt"

	"github.com/c2h5oh/datasize"
	yaml "gopkg.in/yaml.v2"
)

// ExampleConfigFile will return a string with an example yaml file.
// All features should be in here to present to the user.
func ExampleConfigFile() (string, error) {
	closeTimeout := defaultCloseTimeoutSeconds
	alertColor := 10

	exampleConfig := &Config{
		Aggregator: AggregatorConfig{
			Name:                "total",
			BaseDir:             "/app/logs",
			QueueCapacity:       500,
			BackupCount:         100,
			MaxFileSize:         100 * datasize.MB,
			CompressBackups:     true,
			ConsoleLevel:        "info",
			CloseTimeoutSeconds: &closeTimeout,
			SocketPath:          "/tmp/log_organizer.sock",
		},
		Loggers: []LoggerConfig{
			{Name: "main", Stream: true},
			{Name: "test", Stream: true, File: true},
			{Name: "alerts", Stream: true, ColorIndex: &alertColor},
			{Name: "audit", File: true},
		},
		Syslog: SyslogConfig{
			Enabled: false,
			Tag:     "log_organizer",
			Level:   "warning",
		},
	}

	out, err := yaml.Marshal(exampleConfig)
	if err != nil {
		return "", fmt.Errorf("Creating example failed. Error: %s", err)
	}

	return string(out), nil
}
