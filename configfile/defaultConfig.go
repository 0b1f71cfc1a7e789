package configfile

var (
	defaultCloseTimeoutSeconds = 10

	defaultAggregator = AggregatorConfig{
		Name:          "total",
		BaseDir:       "logs",
		QueueCapacity: 500,
		BackupCount:   100,
		ConsoleLevel:  "info",
	}

	defaultSyslog = SyslogConfig{
		Tag:   "log_organizer",
		Level: "warning",
	}
)
