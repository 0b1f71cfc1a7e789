package configfile

import (
	"fmt"

	"github.com/morfien101/logorganizer/aggregator"
	"github.com/morfien101/logorganizer/producer"
	"github.com/morfien101/logorganizer/record"
	"github.com/morfien101/logorganizer/sink/syslog"
)

// Open creates and starts the aggregator the configuration describes and
// registers its loggers in the order they are listed. The caller owns the
// returned aggregator and must Close it.
func (cf *Config) Open() (*aggregator.Aggregator, map[string]*producer.Logger, error) {
	agg, err := aggregator.New(cf.AggregatorSettings())
	if err != nil {
		return nil, nil, err
	}

	if cf.Syslog.Enabled {
		level, _ := record.ParseSeverity(cf.Syslog.Level)
		mirror, err := syslog.New(syslog.Options{Tag: cf.Syslog.Tag, MinSeverity: level})
		if err != nil {
			// The file and the console still work without syslog.
			agg.Internal().Errorf("syslog mirror is disabled. Error: %s", err)
		} else if err := agg.AddSink(mirror); err != nil {
			mirror.Close()
			agg.Close()
			return nil, nil, err
		}
	}

	if err := agg.Start(); err != nil {
		agg.Close()
		return nil, nil, err
	}

	loggers, err := cf.Register(agg)
	if err != nil {
		agg.Close()
		return nil, nil, err
	}
	return agg, loggers, nil
}

// Register adds the configured loggers to agg.
func (cf *Config) Register(agg *aggregator.Aggregator) (map[string]*producer.Logger, error) {
	loggers := make(map[string]*producer.Logger)
	for _, lc := range cf.Loggers {
		var (
			l   *producer.Logger
			err error
		)
		if lc.Stream {
			colorIndex := aggregator.AutoColor
			if lc.ColorIndex != nil {
				colorIndex = *lc.ColorIndex
			}
			l, err = agg.RegisterStreamLogger(lc.Name, colorIndex, lc.File)
		} else {
			l, err = agg.RegisterFileLogger(lc.Name)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to register logger %s. Error: %w", lc.Name, err)
		}
		loggers[lc.Name] = l
	}
	return loggers, nil
}
