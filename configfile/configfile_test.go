package configfile

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Flaque/filet"
	"github.com/c2h5oh/datasize"

	"github.com/morfien101/logorganizer/record"
)

func TestExampleConfig(t *testing.T) {
	out, err := ExampleConfigFile()
	if err != nil {
		t.Log(err)
		t.Fail()
	}
	t.Log(out)
}

func TestNewConfig(t *testing.T) {
	defer filet.CleanUp(t)
	out, err := ExampleConfigFile()
	if err != nil {
		t.Fatal(err)
	}

	testingConfigFile := filet.TmpFile(t, "", out)
	conf, err := New(testingConfigFile.Name())
	if err != nil {
		t.Fatalf("Failed to create a config struct. Error: %s", err)
	}
	if conf.Aggregator.MaxFileSize != 100*datasize.MB {
		t.Logf("max_file_size did not survive a round trip. Got: %s", conf.Aggregator.MaxFileSize)
		t.Fail()
	}
	if len(conf.Loggers) != 4 || conf.Loggers[2].ColorIndex == nil || *conf.Loggers[2].ColorIndex != 10 {
		t.Logf("loggers did not survive a round trip. Got: %+v", conf.Loggers)
		t.Fail()
	}
}

func TestTemplating(t *testing.T) {
	defer filet.CleanUp(t)
	os.Setenv("LOG_ORGANIZER_NAME", "example_service")
	testYaml := `aggregator:
  name: {{ env "LOG_ORGANIZER_NAME" }}
  base_dir: {{ default ( env "LOG_ORGANIZER_DIR_NOT_SET" ) "/var/log/organizer" }}
  max_file_size: 10MB`

	testingfile := filet.TmpFile(t, "", testYaml)
	conf, err := New(testingfile.Name())
	if err != nil {
		t.Fatalf("Failed to generate templated configuration. Got Error: %s", err)
	}

	tests := []struct {
		want     string
		got      string
		function string
	}{
		{
			want:     "example_service",
			got:      conf.Aggregator.Name,
			function: `{{ env "LOG_ORGANIZER_NAME" }}`,
		},
		{
			want:     "/var/log/organizer",
			got:      conf.Aggregator.BaseDir,
			function: `{{ default ( env "LOG_ORGANIZER_DIR_NOT_SET" ) "/var/log/organizer" }}`,
		},
	}

	for _, test := range tests {
		if test.want != test.got {
			t.Logf("%s failed. Got %s, Want: %s",
				test.function,
				test.got,
				test.want,
			)
			t.Fail()
		}
	}
	if conf.Aggregator.MaxFileSize.Bytes() != 10*1024*1024 {
		t.Logf("max_file_size 10MB decoded to %d bytes", conf.Aggregator.MaxFileSize.Bytes())
		t.Fail()
	}
}

func TestDefaultConfig(t *testing.T) {
	conf, err := Parse([]byte(`loggers:
  - name: main
    stream: true`))
	if err != nil {
		t.Fatal(err)
	}

	if conf.Aggregator.Name != defaultAggregator.Name || conf.Aggregator.BaseDir != defaultAggregator.BaseDir {
		t.Logf("aggregator defaults were not applied. Got: %+v", conf.Aggregator)
		t.Fail()
	}
	if conf.Aggregator.QueueCapacity != 500 || conf.Aggregator.BackupCount != 100 {
		t.Logf("queue or backup defaults were not applied. Got: %+v", conf.Aggregator)
		t.Fail()
	}
	if *conf.Aggregator.CloseTimeoutSeconds != defaultCloseTimeoutSeconds {
		t.Logf("close timeout default was not applied")
		t.Fail()
	}

	settings := conf.AggregatorSettings()
	if settings.ConsoleLevel != record.INFO {
		t.Logf("console level should default to INFO. Got: %s", settings.ConsoleLevel)
		t.Fail()
	}
	if settings.CloseTimeout != 10*time.Second {
		t.Logf("close timeout should be 10s. Got: %s", settings.CloseTimeout)
		t.Fail()
	}
	t.Log("\n", conf)
}

func TestDefaultConfigNotRequired(t *testing.T) {
	conf, err := Parse([]byte(`aggregator:
  name: custom
  base_dir: /tmp/custom
  queue_capacity: 3
  console_level: error
  close_timeout_seconds: 0
syslog:
  level: critical`))
	if err != nil {
		t.Fatal(err)
	}

	settings := conf.AggregatorSettings()
	if settings.Name != "custom" || settings.BaseDir != "/tmp/custom" || settings.QueueCapacity != 3 {
		t.Logf("explicit settings were overwritten. Got: %+v", settings)
		t.Fail()
	}
	if settings.ConsoleLevel != record.ERROR {
		t.Logf("console_level was overwritten. Got: %s", settings.ConsoleLevel)
		t.Fail()
	}
	if settings.CloseTimeout != 0 {
		t.Logf("an explicit close timeout of 0 should be kept. Got: %s", settings.CloseTimeout)
		t.Fail()
	}
	if conf.Syslog.Level != "critical" {
		t.Logf("syslog level was overwritten. Got: %s", conf.Syslog.Level)
		t.Fail()
	}
}

func TestInvalidConfig(t *testing.T) {
	tests := map[string]string{
		"bad level": `aggregator:
  console_level: loud`,
		"duplicate logger": `loggers:
  - name: main
    stream: true
  - name: main
    file: true`,
		"no output": `loggers:
  - name: main`,
		"no name": `loggers:
  - stream: true`,
		"negative color": `loggers:
  - name: main
    stream: true
    color_index: -2`,
		"negative timeout": `aggregator:
  close_timeout_seconds: -1`,
	}
	for name, source := range tests {
		if _, err := Parse([]byte(source)); err == nil {
			t.Logf("%s should not be accepted", name)
			t.Fail()
		}
	}
}

func TestOpenFromConfig(t *testing.T) {
	defer filet.CleanUp(t)
	dir := filet.TmpDir(t, "")
	conf, err := Parse([]byte(fmt.Sprintf(`aggregator:
  name: svc
  base_dir: %s
loggers:
  - name: main
    stream: true
  - name: alerts
    stream: true
    color_index: 10
  - name: test
    stream: true
    file: true
  - name: audit
    file: true`, dir)))
	if err != nil {
		t.Fatal(err)
	}

	agg, loggers, err := conf.Open()
	if err != nil {
		t.Fatal(err)
	}
	for _, l := range loggers {
		l.Info("hello from " + l.Name())
	}
	if err := agg.Close(); err != nil {
		t.Fatal(err)
	}

	if idx, _ := agg.ColorIndex("test"); idx != 1 {
		t.Logf("test should get auto color 1 after an explicit color. Got: %d", idx)
		t.Fail()
	}
	for _, file := range []string{"svc.log", "test.log", "audit.log"} {
		if !filet.Exists(t, filepath.Join(dir, "svc", file)) {
			t.Logf("%s was not created", file)
			t.Fail()
		}
	}
	if filet.Exists(t, filepath.Join(dir, "svc", "main.log")) {
		t.Logf("main has no file output and should not have a file")
		t.Fail()
	}
}
