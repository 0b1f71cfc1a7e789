package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/morfien101/logorganizer/configfile"
	"github.com/morfien101/logorganizer/record"
	"github.com/morfien101/logorganizer/transport"
)

var (
	// version and timestamp are expected to be passed in at build time.
	buildVersion   = "0.1.0"
	buildTimestamp = ""
)

func main() {
	flagHelp := flag.Bool("h", false, "Shows this help menu.")
	flagVersion := flag.Bool("v", false, "Shows the version.")
	flagVersionExtended := flag.Bool("version", false, "Shows extended version numbering.")
	flagConfigExample := flag.Bool("example-config", false, "Displays and example configration.")
	flagConfigFilePath := flag.String("f", "/log_organizer.yaml", "Location of the config file to read.")
	flagPrintConfig := flag.Bool("print-config", false, "Print the rendered configuration before starting.")
	flagConnect := flag.String("connect", "", "Send stdin to a running aggregator listening on this socket.")
	flagName := flag.String("name", "stdin", "Logger name used with -connect.")
	flagLevel := flag.String("level", "info", "Severity used with -connect.")
	flagColor := flag.Int("color", -1, "Color index used with -connect. Negative picks one automatically.")
	flag.Parse()
	if *flagHelp {
		flag.PrintDefaults()
		return
	}
	if *flagVersion {
		fmt.Println(buildVersion)
		return
	}
	if *flagVersionExtended {
		fmt.Printf("Version: %s\nBuild time: %s\nGo version: %s\n", buildVersion, buildTimestamp, runtime.Version())
		return
	}
	if *flagConfigExample {
		out, err := configfile.ExampleConfigFile()
		if err != nil {
			fmt.Printf(`There was an error generating the configuration file example.
Please log an error with the maintainer.
The error was: %s`, err)
			os.Exit(1)
		}
		fmt.Println(out)
		return
	}

	if *flagConnect != "" {
		os.Exit(forward(*flagConnect, *flagName, *flagLevel, *flagColor))
	}
	os.Exit(serve(*flagConfigFilePath, *flagPrintConfig))
}

// serve runs an aggregator until SIGINT or SIGTERM.
func serve(configPath string, printConfig bool) int {
	config, err := configfile.New(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render the configuration. Error: %s\n", err)
		return 1
	}
	if printConfig {
		fmt.Printf("Using generated config:\n%s", *config)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	agg, loggers, err := config.Open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start the aggregator. Error: %s\n", err)
		return 1
	}
	pmlogger := agg.Internal()
	pmlogger.Printf("Aggregator %s is writing to %s with %d loggers", config.Aggregator.Name, agg.Dir(), len(loggers))
	if config.Aggregator.SocketPath != "" {
		pmlogger.Printf("Accepting remote producers on %s", config.Aggregator.SocketPath)
	}

	receivedSignal := <-signals
	pmlogger.Printf("Got signal %s. Shutting down.", receivedSignal)

	if err := agg.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error shutting down the aggregator. Error: %s\n", err)
		return 1
	}
	return 0
}

// forward copies stdin line by line to a remote aggregator.
func forward(socket, name, level string, colorIndex int) int {
	sev, err := record.ParseSeverity(level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	client, err := transport.Dial(socket)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer client.Close()

	if err := client.Register(name, colorIndex); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to register %s. Error: %s\n", name, err)
		return 1
	}

	w := client.Logger(name).Writer(sev)
	if _, err := io.Copy(w, os.Stdin); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	w.Flush()
	return 0
}
