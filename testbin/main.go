// testbin is used to put load on a running aggregator through its socket and
// is not part of the log_organizer binary.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/silverstagtech/randomstring"

	"github.com/morfien101/logorganizer/producer"
	"github.com/morfien101/logorganizer/record"
	"github.com/morfien101/logorganizer/transport"
)

const (
	//VERSION is the used to display a version number
	VERSION = "0.2.0"
)

var (
	socketFlag         = flag.String("socket", "/tmp/log_organizer.sock", "Socket of the aggregator to spam.")
	loggersFlag        = flag.Int("loggers", 3, "How many named loggers to spam with.")
	countFlag          = flag.Int("count", 100, "Records per logger. 0 spams until the timeout.")
	spamSizeFlag       = flag.Uint("spam-size", 0, "Set size for spam message. If not set they just grow slowly.")
	randomFlag         = flag.Bool("random", false, "Send random strings instead of growing spam.")
	exceptionFlag      = flag.Bool("exception", false, "Attach exception text to every tenth record.")
	timeoutSecondsFlag = flag.Int("timeout", 10, "How long to wait before dying in seconds.")

	helpFlag    = flag.Bool("h", false, "Show the help menu")
	versionFlag = flag.Bool("v", false, "Displays a version number.")
)

func main() {
	flag.Parse()
	if *helpFlag {
		flag.PrintDefaults()
		os.Exit(0)
	}
	if *versionFlag {
		fmt.Println(VERSION)
		os.Exit(0)
	}

	client, err := transport.Dial(*socketFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer client.Close()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	stop := make(chan struct{})
	go func() {
		select {
		case s := <-signals:
			fmt.Printf("Got signal %s\n", s)
		case <-time.After(time.Second * time.Duration(*timeoutSecondsFlag)):
			fmt.Println("Timed out")
		}
		close(stop)
	}()

	wg := &sync.WaitGroup{}
	for i := 0; i < *loggersFlag; i++ {
		name := fmt.Sprintf("spammer_%d", i)
		if err := client.Register(name, -1); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		wg.Add(1)
		go func(l *producer.Logger) {
			defer wg.Done()
			spammer(l, client, *countFlag, stop)
		}(client.Logger(name))
	}
	wg.Wait()
}

func spammer(l *producer.Logger, dest producer.Producer, count int, stop chan struct{}) {
	spam := newSpamCan(10, l.Name(), *spamSizeFlag)
	severities := []record.Severity{record.DEBUG, record.INFO, record.WARN, record.ERROR, record.CRITICAL}
	for i := 0; count == 0 || i < count; i++ {
		select {
		case <-stop:
			return
		default:
		}

		msg := spam.getSpam()
		if *randomFlag {
			msg = randomMessage()
		}
		sev := severities[i%len(severities)]
		if *exceptionFlag && i%10 == 9 {
			dest.Produce(record.New(l.Name(), sev, msg).WithException("spam.Error: generated\n  at spammer()"))
			continue
		}
		l.Log(sev, msg)
	}
}

func randomMessage() string {
	r, err := randomstring.Generate(4, 4, 4, 4, 64)
	if err != nil {
		return fmt.Sprintf("Error generating random message: %s", err)
	}
	return r
}
