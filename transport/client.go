package transport

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/morfien101/logorganizer/producer"
	"github.com/morfien101/logorganizer/record"
)

// Client is the producer side of a connection. It satisfies producer.Producer
// and is safe for concurrent use.
type Client struct {
	lock   sync.Mutex
	conn   net.Conn
	enc    *json.Encoder
	broken bool
}

// Dial connects to an aggregator listening on path.
func Dial(path string) (*Client, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the log aggregator at %s. Error: %w", path, err)
	}
	return &Client{
		conn: conn,
		enc:  json.NewEncoder(conn),
	}, nil
}

func (c *Client) send(msg message) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.broken {
		return fmt.Errorf("connection to the log aggregator is broken")
	}
	if err := c.enc.Encode(msg); err != nil {
		c.broken = true
		return err
	}
	return nil
}

// Produce sends rec. It blocks while the aggregator's queue is full. Failures
// are printed once on stderr and never returned.
func (c *Client) Produce(rec record.LogRecord) {
	c.lock.Lock()
	wasBroken := c.broken
	c.lock.Unlock()

	if err := c.send(message{Type: typeRecord, Record: &rec}); err != nil && !wasBroken {
		fmt.Fprintf(os.Stderr, "log record from %s could not be sent. Further records on this connection are dropped. Error: %s\n", rec.LoggerName, err)
	}
}

// Register asks the aggregator to show name on its console. A negative
// colorIndex takes the next automatic color. Records of name sent after
// Register are shown; earlier ones are only written to file.
func (c *Client) Register(name string, colorIndex int) error {
	return c.send(message{Type: typeRegister, Name: name, ColorIndex: colorIndex})
}

// Logger returns a producer.Logger that sends through this client.
func (c *Client) Logger(name string) *producer.Logger {
	return producer.New(name, c)
}

// Close closes the connection. Records already sent are delivered.
func (c *Client) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.broken = true
	return c.conn.Close()
}
