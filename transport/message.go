// Package transport lets producers in other processes feed an aggregator's
// queue over a unix domain socket.
//
// Each connection carries newline separated JSON messages. The listener puts
// every record it decodes into the queue and blocks while the queue is full,
// so back-pressure reaches remote producers through the socket buffers.
// Records from one connection keep their order; records from different
// connections are ordered by arrival.
package transport

import (
	"github.com/morfien101/logorganizer/record"
)

const (
	typeRecord   = "record"
	typeRegister = "register"

	// maxMessageSize bounds a single encoded message.
	maxMessageSize = 1024 * 1024
)

type message struct {
	Type       string            `json:"type"`
	Record     *record.LogRecord `json:"record,omitempty"`
	Name       string            `json:"name,omitempty"`
	ColorIndex int               `json:"color_index"`
}
