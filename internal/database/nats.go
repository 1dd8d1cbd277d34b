package database

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

// ConnectNATS dials the event broker. The broker is optional, so callers
// should skip the call entirely when no URL is configured.
func ConnectNATS(url, clientName string) (*nats.Conn, error) {
	if url == "" {
		return nil, fmt.Errorf("nats url must not be empty")
	}

	conn, err := nats.Connect(url, nats.Name(clientName))
	if err != nil {
		return nil, fmt.Errorf("unable to connect to nats: %w", err)
	}

	return conn, nil
}
