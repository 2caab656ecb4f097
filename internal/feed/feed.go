// Package feed publishes parsed bid packets to a NATS subject tree.
package feed

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"bidpacket_parser/internal/bidpacket"
)

// Envelope is the published message format. The packet is nested inside a
// "packet" field with source metadata at the top level.
type Envelope struct {
	Source      Source            `json:"source"`
	PublishedAt string            `json:"published_at"`
	Packet      *bidpacket.Packet `json:"packet"`
}

// Source contains publisher metadata.
type Source struct {
	Name        string `json:"name,omitempty"`
	Application string `json:"application,omitempty"`
}

// Publisher publishes parsed packets to NATS.
type Publisher struct {
	nc     *nats.Conn
	source Source
}

// Connect establishes a NATS connection for publishing. An empty URL
// falls back to the default local server.
func Connect(url, name string) (*Publisher, error) {
	if url == "" {
		url = nats.DefaultURL
	}

	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	return &Publisher{
		nc:     nc,
		source: Source{Name: name, Application: "bidpacket_parser"},
	}, nil
}

// Close drains pending messages and closes the connection.
func (p *Publisher) Close() error {
	return p.nc.Drain()
}

// Subject returns the subject a packet is published on.
// The tree is bids.parsed.<BASE>.<FLEET>.
func Subject(pkt *bidpacket.Packet) string {
	return fmt.Sprintf("bids.parsed.%s.%s",
		subjectToken(pkt.Metadata.Base), subjectToken(pkt.Metadata.Fleet))
}

// PublishPacket publishes a parsed packet on its subject.
func (p *Publisher) PublishPacket(pkt *bidpacket.Packet) error {
	env := Envelope{
		Source:      p.source,
		PublishedAt: time.Now().UTC().Format(time.RFC3339),
		Packet:      pkt,
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	if err := p.nc.Publish(Subject(pkt), data); err != nil {
		return fmt.Errorf("publish packet: %w", err)
	}

	return nil
}

// subjectToken makes a metadata value safe for use as a subject segment.
func subjectToken(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	s = strings.ToUpper(s)
	for _, c := range []string{".", " ", "*", ">"} {
		s = strings.ReplaceAll(s, c, "_")
	}
	return s
}
