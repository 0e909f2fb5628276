// Package bus publishes finalized transcripts over NATS for other
// local processes to consume.
package bus

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/vocalis-ai/vocalis/internal/config"
)

// SubjectTranscriptFinal carries one TranscriptEvent per ended session.
const SubjectTranscriptFinal = "vocalis.transcript.final"

// TranscriptEvent is the broadcast payload for a finalized transcript.
type TranscriptEvent struct {
	SessionID string    `json:"session_id"`
	Language  string    `json:"language"`
	Backend   string    `json:"backend"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Client wraps a NATS connection with the transcript publisher.
type Client struct {
	conn *nats.Conn
	log  *slog.Logger
}

func Connect(cfg config.BroadcastConfig, log *slog.Logger) (*Client, error) {
	if len(cfg.Servers) == 0 {
		return nil, errors.New("no NATS servers configured")
	}

	options := []nats.Option{
		nats.Name("vocalis"),
		nats.Timeout(time.Duration(cfg.ConnectTimeoutMS) * time.Millisecond),
	}

	if cfg.Username != "" || cfg.Password != "" {
		options = append(options, nats.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.Token != "" {
		options = append(options, nats.Token(cfg.Token))
	}
	if cfg.TLSInsecure {
		options = append(options, nats.Secure(&tls.Config{InsecureSkipVerify: true}))
	}

	url := strings.Join(cfg.Servers, ",")
	conn, err := nats.Connect(url, options...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	log.Info("connected to NATS", slog.String("servers", url))

	return &Client{conn: conn, log: log}, nil
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	c.log.Info("closing NATS connection")
	_ = c.conn.Drain()
	c.conn.Close()
}

func (c *Client) Healthy() bool {
	return c != nil && c.conn != nil && c.conn.Status() == nats.CONNECTED
}

// PublishFinal broadcasts one finalized transcript. Implements the
// session runner's Publisher.
func (c *Client) PublishFinal(_ context.Context, sessionID, langCode, backend, text string) error {
	event := TranscriptEvent{
		SessionID: sessionID,
		Language:  langCode,
		Backend:   backend,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal transcript event: %w", err)
	}
	if err := c.conn.Publish(SubjectTranscriptFinal, data); err != nil {
		return fmt.Errorf("publish transcript event: %w", err)
	}
	return c.conn.Flush()
}
