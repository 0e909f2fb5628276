// Package netcheck decides whether the cloud backend is reachable.
package netcheck

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Prober issues a short-timeout HTTP probe against a known endpoint.
type Prober struct {
	url    string
	client *http.Client
	log    *slog.Logger
}

func New(probeURL string, timeout time.Duration, log *slog.Logger) *Prober {
	return &Prober{
		url:    probeURL,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// Online reports whether the probe endpoint answered. Any transport
// failure (DNS, refused connection, timeout) means offline; an HTTP
// error status still counts as reachable since the network itself
// answered.
func (p *Prober) Online(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		p.log.Warn("invalid probe url", slog.String("url", p.url), slog.String("error", err.Error()))
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Debug("connectivity probe failed", slog.String("error", err.Error()))
		return false
	}
	defer resp.Body.Close()
	return true
}
