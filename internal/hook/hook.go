// Package hook runs a user-configured command after a transcript has
// been persisted.
package hook

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"

	"github.com/vocalis-ai/vocalis/internal/config"
)

// Command invokes the configured program with the transcript on stdin
// and language/backend details in the environment.
type Command struct {
	argv    []string
	timeout time.Duration
	log     *slog.Logger
}

func New(cfg config.HookConfig, log *slog.Logger) (*Command, error) {
	parser := shellwords.NewParser()
	argv, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse hook command: %w", err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("hook command is empty")
	}
	return &Command{
		argv:    argv,
		timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		log:     log,
	}, nil
}

// Run executes the hook once. Implements the session runner's Hook;
// failures are reported to the caller, which logs and moves on.
func (c *Command) Run(ctx context.Context, text, langCode, backend string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.argv[0], c.argv[1:]...)
	cmd.Stdin = strings.NewReader(text)
	cmd.Env = append(os.Environ(),
		"VOCALIS_LANGUAGE="+langCode,
		"VOCALIS_BACKEND="+backend,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("hook command failed: %w: %s", err, stderr.String())
	}
	c.log.Debug("transcript hook completed", slog.String("command", c.argv[0]))
	return nil
}
