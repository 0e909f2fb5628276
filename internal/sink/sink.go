// Package sink appends timestamped lines to the transcript and error
// log files.
package sink

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// TimeLayout is the human-readable prefix written before every line.
const TimeLayout = "2006-01-02 15:04:05"

// Writer appends one line per call to a flat file. The file is opened
// in append mode for each write; platform append semantics are the
// only locking across processes.
type Writer struct {
	path  string
	mu    sync.Mutex
	clock func() time.Time
}

func New(path string) *Writer {
	return &Writer{path: path, clock: time.Now}
}

// WriteLine appends "<timestamp> - <body>\n". Failure to open or write
// is returned to the caller; there is no retry.
func (w *Writer) WriteLine(body string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", w.path, err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s - %s\n", w.clock().Format(TimeLayout), body)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append %s: %w", w.path, err)
	}
	return nil
}

// WriteError formats an error through WriteLine. Used by the cloud
// driver for recognizer request failures.
func (w *Writer) WriteError(e error) error {
	return w.WriteLine(e.Error())
}
