package logs

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
)

const (
	filePrefix = "telemetry-"
	fileSuffix = ".log"
	fileDate   = "2006-01-02"
)

// fileWriter appends entries as JSON lines to a date-stamped file,
// rotating when the UTC date changes. It has its own lock so disk I/O
// never serializes with the in-memory buffers.
type fileWriter struct {
	dir string

	mu  sync.Mutex
	f   *os.File
	day string
}

func newFileWriter(dir string) (*fileWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &fileWriter{dir: dir}, nil
}

// Append writes one entry as a JSON line, rotating to a new file on date
// change.
func (w *fileWriter) Append(e *Entry) error {
	line, err := sonic.Marshal(e)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	day := e.Timestamp.UTC().Format(fileDate)
	if w.f == nil || day != w.day {
		if w.f != nil {
			_ = w.f.Close()
		}
		name := filepath.Join(w.dir, filePrefix+day+fileSuffix)
		f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		w.f, w.day = f, day
	}

	if _, err := w.f.Write(append(line, '\n')); err != nil {
		return err
	}
	return nil
}

// RemoveOlderThan deletes rotated files last modified before cutoff and
// returns how many were removed. The file currently being written is never
// removed.
func (w *fileWriter) RemoveOlderThan(cutoff time.Time) (int, error) {
	w.mu.Lock()
	current := ""
	if w.f != nil {
		current = w.f.Name()
	}
	w.mu.Unlock()

	dirEntries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	var firstErr error
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		full := filepath.Join(w.dir, name)
		if full == current {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(full); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			removed++
		}
	}
	return removed, firstErr
}

// Close closes the active file, if any.
func (w *fileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}
