package logging

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// lineWriter fans out log lines to one or more buffered sinks under a lock.
// Lines are flushed eagerly so the tail of the log survives a crash.
type lineWriter struct {
	mu    sync.Mutex
	sinks []*bufio.Writer
	err   error
}

func newLineWriter(writers []io.Writer, bufSize int) *lineWriter {
	if bufSize <= 0 {
		bufSize = 32 * 1024
	}
	sinks := make([]*bufio.Writer, 0, len(writers))
	for _, w := range writers {
		if w == nil {
			continue
		}
		sinks = append(sinks, bufio.NewWriterSize(w, bufSize))
	}
	return &lineWriter{sinks: sinks}
}

func (w *lineWriter) Write(p []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	for _, sink := range w.sinks {
		if _, err := sink.Write(p); err != nil {
			w.err = err
			return err
		}
		if err := sink.Flush(); err != nil {
			w.err = err
			return err
		}
	}
	return nil
}

// Flush drains all buffered output.
func (w *lineWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, sink := range w.sinks {
		if err := sink.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
