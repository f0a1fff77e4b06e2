// SPDX-License-Identifier: GPL-3.0-or-later

package nettap

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// SinkHandle is the per-connection output channel of a [*Tapper].
//
// The tapper exclusively owns its handle and calls Close exactly once.
// Calls to SubmitTrace on one handle must be honored in call order.
type SinkHandle interface {
	// SubmitTrace accepts one fully formed message.
	SubmitTrace(msg *TraceMessage) error

	// Close releases the handle.
	Close() error
}

// SinkFactory creates a [SinkHandle] for each tapped connection.
type SinkFactory interface {
	NewSinkHandle(id TraceID) (SinkHandle, error)
}

// ErrSinkClosed is returned when submitting to a closed [SinkHandle].
var ErrSinkClosed = errors.New("sink handle closed")

// WriterSink is a [SinkFactory] whose handles all serialize messages onto
// the same [io.Writer].
//
// Writes are serialized with a mutex, so each message is written atomically
// and the order of the calls on a single handle is preserved.
type WriterSink struct {
	format Format
	mu     sync.Mutex
	writer io.Writer
}

var _ SinkFactory = &WriterSink{}

// NewWriterSink returns a new [*WriterSink] writing to w using format.
func NewWriterSink(w io.Writer, format Format) *WriterSink {
	return &WriterSink{format: format, writer: w}
}

// NewSinkHandle implements [SinkFactory].
func (s *WriterSink) NewSinkHandle(id TraceID) (SinkHandle, error) {
	return &writerSinkHandle{id: id, sink: s}, nil
}

func (s *WriterSink) write(msg *TraceMessage) error {
	data, err := s.format.Marshal(msg)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.writer.Write(data)
	return err
}

type writerSinkHandle struct {
	closed bool
	id     TraceID
	sink   *WriterSink
}

func (h *writerSinkHandle) SubmitTrace(msg *TraceMessage) error {
	if h.closed {
		return ErrSinkClosed
	}
	return h.sink.write(msg)
}

func (h *writerSinkHandle) Close() error {
	h.closed = true
	return nil
}

// FilePerTapSink is a [SinkFactory] writing each trace to its own file
// named "<prefix>_<trace_id>.<format>".
//
// The file is created on the first submitted message, so connections
// that are never tapped leave no file behind.
type FilePerTapSink struct {
	// Format is the serialization format.
	//
	// Set by [NewFilePerTapSink] to the user-provided value.
	Format Format

	// OpenFile opens the per-trace file (configurable for testing).
	//
	// Set by [NewFilePerTapSink] to a function using [os.OpenFile].
	OpenFile func(name string) (io.WriteCloser, error)

	// PathPrefix is the prefix of each file path.
	//
	// Set by [NewFilePerTapSink] to the user-provided value.
	PathPrefix string
}

var _ SinkFactory = &FilePerTapSink{}

// NewFilePerTapSink returns a new [*FilePerTapSink].
func NewFilePerTapSink(prefix string, format Format) *FilePerTapSink {
	return &FilePerTapSink{
		Format: format,
		OpenFile: func(name string) (io.WriteCloser, error) {
			return os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		},
		PathPrefix: prefix,
	}
}

// PathFor returns the file path used for the given trace.
func (s *FilePerTapSink) PathFor(id TraceID) string {
	return fmt.Sprintf("%s_%d.%s", s.PathPrefix, id, s.Format.Extension())
}

// NewSinkHandle implements [SinkFactory].
func (s *FilePerTapSink) NewSinkHandle(id TraceID) (SinkHandle, error) {
	return &filePerTapSinkHandle{path: s.PathFor(id), sink: s}, nil
}

type filePerTapSinkHandle struct {
	closed bool
	file   io.WriteCloser
	path   string
	sink   *FilePerTapSink
}

func (h *filePerTapSinkHandle) SubmitTrace(msg *TraceMessage) error {
	if h.closed {
		return ErrSinkClosed
	}
	data, err := h.sink.Format.Marshal(msg)
	if err != nil {
		return err
	}
	if h.file == nil {
		file, err := h.sink.OpenFile(h.path)
		if err != nil {
			return err
		}
		h.file = file
	}
	_, err = h.file.Write(data)
	return err
}

func (h *filePerTapSinkHandle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	if h.file == nil {
		return nil
	}
	return h.file.Close()
}
