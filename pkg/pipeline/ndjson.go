package pipeline

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// MaxLineBytes is the largest input line the reader accepts. Product
// records carry full HTML descriptions, so the budget is generous.
const MaxLineBytes = 16 << 20

// LineReader yields complete newline-delimited records from a stream.
// Partial trailing data is carried over until its newline (or EOF)
// arrives, so a record is never surfaced half-read.
type LineReader struct {
	scanner *bufio.Scanner
	line    int
}

// NewLineReader wraps r for line-at-a-time reading.
func NewLineReader(r io.Reader) *LineReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	return &LineReader{scanner: s}
}

// Next returns the next non-blank line and its 1-based line number.
// The returned slice is a copy and remains valid across calls. io.EOF
// signals a cleanly exhausted stream.
func (r *LineReader) Next() ([]byte, int, error) {
	for r.scanner.Scan() {
		r.line++
		trimmed := bytes.TrimSpace(r.scanner.Bytes())
		if len(trimmed) == 0 {
			continue
		}
		// The scanner reuses its buffer on the next Scan.
		out := make([]byte, len(trimmed))
		copy(out, trimmed)
		return out, r.line, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, r.line, fmt.Errorf("read input: %w", err)
	}
	return nil, r.line, io.EOF
}

// Emitter writes one JSON object per line to a shared sink. It is safe
// for concurrent use: the mutex keeps lines from interleaving, and each
// record is flushed as soon as it is encoded so consumers can stream.
type Emitter struct {
	mu    sync.Mutex
	buf   *bufio.Writer
	enc   *json.Encoder
	lines int64
}

// NewEmitter wraps w, typically os.Stdout. HTML in attribute values is
// written as-is rather than escaped.
func NewEmitter(w io.Writer) *Emitter {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &Emitter{buf: bw, enc: enc}
}

// Emit writes a single record followed by a newline and flushes it.
func (e *Emitter) Emit(v any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.emit(v)
}

func (e *Emitter) emit(v any) error {
	if err := e.enc.Encode(v); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := e.buf.Flush(); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	e.lines++
	return nil
}

// Lines reports how many records have been emitted so far.
func (e *Emitter) Lines() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lines
}

// EmitAll writes records back to back under one lock, so a completed
// batch stays contiguous and in order even while sibling batches finish
// concurrently.
func EmitAll[T any](e *Emitter, vs []T) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, v := range vs {
		if err := e.emit(v); err != nil {
			return err
		}
	}
	return nil
}
