package dal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// Memory is a map-backed DataAccessor. Useful for tests and embedding; also
// the seam tests wrap to count reads or inject faults.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (m *Memory) GetWriter(location string) (io.WriteCloser, error) {
	return &memoryWriter{m: m, location: location}, nil
}

func (m *Memory) Read(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[location]
	if !ok {
		return nil, fmt.Errorf("%w: reading %s: object does not exist", ErrStorageIO, location)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Len returns the number of stored objects.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

type memoryWriter struct {
	m        *Memory
	location string
	buf      bytes.Buffer
}

func (w *memoryWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

// Close publishes the object; nothing is visible before it.
func (w *memoryWriter) Close() error {
	w.m.mu.Lock()
	defer w.m.mu.Unlock()
	w.m.objects[w.location] = w.buf.Bytes()
	return nil
}
