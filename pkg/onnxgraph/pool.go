// Package onnxgraph wraps the externally supplied encoder/decoder inference
// graphs (spec §6) behind pooled ONNX Runtime sessions, so that the parallel
// segment and beam execution §5 requires turns into true concurrent
// inference rather than goroutines contending for one serialized session.
package onnxgraph

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// SessionPool manages a fixed number of sessions for the same graph, one per
// worker, each pinned to a single intra-op thread.
type SessionPool struct {
	sessions []*ort.DynamicAdvancedSession
	pool     chan *ort.DynamicAdvancedSession
}

// NewSessionPool loads size independent sessions for modelPath.
func NewSessionPool(modelPath string, inputNames, outputNames []string, size int) (*SessionPool, error) {
	if size < 1 {
		size = 1
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnxgraph: session options: %w", err)
	}
	defer options.Destroy()
	_ = options.SetIntraOpNumThreads(1)

	sessions := make([]*ort.DynamicAdvancedSession, 0, size)
	pool := make(chan *ort.DynamicAdvancedSession, size)

	for i := 0; i < size; i++ {
		s, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, outputNames, options)
		if err != nil {
			for _, prior := range sessions {
				prior.Destroy()
			}
			return nil, fmt.Errorf("onnxgraph: create session %d/%d for %s: %w", i+1, size, modelPath, err)
		}
		sessions = append(sessions, s)
		pool <- s
	}

	return &SessionPool{sessions: sessions, pool: pool}, nil
}

// Get checks out a session, blocking if every session is busy.
func (sp *SessionPool) Get() *ort.DynamicAdvancedSession {
	return <-sp.pool
}

// Put returns a session to the pool.
func (sp *SessionPool) Put(s *ort.DynamicAdvancedSession) {
	sp.pool <- s
}

// Close destroys every pooled session.
func (sp *SessionPool) Close() error {
	for range sp.sessions {
		s := <-sp.pool
		s.Destroy()
	}
	close(sp.pool)
	return nil
}
