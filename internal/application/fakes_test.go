package application

import (
	"context"
	"errors"
	"sync"

	"github.com/oksasatya/medtracker/internal/domain/repository/repotest"
)

type (
	memUsers   = repotest.Users
	memRecords = repotest.Records
)

func newMemUsers() *memUsers     { return repotest.NewUsers() }
func newMemRecords() *memRecords { return repotest.NewRecords() }

type capturePublisher struct {
	mu   sync.Mutex
	jobs []any
	err  error
}

func (p *capturePublisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, body)
	return nil
}

var errStorage = errors.New("connection reset")
