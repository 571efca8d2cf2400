package commands

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/am2r-community-developers/am2rbot/pkg/logger"
)

// Spawner runs command handlers as detached tasks. Go never blocks the
// caller and never reports a task's outcome back to it: failures and panics
// are logged and stop only that task.
type Spawner struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// NewSpawner caps concurrently running tasks at maxConcurrent; values <= 0
// mean no cap. Tasks over the cap wait inside their own goroutine.
func NewSpawner(maxConcurrent int) *Spawner {
	s := &Spawner{}
	if maxConcurrent > 0 {
		s.sem = semaphore.NewWeighted(int64(maxConcurrent))
	}
	return s
}

// Go starts fn detached from ctx's cancellation and returns the task id.
func (s *Spawner) Go(ctx context.Context, command string, fn func(ctx context.Context) error) string {
	taskID := uuid.NewString()
	ctx = context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorCF("dispatch", "Command task panicked", map[string]any{
					"task_id": taskID,
					"command": command,
					"panic":   fmt.Sprint(r),
				})
			}
		}()

		if s.sem != nil {
			if err := s.sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer s.sem.Release(1)
		}

		if err := fn(ctx); err != nil {
			logger.ErrorCF("dispatch", "Command task failed", map[string]any{
				"task_id": taskID,
				"command": command,
				"error":   err.Error(),
			})
			return
		}
		logger.DebugCF("dispatch", "Command task finished", map[string]any{
			"task_id": taskID,
			"command": command,
		})
	}()

	return taskID
}

// Wait blocks until every task started so far has returned. Dispatch never
// calls it; shutdown and tests do.
func (s *Spawner) Wait() {
	s.wg.Wait()
}
