// FilePath: internal/cleanup/cleanup.go
package cleanup

import (
	"context"
	"fmt"
	"time"

	nuts "github.com/vaudience/go-nuts"
)

// EventFilesPruned is emitted with the number of removed files.
const EventFilesPruned = "files.pruned"

// FilePruner deletes stored files older than a cutoff.
type FilePruner interface {
	DeleteOldFiles(ctx context.Context, before time.Time) (int, error)
}

// CleanupService periodically removes old debug dumps and exports
type CleanupService struct {
	files     FilePruner
	retention time.Duration
	events    *nuts.EventEmitter
	now       func() time.Time
}

// New creates a new CleanupService
func New(files FilePruner, retention time.Duration) *CleanupService {
	return &CleanupService{
		files:     files,
		retention: retention,
		events:    nuts.NewEventEmitter(),
		now:       time.Now,
	}
}

// PruneFiles removes files last modified before now minus the retention.
func (s *CleanupService) PruneFiles(ctx context.Context) (int, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	n, err := s.files.DeleteOldFiles(ctx, s.now().Add(-s.retention))
	if err != nil {
		return n, fmt.Errorf("failed to prune files: %w", err)
	}
	if n > 0 {
		s.events.Emit(EventFilesPruned, n)
	}
	return n, nil
}

// Run prunes once per interval until ctx is done.
func (s *CleanupService) Run(ctx context.Context, interval time.Duration) {
	if s.retention <= 0 || interval <= 0 {
		nuts.L.Infof("[Cleanup] File retention disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.PruneFiles(ctx); err != nil {
			nuts.L.Errorf("[Cleanup] %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// OnCleanup registers a callback for cleanup events
func (s *CleanupService) OnCleanup(event string, handler func(count int)) {
	s.events.On(event, "cleanup_handler", func(args ...interface{}) {
		if len(args) > 0 {
			if n, ok := args[0].(int); ok {
				handler(n)
			}
		}
	})
}
