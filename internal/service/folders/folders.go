package folders

import (
	"context"
	"log/slog"
	"time"

	"LectureBot/internal/lib/sl"
)

// Provisioner mirrors a section tree as remote folders. EnsureFolders is
// idempotent: existing folders are left in place.
type Provisioner interface {
	Name() string
	EnsureFolders(ctx context.Context, paths []string) (int, error)
}

// Nop is used when no folder provider is configured.
type Nop struct{}

func (Nop) Name() string { return "none" }

func (Nop) EnsureFolders(context.Context, []string) (int, error) { return 0, nil }

// Reconciler periodically retries sections whose folders were not created.
type Reconciler struct {
	interval time.Duration
	run      func(ctx context.Context) error
	log      *slog.Logger
}

func NewReconciler(interval time.Duration, run func(ctx context.Context) error, log *slog.Logger) *Reconciler {
	return &Reconciler{
		interval: interval,
		run:      run,
		log:      log.With(sl.Module("folders.reconciler")),
	}
}

// Start runs until ctx is done. A non-positive interval disables it.
func (r *Reconciler) Start(ctx context.Context) {
	if r.interval <= 0 {
		r.log.Info("reconciler disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.tick(ctx)
			}
		}
	}()
}

func (r *Reconciler) tick(ctx context.Context) {
	if err := r.run(ctx); err != nil {
		r.log.With(sl.Err(err)).Warn("reconcile sections")
	}
}
