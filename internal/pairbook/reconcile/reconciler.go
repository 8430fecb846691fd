// Package reconcile contains the background loop that watches todo deadlines.
//
// Once per tick it scans every todo of every pair for the two nag triggers
// (due this exact minute, exactly ten minutes overdue), fans the dialogue
// requests out concurrently, joins them, prunes completed todos past the
// retention window, and persists the pruned collection in one batched write.
//
// Trigger matching is deliberately exact: a tick that is skipped or delayed
// past a todo's minute misses that notification permanently. There is no
// catch-up logic, so an inactive process stays silent rather than replaying
// stale nags on resume.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/soyj/pairbook/internal/pairbook/dialogue"
	"github.com/soyj/pairbook/internal/pairbook/model"
	"github.com/soyj/pairbook/internal/pairbook/notify"
	"github.com/soyj/pairbook/internal/pairbook/state"
)

const (
	// overdueAfter is how far past the target minute the reminder fires.
	overdueAfter = 10 * time.Minute
	// completedRetention is how long a completed todo is kept before it is
	// hard-deleted from its pair.
	completedRetention = 120 * time.Minute
	// reminderPrefix marks the overdue repeat of a nag bubble.
	reminderPrefix = "(reminder) "
)

// Config configures the reconciliation loop.
type Config struct {
	// Interval is the tick period. Defaults to 60s.
	Interval time.Duration
	// Now overrides the wall clock for tests. Nil means time.Now.
	Now func() time.Time
}

// Reconciler runs the periodic todo scan.
type Reconciler struct {
	state    *state.State
	gen      *dialogue.Generator
	notifier notify.Notifier
	cfg      Config
}

// New creates a Reconciler. notifier may not be nil; pass notify.NopNotifier
// to disable delivery.
func New(st *state.State, gen *dialogue.Generator, notifier notify.Notifier, cfg Config) *Reconciler {
	if cfg.Interval == 0 {
		cfg.Interval = 60 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Reconciler{state: st, gen: gen, notifier: notifier, cfg: cfg}
}

// Run starts the loop. Blocks until ctx is cancelled. The period is fixed:
// a tick whose dialogue work outlives the interval can overlap the next one,
// which is tolerated because every write goes through the state layer's
// single choke point.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	slog.Info("reconciler starting", "interval", r.cfg.Interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("reconciler stopping")
			return
		case <-ticker.C:
			if err := r.Reconcile(ctx); err != nil {
				slog.Error("reconcile tick", "err", err)
			}
		}
	}
}

// nagJob is one pending dialogue request discovered during a scan.
type nagJob struct {
	pairName string
	todo     model.Todo
	char     model.Character
	overdue  bool
}

// Reconcile runs a single pass. Failures inside one todo's processing are
// logged and never stop the rest of the scan.
func (r *Reconciler) Reconcile(ctx context.Context) error {
	now := r.cfg.Now()

	r.rollSelectedDay(now)

	pairs := r.state.Pairs()
	if len(pairs) == 0 {
		return nil
	}

	var jobs []nagJob
	changed := false

	for i := range pairs {
		pair := &pairs[i]

		for _, todo := range pair.Todos {
			if todo.Completed {
				continue
			}
			due, err := todo.DueAt(time.Local)
			if err != nil {
				slog.Warn("skipping todo with unparseable target", "todo", todo.ID, "err", err)
				continue
			}

			if sameMinute(now, due) {
				if char, ok := r.state.RandomAssignedCharacter(*pair); ok {
					jobs = append(jobs, nagJob{pairName: pair.Name, todo: todo, char: char})
				}
			}
			if wholeMinutes(now.Sub(due)) == int(overdueAfter/time.Minute) {
				if char, ok := r.state.RandomAssignedCharacter(*pair); ok {
					jobs = append(jobs, nagJob{pairName: pair.Name, todo: todo, char: char, overdue: true})
				}
			}
		}

		kept := make([]model.Todo, 0, len(pair.Todos))
		for _, todo := range pair.Todos {
			if todo.Completed && todo.CompletedAt != nil &&
				now.Sub(*todo.CompletedAt) >= completedRetention {
				slog.Info("expiring completed todo", "pair", pair.ID, "todo", todo.ID)
				changed = true
				continue
			}
			kept = append(kept, todo)
		}
		pair.Todos = kept
	}

	// Fan out the dialogue requests and join before persisting, so the batch
	// write happens after this tick's side effects are done.
	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(j nagJob) {
			defer wg.Done()
			r.runNag(ctx, j)
		}(job)
	}
	wg.Wait()

	if changed {
		if err := r.state.ReplacePairs(ctx, pairs); err != nil {
			return fmt.Errorf("persist expired todos: %w", err)
		}
	}
	return nil
}

// runNag requests nag dialogue for one todo and records the bubble. The
// due-now variant also attempts a system notification; the overdue variant
// only replaces the bubble, with the reminder marker prepended.
func (r *Reconciler) runNag(ctx context.Context, j nagJob) {
	msg := r.gen.CharacterDialogue(ctx, j.char, dialogue.ContextNag, dialogue.Data{TaskName: j.todo.Text})

	if j.overdue {
		r.state.SetBubble(j.todo.ID, model.Bubble{Text: reminderPrefix + msg, CharID: j.char.ID})
		return
	}

	r.notifier.Notify(ctx, notify.Notification{
		Title:   fmt.Sprintf("[%s] It's time!", j.char.Name),
		Body:    msg,
		IconURL: j.char.ImageURL,
	})
	r.state.SetBubble(j.todo.ID, model.Bubble{Text: msg, CharID: j.char.ID})
}

// rollSelectedDay advances the session's anchored day when the clock reads
// exactly midnight of a new day. A process inactive across midnight simply
// misses the rollover until the next exact-midnight tick.
func (r *Reconciler) rollSelectedDay(now time.Time) {
	sel := r.state.SelectedDay()
	if sameDay(sel, now) {
		return
	}
	if now.Hour() == 0 && now.Minute() == 0 {
		r.state.SetSelectedDay(now)
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sameMinute(a, b time.Time) bool {
	return a.Truncate(time.Minute).Equal(b.Truncate(time.Minute))
}

// wholeMinutes floors a duration to whole minutes; negative for the future.
func wholeMinutes(d time.Duration) int {
	return int(d / time.Minute)
}
