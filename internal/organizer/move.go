package organizer

import (
	"context"
	"path"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tidyfs/tidyfs/internal/fs"
	"github.com/tidyfs/tidyfs/internal/infrastructure/logging"
	"github.com/tidyfs/tidyfs/internal/infrastructure/monitoring"
)

// Mover executes move plans against the provider.
type Mover struct {
	provider   fs.Provider
	classifier *Classifier
	log        *logging.Logger
	metrics    *monitoring.Metrics
	workers    int
	limiter    *rate.Limiter
}

// NewMover creates a batch mover. workers bounds the pool (1 means
// sequential); movesPerSec paces provider calls (0 means unpaced).
// metrics may be nil.
func NewMover(provider fs.Provider, classifier *Classifier, log *logging.Logger, metrics *monitoring.Metrics, workers, movesPerSec int) *Mover {
	if workers < 1 {
		workers = 1
	}
	var limiter *rate.Limiter
	if movesPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(movesPerSec), movesPerSec)
	}
	return &Mover{
		provider:   provider,
		classifier: classifier,
		log:        log,
		metrics:    metrics,
		workers:    workers,
		limiter:    limiter,
	}
}

// EnsureCategoryDirs idempotently creates every category directory under
// root, returning the labels that succeeded. Failures are logged and
// tolerated; a genuinely missing directory surfaces as a move error later.
func (m *Mover) EnsureCategoryDirs(ctx context.Context, root string) []string {
	var created []string
	for _, category := range m.classifier.Categories() {
		dir := path.Join(root, category)
		if err := m.provider.CreateDirectory(ctx, dir); err != nil {
			m.log.Warn("category directory creation failed",
				zap.String("path", dir),
				zap.Error(err))
			if m.metrics != nil {
				m.metrics.RecordProviderError("create_directory")
			}
			continue
		}
		created = append(created, category)
	}
	return created
}

type moveOutcome struct {
	attempted bool
	err       error
}

// Execute runs the plan to completion. Per-file failures never abort the
// batch; cancellation is honored between moves, and already completed
// moves stand. Aggregation is slot-per-entry then reduced in plan order,
// so the report is identical regardless of worker interleaving.
func (m *Mover) Execute(ctx context.Context, plan *MovePlan) *Report {
	start := time.Now()
	batchID := uuid.New().String()
	log := m.log.With(zap.String("batch_id", batchID), zap.String("root", plan.Root))

	if m.metrics != nil {
		m.metrics.BatchStarted()
		defer func() {
			m.metrics.BatchFinished(time.Since(start))
		}()
	}

	m.EnsureCategoryDirs(ctx, plan.Root)
	log.Info("executing move plan",
		zap.Int("entries", len(plan.Entries)),
		zap.Int("protected_projects", len(plan.Projects)))

	outcomes := make([]moveOutcome, len(plan.Entries))
	var g errgroup.Group
	g.SetLimit(m.workers)

	for i, entry := range plan.Entries {
		if ctx.Err() != nil {
			log.Warn("batch cancelled, remaining moves skipped",
				zap.Int("skipped", len(plan.Entries)-i))
			break
		}
		i, entry := i, entry
		g.Go(func() error {
			if m.limiter != nil {
				if err := m.limiter.Wait(ctx); err != nil {
					// Slot stays unattempted; the batch is aborting.
					return nil
				}
			}
			outcomes[i] = moveOutcome{
				attempted: true,
				err:       m.provider.Move(ctx, entry.Source, entry.Destination),
			}
			return nil
		})
	}
	// Workers never return errors; failures are collected per slot so the
	// rest of the batch keeps running.
	_ = g.Wait()

	return m.reduce(plan, outcomes, batchID, log)
}

// reduce folds the per-slot outcomes into a report, in plan order.
func (m *Mover) reduce(plan *MovePlan, outcomes []moveOutcome, batchID string, log *logging.Logger) *Report {
	report := &Report{
		BatchID: batchID,
		Root:    plan.Root,
		Skipped: append([]string(nil), plan.Projects...),
	}

	moved := make(map[string][]string)
	var errs []MoveError
	attempted := 0

	for i, entry := range plan.Entries {
		outcome := outcomes[i]
		if !outcome.attempted {
			continue
		}
		attempted++
		if outcome.err != nil {
			errs = append(errs, MoveError{
				Name:   path.Base(entry.Source),
				Reason: outcome.err.Error(),
			})
			log.Error("move failed",
				zap.String("source", entry.Source),
				zap.String("destination", entry.Destination),
				zap.Error(outcome.err))
			if m.metrics != nil {
				m.metrics.RecordProviderError("move")
			}
			continue
		}
		moved[entry.Category] = append(moved[entry.Category], entry.Display)
		report.TotalMoved++
	}

	report.Aborted = attempted < len(plan.Entries)

	for _, category := range m.classifier.Categories() {
		if names := moved[category]; len(names) > 0 {
			report.Categories = append(report.Categories, CategoryMoves{
				Category: category,
				Moved:    names,
			})
		}
	}

	moveFailures := len(errs)
	for _, planErr := range plan.Errors {
		errs = append(errs, MoveError{Name: planErr.Name, Reason: planErr.Reason})
	}
	sort.Slice(errs, func(i, j int) bool {
		if errs[i].Name != errs[j].Name {
			return errs[i].Name < errs[j].Name
		}
		return errs[i].Reason < errs[j].Reason
	})
	report.Errors = errs

	if m.metrics != nil {
		m.metrics.AddFilesMoved(report.TotalMoved)
		m.metrics.AddMoveFailures(moveFailures)
		m.metrics.AddProjectsSkipped(len(plan.Projects))
	}

	log.Info("move plan finished",
		zap.Int("moved", report.TotalMoved),
		zap.Int("errors", len(report.Errors)),
		zap.Bool("aborted", report.Aborted))
	return report
}
