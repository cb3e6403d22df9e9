// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	uuid "github.com/gofrs/uuid"
	engagementErrors "github.com/qolzam/telar/apps/social/engagement/errors"
	"github.com/qolzam/telar/apps/social/internal/pkg/log"
	postsModels "github.com/qolzam/telar/apps/social/posts/models"
	postsRepository "github.com/qolzam/telar/apps/social/posts/repository"
	"golang.org/x/sync/errgroup"
)

// ReconcileOptions controls a reconciliation run
type ReconcileOptions struct {
	BatchSize   int
	Concurrency int
	// PostIDs limits the run to these posts; empty means every post
	PostIDs []uuid.UUID
}

// Correction records a post whose stored counters had drifted
type Correction struct {
	PostID uuid.UUID
	Before postsModels.Counters
	After  postsModels.Counters
}

// ReconcileReport summarizes a reconciliation run
type ReconcileReport struct {
	Scanned     int
	Corrected   int
	Failed      int
	Skipped     int
	Corrections []Correction
	Duration    time.Duration
}

// Reconciler recounts the counters of every post, healing drift left by interrupted mutations
type Reconciler struct {
	posts       postsRepository.PostRepository
	projector   *CounterProjector
	invalidator SnapshotInvalidator
}

// NewReconciler creates a Reconciler. invalidator may be nil.
func NewReconciler(posts postsRepository.PostRepository, projector *CounterProjector, invalidator SnapshotInvalidator) *Reconciler {
	return &Reconciler{posts: posts, projector: projector, invalidator: invalidator}
}

// Reconcile walks posts in id order, batch by batch, recounting up to Concurrency posts at a time.
// Per-post failures are counted and logged. A listing failure or cancellation stops the run
// and returns the partial report with the error.
func (r *Reconciler) Reconcile(ctx context.Context, opts ReconcileOptions) (*ReconcileReport, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 200
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	started := time.Now()
	report := &ReconcileReport{}
	var mu sync.Mutex

	run := func(ids []uuid.UUID) error {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Concurrency)
		for _, id := range ids {
			g.Go(func() error {
				correction, changed, err := r.ReconcilePost(gctx, id)

				mu.Lock()
				defer mu.Unlock()
				// posts abandoned on cancellation are not part of the report
				if err != nil && ctx.Err() != nil {
					return ctx.Err()
				}
				report.Scanned++
				switch {
				case errors.Is(err, engagementErrors.ErrPostNotFound):
					report.Skipped++
				case err != nil:
					report.Failed++
					log.Error("Reconcile of post %s failed: %v", id, err)
				case changed:
					report.Corrected++
					report.Corrections = append(report.Corrections, correction)
				}
				return nil
			})
		}
		return g.Wait()
	}

	var err error
	if len(opts.PostIDs) > 0 {
		err = run(opts.PostIDs)
	} else {
		err = r.walk(ctx, opts.BatchSize, run)
	}

	slices.SortFunc(report.Corrections, func(a, b Correction) int {
		return slices.Compare(a.PostID.Bytes(), b.PostID.Bytes())
	})
	report.Duration = time.Since(started)
	if err != nil {
		return report, err
	}
	log.Info("Reconciled %d posts: %d corrected, %d failed, %d skipped", report.Scanned, report.Corrected, report.Failed, report.Skipped)
	return report, nil
}

func (r *Reconciler) walk(ctx context.Context, batchSize int, run func([]uuid.UUID) error) error {
	after := uuid.Nil
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ids, err := r.posts.ListIDs(ctx, after, batchSize)
		if err != nil {
			return fmt.Errorf("%w: %w", engagementErrors.ErrStorageUnavailable, err)
		}
		if len(ids) == 0 {
			return nil
		}
		if err := run(ids); err != nil {
			return err
		}
		if len(ids) < batchSize {
			return nil
		}
		after = ids[len(ids)-1]
	}
}

// ReconcilePost recounts one post in its own transaction and reports whether its counters changed
func (r *Reconciler) ReconcilePost(ctx context.Context, postID uuid.UUID) (Correction, bool, error) {
	correction := Correction{PostID: postID}
	err := r.posts.WithTransaction(ctx, func(txCtx context.Context) error {
		before, err := r.posts.FindByID(txCtx, postID)
		if err != nil {
			return err
		}
		after, err := r.projector.ResyncAll(txCtx, postID)
		if err != nil {
			return err
		}
		correction.Before, correction.After = before.Counters(), after.Counters()
		return nil
	})
	if err != nil {
		return correction, false, err
	}

	changed := correction.Before != correction.After
	if changed && r.invalidator != nil {
		r.invalidator.Invalidate(ctx, postID)
	}
	return correction, changed, nil
}
