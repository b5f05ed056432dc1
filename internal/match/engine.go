// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

package match

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/guidepost-dev/guidepost/internal/metrics"
)

// Engine orchestrates match score recalculation: it resolves effective
// attributes, runs every registered algorithm over the candidate pool, and
// replaces cached scores chunk by chunk.
//
// A recalculation never yields a half-empty cache: each chunk is replaced
// atomically, so a failure mid-run leaves a mix of old and new complete
// chunks rather than missing rows.
type Engine struct {
	config   *Config
	registry *Registry
	fetcher  *Fetcher
	store    AttributeStore
	cache    CacheStore
	rarity   SnapshotProvider
	limiter  *rate.Limiter
	logger   zerolog.Logger

	// inflight coalesces concurrent recalculations of the same
	// (subject, version) pair: later requests observe the earlier run's
	// results instead of racing it.
	inflightMu sync.Mutex
	inflight   map[string]struct{}

	sweepMu  sync.Mutex
	statusMu sync.RWMutex
	status   SweepStatus
}

// NewEngine creates a recalculation engine.
func NewEngine(cfg *Config, registry *Registry, fetcher *Fetcher, store AttributeStore, cache CacheStore, rarity SnapshotProvider, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	if registry == nil || fetcher == nil || store == nil || cache == nil || rarity == nil {
		return nil, errors.New("engine requires registry, fetcher, store, cache, and rarity provider")
	}

	var limiter *rate.Limiter
	if cfg.WritesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.WritesPerSecond), 1)
	}

	return &Engine{
		config:   cfg,
		registry: registry,
		fetcher:  fetcher,
		store:    store,
		cache:    cache,
		rarity:   rarity,
		limiter:  limiter,
		logger:   logger.With().Str("component", "match_engine").Logger(),
		inflight: make(map[string]struct{}),
	}, nil
}

// RecalculateForUser recomputes cached scores for a single subject across
// all registered algorithms. Returns ErrUserNotFound if the subject does not
// exist or is inactive. Chunk write failures do not abort the run; they are
// aggregated into the returned error.
func (e *Engine) RecalculateForUser(ctx context.Context, userID uuid.UUID) error {
	subject, err := e.fetcher.ResolveProfile(ctx, userID)
	if err != nil {
		return err
	}

	var failedChunks int
	for _, alg := range e.registry.All() {
		failed, err := e.recalculateSubject(ctx, subject, alg, e.config.ChunkSize, e.config.ChunkDelay)
		failedChunks += failed
		if err != nil {
			return err
		}
	}
	if failedChunks > 0 {
		return fmt.Errorf("recalculation for user %s completed with %d failed chunk writes", userID, failedChunks)
	}
	return nil
}

// RecalculateAll sweeps the entire subject population. At most one sweep
// runs at a time; a second call returns ErrSweepRunning. Individual subject
// failures are counted, logged, and skipped so partial progress survives.
func (e *Engine) RecalculateAll(ctx context.Context, opts SweepOptions) (*SweepReport, error) {
	if !e.sweepMu.TryLock() {
		return nil, ErrSweepRunning
	}
	defer e.sweepMu.Unlock()

	chunkSize := e.config.ChunkSize
	if opts.ChunkSize > 0 {
		chunkSize = opts.ChunkSize
	}
	chunkDelay := e.config.ChunkDelay
	if opts.ChunkDelay > 0 {
		chunkDelay = opts.ChunkDelay
	}

	started := time.Now().UTC()
	e.setSweepStarted(started)
	metrics.SweepRunning.Set(1)
	defer metrics.SweepRunning.Set(0)

	subjects, err := e.store.GetActiveUsersByRole(ctx, ReceivingRole)
	if err != nil {
		e.finishSweep(started, 0, 0, 0, 0, err)
		return nil, fmt.Errorf("failed to list sweep subjects: %w", err)
	}
	profiles, err := e.fetcher.ResolveProfilesBulk(ctx, subjects)
	if err != nil {
		e.finishSweep(started, len(subjects), 0, 0, 0, err)
		return nil, fmt.Errorf("failed to resolve sweep profiles: %w", err)
	}

	algorithms := e.registry.All()

	var (
		failedSubjects  atomic.Int64
		skippedSubjects atomic.Int64
		failedChunks    atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.MaxParallelSubjects)

	for _, id := range subjects {
		subject, ok := profiles[id]
		if !ok {
			// Subject vanished between listing and resolution.
			skippedSubjects.Add(1)
			continue
		}
		g.Go(func() error {
			for _, alg := range algorithms {
				failed, err := e.recalculateSubject(gctx, subject, alg, chunkSize, chunkDelay)
				failedChunks.Add(int64(failed))
				if err != nil {
					if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
						return err
					}
					if errors.Is(err, ErrUserNotFound) {
						skippedSubjects.Add(1)
						return nil
					}
					failedSubjects.Add(1)
					e.logger.Error().Err(err).
						Str("subject_id", subject.UserID.String()).
						Str("version", alg.Version()).
						Msg("Subject recalculation failed, continuing sweep")
					return nil
				}
			}
			return nil
		})
	}

	sweepErr := g.Wait()
	report := &SweepReport{
		Subjects:        len(subjects),
		FailedSubjects:  int(failedSubjects.Load()),
		SkippedSubjects: int(skippedSubjects.Load()),
		FailedChunks:    int(failedChunks.Load()),
		Duration:        time.Since(started),
	}
	e.finishSweep(started, report.Subjects, report.FailedSubjects, report.SkippedSubjects, report.FailedChunks, sweepErr)

	outcome := "complete"
	switch {
	case sweepErr != nil:
		outcome = "cancelled"
	case report.FailedSubjects > 0 || report.FailedChunks > 0:
		outcome = "partial"
	}
	metrics.SweepsTotal.WithLabelValues(outcome).Inc()
	metrics.SweepSubjects.WithLabelValues("success").Add(float64(report.Subjects - report.FailedSubjects - report.SkippedSubjects))
	metrics.SweepSubjects.WithLabelValues("failure").Add(float64(report.FailedSubjects))
	metrics.SweepSubjects.WithLabelValues("skipped").Add(float64(report.SkippedSubjects))

	e.logger.Info().
		Int("subjects", report.Subjects).
		Int("failed_subjects", report.FailedSubjects).
		Int("skipped_subjects", report.SkippedSubjects).
		Int("failed_chunks", report.FailedChunks).
		Dur("duration", report.Duration).
		Str("outcome", outcome).
		Msg("Population sweep finished")

	if sweepErr != nil {
		return report, sweepErr
	}
	return report, nil
}

// Status returns the state of the current or most recent sweep.
func (e *Engine) Status() SweepStatus {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.status
}

// recalculateSubject scores one subject against the full opposite-role pool
// for one algorithm version, replacing the cache in chunks. Returns the
// number of failed chunk writes. A non-nil error means the run stopped early
// (cancellation or a failure before scoring began); chunk write failures
// alone never stop the run.
func (e *Engine) recalculateSubject(ctx context.Context, subject Profile, alg Algorithm, chunkSize int, chunkDelay time.Duration) (int, error) {
	key := subject.UserID.String() + "|" + alg.Version()
	if !e.tryAcquire(key) {
		e.logger.Debug().
			Str("subject_id", subject.UserID.String()).
			Str("version", alg.Version()).
			Msg("Recalculation already in flight, coalescing")
		return 0, nil
	}
	defer e.release(key)

	start := time.Now()
	defer func() {
		metrics.SubjectRecalcDuration.WithLabelValues(alg.Version()).Observe(time.Since(start).Seconds())
	}()

	candidateIDs, err := e.store.GetActiveUsersByRole(ctx, subject.Role.Opposite())
	if err != nil {
		return 0, fmt.Errorf("failed to list candidates for %s: %w", subject.UserID, err)
	}

	profiles, err := e.fetcher.ResolveProfilesBulk(ctx, candidateIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve candidate profiles for %s: %w", subject.UserID, err)
	}

	// One rarity snapshot per run keeps weights consistent across chunks.
	rarity := e.rarity.Snapshot()
	calculatedAt := time.Now().UTC()

	var failedChunks int
	for chunkIdx, offset := 0, 0; offset < len(candidateIDs); chunkIdx, offset = chunkIdx+1, offset+chunkSize {
		if err := ctx.Err(); err != nil {
			return failedChunks, err
		}

		end := min(offset+chunkSize, len(candidateIDs))

		pairs := make([]PairKey, 0, end-offset)
		rows := make([]Row, 0, end-offset)
		for _, cid := range candidateIDs[offset:end] {
			candidate, ok := profiles[cid]
			if !ok {
				continue
			}
			score, explanation := alg.Score(subject, candidate, rarity)
			metrics.PairsScored.WithLabelValues(alg.Version()).Inc()

			storedSubject, storedCandidate := Canonicalize(subject.UserID, cid, subject.Role)
			pairs = append(pairs, PairKey{SubjectID: storedSubject, CandidateID: storedCandidate})
			if score > 0 {
				rows = append(rows, Row{
					SubjectID:        storedSubject,
					CandidateID:      storedCandidate,
					AlgorithmVersion: alg.Version(),
					Score:            score,
					Explanation:      explanation,
					CalculatedAt:     calculatedAt,
				})
			}
		}

		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return failedChunks, err
			}
		}

		if err := e.cache.ReplaceChunk(ctx, alg.Version(), pairs, rows); err != nil {
			failedChunks++
			metrics.ChunkWrites.WithLabelValues("failure").Inc()
			e.logger.Error().Err(err).
				Str("subject_id", subject.UserID.String()).
				Str("version", alg.Version()).
				Int("chunk", chunkIdx).
				Msg("Chunk write failed, continuing with remaining chunks")
			continue
		}
		metrics.ChunkWrites.WithLabelValues("success").Inc()
		metrics.CacheRowsWritten.Add(float64(len(rows)))

		if chunkDelay > 0 && end < len(candidateIDs) {
			select {
			case <-ctx.Done():
				return failedChunks, ctx.Err()
			case <-time.After(chunkDelay):
			}
		}
	}

	// Every row this run wrote carries calculatedAt, so anything older
	// belongs to a candidate that left the population since the previous
	// run. Pruning only after a clean run: a failed chunk's pairs still
	// hold their old timestamps and must keep their stale-but-complete
	// rows.
	if failedChunks == 0 {
		asSubject := subject.Role == ReceivingRole
		pruned, err := e.cache.PruneStale(ctx, alg.Version(), subject.UserID, asSubject, calculatedAt)
		if err != nil {
			e.logger.Error().Err(err).
				Str("subject_id", subject.UserID.String()).
				Str("version", alg.Version()).
				Msg("Failed to prune stale cache rows")
		} else if pruned > 0 {
			metrics.CacheRowsPruned.Add(float64(pruned))
			e.logger.Debug().
				Str("subject_id", subject.UserID.String()).
				Str("version", alg.Version()).
				Int64("pruned", pruned).
				Msg("Evicted stale cache rows for departed candidates")
		}
	}

	e.logger.Debug().
		Str("subject_id", subject.UserID.String()).
		Str("version", alg.Version()).
		Int("candidates", len(candidateIDs)).
		Int("failed_chunks", failedChunks).
		Msg("Subject recalculation complete")

	return failedChunks, nil
}

func (e *Engine) tryAcquire(key string) bool {
	e.inflightMu.Lock()
	defer e.inflightMu.Unlock()
	if _, busy := e.inflight[key]; busy {
		return false
	}
	e.inflight[key] = struct{}{}
	return true
}

func (e *Engine) release(key string) {
	e.inflightMu.Lock()
	defer e.inflightMu.Unlock()
	delete(e.inflight, key)
}

func (e *Engine) setSweepStarted(at time.Time) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.status = SweepStatus{Running: true, StartedAt: at}
}

func (e *Engine) finishSweep(started time.Time, subjects, failedSubjects, skippedSubjects, failedChunks int, err error) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.status.Running = false
	e.status.CompletedAt = time.Now().UTC()
	e.status.DurationMS = time.Since(started).Milliseconds()
	e.status.Subjects = subjects
	e.status.FailedSubjects = failedSubjects
	e.status.SkippedSubjects = skippedSubjects
	e.status.FailedChunks = failedChunks
	if err != nil {
		e.status.LastError = err.Error()
	} else {
		e.status.LastError = ""
	}
}
