// Package analysis orchestrates one body-composition analysis: pose
// detection, measurement extraction, scoring, storage and notifications.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"grimaldi/internal/composition"
	"grimaldi/internal/events"
	"grimaldi/internal/log"
	"grimaldi/internal/pose"
	"grimaldi/internal/repository"
)

const sheetSyncTimeout = 30 * time.Second

// ErrAlreadyRunning is returned when the user already has an analysis in flight.
var ErrAlreadyRunning = errors.New("analysis: already running for this user")

// PersistenceError wraps a storage failure. Unlike vision failures it is
// always returned to the caller.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("analysis: %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Store persists analysis rows.
type Store interface {
	Insert(ctx context.Context, rec *repository.Record) error
	LatestByUser(ctx context.Context, userID int64) (*repository.Record, error)
	GetByID(ctx context.Context, id string) (*repository.Record, error)
	Delete(ctx context.Context, id string) error
}

// SheetSync mirrors a stored analysis into the client's spreadsheet.
type SheetSync interface {
	SyncAnalysis(ctx context.Context, rec *repository.Record) error
}

// Request describes one analysis event. With Measurements set the vision
// step is skipped.
type Request struct {
	UserID          int64
	Profile         composition.Profile
	FrontalImageURL string
	LateralImageURL string
	Measurements    *composition.Measurements
}

// Outcome is a stored analysis with its rebuilt result.
type Outcome struct {
	Record     *repository.Record
	Result     *composition.Result
	VisionUsed bool
	// Fallback is set when vision failed and proportional measurements were used.
	Fallback bool
}

// Edit overrides fields of a stored analysis on recompute.
type Edit struct {
	Profile      *composition.Profile
	Measurements *composition.Measurements
}

// Service runs analyses. At most one analysis per user runs at a time.
type Service struct {
	source    pose.Source
	extractor *composition.Extractor
	store     Store
	publisher events.Publisher
	sheets    SheetSync
	logger    *slog.Logger

	mu      sync.Mutex
	running map[int64]struct{}
	bg      sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithSheets enables spreadsheet mirroring.
func WithSheets(ss SheetSync) Option {
	return func(s *Service) { s.sheets = ss }
}

// NewService creates a service. A nil source disables vision.
func NewService(source pose.Source, extractor *composition.Extractor, store Store, opts ...Option) *Service {
	s := &Service{
		source:    source,
		extractor: extractor,
		store:     store,
		publisher: events.Noop{},
		logger:    log.With("component", "analysis"),
		running:   make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs and stores one analysis.
func (s *Service) Run(ctx context.Context, req Request) (*Outcome, error) {
	if !s.acquire(req.UserID) {
		return nil, ErrAlreadyRunning
	}
	defer s.release(req.UserID)

	if err := composition.ValidateProfile(req.Profile); err != nil {
		return nil, err
	}

	var (
		m        composition.Measurements
		vision   bool
		fallback bool
	)
	if req.Measurements != nil {
		m = *req.Measurements
		if err := composition.ValidateMeasurements(m); err != nil {
			return nil, err
		}
	} else {
		m, vision = s.measure(ctx, req)
		fallback = !vision
	}

	m = m.Clamp()
	res, err := composition.AnalyzeComposition(&m, &req.Profile)
	if err != nil {
		return nil, err
	}

	rec := repository.RecordFromResult(req.UserID, res)
	rec.VisionUsed = vision
	if err := s.store.Insert(ctx, rec); err != nil {
		return nil, &PersistenceError{Op: "insert", Err: err}
	}

	s.logger.Info("анализ сохранён",
		"user_id", req.UserID,
		"analysis_id", rec.ID,
		"score", rec.Score,
		"vision", vision,
	)
	s.afterSave(ctx, rec, "")

	return &Outcome{Record: rec, Result: res, VisionUsed: vision, Fallback: fallback}, nil
}

// measure runs pose detection and extraction. Any vision failure falls back
// to proportional measurements.
func (s *Service) measure(ctx context.Context, req Request) (composition.Measurements, bool) {
	p := req.Profile
	fallback := func(reason string, err error) (composition.Measurements, bool) {
		s.logger.Warn("визуальный анализ недоступен, используются пропорции",
			"user_id", req.UserID, "reason", reason, "error", err)
		return composition.ProportionalMeasurements(p.HeightM, p.Sex), false
	}

	if s.source == nil || req.FrontalImageURL == "" {
		return fallback("no image", pose.ErrVisionUnavailable)
	}

	results, err := s.source.Detect(ctx, []pose.Request{{View: pose.ViewFrontal, ImageURL: req.FrontalImageURL}})
	if err != nil {
		return fallback("detect", err)
	}
	frontal, ok := results[pose.ViewFrontal]
	if !ok {
		return fallback("detect", pose.ErrVisionUnavailable)
	}

	// The lateral view is optional; its failure keeps the frontal result.
	if req.LateralImageURL != "" {
		_, err := s.source.Detect(ctx, []pose.Request{{View: pose.ViewLateral, ImageURL: req.LateralImageURL}})
		if err != nil {
			s.logger.Warn("боковое фото не обработано", "user_id", req.UserID, "error", err)
		}
	}

	m, err := s.extractor.Extract(frontal, p.HeightM, p.WeightKg, p.Sex)
	if err != nil {
		return fallback("extract", err)
	}
	return m, true
}

// Recompute stores a corrected copy of an analysis and removes the old row.
// The two steps are not atomic; a failed delete leaves both rows and the
// newer one wins in Latest.
func (s *Service) Recompute(ctx context.Context, id string, edit Edit) (*Outcome, error) {
	old, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "load", Err: err}
	}

	if !s.acquire(old.UserID) {
		return nil, ErrAlreadyRunning
	}
	defer s.release(old.UserID)

	profile := old.Profile()
	if edit.Profile != nil {
		profile = *edit.Profile
	}
	m := old.Measurements()
	if edit.Measurements != nil {
		m = *edit.Measurements
	}

	if err := composition.ValidateProfile(profile); err != nil {
		return nil, err
	}
	if err := composition.ValidateMeasurements(m); err != nil {
		return nil, err
	}
	m = m.Clamp()

	res, err := composition.AnalyzeComposition(&m, &profile)
	if err != nil {
		return nil, err
	}

	rec := repository.RecordFromResult(old.UserID, res)
	rec.VisionUsed = old.VisionUsed
	if err := s.store.Insert(ctx, rec); err != nil {
		return nil, &PersistenceError{Op: "insert", Err: err}
	}
	if err := s.store.Delete(ctx, old.ID); err != nil {
		s.logger.Error("старый анализ не удалён", "analysis_id", old.ID, "replaced_by", rec.ID, "error", err)
	}

	s.logger.Info("анализ пересчитан", "user_id", old.UserID, "old_id", old.ID, "new_id", rec.ID, "score", rec.Score)
	s.afterSave(ctx, rec, old.ID)

	return &Outcome{Record: rec, Result: res, VisionUsed: rec.VisionUsed}, nil
}

// Latest returns the user's most recent analysis. Bands and descriptions are
// rebuilt from the stored numeric values.
func (s *Service) Latest(ctx context.Context, userID int64) (*Outcome, error) {
	rec, err := s.store.LatestByUser(ctx, userID)
	if err != nil {
		return nil, wrapRead(err)
	}
	return outcomeFromRecord(rec), nil
}

// Get returns a stored analysis by id.
func (s *Service) Get(ctx context.Context, id string) (*Outcome, error) {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, wrapRead(err)
	}
	return outcomeFromRecord(rec), nil
}

// Delete removes a stored analysis.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return wrapRead(err)
	}
	s.logger.Info("анализ удалён", "analysis_id", id)
	return nil
}

// Wait blocks until background spreadsheet syncs finish.
func (s *Service) Wait() {
	s.bg.Wait()
}

func (s *Service) afterSave(ctx context.Context, rec *repository.Record, replaces string) {
	e := events.NewAnalysisCompleted(rec.ID, rec.UserID, rec.Score, rec.FatPercent, rec.VisionUsed)
	e.Replaces = replaces
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("событие не опубликовано", "analysis_id", rec.ID, "error", err)
	}

	if s.sheets == nil {
		return
	}
	snapshot := *rec
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sheetSyncTimeout)
		defer cancel()
		if err := s.sheets.SyncAnalysis(ctx, &snapshot); err != nil {
			s.logger.Warn("таблица клиента не обновлена", "user_id", rec.UserID, "analysis_id", rec.ID, "error", err)
		}
	}()
}

func (s *Service) acquire(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.running[userID]; busy {
		return false
	}
	s.running[userID] = struct{}{}
	return true
}

func (s *Service) release(userID int64) {
	s.mu.Lock()
	delete(s.running, userID)
	s.mu.Unlock()
}

func outcomeFromRecord(rec *repository.Record) *Outcome {
	return &Outcome{Record: rec, Result: rec.Result(), VisionUsed: rec.VisionUsed}
}

func wrapRead(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return &PersistenceError{Op: "read", Err: err}
}
