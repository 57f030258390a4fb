package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimaldi/internal/composition"
	"grimaldi/internal/events"
	"grimaldi/internal/pose"
	"grimaldi/internal/repository"
)

type memStore struct {
	mu        sync.Mutex
	rows      []*repository.Record
	seq       int
	insertErr error
	deleteErr error
}

func (s *memStore) Insert(_ context.Context, rec *repository.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.seq++
	rec.ID = fmt.Sprintf("00000000-0000-0000-0000-%012d", s.seq)
	rec.CreatedAt = time.Date(2026, 1, 1, 0, 0, s.seq, 0, time.UTC)
	cp := *rec
	s.rows = append(s.rows, &cp)
	return nil
}

func (s *memStore) LatestByUser(_ context.Context, userID int64) (*repository.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *repository.Record
	for _, r := range s.rows {
		if r.UserID == userID && (latest == nil || r.CreatedAt.After(latest.CreatedAt)) {
			latest = r
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*repository.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for i, r := range s.rows {
		if r.ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.AnalysisCompleted
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.AnalysisCompleted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type recordingSheets struct {
	mu     sync.Mutex
	synced []string
}

func (s *recordingSheets) SyncAnalysis(_ context.Context, rec *repository.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synced = append(s.synced, rec.ID)
	return errors.New("sheets offline")
}

// blockingSource holds Detect until release is closed.
type blockingSource struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingSource) Detect(ctx context.Context, _ []pose.Request) (map[pose.View]*pose.Result, error) {
	close(b.entered)
	<-b.release
	return nil, pose.ErrVisionUnavailable
}

type failingSource struct{ t *testing.T }

func (f failingSource) Detect(context.Context, []pose.Request) (map[pose.View]*pose.Result, error) {
	f.t.Error("vision must not be called")
	return nil, pose.ErrVisionUnavailable
}

func frontal() *pose.Result {
	lm := make([]pose.Landmark, 33)
	for i := range lm {
		lm[i] = pose.Landmark{X: 0.5, Y: 0.5, Visibility: 0.9}
	}
	lm[pose.Nose] = pose.Landmark{X: 0.5, Y: 0.05}
	lm[pose.LeftAnkle] = pose.Landmark{X: 0.45, Y: 0.95}
	lm[pose.LeftHip] = pose.Landmark{X: 0.45, Y: 0.5}
	lm[pose.RightHip] = pose.Landmark{X: 0.55, Y: 0.5}
	return &pose.Result{View: pose.ViewFrontal, ImageWidth: 1000, ImageHeight: 2000, Landmarks: lm}
}

var (
	male   = composition.Profile{HeightM: 1.75, WeightKg: 70, Age: 30, Sex: composition.SexMale}
	manual = composition.Measurements{Arms: 32, Forearms: 27, Waist: 84, Hip: 96, Thighs: 56, Calves: 37}
)

func TestRunWithVision(t *testing.T) {
	store := &memStore{}
	pub := &recordingPublisher{}
	sheets := &recordingSheets{}
	svc := NewService(pose.Static{pose.ViewFrontal: frontal()}, composition.NewExtractor(composition.ModeCalibrated), store,
		WithPublisher(pub), WithSheets(sheets))

	out, err := svc.Run(context.Background(), Request{UserID: 1, Profile: male, FrontalImageURL: "http://img/front.jpg"})
	require.NoError(t, err)
	svc.Wait()

	assert.True(t, out.VisionUsed)
	assert.False(t, out.Fallback)
	assert.True(t, out.Record.VisionUsed)
	assert.Equal(t, 1, store.count())

	require.Len(t, pub.events, 1)
	assert.Equal(t, out.Record.ID, pub.events[0].AnalysisID)
	assert.Equal(t, out.Result.Score, pub.events[0].Score)

	assert.Equal(t, []string{out.Record.ID}, sheets.synced, "sheet errors are logged only")
}

func TestRunFallsBackWhenVisionUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		source pose.Source
		url    string
	}{
		{"detector error", pose.Static{}, "http://img/front.jpg"},
		{"no landmarks", pose.Static{pose.ViewFrontal: &pose.Result{View: pose.ViewFrontal}}, "http://img/front.jpg"},
		{"no image", pose.Static{pose.ViewFrontal: frontal()}, ""},
		{"no source", nil, "http://img/front.jpg"},
	}

	want := composition.ProportionalMeasurements(male.HeightM, male.Sex).Clamp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.source, composition.NewExtractor(composition.ModeCalibrated), &memStore{})

			out, err := svc.Run(context.Background(), Request{UserID: 1, Profile: male, FrontalImageURL: tt.url})
			require.NoError(t, err)
			assert.True(t, out.Fallback)
			assert.False(t, out.VisionUsed)
			assert.Equal(t, want, out.Result.Measurements)
		})
	}
}

func TestRunKeepsFrontalWhenLateralFails(t *testing.T) {
	ctx := context.Background()
	extractor := composition.NewExtractor(composition.ModeCalibrated)

	base, err := NewService(pose.Static{pose.ViewFrontal: frontal()}, extractor, &memStore{}).
		Run(ctx, Request{UserID: 1, Profile: male, FrontalImageURL: "http://img/front.jpg"})
	require.NoError(t, err)
	require.True(t, base.VisionUsed)

	// no lateral entry, so the lateral request fails
	out, err := NewService(pose.Static{pose.ViewFrontal: frontal()}, extractor, &memStore{}).
		Run(ctx, Request{UserID: 1, Profile: male, FrontalImageURL: "http://img/front.jpg", LateralImageURL: "http://img/side.jpg"})
	require.NoError(t, err)
	assert.True(t, out.VisionUsed)
	assert.False(t, out.Fallback)
	assert.Equal(t, base.Result.Measurements, out.Result.Measurements)
	assert.Equal(t, base.Result.Score, out.Result.Score)
}

func TestRunKeepsFrontalWhenSidecarRejectsLateral(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ImageURL string `json:"image_url"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.ImageURL == "http://img/side.jpg" {
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		f := frontal()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"image_width":  f.ImageWidth,
			"image_height": f.ImageHeight,
			"landmarks":    f.Landmarks,
		})
	}))
	defer srv.Close()

	want, err := NewService(pose.Static{pose.ViewFrontal: frontal()}, composition.NewExtractor(composition.ModeCalibrated), &memStore{}).
		Run(context.Background(), Request{UserID: 1, Profile: male, FrontalImageURL: "http://img/front.jpg"})
	require.NoError(t, err)

	svc := NewService(pose.NewHTTPSource(srv.URL, time.Second), composition.NewExtractor(composition.ModeCalibrated), &memStore{})
	out, err := svc.Run(context.Background(), Request{
		UserID:          1,
		Profile:         male,
		FrontalImageURL: "http://img/front.jpg",
		LateralImageURL: "http://img/side.jpg",
	})
	require.NoError(t, err)
	assert.True(t, out.VisionUsed)
	assert.False(t, out.Fallback)
	assert.True(t, out.Record.VisionUsed)
	assert.Equal(t, want.Result.Measurements, out.Result.Measurements)
	assert.NotEqual(t, composition.ProportionalMeasurements(male.HeightM, male.Sex).Clamp(), out.Result.Measurements)
}

func TestRunManualMeasurementsSkipVision(t *testing.T) {
	svc := NewService(failingSource{t}, composition.NewExtractor(composition.ModeCalibrated), &memStore{})

	m := manual
	out, err := svc.Run(context.Background(), Request{UserID: 1, Profile: male, Measurements: &m, FrontalImageURL: "x"})
	require.NoError(t, err)
	assert.Equal(t, manual, out.Result.Measurements)
	assert.False(t, out.Fallback)
}

func TestRunClampsMeasurements(t *testing.T) {
	svc := NewService(nil, composition.NewExtractor(composition.ModeCalibrated), &memStore{})

	m := manual.With(composition.KindWaist, 300)
	out, err := svc.Run(context.Background(), Request{UserID: 1, Profile: male, Measurements: &m})
	require.NoError(t, err)
	assert.Equal(t, 160.0, out.Result.Measurements.Waist)
	assert.Equal(t, 300.0, m.Waist, "input is not modified")
}

func TestRunValidationErrors(t *testing.T) {
	store := &memStore{}
	svc := NewService(nil, composition.NewExtractor(composition.ModeCalibrated), store)

	_, err := svc.Run(context.Background(), Request{UserID: 1, Profile: composition.Profile{HeightM: 1.7}})
	assert.True(t, composition.IsValidationError(err))

	m := manual.With(composition.KindHip, 0)
	_, err = svc.Run(context.Background(), Request{UserID: 1, Profile: male, Measurements: &m})
	require.Error(t, err)
	assert.True(t, composition.IsValidationError(err))
	assert.Contains(t, err.Error(), "Medida essencial ausente")

	assert.Equal(t, 0, store.count())
}

func TestRunPersistenceError(t *testing.T) {
	dbErr := errors.New("connection refused")
	pub := &recordingPublisher{}
	svc := NewService(nil, composition.NewExtractor(composition.ModeCalibrated), &memStore{insertErr: dbErr}, WithPublisher(pub))

	m := manual
	_, err := svc.Run(context.Background(), Request{UserID: 1, Profile: male, Measurements: &m})

	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "insert", pe.Op)
	assert.ErrorIs(t, err, dbErr)
	assert.Empty(t, pub.events)

	// guard released after failure
	_, err = svc.Run(context.Background(), Request{UserID: 1, Profile: male, Measurements: &m})
	assert.NotErrorIs(t, err, ErrAlreadyRunning)
}

func TestRunPublisherErrorIsNotFatal(t *testing.T) {
	pub := &recordingPublisher{err: events.ErrMailboxFull}
	svc := NewService(nil, composition.NewExtractor(composition.ModeCalibrated), &memStore{}, WithPublisher(pub))

	m := manual
	_, err := svc.Run(context.Background(), Request{UserID: 1, Profile: male, Measurements: &m})
	assert.NoError(t, err)
	assert.Len(t, pub.events, 1)
}

func TestRunSingleFlightPerUser(t *testing.T) {
	src := &blockingSource{entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(src, composition.NewExtractor(composition.ModeCalibrated), &memStore{})

	done := make(chan error, 1)
	go func() {
		_, err := svc.Run(context.Background(), Request{UserID: 7, Profile: male, FrontalImageURL: "x"})
		done <- err
	}()
	<-src.entered

	_, err := svc.Run(context.Background(), Request{UserID: 7, Profile: male, FrontalImageURL: "x"})
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	m := manual
	_, err = svc.Run(context.Background(), Request{UserID: 8, Profile: male, Measurements: &m})
	assert.NoError(t, err, "other users are not blocked")

	close(src.release)
	require.NoError(t, <-done)

	_, err = svc.Run(context.Background(), Request{UserID: 7, Profile: male, Measurements: &m})
	assert.NoError(t, err)
}

func TestRecompute(t *testing.T) {
	store := &memStore{}
	pub := &recordingPublisher{}
	svc := NewService(nil, composition.NewExtractor(composition.ModeCalibrated), store, WithPublisher(pub))

	m := manual
	first, err := svc.Run(context.Background(), Request{UserID: 1, Profile: male, Measurements: &m})
	require.NoError(t, err)

	edited := manual.With(composition.KindWaist, 100)
	out, err := svc.Recompute(context.Background(), first.Record.ID, Edit{Measurements: &edited})
	require.NoError(t, err)

	assert.NotEqual(t, first.Record.ID, out.Record.ID)
	assert.Equal(t, 100.0, out.Result.Measurements.Waist)
	assert.Equal(t, 1, store.count())

	_, err = store.GetByID(context.Background(), first.Record.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	latest, err := svc.Latest(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, out.Record.ID, latest.Record.ID)

	require.Len(t, pub.events, 2)
	assert.Equal(t, first.Record.ID, pub.events[1].Replaces)
}

func TestRecomputeKeepsNewRowWhenDeleteFails(t *testing.T) {
	store := &memStore{}
	svc := NewService(nil, composition.NewExtractor(composition.ModeCalibrated), store)

	m := manual
	first, err := svc.Run(context.Background(), Request{UserID: 1, Profile: male, Measurements: &m})
	require.NoError(t, err)

	store.deleteErr = errors.New("timeout")
	heavier := male
	heavier.WeightKg = 80
	out, err := svc.Recompute(context.Background(), first.Record.ID, Edit{Profile: &heavier})
	require.NoError(t, err)
	assert.Equal(t, 2, store.count())

	latest, err := svc.Latest(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, out.Record.ID, latest.Record.ID)
	assert.Equal(t, 80.0, latest.Result.Profile.WeightKg)
}

func TestRecomputeNotFound(t *testing.T) {
	svc := NewService(nil, composition.NewExtractor(composition.ModeCalibrated), &memStore{})
	_, err := svc.Recompute(context.Background(), "missing", Edit{})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLatestRebuildsResult(t *testing.T) {
	svc := NewService(nil, composition.NewExtractor(composition.ModeCalibrated), &memStore{})

	_, err := svc.Latest(context.Background(), 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	m := manual
	run, err := svc.Run(context.Background(), Request{UserID: 1, Profile: male, Measurements: &m})
	require.NoError(t, err)

	latest, err := svc.Latest(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, run.Result.Indices, latest.Result.Indices)
	assert.Equal(t, run.Result.Score, latest.Result.Score)
	assert.Equal(t, run.Result.Composition, latest.Result.Composition)
}

func TestDelete(t *testing.T) {
	store := &memStore{}
	svc := NewService(nil, composition.NewExtractor(composition.ModeCalibrated), store)

	m := manual
	run, err := svc.Run(context.Background(), Request{UserID: 1, Profile: male, Measurements: &m})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), run.Record.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), run.Record.ID), repository.ErrNotFound)
	assert.Equal(t, 0, store.count())
}
