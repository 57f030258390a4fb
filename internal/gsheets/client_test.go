package gsheets

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"grimaldi/internal/composition"
	"grimaldi/internal/repository"
)

type fakeSheets struct {
	mu       sync.Mutex
	calls    []string
	appended [][]interface{}
}

func (f *fakeSheets) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		path := r.URL.Path
		f.calls = append(f.calls, r.Method+" "+path)
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodPost && path == "/v4/spreadsheets":
			_, _ = w.Write([]byte(`{"spreadsheetId": "new-sheet"}`))
		case strings.HasSuffix(path, ":append"):
			var body struct {
				Values [][]interface{} `json:"values"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			f.appended = append(f.appended, body.Values...)
			_, _ = w.Write([]byte(`{}`))
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	}
}

func newTestClient(t *testing.T, f *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	c, err := NewClientWithOptions(context.Background(), "",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return c
}

type fakeProfiles struct {
	profile *repository.Profile
	setID   string
}

func (f *fakeProfiles) GetByUserID(_ context.Context, userID int64) (*repository.Profile, error) {
	if f.profile == nil || f.profile.UserID != userID {
		return nil, repository.ErrNotFound
	}
	p := *f.profile
	return &p, nil
}

func (f *fakeProfiles) SetSpreadsheetID(_ context.Context, _ int64, id string) error {
	f.setID = id
	return nil
}

func sampleRecord(t *testing.T) *repository.Record {
	t.Helper()
	p := &composition.Profile{HeightM: 1.68, WeightKg: 62, Age: 28, Sex: composition.SexFemale}
	m := &composition.Measurements{Arms: 28, Forearms: 23, Waist: 72, Hip: 98, Thighs: 56, Calves: 35}
	res, err := composition.AnalyzeComposition(m, p)
	require.NoError(t, err)

	rec := repository.RecordFromResult(3, res)
	rec.CreatedAt = time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	rec.VisionUsed = true
	return rec
}

func TestAnalysisRow(t *testing.T) {
	rec := sampleRecord(t)
	row := AnalysisRow(rec.Result(), rec.CreatedAt, true)

	require.Len(t, row, len(analysisHeaders))
	assert.Equal(t, "01/03/2026 10:30", row[0])
	assert.Equal(t, rec.Score, row[1])
	assert.Equal(t, 72.0, row[10])
	assert.Equal(t, "sim", row[len(row)-1])
}

func TestSyncAppendsToExistingSheet(t *testing.T) {
	f := &fakeSheets{}
	profiles := &fakeProfiles{profile: &repository.Profile{
		UserID:        3,
		Name:          "Ana",
		SpreadsheetID: sql.NullString{String: "existing", Valid: true},
	}}
	s := NewSyncer(newTestClient(t, f), profiles)

	require.NoError(t, s.SyncAnalysis(context.Background(), sampleRecord(t)))

	require.Len(t, f.appended, 1)
	assert.Equal(t, "01/03/2026 10:30", f.appended[0][0])
	assert.Empty(t, profiles.setID)
	for _, c := range f.calls {
		assert.NotEqual(t, "POST /v4/spreadsheets", c)
	}
}

func TestSyncCreatesSheetOnFirstAnalysis(t *testing.T) {
	f := &fakeSheets{}
	profiles := &fakeProfiles{profile: &repository.Profile{
		UserID: 3, Name: "Ana", HeightM: 1.68, WeightKg: 62, Age: 28, Sex: "F",
	}}
	s := NewSyncer(newTestClient(t, f), profiles)

	require.NoError(t, s.SyncAnalysis(context.Background(), sampleRecord(t)))

	assert.Equal(t, "new-sheet", profiles.setID)
	assert.Contains(t, f.calls, "POST /v4/spreadsheets")
	assert.Len(t, f.appended, 1)
}

func TestSyncUnknownProfile(t *testing.T) {
	s := NewSyncer(newTestClient(t, &fakeSheets{}), &fakeProfiles{})
	err := s.SyncAnalysis(context.Background(), sampleRecord(t))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGetSpreadsheetURL(t *testing.T) {
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/abc", GetSpreadsheetURL("abc"))
}
