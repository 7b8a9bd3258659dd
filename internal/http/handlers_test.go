package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"weather-forecast-service/internal/config"
	"weather-forecast-service/internal/db"
	"weather-forecast-service/internal/forecast"
	"weather-forecast-service/internal/models"
)

type fakeService struct {
	resp    models.ForecastResponse
	err     error
	lastReq models.ForecastRequest
	calls   int
}

func (f *fakeService) GetForecast(ctx context.Context, req models.ForecastRequest) (models.ForecastResponse, error) {
	f.calls++
	f.lastReq = req
	return f.resp, f.err
}

type fakeStore struct {
	locations []models.Location
	snapshots []models.ForecastSnapshot
	err       error

	deletedLocations []int64
	deletedSnapshots []int64
}

func (f *fakeStore) ListLocations(ctx context.Context) ([]models.Location, error) {
	return f.locations, f.err
}

func (f *fakeStore) GetLocation(ctx context.Context, id int64) (models.Location, error) {
	if f.err != nil {
		return models.Location{}, f.err
	}
	for _, l := range f.locations {
		if l.ID == id {
			return l, nil
		}
	}
	return models.Location{}, db.ErrNotFound
}

func (f *fakeStore) DeleteLocation(ctx context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	for _, l := range f.locations {
		if l.ID == id {
			f.deletedLocations = append(f.deletedLocations, id)
			return nil
		}
	}
	return db.ErrNotFound
}

func (f *fakeStore) ListSnapshotsByLocation(ctx context.Context, locationID int64) ([]models.ForecastSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.ForecastSnapshot, 0)
	for _, s := range f.snapshots {
		if s.LocationID == locationID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) LatestSnapshot(ctx context.Context, locationID int64) (models.ForecastSnapshot, error) {
	if f.err != nil {
		return models.ForecastSnapshot{}, f.err
	}
	for _, s := range f.snapshots {
		if s.LocationID == locationID {
			return s, nil
		}
	}
	return models.ForecastSnapshot{}, db.ErrNotFound
}

func (f *fakeStore) GetSnapshot(ctx context.Context, id int64) (models.ForecastSnapshot, error) {
	if f.err != nil {
		return models.ForecastSnapshot{}, f.err
	}
	for _, s := range f.snapshots {
		if s.ID == id {
			return s, nil
		}
	}
	return models.ForecastSnapshot{}, db.ErrNotFound
}

func (f *fakeStore) DeleteSnapshot(ctx context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	for _, s := range f.snapshots {
		if s.ID == id {
			f.deletedSnapshots = append(f.deletedSnapshots, id)
			return nil
		}
	}
	return db.ErrNotFound
}

func (f *fakeStore) DeleteSnapshotsByLocation(ctx context.Context, locationID int64) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for _, s := range f.snapshots {
		if s.LocationID == locationID {
			n++
		}
	}
	return n, nil
}

func newTestServer(svc ForecastService, store Store) *Server {
	return New(config.Config{}, svc, store, zap.NewNop())
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func TestHandleGetForecastHappyPath(t *testing.T) {
	svc := &fakeService{
		resp: models.ForecastResponse{
			Latitude:   52.52,
			Longitude:  13.41,
			LocationID: 1,
			SnapshotID: 9,
			Observations: []models.Observation{
				{SeriesKind: models.SeriesDaily, Variable: "temperature_2m_max", Time: "2025-10-29", Value: "22.5"},
			},
		},
	}
	srv := newTestServer(svc, &fakeStore{})

	rec := doRequest(t, srv, http.MethodPost, "/v1/forecast", `{"latitude": 52.52, "longitude": 13.41}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	var resp models.ForecastResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SnapshotID != 9 || len(resp.Observations) != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if svc.lastReq.Latitude != 52.52 || svc.lastReq.Longitude != 13.41 {
		t.Errorf("request not forwarded: %+v", svc.lastReq)
	}
}

func TestHandleGetForecastValidation(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantMessage string
	}{
		{
			name:        "latitude out of range",
			body:        `{"latitude": 91, "longitude": 0}`,
			wantMessage: "latitude must be between -90 and 90",
		},
		{
			name:        "longitude out of range",
			body:        `{"latitude": 0, "longitude": -181}`,
			wantMessage: "longitude must be between -180 and 180",
		},
		{
			name:        "dates out of order",
			body:        `{"latitude": 0, "longitude": 0, "start_date": "2025-11-01", "end_date": "2025-10-01"}`,
			wantMessage: "start_date must be less than or equal to end_date",
		},
		{
			name:        "bad forecast days",
			body:        `{"latitude": 0, "longitude": 0, "forecast_days": -1}`,
			wantMessage: "forecast_days must be greater than 0",
		},
		{
			name:        "multiple failures reported together",
			body:        `{"latitude": 91, "longitude": 181}`,
			wantMessage: "latitude must be between -90 and 90; longitude must be between -180 and 180",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{}
			srv := newTestServer(svc, &fakeStore{})

			rec := doRequest(t, srv, http.MethodPost, "/v1/forecast", tc.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want 400", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tc.wantMessage) {
				t.Errorf("body %s does not contain %q", rec.Body.String(), tc.wantMessage)
			}
			if svc.calls != 0 {
				t.Error("pipeline must not run for an invalid request")
			}
		})
	}
}

func TestHandleGetForecastMalformedBody(t *testing.T) {
	srv := newTestServer(&fakeService{}, &fakeStore{})

	rec := doRequest(t, srv, http.MethodPost, "/v1/forecast", `{"latitude": "not a number"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}

func TestHandleGetForecastErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "provider failure maps to bad gateway",
			err:        forecast.ErrProvider,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "persistence failure maps to internal error",
			err:        errors.New("insert snapshot: disk full"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(&fakeService{err: tc.err}, &fakeStore{})

			rec := doRequest(t, srv, http.MethodPost, "/v1/forecast", `{"latitude": 1, "longitude": 2}`)

			if rec.Code != tc.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}

func TestLocationEndpoints(t *testing.T) {
	store := &fakeStore{
		locations: []models.Location{{ID: 1, Latitude: 52.52, Longitude: 13.41}},
	}
	srv := newTestServer(&fakeService{}, store)

	rec := doRequest(t, srv, http.MethodGet, "/v1/locations", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"count":1`) {
		t.Errorf("list: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodGet, "/v1/locations/1", "")
	if rec.Code != http.StatusOK {
		t.Errorf("get: status %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/v1/locations/99", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get missing: status %d, want 404", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/v1/locations/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: status %d, want 400", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodDelete, "/v1/locations/1", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete: status %d, want 204", rec.Code)
	}
	if len(store.deletedLocations) != 1 || store.deletedLocations[0] != 1 {
		t.Errorf("delete not forwarded: %v", store.deletedLocations)
	}
}

func TestSnapshotEndpoints(t *testing.T) {
	store := &fakeStore{
		snapshots: []models.ForecastSnapshot{
			{ID: 9, LocationID: 1},
			{ID: 10, LocationID: 1},
		},
	}
	srv := newTestServer(&fakeService{}, store)

	rec := doRequest(t, srv, http.MethodGet, "/v1/locations/1/snapshots", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"count":2`) {
		t.Errorf("list: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodGet, "/v1/locations/1/snapshots/latest", "")
	if rec.Code != http.StatusOK {
		t.Errorf("latest: status %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/v1/locations/2/snapshots/latest", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("latest missing: status %d, want 404", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/v1/snapshots/9", "")
	if rec.Code != http.StatusOK {
		t.Errorf("get: status %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodDelete, "/v1/snapshots/9", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete: status %d, want 204", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodDelete, "/v1/locations/1/snapshots", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"deleted":2`) {
		t.Errorf("delete by location: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestSnapshotResponseEmbedsRawSeriesAsJSON(t *testing.T) {
	store := &fakeStore{
		snapshots: []models.ForecastSnapshot{
			{
				ID:             9,
				LocationID:     1,
				DailySeriesRaw: json.RawMessage(`[{"series_kind":"daily","variable":"temperature_2m_max","time":"2025-10-29","value":"22.5"}]`),
			},
		},
	}
	srv := newTestServer(&fakeService{}, store)

	rec := doRequest(t, srv, http.MethodGet, "/v1/snapshots/9", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"daily_series_raw":[{`) {
		t.Errorf("raw series should be embedded JSON, not base64: %s", rec.Body.String())
	}

	var snap models.ForecastSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	var series []models.Observation
	if err := json.Unmarshal(snap.DailySeriesRaw, &series); err != nil {
		t.Fatalf("raw series does not round-trip as JSON: %v", err)
	}
	if len(series) != 1 || series[0].Value != "22.5" {
		t.Errorf("unexpected series content: %+v", series)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&fakeService{}, &fakeStore{})

	rec := doRequest(t, srv, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d", rec.Code)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	srv := newTestServer(&fakeService{}, &fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID: got %q, want abc-123", got)
	}
}
