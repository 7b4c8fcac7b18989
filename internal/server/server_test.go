package server

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-poker-stats/internal/engine"
	"github.com/pable/go-poker-stats/internal/storage"
)

func pokerLog(entries ...string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"entry", "at", "order"})
	for i := len(entries) - 1; i >= 0; i-- {
		w.Write([]string{entries[i], "2024-01-01T00:00:00.000Z", strconv.Itoa(1000 + i)})
	}
	w.Flush()
	return buf.Bytes()
}

var goodLog = pokerLog(
	`-- starting hand #1 (id: s1) No Limit Texas Hold'em (dealer: "Bob @ b2") --`,
	`Player stacks: #1 "Alice @ a1" (1000) | #2 "Bob @ b2" (1000)`,
	`"Bob @ b2" posts a small blind of 10`,
	`"Alice @ a1" posts a big blind of 20`,
	`"Bob @ b2" raises to 60`,
	`"Alice @ a1" folds`,
	`"Bob @ b2" collected 40 from pot`,
	`-- ending hand #1 --`,
)

type testServer struct {
	*Server
	db *storage.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := New(Config{
		Port:           0,
		Log:            zerolog.Nop(),
		Engine:         engine.New(engine.Options{Log: zerolog.Nop()}),
		Archive:        db,
		MergeThreshold: 0.8,
		DevMode:        true,
	})
	return &testServer{Server: s, db: db}
}

func (s *testServer) do(t *testing.T, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func (s *testServer) upload(t *testing.T, files map[string][]byte, order ...string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range order {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		fw.Write(files[name])
	}
	require.NoError(t, mw.Close())
	return s.do(t, http.MethodPost, "/upload", body.Bytes(), mw.FormDataContentType())
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
}

func TestUpload_PerFileStatus(t *testing.T) {
	s := newTestServer(t)
	rec := s.upload(t, map[string][]byte{
		"good.csv": goodLog,
		"bad.csv":  []byte("nonsense\n"),
	}, "good.csv", "bad.csv")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Message string         `json:"message"`
		Details []uploadDetail `json:"details"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Details, 2)

	good, bad := body.Details[0], body.Details[1]
	assert.Equal(t, "good.csv", good.Filename)
	assert.Equal(t, "success", good.Status)
	assert.Equal(t, 1, good.HandsCount)
	assert.NotEmpty(t, good.UploadID)

	assert.Equal(t, "bad.csv", bad.Filename)
	assert.Equal(t, "error", bad.Status)
	assert.Contains(t, bad.Error, "missing entry column")

	uploads, err := s.db.ListUploads()
	require.NoError(t, err)
	require.Len(t, uploads, 2)
	statuses := map[string]string{}
	for _, u := range uploads {
		statuses[u.Filename] = u.Status
	}
	assert.Equal(t, storage.StatusSuccess, statuses["good.csv"])
	assert.Equal(t, storage.StatusError, statuses["bad.csv"])
}

// failingArchive stores the first n uploads and rejects the rest.
type failingArchive struct {
	*storage.DB
	n int
}

func (a *failingArchive) InsertUpload(filename string, content []byte) (string, error) {
	if a.n == 0 {
		return "", errors.New("disk full")
	}
	a.n--
	return a.DB.InsertUpload(filename, content)
}

func TestUpload_ArchiveFailureLeavesNothingPending(t *testing.T) {
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	eng := engine.New(engine.Options{Log: zerolog.Nop()})
	s := &testServer{Server: New(Config{
		Log:            zerolog.Nop(),
		Engine:         eng,
		Archive:        &failingArchive{DB: db, n: 1},
		MergeThreshold: 0.8,
		MaxUploadBytes: 1 << 20,
		DevMode:        true,
	}), db: db}

	rec := s.upload(t, map[string][]byte{"a.csv": goodLog, "b.csv": goodLog}, "a.csv", "b.csv")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	uploads, err := db.ListUploads()
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, "a.csv", uploads[0].Filename)
	assert.Equal(t, storage.StatusError, uploads[0].Status)
	assert.Contains(t, uploads[0].Error, "disk full")
	assert.Zero(t, eng.Hands())
}

func TestUpload_NoFiles(t *testing.T) {
	s := newTestServer(t)
	rec := s.upload(t, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/upload", []byte("{}"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsAndPlayer(t *testing.T) {
	s := newTestServer(t)
	s.upload(t, map[string][]byte{"good.csv": goodLog}, "good.csv")

	rec := s.do(t, http.MethodGet, "/stats", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]any
	decode(t, rec, &rows)
	require.Len(t, rows, 2)
	assert.Equal(t, "a1", rows[0]["id"])
	assert.Equal(t, 100.0, rows[1]["pfr"])
	assert.Contains(t, rows[1], "position_stats")

	rec = s.do(t, http.MethodGet, "/player/b2", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var row map[string]any
	decode(t, rec, &row)
	assert.Equal(t, "Bob", row["name"])

	rec = s.do(t, http.MethodGet, "/player/nobody", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMapping(t *testing.T) {
	s := newTestServer(t)
	s.upload(t, map[string][]byte{"good.csv": goodLog}, "good.csv")

	rec := s.do(t, http.MethodPost, "/mapping", []byte(`{"player_id":"a1","alias":"Queen"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/players", nil, "")
	var players []map[string]any
	decode(t, rec, &players)
	require.Len(t, players, 2)
	assert.Equal(t, "Queen", players[0]["current_alias"])
	assert.Equal(t, "Alice", players[0]["original_name"])
	assert.Equal(t, "", players[1]["current_alias"])

	rec = s.do(t, http.MethodPost, "/mapping", []byte(`{"player_id":"zz","alias":"Q"}`), "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodPost, "/mapping", []byte(`{"alias":"Q"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodPost, "/mapping", []byte(`not json`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBulkMapping_PartialFailure(t *testing.T) {
	s := newTestServer(t)
	s.upload(t, map[string][]byte{"good.csv": goodLog}, "good.csv")

	rec := s.do(t, http.MethodPost, "/mapping/bulk",
		[]byte(`{"mappings":[{"player_id":"a1","alias":"A"},{"player_id":"ghost","alias":"G"},{"player_id":"b2","alias":"B"}]}`),
		"application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Updated int          `json:"updated"`
		Results []bulkResult `json:"results"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 2, body.Updated)
	require.Len(t, body.Results, 3)
	assert.Equal(t, "ok", body.Results[0].Status)
	assert.Equal(t, "error", body.Results[1].Status)
	assert.Contains(t, body.Results[1].Error, "ghost")
	assert.Equal(t, "ok", body.Results[2].Status)
}

func TestMergeSuggestions(t *testing.T) {
	s := newTestServer(t)
	s.upload(t, map[string][]byte{"good.csv": goodLog}, "good.csv")

	rec := s.do(t, http.MethodGet, "/merge-suggestions", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, 0.8, body["threshold"])
	assert.Equal(t, []any{}, body["groups"])

	rec = s.do(t, http.MethodGet, "/merge-suggestions?threshold=0", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	assert.Len(t, body["groups"], 1)

	for _, q := range []string{"1.5", "-1", "abc"} {
		rec = s.do(t, http.MethodGet, "/merge-suggestions?threshold="+q, nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestExport(t *testing.T) {
	s := newTestServer(t)
	s.upload(t, map[string][]byte{"good.csv": goodLog}, "good.csv")

	rec := s.do(t, http.MethodGet, "/export", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], `"Alice","a1",1,`))
	assert.Len(t, strings.Split(lines[2], ","), 16)
}

func TestResetClearsEngineAndArchive(t *testing.T) {
	s := newTestServer(t)
	s.upload(t, map[string][]byte{"good.csv": goodLog}, "good.csv")

	rec := s.do(t, http.MethodPost, "/reset", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, 1.0, body["uploads_cleared"])

	rec = s.do(t, http.MethodGet, "/stats", nil, "")
	assert.JSONEq(t, "[]", rec.Body.String())
	rec = s.do(t, http.MethodGet, "/uploads", nil, "")
	assert.JSONEq(t, "[]", rec.Body.String())
	rec = s.do(t, http.MethodGet, "/player/a1", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWithoutArchive(t *testing.T) {
	s := New(Config{Log: zerolog.Nop(), Engine: engine.New(engine.Options{Log: zerolog.Nop()}), DevMode: true})
	ts := &testServer{Server: s}

	rec := ts.upload(t, map[string][]byte{"good.csv": goodLog}, "good.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodGet, "/uploads", nil, "")
	assert.JSONEq(t, "[]", rec.Body.String())
	rec = ts.do(t, http.MethodPost, "/reset", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
