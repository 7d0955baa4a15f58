package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"LectureBot/entity"
	"LectureBot/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCore struct {
	lectures []entity.Lecture
	filter   entity.LectureFilter
	added    []string
	setups   []entity.SectionSetup
	deleted  []string
}

func (f *fakeCore) AuthenticateByToken(token string) (*entity.UserAuth, error) {
	if token != "secret" {
		return nil, errors.New("invalid token")
	}
	return &entity.UserAuth{Username: "admin"}, nil
}

func (f *fakeCore) ValidateToken(token string) (string, error) {
	user, err := f.AuthenticateByToken(token)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

func (f *fakeCore) Connected() bool { return true }

func (f *fakeCore) ListLectures(_ context.Context, filter entity.LectureFilter) ([]entity.Lecture, error) {
	f.filter = filter
	return f.lectures, nil
}

func (f *fakeCore) ExportLectures(context.Context, entity.LectureFilter) ([]byte, error) {
	return []byte("%PDF-1.3 fake"), nil
}

func (f *fakeCore) DeleteLecture(_ context.Context, id string) error {
	if id == "missing" {
		return storage.ErrNotFound
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeCore) ListEntities(context.Context, entity.TaxonomyKind) ([]entity.Entity, error) {
	return []entity.Entity{{ID: "s1", Name: "Science"}}, nil
}

func (f *fakeCore) AddEntity(_ context.Context, kind entity.TaxonomyKind, name, parentID string) (*entity.Entity, error) {
	f.added = append(f.added, string(kind)+":"+name+":"+parentID)
	return &entity.Entity{ID: "new", Name: name, ParentID: parentID}, nil
}

func (f *fakeCore) GroupStats(_ context.Context, groupID string) (*entity.GroupStats, error) {
	return &entity.GroupStats{GroupID: groupID, TotalMessages: 3}, nil
}

func (f *fakeCore) ListBlacklist(context.Context) ([]string, error) { return []string{"966500000001"}, nil }

func (f *fakeCore) AddToBlacklist(context.Context, string) error { return nil }

func (f *fakeCore) RemoveFromBlacklist(context.Context, string) error { return storage.ErrNotFound }

func (f *fakeCore) SetupSection(_ context.Context, tree entity.SectionSetup) (*entity.SetupResult, error) {
	f.setups = append(f.setups, tree)
	return &entity.SetupResult{Section: entity.Entity{ID: "s1", Name: tree.Name, FolderStatus: entity.FolderCommitted}}, nil
}

func (f *fakeCore) PendingSections(context.Context) ([]entity.Entity, error) { return nil, nil }

type envelope struct {
	Success       bool            `json:"success"`
	StatusMessage string          `json:"status_message"`
	Data          json.RawMessage `json:"data"`
}

func do(t *testing.T, h http.Handler, method, target, body string, auth bool) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer secret")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func newRouter(core *fakeCore) http.Handler {
	return NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), core, nil, nil)
}

func TestHealth_NoAuth(t *testing.T) {
	rec, env := do(t, newRouter(&fakeCore{}), http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"status":"ok","connected":true}`, string(env.Data))
}

func TestAPI_RequiresToken(t *testing.T) {
	h := newRouter(&fakeCore{})

	rec, env := do(t, h, http.MethodGet, "/api/v1/lectures", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/lectures", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListLectures_PassesFilter(t *testing.T) {
	core := &fakeCore{lectures: []entity.Lecture{{ID: "l1", SubjectName: "Math"}}}

	rec, env := do(t, newRouter(core), http.MethodGet, "/api/v1/lectures?type=summary&subject_id=m1&q=alg", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, entity.LectureFilter{Type: entity.LectureTypeSummary, SubjectID: "m1", Query: "alg"}, core.filter)

	var lectures []entity.Lecture
	require.NoError(t, json.Unmarshal(env.Data, &lectures))
	assert.Equal(t, "l1", lectures[0].ID)
}

func TestExportLectures(t *testing.T) {
	rec, _ := do(t, newRouter(&fakeCore{}), http.MethodGet, "/api/v1/lectures/export", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}

func TestDeleteLecture(t *testing.T) {
	core := &fakeCore{}
	h := newRouter(core)

	rec, _ := do(t, h, http.MethodDelete, "/api/v1/lectures/l1", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"l1"}, core.deleted)

	rec, env := do(t, h, http.MethodDelete, "/api/v1/lectures/missing", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
}

func TestTaxonomy(t *testing.T) {
	core := &fakeCore{}
	h := newRouter(core)

	rec, env := do(t, h, http.MethodGet, "/api/v1/taxonomy/planet", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)

	rec, _ = do(t, h, http.MethodPost, "/api/v1/taxonomy/class", `{"parent_id":"s1"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, core.added)

	rec, env = do(t, h, http.MethodPost, "/api/v1/taxonomy/class", `{"name":"First","parent_id":"s1"}`, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, []string{"class:First:s1"}, core.added)
}

func TestSectionSetup(t *testing.T) {
	core := &fakeCore{}
	h := newRouter(core)

	rec, _ := do(t, h, http.MethodPost, "/api/v1/sections/setup", `{"classes":[{"name":"First"}]}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := `{"name":"Science","professors":["Dr. A"],"classes":[{"name":"First","subjects":["Math"],"groups":["G1"]}]}`
	rec, env := do(t, h, http.MethodPost, "/api/v1/sections/setup", body, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	require.Len(t, core.setups, 1)
	assert.Equal(t, "Science", core.setups[0].Name)
	assert.Equal(t, []string{"Math"}, core.setups[0].Classes[0].Subjects)
}

func TestBlacklistAndStats(t *testing.T) {
	h := newRouter(&fakeCore{})

	_, env := do(t, h, http.MethodGet, "/api/v1/blacklist", "", true)
	assert.JSONEq(t, `["966500000001"]`, string(env.Data))

	rec, _ := do(t, h, http.MethodPost, "/api/v1/blacklist", `{}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, http.MethodDelete, "/api/v1/blacklist/966500000002", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, env = do(t, h, http.MethodGet, "/api/v1/stats/group1@g.us", "", true)
	assert.JSONEq(t, `{"group_id":"group1@g.us","joins":null,"leaves":null,"messages":null,"total_messages":3}`, string(env.Data))
}

func TestNotFound(t *testing.T) {
	rec, env := do(t, newRouter(&fakeCore{}), http.MethodGet, "/nope", "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
}
