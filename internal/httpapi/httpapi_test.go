package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"dogloot/server/geometry"
	"dogloot/server/internal/app"
	"dogloot/server/internal/persistence"
	"dogloot/server/internal/players"
	"dogloot/server/internal/records"
	"dogloot/server/internal/registry"
	"dogloot/server/internal/strand"
	"dogloot/server/session"
	"dogloot/server/worldmap"
)

// fakeUnitOfWorkFactory is an in-memory stand-in for persistence.PostgresFactory,
// since httpapi's tests exercise the HTTP surface, not a live database.
type fakeUnitOfWorkFactory struct {
	mu      sync.Mutex
	players []records.RetiredPlayer
}

func (f *fakeUnitOfWorkFactory) Create(ctx context.Context) (persistence.UnitOfWork, error) {
	return fakeUnitOfWork{factory: f}, nil
}

func (f *fakeUnitOfWorkFactory) Close() {}

type fakeUnitOfWork struct {
	factory *fakeUnitOfWorkFactory
}

func (u fakeUnitOfWork) PlayerRepository() records.Repository { return fakeRepo{factory: u.factory} }
func (u fakeUnitOfWork) Commit(ctx context.Context) error      { return nil }
func (u fakeUnitOfWork) Rollback(ctx context.Context) error    { return nil }

type fakeRepo struct {
	factory *fakeUnitOfWorkFactory
}

func (r fakeRepo) Save(ctx context.Context, p records.RetiredPlayer) error {
	r.factory.mu.Lock()
	defer r.factory.mu.Unlock()
	r.factory.players = append(r.factory.players, p)
	return nil
}

func (r fakeRepo) List(ctx context.Context, offset, limit int) ([]records.RetiredPlayer, error) {
	r.factory.mu.Lock()
	defer r.factory.mu.Unlock()
	out := append([]records.RetiredPlayer(nil), r.factory.players...)
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func newTestServer(t *testing.T) (http.Handler, *app.Application) {
	t.Helper()
	m, err := worldmap.New(worldmap.Config{
		ID:        "map1",
		Name:      "Test Map",
		Roads:     []geometry.Road{geometry.NewHorizontalRoad(0, 10, 0)},
		LootTypes: []worldmap.LootType{{Worth: 10}},
	}, 3, 3)
	if err != nil {
		t.Fatalf("worldmap.New: %v", err)
	}

	playerReg := players.New()
	strandInstance := strand.New(64)
	t.Cleanup(strandInstance.Close)

	application := app.New(app.Config{
		Players:        playerReg,
		Strand:         strandInstance,
		ManualTickMode: true,
	})
	reg := registry.New(registry.Config{
		Maps:        []*worldmap.Map{m},
		SpawnPolicy: session.SpawnAtOrigin,
		RetireAfter: 60 * time.Second,
	})
	application.SetRegistry(reg)

	mux := NewMux(Config{Application: application, WWWRoot: t.TempDir()})
	return mux, application
}

func doJSON(t *testing.T, mux http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestMapListAndDetail(t *testing.T) {
	mux, _ := newTestServer(t)

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/maps", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("maps: status = %d, want 200", rec.Code)
	}
	var summaries []mapSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("decode maps: %v", err)
	}
	if len(summaries) != 1 || summaries[0].ID != "map1" {
		t.Fatalf("unexpected map list: %+v", summaries)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/maps/map1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("map detail: status = %d, want 200", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/maps/nowhere", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown map: status = %d, want 404", rec.Code)
	}
}

func TestJoinAndPolling(t *testing.T) {
	mux, _ := newTestServer(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/game/join", "", joinRequest{UserName: "fido", MapID: "map1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("join: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var joined joinResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &joined); err != nil {
		t.Fatalf("decode join response: %v", err)
	}
	if joined.AuthToken == "" {
		t.Fatalf("join: expected a non-empty auth token")
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/game/players", joined.AuthToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("players: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/v1/game/player/action", joined.AuthToken, actionRequest{Move: "R"})
	if rec.Code != http.StatusOK {
		t.Fatalf("action: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/v1/game/tick", "", tickRequest{TimeDelta: 1000})
	if rec.Code != http.StatusOK {
		t.Fatalf("tick: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/game/state", joined.AuthToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("state: status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestJoinRejectsMalformedBody(t *testing.T) {
	mux, _ := newTestServer(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/game/join", "", joinRequest{UserName: "", MapID: "map1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty userName: status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/v1/game/join", "", joinRequest{UserName: "fido", MapID: "nowhere"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown map: status = %d, want 404", rec.Code)
	}
}

func TestAuthenticationErrors(t *testing.T) {
	mux, _ := newTestServer(t)

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/game/players", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/game/players", "not-32-hex-chars", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("malformed token: status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/game/players", "abcdefabcdefabcdabcdefabcdefabcd", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unregistered token: status = %d, want 401", rec.Code)
	}
}

func TestMethodNotAllowedSetsAllowHeader(t *testing.T) {
	mux, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/maps", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if rec.Header().Get("Allow") == "" {
		t.Fatalf("expected an Allow header on 405")
	}
}

func TestRecordsEndpoint(t *testing.T) {
	m, err := worldmap.New(worldmap.Config{
		ID:    "map1",
		Roads: []geometry.Road{geometry.NewHorizontalRoad(0, 10, 0)},
	}, 3, 3)
	if err != nil {
		t.Fatalf("worldmap.New: %v", err)
	}
	strandInstance := strand.New(64)
	t.Cleanup(strandInstance.Close)

	uowFactory := &fakeUnitOfWorkFactory{players: []records.RetiredPlayer{
		records.NewRetiredPlayer("fido", 30, 2*time.Minute),
		records.NewRetiredPlayer("rex", 90, time.Minute),
	}}

	application := app.New(app.Config{
		Players:           players.New(),
		UnitOfWorkFactory: uowFactory,
		Strand:            strandInstance,
		ManualTickMode:    true,
	})
	reg := registry.New(registry.Config{Maps: []*worldmap.Map{m}})
	application.SetRegistry(reg)

	mux := NewMux(Config{Application: application, WWWRoot: t.TempDir()})
	rec := doJSON(t, mux, http.MethodGet, "/api/v1/game/records", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("records: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var views []recordView
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode records: %v", err)
	}
	if len(views) != 2 || views[0].Name != "rex" {
		t.Fatalf("expected rex first by descending score, got %+v", views)
	}
}

func TestTickForbiddenOutsideManualMode(t *testing.T) {
	m, err := worldmap.New(worldmap.Config{
		ID:    "map1",
		Roads: []geometry.Road{geometry.NewHorizontalRoad(0, 10, 0)},
	}, 3, 3)
	if err != nil {
		t.Fatalf("worldmap.New: %v", err)
	}
	strandInstance := strand.New(64)
	t.Cleanup(strandInstance.Close)
	application := app.New(app.Config{
		Players:        players.New(),
		Strand:         strandInstance,
		ManualTickMode: false,
	})
	reg := registry.New(registry.Config{Maps: []*worldmap.Map{m}})
	application.SetRegistry(reg)

	mux := NewMux(Config{Application: application, WWWRoot: t.TempDir()})
	rec := doJSON(t, mux, http.MethodPost, "/api/v1/game/tick", "", tickRequest{TimeDelta: 100})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("tick in server-driven mode: status = %d, want 400", rec.Code)
	}
}
