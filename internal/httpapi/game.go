package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/iancoleman/orderedmap"

	"dogloot/server/internal/app"
	"dogloot/server/session"
)

type joinRequest struct {
	UserName string `json:"userName"`
	MapID    string `json:"mapId"`
}

type joinResponse struct {
	AuthToken string `json:"authToken"`
	PlayerID  uint64 `json:"playerId"`
}

func (s *server) handleJoin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	if req.UserName == "" || req.MapID == "" {
		badRequest(w, "userName and mapId are required")
		return
	}

	token, dogID, err := s.app.JoinPlayer(r.Context(), req.MapID, req.UserName)
	if err != nil {
		s.writeUseCaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, r.Method, joinResponse{AuthToken: token, PlayerID: dogID})
}

func (s *server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}
	token, ok := bearerToken(r)
	if !ok {
		writeInvalidToken(w)
		return
	}
	summaries, err := s.app.GetPlayers(r.Context(), token)
	if err != nil {
		s.writeUseCaseError(w, r, err)
		return
	}

	players := orderedmap.New()
	for _, p := range summaries {
		entry := orderedmap.New()
		entry.Set("name", p.Name)
		players.Set(strconv.FormatUint(p.DogID, 10), entry)
	}
	writeJSON(w, http.StatusOK, r.Method, players)
}

func (s *server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}
	token, ok := bearerToken(r)
	if !ok {
		writeInvalidToken(w)
		return
	}
	state, err := s.app.GetGameState(r.Context(), token)
	if err != nil {
		s.writeUseCaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, r.Method, gameStateView(state))
}

// gameStateView renders app.GameState into the wire shape §6 specifies:
// players and lostObjects keyed by their numeric-string id, with
// insertion-ordered keys so repeated polls diff cleanly.
func gameStateView(state app.GameState) *orderedmap.OrderedMap {
	root := orderedmap.New()

	players := orderedmap.New()
	for _, p := range state.Players {
		entry := orderedmap.New()
		entry.Set("pos", []float64{p.Position[0], p.Position[1]})
		entry.Set("speed", []float64{p.Velocity[0], p.Velocity[1]})
		entry.Set("dir", p.Direction)
		bag := make([]orderedmap.OrderedMap, 0, len(p.Bag))
		for _, item := range p.Bag {
			b := orderedmap.New()
			b.Set("id", item.ID)
			b.Set("type", item.Type)
			bag = append(bag, *b)
		}
		entry.Set("bag", bag)
		entry.Set("score", p.Score)
		players.Set(strconv.FormatUint(p.DogID, 10), entry)
	}
	root.Set("players", players)

	lost := orderedmap.New()
	for _, item := range state.Loot {
		entry := orderedmap.New()
		entry.Set("type", item.Type)
		entry.Set("pos", []float64{item.Position[0], item.Position[1]})
		lost.Set(strconv.FormatUint(item.LootID, 10), entry)
	}
	root.Set("lostObjects", lost)

	return root
}

type actionRequest struct {
	Move string `json:"move"`
}

func (s *server) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	token, ok := bearerToken(r)
	if !ok {
		writeInvalidToken(w)
		return
	}
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "malformed request body")
		return
	}

	if req.Move == "" {
		if err := s.app.StopPlayer(r.Context(), token); err != nil {
			s.writeUseCaseError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, r.Method, struct{}{})
		return
	}

	dir, ok := session.ParseDirection(req.Move)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalidArgument", "invalid move direction")
		return
	}
	if err := s.app.MovePlayer(r.Context(), token, dir); err != nil {
		s.writeUseCaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, r.Method, struct{}{})
}

type tickRequest struct {
	TimeDelta int `json:"timeDelta"`
}

func (s *server) handleTick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req tickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	if req.TimeDelta < 0 {
		badRequest(w, "timeDelta must be non-negative")
		return
	}
	dt := time.Duration(req.TimeDelta) * time.Millisecond
	if err := s.app.TimeTick(r.Context(), dt); err != nil {
		s.writeUseCaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, r.Method, struct{}{})
}

type recordView struct {
	Name     string  `json:"name"`
	Score    int     `json:"score"`
	PlayTime float64 `json:"playTime"`
}

func (s *server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}
	start := parseIntDefault(r.URL.Query().Get("start"), 0)
	maxItems := parseIntDefault(r.URL.Query().Get("maxItems"), 100)
	if maxItems > 100 {
		maxItems = 100
	}

	records, err := s.app.Records(r.Context(), start, maxItems)
	if err != nil {
		s.logError(r.Context(), "records query failed", err)
		writeError(w, http.StatusInternalServerError, "serverError", "internal server error")
		return
	}

	views := make([]recordView, 0, len(records))
	for _, rec := range records {
		views = append(views, recordView{
			Name:     rec.Name,
			Score:    rec.Score,
			PlayTime: rec.PlayTime.Seconds(),
		})
	}
	writeJSON(w, http.StatusOK, r.Method, views)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return def
	}
	return v
}

// writeUseCaseError renders a use-case *app.Error to its documented HTTP
// status and code, logging anything unexpected as a serverError instead of
// leaking simulation internals across the API boundary.
func (s *server) writeUseCaseError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *app.Error
	if !errors.As(err, &appErr) {
		s.logError(r.Context(), "unexpected use-case error", err)
		writeError(w, http.StatusInternalServerError, "serverError", "internal server error")
		return
	}
	switch appErr {
	case app.ErrMapNotFound:
		writeError(w, http.StatusNotFound, appErr.Code, appErr.Message)
	case app.ErrTokenUnknown:
		writeUnknownToken(w)
	case app.ErrTickForbidden:
		writeError(w, http.StatusBadRequest, appErr.Code, appErr.Message)
	case app.ErrBadDirection:
		badRequest(w, appErr.Message)
	default:
		writeError(w, http.StatusBadRequest, appErr.Code, appErr.Message)
	}
}
