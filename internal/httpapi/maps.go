package httpapi

import (
	"net/http"
	"strings"

	"dogloot/server/geometry"
	"dogloot/server/worldmap"
)

type mapSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type lootTypeView struct {
	Value int `json:"value"`
}

type roadView struct {
	X0 int  `json:"x0"`
	Y0 int  `json:"y0"`
	X1 *int `json:"x1,omitempty"`
	Y1 *int `json:"y1,omitempty"`
}

type officeView struct {
	ID      string `json:"id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	OffsetX int    `json:"offsetX"`
	OffsetY int    `json:"offsetY"`
}

type buildingView struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type mapDetail struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	LootTypes []lootTypeView `json:"lootTypes"`
	Roads     []roadView     `json:"roads"`
	Offices   []officeView   `json:"offices"`
	Buildings []buildingView `json:"buildings"`
}

func (s *server) handleMapList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}
	ids := s.app.MapIDs()
	summaries := make([]mapSummary, 0, len(ids))
	for _, id := range ids {
		m, ok := s.app.Map(id)
		if !ok {
			continue
		}
		summaries = append(summaries, mapSummary{ID: m.ID, Name: m.Name})
	}
	writeJSON(w, http.StatusOK, r.Method, summaries)
}

func (s *server) handleMapByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/maps/")
	if id == "" {
		writeError(w, http.StatusNotFound, "mapNotFound", "map not found")
		return
	}
	m, ok := s.app.Map(id)
	if !ok {
		writeError(w, http.StatusNotFound, "mapNotFound", "map not found")
		return
	}
	writeJSON(w, http.StatusOK, r.Method, mapDetailFrom(m))
}

func mapDetailFrom(m *worldmap.Map) mapDetail {
	detail := mapDetail{ID: m.ID, Name: m.Name}
	for _, lt := range m.LootCatalog {
		detail.LootTypes = append(detail.LootTypes, lootTypeView{Value: lt.Worth})
	}
	for _, road := range m.Roads {
		detail.Roads = append(detail.Roads, roadViewFrom(road))
	}
	for _, office := range m.Offices {
		detail.Offices = append(detail.Offices, officeView{
			ID: office.ID, X: office.Position.X, Y: office.Position.Y,
			OffsetX: office.OffsetX, OffsetY: office.OffsetY,
		})
	}
	for _, b := range m.Buildings {
		detail.Buildings = append(detail.Buildings, buildingView{
			X: int(b.X), Y: int(b.Y), W: int(b.W), H: int(b.H),
		})
	}
	return detail
}

func roadViewFrom(road geometry.Road) roadView {
	if road.Start.Y == road.End.Y {
		x1 := road.End.X
		return roadView{X0: road.Start.X, Y0: road.Start.Y, X1: &x1}
	}
	y1 := road.End.Y
	return roadView{X0: road.Start.X, Y0: road.Start.Y, Y1: &y1}
}
