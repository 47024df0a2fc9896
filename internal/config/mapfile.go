package config

import (
	"encoding/json"
	"fmt"
	"os"

	"dogloot/server/geometry"
	"dogloot/server/worldmap"
)

// LootTypeConfig is one entry in a map's loot catalog.
type LootTypeConfig struct {
	Value int `json:"value" jsonschema:"required,description=score value of an item of this type"`
}

// RoadConfig is a road as authored in the config file: a start tile plus
// exactly one of X1 (horizontal) or Y1 (vertical).
type RoadConfig struct {
	X0 int  `json:"x0" jsonschema:"required"`
	Y0 int  `json:"y0" jsonschema:"required"`
	X1 *int `json:"x1,omitempty"`
	Y1 *int `json:"y1,omitempty"`
}

// ToRoad converts a config entry to its runtime representation.
func (c RoadConfig) ToRoad() (geometry.Road, error) {
	switch {
	case c.X1 != nil && c.Y1 == nil:
		return geometry.NewHorizontalRoad(c.X0, *c.X1, c.Y0), nil
	case c.Y1 != nil && c.X1 == nil:
		return geometry.NewVerticalRoad(c.X0, c.Y0, *c.Y1), nil
	default:
		return geometry.Road{}, fmt.Errorf("road at (%d,%d): exactly one of x1 or y1 must be set", c.X0, c.Y0)
	}
}

// BuildingConfig is a decorative, non-colliding rectangle.
type BuildingConfig struct {
	X int `json:"x" jsonschema:"required"`
	Y int `json:"y" jsonschema:"required"`
	W int `json:"w" jsonschema:"required"`
	H int `json:"h" jsonschema:"required"`
}

// OfficeConfig is a drop-off office as authored in the config file.
type OfficeConfig struct {
	ID      string `json:"id" jsonschema:"required"`
	X       int    `json:"x" jsonschema:"required"`
	Y       int    `json:"y" jsonschema:"required"`
	OffsetX int    `json:"offsetX"`
	OffsetY int    `json:"offsetY"`
}

// MapConfig is one map as authored in the config file. DogSpeed and
// BagCapacity are optional per-map overrides of the server-wide defaults.
type MapConfig struct {
	ID          string           `json:"id" jsonschema:"required"`
	Name        string           `json:"name" jsonschema:"required"`
	DogSpeed    float64          `json:"dogSpeed,omitempty"`
	BagCapacity int              `json:"bagCapacity,omitempty"`
	LootTypes   []LootTypeConfig `json:"lootTypes" jsonschema:"required"`
	Roads       []RoadConfig     `json:"roads" jsonschema:"required"`
	Buildings   []BuildingConfig `json:"buildings"`
	Offices     []OfficeConfig   `json:"offices"`
}

// LootGeneratorConfig tunes every session's loot spawner.
type LootGeneratorConfig struct {
	// Period is expressed in seconds in the config file; the server
	// converts it to the time.Duration the runtime generator takes.
	Period      float64 `json:"period" jsonschema:"required"`
	Probability float64 `json:"probability" jsonschema:"required,minimum=0,maximum=1"`
}

// FileConfig is the root shape of the config file passed via --config-file.
type FileConfig struct {
	DefaultDogSpeed     float64             `json:"defaultDogSpeed" jsonschema:"required"`
	DefaultBagCapacity  int                 `json:"defaultBagCapacity" jsonschema:"required"`
	DogRetirementTime   float64             `json:"dogRetirementTime" jsonschema:"required,description=seconds a stopped dog is held before retiring"`
	LootGeneratorConfig LootGeneratorConfig `json:"lootGeneratorConfig" jsonschema:"required"`
	Maps                []MapConfig         `json:"maps" jsonschema:"required"`
}

// LoadFile reads and parses the config file at path.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// BuildMaps converts every configured map into its immutable runtime form.
func BuildMaps(cfg *FileConfig) ([]*worldmap.Map, error) {
	maps := make([]*worldmap.Map, 0, len(cfg.Maps))
	for _, mc := range cfg.Maps {
		roads := make([]geometry.Road, len(mc.Roads))
		for i, rc := range mc.Roads {
			road, err := rc.ToRoad()
			if err != nil {
				return nil, fmt.Errorf("config: map %q: %w", mc.ID, err)
			}
			roads[i] = road
		}

		buildings := make([]worldmap.Building, len(mc.Buildings))
		for i, bc := range mc.Buildings {
			buildings[i] = worldmap.Building{X: float64(bc.X), Y: float64(bc.Y), W: float64(bc.W), H: float64(bc.H)}
		}

		offices := make([]worldmap.Office, len(mc.Offices))
		for i, oc := range mc.Offices {
			offices[i] = worldmap.Office{
				ID:       oc.ID,
				Position: geometry.PointInt{X: oc.X, Y: oc.Y},
				OffsetX:  oc.OffsetX,
				OffsetY:  oc.OffsetY,
			}
		}

		lootTypes := make([]worldmap.LootType, len(mc.LootTypes))
		for i, lt := range mc.LootTypes {
			lootTypes[i] = worldmap.LootType{Worth: lt.Value}
		}

		m, err := worldmap.New(worldmap.Config{
			ID:          mc.ID,
			Name:        mc.Name,
			Roads:       roads,
			Buildings:   buildings,
			Offices:     offices,
			LootTypes:   lootTypes,
			DogSpeed:    mc.DogSpeed,
			BagCapacity: mc.BagCapacity,
		}, cfg.DefaultDogSpeed, cfg.DefaultBagCapacity)
		if err != nil {
			return nil, fmt.Errorf("config: building map %q: %w", mc.ID, err)
		}
		maps = append(maps, m)
	}
	return maps, nil
}
