package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gorustyt/recastgo/recast"
	"github.com/sahilm/fuzzy"
)

// Poly area ids written to the final poly mesh.
const (
	SAMPLE_POLYAREA_GROUND = iota
	SAMPLE_POLYAREA_WATER
	SAMPLE_POLYAREA_ROAD
	SAMPLE_POLYAREA_DOOR
	SAMPLE_POLYAREA_GRASS
	SAMPLE_POLYAREA_JUMP
)

// Poly flags derived from areas.
const (
	SAMPLE_POLYFLAGS_WALK     = 0x01   // Ability to walk (ground, grass, road)
	SAMPLE_POLYFLAGS_SWIM     = 0x02   // Ability to swim (water).
	SAMPLE_POLYFLAGS_DOOR     = 0x04   // Ability to move through doors.
	SAMPLE_POLYFLAGS_JUMP     = 0x08   // Ability to jump.
	SAMPLE_POLYFLAGS_DISABLED = 0x10   // Disabled polygon
	SAMPLE_POLYFLAGS_ALL      = 0xffff // All abilities.
)

const (
	SAMPLE_PARTITION_WATERSHED = iota
	SAMPLE_PARTITION_MONOTONE
	SAMPLE_PARTITION_LAYERS
)

const AreaNull = "null"

var partitionNames = []string{"watershed", "monotone", "layers"}

var areaNames = []string{AreaNull, "ground", "water", "road", "door", "grass", "jump"}

// AreaNames lists the names accepted by area overrides and the palette.
func AreaNames() []string { return slices.Clone(areaNames) }

// AreaID maps an area name to the id painted on the compact heightfield.
// "ground" is the plain walkable area and "null" cuts spans out.
func AreaID(name string) (uint8, error) {
	switch strings.ToLower(name) {
	case AreaNull:
		return recast.RC_NULL_AREA, nil
	case "ground":
		return recast.RC_WALKABLE_AREA, nil
	case "water":
		return SAMPLE_POLYAREA_WATER, nil
	case "road":
		return SAMPLE_POLYAREA_ROAD, nil
	case "door":
		return SAMPLE_POLYAREA_DOOR, nil
	case "grass":
		return SAMPLE_POLYAREA_GRASS, nil
	case "jump":
		return SAMPLE_POLYAREA_JUMP, nil
	}
	return 0, unknownName("area", name, areaNames)
}

// PolyAreaName is the palette key of a final poly area id.
func PolyAreaName(area uint8) string {
	switch area {
	case SAMPLE_POLYAREA_GROUND, recast.RC_WALKABLE_AREA:
		return "ground"
	case SAMPLE_POLYAREA_WATER:
		return "water"
	case SAMPLE_POLYAREA_ROAD:
		return "road"
	case SAMPLE_POLYAREA_DOOR:
		return "door"
	case SAMPLE_POLYAREA_GRASS:
		return "grass"
	case SAMPLE_POLYAREA_JUMP:
		return "jump"
	}
	return AreaNull
}

// ParsePartition maps a partition name to SAMPLE_PARTITION_*.
func ParsePartition(name string) (int, error) {
	if i := slices.Index(partitionNames, strings.ToLower(name)); i >= 0 {
		return i, nil
	}
	return 0, unknownName("partition", name, partitionNames)
}

func unknownName(kind, name string, known []string) error {
	if m := fuzzy.Find(strings.ToLower(name), known); len(m) > 0 {
		return fmt.Errorf("unknown %s %q, did you mean %q?", kind, name, m[0].Str)
	}
	return fmt.Errorf("unknown %s %q, expected one of %s", kind, name, strings.Join(known, ", "))
}

// AreaPalette keys the configured palette by area id. Ground is listed under
// both its heightfield id and its final poly area id.
func (c *Config) AreaPalette() map[uint8]string {
	out := make(map[uint8]string, len(c.Palette)+1)
	for name, col := range c.Palette {
		id, err := AreaID(name)
		if err != nil || id == recast.RC_NULL_AREA {
			continue
		}
		out[id] = col
		if id == recast.RC_WALKABLE_AREA {
			out[SAMPLE_POLYAREA_GROUND] = col
		}
	}
	return out
}
