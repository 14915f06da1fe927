package models

import (
	"errors"
	"math/rand"
)

// TileType classifies one cell of the world grid.
type TileType int

// Tile types as sent on the wire.
const (
	TileGrass TileType = iota
	TileWater
	TileTree
)

// Cumulative generation thresholds against a single draw in [0,1).
const (
	waterChance = 0.10
	treeChance  = 0.20
)

// String returns a readable tile name.
func (t TileType) String() string {
	switch t {
	case TileGrass:
		return "grass"
	case TileWater:
		return "water"
	case TileTree:
		return "tree"
	default:
		return "unknown"
	}
}

// IsWalkable reports whether an entity may stand on the tile. Only grass is.
func IsWalkable(t TileType) bool {
	return t == TileGrass
}

// TileMap is the fixed world grid. It never changes after construction.
type TileMap struct {
	Width  int          `json:"width"`
	Height int          `json:"height"`
	Tiles  [][]TileType `json:"tiles"` // row-major: Tiles[y][x]
}

// GenerateMap draws every cell independently: 10% water, 10% tree, 80% grass.
func GenerateMap(width, height int, rng *rand.Rand) *TileMap {
	tiles := make([][]TileType, height)
	for y := 0; y < height; y++ {
		row := make([]TileType, width)
		for x := 0; x < width; x++ {
			r := rng.Float64()
			switch {
			case r < waterChance:
				row[x] = TileWater
			case r < treeChance:
				row[x] = TileTree
			default:
				row[x] = TileGrass
			}
		}
		tiles[y] = row
	}
	return &TileMap{Width: width, Height: height, Tiles: tiles}
}

// MapFromRows builds a map from explicit rows, mostly for fixtures.
// All rows must share the first row's length.
func MapFromRows(rows [][]TileType) (*TileMap, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.New("map must have at least one cell")
	}
	width := len(rows[0])
	tiles := make([][]TileType, len(rows))
	for y, row := range rows {
		if len(row) != width {
			return nil, errors.New("map rows must have equal length")
		}
		tiles[y] = append([]TileType(nil), row...)
	}
	return &TileMap{Width: width, Height: len(rows), Tiles: tiles}, nil
}

// InBounds reports whether (x, y) lies on the grid.
func (m *TileMap) InBounds(x, y int) bool {
	return x >= 0 && x < m.Width && y >= 0 && y < m.Height
}

// At returns the tile at (x, y). The caller checks bounds.
func (m *TileMap) At(x, y int) TileType {
	return m.Tiles[y][x]
}

// Walkable reports whether (x, y) is in bounds and on grass.
func (m *TileMap) Walkable(x, y int) bool {
	return m.InBounds(x, y) && IsWalkable(m.Tiles[y][x])
}

// CountWalkable returns the number of grass cells.
func (m *TileMap) CountWalkable() int {
	n := 0
	for _, row := range m.Tiles {
		for _, t := range row {
			if IsWalkable(t) {
				n++
			}
		}
	}
	return n
}
