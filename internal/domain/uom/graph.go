package uom

import (
	"sort"

	"github.com/shopspring/decimal"
)

type edge struct {
	to     Unit
	factor decimal.Decimal
}

// Graph is a directed multigraph of unit conversions. Conversion between two
// units of the same dimension is the product of edge factors along any path;
// Validate checks that all paths agree.
//
// The graph is built once at startup and read-only afterwards, so it is safe
// for concurrent use without locking.
type Graph struct {
	dimensions map[Unit]Dimension
	edges      map[Unit][]edge
	scale      int32
}

// NewGraph creates an empty conversion graph with the given rounding scale
func NewGraph(roundingScale int) *Graph {
	return &Graph{
		dimensions: make(map[Unit]Dimension),
		edges:      make(map[Unit][]edge),
		scale:      int32(roundingScale),
	}
}

// NewDefaultGraph builds the graph used by the print-farm catalog:
// grams/kilograms, minutes/hours, millimeters/meters and discrete units.
func NewDefaultGraph() *Graph {
	return NewDefaultGraphScale(DefaultRoundingScale)
}

// NewDefaultGraphScale is NewDefaultGraph with a configured rounding scale
func NewDefaultGraphScale(scale int) *Graph {
	g := NewGraph(scale)
	g.AddUnit(UnitGram, DimensionMass)
	g.AddUnit(UnitKilogram, DimensionMass)
	g.AddUnit(UnitMinute, DimensionTime)
	g.AddUnit(UnitHour, DimensionTime)
	g.AddUnit(UnitEach, DimensionCount)
	g.AddUnit(UnitMillimeter, DimensionLength)
	g.AddUnit(UnitMeter, DimensionLength)
	_ = g.AddConversion(UnitKilogram, UnitGram, decimal.NewFromInt(1000))
	_ = g.AddConversion(UnitHour, UnitMinute, decimal.NewFromInt(60))
	_ = g.AddConversion(UnitMeter, UnitMillimeter, decimal.NewFromInt(1000))
	return g
}

// AddUnit registers a unit in a dimension
func (g *Graph) AddUnit(u Unit, d Dimension) {
	g.dimensions[u] = d
}

// Knows reports whether the unit is registered
func (g *Graph) Knows(u Unit) bool {
	_, ok := g.dimensions[u]
	return ok
}

// DimensionOf returns the dimension of a registered unit
func (g *Graph) DimensionOf(u Unit) (Dimension, error) {
	d, ok := g.dimensions[u]
	if !ok {
		return "", NewUnknownUnitError(u)
	}
	return d, nil
}

// AddConversion declares that 1 from = factor to. The inverse edge is added
// automatically. Both units must be registered in the same dimension.
func (g *Graph) AddConversion(from, to Unit, factor decimal.Decimal) error {
	fromDim, ok := g.dimensions[from]
	if !ok {
		return NewUnknownUnitError(from)
	}
	toDim, ok := g.dimensions[to]
	if !ok {
		return NewUnknownUnitError(to)
	}
	if fromDim != toDim {
		return NewIncommensurableUnitsError(from, to)
	}
	g.edges[from] = append(g.edges[from], edge{to: to, factor: factor})
	g.edges[to] = append(g.edges[to], edge{to: from, factor: decimal.NewFromInt(1).Div(factor)})
	return nil
}

// Factor returns the multiplier that converts a quantity in from-units into
// to-units, found by breadth-first search over the conversion edges.
func (g *Graph) Factor(from, to Unit) (decimal.Decimal, error) {
	fromDim, ok := g.dimensions[from]
	if !ok {
		return decimal.Zero, NewUnknownUnitError(from)
	}
	toDim, ok := g.dimensions[to]
	if !ok {
		return decimal.Zero, NewUnknownUnitError(to)
	}
	if fromDim != toDim {
		return decimal.Zero, NewIncommensurableUnitsError(from, to)
	}
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	type state struct {
		unit   Unit
		factor decimal.Decimal
	}
	visited := map[Unit]bool{from: true}
	queue := []state{{unit: from, factor: decimal.NewFromInt(1)}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range g.edges[cur.unit] {
			if visited[e.to] {
				continue
			}
			f := cur.factor.Mul(e.factor)
			if e.to == to {
				return f, nil
			}
			visited[e.to] = true
			queue = append(queue, state{unit: e.to, factor: f})
		}
	}
	// Same dimension but disconnected components
	return decimal.Zero, NewIncommensurableUnitsError(from, to)
}

// Convert converts qty from one unit to another with banker's rounding at the
// graph's configured scale.
func (g *Graph) Convert(qty decimal.Decimal, from, to Unit) (decimal.Decimal, error) {
	f, err := g.Factor(from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return qty.Mul(f).RoundBank(g.scale), nil
}

// ConvertScaled converts qty and applies banker's rounding at the caller's
// final scale instead of the graph default.
func (g *Graph) ConvertScaled(qty decimal.Decimal, from, to Unit, scale int) (decimal.Decimal, error) {
	f, err := g.Factor(from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return qty.Mul(f).RoundBank(int32(scale)), nil
}

// Validate checks that all conversion paths within a dimension agree.
// It assigns every connected unit a factor relative to an anchor unit via a
// spanning-tree walk, then verifies each edge against those factors at the
// rounding scale.
func (g *Graph) Validate() error {
	units := make([]Unit, 0, len(g.dimensions))
	for u := range g.dimensions {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool { return units[i] < units[j] })

	toAnchor := make(map[Unit]decimal.Decimal)
	for _, anchor := range units {
		if _, seen := toAnchor[anchor]; seen {
			continue
		}
		toAnchor[anchor] = decimal.NewFromInt(1)
		queue := []Unit{anchor}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, e := range g.edges[cur] {
				if _, seen := toAnchor[e.to]; seen {
					continue
				}
				// 1 e.to = (1/e.factor) cur, so factor-to-anchor divides
				toAnchor[e.to] = toAnchor[cur].Div(e.factor)
				queue = append(queue, e.to)
			}
		}
	}

	for _, from := range units {
		for _, e := range g.edges[from] {
			// 1 from = e.factor e.to must hold against the anchored factors
			expected := toAnchor[from]
			got := toAnchor[e.to].Mul(e.factor)
			if !got.RoundBank(g.scale).Equal(expected.RoundBank(g.scale)) {
				return NewInconsistentGraphError(from, e.to)
			}
		}
	}
	return nil
}
