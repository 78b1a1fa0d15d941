package uom

// Unit is the symbol of a unit of measure (e.g. "g", "kg", "each")
type Unit string

func (u Unit) String() string {
	return string(u)
}

// Dimension groups units that are mutually convertible
type Dimension string

const (
	DimensionMass   Dimension = "mass"
	DimensionTime   Dimension = "time"
	DimensionCount  Dimension = "count"
	DimensionLength Dimension = "length"
)

// Units used throughout the print-farm catalog. The graph is open: callers
// may register additional units and conversions at startup.
const (
	UnitGram       Unit = "g"
	UnitKilogram   Unit = "kg"
	UnitMinute     Unit = "min"
	UnitHour       Unit = "h"
	UnitEach       Unit = "each"
	UnitMeter      Unit = "m"
	UnitMillimeter Unit = "mm"
)

// DefaultRoundingScale is the scale used for intermediate banker's rounding
const DefaultRoundingScale = 6
