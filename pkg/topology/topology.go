// Package topology models the 8-level failure-domain hierarchy and the
// affinity predicate placements are checked and repaired against (spec
// §4.2).
package topology

// Level is one of the 8 nested failure-domain tiers, ordered finest to
// coarsest.
type Level int

const (
	LevelNode Level = iota
	LevelRack
	LevelCage
	LevelDatacenter
	LevelAvailabilityZone
	LevelRegion
	LevelCountry
	LevelContinent
	levelCount
)

func (l Level) String() string {
	switch l {
	case LevelNode:
		return "node"
	case LevelRack:
		return "rack"
	case LevelCage:
		return "cage"
	case LevelDatacenter:
		return "datacenter"
	case LevelAvailabilityZone:
		return "availability_zone"
	case LevelRegion:
		return "region"
	case LevelCountry:
		return "country"
	case LevelContinent:
		return "continent"
	default:
		return "unknown"
	}
}

// Location is the full topology path for a node, spec §3/§4.2.
type Location struct {
	NodeID      uint64
	RackID      uint32
	CageID      uint32
	DCID        uint32
	AZID        uint32
	RegionID    uint32
	CountryID   uint16
	ContinentID uint8
}

// At returns the identifier at level l.
func (loc Location) At(l Level) uint64 {
	switch l {
	case LevelNode:
		return loc.NodeID
	case LevelRack:
		return uint64(loc.RackID)
	case LevelCage:
		return uint64(loc.CageID)
	case LevelDatacenter:
		return uint64(loc.DCID)
	case LevelAvailabilityZone:
		return uint64(loc.AZID)
	case LevelRegion:
		return uint64(loc.RegionID)
	case LevelCountry:
		return uint64(loc.CountryID)
	case LevelContinent:
		return uint64(loc.ContinentID)
	default:
		return 0
	}
}

// Rule is a single affinity constraint: at least MinSpread distinct
// values at Level among the candidate set.
type Rule struct {
	Level     Level
	MinSpread int
	Required  bool
}

// RackSpread returns the rack-spread preset: required, spread == n.
func RackSpread(n int) Rule { return Rule{Level: LevelRack, MinSpread: n, Required: true} }

// AZSpread returns the AZ-spread preset: required, spread == min(3, n).
func AZSpread(n int) Rule {
	s := n
	if s > 3 {
		s = 3
	}
	return Rule{Level: LevelAvailabilityZone, MinSpread: s, Required: true}
}

// RegionSpread returns the region-spread preset: required, spread == 2.
func RegionSpread() Rule { return Rule{Level: LevelRegion, MinSpread: 2, Required: true} }
