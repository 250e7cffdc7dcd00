package models

import "time"

// UnitLevel tags an organisational unit with its place in the hierarchy.
type UnitLevel string

const (
	LevelCentral     UnitLevel = "central"
	LevelDistrict    UnitLevel = "district"
	LevelRegional    UnitLevel = "regional"
	LevelLocal       UnitLevel = "local"
	LevelEducational UnitLevel = "educational"
	LevelDetachment  UnitLevel = "detachment"
)

// Levels lists all unit levels from the root down.
var Levels = []UnitLevel{
	LevelCentral,
	LevelDistrict,
	LevelRegional,
	LevelLocal,
	LevelEducational,
	LevelDetachment,
}

// Depth returns the distance from the central level, or -1 for unknown levels.
func (l UnitLevel) Depth() int {
	for i, level := range Levels {
		if level == l {
			return i
		}
	}
	return -1
}

// Valid reports whether the level is one of the six known levels.
func (l UnitLevel) Valid() bool {
	return l.Depth() >= 0
}

// Unit is an organisational unit at any level. Parent links that do not apply to the level
// stay nil.
type Unit struct {
	ID            string    `db:"id" json:"id"`
	Level         UnitLevel `db:"level" json:"level"`
	Name          string    `db:"name" json:"name"`
	CommanderID   string    `db:"commander_id" json:"commander_id"`
	RegionID      *string   `db:"region_id" json:"region_id,omitempty"`
	About         *string   `db:"about" json:"about,omitempty"`
	CentralID     *string   `db:"central_id" json:"central_id,omitempty"`
	DistrictID    *string   `db:"district_id" json:"district_id,omitempty"`
	RegionalID    *string   `db:"regional_id" json:"regional_id,omitempty"`
	LocalID       *string   `db:"local_id" json:"local_id,omitempty"`
	EducationalID *string   `db:"educational_id" json:"educational_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ParentLinks is the set of ancestor references a unit may carry.
type ParentLinks struct {
	CentralID     *string `json:"central_id,omitempty"`
	DistrictID    *string `json:"district_id,omitempty"`
	RegionalID    *string `json:"regional_id,omitempty"`
	LocalID       *string `json:"local_id,omitempty"`
	EducationalID *string `json:"educational_id,omitempty"`
}

// Links returns the unit's current parent references.
func (u *Unit) Links() ParentLinks {
	return ParentLinks{
		CentralID:     u.CentralID,
		DistrictID:    u.DistrictID,
		RegionalID:    u.RegionalID,
		LocalID:       u.LocalID,
		EducationalID: u.EducationalID,
	}
}

// SetLinks replaces the unit's parent references.
func (u *Unit) SetLinks(links ParentLinks) {
	u.CentralID = links.CentralID
	u.DistrictID = links.DistrictID
	u.RegionalID = links.RegionalID
	u.LocalID = links.LocalID
	u.EducationalID = links.EducationalID
}

// Link returns the reference for the given ancestor level.
func (p ParentLinks) Link(level UnitLevel) *string {
	switch level {
	case LevelCentral:
		return p.CentralID
	case LevelDistrict:
		return p.DistrictID
	case LevelRegional:
		return p.RegionalID
	case LevelLocal:
		return p.LocalID
	case LevelEducational:
		return p.EducationalID
	}
	return nil
}
