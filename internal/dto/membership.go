package dto

import "github.com/noah-isme/rso-api/internal/models"

// CreateUnitRequest payload for registering a unit at any level.
type CreateUnitRequest struct {
	Level         models.UnitLevel `json:"level" validate:"required,oneof=central district regional local educational detachment"`
	Name          string           `json:"name" validate:"required,max=255"`
	CommanderID   string           `json:"commander_id" validate:"required"`
	RegionID      *string          `json:"region_id"`
	About         *string          `json:"about" validate:"omitempty,max=4000"`
	CentralID     *string          `json:"central_id"`
	DistrictID    *string          `json:"district_id"`
	RegionalID    *string          `json:"regional_id"`
	LocalID       *string          `json:"local_id"`
	EducationalID *string          `json:"educational_id"`
}

// Links returns the requested parent references.
func (r CreateUnitRequest) Links() models.ParentLinks {
	return models.ParentLinks{
		CentralID:     r.CentralID,
		DistrictID:    r.DistrictID,
		RegionalID:    r.RegionalID,
		LocalID:       r.LocalID,
		EducationalID: r.EducationalID,
	}
}

// ReparentUnitRequest replaces every parent reference of a unit. Omitted links are cleared.
type ReparentUnitRequest struct {
	CentralID     *string `json:"central_id"`
	DistrictID    *string `json:"district_id"`
	RegionalID    *string `json:"regional_id"`
	LocalID       *string `json:"local_id"`
	EducationalID *string `json:"educational_id"`
}

// Links returns the requested parent references.
func (r ReparentUnitRequest) Links() models.ParentLinks {
	return models.ParentLinks{
		CentralID:     r.CentralID,
		DistrictID:    r.DistrictID,
		RegionalID:    r.RegionalID,
		LocalID:       r.LocalID,
		EducationalID: r.EducationalID,
	}
}

// AssignPositionRequest places a user into a unit.
type AssignPositionRequest struct {
	UserID  string  `json:"user_id" validate:"required"`
	UnitID  string  `json:"-" validate:"required"`
	Title   *string `json:"title" validate:"omitempty,min=1,max=150"`
	Trusted *bool   `json:"is_trusted"`
}

// ApplyRequest asks to join a unit.
type ApplyRequest struct {
	UserID  string  `json:"-" validate:"required"`
	UnitID  string  `json:"-" validate:"required"`
	Message *string `json:"message" validate:"omitempty,max=1000"`
}

// AcceptApplicationRequest optionally sets the title of the resulting position.
type AcceptApplicationRequest struct {
	Title *string `json:"title" validate:"omitempty,min=1,max=150"`
}

// MemberCountResponse is returned by the member count endpoint.
type MemberCountResponse struct {
	UnitID string           `json:"unit_id"`
	Level  models.UnitLevel `json:"level"`
	Count  int              `json:"count"`
}
