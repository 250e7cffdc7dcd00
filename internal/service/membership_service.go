package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/rso-api/internal/dto"
	"github.com/noah-isme/rso-api/internal/models"
	"github.com/noah-isme/rso-api/pkg/database"
	appErrors "github.com/noah-isme/rso-api/pkg/errors"
)

type unitStore interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Unit, error)
	FindRegionalByRegion(ctx context.Context, exec sqlx.ExtContext, regionID string) (*models.Unit, error)
	Create(ctx context.Context, exec sqlx.ExtContext, unit *models.Unit) error
	UpdateLinks(ctx context.Context, exec sqlx.ExtContext, unit *models.Unit) error
}

type positionStore interface {
	FindByUser(ctx context.Context, exec sqlx.ExtContext, level models.UnitLevel, userID string) (*models.Position, error)
	Upsert(ctx context.Context, exec sqlx.ExtContext, level models.UnitLevel, position *models.Position) error
	DeleteByUser(ctx context.Context, exec sqlx.ExtContext, level models.UnitLevel, userID string) (bool, error)
	DeleteAllForUser(ctx context.Context, exec sqlx.ExtContext, userID string) error
	ListByUnit(ctx context.Context, exec sqlx.ExtContext, level models.UnitLevel, unitID string) ([]models.Position, error)
	CountByUnit(ctx context.Context, level models.UnitLevel, unitID string) (int, error)
}

type applicationStore interface {
	Exists(ctx context.Context, level models.UnitLevel, userID, unitID string) (bool, error)
	Create(ctx context.Context, level models.UnitLevel, application *models.Application) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, level models.UnitLevel, id string) (*models.Application, error)
	ListByUnit(ctx context.Context, level models.UnitLevel, unitID string) ([]models.Application, error)
	Delete(ctx context.Context, exec sqlx.ExtContext, level models.UnitLevel, id string) error
}

type userDirectory interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.User, error)
}

// linkField describes one parent reference column of a unit.
type linkField struct {
	level models.UnitLevel
	name  string
}

var linkFields = []linkField{
	{level: models.LevelCentral, name: "central_id"},
	{level: models.LevelDistrict, name: "district_id"},
	{level: models.LevelRegional, name: "regional_id"},
	{level: models.LevelLocal, name: "local_id"},
	{level: models.LevelEducational, name: "educational_id"},
}

// allowedParents lists the ancestor levels a unit of each level may reference.
var allowedParents = map[models.UnitLevel]map[models.UnitLevel]bool{
	models.LevelCentral:     {},
	models.LevelDistrict:    {models.LevelCentral: true},
	models.LevelRegional:    {models.LevelDistrict: true},
	models.LevelLocal:       {models.LevelRegional: true},
	models.LevelEducational: {models.LevelRegional: true, models.LevelLocal: true},
	models.LevelDetachment:  {models.LevelRegional: true, models.LevelLocal: true, models.LevelEducational: true},
}

// ancestorPreference is the ordered list of parent levels consulted when walking upwards.
var ancestorPreference = map[models.UnitLevel][]models.UnitLevel{
	models.LevelCentral:     nil,
	models.LevelDistrict:    {models.LevelCentral},
	models.LevelRegional:    {models.LevelDistrict},
	models.LevelLocal:       {models.LevelRegional},
	models.LevelEducational: {models.LevelLocal, models.LevelRegional},
	models.LevelDetachment:  {models.LevelEducational, models.LevelLocal, models.LevelRegional},
}

// MembershipService keeps users' positions consistent across the unit hierarchy.
type MembershipService struct {
	units        unitStore
	positions    positionStore
	applications applicationStore
	users        userDirectory
	tx           database.TxBeginner
	validator    *validator.Validate
	logger       *zap.Logger
	baseTitle    string
}

// MembershipServiceOption configures the membership service.
type MembershipServiceOption func(*MembershipService)

// WithBaseMemberTitle sets the title given to synthesised and untitled positions.
func WithBaseMemberTitle(title string) MembershipServiceOption {
	return func(s *MembershipService) {
		if title = strings.TrimSpace(title); title != "" {
			s.baseTitle = title
		}
	}
}

// WithUserDirectory makes placements and applications require an existing active user.
func WithUserDirectory(users userDirectory) MembershipServiceOption {
	return func(s *MembershipService) {
		s.users = users
	}
}

// NewMembershipService constructs the service.
func NewMembershipService(units unitStore, positions positionStore, applications applicationStore, tx database.TxBeginner, validate *validator.Validate, logger *zap.Logger, opts ...MembershipServiceOption) *MembershipService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &MembershipService{
		units:        units,
		positions:    positions,
		applications: applications,
		tx:           tx,
		validator:    validate,
		logger:       logger,
		baseTitle:    models.BaseMemberTitle,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// CreateUnit validates the parent references and stores a new unit.
func (s *MembershipService) CreateUnit(ctx context.Context, req dto.CreateUnitRequest) (*models.Unit, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	unit := &models.Unit{
		Level:       req.Level,
		Name:        strings.TrimSpace(req.Name),
		CommanderID: req.CommanderID,
		RegionID:    normalizeID(req.RegionID),
		About:       req.About,
	}
	unit.SetLinks(req.Links())

	err := database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.validateLinks(ctx, tx, unit); err != nil {
			return err
		}
		return s.units.Create(ctx, tx, unit)
	})
	if err != nil {
		return nil, serviceError(err, "failed to create unit")
	}
	return unit, nil
}

// AssignPosition places the user into the unit and propagates positions up to the central level.
func (s *MembershipService) AssignPosition(ctx context.Context, req dto.AssignPositionRequest) (*models.Position, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	var position *models.Position
	err := database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.requireActiveUser(ctx, tx, req.UserID); err != nil {
			return err
		}
		unit, err := s.loadUnit(ctx, tx, req.UnitID)
		if err != nil {
			return err
		}
		position, err = s.assign(ctx, tx, unit, req.UserID, req.Title, req.Trusted)
		return err
	})
	if err != nil {
		return nil, serviceError(err, "failed to assign position")
	}
	return position, nil
}

// RemovePosition expels the user from the organisation by deleting positions at every level.
func (s *MembershipService) RemovePosition(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "user_id is required")
	}
	err := database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		return s.positions.DeleteAllForUser(ctx, tx, userID)
	})
	if err != nil {
		return serviceError(err, "failed to remove positions")
	}
	s.logger.Info("user removed from organisation", zap.String("user_id", userID))
	return nil
}

// RemoveMember removes the user from the unit. Leaving a detachment is a full expulsion;
// leaving a higher unit deletes only that level's position.
func (s *MembershipService) RemoveMember(ctx context.Context, unitID, userID string) error {
	unit, err := s.loadUnit(ctx, nil, unitID)
	if err != nil {
		return serviceError(err, "failed to load unit")
	}
	position, err := s.findPosition(ctx, nil, unit.Level, userID)
	if err != nil {
		return serviceError(err, "failed to load position")
	}
	if position == nil || position.UnitID != unit.ID {
		return appErrors.Clone(appErrors.ErrNotFound, "user is not a member of this unit")
	}
	if unit.Level == models.LevelDetachment {
		return s.RemovePosition(ctx, userID)
	}

	err = database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		_, err := s.positions.DeleteByUser(ctx, tx, unit.Level, userID)
		return err
	})
	if err != nil {
		return serviceError(err, "failed to remove member")
	}
	s.logger.Warn("partial membership removal; positions at other levels left untouched",
		zap.String("user_id", userID),
		zap.String("unit_id", unit.ID),
		zap.String("level", string(unit.Level)),
	)
	return nil
}

// ReparentUnit replaces a unit's parent references and moves its members' ancestor positions.
func (s *MembershipService) ReparentUnit(ctx context.Context, unitID string, links models.ParentLinks) (*models.Unit, error) {
	var updated *models.Unit
	err := database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		unit, err := s.loadUnit(ctx, tx, unitID)
		if err != nil {
			return err
		}
		links = normalizeLinks(links)
		if unit.RegionalID != nil && !sameID(unit.RegionalID, links.RegionalID) {
			return appErrors.Clone(appErrors.ErrValidation, "regional_id: the regional link cannot be changed once set")
		}

		next := *unit
		next.SetLinks(links)
		if err := s.validateLinks(ctx, tx, &next); err != nil {
			return err
		}
		if err := s.units.UpdateLinks(ctx, tx, &next); err != nil {
			return err
		}

		members, err := s.positions.ListByUnit(ctx, tx, next.Level, next.ID)
		if err != nil {
			return err
		}
		for _, member := range members {
			if err := s.propagate(ctx, tx, &next, member.UserID); err != nil {
				return fmt.Errorf("propagate member %s: %w", member.UserID, err)
			}
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, serviceError(err, "failed to reparent unit")
	}
	return updated, nil
}

// Apply records a request to join the unit.
func (s *MembershipService) Apply(ctx context.Context, req dto.ApplyRequest) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if err := s.requireActiveUser(ctx, nil, req.UserID); err != nil {
		return nil, serviceError(err, "failed to load user")
	}
	unit, err := s.loadUnit(ctx, nil, req.UnitID)
	if err != nil {
		return nil, serviceError(err, "failed to load unit")
	}
	position, err := s.findPosition(ctx, nil, unit.Level, req.UserID)
	if err != nil {
		return nil, serviceError(err, "failed to load position")
	}
	if position != nil && position.UnitID == unit.ID {
		return nil, appErrors.Clone(appErrors.ErrConflict, "user is already a member of this unit")
	}
	exists, err := s.applications.Exists(ctx, unit.Level, req.UserID, unit.ID)
	if err != nil {
		return nil, serviceError(err, "failed to check application")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "application already submitted")
	}
	application := &models.Application{UserID: req.UserID, UnitID: unit.ID, Message: req.Message}
	if err := s.applications.Create(ctx, unit.Level, application); err != nil {
		return nil, serviceError(err, "failed to create application")
	}
	return application, nil
}

// AcceptApplication turns the application into a position and deletes it.
func (s *MembershipService) AcceptApplication(ctx context.Context, unitID, applicationID string, req dto.AcceptApplicationRequest) (*models.Position, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	var position *models.Position
	err := database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		unit, application, err := s.loadApplication(ctx, tx, unitID, applicationID)
		if err != nil {
			return err
		}
		position, err = s.assign(ctx, tx, unit, application.UserID, req.Title, nil)
		if err != nil {
			return err
		}
		return s.applications.Delete(ctx, tx, unit.Level, application.ID)
	})
	if err != nil {
		return nil, serviceError(err, "failed to accept application")
	}
	return position, nil
}

// RejectApplication deletes the application.
func (s *MembershipService) RejectApplication(ctx context.Context, unitID, applicationID string) error {
	err := database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		unit, application, err := s.loadApplication(ctx, tx, unitID, applicationID)
		if err != nil {
			return err
		}
		return s.applications.Delete(ctx, tx, unit.Level, application.ID)
	})
	if err != nil {
		return serviceError(err, "failed to reject application")
	}
	return nil
}

// ListApplications returns the unit's pending applications.
func (s *MembershipService) ListApplications(ctx context.Context, unitID string) ([]models.Application, error) {
	unit, err := s.loadUnit(ctx, nil, unitID)
	if err != nil {
		return nil, serviceError(err, "failed to load unit")
	}
	applications, err := s.applications.ListByUnit(ctx, unit.Level, unit.ID)
	if err != nil {
		return nil, serviceError(err, "failed to list applications")
	}
	return applications, nil
}

// MemberCount returns the number of positions held in the unit.
func (s *MembershipService) MemberCount(ctx context.Context, unitID string) (*dto.MemberCountResponse, error) {
	unit, err := s.loadUnit(ctx, nil, unitID)
	if err != nil {
		return nil, serviceError(err, "failed to load unit")
	}
	count, err := s.positions.CountByUnit(ctx, unit.Level, unit.ID)
	if err != nil {
		return nil, serviceError(err, "failed to count members")
	}
	return &dto.MemberCountResponse{UnitID: unit.ID, Level: unit.Level, Count: count}, nil
}

// ListMembers returns the positions held in the unit.
func (s *MembershipService) ListMembers(ctx context.Context, unitID string) ([]models.Position, error) {
	unit, err := s.loadUnit(ctx, nil, unitID)
	if err != nil {
		return nil, serviceError(err, "failed to load unit")
	}
	members, err := s.positions.ListByUnit(ctx, nil, unit.Level, unit.ID)
	if err != nil {
		return nil, serviceError(err, "failed to list members")
	}
	return members, nil
}

// assign upserts the position at the unit's level and walks the ancestor chain.
func (s *MembershipService) assign(ctx context.Context, tx sqlx.ExtContext, unit *models.Unit, userID string, title *string, trusted *bool) (*models.Position, error) {
	existing, err := s.findPosition(ctx, tx, unit.Level, userID)
	if err != nil {
		return nil, err
	}

	position := &models.Position{UserID: userID, UnitID: unit.ID, Title: s.baseTitle}
	if existing != nil {
		position.ID = existing.ID
		position.CreatedAt = existing.CreatedAt
		if existing.UnitID == unit.ID {
			position.Title = existing.Title
			position.IsTrusted = existing.IsTrusted
		}
	}
	if title != nil && strings.TrimSpace(*title) != "" {
		position.Title = strings.TrimSpace(*title)
	}
	if trusted != nil {
		position.IsTrusted = *trusted
	}
	if err := s.positions.Upsert(ctx, tx, unit.Level, position); err != nil {
		return nil, err
	}
	if err := s.propagate(ctx, tx, unit, userID); err != nil {
		return nil, err
	}
	return position, nil
}

type ancestorLink struct {
	level  models.UnitLevel
	unitID string
}

// ancestorChain follows the next-ancestor rule from the unit up to the root.
func (s *MembershipService) ancestorChain(ctx context.Context, tx sqlx.ExtContext, unit *models.Unit) ([]ancestorLink, error) {
	var chain []ancestorLink
	current := unit
	for {
		level, unitID, err := nextAncestor(current)
		if err != nil {
			return nil, err
		}
		if unitID == "" {
			return chain, nil
		}
		parent, err := s.units.FindByID(ctx, tx, unitID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s_id references unknown unit %s", level, unitID))
			}
			return nil, err
		}
		if parent.Level != level {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s_id must reference a %s unit", level, level))
		}
		chain = append(chain, ancestorLink{level: level, unitID: parent.ID})
		current = parent
	}
}

// propagate aligns the user's ancestor positions with the unit's current ancestor chain.
// Existing rows are re-targeted with their title kept, missing rows get the base title and
// levels the chain skips lose any stale row. Central rows are reused but never created.
func (s *MembershipService) propagate(ctx context.Context, tx sqlx.ExtContext, unit *models.Unit, userID string) error {
	chain, err := s.ancestorChain(ctx, tx, unit)
	if err != nil {
		return err
	}

	reached := make(map[models.UnitLevel]bool, len(chain))
	for _, link := range chain {
		reached[link.level] = true
		existing, err := s.findPosition(ctx, tx, link.level, userID)
		if err != nil {
			return err
		}
		switch {
		case existing != nil && existing.UnitID == link.unitID:
			continue
		case existing != nil:
			existing.UnitID = link.unitID
			if err := s.positions.Upsert(ctx, tx, link.level, existing); err != nil {
				return err
			}
		case link.level == models.LevelCentral:
			s.logger.Debug("central position not synthesised", zap.String("user_id", userID), zap.String("unit_id", link.unitID))
		default:
			position := &models.Position{UserID: userID, UnitID: link.unitID, Title: s.baseTitle}
			if err := s.positions.Upsert(ctx, tx, link.level, position); err != nil {
				return err
			}
		}
	}

	for depth := 1; depth < unit.Level.Depth(); depth++ {
		level := models.Levels[depth]
		if reached[level] {
			continue
		}
		removed, err := s.positions.DeleteByUser(ctx, tx, level, userID)
		if err != nil {
			return err
		}
		if removed {
			s.logger.Debug("stale position removed", zap.String("user_id", userID), zap.String("level", string(level)))
		}
	}
	return nil
}

// nextAncestor returns the single ancestor a unit's members propagate to. An empty unitID
// means the walk ends here.
func nextAncestor(unit *models.Unit) (models.UnitLevel, string, error) {
	preference, ok := ancestorPreference[unit.Level]
	if !ok {
		return "", "", appErrors.Clone(appErrors.ErrUnknownLevel, fmt.Sprintf("unknown unit level %q", unit.Level))
	}
	links := unit.Links()
	for _, level := range preference {
		if id := links.Link(level); id != nil && *id != "" {
			return level, *id, nil
		}
	}
	return "", "", nil
}

// validateLinks enforces the allowed and required parent references of a unit and their
// mutual consistency. The regional unit is selected by region when not given.
func (s *MembershipService) validateLinks(ctx context.Context, tx sqlx.ExtContext, unit *models.Unit) error {
	allowed, ok := allowedParents[unit.Level]
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("level: unknown unit level %q", unit.Level))
	}
	unit.SetLinks(normalizeLinks(unit.Links()))
	links := unit.Links()
	for _, field := range linkFields {
		if links.Link(field.level) != nil && !allowed[field.level] {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: not allowed for %s units", field.name, unit.Level))
		}
	}

	switch unit.Level {
	case models.LevelDistrict:
		if unit.CentralID == nil {
			return appErrors.Clone(appErrors.ErrValidation, "central_id: required for district units")
		}
	case models.LevelRegional:
		if unit.DistrictID == nil {
			return appErrors.Clone(appErrors.ErrValidation, "district_id: required for regional units")
		}
		if unit.RegionID == nil {
			return appErrors.Clone(appErrors.ErrValidation, "region_id: required for regional units")
		}
	case models.LevelLocal, models.LevelEducational, models.LevelDetachment:
		if unit.RegionalID == nil {
			if unit.RegionID == nil {
				return appErrors.Clone(appErrors.ErrValidation, "region_id: required to select a regional unit")
			}
			regional, err := s.units.FindRegionalByRegion(ctx, tx, *unit.RegionID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("region_id: no regional unit for region %s", *unit.RegionID))
				}
				return err
			}
			unit.RegionalID = &regional.ID
		}
	}

	parents := make(map[models.UnitLevel]*models.Unit, len(linkFields))
	links = unit.Links()
	for _, field := range linkFields {
		id := links.Link(field.level)
		if id == nil {
			continue
		}
		parent, err := s.units.FindByID(ctx, tx, *id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: unit %s does not exist", field.name, *id))
			}
			return err
		}
		if parent.Level != field.level {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: must reference a %s unit", field.name, field.level))
		}
		parents[field.level] = parent
	}

	if regional := parents[models.LevelRegional]; regional != nil && unit.RegionID != nil && regional.RegionID != nil && *regional.RegionID != *unit.RegionID {
		return appErrors.Clone(appErrors.ErrValidation, "regional_id: regional unit serves a different region")
	}
	if local := parents[models.LevelLocal]; local != nil && !sameID(local.RegionalID, unit.RegionalID) {
		return appErrors.Clone(appErrors.ErrValidation, "local_id: local unit belongs to a different regional unit")
	}
	if educational := parents[models.LevelEducational]; educational != nil {
		if !sameID(educational.RegionalID, unit.RegionalID) {
			return appErrors.Clone(appErrors.ErrValidation, "educational_id: educational unit belongs to a different regional unit")
		}
		if unit.LocalID != nil && educational.LocalID != nil && *educational.LocalID != *unit.LocalID {
			return appErrors.Clone(appErrors.ErrValidation, "educational_id: educational unit belongs to a different local unit")
		}
	}
	return nil
}

func (s *MembershipService) loadUnit(ctx context.Context, tx sqlx.ExtContext, id string) (*models.Unit, error) {
	unit, err := s.units.FindByID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unit not found")
		}
		return nil, err
	}
	return unit, nil
}

func (s *MembershipService) requireActiveUser(ctx context.Context, tx sqlx.ExtContext, userID string) error {
	if s.users == nil {
		return nil
	}
	user, err := s.users.FindByID(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return err
	}
	if !user.Active {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "user account is inactive")
	}
	return nil
}

func (s *MembershipService) loadApplication(ctx context.Context, tx sqlx.ExtContext, unitID, applicationID string) (*models.Unit, *models.Application, error) {
	unit, err := s.loadUnit(ctx, tx, unitID)
	if err != nil {
		return nil, nil, err
	}
	application, err := s.applications.FindByID(ctx, tx, unit.Level, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, nil, err
	}
	if application.UnitID != unit.ID {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
	}
	return unit, application, nil
}

func (s *MembershipService) findPosition(ctx context.Context, tx sqlx.ExtContext, level models.UnitLevel, userID string) (*models.Position, error) {
	position, err := s.positions.FindByUser(ctx, tx, level, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return position, nil
}

func normalizeID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func normalizeLinks(links models.ParentLinks) models.ParentLinks {
	return models.ParentLinks{
		CentralID:     normalizeID(links.CentralID),
		DistrictID:    normalizeID(links.DistrictID),
		RegionalID:    normalizeID(links.RegionalID),
		LocalID:       normalizeID(links.LocalID),
		EducationalID: normalizeID(links.EducationalID),
	}
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// serviceError passes typed errors through and wraps anything else as internal.
func serviceError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
