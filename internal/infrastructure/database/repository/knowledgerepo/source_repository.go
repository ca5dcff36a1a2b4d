package knowledgerepo

import (
	"context"

	"answerdesk/chat-api/internal/domain/knowledge"
	"answerdesk/chat-api/internal/infrastructure/database/dbschema"
	"answerdesk/chat-api/internal/infrastructure/database/transaction"
	"answerdesk/chat-api/internal/utils/functional"
	"answerdesk/chat-api/internal/utils/platformerrors"
)

type SourceGormRepository struct {
	db *transaction.Database
}

var _ knowledge.SourceRepository = (*SourceGormRepository)(nil)

func NewSourceGormRepository(db *transaction.Database) knowledge.SourceRepository {
	return &SourceGormRepository{db}
}

// Create implements knowledge.SourceRepository.
func (repo *SourceGormRepository) Create(ctx context.Context, s *knowledge.Source) error {
	model := dbschema.NewSchemaSource(s)
	if err := repo.db.GetTx(ctx).WithContext(ctx).Create(model).Error; err != nil {
		return platformerrors.AsError(platformerrors.LayerRepository, err, "failed to create source")
	}
	s.ID = model.ID
	s.CreatedAt = model.CreatedAt
	s.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByPublicID implements knowledge.SourceRepository.
func (repo *SourceGormRepository) FindByPublicID(ctx context.Context, tenantID uint, publicID string) (*knowledge.Source, error) {
	var row dbschema.Source
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Preload("Tenant").
		Where("tenant_id = ? AND public_id = ?", tenantID, publicID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return row.EtoD(), nil
}

// ListByTenant implements knowledge.SourceRepository.
func (repo *SourceGormRepository) ListByTenant(ctx context.Context, tenantID uint) ([]*knowledge.Source, error) {
	var rows []*dbschema.Source
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.AsError(platformerrors.LayerRepository, err, "failed to list sources")
	}
	return functional.Map(rows, func(row *dbschema.Source) *knowledge.Source {
		return row.EtoD()
	}), nil
}

// Update implements knowledge.SourceRepository.
func (repo *SourceGormRepository) Update(ctx context.Context, s *knowledge.Source) error {
	model := dbschema.NewSchemaSource(s)
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Where("id = ?", s.ID).
		Save(model).Error
	if err != nil {
		return platformerrors.AsError(platformerrors.LayerRepository, err, "failed to update source")
	}
	s.UpdatedAt = model.UpdatedAt
	return nil
}
