package tenantrepo

import (
	"context"

	"gorm.io/gorm/clause"

	"answerdesk/chat-api/internal/domain/tenant"
	"answerdesk/chat-api/internal/infrastructure/database/dbschema"
	"answerdesk/chat-api/internal/infrastructure/database/transaction"
	"answerdesk/chat-api/internal/utils/platformerrors"
)

type ConsentGormRepository struct {
	db *transaction.Database
}

var _ tenant.ConsentRepository = (*ConsentGormRepository)(nil)

func NewConsentGormRepository(db *transaction.Database) tenant.ConsentRepository {
	return &ConsentGormRepository{db}
}

// FindBySession implements tenant.ConsentRepository.
func (repo *ConsentGormRepository) FindBySession(ctx context.Context, tenantID uint, sessionID string) (*tenant.Consent, error) {
	var row dbschema.Consent
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Where("tenant_id = ? AND session_id = ?", tenantID, sessionID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return row.EtoD(), nil
}

// Create implements tenant.ConsentRepository. Re-acceptance for the same
// session upserts the existing row so the latest terms version wins.
func (repo *ConsentGormRepository) Create(ctx context.Context, c *tenant.Consent) error {
	model := dbschema.NewSchemaConsent(c)
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"accepted", "ip_address", "user_agent", "terms_version", "updated_at"}),
		}).
		Create(model).Error
	if err != nil {
		return platformerrors.AsError(platformerrors.LayerRepository, err, "failed to record consent")
	}
	c.ID = model.ID
	c.CreatedAt = model.CreatedAt
	return nil
}
