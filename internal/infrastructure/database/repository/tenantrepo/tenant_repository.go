package tenantrepo

import (
	"context"

	"answerdesk/chat-api/internal/domain/tenant"
	"answerdesk/chat-api/internal/infrastructure/database/dbschema"
	"answerdesk/chat-api/internal/infrastructure/database/transaction"
	"answerdesk/chat-api/internal/utils/platformerrors"
)

type TenantGormRepository struct {
	db *transaction.Database
}

var _ tenant.TenantRepository = (*TenantGormRepository)(nil)

func NewTenantGormRepository(db *transaction.Database) tenant.TenantRepository {
	return &TenantGormRepository{db}
}

// FindByPublicID implements tenant.TenantRepository.
func (repo *TenantGormRepository) FindByPublicID(ctx context.Context, publicID string) (*tenant.Tenant, error) {
	var row dbschema.Tenant
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Where("public_id = ?", publicID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return row.EtoD(), nil
}

// FindByBillingClientID implements tenant.TenantRepository.
func (repo *TenantGormRepository) FindByBillingClientID(ctx context.Context, billingClientID string) (*tenant.Tenant, error) {
	var row dbschema.Tenant
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Where("billing_client_id = ?", billingClientID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return row.EtoD(), nil
}

// Create implements tenant.TenantRepository.
func (repo *TenantGormRepository) Create(ctx context.Context, t *tenant.Tenant) error {
	model := dbschema.NewSchemaTenant(t)
	if err := repo.db.GetTx(ctx).WithContext(ctx).Create(model).Error; err != nil {
		return platformerrors.AsError(platformerrors.LayerRepository, err, "failed to create tenant")
	}
	t.ID = model.ID
	t.CreatedAt = model.CreatedAt
	t.UpdatedAt = model.UpdatedAt
	return nil
}

// Update implements tenant.TenantRepository.
func (repo *TenantGormRepository) Update(ctx context.Context, t *tenant.Tenant) error {
	model := dbschema.NewSchemaTenant(t)
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Where("id = ?", t.ID).
		Save(model).Error
	if err != nil {
		return platformerrors.AsError(platformerrors.LayerRepository, err, "failed to update tenant")
	}
	t.UpdatedAt = model.UpdatedAt
	return nil
}
