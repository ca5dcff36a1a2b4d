package knowledgerepo

import (
	"context"

	"answerdesk/chat-api/internal/domain/knowledge"
	"answerdesk/chat-api/internal/infrastructure/database/dbschema"
	"answerdesk/chat-api/internal/infrastructure/database/transaction"
	"answerdesk/chat-api/internal/utils/functional"
	"answerdesk/chat-api/internal/utils/platformerrors"
)

type ChunkGormRepository struct {
	db *transaction.Database
}

var _ knowledge.ChunkRepository = (*ChunkGormRepository)(nil)

func NewChunkGormRepository(db *transaction.Database) knowledge.ChunkRepository {
	return &ChunkGormRepository{db}
}

// BulkCreate implements knowledge.ChunkRepository.
func (repo *ChunkGormRepository) BulkCreate(ctx context.Context, chunks []*knowledge.EmbeddingChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := functional.Map(chunks, func(c *knowledge.EmbeddingChunk) *dbschema.EmbeddingChunk {
		return dbschema.NewSchemaEmbeddingChunk(c)
	})
	err := repo.db.GetTx(ctx).WithContext(ctx).
		CreateInBatches(models, 200).Error
	if err != nil {
		return platformerrors.AsError(platformerrors.LayerRepository, err, "failed to create chunks")
	}
	for i, model := range models {
		chunks[i].ID = model.ID
		chunks[i].CreatedAt = model.CreatedAt
	}
	return nil
}

// SupersedeBySource implements knowledge.ChunkRepository. Chunks are never
// deleted; superseding keeps the ingest history auditable.
func (repo *ChunkGormRepository) SupersedeBySource(ctx context.Context, sourceID uint) error {
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Model(&dbschema.EmbeddingChunk{}).
		Where("source_id = ? AND superseded = false", sourceID).
		Update("superseded", true).Error
	if err != nil {
		return platformerrors.AsError(platformerrors.LayerRepository, err, "failed to supersede chunks")
	}
	return nil
}

// CountActiveByTenant implements knowledge.ChunkRepository.
func (repo *ChunkGormRepository) CountActiveByTenant(ctx context.Context, tenantID uint) (int64, error) {
	var count int64
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Model(&dbschema.EmbeddingChunk{}).
		Where("tenant_id = ? AND superseded = false", tenantID).
		Count(&count).Error
	if err != nil {
		return 0, platformerrors.AsError(platformerrors.LayerRepository, err, "failed to count chunks")
	}
	return count, nil
}
