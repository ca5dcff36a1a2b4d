package dbschema

import (
	"time"

	"answerdesk/chat-api/internal/domain/knowledge"
	"answerdesk/chat-api/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(Source{})
	database.RegisterSchemaForAutoMigrate(EmbeddingChunk{})
}

// Source represents the database schema for knowledge sources
type Source struct {
	BaseModel
	PublicID      string                 `gorm:"type:varchar(50);uniqueIndex;not null"`
	TenantID      uint                   `gorm:"index:idx_source_tenant_status;not null"`
	Tenant        Tenant                 `gorm:"foreignKey:TenantID"`
	Kind          knowledge.SourceKind   `gorm:"type:varchar(20);not null"`
	Title         string                 `gorm:"type:varchar(512);not null"`
	URI           string                 `gorm:"type:varchar(2048)"`
	Status        knowledge.SourceStatus `gorm:"type:varchar(20);index:idx_source_tenant_status;not null;default:'pending'"`
	FailureReason *string                `gorm:"type:text"`
	ChunkCount    int                    `gorm:"not null;default:0"`
	IndexedAt     *time.Time             `gorm:"type:timestamp"`
}

// EmbeddingChunk rows are the durable record behind the vector index. The
// vector itself lives in the index; the row keeps content, ordering, and the
// superseded flag used when a source is re-ingested.
type EmbeddingChunk struct {
	BaseModel
	PublicID   string `gorm:"type:varchar(50);uniqueIndex;not null"`
	TenantID   uint   `gorm:"index:idx_chunk_tenant_active;not null"`
	SourceID   uint   `gorm:"index;not null"`
	Source     Source `gorm:"foreignKey:SourceID"`
	Seq        int    `gorm:"not null"`
	Content    string `gorm:"type:text;not null"`
	Dimension  int    `gorm:"not null"`
	Superseded bool   `gorm:"index:idx_chunk_tenant_active;not null;default:false"`
}

// NewSchemaSource creates a database schema from a domain source
func NewSchemaSource(s *knowledge.Source) *Source {
	return &Source{
		BaseModel: BaseModel{
			ID:        s.ID,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		},
		PublicID:      s.PublicID,
		TenantID:      s.TenantID,
		Kind:          s.Kind,
		Title:         s.Title,
		URI:           s.URI,
		Status:        s.Status,
		FailureReason: s.FailureReason,
		ChunkCount:    s.ChunkCount,
		IndexedAt:     s.IndexedAt,
	}
}

// EtoD converts database schema to domain source (Entity to Domain)
func (s *Source) EtoD() *knowledge.Source {
	return &knowledge.Source{
		ID:             s.ID,
		PublicID:       s.PublicID,
		TenantID:       s.TenantID,
		TenantPublicID: s.Tenant.PublicID,
		Kind:           s.Kind,
		Title:          s.Title,
		URI:            s.URI,
		Status:         s.Status,
		FailureReason:  s.FailureReason,
		ChunkCount:     s.ChunkCount,
		IndexedAt:      s.IndexedAt,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

// NewSchemaEmbeddingChunk creates a database schema from a domain chunk. The
// embedding vector is not persisted here.
func NewSchemaEmbeddingChunk(c *knowledge.EmbeddingChunk) *EmbeddingChunk {
	return &EmbeddingChunk{
		BaseModel: BaseModel{
			ID:        c.ID,
			CreatedAt: c.CreatedAt,
		},
		PublicID:   c.PublicID,
		TenantID:   c.TenantID,
		SourceID:   c.SourceID,
		Seq:        c.Seq,
		Content:    c.Content,
		Dimension:  c.Dimension,
		Superseded: c.Superseded,
	}
}

// EtoD converts database schema to domain chunk (Entity to Domain)
func (c *EmbeddingChunk) EtoD() *knowledge.EmbeddingChunk {
	return &knowledge.EmbeddingChunk{
		ID:             c.ID,
		PublicID:       c.PublicID,
		TenantID:       c.TenantID,
		SourceID:       c.SourceID,
		SourcePublicID: c.Source.PublicID,
		Seq:            c.Seq,
		Content:        c.Content,
		Dimension:      c.Dimension,
		Superseded:     c.Superseded,
		CreatedAt:      c.CreatedAt,
	}
}
