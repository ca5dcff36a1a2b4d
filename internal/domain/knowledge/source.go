package knowledge

import (
	"context"
	"time"
)

type SourceKind string

const (
	SourceKindURL  SourceKind = "url"
	SourceKindPDF  SourceKind = "pdf"
	SourceKindFAQ  SourceKind = "faq"
	SourceKindText SourceKind = "text"
)

func (k SourceKind) Valid() bool {
	switch k {
	case SourceKindURL, SourceKindPDF, SourceKindFAQ, SourceKindText:
		return true
	}
	return false
}

type SourceStatus string

const (
	SourceStatusPending SourceStatus = "pending"
	SourceStatusIndexed SourceStatus = "indexed"
	SourceStatusFailed  SourceStatus = "failed"
)

// Source is one unit of ingested content belonging to exactly one tenant.
// The chat pipeline only ever reads sources in the indexed state; how the
// content was extracted (crawling, PDF parsing) is a collaborator's concern.
type Source struct {
	ID             uint         `json:"-"`
	PublicID       string       `json:"id"`
	TenantID       uint         `json:"-"`
	TenantPublicID string       `json:"-"`
	Kind           SourceKind   `json:"kind"`
	Title          string       `json:"title"`
	URI            string       `json:"uri,omitempty"`
	Status         SourceStatus `json:"status"`
	FailureReason  *string      `json:"failure_reason,omitempty"`
	ChunkCount     int          `json:"chunk_count"`
	IndexedAt      *time.Time   `json:"indexed_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

type SourceRepository interface {
	Create(ctx context.Context, s *Source) error
	FindByPublicID(ctx context.Context, tenantID uint, publicID string) (*Source, error)
	ListByTenant(ctx context.Context, tenantID uint) ([]*Source, error)
	Update(ctx context.Context, s *Source) error
}
