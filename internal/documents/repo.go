package documents

import "context"

// DocumentsRepo defines persistence operations for documents.
type DocumentsRepo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, documentID string) (Document, error)
	List(ctx context.Context, limit, offset int) ([]Document, error)
	All(ctx context.Context) ([]Document, error)
	Update(ctx context.Context, doc Document) error
	Delete(ctx context.Context, documentID string) error
}
