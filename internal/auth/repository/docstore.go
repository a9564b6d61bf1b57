package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/repairshop-service/internal/docstore"
	"github.com/fekuna/repairshop-service/internal/model"
)

const StaffCollection = "staff"

type DocRepository struct {
	Store docstore.Store
}

func NewDocRepository(store docstore.Store) *DocRepository {
	return &DocRepository{Store: store}
}

func (r *DocRepository) FindByEmail(ctx context.Context, email string) (*model.Staff, error) {
	docs, err := r.Store.Query(ctx, docstore.Query{
		Collection: StaffCollection,
		Where:      []docstore.Filter{{Field: "email", Value: normalizeEmail(email)}},
		Limit:      1,
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("staff %s: %w", email, docstore.ErrNotFound)
	}
	return staffFromDocument(docs[0]), nil
}

func (r *DocRepository) FindByID(ctx context.Context, id string) (*model.Staff, error) {
	doc, err := r.Store.Get(ctx, StaffCollection, id)
	if err != nil {
		return nil, err
	}
	return staffFromDocument(*doc), nil
}

func (r *DocRepository) Create(ctx context.Context, s *model.Staff) error {
	batch := r.Store.Batch()
	batch.Set(StaffCollection, s.ID, map[string]any{
		"email":        normalizeEmail(s.Email),
		"displayName":  s.DisplayName,
		"role":         s.Role,
		"passwordHash": s.PasswordHash,
		"createdAt":    docstore.FormatTime(s.CreatedAt),
	}, false)
	return batch.Commit(ctx)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func staffFromDocument(doc docstore.Document) *model.Staff {
	s := &model.Staff{ID: doc.ID}
	s.Email, _ = docstore.String(doc.Data, "email")
	s.DisplayName, _ = docstore.String(doc.Data, "displayName")
	s.Role, _ = docstore.String(doc.Data, "role")
	s.PasswordHash, _ = docstore.String(doc.Data, "passwordHash")
	s.CreatedAt, _ = docstore.Time(doc.Data, "createdAt")
	return s
}
