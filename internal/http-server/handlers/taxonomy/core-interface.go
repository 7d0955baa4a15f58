package taxonomy

import (
	"context"

	"LectureBot/entity"
)

type Core interface {
	ListEntities(ctx context.Context, kind entity.TaxonomyKind) ([]entity.Entity, error)
	AddEntity(ctx context.Context, kind entity.TaxonomyKind, name, parentID string) (*entity.Entity, error)
}
