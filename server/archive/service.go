package archive

import (
	"context"
	"log/slog"
)

type Service interface {
	Archive(ctx context.Context, entity *Entity) error
	All(ctx context.Context) ([]Entity, error)
}

type service struct {
	repository Repository
}

func NewService(r Repository) Service {
	return &service{repository: r}
}

// Archive implements Service.
func (s *service) Archive(ctx context.Context, entity *Entity) error {
	if err := s.repository.Archive(ctx, entity); err != nil {
		return err
	}

	slog.Info("archived download",
		slog.String("id", entity.Id),
		slog.String("title", entity.Title),
		slog.String("source", entity.Source),
	)

	return nil
}

// All implements Service.
func (s *service) All(ctx context.Context) ([]Entity, error) {
	return s.repository.All(ctx)
}
