package ports

import (
	"context"

	"github.com/careguide/careguide-cli/internal/domain"
)

type RoomRepository interface {
	GetByID(ctx context.Context, id string) (domain.Room, error)
	List(ctx context.Context) ([]domain.Room, error)
	Save(ctx context.Context, room domain.Room) error
	Delete(ctx context.Context, id string) error
}
