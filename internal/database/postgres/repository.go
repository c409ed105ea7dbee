package postgres

import (
	"context"

	"github.com/ds124wfegd/course-import/internal/entity"
)

// ImportRepositoryInterface keeps an audit trail of import attempts.
// It never stores the course draft itself.
type ImportRepositoryInterface interface {
	Record(ctx context.Context, event entity.ImportEvent) error
	Recent(ctx context.Context, limit int) ([]entity.ImportEvent, error)
}
