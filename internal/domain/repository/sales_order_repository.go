package repository

import (
	"context"
	"time"

	"github.com/breakretail/backoffice-api/internal/domain/entity"
	"github.com/breakretail/backoffice-api/pkg/pagination"
	"github.com/google/uuid"
)

// SalesOrderRepository defines the interface for sales order data operations
type SalesOrderRepository interface {
	// Create persists the order together with its lines in one transaction
	Create(ctx context.Context, order *entity.SalesOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.SalesOrder, error)
	GetByNumber(ctx context.Context, number string) (*entity.SalesOrder, error)
	List(ctx context.Context, params *SalesOrderFilterParams) ([]entity.SalesOrder, int64, error)
}

// SalesOrderFilterParams contains filtering parameters for sales order queries
type SalesOrderFilterParams struct {
	Pagination *pagination.PaginationParams
	LocationID *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
	SortOrder  string
}
