package httpapi

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/vetclinic-booking/internal/calendar"
	"github.com/Leganyst/vetclinic-booking/internal/model"
	"github.com/Leganyst/vetclinic-booking/internal/repository"
	"github.com/Leganyst/vetclinic-booking/internal/service"
)

type BookingEngine interface {
	Book(ctx context.Context, req service.BookingRequest) (uuid.UUID, error)
	Cancel(ctx context.Context, bookingID uuid.UUID) error
	Transition(ctx context.Context, bookingID uuid.UUID, action service.Action) error
	Get(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	List(ctx context.Context, f repository.BookingFilter, page, pageSize int) ([]model.Booking, int64, error)
}

type SlotLister interface {
	List(ctx context.Context, q service.SlotQuery) ([]model.TimeSlot, error)
}

type CatalogReader interface {
	ListActive(ctx context.Context, page, pageSize int) (calendar.Page[model.Service], error)
}

// Handler — HTTP-обработчики API записи.
type Handler struct {
	bookings BookingEngine
	slots    SlotLister
	catalog  CatalogReader
	loc      *time.Location
	logger   *zap.Logger
}

func NewHandler(
	bookings BookingEngine,
	slots SlotLister,
	catalog CatalogReader,
	loc *time.Location,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		bookings: bookings,
		slots:    slots,
		catalog:  catalog,
		loc:      loc,
		logger:   logger,
	}
}
