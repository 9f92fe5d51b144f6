package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/vetclinic-booking/internal/model"
)

// BookingFilter — фильтр для админского листинга записей.
type BookingFilter struct {
	Status *model.BookingStatus
	From   *time.Time
	To     *time.Time
}

type BookingRepository interface {
	// Создать новую запись.
	Create(ctx context.Context, booking *model.Booking) error
	// Получить запись по ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	// Получить запись по ID с блокировкой строки.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	// Получить запись вместе с цепочкой слотов (по позиции).
	GetWithSlots(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	// Активная (не отменённая) запись, у которой слот является якорем.
	FindActiveByAnchor(ctx context.Context, slotID uuid.UUID) (*model.Booking, error)
	// Какие из слотов уже входят в чью-то активную цепочку.
	ActiveSlotRefs(ctx context.Context, slotIDs []uuid.UUID) ([]uuid.UUID, error)
	// Привязать цепочку слотов к записи (позиции по порядку).
	AttachSlots(ctx context.Context, bookingID uuid.UUID, slotIDs []uuid.UUID) error
	// Неосвобождённые слоты цепочки записи по порядку.
	RunSlotIDs(ctx context.Context, bookingID uuid.UUID) ([]uuid.UUID, error)
	// Пометить цепочку записи освобождённой.
	ReleaseSlots(ctx context.Context, bookingID uuid.UUID, at time.Time) error
	// Обновить статус записи (при отмене — с cancelledAt).
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus, cancelledAt *time.Time) error
	// Список записей по фильтру с пагинацией.
	List(ctx context.Context, f BookingFilter, limit, offset int) ([]model.Booking, int64, error)

	WithTx(tx *gorm.DB) BookingRepository
}

// Реализация на GORM.
type GormBookingRepository struct {
	db *gorm.DB
}

func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

func (r *GormBookingRepository) WithTx(tx *gorm.DB) BookingRepository {
	return &GormBookingRepository{db: tx}
}

func (r *GormBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return r.db.WithContext(ctx).Omit("Slot", "Service", "Slots").Create(booking).Error
}

func (r *GormBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormBookingRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	if err := forUpdate(r.db.WithContext(ctx)).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormBookingRepository) GetWithSlots(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	err := r.db.WithContext(ctx).
		Preload("Slots", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&b, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormBookingRepository) FindActiveByAnchor(ctx context.Context, slotID uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	err := r.db.WithContext(ctx).
		Where("slot_id = ?", slotID).
		Where("status <> ?", model.BookingStatusCancelled).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormBookingRepository) ActiveSlotRefs(ctx context.Context, slotIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(slotIDs) == 0 {
		return nil, nil
	}
	var taken []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.BookingSlot{}).
		Where("slot_id IN ?", slotIDs).
		Where("released_at IS NULL").
		Pluck("slot_id", &taken).Error
	if err != nil {
		return nil, err
	}
	return taken, nil
}

func (r *GormBookingRepository) AttachSlots(ctx context.Context, bookingID uuid.UUID, slotIDs []uuid.UUID) error {
	if len(slotIDs) == 0 {
		return nil
	}
	rows := make([]model.BookingSlot, 0, len(slotIDs))
	for i, id := range slotIDs {
		rows = append(rows, model.BookingSlot{
			BookingID: bookingID,
			SlotID:    id,
			Position:  i,
		})
	}
	return r.db.WithContext(ctx).Omit("Booking", "Slot").Create(&rows).Error
}

func (r *GormBookingRepository) RunSlotIDs(ctx context.Context, bookingID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.BookingSlot{}).
		Where("booking_id = ?", bookingID).
		Where("released_at IS NULL").
		Order("position ASC").
		Pluck("slot_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *GormBookingRepository) ReleaseSlots(ctx context.Context, bookingID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.BookingSlot{}).
		Where("booking_id = ?", bookingID).
		Where("released_at IS NULL").
		Update("released_at", at).
		Error
}

func (r *GormBookingRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status model.BookingStatus,
	cancelledAt *time.Time,
) error {
	update := map[string]any{
		"status": status,
	}
	if cancelledAt != nil {
		update["cancelled_at"] = *cancelledAt
	}
	return r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("id = ?", id).
		Updates(update).
		Error
}

func (r *GormBookingRepository) List(
	ctx context.Context,
	f BookingFilter,
	limit, offset int,
) ([]model.Booking, int64, error) {
	var (
		bookings []model.Booking
		total    int64
	)

	q := r.db.WithContext(ctx).Model(&model.Booking{})
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Order("created_at DESC").Find(&bookings).Error; err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}
