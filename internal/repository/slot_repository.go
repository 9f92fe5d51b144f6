package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/vetclinic-booking/internal/model"
)

// SlotFilter — параметры выборки слотов для публичного листинга.
type SlotFilter struct {
	ProviderID    *uuid.UUID
	SlotID        *uuid.UUID
	From          *time.Time
	To            *time.Time
	OnlyAvailable bool
	Limit         int
}

type SlotRepository interface {
	// Выборка слотов по фильтру, по возрастанию начала.
	List(ctx context.Context, f SlotFilter) ([]model.TimeSlot, error)
	// Все слоты провайдера, пересекающие интервал.
	ListByProviderRange(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]model.TimeSlot, error)
	// Найти слот по ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.TimeSlot, error)
	// Найти слот по ID с блокировкой строки до конца транзакции.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.TimeSlot, error)
	// До limit слотов провайдера с заданным флагом, начиная с from, по возрастанию.
	NextRun(ctx context.Context, providerID uuid.UUID, from time.Time, reserved bool, limit int) ([]model.TimeSlot, error)
	// Переключить флаг reserved у пачки слотов: from -> to. Возвращает число изменённых строк.
	SwapReserved(ctx context.Context, ids []uuid.UUID, from, to bool) (int64, error)
	// Создать слоты пачкой.
	CreateBatch(ctx context.Context, slots []model.TimeSlot) error

	WithTx(tx *gorm.DB) SlotRepository
}

// Реализация на GORM.
type GormSlotRepository struct {
	db *gorm.DB
}

func NewGormSlotRepository(db *gorm.DB) *GormSlotRepository {
	return &GormSlotRepository{db: db}
}

func (r *GormSlotRepository) WithTx(tx *gorm.DB) SlotRepository {
	return &GormSlotRepository{db: tx}
}

func (r *GormSlotRepository) List(ctx context.Context, f SlotFilter) ([]model.TimeSlot, error) {
	q := r.db.WithContext(ctx).Model(&model.TimeSlot{})

	if f.SlotID != nil {
		q = q.Where("id = ?", *f.SlotID)
	}
	if f.ProviderID != nil {
		q = q.Where("provider_id = ?", *f.ProviderID)
	}
	if f.From != nil {
		q = q.Where("starts_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("starts_at < ?", *f.To)
	}
	if f.OnlyAvailable {
		q = q.Where("reserved = ?", false)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var slots []model.TimeSlot
	if err := q.Order("starts_at ASC").Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *GormSlotRepository) ListByProviderRange(
	ctx context.Context,
	providerID uuid.UUID,
	from, to time.Time,
) ([]model.TimeSlot, error) {
	var slots []model.TimeSlot
	err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Where("starts_at < ? AND ends_at > ?", to, from).
		Order("starts_at ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *GormSlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TimeSlot, error) {
	var slot model.TimeSlot
	if err := r.db.WithContext(ctx).First(&slot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *GormSlotRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.TimeSlot, error) {
	var slot model.TimeSlot
	if err := forUpdate(r.db.WithContext(ctx)).First(&slot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *GormSlotRepository) NextRun(
	ctx context.Context,
	providerID uuid.UUID,
	from time.Time,
	reserved bool,
	limit int,
) ([]model.TimeSlot, error) {
	var slots []model.TimeSlot
	err := forUpdate(r.db.WithContext(ctx)).
		Where("provider_id = ?", providerID).
		Where("reserved = ?", reserved).
		Where("starts_at >= ?", from).
		Order("starts_at ASC").
		Limit(limit).
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *GormSlotRepository) SwapReserved(ctx context.Context, ids []uuid.UUID, from, to bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx := r.db.WithContext(ctx).
		Model(&model.TimeSlot{}).
		Where("id IN ?", ids).
		Where("reserved = ?", from).
		Update("reserved", to)
	return tx.RowsAffected, tx.Error
}

func (r *GormSlotRepository) CreateBatch(ctx context.Context, slots []model.TimeSlot) error {
	if len(slots) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&slots, 100).Error
}
