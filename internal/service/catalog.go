package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/vetclinic-booking/internal/calendar"
	"github.com/Leganyst/vetclinic-booking/internal/model"
	"github.com/Leganyst/vetclinic-booking/internal/repository"
)

// Больше услуг клиника не заводит, весь каталог читаем одним запросом.
const maxCatalogSize = 500

// CatalogCache — кэш каталога услуг. Промах — ok=false без ошибки.
type CatalogCache interface {
	GetService(ctx context.Context, id uuid.UUID) (*model.Service, bool, error)
	SetService(ctx context.Context, svc *model.Service) error
	GetCatalog(ctx context.Context) ([]model.Service, bool, error)
	SetCatalog(ctx context.Context, services []model.Service) error
}

type CatalogService struct {
	repo        repository.ServiceRepository
	cache       CatalogCache
	gridMinutes int64
	log         *zap.Logger
}

// NewCatalogService — cache может быть nil, тогда всё читается из базы.
func NewCatalogService(
	repo repository.ServiceRepository,
	cache CatalogCache,
	gridMinutes int,
	log *zap.Logger,
) *CatalogService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogService{
		repo:        repo,
		cache:       cache,
		gridMinutes: int64(gridMinutes),
		log:         log,
	}
}

// GetService возвращает услугу по ID, NotFound если её нет.
func (s *CatalogService) GetService(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	if s.cache != nil {
		svc, ok, err := s.cache.GetService(ctx, id)
		if err != nil {
			s.log.Warn("catalog cache read failed", zap.String("service_id", id.String()), zap.Error(err))
		} else if ok {
			return svc, nil
		}
	}

	svc, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(MsgServiceNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("get service %s: %w", id, err)
	}

	if s.cache != nil {
		if err := s.cache.SetService(ctx, svc); err != nil {
			s.log.Warn("catalog cache write failed", zap.String("service_id", id.String()), zap.Error(err))
		}
	}
	return svc, nil
}

// RequiredSlots возвращает услугу и число слотов сетки, которое она занимает.
func (s *CatalogService) RequiredSlots(ctx context.Context, serviceID uuid.UUID) (*model.Service, int, error) {
	svc, err := s.GetService(ctx, serviceID)
	if err != nil {
		return nil, 0, err
	}
	return svc, svc.RequiredSlots(s.gridMinutes), nil
}

// ListActive отдаёт страницу активного каталога.
func (s *CatalogService) ListActive(ctx context.Context, page, pageSize int) (calendar.Page[model.Service], error) {
	services, err := s.activeCatalog(ctx)
	if err != nil {
		return calendar.Page[model.Service]{}, err
	}
	return calendar.Paginate(services, page, pageSize), nil
}

func (s *CatalogService) activeCatalog(ctx context.Context) ([]model.Service, error) {
	if s.cache != nil {
		services, ok, err := s.cache.GetCatalog(ctx)
		if err != nil {
			s.log.Warn("catalog cache read failed", zap.Error(err))
		} else if ok {
			return services, nil
		}
	}

	services, _, err := s.repo.List(ctx, true, maxCatalogSize, 0)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetCatalog(ctx, services); err != nil {
			s.log.Warn("catalog cache write failed", zap.Error(err))
		}
	}
	return services, nil
}
