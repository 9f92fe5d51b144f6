package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/vetclinic-booking/internal/calendar"
	"github.com/Leganyst/vetclinic-booking/internal/metrics"
	"github.com/Leganyst/vetclinic-booking/internal/model"
	"github.com/Leganyst/vetclinic-booking/internal/repository"
)

const (
	pathSingle = "single"
	pathMulti  = "multi"
)

// BookingOptions — параметры аллокатора.
type BookingOptions struct {
	GridMinutes  int
	MaxAttempts  int
	RetryBackoff time.Duration
	// Допустимый зазор между концом слота и началом следующего в цепочке.
	ContiguityTolerance time.Duration
}

func (o BookingOptions) withDefaults() BookingOptions {
	if o.GridMinutes <= 0 {
		o.GridMinutes = 30
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.RetryBackoff < 0 {
		o.RetryBackoff = 0
	}
	if o.ContiguityTolerance <= 0 {
		o.ContiguityTolerance = time.Minute
	}
	return o
}

// BookingRequest — заявка на запись от клиента.
type BookingRequest struct {
	SlotID     uuid.UUID
	ServiceID  uuid.UUID
	TutorName  string
	TutorPhone string
	TutorEmail string
	PetName    string
	Notes      string
}

func (r *BookingRequest) normalize() {
	r.TutorName = strings.TrimSpace(r.TutorName)
	r.TutorPhone = strings.TrimSpace(r.TutorPhone)
	r.TutorEmail = strings.TrimSpace(r.TutorEmail)
	r.PetName = strings.TrimSpace(r.PetName)
	r.Notes = strings.TrimSpace(r.Notes)
}

func (r *BookingRequest) validate() error {
	switch {
	case r.SlotID == uuid.Nil:
		return invalidRequest("horarioId es obligatorio")
	case r.ServiceID == uuid.Nil:
		return invalidRequest("servicioId es obligatorio")
	case r.TutorName == "":
		return invalidRequest("tutorNombre es obligatorio")
	case r.PetName == "":
		return invalidRequest("mascotaNombre es obligatorio")
	case r.TutorPhone == "" && r.TutorEmail == "":
		return invalidRequest(MsgContactRequired)
	}
	return nil
}

// BookingService — аллокатор слотов, отмена и смена статусов записи.
// Состояния между запросами не держит, всё решает база.
type BookingService struct {
	db       *gorm.DB
	slots    repository.SlotRepository
	bookings repository.BookingRepository
	services repository.ServiceRepository
	events   repository.EventRepository
	catalog  *CatalogService
	metrics  *metrics.BookingMetrics
	log      *zap.Logger
	opts     BookingOptions
	now      func() time.Time
}

func NewBookingService(
	db *gorm.DB,
	slots repository.SlotRepository,
	bookings repository.BookingRepository,
	services repository.ServiceRepository,
	events repository.EventRepository,
	catalog *CatalogService,
	m *metrics.BookingMetrics,
	log *zap.Logger,
	opts BookingOptions,
) *BookingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingService{
		db:       db,
		slots:    slots,
		bookings: bookings,
		services: services,
		events:   events,
		catalog:  catalog,
		metrics:  m,
		log:      log,
		opts:     opts.withDefaults(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Book создаёт запись на услугу, начиная с якорного слота req.SlotID.
// Возвращает ID записи.
func (s *BookingService) Book(ctx context.Context, req BookingRequest) (uuid.UUID, error) {
	req.normalize()
	if err := req.validate(); err != nil {
		return uuid.Nil, err
	}

	_, required, err := s.catalog.RequiredSlots(ctx, req.ServiceID)
	if err != nil {
		return uuid.Nil, err
	}

	started := time.Now()
	path := pathSingle
	var id uuid.UUID
	if required == 1 {
		id, err = s.bookSingle(ctx, req)
	} else {
		path = pathMulti
		id, err = s.bookMulti(ctx, req, required)
	}
	s.metrics.ObserveAttempt(path, outcome(err), time.Since(started))

	if err != nil {
		fields := []zap.Field{
			zap.String("slot_id", req.SlotID.String()),
			zap.String("service_id", req.ServiceID.String()),
			zap.String("path", path),
			zap.Error(err),
		}
		if KindOf(err) == KindFatal {
			s.log.Error("booking failed", fields...)
		} else {
			s.log.Info("booking rejected", fields...)
		}
		return uuid.Nil, err
	}

	s.log.Info("booking created",
		zap.String("booking_id", id.String()),
		zap.String("slot_id", req.SlotID.String()),
		zap.Int("slots", required),
	)
	return id, nil
}

// bookSingle — услуга укладывается в один слот: проверка, бронь и флаг в одной транзакции.
func (s *BookingService) bookSingle(ctx context.Context, req BookingRequest) (uuid.UUID, error) {
	var bookingID uuid.UUID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slots := s.slots.WithTx(tx)

		anchor, err := s.lockAnchor(ctx, slots, req.SlotID)
		if err != nil {
			return err
		}
		if anchor.Reserved {
			return conflict(MsgSlotTaken)
		}

		id, err := s.insertBooking(ctx, tx, req, []uuid.UUID{anchor.ID})
		if err != nil {
			return err
		}
		bookingID = id
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return uuid.Nil, conflict(MsgSlotTaken)
	}
	if err != nil {
		return uuid.Nil, err
	}
	return bookingID, nil
}

// bookMulti — цепочка из required подряд идущих слотов. Гонка за якорь
// ловится уникальным индексом, тогда вся попытка повторяется с нуля.
func (s *BookingService) bookMulti(ctx context.Context, req BookingRequest, required int) (uuid.UUID, error) {
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		id, err := s.allocateRun(ctx, req, required)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return uuid.Nil, err
		}

		s.log.Warn("slot run taken concurrently",
			zap.String("slot_id", req.SlotID.String()),
			zap.Int("attempt", attempt),
		)
		if attempt == s.opts.MaxAttempts {
			break
		}
		s.metrics.ObserveRetry()

		select {
		case <-ctx.Done():
			return uuid.Nil, fmt.Errorf("booking retry: %w", ctx.Err())
		case <-time.After(s.opts.RetryBackoff * time.Duration(attempt)):
		}
	}
	return uuid.Nil, conflict(MsgSlotTakenRetry)
}

func (s *BookingService) allocateRun(ctx context.Context, req BookingRequest, required int) (uuid.UUID, error) {
	var bookingID uuid.UUID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slots := s.slots.WithTx(tx)
		bookings := s.bookings.WithTx(tx)

		anchor, err := s.lockAnchor(ctx, slots, req.SlotID)
		if err != nil {
			return err
		}

		_, err = bookings.FindActiveByAnchor(ctx, anchor.ID)
		switch {
		case err == nil:
			return conflict(MsgSlotTaken)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("find booking by anchor: %w", err)
		}
		if anchor.Reserved {
			return conflict(MsgSlotTaken)
		}

		run, err := slots.NextRun(ctx, anchor.ProviderID, anchor.StartsAt, false, required)
		if err != nil {
			return fmt.Errorf("next run: %w", err)
		}
		if len(run) < required {
			return conflict(MsgNotEnoughSlots)
		}
		if run[0].ID != anchor.ID || calendar.FirstGap(slotRanges(run), s.opts.ContiguityTolerance) != -1 {
			return invalidState(MsgNotConsecutive)
		}

		ids := slotIDs(run)
		taken, err := bookings.ActiveSlotRefs(ctx, ids)
		if err != nil {
			return fmt.Errorf("active slot refs: %w", err)
		}
		if len(taken) > 0 {
			return conflict(MsgSlotTaken)
		}

		id, err := s.insertBooking(ctx, tx, req, ids)
		if err != nil {
			return err
		}
		bookingID = id
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return bookingID, nil
}

// lockAnchor берёт якорный слот под блокировку и проверяет, что он не в прошлом.
func (s *BookingService) lockAnchor(
	ctx context.Context,
	slots repository.SlotRepository,
	slotID uuid.UUID,
) (*model.TimeSlot, error) {
	anchor, err := slots.GetForUpdate(ctx, slotID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(MsgSlotNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("get slot %s: %w", slotID, err)
	}
	if anchor.InPast(s.now()) {
		return nil, invalidRequest(MsgSlotInPast)
	}
	return anchor, nil
}

// insertBooking пишет запись, её цепочку и событие, затем переключает флаги слотов.
// Если хоть один слот уже занят, транзакция откатывается.
func (s *BookingService) insertBooking(
	ctx context.Context,
	tx *gorm.DB,
	req BookingRequest,
	ids []uuid.UUID,
) (uuid.UUID, error) {
	booking := &model.Booking{
		SlotID:     ids[0],
		ServiceID:  req.ServiceID,
		TutorName:  req.TutorName,
		TutorPhone: req.TutorPhone,
		TutorEmail: req.TutorEmail,
		PetName:    req.PetName,
		Notes:      req.Notes,
		Status:     model.BookingStatusPending,
	}

	bookings := s.bookings.WithTx(tx)
	if err := bookings.Create(ctx, booking); err != nil {
		return uuid.Nil, fmt.Errorf("create booking: %w", err)
	}
	if err := bookings.AttachSlots(ctx, booking.ID, ids); err != nil {
		return uuid.Nil, fmt.Errorf("attach slots: %w", err)
	}

	swapped, err := s.slots.WithTx(tx).SwapReserved(ctx, ids, false, true)
	if err != nil {
		return uuid.Nil, fmt.Errorf("reserve slots: %w", err)
	}
	if swapped != int64(len(ids)) {
		return uuid.Nil, conflict(MsgSlotTaken)
	}

	err = s.events.WithTx(tx).Record(ctx, model.EventTypeBookingCreated, booking.ID, map[string]any{
		"service_id": req.ServiceID.String(),
		"slots":      uuidStrings(ids),
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("record event: %w", err)
	}
	return booking.ID, nil
}

// Get возвращает запись вместе с цепочкой слотов.
func (s *BookingService) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	b, err := s.bookings.GetWithSlots(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(MsgBookingNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", id, err)
	}
	return b, nil
}

// List отдаёт записи для админки, page с 1.
func (s *BookingService) List(
	ctx context.Context,
	f repository.BookingFilter,
	page, pageSize int,
) ([]model.Booking, int64, error) {
	if f.Status != nil && !validStatus(*f.Status) {
		return nil, 0, invalidRequest("estado no válido")
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	bookings, total, err := s.bookings.List(ctx, f, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, total, nil
}

func validStatus(st model.BookingStatus) bool {
	switch st {
	case model.BookingStatusPending, model.BookingStatusConfirmed,
		model.BookingStatusAttended, model.BookingStatusCancelled:
		return true
	}
	return false
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return KindOf(err).String()
}

func slotRanges(slots []model.TimeSlot) []calendar.TimeRange {
	out := make([]calendar.TimeRange, 0, len(slots))
	for _, sl := range slots {
		out = append(out, calendar.TimeRange{Start: sl.StartsAt, End: sl.EndsAt})
	}
	return out
}

func slotIDs(slots []model.TimeSlot) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(slots))
	for _, sl := range slots {
		out = append(out, sl.ID)
	}
	return out
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
