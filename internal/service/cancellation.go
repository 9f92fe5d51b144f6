package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/vetclinic-booking/internal/model"
)

// Cancel отменяет запись и освобождает ровно те слоты, которые она занимала.
// Повторная отмена — успех без изменений.
func (s *BookingService) Cancel(ctx context.Context, bookingID uuid.UUID) error {
	var released []uuid.UUID
	noop := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookings := s.bookings.WithTx(tx)

		b, err := bookings.GetForUpdate(ctx, bookingID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(MsgBookingNotFound, err)
		}
		if err != nil {
			return fmt.Errorf("get booking %s: %w", bookingID, err)
		}

		switch b.Status {
		case model.BookingStatusCancelled:
			noop = true
			return nil
		case model.BookingStatusAttended:
			return invalidState(MsgBookingAttended)
		}

		run, err := s.consumedRun(ctx, tx, b)
		if err != nil {
			return err
		}

		now := s.now()
		if err := bookings.UpdateStatus(ctx, b.ID, model.BookingStatusCancelled, &now); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		freed, err := s.slots.WithTx(tx).SwapReserved(ctx, run, true, false)
		if err != nil {
			return fmt.Errorf("release slots: %w", err)
		}
		if freed != int64(len(run)) {
			s.log.Warn("released fewer slots than booked",
				zap.String("booking_id", b.ID.String()),
				zap.Int("run", len(run)),
				zap.Int64("released", freed),
			)
		}
		if err := bookings.ReleaseSlots(ctx, b.ID, now); err != nil {
			return fmt.Errorf("release run: %w", err)
		}

		err = s.events.WithTx(tx).Record(ctx, model.EventTypeBookingCancelled, b.ID, map[string]any{
			"from":  string(b.Status),
			"slots": uuidStrings(run),
		})
		if err != nil {
			return fmt.Errorf("record event: %w", err)
		}

		released = run
		return nil
	})

	switch {
	case err != nil:
		s.metrics.ObserveCancellation(outcome(err))
		if KindOf(err) == KindFatal {
			s.log.Error("cancel booking failed", zap.String("booking_id", bookingID.String()), zap.Error(err))
		}
		return err
	case noop:
		s.metrics.ObserveCancellation("noop")
		return nil
	}

	s.metrics.ObserveCancellation("ok")
	s.log.Info("booking cancelled",
		zap.String("booking_id", bookingID.String()),
		zap.Int("released", len(released)),
	)
	return nil
}

// consumedRun — слоты, занятые записью. Берутся из booking_slots; для записей,
// у которых цепочка не сохранена, выводятся по провайдеру и времени якоря.
func (s *BookingService) consumedRun(ctx context.Context, tx *gorm.DB, b *model.Booking) ([]uuid.UUID, error) {
	run, err := s.bookings.WithTx(tx).RunSlotIDs(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("run slots: %w", err)
	}
	if len(run) > 0 {
		return run, nil
	}

	svc, err := s.services.WithTx(tx).GetByID(ctx, b.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("get service %s: %w", b.ServiceID, err)
	}
	required := svc.RequiredSlots(int64(s.opts.GridMinutes))

	slots := s.slots.WithTx(tx)
	anchor, err := slots.GetByID(ctx, b.SlotID)
	if err != nil {
		return nil, fmt.Errorf("get anchor %s: %w", b.SlotID, err)
	}
	derived, err := slots.NextRun(ctx, anchor.ProviderID, anchor.StartsAt, true, required)
	if err != nil {
		return nil, fmt.Errorf("derive run: %w", err)
	}

	s.log.Warn("booking without stored run, derived from anchor",
		zap.String("booking_id", b.ID.String()),
		zap.Int("derived", len(derived)),
	)
	return slotIDs(derived), nil
}
