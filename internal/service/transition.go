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

// Action — административное действие над записью.
type Action string

const (
	ActionConfirm      Action = "confirm"
	ActionMarkAttended Action = "markAttended"
)

// Откуда в какой статус ведёт действие.
var transitions = map[Action]struct {
	from model.BookingStatus
	to   model.BookingStatus
}{
	ActionConfirm:      {from: model.BookingStatusPending, to: model.BookingStatusConfirmed},
	ActionMarkAttended: {from: model.BookingStatusConfirmed, to: model.BookingStatusAttended},
}

// Transition продвигает запись по жизненному циклу. Слоты не трогает.
// Если запись уже в целевом статусе — успех без записи в базу.
func (s *BookingService) Transition(ctx context.Context, bookingID uuid.UUID, action Action) error {
	tr, ok := transitions[action]
	if !ok {
		return invalidRequest(MsgUnknownAction)
	}

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

		if b.Status == tr.to {
			noop = true
			return nil
		}
		if b.Status != tr.from {
			return invalidState(fmt.Sprintf("%s: %s → %s", MsgTransitionDenied, b.Status, tr.to))
		}

		if err := bookings.UpdateStatus(ctx, b.ID, tr.to, nil); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		err = s.events.WithTx(tx).Record(ctx, model.EventTypeBookingUpdated, b.ID, map[string]any{
			"from": string(b.Status),
			"to":   string(tr.to),
		})
		if err != nil {
			return fmt.Errorf("record event: %w", err)
		}
		return nil
	})

	switch {
	case err != nil:
		s.metrics.ObserveTransition(string(tr.to), outcome(err))
		if KindOf(err) == KindFatal {
			s.log.Error("booking transition failed",
				zap.String("booking_id", bookingID.String()),
				zap.String("action", string(action)),
				zap.Error(err),
			)
		}
		return err
	case noop:
		s.metrics.ObserveTransition(string(tr.to), "noop")
		return nil
	}

	s.metrics.ObserveTransition(string(tr.to), "ok")
	s.log.Info("booking status changed",
		zap.String("booking_id", bookingID.String()),
		zap.String("status", string(tr.to)),
	)
	return nil
}
