package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/vetclinic-booking/internal/calendar"
	"github.com/Leganyst/vetclinic-booking/internal/model"
	"github.com/Leganyst/vetclinic-booking/internal/repository"
)

const (
	defaultSlotListLimit = 100
	maxSlotListLimit     = 500
)

// SlotQuery — параметры публичного листинга слотов.
type SlotQuery struct {
	ProviderID    *uuid.UUID
	SlotID        *uuid.UUID
	From          *time.Time
	To            *time.Time
	OnlyAvailable bool
	Limit         int
}

// SlotService — чтение сетки слотов и её нарезка из расписаний.
type SlotService struct {
	slots       repository.SlotRepository
	schedules   repository.ScheduleRepository
	providers   repository.ProviderRepository
	gridMinutes int
	maxWindow   time.Duration
	log         *zap.Logger
}

func NewSlotService(
	slots repository.SlotRepository,
	schedules repository.ScheduleRepository,
	providers repository.ProviderRepository,
	gridMinutes int,
	maxWindow time.Duration,
	log *zap.Logger,
) *SlotService {
	if log == nil {
		log = zap.NewNop()
	}
	if gridMinutes <= 0 {
		gridMinutes = 30
	}
	return &SlotService{
		slots:       slots,
		schedules:   schedules,
		providers:   providers,
		gridMinutes: gridMinutes,
		maxWindow:   maxWindow,
		log:         log,
	}
}

func (s *SlotService) List(ctx context.Context, q SlotQuery) ([]model.TimeSlot, error) {
	f := repository.SlotFilter{
		ProviderID:    q.ProviderID,
		SlotID:        q.SlotID,
		From:          q.From,
		To:            q.To,
		OnlyAvailable: q.OnlyAvailable,
		Limit:         q.Limit,
	}

	if q.From != nil && q.To != nil {
		tr, err := calendar.NormalizeTimeRange(*q.From, *q.To, time.UTC, s.maxWindow)
		if err != nil {
			return nil, invalidRequest("rango de fechas no válido")
		}
		f.From, f.To = &tr.Start, &tr.End
	}

	if f.Limit <= 0 {
		f.Limit = defaultSlotListLimit
	}
	if f.Limit > maxSlotListLimit {
		f.Limit = maxSlotListLimit
	}

	slots, err := s.slots.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

// Generate нарезает слоты сетки из расписаний провайдера на интервале [from, to).
// Слоты, пересекающиеся с уже существующими, пропускаются. Возвращает число созданных.
func (s *SlotService) Generate(ctx context.Context, providerID uuid.UUID, from, to time.Time) (int, error) {
	if _, err := s.providers.GetByID(ctx, providerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, notFound("el veterinario no existe", err)
		}
		return 0, fmt.Errorf("get provider %s: %w", providerID, err)
	}

	window, err := calendar.NormalizeTimeRange(from, to, time.UTC, s.maxWindow)
	if err != nil {
		return 0, invalidRequest("rango de fechas no válido")
	}

	schedules, err := s.schedules.ListByProvider(ctx, providerID)
	if err != nil {
		return 0, fmt.Errorf("list schedules: %w", err)
	}

	existingSlots, err := s.slots.ListByProviderRange(ctx, providerID, window.Start, window.End)
	if err != nil {
		return 0, fmt.Errorf("list existing slots: %w", err)
	}
	occupied := slotRanges(existingSlots)

	grid := time.Duration(s.gridMinutes) * time.Minute
	var created []model.TimeSlot

	for i := range schedules {
		sch := &schedules[i]
		ranges, err := s.scheduleWindows(sch, window)
		if err != nil {
			return 0, err
		}

		for _, r := range ranges {
			cells, err := calendar.SplitToTimeSlots(r, grid, s.gridMinutes)
			if err != nil {
				return 0, fmt.Errorf("split schedule %s: %w", sch.ID, err)
			}
			for _, c := range cells {
				if c.Start.Before(window.Start) || c.End.After(window.End) {
					continue
				}
				if overlap, _ := calendar.HasOverlap(c, occupied, false); overlap {
					continue
				}
				created = append(created, model.TimeSlot{
					ScheduleID: &sch.ID,
					ProviderID: providerID,
					StartsAt:   c.Start.UTC(),
					EndsAt:     c.End.UTC(),
				})
				occupied = append(occupied, c)
			}
		}
	}

	if err := s.slots.CreateBatch(ctx, created); err != nil {
		return 0, fmt.Errorf("create slots: %w", err)
	}

	s.log.Info("slots generated",
		zap.String("provider_id", providerID.String()),
		zap.Time("from", window.Start),
		zap.Time("to", window.End),
		zap.Int("created", len(created)),
	)
	return len(created), nil
}

// scheduleWindows разворачивает правила расписания в рабочие окна внутри window.
func (s *SlotService) scheduleWindows(sch *model.Schedule, window calendar.TimeRange) ([]calendar.TimeRange, error) {
	loc, err := sch.Location()
	if err != nil {
		return nil, fmt.Errorf("schedule %s: time zone %q: %w", sch.ID, sch.TimeZone, err)
	}
	rules, err := sch.ParseRules()
	if err != nil {
		return nil, err
	}

	bounded := window
	if sch.StartDate != nil {
		if start := dayStart(time.Time(*sch.StartDate), loc); start.After(bounded.Start) {
			bounded.Start = start
		}
	}
	if sch.EndDate != nil {
		if end := dayStart(time.Time(*sch.EndDate), loc).AddDate(0, 0, 1); end.Before(bounded.End) {
			bounded.End = end
		}
	}
	if !bounded.End.After(bounded.Start) {
		return nil, nil
	}

	var out []calendar.TimeRange
	for _, rule := range rules {
		startH, startM, err := parseClock(rule.Start)
		if err != nil {
			return nil, fmt.Errorf("schedule %s: %w", sch.ID, err)
		}
		endH, endM, err := parseClock(rule.End)
		if err != nil {
			return nil, fmt.Errorf("schedule %s: %w", sch.ID, err)
		}

		closed, err := closedDates(rule.Closed, loc)
		if err != nil {
			return nil, fmt.Errorf("schedule %s: %w", sch.ID, err)
		}

		first := bounded.Start.In(loc)
		startAt := time.Date(first.Year(), first.Month(), first.Day(), startH, startM, 0, 0, loc)
		endAt := time.Date(first.Year(), first.Month(), first.Day(), endH, endM, 0, 0, loc)

		expanded, err := calendar.ExpandRecurringRule(calendar.RecurringRule{
			Freq:       calendar.FreqWeekly,
			Interval:   rule.Interval,
			Weekdays:   rule.Weekdays,
			StartTime:  startAt,
			Duration:   endAt.Sub(startAt),
			Exceptions: closed,
		}, bounded)
		if err != nil {
			return nil, fmt.Errorf("schedule %s: %w", sch.ID, err)
		}
		out = append(out, expanded...)
	}
	return out, nil
}

func dayStart(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// closedDates — закрытые даты правила как полночь в поясе расписания.
func closedDates(dates []string, loc *time.Location) (map[time.Time]struct{}, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	out := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		t, err := time.Parse(time.DateOnly, d)
		if err != nil {
			return nil, fmt.Errorf("invalid closed date %q: %w", d, err)
		}
		out[dayStart(t, loc)] = struct{}{}
	}
	return out, nil
}

func parseClock(v string) (int, int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock %q: %w", v, err)
	}
	return t.Hour(), t.Minute(), nil
}
