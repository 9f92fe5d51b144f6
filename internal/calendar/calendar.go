package calendar

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrSlotDuration     = errors.New("slot duration must be positive")
)

// TimeRange представляет временной интервал [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// NormalizeTimeRange нормализует интервал:
//   - меняет местами границы, если они перепутаны;
//   - переводит в заданный часовой пояс loc;
//   - при превышении maxDuration обрезает интервал до start+maxDuration.
//
// Если maxDuration <= 0, ограничение по длительности не применяется.
func NormalizeTimeRange(
	start, end time.Time,
	loc *time.Location,
	maxDuration time.Duration,
) (TimeRange, error) {
	if start.IsZero() || end.IsZero() {
		return TimeRange{}, ErrInvalidTimeRange
	}

	if end.Before(start) {
		start, end = end, start
	}

	if loc != nil {
		start = start.In(loc)
		end = end.In(loc)
	}

	if maxDuration > 0 && end.Sub(start) > maxDuration {
		end = start.Add(maxDuration)
	}

	if !end.After(start) {
		return TimeRange{}, ErrInvalidTimeRange
	}

	return TimeRange{Start: start, End: end}, nil
}

// SplitToTimeSlots разбивает интервал на слоты фиксированной длительности.
// alignMinutes > 0 — выравнивание начала по ближайшей отметке, кратной alignMinutes.
// "Хвост" меньшей длительности, чем slotDuration, отбрасывается.
func SplitToTimeSlots(
	tr TimeRange,
	slotDuration time.Duration,
	alignMinutes int,
) ([]TimeRange, error) {
	if slotDuration <= 0 {
		return nil, ErrSlotDuration
	}
	if !tr.End.After(tr.Start) {
		return []TimeRange{}, nil
	}

	start := tr.Start

	if alignMinutes > 0 {
		min := start.Minute()
		rem := min % alignMinutes
		if rem != 0 || start.Second() != 0 || start.Nanosecond() != 0 {
			delta := alignMinutes - rem
			if rem == 0 {
				delta = alignMinutes
			}
			start = time.Date(
				start.Year(),
				start.Month(),
				start.Day(),
				start.Hour(),
				min+delta,
				0, 0,
				start.Location(),
			)
			if !start.Before(tr.End) {
				return []TimeRange{}, nil
			}
		}
	}

	var slots []TimeRange
	for cur := start; ; cur = cur.Add(slotDuration) {
		slotEnd := cur.Add(slotDuration)
		if slotEnd.After(tr.End) {
			break
		}
		slots = append(slots, TimeRange{Start: cur, End: slotEnd})
	}

	return slots, nil
}

// HasOverlap проверяет, пересекается ли newRange с existing.
// inclusive = true — касание концами считается пересечением.
func HasOverlap(
	newRange TimeRange,
	existing []TimeRange,
	inclusive bool,
) (bool, []TimeRange) {
	var conflicts []TimeRange

	for _, tr := range existing {
		if rangesOverlap(newRange, tr, inclusive) {
			conflicts = append(conflicts, tr)
		}
	}

	return len(conflicts) > 0, conflicts
}

func rangesOverlap(a, b TimeRange, inclusive bool) bool {
	if inclusive {
		return !a.Start.After(b.End) && !b.Start.After(a.End)
	}

	// Полуоткрытые интервалы [Start, End)
	// пересекаются, если a.Start < b.End && b.Start < a.End
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// FirstGap возвращает индекс первого интервала, который начинается позже
// конца предыдущего больше чем на tolerance. -1 — цепочка непрерывна.
// Нахлёст (следующий начинается раньше конца предыдущего) тоже разрыв.
func FirstGap(ranges []TimeRange, tolerance time.Duration) int {
	for i := 1; i < len(ranges); i++ {
		gap := ranges[i].Start.Sub(ranges[i-1].End)
		if gap < 0 || gap > tolerance {
			return i
		}
	}
	return -1
}

// ===== Повторяющиеся окна =====

type RecurrenceFrequency int

const (
	FreqDaily RecurrenceFrequency = iota
	FreqWeekly
)

// RecurringRule — рабочее окно, повторяющееся по дням или неделям.
type RecurringRule struct {
	Freq      RecurrenceFrequency
	Interval  int            // каждые Interval дней/недель, >= 1
	Weekdays  []time.Weekday // только для FreqWeekly
	StartTime time.Time      // начало первого окна, задаёт часовой пояс
	Duration  time.Duration
	// Закрытые даты (праздники, отпуск). Ключ — полночь даты в поясе StartTime.
	Exceptions map[time.Time]struct{}
}

// ExpandRecurringRule разворачивает правило в окна, пересекающие window.
func ExpandRecurringRule(rule RecurringRule, window TimeRange) ([]TimeRange, error) {
	if rule.Duration <= 0 {
		return nil, errors.New("recurring rule: duration must be positive")
	}
	if rule.StartTime.IsZero() {
		return nil, errors.New("recurring rule: StartTime is required")
	}
	if rule.Interval <= 0 {
		rule.Interval = 1
	}
	if !window.End.After(window.Start) {
		return []TimeRange{}, nil
	}

	var out []TimeRange
	firstDay := dateOnly(rule.StartTime)

	for cur := rule.StartTime; cur.Before(window.End); cur = nextOccurrence(rule, cur) {
		if !rule.matches(cur, firstDay) {
			continue
		}
		occ := TimeRange{Start: cur, End: cur.Add(rule.Duration)}
		if rangesOverlap(occ, window, false) {
			out = append(out, occ)
		}
	}
	return out, nil
}

func (rule RecurringRule) matches(cur, firstDay time.Time) bool {
	if isException(rule, cur) {
		return false
	}
	if rule.Freq != FreqWeekly {
		return true
	}
	if len(rule.Weekdays) > 0 && !containsWeekday(rule.Weekdays, cur.Weekday()) {
		return false
	}
	days := int(math.Round(dateOnly(cur).Sub(firstDay).Hours() / 24))
	return (days/7)%rule.Interval == 0
}

func nextOccurrence(rule RecurringRule, cur time.Time) time.Time {
	switch rule.Freq {
	case FreqWeekly:
		if len(rule.Weekdays) > 0 {
			// Перебираем дни, фильтр по дням недели выше.
			return cur.AddDate(0, 0, 1)
		}
		return cur.AddDate(0, 0, 7*rule.Interval)
	default:
		return cur.AddDate(0, 0, rule.Interval)
	}
}

func containsWeekday(list []time.Weekday, w time.Weekday) bool {
	for _, d := range list {
		if d == w {
			return true
		}
	}
	return false
}

func isException(rule RecurringRule, t time.Time) bool {
	if rule.Exceptions == nil {
		return false
	}
	_, ok := rule.Exceptions[dateOnly(t)]
	return ok
}

func dateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// ===== Форматирование слота для клиента =====

var esWeekdays = map[time.Weekday]string{
	time.Monday:    "Lunes",
	time.Tuesday:   "Martes",
	time.Wednesday: "Miércoles",
	time.Thursday:  "Jueves",
	time.Friday:    "Viernes",
	time.Saturday:  "Sábado",
	time.Sunday:    "Domingo",
}

// FormatSlotForUser форматирует интервал в человекочитаемую строку
// ("Miércoles, 01/01/2025, 10:00–10:30").
// Если loc != nil, время переводится в указанный часовой пояс.
// Если includeID = true, в конце добавляется идентификатор слота в скобках.
func FormatSlotForUser(
	tr TimeRange,
	loc *time.Location,
	includeID bool,
	slotID string,
) string {
	start := tr.Start
	end := tr.End

	if loc != nil {
		start = start.In(loc)
		end = end.In(loc)
	}

	base := fmt.Sprintf("%s, %s, %s–%s",
		esWeekdays[start.Weekday()],
		start.Format("02/01/2006"),
		start.Format("15:04"),
		end.Format("15:04"),
	)

	if includeID && slotID != "" {
		return fmt.Sprintf("%s (ID: %s)", base, slotID)
	}

	return base
}
