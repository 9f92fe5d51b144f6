package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// schedules — рабочее расписание ветеринара, из которого нарезаются слоты.
type Schedule struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	ProviderID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Чистые даты без времени — datatypes.Date
	StartDate *datatypes.Date `gorm:"type:date"`
	EndDate   *datatypes.Date `gorm:"type:date"`

	TimeZone string `gorm:"type:varchar(64);not null;default:'UTC'"`

	// Правила рабочих окон в виде JSON (JSONB в Postgres), см. ScheduleRule.
	Rules datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Provider *Provider `gorm:"foreignKey:ProviderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// ScheduleRule — одно рабочее окно: по каким дням недели, с какого и до какого часа.
type ScheduleRule struct {
	Weekdays []time.Weekday `json:"weekdays"`
	Start    string         `json:"start"` // "09:00"
	End      string         `json:"end"`   // "13:30"
	// Каждые Interval недель, по умолчанию 1.
	Interval int `json:"interval,omitempty"`
	// Даты, когда окно не работает: "2030-12-25".
	Closed []string `json:"closed,omitempty"`
}

// ParseRules разбирает JSON правил расписания.
func (s *Schedule) ParseRules() ([]ScheduleRule, error) {
	if len(s.Rules) == 0 {
		return nil, nil
	}
	var rules []ScheduleRule
	if err := json.Unmarshal(s.Rules, &rules); err != nil {
		return nil, fmt.Errorf("schedule %s: parse rules: %w", s.ID, err)
	}
	return rules, nil
}

// Location возвращает часовой пояс расписания, UTC по умолчанию.
func (s *Schedule) Location() (*time.Location, error) {
	if s.TimeZone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.TimeZone)
}
