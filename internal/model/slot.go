package model

import (
	"time"

	"github.com/google/uuid"
)

// time_slots — ячейка сетки расписания ветеринара.
// Reserved = true тогда и только тогда, когда слот входит в цепочку
// ровно одной активной записи.
type TimeSlot struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	ScheduleID *uuid.UUID `gorm:"type:uuid;index"`
	ProviderID uuid.UUID  `gorm:"type:uuid;not null;index:idx_time_slots_provider_start,priority:1"`

	StartsAt time.Time `gorm:"type:timestamp with time zone;not null;index:idx_time_slots_provider_start,priority:2"`
	EndsAt   time.Time `gorm:"type:timestamp with time zone;not null"`

	Reserved bool `gorm:"not null;default:false;index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Schedule *Schedule `gorm:"foreignKey:ScheduleID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Provider *Provider `gorm:"foreignKey:ProviderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// InPast — слот начинается раньше now.
func (s *TimeSlot) InPast(now time.Time) bool {
	return s.StartsAt.Before(now)
}
