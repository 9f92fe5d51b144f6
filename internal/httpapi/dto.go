package httpapi

import (
	"time"

	"github.com/Leganyst/vetclinic-booking/internal/calendar"
	"github.com/Leganyst/vetclinic-booking/internal/model"
)

type createBookingRequest struct {
	HorarioID     string `json:"horarioId"`
	ServicioID    string `json:"servicioId"`
	TutorNombre   string `json:"tutorNombre"`
	TutorTelefono string `json:"tutorTelefono"`
	TutorEmail    string `json:"tutorEmail"`
	MascotaNombre string `json:"mascotaNombre"`
	Notas         string `json:"notas"`
}

type createBookingResponse struct {
	OK     bool   `json:"ok"`
	CitaID string `json:"citaId"`
}

type updateBookingRequest struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type slotDTO struct {
	ID            string    `json:"id"`
	VeterinarioID string    `json:"veterinarioId"`
	Inicio        time.Time `json:"inicio"`
	Fin           time.Time `json:"fin"`
	Reservado     bool      `json:"reservado"`
	Etiqueta      string    `json:"etiqueta"`
}

func toSlotDTO(s model.TimeSlot, loc *time.Location) slotDTO {
	return slotDTO{
		ID:            s.ID.String(),
		VeterinarioID: s.ProviderID.String(),
		Inicio:        s.StartsAt,
		Fin:           s.EndsAt,
		Reservado:     s.Reserved,
		Etiqueta:      calendar.FormatSlotForUser(calendar.TimeRange{Start: s.StartsAt, End: s.EndsAt}, loc, false, ""),
	}
}

type serviceDTO struct {
	ID              string `json:"id"`
	Nombre          string `json:"nombre"`
	Descripcion     string `json:"descripcion,omitempty"`
	DuracionMinutos int64  `json:"duracionMinutos"`
}

func toServiceDTO(s model.Service) serviceDTO {
	return serviceDTO{
		ID:              s.ID.String(),
		Nombre:          s.Name,
		Descripcion:     s.Description,
		DuracionMinutos: s.DurationMin,
	}
}

type bookingDTO struct {
	ID            string     `json:"id"`
	HorarioID     string     `json:"horarioId"`
	ServicioID    string     `json:"servicioId"`
	TutorNombre   string     `json:"tutorNombre"`
	TutorTelefono string     `json:"tutorTelefono,omitempty"`
	TutorEmail    string     `json:"tutorEmail,omitempty"`
	MascotaNombre string     `json:"mascotaNombre"`
	Notas         string     `json:"notas,omitempty"`
	Estado        string     `json:"estado"`
	CreadaEn      time.Time  `json:"creadaEn"`
	CanceladaEn   *time.Time `json:"canceladaEn,omitempty"`
	Horarios      []string   `json:"horarios,omitempty"`
}

func toBookingDTO(b model.Booking) bookingDTO {
	dto := bookingDTO{
		ID:            b.ID.String(),
		HorarioID:     b.SlotID.String(),
		ServicioID:    b.ServiceID.String(),
		TutorNombre:   b.TutorName,
		TutorTelefono: b.TutorPhone,
		TutorEmail:    b.TutorEmail,
		MascotaNombre: b.PetName,
		Notas:         b.Notes,
		Estado:        string(b.Status),
		CreadaEn:      b.CreatedAt,
		CanceladaEn:   b.CancelledAt,
	}
	for _, s := range b.Slots {
		dto.Horarios = append(dto.Horarios, s.SlotID.String())
	}
	return dto
}
