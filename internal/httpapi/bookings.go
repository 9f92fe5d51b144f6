package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Leganyst/vetclinic-booking/internal/model"
	"github.com/Leganyst/vetclinic-booking/internal/repository"
	"github.com/Leganyst/vetclinic-booking/internal/service"
)

// POST /api/citas
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var body createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "cuerpo de la solicitud no válido")
		return
	}

	slotID, ok := optionalUUID(body.HorarioID)
	if !ok {
		writeErrorMessage(w, http.StatusBadRequest, "horarioId no válido")
		return
	}
	serviceID, ok := optionalUUID(body.ServicioID)
	if !ok {
		writeErrorMessage(w, http.StatusBadRequest, "servicioId no válido")
		return
	}

	id, err := h.bookings.Book(r.Context(), service.BookingRequest{
		SlotID:     slotID,
		ServiceID:  serviceID,
		TutorName:  body.TutorNombre,
		TutorPhone: body.TutorTelefono,
		TutorEmail: body.TutorEmail,
		PetName:    body.MascotaNombre,
		Notes:      body.Notas,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, createBookingResponse{OK: true, CitaID: id.String()})
}

// PATCH /api/admin/citas: confirmar, atendida или cancelar.
func (h *Handler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	var body updateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "cuerpo de la solicitud no válido")
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(body.ID))
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "id no válido")
		return
	}

	switch strings.ToLower(strings.TrimSpace(body.Action)) {
	case "confirmar":
		err = h.bookings.Transition(r.Context(), id, service.ActionConfirm)
	case "atendida":
		err = h.bookings.Transition(r.Context(), id, service.ActionMarkAttended)
	case "cancelar":
		err = h.bookings.Cancel(r.Context(), id)
	default:
		writeErrorMessage(w, http.StatusBadRequest, service.MsgUnknownAction)
		return
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// GET /api/admin/citas/{id}
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "id no válido")
		return
	}

	b, err := h.bookings.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"data": toBookingDTO(*b),
	})
}

// GET /api/admin/citas?estado=&page=&pageSize=
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var f repository.BookingFilter
	if v := strings.TrimSpace(q.Get("estado")); v != "" {
		st := model.BookingStatus(strings.ToLower(v))
		f.Status = &st
	}
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))

	bookings, total, err := h.bookings.List(r.Context(), f, page, pageSize)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	data := make([]bookingDTO, 0, len(bookings))
	for _, b := range bookings {
		data = append(data, toBookingDTO(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"data":  data,
		"total": total,
	})
}

// optionalUUID: пустая строка — uuid.Nil (обязательность проверяет сервис).
func optionalUUID(v string) (uuid.UUID, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
