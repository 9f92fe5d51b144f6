package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Leganyst/vetclinic-booking/internal/service"
)

// GET /api/horarios?from=&to=&onlyAvailable=&limit=&slotId=&veterinarioId=
func (h *Handler) ListSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var query service.SlotQuery

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &query.From}, {"to", &query.To}} {
		v := strings.TrimSpace(q.Get(p.name))
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, p.name+" debe estar en formato RFC3339")
			return
		}
		t = t.UTC()
		*p.dst = &t
	}

	if v := strings.TrimSpace(q.Get("slotId")); v != "" {
		id, ok := optionalUUID(v)
		if !ok {
			writeErrorMessage(w, http.StatusBadRequest, "slotId no válido")
			return
		}
		query.SlotID = &id
	}
	if v := strings.TrimSpace(q.Get("veterinarioId")); v != "" {
		id, ok := optionalUUID(v)
		if !ok {
			writeErrorMessage(w, http.StatusBadRequest, "veterinarioId no válido")
			return
		}
		query.ProviderID = &id
	}
	if v := q.Get("onlyAvailable"); v != "" {
		only, err := strconv.ParseBool(v)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "onlyAvailable no válido")
			return
		}
		query.OnlyAvailable = only
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeErrorMessage(w, http.StatusBadRequest, "limit no válido")
			return
		}
		query.Limit = limit
	}

	slots, err := h.slots.List(r.Context(), query)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	data := make([]slotDTO, 0, len(slots))
	for _, s := range slots {
		data = append(data, toSlotDTO(s, h.loc))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

// GET /api/servicios?page=&pageSize=
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	p, err := h.catalog.ListActive(r.Context(), page, pageSize)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	data := make([]serviceDTO, 0, len(p.Items))
	for _, s := range p.Items {
		data = append(data, toServiceDTO(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"data":     data,
		"page":     p.Page,
		"pageSize": p.PageSize,
		"total":    p.Total,
		"hasNext":  p.HasNext,
	})
}
