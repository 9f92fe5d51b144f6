package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/vetclinic-booking/internal/dbtest"
	"github.com/Leganyst/vetclinic-booking/internal/metrics"
	"github.com/Leganyst/vetclinic-booking/internal/model"
	"github.com/Leganyst/vetclinic-booking/internal/repository"
	"github.com/Leganyst/vetclinic-booking/internal/service"
)

type testAPI struct {
	db       *gorm.DB
	router   http.Handler
	provider *model.Provider
	short    *model.Service
	long     *model.Service
	start    time.Time
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db := dbtest.Open(t)
	slotRepo := repository.NewGormSlotRepository(db)
	serviceRepo := repository.NewGormServiceRepository(db)

	reg := prometheus.NewRegistry()
	catalog := service.NewCatalogService(serviceRepo, nil, 30, zap.NewNop())
	bookings := service.NewBookingService(
		db,
		slotRepo,
		repository.NewGormBookingRepository(db),
		serviceRepo,
		repository.NewGormEventRepository(db),
		catalog,
		metrics.NewBookingMetrics(reg),
		zap.NewNop(),
		service.BookingOptions{GridMinutes: 30, MaxAttempts: 3, RetryBackoff: time.Millisecond},
	)
	slots := service.NewSlotService(
		slotRepo,
		repository.NewGormScheduleRepository(db),
		repository.NewGormProviderRepository(db),
		30,
		31*24*time.Hour,
		zap.NewNop(),
	)

	router := NewRouter(RouterConfig{
		Handler: NewHandler(bookings, slots, catalog, time.UTC, zap.NewNop()),
		Logger:  zap.NewNop(),
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	return &testAPI{
		db:       db,
		router:   router,
		provider: dbtest.SeedProvider(t, db, "Dra. Pérez"),
		short:    dbtest.SeedService(t, db, "Consulta", 30),
		long:     dbtest.SeedService(t, db, "Vacunación completa", 60),
		start:    time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour),
	}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func (a *testAPI) bookingBody(slotID, serviceID uuid.UUID) map[string]any {
	return map[string]any{
		"horarioId":     slotID.String(),
		"servicioId":    serviceID.String(),
		"tutorNombre":   "Ana García",
		"tutorTelefono": "+34 600 000 000",
		"mascotaNombre": "Luna",
		"notas":         "primera visita",
	}
}

func TestCreateBooking(t *testing.T) {
	a := newTestAPI(t)
	slots := dbtest.SeedSlots(t, a.db, a.provider.ID, a.start, 30*time.Minute, 2)

	rec := a.do(t, http.MethodPost, "/api/citas", a.bookingBody(slots[0].ID, a.long.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode(t, rec)
	assert.Equal(t, true, resp["ok"])
	citaID, ok := resp["citaId"].(string)
	require.True(t, ok)
	_, err := uuid.Parse(citaID)
	require.NoError(t, err)

	rec = a.do(t, http.MethodGet, "/api/admin/citas/"+citaID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "pending", data["estado"])
	assert.Equal(t, slots[0].ID.String(), data["horarioId"])
	assert.Len(t, data["horarios"], 2)
}

func TestCreateBooking_Errors(t *testing.T) {
	a := newTestAPI(t)
	slots := dbtest.SeedSlots(t, a.db, a.provider.ID, a.start, 30*time.Minute, 2)
	dbtest.SetReserved(t, a.db, slots[1].ID, true)

	tests := []struct {
		name   string
		body   any
		status int
		msg    string
	}{
		{
			name:   "not enough consecutive slots",
			body:   a.bookingBody(slots[0].ID, a.long.ID),
			status: http.StatusConflict,
			msg:    service.MsgNotEnoughSlots,
		},
		{
			name:   "reserved slot",
			body:   a.bookingBody(slots[1].ID, a.short.ID),
			status: http.StatusConflict,
			msg:    service.MsgSlotTaken,
		},
		{
			name:   "unknown service",
			body:   a.bookingBody(slots[0].ID, uuid.New()),
			status: http.StatusNotFound,
			msg:    service.MsgServiceNotFound,
		},
		{
			name: "no contact",
			body: map[string]any{
				"horarioId":     slots[0].ID.String(),
				"servicioId":    a.short.ID.String(),
				"tutorNombre":   "Ana",
				"mascotaNombre": "Luna",
			},
			status: http.StatusBadRequest,
			msg:    service.MsgContactRequired,
		},
		{
			name:   "malformed slot id",
			body:   map[string]any{"horarioId": "10:00", "servicioId": a.short.ID.String()},
			status: http.StatusBadRequest,
			msg:    "horarioId no válido",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, http.MethodPost, "/api/citas", tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := decode(t, rec)
			assert.Equal(t, false, resp["ok"])
			assert.Equal(t, tt.msg, resp["error"])
		})
	}
}

func TestCreateBooking_BadJSON(t *testing.T) {
	a := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/api/citas", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateBooking_Actions(t *testing.T) {
	a := newTestAPI(t)
	slots := dbtest.SeedSlots(t, a.db, a.provider.ID, a.start, 30*time.Minute, 2)

	rec := a.do(t, http.MethodPost, "/api/citas", a.bookingBody(slots[0].ID, a.long.ID))
	require.Equal(t, http.StatusCreated, rec.Code)
	citaID := decode(t, rec)["citaId"].(string)

	steps := []struct {
		action string
		status int
	}{
		{"atendida", http.StatusUnprocessableEntity},
		{"confirmar", http.StatusOK},
		{"confirmar", http.StatusOK},
		{"archivar", http.StatusBadRequest},
		{"cancelar", http.StatusOK},
		{"cancelar", http.StatusOK},
		{"atendida", http.StatusUnprocessableEntity},
	}
	for _, st := range steps {
		rec := a.do(t, http.MethodPatch, "/api/admin/citas", map[string]any{"id": citaID, "action": st.action})
		require.Equal(t, st.status, rec.Code, "%s: %s", st.action, rec.Body.String())
	}

	for _, s := range slots {
		assert.False(t, dbtest.Slot(t, a.db, s.ID).Reserved, "slot %s must be released", s.StartsAt)
	}

	rec = a.do(t, http.MethodPatch, "/api/admin/citas", map[string]any{"id": uuid.NewString(), "action": "cancelar"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodPatch, "/api/admin/citas", map[string]any{"id": "nope", "action": "cancelar"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListBookings(t *testing.T) {
	a := newTestAPI(t)
	slots := dbtest.SeedSlots(t, a.db, a.provider.ID, a.start, 30*time.Minute, 3)

	for _, s := range slots {
		rec := a.do(t, http.MethodPost, "/api/citas", a.bookingBody(s.ID, a.short.ID))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := a.do(t, http.MethodGet, "/api/admin/citas?estado=pending&pageSize=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.EqualValues(t, 3, resp["total"])
	assert.Len(t, resp["data"], 2)

	rec = a.do(t, http.MethodGet, "/api/admin/citas?estado=perdida", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSlots(t *testing.T) {
	a := newTestAPI(t)
	slots := dbtest.SeedSlots(t, a.db, a.provider.ID, a.start, 30*time.Minute, 4)
	dbtest.SetReserved(t, a.db, slots[0].ID, true)

	from := a.start.Format(time.RFC3339)
	to := a.start.Add(3 * time.Hour).Format(time.RFC3339)

	rec := a.do(t, http.MethodGet, "/api/horarios?from="+from+"&to="+to+"&onlyAvailable=true&limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data []slotDTO `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, slots[1].ID.String(), resp.Data[0].ID)
	assert.False(t, resp.Data[0].Reservado)
	assert.Equal(t, a.provider.ID.String(), resp.Data[0].VeterinarioID)
	assert.NotEmpty(t, resp.Data[0].Etiqueta)

	rec = a.do(t, http.MethodGet, "/api/horarios?slotId="+slots[0].ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.True(t, resp.Data[0].Reservado)

	rec = a.do(t, http.MethodGet, "/api/horarios?from=ayer", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListServices(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/servicios?page=1&pageSize=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode(t, rec)
	assert.Equal(t, true, resp["ok"])
	assert.EqualValues(t, 2, resp["total"])
	assert.Equal(t, true, resp["hasNext"])
	data := resp["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "Consulta", data[0].(map[string]any)["nombre"])
}

func TestHealthzAndMetrics(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	slots := dbtest.SeedSlots(t, a.db, a.provider.ID, a.start, 30*time.Minute, 1)
	rec = a.do(t, http.MethodPost, "/api/citas", a.bookingBody(slots[0].ID, a.short.ID))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `vetclinic_booking_attempts_total{outcome="ok",path="single"} 1`)
}

func TestHealthzUnavailable(t *testing.T) {
	router := NewRouter(RouterConfig{
		Handler: NewHandler(nil, nil, nil, nil, nil),
		Ready:   func(context.Context) error { return errors.New("db down") },
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestFatalErrorIsGeneric(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, zap.NewNop(), errors.New("pq: connection reset by peer"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode(t, rec)
	assert.NotContains(t, resp["error"], "pq:")
}
