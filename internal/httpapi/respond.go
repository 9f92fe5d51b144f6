package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/Leganyst/vetclinic-booking/internal/service"
)

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{OK: false, Error: msg})
}

// writeError переводит доменную ошибку в HTTP-ответ.
// Текст внутренних ошибок клиенту не отдаётся, только в лог.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := statusFor(service.KindOf(err))
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
	}
	writeErrorMessage(w, status, service.PublicMessage(err))
}

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindInvalidRequest:
		return http.StatusBadRequest
	case service.KindConflict:
		return http.StatusConflict
	case service.KindInvalidState:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
