package v1

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/EgorLis/blog-api/internal/domain"
)

// MapDomainError решает HTTP-статус для конверта
func MapDomainError(err error) (int, domain.APIEnvelope) {
	switch {
	case errors.Is(err, domain.ErrBadParams):
		return http.StatusBadRequest, domain.Fail("bad request")
	case errors.Is(err, domain.ErrUnauth):
		return http.StatusUnauthorized, domain.Fail("not authenticated")
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, domain.Fail("not authorized to perform this action")
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, domain.Fail("not found")
	case errors.Is(err, domain.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, domain.Fail("method not allowed")
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, domain.Fail("already exists")
	case errors.Is(err, domain.ErrTooManyRequests):
		return http.StatusTooManyRequests, domain.Fail("too many requests")
	default:
		// таймауты/отмены/ошибки БД — 500 без деталей
		return http.StatusInternalServerError, domain.Fail("internal server error")
	}
}

func WriteEnvelope(w http.ResponseWriter, status int, env domain.APIEnvelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// Шорткаты успеха
func WriteOKData(w http.ResponseWriter, data any) {
	WriteEnvelope(w, http.StatusOK, domain.OkData(data))
}

func WriteCreated(w http.ResponseWriter, data any) {
	WriteEnvelope(w, http.StatusCreated, domain.OkData(data))
}

// Шорткаты ошибок
func WriteDomainError(w http.ResponseWriter, err error) {
	status, env := MapDomainError(err)
	WriteEnvelope(w, status, env)
}

func WriteValidationErrors(w http.ResponseWriter, errs []domain.FieldError) {
	WriteEnvelope(w, http.StatusBadRequest, domain.FailFields(errs))
}

// IDFromPath разбирает uuid из path-параметра {id}
func IDFromPath(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, domain.ErrBadParams
	}
	return id, nil
}
