package service

import (
	"errors"
	"fmt"
)

// Kind — класс ошибки доменного слоя, по нему транспорт выбирает код ответа.
type Kind int

const (
	KindFatal Kind = iota
	KindNotFound
	KindInvalidRequest
	KindConflict
	KindInvalidState
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidRequest:
		return "invalid_request"
	case KindConflict:
		return "conflict"
	case KindInvalidState:
		return "invalid_state"
	default:
		return "fatal"
	}
}

// Error — ошибка с классом и сообщением для клиента.
// Err — исходная причина, в ответ не попадает.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is сравнивает только класс: errors.Is(err, ErrConflict).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrInvalidRequest = &Error{Kind: KindInvalidRequest}
	ErrConflict       = &Error{Kind: KindConflict}
	ErrInvalidState   = &Error{Kind: KindInvalidState}
	ErrFatal          = &Error{Kind: KindFatal}
)

// Сообщения для клиента.
const (
	MsgSlotTaken        = "este horario ya está reservado por otra cita"
	MsgSlotTakenRetry   = "este horario ya está reservado por otra cita, elige otro"
	MsgNotEnoughSlots   = "no hay suficientes horarios consecutivos disponibles"
	MsgNotConsecutive   = "los horarios no son consecutivos"
	MsgSlotInPast       = "no se puede reservar un horario en el pasado"
	MsgSlotNotFound     = "el horario no existe"
	MsgServiceNotFound  = "el servicio no existe"
	MsgBookingNotFound  = "la cita no existe"
	MsgContactRequired  = "se requiere teléfono o email del tutor"
	MsgBookingAttended  = "la cita ya fue atendida"
	MsgUnknownAction    = "acción no válida"
	MsgTransitionDenied = "cambio de estado no permitido"
)

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func notFound(msg string, err error) error { return newError(KindNotFound, msg, err) }

func invalidRequest(msg string) error { return newError(KindInvalidRequest, msg, nil) }

func conflict(msg string) error { return newError(KindConflict, msg, nil) }

func invalidState(msg string) error { return newError(KindInvalidState, msg, nil) }

// KindOf возвращает класс ошибки; всё, что не *Error, считается Fatal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindFatal
}

// PublicMessage возвращает текст, который можно отдать клиенту.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindFatal && e.Msg != "" {
		return e.Msg
	}
	return "error interno, inténtalo más tarde"
}
