// Package i18n localizes the client-facing messages of the HTTP error
// taxonomy. The language is negotiated from the Accept-Language header
// against the supported tags (English, Spanish, Portuguese); anything
// unmatched falls back to English.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. They match the machine-readable codes returned in
// ErrorResponse.Code.
const (
	KeyBadRequest        = "bad_request"
	KeyNotFound          = "not_found"
	KeyMethodNotAllowed  = "method_not_allowed"
	KeySlotUnavailable   = "slot_unavailable"
	KeySlotContested     = "slot_contested"
	KeySlotTaken         = "slot_taken"
	KeyDateBlocked       = "date_blocked"
	KeyNoAvailability    = "no_availability"
	KeyInvalidTransition = "invalid_transition"
	KeyInvalidSignature  = "invalid_signature"
	KeyUnauthorized      = "unauthorized"
	KeyTooManyRequests   = "too_many_requests"
	KeyInternal          = "internal_error"
)

var supported = []language.Tag{
	language.English, // first entry is the fallback
	language.Spanish,
	language.Portuguese,
}

var translations = map[string][3]string{
	KeyBadRequest:        {"invalid request", "solicitud inválida", "requisição inválida"},
	KeyNotFound:          {"not found", "no encontrado", "não encontrado"},
	KeyMethodNotAllowed:  {"method not allowed", "método no permitido", "método não permitido"},
	KeySlotUnavailable:   {"this time slot is not available", "este horario no está disponible", "este horário não está disponível"},
	KeySlotContested:     {"someone else is booking this time slot, please try again shortly", "otra persona está reservando este horario, intentá de nuevo en unos minutos", "outra pessoa está reservando este horário, tente novamente em instantes"},
	KeySlotTaken:         {"this time slot was just booked", "este horario acaba de ser reservado", "este horário acabou de ser reservado"},
	KeyDateBlocked:       {"the professional does not work on this date", "el profesional no atiende en esta fecha", "o profissional não atende nesta data"},
	KeyNoAvailability:    {"no availability for the selected time", "no hay disponibilidad para el horario elegido", "não há disponibilidade para o horário escolhido"},
	KeyInvalidTransition: {"the appointment cannot change to that status", "el turno no puede pasar a ese estado", "a consulta não pode mudar para esse status"},
	KeyInvalidSignature:  {"invalid signature", "firma inválida", "assinatura inválida"},
	KeyUnauthorized:      {"unauthorized", "no autorizado", "não autorizado"},
	KeyTooManyRequests:   {"too many requests", "demasiadas solicitudes", "muitas requisições"},
	KeyInternal:          {"internal error", "error interno", "erro interno"},
}

var (
	matcher = language.NewMatcher(supported)
	cat     = buildCatalog()
)

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msgs := range translations {
		for i, tag := range supported {
			// Keys and messages are static; SetString only fails on
			// malformed input.
			_ = b.SetString(tag, key, msgs[i])
		}
	}
	return b
}

// Match returns the supported language that best fits an Accept-Language
// header value.
func Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return language.English
	}
	return supported[idx]
}

// Message returns the localized text for key. Unknown keys are returned
// unchanged.
func Message(acceptLanguage, key string) string {
	p := message.NewPrinter(Match(acceptLanguage), message.Catalog(cat))
	return p.Sprintf(key)
}
