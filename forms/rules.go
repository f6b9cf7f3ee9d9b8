package forms

import (
	"net/mail"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"environovalab/labapi"
)

const (
	MsgRequired          = "Este campo es obligatorio"
	MsgInvalidEmail      = "Correo electrónico inválido"
	MsgInvalidPrice      = "El precio debe ser un número mayor que 0"
	MsgInvalidQuantity   = "La cantidad debe ser un entero positivo"
	MsgInvalidDate       = "Fecha inválida, use AAAA-MM-DD"
	MsgInvalidSampleKind = "Seleccione un tipo de muestra válido"
	MsgInvalidUnit       = "Seleccione una unidad válida"
	MsgPasswordMismatch  = "Las contraseñas no coinciden"
	MsgNoAnalyses        = "Agregue al menos un análisis"
)

const DateLayout = "2006-01-02"

func value(values url.Values, field string) string {
	return strings.TrimSpace(values.Get(field))
}

func required(values url.Values, errs Errors, field string) string {
	v := value(values, field)
	if v == "" {
		errs.Add(field, MsgRequired)
	}
	return v
}

func email(values url.Values, errs Errors, field string) string {
	v := required(values, errs, field)
	if v == "" {
		return v
	}
	address, err := mail.ParseAddress(v)
	if err != nil || address.Address != v {
		errs.Add(field, MsgInvalidEmail)
	}
	return v
}

func price(errs Errors, field string, raw string) labapi.Price {
	if raw == "" {
		errs.Add(field, MsgRequired)
		return 0
	}
	p, err := labapi.ParsePrice(raw)
	if err != nil || !p.IsPositive() {
		errs.Add(field, MsgInvalidPrice)
		return 0
	}
	return p
}

func quantity(errs Errors, field string, raw string) int {
	if raw == "" {
		errs.Add(field, MsgRequired)
		return 0
	}
	q, err := strconv.Atoi(raw)
	if err != nil || q <= 0 {
		errs.Add(field, MsgInvalidQuantity)
		return 0
	}
	return q
}

func date(values url.Values, errs Errors, field string) time.Time {
	v := required(values, errs, field)
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		errs.Add(field, MsgInvalidDate)
		return time.Time{}
	}
	return t
}

func oneOf(errs Errors, field string, v string, allowed []string, message string) {
	if v != "" && !slices.Contains(allowed, v) {
		errs.Add(field, message)
	}
}

func checkbox(values url.Values, field string) bool {
	switch value(values, field) {
	case "on", "true", "1":
		return true
	default:
		return false
	}
}
