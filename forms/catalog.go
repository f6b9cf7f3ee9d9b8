package forms

import (
	"net/url"

	"environovalab/labapi"
)

func SampleType(values url.Values) (labapi.SampleType, Errors) {
	errs := NewErrors()
	sampleType := labapi.SampleType{
		Id:        "",
		Type:      required(values, errs, "tipo"),
		Parameter: required(values, errs, "parametro"),
		Unit:      required(values, errs, "unidad"),
		Method:    required(values, errs, "metodo"),
		Technique: required(values, errs, "tecnica"),
		Price:     price(errs, "precio", value(values, "precio")),
	}
	oneOf(errs, "tipo", sampleType.Type, labapi.SampleKinds, MsgInvalidSampleKind)
	oneOf(errs, "unidad", sampleType.Unit, labapi.SampleUnits, MsgInvalidUnit)
	return sampleType, errs
}
