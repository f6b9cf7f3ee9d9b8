package forms

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"environovalab/labapi"
)

type Proforma struct {
	Client labapi.LabClient
	Date   time.Time
	Lines  []labapi.AnalysisInput
}

func (p Proforma) Payload(clientId labapi.ObjectId, createdBy string) labapi.NewProforma {
	return labapi.NewProforma{
		ClientId:     clientId,
		Date:         p.Date.Format(time.RFC3339),
		Status:       labapi.ProformaDraft,
		CreatedBy:    createdBy,
		AnalysisData: p.Lines,
	}
}

// Proforma reads the client block plus one analysis line per repeated parametro/unidad/metodo/
// tecnica/precio/cantidad group. Fully blank lines are dropped.
func ParseProforma(values url.Values) (Proforma, Errors) {
	errs := NewErrors()
	result := Proforma{
		Client: labapi.LabClient{
			Name:          required(values, errs, "nombre"),
			Ruc:           value(values, "ruc"),
			Phone:         value(values, "telefono"),
			Address:       value(values, "direccion"),
			Email:         value(values, "correo"),
			ContactPerson: value(values, "contacto"),
		},
		Date:  date(values, errs, "fecha"),
		Lines: nil,
	}
	if result.Client.Email != "" {
		email(values, errs, "correo")
	}

	result.Lines = analysisLines(values, errs)
	if len(result.Lines) == 0 && !errs.Has("analisis") {
		errs.Add("analisis", MsgNoAnalyses)
	}
	return result, errs
}

// AnalysisLine validates the single-line form used to add an analysis to an existing proforma
func AnalysisLine(values url.Values) (labapi.AnalysisInput, Errors) {
	errs := NewErrors()
	line := labapi.AnalysisInput{
		Parameter: required(values, errs, "parametro"),
		Unit:      required(values, errs, "unidad"),
		Method:    required(values, errs, "metodo"),
		Technique: required(values, errs, "tecnica"),
		UnitPrice: price(errs, "precio", value(values, "precio")),
		Quantity:  quantity(errs, "cantidad", value(values, "cantidad")),
	}
	return line, errs
}

const MsgUnknownSampleType = "Tipo de muestra no encontrado"

// CatalogLines fills the parametro/unidad/metodo/tecnica/precio columns of every line that picked a
// catalog entry in its muestra column, so the result can go through ParseProforma or AnalysisLine.
// Lines without a pick keep whatever was typed. Picks that aren't in the catalog are reported.
func CatalogLines(values url.Values, catalog []labapi.SampleType) (url.Values, Errors) {
	errs := NewErrors()
	byId := make(map[labapi.ObjectId]labapi.SampleType, len(catalog))
	for _, sampleType := range catalog {
		byId[sampleType.Id] = sampleType
	}

	picks := values["muestra"]
	if len(picks) == 0 {
		return values, errs
	}

	result := url.Values{}
	for key, vs := range values {
		result[key] = append([]string(nil), vs...)
	}
	columns := []string{"parametro", "unidad", "metodo", "tecnica", "precio"}
	for _, field := range columns {
		column := result[field]
		for len(column) < len(picks) {
			column = append(column, "")
		}
		result[field] = column
	}

	for i, pick := range picks {
		pick = strings.TrimSpace(pick)
		if pick == "" {
			continue
		}
		sampleType, ok := byId[labapi.ObjectId(pick)]
		if !ok {
			errs.Add(fmt.Sprintf("muestra[%d]", i), MsgUnknownSampleType)
			continue
		}
		result["parametro"][i] = sampleType.Parameter
		result["unidad"][i] = sampleType.Unit
		result["metodo"][i] = sampleType.Method
		result["tecnica"][i] = sampleType.Technique
		result["precio"][i] = sampleType.Price.String()
	}
	return result, errs
}

func column(values url.Values, field string, i int) string {
	column := values[field]
	if i >= len(column) {
		return ""
	}
	return strings.TrimSpace(column[i])
}

func analysisLines(values url.Values, errs Errors) []labapi.AnalysisInput {
	rows := 0
	for _, field := range []string{"parametro", "unidad", "metodo", "tecnica", "precio", "cantidad"} {
		rows = max(rows, len(values[field]))
	}

	var lines []labapi.AnalysisInput
	for i := 0; i < rows; i++ {
		parameter := column(values, "parametro", i)
		unit := column(values, "unidad", i)
		method := column(values, "metodo", i)
		technique := column(values, "tecnica", i)
		rawPrice := column(values, "precio", i)
		rawQuantity := column(values, "cantidad", i)
		if parameter == "" && unit == "" && method == "" && technique == "" && rawPrice == "" {
			continue
		}

		fieldName := func(name string) string {
			return fmt.Sprintf("%s[%d]", name, i)
		}
		if parameter == "" {
			errs.Add(fieldName("parametro"), MsgRequired)
		}
		if method == "" {
			errs.Add(fieldName("metodo"), MsgRequired)
		}
		if technique == "" {
			errs.Add(fieldName("tecnica"), MsgRequired)
		}
		lines = append(lines, labapi.AnalysisInput{
			Parameter: parameter,
			Unit:      unit,
			Method:    method,
			Technique: technique,
			UnitPrice: price(errs, fieldName("precio"), rawPrice),
			Quantity:  quantity(errs, fieldName("cantidad"), rawQuantity),
		})
	}
	return lines
}

func ParseInforme(values url.Values) (labapi.Informe, Errors) {
	errs := NewErrors()
	informe := labapi.Informe{
		ProformaId: labapi.ObjectId(required(values, errs, "proforma")),
		TakenBy:    required(values, errs, "tomado_por"),
		Procedure:  required(values, errs, "procedimiento"),
		AnalyzedBy: required(values, errs, "analizado_por"),
	}
	if issued := date(values, errs, "fecha_emision"); !issued.IsZero() {
		informe.IssuedAt = issued.Format(time.RFC3339)
	}

	rows := len(values["parametro"])
	for i := 0; i < rows; i++ {
		informe.Results = append(informe.Results, labapi.Result{
			Parameter:   column(values, "parametro", i),
			Unit:        column(values, "unidad", i),
			Method:      column(values, "metodo", i),
			Value:       column(values, "resultados", i),
			Limit:       column(values, "limite", i),
			Uncertainty: column(values, "incertidumbre", i),
		})
	}
	return informe, errs
}
