package labapi

import (
	"context"

	om "github.com/wk8/go-ordered-map/v2"
)

// CatalogEntry is the shape shared by sample types and analyses when they are shown as a priced
// catalog: an id, a type tag, an ordered set of named fields and a price.
type CatalogEntry struct {
	Id     ObjectId
	Type   string
	Fields *om.OrderedMap[string, string]
	Price  Price
}

type CatalogField struct {
	Name  string
	Value string
}

// Pairs lists the named fields in display order
func (e CatalogEntry) Pairs() []CatalogField {
	var result []CatalogField
	if e.Fields == nil {
		return result
	}
	for pair := e.Fields.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, CatalogField{Name: pair.Key, Value: pair.Value})
	}
	return result
}

var SampleKinds = []string{"agua", "ruido", "emisiones", "logistica"}

var SampleKindLabels = map[string]string{
	"agua":      "Agua",
	"ruido":     "Ruido",
	"emisiones": "Emisiones",
	"logistica": "Logística",
}

var SampleUnits = []string{"mg/l", "NMP/100 ml", "AUSENCIA", "Presencia/Ausencia", "U pH", "uS/cm"}

type SampleType struct {
	Id        ObjectId `json:"id,omitempty"`
	Type      string   `json:"tipo"`
	Parameter string   `json:"parametro"`
	Unit      string   `json:"unidad"`
	Method    string   `json:"metodo"`
	Technique string   `json:"tecnica"`
	Price     Price    `json:"precio"`
}

func (s SampleType) Entry() CatalogEntry {
	fields := om.New[string, string]()
	fields.Set("parametro", s.Parameter)
	fields.Set("unidad", s.Unit)
	fields.Set("metodo", s.Method)
	fields.Set("tecnica", s.Technique)
	return CatalogEntry{
		Id:     s.Id,
		Type:   s.Type,
		Fields: fields,
		Price:  s.Price,
	}
}

// AnalysisInput prices this sample type as one line of a proforma
func (s SampleType) AnalysisInput(quantity int) AnalysisInput {
	return AnalysisInput{
		Parameter: s.Parameter,
		Unit:      s.Unit,
		Method:    s.Method,
		Technique: s.Technique,
		UnitPrice: s.Price,
		Quantity:  quantity,
	}
}

type SampleTypes struct {
	Resource[SampleType]
}

func (c *Client) SampleTypes() SampleTypes {
	return SampleTypes{newResource[SampleType](c, "/api/tipos-muestra/")}
}

// Search matches on the parameter name
func (s SampleTypes) Search(ctx context.Context, query string) ([]SampleType, error) {
	return search(ctx, s.Resource, query)
}
