package labapi

import (
	"context"
	"net/http"

	om "github.com/wk8/go-ordered-map/v2"
)

type Analysis struct {
	Id        ObjectId `json:"id,omitempty"`
	Parameter string   `json:"parameter"`
	Unit      string   `json:"unit"`
	Method    string   `json:"method"`
	Technique string   `json:"technique"`
	UnitPrice Price    `json:"unit_price"`
	Quantity  int      `json:"quantity"`
	Subtotal  Price    `json:"subtotal"`
	Order     int      `json:"order"`
}

func (a Analysis) Entry() CatalogEntry {
	fields := om.New[string, string]()
	fields.Set("parameter", a.Parameter)
	fields.Set("unit", a.Unit)
	fields.Set("method", a.Method)
	fields.Set("technique", a.Technique)
	return CatalogEntry{
		Id:     a.Id,
		Type:   "analysis",
		Fields: fields,
		Price:  a.UnitPrice,
	}
}

type AnalysisInput struct {
	Parameter string `json:"parameter"`
	Unit      string `json:"unit"`
	Method    string `json:"method"`
	Technique string `json:"technique"`
	UnitPrice Price  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

func (a AnalysisInput) Subtotal() Price {
	return a.UnitPrice.Times(a.Quantity)
}

type AnalysisOrder struct {
	Id    ObjectId `json:"id"`
	Order int      `json:"order"`
}

type Analyses struct {
	Resource[Analysis]
}

func (c *Client) Analyses() Analyses {
	return Analyses{newResource[Analysis](c, "/api/analysis/")}
}

func (a Analyses) Reorder(ctx context.Context, orders []AnalysisOrder) (string, error) {
	body := map[string][]AnalysisOrder{"analysis_orders": orders}
	var message MessageResponse
	if err := a.client.Mutate(ctx, http.MethodPost, a.path+"reorder/", body, &message); err != nil {
		return "", err
	}
	return message.Text(), nil
}
