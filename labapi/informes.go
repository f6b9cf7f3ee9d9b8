package labapi

import "context"

type Informe struct {
	Id         ObjectId `json:"id,omitempty"`
	ProformaId ObjectId `json:"proforma"`
	IssuedAt   string   `json:"fecha_emision"`
	TakenBy    string   `json:"tomado_por"`
	Procedure  string   `json:"procedimiento"`
	AnalyzedBy string   `json:"analizado_por"`
	PdfUrl     string   `json:"pdf_url,omitempty"`
	Results    []Result `json:"resultados,omitempty"`
}

type Result struct {
	Id          ObjectId `json:"id,omitempty"`
	Parameter   string   `json:"parameter"`
	Unit        string   `json:"unit"`
	Method      string   `json:"method"`
	Value       string   `json:"resultados"`
	Limit       string   `json:"limite"`
	Uncertainty string   `json:"incertidumbre"`
}

type Informes struct {
	Resource[Informe]
}

func (c *Client) Informes() Informes {
	return Informes{newResource[Informe](c, "/api/informes/")}
}

func (i Informes) Results(ctx context.Context, informeId ObjectId) ([]Result, error) {
	var results []Result
	if err := i.client.Fetch(ctx, i.itemPath(informeId, "resultados"), &results); err != nil {
		return nil, err
	}
	return results, nil
}
