package labapi

import (
	"context"
	"net/http"
)

type ProformaStatus string

const (
	ProformaDraft    ProformaStatus = "draft"
	ProformaSent     ProformaStatus = "sent"
	ProformaApproved ProformaStatus = "approved"
	ProformaRejected ProformaStatus = "rejected"
)

var proformaStatusLabels = map[ProformaStatus]string{
	ProformaDraft:    "Borrador",
	ProformaSent:     "Enviada",
	ProformaApproved: "Aprobada",
	ProformaRejected: "Rechazada",
}

func (s ProformaStatus) Label() string {
	if label, ok := proformaStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

type Proforma struct {
	Id            ObjectId       `json:"id"`
	ClientId      ObjectId       `json:"client"`
	ClientName    string         `json:"client_name"`
	ClientRuc     string         `json:"client_ruc"`
	Number        string         `json:"proforma_number"`
	Date          string         `json:"date"`
	Status        ProformaStatus `json:"status"`
	StatusDisplay string         `json:"status_display"`
	Subtotal      Price          `json:"subtotal"`
	TaxAmount     Price          `json:"tax_amount"`
	Total         Price          `json:"total"`
	CreatedBy     string         `json:"created_by"`
	PdfUrl        string         `json:"pdf_url"`
	CreatedAt     string         `json:"created_at"`
	Analyses      []Analysis     `json:"analysis_set"`
}

func (p Proforma) StatusLabel() string {
	if p.StatusDisplay != "" {
		return p.StatusDisplay
	}
	return p.Status.Label()
}

type NewProforma struct {
	ClientId     ObjectId        `json:"client"`
	Date         string          `json:"date"`
	Status       ProformaStatus  `json:"status"`
	CreatedBy    string          `json:"created_by"`
	AnalysisData []AnalysisInput `json:"analysis_data"`
}

// Data for prefilling a report from a proforma
type InformeData struct {
	ProformaNumber string            `json:"proforma_number"`
	Date           string            `json:"date"`
	CreatedBy      string            `json:"created_by"`
	ClientName     string            `json:"client_name"`
	ClientRuc      string            `json:"client_ruc"`
	ClientAddress  string            `json:"client_address"`
	ClientEmail    string            `json:"client_email"`
	ClientContact  string            `json:"client_contact"`
	AnalysisData   []InformeAnalysis `json:"analysis_data"`
}

type InformeAnalysis struct {
	Parameter string `json:"parameter"`
	Unit      string `json:"unit"`
	Method    string `json:"method"`
}

type Proformas struct {
	Resource[Proforma]
}

func (c *Client) Proformas() Proformas {
	return Proformas{newResource[Proforma](c, "/api/proformas/")}
}

func (p Proformas) AddAnalysis(ctx context.Context, proformaId ObjectId, analysis AnalysisInput) (Proforma, error) {
	var proforma Proforma
	err := p.client.Mutate(ctx, http.MethodPost, p.itemPath(proformaId, "add_analysis"), analysis, &proforma)
	return proforma, err
}

func (p Proformas) RemoveAnalysis(ctx context.Context, proformaId ObjectId, analysisId ObjectId) (Proforma, error) {
	body := map[string]ObjectId{"analysis_id": analysisId}
	var proforma Proforma
	err := p.client.Mutate(ctx, http.MethodDelete, p.itemPath(proformaId, "remove_analysis"), body, &proforma)
	return proforma, err
}

func (p Proformas) InformeData(ctx context.Context, proformaId ObjectId) (InformeData, error) {
	var data InformeData
	err := p.client.Fetch(ctx, p.itemPath(proformaId, "informe"), &data)
	return data, err
}

func (p Proformas) PDF(ctx context.Context, proformaId ObjectId) (*File, error) {
	return p.client.Download(ctx, p.itemPath(proformaId, "pdf"))
}

func (p Proformas) InformePDF(ctx context.Context, proformaId ObjectId) (*File, error) {
	return p.client.Download(ctx, p.itemPath(proformaId, "informe_pdf"))
}
