package routes

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"environovalab/forms"
	"environovalab/labapi"
	"environovalab/listsync"
	"environovalab/routes/rutil"
	"environovalab/templates"
	"environovalab/util"
)

const proformaFormRows = 6

type proformasResult struct {
	Title     string
	Session   *util.Session
	Notice    listsync.Notice
	Proformas []labapi.Proforma
}

func renderProformas(w http.ResponseWriter, r *http.Request, proformas *listsync.Collection[labapi.Proforma]) {
	templates.MustWrite(w, "proformas/index", proformasResult{
		Title:     util.DecorateTitle("Proformas"),
		Session:   rutil.Session(r),
		Notice:    proformas.Notice,
		Proformas: proformas.Items,
	})
}

func Proformas_Index(w http.ResponseWriter, r *http.Request) {
	proformas := listsync.New(rutil.ApiClient(r).Proformas().List, rutil.Logger(r))
	if err := proformas.Load(r.Context()); rutil.SessionExpired(w, r, err) {
		return
	}
	renderProformas(w, r, proformas)
}

type proformaFormRow struct {
	Index        int
	SampleTypeId string
	Quantity     string
}

type newProformaResult struct {
	Title         string
	Session       *util.Session
	Notice        listsync.Notice
	Errors        forms.Errors
	ClientQuery   string
	ClientMatches []labapi.LabClient
	ClientId      labapi.ObjectId
	Client        labapi.LabClient
	Date          string
	CatalogQuery  string
	Catalog       []labapi.SampleType
	Rows          []proformaFormRow
}

func blankProformaForm(r *http.Request) newProformaResult {
	return newProformaResult{
		Title:         util.DecorateTitle("Nueva proforma"),
		Session:       rutil.Session(r),
		Notice:        listsync.Notice{},
		Errors:        forms.NewErrors(),
		ClientQuery:   "",
		ClientMatches: nil,
		ClientId:      "",
		Client:        labapi.LabClient{}, //nolint:exhaustruct
		Date:          time.Now().Format(forms.DateLayout),
		CatalogQuery:  "",
		Catalog:       nil,
		Rows:          proformaRows(nil),
	}
}

func proformaRows(values url.Values) []proformaFormRow {
	picks := values["muestra"]
	quantities := values["cantidad"]
	count := max(len(picks), len(quantities), proformaFormRows)
	rows := make([]proformaFormRow, count)
	for i := range rows {
		rows[i] = proformaFormRow{
			Index:        i,
			SampleTypeId: "",
			Quantity:     "1",
		}
		if i < len(picks) {
			rows[i].SampleTypeId = picks[i]
		}
		if i < len(quantities) {
			rows[i].Quantity = quantities[i]
		}
	}
	return rows
}

// The catalog narrowed by the search box, or all of it
func proformaCatalog(ctx context.Context, client *labapi.Client, query string) ([]labapi.SampleType, error) {
	if query != "" {
		return client.SampleTypes().Search(ctx, query)
	}
	return client.SampleTypes().List(ctx)
}

func Proformas_New(w http.ResponseWriter, r *http.Request) {
	client := rutil.ApiClient(r)
	query := r.URL.Query()
	result := blankProformaForm(r)
	result.CatalogQuery = strings.TrimSpace(query.Get("q"))
	result.ClientQuery = strings.TrimSpace(query.Get("cliente"))

	catalog, err := proformaCatalog(r.Context(), client, result.CatalogQuery)
	if err != nil {
		if rutil.SessionExpired(w, r, err) {
			return
		}
		result.Notice = listsync.Failure(err)
	} else {
		result.Catalog = catalog
		if result.CatalogQuery != "" && len(catalog) == 0 {
			result.Notice = listsync.Info("Ningún tipo de muestra coincide con la búsqueda")
		}
	}

	if result.ClientQuery != "" {
		matches, err := client.LabClients().Search(r.Context(), result.ClientQuery)
		if err != nil {
			if rutil.SessionExpired(w, r, err) {
				return
			}
			result.Notice = listsync.Failure(err)
		} else {
			result.ClientMatches = matches
			if len(matches) == 0 {
				result.Notice = listsync.Info("Ningún cliente coincide con la búsqueda")
			}
		}
	}

	if clientId := labapi.ObjectId(strings.TrimSpace(query.Get("client_id"))); clientId != "" {
		clients, err := client.LabClients().List(r.Context())
		if err != nil {
			if rutil.SessionExpired(w, r, err) {
				return
			}
			result.Notice = listsync.Failure(err)
		}
		for _, labClient := range clients {
			if labClient.Id == clientId {
				result.ClientId = clientId
				result.Client = labClient
			}
		}
	}

	templates.MustWrite(w, "proformas/new", result)
}

// Proformas_Create creates the client first unless an existing one was picked, then the proforma
func Proformas_Create(w http.ResponseWriter, r *http.Request) {
	client := rutil.ApiClient(r)
	values := r.PostForm
	result := blankProformaForm(r)
	result.Rows = proformaRows(values)
	result.Date = values.Get("fecha")

	catalog, err := client.SampleTypes().List(r.Context())
	if err != nil {
		if rutil.SessionExpired(w, r, err) {
			return
		}
		result.Notice = listsync.Failure(err)
		templates.MustWrite(w, "proformas/new", result)
		return
	}
	result.Catalog = catalog

	filled, pickErrs := forms.CatalogLines(values, catalog)
	proforma, errs := forms.ParseProforma(filled)
	errs.Merge(pickErrs)
	clientId := labapi.ObjectId(strings.TrimSpace(values.Get("client_id")))
	result.ClientId = clientId
	result.Client = proforma.Client
	if errs.Any() {
		result.Errors = errs
		templates.MustWriteStatus(w, http.StatusUnprocessableEntity, "proformas/new", result)
		return
	}

	createdBy := rutil.CurrentSession(r).DisplayName
	proformas := listsync.New(client.Proformas().List, rutil.Logger(r))
	err = proformas.Apply(r.Context(), func(ctx context.Context) error {
		if clientId == "" {
			created, err := client.LabClients().Create(ctx, proforma.Client)
			if err != nil {
				return err
			}
			clientId = created.Id
		}
		_, err := client.Proformas().Create(ctx, proforma.Payload(clientId, createdBy))
		return err
	}, "Proforma creada")
	if rutil.SessionExpired(w, r, proformas.Err) {
		return
	}
	if err != nil {
		result.Notice = proformas.Notice
		templates.MustWrite(w, "proformas/new", result)
		return
	}
	renderProformas(w, r, proformas)
}

type proformaResult struct {
	Title    string
	Session  *util.Session
	Notice   listsync.Notice
	Errors   forms.Errors
	Proforma labapi.Proforma
	Analyses []labapi.Analysis
	Catalog  []labapi.SampleType
}

// proformaAnalyses is the analyses collection of one proforma. Every fetch also refreshes the
// proforma itself, totals included.
type proformaAnalyses struct {
	*listsync.Collection[labapi.Analysis]
	Proforma labapi.Proforma
}

func newProformaAnalyses(r *http.Request, proformaId labapi.ObjectId) *proformaAnalyses {
	client := rutil.ApiClient(r)
	result := &proformaAnalyses{} //nolint:exhaustruct
	result.Collection = listsync.New(func(ctx context.Context) ([]labapi.Analysis, error) {
		proforma, err := client.Proformas().Get(ctx, proformaId)
		if err != nil {
			return nil, err
		}
		result.Proforma = proforma
		analyses := slices.Clone(proforma.Analyses)
		slices.SortStableFunc(analyses, func(a, b labapi.Analysis) int {
			return a.Order - b.Order
		})
		return analyses, nil
	}, rutil.Logger(r))
	return result
}

// renderProforma shows the proforma as last fetched, fetching it first if nothing succeeded yet
func renderProforma(w http.ResponseWriter, r *http.Request, analyses *proformaAnalyses, errs forms.Errors) {
	if analyses.Proforma.Id == "" {
		notice := analyses.Notice
		if !rutil.MustApiResultAfter(w, r, analyses.Load(r.Context()), notice, util.ProformasPath) {
			return
		}
		analyses.Notice = notice
	}

	result := proformaResult{
		Title:    util.DecorateTitle(analyses.Proforma.Number),
		Session:  rutil.Session(r),
		Notice:   analyses.Notice,
		Errors:   errs,
		Proforma: analyses.Proforma,
		Analyses: analyses.Items,
		Catalog:  nil,
	}
	catalog, err := rutil.ApiClient(r).SampleTypes().List(r.Context())
	if err != nil {
		rutil.Logger(r).Info().Err(err).Msg("Couldn't load catalog for the proforma page")
	} else {
		result.Catalog = catalog
	}

	status := http.StatusOK
	if errs.Any() {
		status = http.StatusUnprocessableEntity
	}
	templates.MustWriteStatus(w, status, "proformas/show", result)
}

func Proformas_Show(w http.ResponseWriter, r *http.Request) {
	analyses := newProformaAnalyses(r, rutil.IdParam(r, "id"))
	renderProforma(w, r, analyses, forms.NewErrors())
}

func Proformas_AddAnalysis(w http.ResponseWriter, r *http.Request) {
	client := rutil.ApiClient(r)
	proformaId := rutil.IdParam(r, "id")
	analyses := newProformaAnalyses(r, proformaId)

	catalog, err := client.SampleTypes().List(r.Context())
	if err != nil {
		if rutil.SessionExpired(w, r, err) {
			return
		}
		analyses.Notice = listsync.Failure(err)
		renderProforma(w, r, analyses, forms.NewErrors())
		return
	}
	filled, pickErrs := forms.CatalogLines(r.PostForm, catalog)
	line, errs := forms.AnalysisLine(filled)
	errs.Merge(pickErrs)
	if errs.Any() {
		renderProforma(w, r, analyses, errs)
		return
	}

	_ = analyses.Apply(r.Context(), func(ctx context.Context) error {
		_, err := client.Proformas().AddAnalysis(ctx, proformaId, line)
		return err
	}, "Análisis agregado")
	if rutil.SessionExpired(w, r, analyses.Err) {
		return
	}
	renderProforma(w, r, analyses, forms.NewErrors())
}

func Proformas_RemoveAnalysis(w http.ResponseWriter, r *http.Request) {
	client := rutil.ApiClient(r)
	proformaId := rutil.IdParam(r, "id")
	analysisId := rutil.IdParam(r, "analysisId")
	analyses := newProformaAnalyses(r, proformaId)

	_ = analyses.Apply(r.Context(), func(ctx context.Context) error {
		_, err := client.Proformas().RemoveAnalysis(ctx, proformaId, analysisId)
		return err
	}, "Análisis eliminado")
	if rutil.SessionExpired(w, r, analyses.Err) {
		return
	}
	renderProforma(w, r, analyses, forms.NewErrors())
}

func Proformas_Pdf(w http.ResponseWriter, r *http.Request) {
	proformaId := rutil.IdParam(r, "id")
	file, err := rutil.ApiClient(r).Proformas().PDF(r.Context(), proformaId)
	if err != nil {
		proformaDownloadFailed(w, r, proformaId, err)
		return
	}
	rutil.MustWriteFile(w, file, "proforma.pdf")
}

func Proformas_InformePdf(w http.ResponseWriter, r *http.Request) {
	proformaId := rutil.IdParam(r, "id")
	file, err := rutil.ApiClient(r).Proformas().InformePDF(r.Context(), proformaId)
	if err != nil {
		proformaDownloadFailed(w, r, proformaId, err)
		return
	}
	rutil.MustWriteFile(w, file, "informe.pdf")
}

func proformaDownloadFailed(w http.ResponseWriter, r *http.Request, proformaId labapi.ObjectId, err error) {
	if rutil.SessionExpired(w, r, err) {
		return
	}
	if labapi.IsNotFound(err) {
		panic(util.HttpError{Status: http.StatusNotFound, Inner: err})
	}
	analyses := newProformaAnalyses(r, proformaId)
	analyses.Notice = listsync.Failure(err)
	renderProforma(w, r, analyses, forms.NewErrors())
}
