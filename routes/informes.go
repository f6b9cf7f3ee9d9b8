package routes

import (
	"context"
	"net/http"
	"strings"
	"time"

	"environovalab/forms"
	"environovalab/labapi"
	"environovalab/listsync"
	"environovalab/routes/rutil"
	"environovalab/templates"
	"environovalab/util"
)

type informeRow struct {
	Informe        labapi.Informe
	ProformaNumber string
}

type informesResult struct {
	Title    string
	Session  *util.Session
	Notice   listsync.Notice
	Informes []informeRow
}

// Informes only reference their proforma by id, the numbers come from the proforma list
func renderInformes(w http.ResponseWriter, r *http.Request, informes *listsync.Collection[labapi.Informe]) {
	numbers := map[labapi.ObjectId]string{}
	proformas, err := rutil.ApiClient(r).Proformas().List(r.Context())
	if err != nil {
		rutil.Logger(r).Info().Err(err).Msg("Couldn't load proforma numbers")
	}
	for _, proforma := range proformas {
		numbers[proforma.Id] = proforma.Number
	}

	var rows []informeRow
	for _, informe := range informes.Items {
		rows = append(rows, informeRow{
			Informe:        informe,
			ProformaNumber: numbers[informe.ProformaId],
		})
	}
	templates.MustWrite(w, "informes/index", informesResult{
		Title:    util.DecorateTitle("Informes"),
		Session:  rutil.Session(r),
		Notice:   informes.Notice,
		Informes: rows,
	})
}

func Informes_Index(w http.ResponseWriter, r *http.Request) {
	informes := listsync.New(rutil.ApiClient(r).Informes().List, rutil.Logger(r))
	if err := informes.Load(r.Context()); rutil.SessionExpired(w, r, err) {
		return
	}
	renderInformes(w, r, informes)
}

type newInformeResult struct {
	Title      string
	Session    *util.Session
	Notice     listsync.Notice
	Errors     forms.Errors
	Proformas  []labapi.Proforma
	Data       *labapi.InformeData
	Informe    labapi.Informe
	IssuedDate string
}

func blankInformeForm(r *http.Request) newInformeResult {
	return newInformeResult{
		Title:      util.DecorateTitle("Nuevo informe"),
		Session:    rutil.Session(r),
		Notice:     listsync.Notice{},
		Errors:     forms.NewErrors(),
		Proformas:  nil,
		Data:       nil,
		Informe:    labapi.Informe{}, //nolint:exhaustruct
		IssuedDate: time.Now().Format(forms.DateLayout),
	}
}

// Returns false if the response has been written
func loadInformeProformas(w http.ResponseWriter, r *http.Request, result *newInformeResult) bool {
	proformas, err := rutil.ApiClient(r).Proformas().List(r.Context())
	if err != nil {
		if rutil.SessionExpired(w, r, err) {
			return false
		}
		result.Notice = listsync.Failure(err)
		return true
	}
	result.Proformas = proformas
	return true
}

// Informes_New prefills the result rows from the chosen proforma's analyses
func Informes_New(w http.ResponseWriter, r *http.Request) {
	result := blankInformeForm(r)
	if !loadInformeProformas(w, r, &result) {
		return
	}

	proformaId := labapi.ObjectId(strings.TrimSpace(r.URL.Query().Get("proforma")))
	if proformaId != "" {
		result.Informe.ProformaId = proformaId
		data, err := rutil.ApiClient(r).Proformas().InformeData(r.Context(), proformaId)
		if err != nil {
			if rutil.SessionExpired(w, r, err) {
				return
			}
			result.Notice = listsync.Failure(err)
		} else {
			result.Data = &data
			result.Informe.TakenBy = data.CreatedBy
			for _, analysis := range data.AnalysisData {
				result.Informe.Results = append(result.Informe.Results, labapi.Result{ //nolint:exhaustruct
					Parameter: analysis.Parameter,
					Unit:      analysis.Unit,
					Method:    analysis.Method,
				})
			}
		}
	}

	templates.MustWrite(w, "informes/new", result)
}

func Informes_Create(w http.ResponseWriter, r *http.Request) {
	client := rutil.ApiClient(r)
	informe, errs := forms.ParseInforme(r.PostForm)
	result := blankInformeForm(r)
	result.Informe = informe
	result.IssuedDate = r.PostForm.Get("fecha_emision")
	if errs.Any() {
		if !loadInformeProformas(w, r, &result) {
			return
		}
		result.Errors = errs
		templates.MustWriteStatus(w, http.StatusUnprocessableEntity, "informes/new", result)
		return
	}

	informes := listsync.New(client.Informes().List, rutil.Logger(r))
	err := informes.Apply(r.Context(), func(ctx context.Context) error {
		_, err := client.Informes().Create(ctx, informe)
		return err
	}, "Informe creado")
	if rutil.SessionExpired(w, r, informes.Err) {
		return
	}
	if err != nil {
		if !loadInformeProformas(w, r, &result) {
			return
		}
		result.Notice = informes.Notice
		templates.MustWrite(w, "informes/new", result)
		return
	}
	renderInformes(w, r, informes)
}

func Informes_Show(w http.ResponseWriter, r *http.Request) {
	type Result struct {
		Title     string
		Session   *util.Session
		InformeId labapi.ObjectId
		Results   []labapi.Result
	}

	informeId := rutil.IdParam(r, "id")
	results, err := rutil.ApiClient(r).Informes().Results(r.Context(), informeId)
	if !rutil.MustApiResult(w, r, err, util.InformesPath) {
		return
	}
	templates.MustWrite(w, "informes/show", Result{
		Title:     util.DecorateTitle("Resultados del informe"),
		Session:   rutil.Session(r),
		InformeId: informeId,
		Results:   results,
	})
}
