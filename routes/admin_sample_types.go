package routes

import (
	"context"
	"net/http"
	"strings"

	"environovalab/forms"
	"environovalab/labapi"
	"environovalab/listsync"
	"environovalab/routes/rutil"
	"environovalab/templates"
	"environovalab/util"
)

type sampleTypesResult struct {
	Title       string
	Session     *util.Session
	Notice      listsync.Notice
	Errors      forms.Errors
	Query       string
	SampleTypes []labapi.SampleType
	Form        labapi.SampleType
	FormPrice   string
	Kinds       []string
	Units       []string
}

func newSampleTypesResult(r *http.Request, sampleTypes *listsync.Collection[labapi.SampleType]) sampleTypesResult {
	return sampleTypesResult{
		Title:       util.DecorateTitle("Tipos de muestra"),
		Session:     rutil.Session(r),
		Notice:      sampleTypes.Notice,
		Errors:      forms.NewErrors(),
		Query:       "",
		SampleTypes: sampleTypes.Items,
		Form:        labapi.SampleType{Type: labapi.SampleKinds[0]}, //nolint:exhaustruct
		FormPrice:   "",
		Kinds:       labapi.SampleKinds,
		Units:       labapi.SampleUnits,
	}
}

func Admin_SampleTypes(w http.ResponseWriter, r *http.Request) {
	client := rutil.ApiClient(r)
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	fetch := client.SampleTypes().List
	if query != "" {
		fetch = func(ctx context.Context) ([]labapi.SampleType, error) {
			return client.SampleTypes().Search(ctx, query)
		}
	}

	sampleTypes := listsync.New(fetch, rutil.Logger(r))
	if err := sampleTypes.Load(r.Context()); rutil.SessionExpired(w, r, err) {
		return
	}
	result := newSampleTypesResult(r, sampleTypes)
	result.Query = query
	templates.MustWrite(w, "admin/sample_types", result)
}

func Admin_CreateSampleType(w http.ResponseWriter, r *http.Request) {
	client := rutil.ApiClient(r)
	sampleTypes := listsync.New(client.SampleTypes().List, rutil.Logger(r))

	sampleType, errs := forms.SampleType(r.PostForm)
	if errs.Any() {
		if err := sampleTypes.Load(r.Context()); rutil.SessionExpired(w, r, err) {
			return
		}
		result := newSampleTypesResult(r, sampleTypes)
		result.Errors = errs
		result.Form = sampleType
		result.FormPrice = r.PostForm.Get("precio")
		templates.MustWriteStatus(w, http.StatusUnprocessableEntity, "admin/sample_types", result)
		return
	}

	err := sampleTypes.Apply(r.Context(), func(ctx context.Context) error {
		_, err := client.SampleTypes().Create(ctx, sampleType)
		return err
	}, "Tipo de muestra creado")
	if rutil.SessionExpired(w, r, sampleTypes.Err) {
		return
	}
	if err != nil {
		// The list wasn't touched by the failed write, show it as it is now
		notice := sampleTypes.Notice
		if err := sampleTypes.Load(r.Context()); rutil.SessionExpired(w, r, err) {
			return
		}
		sampleTypes.Notice = notice
		result := newSampleTypesResult(r, sampleTypes)
		result.Form = sampleType
		result.FormPrice = r.PostForm.Get("precio")
		templates.MustWrite(w, "admin/sample_types", result)
		return
	}
	templates.MustWrite(w, "admin/sample_types", newSampleTypesResult(r, sampleTypes))
}

type sampleTypeEditResult struct {
	Title     string
	Session   *util.Session
	Notice    listsync.Notice
	Errors    forms.Errors
	Form      labapi.SampleType
	FormPrice string
	Kinds     []string
	Units     []string
}

func Admin_EditSampleType(w http.ResponseWriter, r *http.Request) {
	sampleType, err := rutil.ApiClient(r).SampleTypes().Get(r.Context(), rutil.IdParam(r, "id"))
	if !rutil.MustApiResult(w, r, err, util.SampleTypesPath) {
		return
	}
	templates.MustWrite(w, "admin/sample_type_edit", sampleTypeEditResult{
		Title:     util.DecorateTitle("Editar tipo de muestra"),
		Session:   rutil.Session(r),
		Notice:    listsync.Notice{},
		Errors:    forms.NewErrors(),
		Form:      sampleType,
		FormPrice: sampleType.Price.String(),
		Kinds:     labapi.SampleKinds,
		Units:     labapi.SampleUnits,
	})
}

func Admin_UpdateSampleType(w http.ResponseWriter, r *http.Request) {
	client := rutil.ApiClient(r)
	sampleTypeId := rutil.IdParam(r, "id")
	sampleType, errs := forms.SampleType(r.PostForm)
	sampleType.Id = sampleTypeId
	editResult := sampleTypeEditResult{
		Title:     util.DecorateTitle("Editar tipo de muestra"),
		Session:   rutil.Session(r),
		Notice:    listsync.Notice{},
		Errors:    errs,
		Form:      sampleType,
		FormPrice: r.PostForm.Get("precio"),
		Kinds:     labapi.SampleKinds,
		Units:     labapi.SampleUnits,
	}
	if errs.Any() {
		templates.MustWriteStatus(w, http.StatusUnprocessableEntity, "admin/sample_type_edit", editResult)
		return
	}

	sampleTypes := listsync.New(client.SampleTypes().List, rutil.Logger(r))
	err := sampleTypes.Apply(r.Context(), func(ctx context.Context) error {
		_, err := client.SampleTypes().Update(ctx, sampleTypeId, sampleType)
		return err
	}, "Tipo de muestra actualizado")
	if rutil.SessionExpired(w, r, sampleTypes.Err) {
		return
	}
	if err != nil {
		editResult.Notice = sampleTypes.Notice
		templates.MustWrite(w, "admin/sample_type_edit", editResult)
		return
	}
	templates.MustWrite(w, "admin/sample_types", newSampleTypesResult(r, sampleTypes))
}

func Admin_DeleteSampleType(w http.ResponseWriter, r *http.Request) {
	client := rutil.ApiClient(r)
	sampleTypeId := rutil.IdParam(r, "id")
	sampleTypes := listsync.New(client.SampleTypes().List, rutil.Logger(r))

	err := sampleTypes.Apply(r.Context(), func(ctx context.Context) error {
		return client.SampleTypes().Delete(ctx, sampleTypeId)
	}, "Tipo de muestra eliminado")
	if rutil.SessionExpired(w, r, sampleTypes.Err) {
		return
	}
	if err != nil {
		notice := sampleTypes.Notice
		if err := sampleTypes.Load(r.Context()); rutil.SessionExpired(w, r, err) {
			return
		}
		sampleTypes.Notice = notice
	}
	templates.MustWrite(w, "admin/sample_types", newSampleTypesResult(r, sampleTypes))
}
