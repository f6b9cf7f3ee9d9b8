//go:build testing

package routes

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"environovalab/forms"
	"environovalab/labapi"
	"environovalab/util"

	"github.com/stretchr/testify/require"
)

func analysisIds(proforma labapi.Proforma) []labapi.ObjectId {
	ids := []labapi.ObjectId{}
	for _, analysis := range proforma.Analyses {
		ids = append(ids, analysis.Id)
	}
	return ids
}

// newProformaSite signs in a user who already has one proforma with a single pH line
func newProformaSite(t *testing.T) (*testSite, labapi.Proforma, labapi.SampleType) {
	site := newTestSite(t)
	site.api.AddAccount("ana", "secreto", false)
	ph := site.api.AddSampleType(labapi.SampleType{
		Id:        "",
		Type:      "agua",
		Parameter: "pH",
		Unit:      "U pH",
		Method:    "SM 4500",
		Technique: "Electrométrico",
		Price:     1000,
	})
	conductivity := site.api.AddSampleType(labapi.SampleType{
		Id:        "",
		Type:      "agua",
		Parameter: "Conductividad",
		Unit:      "uS/cm",
		Method:    "SM 2510",
		Technique: "Electrométrico",
		Price:     800,
	})
	site.signIn("ana", "secreto")

	site.get("/proformas/new")
	page := site.post("/proformas/new", url.Values{
		"nombre":   {"Acme"},
		"fecha":    {time.Now().Format(forms.DateLayout)},
		"muestra":  {string(ph.Id)},
		"cantidad": {"2"},
	})
	require.Equal(t, http.StatusOK, page.Status)
	proformas := site.api.Proformas()
	require.Len(t, proformas, 1)
	return site, proformas[0], conductivity
}

func TestProformaLines(t *testing.T) {
	site, proforma, conductivity := newProformaSite(t)

	page := site.get(util.ProformaPath(proforma.Id))
	require.Equal(t, http.StatusOK, page.Status)
	require.Equal(t, analysisIds(proforma), page.rowIds("analyses"))

	page = site.post(util.ProformaAnalysesPath(proforma.Id), url.Values{
		"muestra":  {string(conductivity.Id)},
		"cantidad": {"1"},
	})
	require.Equal(t, http.StatusOK, page.Status)
	require.Equal(t, "Análisis agregado", page.text(`//div[@id="notice"]`))
	proforma = site.api.Proformas()[0]
	require.Len(t, proforma.Analyses, 2)
	require.Equal(t, analysisIds(proforma), page.rowIds("analyses"))
	require.Equal(t, proforma.Total.Display(), page.text(`//td[@id="total"]`))

	removed := proforma.Analyses[0].Id
	page = site.post(util.ProformaRemoveAnalysisPath(proforma.Id, removed), nil)
	require.Equal(t, http.StatusOK, page.Status)
	require.Equal(t, "Análisis eliminado", page.text(`//div[@id="notice"]`))
	proforma = site.api.Proformas()[0]
	require.Equal(t, analysisIds(proforma), page.rowIds("analyses"))
	require.NotContains(t, page.rowIds("analyses"), removed)
	require.Equal(t, proforma.Total.Display(), page.text(`//td[@id="total"]`))
}

func TestProformaLineValidation(t *testing.T) {
	site, proforma, _ := newProformaSite(t)
	site.get(util.ProformaPath(proforma.Id))
	site.api.ClearRequests()

	page := site.post(util.ProformaAnalysesPath(proforma.Id), url.Values{
		"muestra":   {""},
		"parametro": {"Turbidez"},
		"precio":    {"5"},
		"cantidad":  {"1"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, page.Status)
	require.Equal(t, forms.MsgRequired, page.text(`//span[@data-field="metodo"]`))
	require.Empty(t, site.api.Mutations())
	require.Equal(t, analysisIds(proforma), page.rowIds("analyses"))
}

func TestProformaLineRejected(t *testing.T) {
	site, proforma, conductivity := newProformaSite(t)
	site.get(util.ProformaPath(proforma.Id))
	addPath := "/api/proformas/" + string(proforma.Id) + "/add_analysis/"
	site.api.Override(http.MethodPost, addPath, http.StatusInternalServerError, `{"error":"Error interno"}`)

	page := site.post(util.ProformaAnalysesPath(proforma.Id), url.Values{
		"muestra":  {string(conductivity.Id)},
		"cantidad": {"1"},
	})
	require.Equal(t, http.StatusOK, page.Status)
	require.Equal(t, "Error interno", page.text(`//div[@id="notice"]`))
	require.Equal(t, analysisIds(proforma), page.rowIds("analyses"))
	require.Equal(t, analysisIds(proforma), analysisIds(site.api.Proformas()[0]))
}

func TestProformaReadFailure(t *testing.T) {
	site, proforma, conductivity := newProformaSite(t)
	proformaPath := "/api/proformas/" + string(proforma.Id) + "/"

	site.api.Override(http.MethodGet, proformaPath, http.StatusServiceUnavailable, `{"error":"mantenimiento"}`)
	page := site.get(util.ProformaPath(proforma.Id))
	require.Equal(t, http.StatusOK, page.Status)
	require.Equal(t, "mantenimiento", page.text(`//div[@id="notice"]`))
	require.Equal(t, util.ProformasPath, page.attr(`//a[@id="back"]`, "href"))

	// The failed write is what gets reported when the page can't be read afterwards either
	site.get(util.ProformasPath)
	site.api.Override(
		http.MethodPost, proformaPath+"add_analysis/", http.StatusInternalServerError, `{"error":"Error interno"}`,
	)
	site.api.Override(http.MethodGet, proformaPath, http.StatusServiceUnavailable, `{"error":"mantenimiento"}`)
	page = site.post(util.ProformaAnalysesPath(proforma.Id), url.Values{
		"muestra":  {string(conductivity.Id)},
		"cantidad": {"1"},
	})
	require.Equal(t, http.StatusOK, page.Status)
	require.Equal(t, "Error interno", page.text(`//div[@id="notice"]`))

	page = site.get(util.ProformaPath("999"))
	require.Equal(t, http.StatusNotFound, page.Status)
}
