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

func informeValues(proformaId labapi.ObjectId, takenBy string) url.Values {
	return url.Values{
		"proforma":      {string(proformaId)},
		"fecha_emision": {time.Now().Format(forms.DateLayout)},
		"tomado_por":    {takenBy},
		"procedimiento": {"PEE-01"},
		"analizado_por": {"Luis"},
		"parametro":     {"pH"},
		"unidad":        {"U pH"},
		"metodo":        {"SM 4500"},
		"resultados":    {"7.2"},
		"limite":        {"6-9"},
		"incertidumbre": {"0.1"},
	}
}

func TestCreateInforme(t *testing.T) {
	site, proforma, _ := newProformaSite(t)

	page := site.get(util.NewInformePath(proforma.Id))
	require.Equal(t, http.StatusOK, page.Status)
	require.Equal(t, "pH", page.inputValue("parametro"))
	require.Equal(t, "ana", page.inputValue("tomado_por"))

	page = site.post("/informes/new", informeValues(proforma.Id, "ana"))
	require.Equal(t, http.StatusOK, page.Status)
	require.Equal(t, "Informe creado", page.text(`//div[@id="notice"]`))
	informes := site.api.Informes()
	require.Len(t, informes, 1)
	require.Equal(t, []labapi.ObjectId{informes[0].Id}, page.rowIds("informes"))
	require.Equal(t, proforma.Number, page.text(`//table[@id="informes"]/tbody/tr/td[1]`))

	page = site.get(util.InformePath(informes[0].Id))
	require.Equal(t, http.StatusOK, page.Status)
	require.Equal(t, "7.2", page.text(`//table[@id="results"]/tbody/tr/td[4]`))
}

func TestCreateInformeValidation(t *testing.T) {
	site, proforma, _ := newProformaSite(t)
	site.get(util.NewInformePath(proforma.Id))
	site.api.ClearRequests()

	page := site.post("/informes/new", informeValues(proforma.Id, ""))
	require.Equal(t, http.StatusUnprocessableEntity, page.Status)
	require.Equal(t, forms.MsgRequired, page.text(`//span[@data-field="tomado_por"]`))
	require.Empty(t, site.api.Mutations())
	require.Empty(t, site.api.Informes())
}

func TestCreateInformeRejected(t *testing.T) {
	site, proforma, _ := newProformaSite(t)
	site.get(util.NewInformePath(proforma.Id))
	site.api.Override(http.MethodPost, "/api/informes/", http.StatusBadRequest, `{"proforma":["Proforma cerrada."]}`)

	page := site.post("/informes/new", informeValues(proforma.Id, "ana"))
	require.Equal(t, http.StatusOK, page.Status)
	require.Contains(t, page.text(`//div[@id="notice"]`), "Proforma cerrada.")
	require.Equal(t, "PEE-01", page.inputValue("procedimiento"))
	require.Empty(t, site.api.Informes())

	page = site.get("/informes")
	require.Empty(t, page.rowIds("informes"))
}

func TestInformeResultsReadFailure(t *testing.T) {
	site, proforma, _ := newProformaSite(t)
	site.get(util.NewInformePath(proforma.Id))
	site.post("/informes/new", informeValues(proforma.Id, "ana"))
	informeId := site.api.Informes()[0].Id

	site.api.Override(
		http.MethodGet, "/api/informes/"+string(informeId)+"/resultados/",
		http.StatusServiceUnavailable, `{"error":"mantenimiento"}`,
	)
	page := site.get(util.InformePath(informeId))
	require.Equal(t, http.StatusOK, page.Status)
	require.Equal(t, "mantenimiento", page.text(`//div[@id="notice"]`))
	require.Equal(t, util.InformesPath, page.attr(`//a[@id="back"]`, "href"))

	page = site.get(util.InformePath("999"))
	require.Equal(t, http.StatusNotFound, page.Status)
}
