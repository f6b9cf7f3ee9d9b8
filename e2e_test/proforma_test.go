//go:build e2etesting

package e2etest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProformaLifecycle(t *testing.T) {
	user := mustCredentials(t, "E2E_USER")
	browser := launchBrowser(t)
	mustLogin(browser, user)

	clientName := "E2E " + time.Now().UTC().Format("20060102150405")
	page := visit(browser, "/proformas/new")
	page.MustElement("#nombre").MustInput(clientName)
	options := page.MustElements(`#proforma_form select[name="muestra"] option`)
	if len(options) < 2 {
		t.Skip("the catalog is empty")
	}
	page.MustElement(`#proforma_form select[name="muestra"]`).MustSelect(options[1].MustText())
	page.MustElement("#create-proforma").MustClick()
	page.MustWaitLoad()
	require.Equal(t, "Proforma creada", noticeText(page))

	page.MustElementR("#proformas td", clientName).MustParent().MustElement("a").MustClick()
	page.MustWaitLoad()
	before := len(page.MustElements("#analyses tbody tr[data-id]"))

	page.MustElement("#parametro").MustInput("Turbidez")
	page.MustElement("#unidad").MustInput("NTU")
	page.MustElement("#metodo").MustInput("SM 2130 B")
	page.MustElement("#tecnica").MustInput("Nefelométrico")
	page.MustElement("#precio").MustInput("8.50")
	page.MustElement("#add-analysis").MustClick()
	page.MustWaitLoad()
	require.Equal(t, "Análisis agregado", noticeText(page))
	require.Len(t, page.MustElements("#analyses tbody tr[data-id]"), before+1)

	page.MustElementR("#analyses tr", "Turbidez").MustElement("button.danger").MustClick()
	page.MustWaitLoad()
	require.Equal(t, "Análisis eliminado", noticeText(page))
	require.Len(t, page.MustElements("#analyses tbody tr[data-id]"), before)
}
