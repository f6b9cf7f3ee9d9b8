package util

import (
	"fmt"
	"net/url"

	"environovalab/labapi"
)

const ProformasPath = "/proformas"
const InformesPath = "/informes"
const SampleTypesPath = "/admin/tipos-muestra"

func ProformaPath(proformaId labapi.ObjectId) string {
	return fmt.Sprintf("/proformas/%s", url.PathEscape(string(proformaId)))
}

func ProformaAnalysesPath(proformaId labapi.ObjectId) string {
	return fmt.Sprintf("/proformas/%s/analyses", url.PathEscape(string(proformaId)))
}

func ProformaRemoveAnalysisPath(proformaId labapi.ObjectId, analysisId labapi.ObjectId) string {
	return fmt.Sprintf(
		"/proformas/%s/analyses/%s/delete",
		url.PathEscape(string(proformaId)), url.PathEscape(string(analysisId)),
	)
}

func ProformaPdfPath(proformaId labapi.ObjectId) string {
	return fmt.Sprintf("/proformas/%s/pdf", url.PathEscape(string(proformaId)))
}

func ProformaInformePdfPath(proformaId labapi.ObjectId) string {
	return fmt.Sprintf("/proformas/%s/informe.pdf", url.PathEscape(string(proformaId)))
}

func NewInformePath(proformaId labapi.ObjectId) string {
	return "/informes/new?proforma=" + url.QueryEscape(string(proformaId))
}

func InformePath(informeId labapi.ObjectId) string {
	return fmt.Sprintf("/informes/%s", url.PathEscape(string(informeId)))
}

func SampleTypeEditPath(sampleTypeId labapi.ObjectId) string {
	return fmt.Sprintf("/admin/tipos-muestra/%s/edit", url.PathEscape(string(sampleTypeId)))
}

func SampleTypePath(sampleTypeId labapi.ObjectId) string {
	return fmt.Sprintf("/admin/tipos-muestra/%s", url.PathEscape(string(sampleTypeId)))
}

func SampleTypeDeletePath(sampleTypeId labapi.ObjectId) string {
	return fmt.Sprintf("/admin/tipos-muestra/%s/delete", url.PathEscape(string(sampleTypeId)))
}

func UserRolePath(userId labapi.ObjectId) string {
	return fmt.Sprintf("/admin/usuarios/%s/role", url.PathEscape(string(userId)))
}

func UserToggleActivePath(userId labapi.ObjectId) string {
	return fmt.Sprintf("/admin/usuarios/%s/toggle-active", url.PathEscape(string(userId)))
}
