// Package templates renders the embedded pages. Every page is parsed on top of its own copy of the
// base layout and the partials, and is addressed as "dir/name".
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"environovalab/labapi"
	"environovalab/static"
	"environovalab/util"
)

//go:embed */*.gohtml
var templateFS embed.FS

var pages map[string]*template.Template

func init() {
	funcMap := template.FuncMap{
		"static":    static.HashedPath,
		"kindLabel": kindLabel,
		"add":       func(a, b int) int { return a + b },
		"seq":       seq,
		"hasPrefix": strings.HasPrefix,
		"day":       day,

		"proformaPath":               util.ProformaPath,
		"proformaAnalysesPath":       util.ProformaAnalysesPath,
		"proformaRemoveAnalysisPath": util.ProformaRemoveAnalysisPath,
		"proformaPdfPath":            util.ProformaPdfPath,
		"proformaInformePdfPath":     util.ProformaInformePdfPath,
		"newInformePath":             util.NewInformePath,
		"informePath":                util.InformePath,
		"sampleTypeEditPath":         util.SampleTypeEditPath,
		"sampleTypePath":             util.SampleTypePath,
		"sampleTypeDeletePath":       util.SampleTypeDeletePath,
		"userRolePath":               util.UserRolePath,
		"userToggleActivePath":       util.UserToggleActivePath,
	}
	base := template.Must(
		template.New("base").Funcs(funcMap).ParseFS(templateFS, "layouts/*.gohtml", "partials/*.gohtml"),
	)

	paths, err := fs.Glob(templateFS, "*/*.gohtml")
	if err != nil {
		panic(err)
	}
	pages = make(map[string]*template.Template)
	for _, path := range paths {
		if strings.HasPrefix(path, "layouts/") || strings.HasPrefix(path, "partials/") {
			continue
		}
		page := template.Must(base.Clone())
		template.Must(page.ParseFS(templateFS, path))
		pages[strings.TrimSuffix(path, ".gohtml")] = page
	}
}

func kindLabel(kind string) string {
	if label, ok := labapi.SampleKindLabels[kind]; ok {
		return label
	}
	return kind
}

// RFC 3339 timestamps from the API are shown as their date part
func day(timestamp string) string {
	if len(timestamp) >= 10 {
		return timestamp[:10]
	}
	return timestamp
}

func seq(n int) []int {
	result := make([]int, n)
	for i := range result {
		result[i] = i
	}
	return result
}

// MustWrite renders into a buffer first so that a template error doesn't leave half a page behind
func MustWrite(w http.ResponseWriter, name string, data any) {
	MustWriteStatus(w, http.StatusOK, name, data)
}

func MustWriteStatus(w http.ResponseWriter, status int, name string, data any) {
	page, ok := pages[name]
	if !ok {
		panic(fmt.Errorf("template not found: %s", name))
	}

	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, "base", data); err != nil {
		panic(err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		panic(err)
	}
}
