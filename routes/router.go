package routes

import (
	"net/http"

	"environovalab/jarstore"
	frmiddleware "environovalab/middleware"
	"environovalab/static"
	"environovalab/util"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the whole site. API cookie jars are kept in store.
func NewRouter(store jarstore.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(frmiddleware.Logger)
	r.Use(middleware.Compress(5))
	r.Use(frmiddleware.Recoverer)
	r.Use(frmiddleware.RedirectHttpToHttps)
	r.Use(frmiddleware.RedirectSlashes(static.UrlPrefix))
	r.Use(frmiddleware.DefaultHeaders)
	r.Use(middleware.GetHead)

	r.Get(static.RouteTemplate, Static_File)

	r.Group(func(r chi.Router) {
		r.Use(frmiddleware.Session)
		r.Use(frmiddleware.CurrentUser)
		r.Use(frmiddleware.CSRF)
		r.Use(frmiddleware.ApiClient(store))
		r.Use(frmiddleware.LogAction)

		r.Get("/", Root)
		r.Get(util.LoginPath, Login_Page)
		r.Post(util.LoginPath, Login)
		r.Get("/logout", Logout)
		r.Get(util.RegisterPath, Register_Page)
		r.Post(util.RegisterPath, Register)
		r.Get("/forgot-password", ForgotPassword_Page)
		r.Post("/forgot-password", ForgotPassword)
		r.Get("/reset-password/{token}", ResetPassword_Page)
		r.Post("/reset-password/{token}", ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(frmiddleware.AuthorizeSignedIn)

			r.Get(util.DashboardPath, Dashboard)
			r.Get("/proformas", Proformas_Index)
			r.Get("/proformas/new", Proformas_New)
			r.Post("/proformas/new", Proformas_Create)
			r.Get("/proformas/{id}", Proformas_Show)
			r.Post("/proformas/{id}/analyses", Proformas_AddAnalysis)
			r.Post("/proformas/{id}/analyses/{analysisId}/delete", Proformas_RemoveAnalysis)
			r.Get("/proformas/{id}/pdf", Proformas_Pdf)
			r.Get("/proformas/{id}/informe.pdf", Proformas_InformePdf)
			r.Get("/informes", Informes_Index)
			r.Get("/informes/new", Informes_New)
			r.Post("/informes/new", Informes_Create)
			r.Get("/informes/{id}", Informes_Show)
		})

		r.Group(func(r chi.Router) {
			r.Use(frmiddleware.AuthorizeAdmin)

			r.Get("/admin/tipos-muestra", Admin_SampleTypes)
			r.Post("/admin/tipos-muestra", Admin_CreateSampleType)
			r.Get("/admin/tipos-muestra/{id}/edit", Admin_EditSampleType)
			r.Post("/admin/tipos-muestra/{id}", Admin_UpdateSampleType)
			r.Post("/admin/tipos-muestra/{id}/delete", Admin_DeleteSampleType)
			r.Get("/admin/analisis", Admin_Analyses)
			r.Post("/admin/analisis/reorder", Admin_ReorderAnalyses)
			r.Get("/admin/usuarios", Admin_Users)
			r.Post("/admin/usuarios", Admin_CreateUser)
			r.Post("/admin/usuarios/{id}/role", Admin_UpdateUserRole)
			r.Post("/admin/usuarios/{id}/toggle-active", Admin_ToggleUserActive)
		})

		r.NotFound(Misc_NotFound)
	})

	return r
}
