package routes

import (
	"context"
	"net/http"
	"slices"

	"environovalab/labapi"
	"environovalab/listsync"
	"environovalab/routes/rutil"
	"environovalab/templates"
	"environovalab/util"
)

type analysesResult struct {
	Title    string
	Session  *util.Session
	Notice   listsync.Notice
	Analyses []labapi.Analysis
}

func newAnalysesCollection(r *http.Request) *listsync.Collection[labapi.Analysis] {
	client := rutil.ApiClient(r)
	return listsync.New(func(ctx context.Context) ([]labapi.Analysis, error) {
		analyses, err := client.Analyses().List(ctx)
		if err != nil {
			return nil, err
		}
		slices.SortStableFunc(analyses, func(a, b labapi.Analysis) int {
			return a.Order - b.Order
		})
		return analyses, nil
	}, rutil.Logger(r))
}

func renderAnalyses(w http.ResponseWriter, r *http.Request, analyses *listsync.Collection[labapi.Analysis]) {
	templates.MustWrite(w, "admin/analyses", analysesResult{
		Title:    util.DecorateTitle("Análisis"),
		Session:  rutil.Session(r),
		Notice:   analyses.Notice,
		Analyses: analyses.Items,
	})
}

func Admin_Analyses(w http.ResponseWriter, r *http.Request) {
	analyses := newAnalysesCollection(r)
	if err := analyses.Load(r.Context()); rutil.SessionExpired(w, r, err) {
		return
	}
	renderAnalyses(w, r, analyses)
}

// Admin_ReorderAnalyses moves one analysis up or down and sends the full new ordering
func Admin_ReorderAnalyses(w http.ResponseWriter, r *http.Request) {
	analysisId := labapi.ObjectId(util.EnsureParam(r, "analysis_id"))
	direction := util.EnsureParam(r, "direction")

	analyses := newAnalysesCollection(r)
	if err := analyses.Load(r.Context()); err != nil {
		if rutil.SessionExpired(w, r, err) {
			return
		}
		renderAnalyses(w, r, analyses)
		return
	}

	orders, ok := moveAnalysis(analyses.Items, analysisId, direction)
	if !ok {
		analyses.Reject("No se puede mover ese análisis")
		renderAnalyses(w, r, analyses)
		return
	}

	client := rutil.ApiClient(r)
	_ = analyses.ApplyMessage(r.Context(), func(ctx context.Context) (string, error) {
		return client.Analyses().Reorder(ctx, orders)
	}, "Orden actualizado")
	if rutil.SessionExpired(w, r, analyses.Err) {
		return
	}
	renderAnalyses(w, r, analyses)
}

// moveAnalysis swaps the analysis with its neighbor and numbers the whole list from zero. It
// reports false when the analysis is unknown or already at that end.
func moveAnalysis(
	analyses []labapi.Analysis, analysisId labapi.ObjectId, direction string,
) ([]labapi.AnalysisOrder, bool) {
	index := slices.IndexFunc(analyses, func(a labapi.Analysis) bool {
		return a.Id == analysisId
	})
	if index < 0 {
		return nil, false
	}

	var other int
	switch direction {
	case "up":
		other = index - 1
	case "down":
		other = index + 1
	default:
		return nil, false
	}
	if other < 0 || other >= len(analyses) {
		return nil, false
	}

	ids := make([]labapi.ObjectId, len(analyses))
	for i, analysis := range analyses {
		ids[i] = analysis.Id
	}
	ids[index], ids[other] = ids[other], ids[index]

	orders := make([]labapi.AnalysisOrder, len(ids))
	for i, id := range ids {
		orders[i] = labapi.AnalysisOrder{Id: id, Order: i}
	}
	return orders, true
}
