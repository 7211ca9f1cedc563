package handlers

import (
	"pricewatch/internal/config"
	"pricewatch/internal/dispatch"
	"pricewatch/internal/repos"
	"pricewatch/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	ProductHandler  *ProductHandler
	SearchHandler   *SearchHandler
	TrackingHandler *TrackingHandler
	AlertHandler    *AlertHandler
	AdminHandler    *AdminHandler

	// UpdateService is exposed so main can hand it to the scheduler.
	UpdateService *services.UpdateService
}

func NewDeps(db *sqlx.DB, cfg config.Config, client services.ItemsFetcher, searcher services.ItemSearcher, d *dispatch.Dispatcher) *Deps {
	prodRepo := repos.NewProductRepo(db)
	histRepo := repos.NewHistoryRepo(db)
	trackRepo := repos.NewTrackingRepo(db)
	alertRepo := repos.NewAlertRepo(db)
	logRepo := repos.NewUpdateLogRepo(db)

	alertSvc := services.NewAlertService(trackRepo, alertRepo)
	reconcileSvc := services.NewReconcileService(histRepo, prodRepo, alertSvc, cfg.DispatchConcurrency)
	fetchSvc := services.NewFetchService(client, d, cfg.FetchBatchSize)
	updateSvc := services.NewUpdateService(prodRepo, fetchSvc, reconcileSvc, logRepo)
	searchSvc := services.NewSearchService(searcher, d)
	trackSvc := services.NewTrackingService(trackRepo, prodRepo)
	prodSvc := services.NewProductService(prodRepo, histRepo)

	return &Deps{
		ProductHandler:  &ProductHandler{Products: prodSvc},
		SearchHandler:   &SearchHandler{Search: searchSvc},
		TrackingHandler: &TrackingHandler{Tracking: trackSvc},
		AlertHandler:    &AlertHandler{Alerts: alertRepo},
		AdminHandler:    &AdminHandler{Update: updateSvc, Reconcile: reconcileSvc, Products: prodRepo, Logs: logRepo},
		UpdateService:   updateSvc,
	}
}
