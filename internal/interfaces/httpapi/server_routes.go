package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /{$}", handler.Index)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/tour-dates", handler.ListTourDates)
	mux.HandleFunc("GET /v1/calendar", handler.GetCalendar)
	mux.HandleFunc("GET /v1/calendar/missing", handler.ListMissingSlots)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/scrape", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunScrapeJob)))
}
