package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerMatchRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /api/matches", handler.ListMatches)
	mux.HandleFunc("GET /api/matches/week", handler.GetWeekMatches)
	mux.HandleFunc("GET /api/matches/week/{offset}", handler.GetWeekMatches)
	mux.HandleFunc("GET /api/matches/current", handler.GetCurrentWeekMatches)
	mux.HandleFunc("GET /api/matches/gameweek/{gameweek}", handler.ListMatchesByGameweek)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	// Overwrites stored scores with the provider's latest finished results.
	mux.Handle("POST /api/matches/refresh", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RefreshMatches)))
}
