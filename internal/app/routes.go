package app

import (
	"github.com/cgtsim/cgtsim/internal/config"
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Authenticated identity
	r.HandleFunc("/api/auth/me", deps.UserHandler.Me).Methods("GET")

	// Fund requests
	r.HandleFunc("/api/requests", deps.RequestHandler.Submit).Methods("POST")
	r.HandleFunc("/api/requests", deps.RequestHandler.GetAll).Methods("GET")
	r.HandleFunc("/api/requests/stats", deps.RequestHandler.Stats).Methods("GET")
	r.HandleFunc("/api/requests/{id}", deps.RequestHandler.Get).Methods("GET")
	r.HandleFunc("/api/requests/{id}/review", deps.RequestHandler.Review).Methods("POST")
	r.HandleFunc("/api/requests/{id}/versement", deps.RequestHandler.MarkVersed).Methods("POST")

	// Ledger
	r.HandleFunc("/api/transactions", deps.TransactionHandler.GetAll).Methods("GET")
	r.HandleFunc("/api/transactions/subsidies", deps.TransactionHandler.CreateSubsidy).Methods("POST")
	r.HandleFunc("/api/transactions/balances", deps.TransactionHandler.Balances).Methods("GET")
	r.HandleFunc("/api/transactions/stats", deps.TransactionHandler.Stats).Methods("GET")

	// Advances
	r.HandleFunc("/api/advances", deps.AdvanceHandler.GetAll).Methods("GET")
	r.HandleFunc("/api/advances/accrual", deps.AdvanceHandler.RunAccrual).Methods("POST")
	r.HandleFunc("/api/advances/{id}", deps.AdvanceHandler.Get).Methods("GET")
	r.HandleFunc("/api/advances/{id}/close", deps.AdvanceHandler.Close).Methods("POST")

	// Dashboards
	r.HandleFunc("/api/dashboard/css", deps.DashboardHandler.StatsCSS).Methods("GET")
	r.HandleFunc("/api/dashboard/cgtsim", deps.DashboardHandler.StatsCGTSIM).Methods("GET")
	r.HandleFunc("/api/dashboard/treasury", deps.DashboardHandler.Treasury).Methods("GET")

	// CSS directory
	r.HandleFunc("/api/css", deps.CSSHandler.List).Methods("GET")
	r.HandleFunc("/api/css", deps.CSSHandler.Create).Methods("POST")
	r.HandleFunc("/api/css/{id}", deps.CSSHandler.Get).Methods("GET")
}
