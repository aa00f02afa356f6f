// Package server assembles the HTTP routing table.
//
// Route table:
//
//	GET    /                 → health message          (public)
//	POST   /login            → issue a session token   (public)
//	POST   /send-otp         → recovery step one       (public)
//	POST   /reset-password   → recovery step two       (public)
//	GET    /metrics          → Prometheus scrape       (public)
//	GET    /stud_data        → list students           (bearer)
//	GET    /stud_data/{reg}  → get one student         (bearer)
//	POST   /insert_data      → register a student      (bearer)
//	PUT    /update/{reg}     → update a student        (bearer)
//	DELETE /del/{reg}        → delete a student        (bearer)
package server

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aanand-mishra/student-records-api/internal/http/handlers/account"
	"github.com/aanand-mishra/student-records-api/internal/http/handlers/student"
	"github.com/aanand-mishra/student-records-api/internal/http/middleware"
	"github.com/aanand-mishra/student-records-api/internal/metrics"
	"github.com/aanand-mishra/student-records-api/internal/storage"
)

// Deps is everything the router needs. All fields are required.
type Deps struct {
	Logger   *slog.Logger
	Students storage.StudentStore
	Accounts account.Service
	Tokens   middleware.TokenValidator
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
}

// NewRouter returns the application handler with every route registered and
// the global middleware applied. Protected routes reject a request before
// their handler (and so the store) is reached.
func NewRouter(d Deps) http.Handler {
	router := http.NewServeMux()
	protect := middleware.RequireToken(d.Tokens, d.Metrics)
	recoverer := middleware.NewRecoveryMiddleware(d.Logger)

	// Recovery sits inside Instrument so a panic is still counted as a 500
	// under its route.
	handle := func(pattern string, h http.Handler) {
		router.Handle(pattern, d.Metrics.Instrument(pattern, recoverer(h)))
	}

	handle("GET /{$}", account.Home())
	handle("POST /login", account.Login(d.Accounts))
	handle("POST /send-otp", account.SendOTP(d.Accounts))
	handle("POST /reset-password", account.ResetPassword(d.Accounts))

	handle("GET /stud_data", protect(student.GetList(d.Students)))
	handle("GET /stud_data/{reg}", protect(student.GetByReg(d.Students)))
	handle("POST /insert_data", protect(student.New(d.Students)))
	handle("PUT /update/{reg}", protect(student.Update(d.Students)))
	handle("DELETE /del/{reg}", protect(student.Delete(d.Students)))

	router.Handle("GET /metrics", metrics.Handler(d.Gatherer))

	return middleware.Chain(router,
		middleware.NewLoggingMiddleware(d.Logger),
		recoverer,
		middleware.NewCORSMiddleware(),
	)
}
