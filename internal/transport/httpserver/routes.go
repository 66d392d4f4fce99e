package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"membership-app-go/internal/config"
	userdomain "membership-app-go/internal/domain/user"
	"membership-app-go/internal/transport/httpserver/handler"
	authmw "membership-app-go/internal/transport/httpserver/middleware"
)

const defaultRequestTimeout = 30 * time.Second

func NewRouter(cfg config.Config, handlers *handler.Handlers, auth *authmw.JWTAuth, gatherer prometheus.Gatherer) http.Handler {
	requestTimeout := cfg.HTTP.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(authmw.NewCORS(authmw.DefaultCORSOptions(cfg.CORSAllowedOrigins)))
	r.Use(authmw.RequestMeta)

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Common.Health)
		r.Post("/auth/register", handlers.Common.Register)
		r.Post("/auth/login", handlers.Common.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Post("/auth/logout", handlers.Common.Logout)
			r.Get("/auth/me", handlers.Common.AuthMe)

			r.Get("/notifications", handlers.Common.ListNotifications)
			r.Post("/notifications/read", handlers.Common.MarkNotificationsRead)

			r.Get("/categories", handlers.Admin.ListCategories)
			r.Get("/categories/{id}", handlers.Admin.GetCategory)
			r.Get("/countries", handlers.Admin.ListCountries)
			r.Get("/countries/{id}/regions", handlers.Admin.ListRegions)

			r.Route("/member", func(r chi.Router) {
				r.Get("/dashboard", handlers.Members.MemberDashboard)
				r.Post("/registration", handlers.Members.SelfRegister)
				r.Post("/documents", handlers.Members.UploadOwnDocument)
				r.Post("/renewals", handlers.Members.InitiateOwnRenewal)
				r.Get("/payments", handlers.Payments.ListOwnPayments)
			})

			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireUserTypes(userdomain.TypeAdmin, userdomain.TypeStaff))

				r.Get("/staff/dashboard", handlers.Members.StaffDashboard)

				r.Get("/members", handlers.Members.ListMembers)
				r.Post("/members/bulk", handlers.Members.BulkAction)
				r.Post("/members/expiry-reminders", handlers.Members.SendExpiryReminders)
				r.Get("/members/{id}", handlers.Members.GetMember)
				r.Post("/members/{id}/approve", handlers.Members.ApproveMember)
				r.Post("/members/{id}/reject", handlers.Members.RejectMember)
				r.Post("/members/{id}/suspend", handlers.Members.SuspendMember)
				r.Post("/members/{id}/renew", handlers.Members.RenewMember)
				r.Get("/members/{id}/renewals", handlers.Members.ListRenewals)
				r.Post("/members/{id}/renewals", handlers.Members.InitiateRenewal)
				r.Get("/members/{id}/certificates", handlers.Members.ListCertificates)
				r.Post("/members/{id}/certificates", handlers.Members.IssueCertificate)
				r.Get("/members/{id}/documents", handlers.Members.ListDocuments)
				r.Post("/documents/verify", handlers.Members.VerifyDocuments)
				r.Post("/renewals/{renewal_id}/complete", handlers.Members.CompleteRenewal)

				r.Get("/payments", handlers.Payments.ListPayments)
				r.Post("/payments", handlers.Payments.InitiatePayment)
				r.Post("/payments/bulk", handlers.Payments.BulkAction)
				r.Get("/payments/{id}", handlers.Payments.GetPayment)
				r.Get("/payments/{id}/receipt", handlers.Payments.GetReceipt)
				r.Post("/payments/{id}/pending", handlers.Payments.MarkPending)
				r.Post("/payments/{id}/complete", handlers.Payments.CompletePayment)
				r.Post("/payments/{id}/fail", handlers.Payments.FailPayment)
				r.Post("/payments/{id}/cancel", handlers.Payments.CancelPayment)
				r.Post("/payments/{id}/refund", handlers.Payments.RefundPayment)
			})

			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireUserTypes(userdomain.TypeAdmin))

				r.Get("/admin/dashboard", handlers.Admin.AdminDashboard)
				r.Delete("/members/{id}", handlers.Members.DeleteMember)

				r.Post("/categories", handlers.Admin.CreateCategory)
				r.Put("/categories/{id}", handlers.Admin.UpdateCategory)
				r.Delete("/categories/{id}", handlers.Admin.DeleteCategory)

				r.Post("/countries", handlers.Admin.CreateCountry)
				r.Put("/countries/{id}", handlers.Admin.UpdateCountry)
				r.Delete("/countries/{id}", handlers.Admin.DeleteCountry)
				r.Post("/countries/{id}/regions", handlers.Admin.CreateRegion)
				r.Put("/regions/{region_id}", handlers.Admin.UpdateRegion)
				r.Delete("/regions/{region_id}", handlers.Admin.DeleteRegion)

				r.Get("/users", handlers.Admin.ListUsers)
				r.Post("/users", handlers.Admin.CreateUser)
				r.Get("/users/{id}", handlers.Admin.GetUser)
				r.Post("/users/verify", handlers.Admin.VerifyUsers)
				r.Post("/users/deactivate", handlers.Admin.DeactivateUsers)

				r.Get("/audit-logs", handlers.Admin.ListAuditLogs)

				r.Get("/settings", handlers.Admin.ListSettings)
				r.Get("/settings/{key}", handlers.Admin.GetSetting)
				r.Put("/settings/{key}", handlers.Admin.UpsertSetting)
			})
		})
	})

	return r
}
