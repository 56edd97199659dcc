package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"posbilling/handlers"
	"posbilling/obs"
)

type Handlers struct {
	User     *handlers.UserHandler
	Session  *handlers.SessionHandler
	Bill     *handlers.BillHandler
	PDF      *handlers.PDFHandler
	Product  *handlers.ProductHandler
	Customer *handlers.CustomerHandler
	Initial  *handlers.InitialHandler
	Report   *handlers.ReportHandler
}

type Options struct {
	Logger         zerolog.Logger
	Metrics        *obs.Metrics
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func SetupRoutes(h Handlers, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(handlers.RecoverWrapper)
	r.Use(opts.Metrics.Middleware)
	r.Use(obs.RequestLogger{Logger: opts.Logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(opts.AllowedOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", handlers.Health)
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	// User routes
	r.Post("/signup", h.User.Signup)
	r.Post("/login", h.User.Login)

	// Billing sessions
	r.Route("/sessions", func(s chi.Router) {
		s.Post("/", h.Session.StartSession)
		s.Route("/{id}", func(s chi.Router) {
			s.Get("/", h.Session.GetSession)
			s.Delete("/", h.Session.DiscardSession)
			s.Post("/items", h.Session.AddItem)
			s.Patch("/items/{lineID}", h.Session.SetQuantity)
			s.Delete("/items/{lineID}", h.Session.RemoveItem)
			s.Put("/customer", h.Session.AttachCustomer)
			s.Delete("/customer", h.Session.DetachCustomer)
			s.Put("/transport", h.Session.SetTransport)
			s.Get("/totals", h.Session.Totals)
			s.Post("/checkout", h.Session.Checkout)
		})
	})

	// Saved bills
	r.Route("/bills", func(b chi.Router) {
		b.Get("/", h.Bill.GetBills)
		b.Get("/{id}", h.Bill.GetBillByID)
		b.Delete("/{id}", h.Bill.DeleteBill)
		b.Get("/{id}/pdf", h.PDF.BillPDF)
	})

	r.Route("/customers", func(c chi.Router) {
		c.Get("/", h.Customer.ListCustomers)
		c.Post("/", h.Customer.SaveCustomer)
		c.Get("/{phone}", h.Customer.GetCustomer)
	})

	r.Route("/products", func(p chi.Router) {
		p.Get("/", h.Product.SearchProducts)
		p.Post("/", h.Product.SaveProduct)
		p.Get("/{code}", h.Product.GetProduct)
	})

	// Initial setup routes
	r.Get("/initial", h.Initial.GetInitial)
	r.Post("/initial", h.Initial.SaveInitial)

	r.Get("/reports/sales", h.Report.SalesReport)

	return r
}
