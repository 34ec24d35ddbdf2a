package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avelkov/craftstock-backend/api/controllers"
	"github.com/avelkov/craftstock-backend/api/middleware"
	"github.com/avelkov/craftstock-backend/internal/catalog"
	"github.com/avelkov/craftstock-backend/internal/expenses"
	"github.com/avelkov/craftstock-backend/internal/orders"
	"github.com/avelkov/craftstock-backend/internal/recipes"
	"github.com/avelkov/craftstock-backend/internal/sales"
	"github.com/avelkov/craftstock-backend/internal/stock"
	"github.com/avelkov/craftstock-backend/internal/writeoffs"
	"github.com/avelkov/craftstock-backend/pkg/config"
	"github.com/avelkov/craftstock-backend/pkg/db"
	"github.com/avelkov/craftstock-backend/pkg/logger"
)

// Services bundles the domain services the router exposes.
type Services struct {
	Catalog   catalog.Service
	Stock     stock.Service
	Recipes   recipes.Service
	Sales     sales.Service
	Orders    orders.Service
	Expenses  expenses.Service
	WriteOffs writeoffs.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	metricsRegistry *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP))
	})

	if metricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Post("/units", controllers.CatalogCreateUnit(svcs.Catalog, logg))
			r.Get("/units", controllers.CatalogListUnits(svcs.Catalog, logg))
			r.Post("/stock-categories", controllers.CatalogCreateStockCategory(svcs.Catalog, logg))
			r.Get("/stock-categories", controllers.CatalogListStockCategories(svcs.Catalog, logg))
			r.Post("/expense-categories", controllers.CatalogCreateExpenseCategory(svcs.Catalog, logg))
			r.Get("/expense-categories", controllers.CatalogListExpenseCategories(svcs.Catalog, logg))
		})

		r.Route("/stock", func(r chi.Router) {
			r.Get("/", controllers.StockList(svcs.Stock, logg))
			r.Post("/", controllers.StockAdd(svcs.Stock, logg))
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", controllers.StockGet(svcs.Stock, logg))
				r.Post("/delta", controllers.StockDelta(svcs.Stock, logg))
				r.Put("/quantity", controllers.StockSet(svcs.Stock, logg))
				r.Delete("/", controllers.StockDelete(svcs.Stock, logg))
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(svcs.Recipes, logg))
			r.Post("/", controllers.ProductCreate(svcs.Recipes, logg))
			r.Route("/{productId}", func(r chi.Router) {
				r.Get("/", controllers.ProductGet(svcs.Recipes, logg))
				r.Put("/", controllers.ProductUpdate(svcs.Recipes, logg))
				r.Delete("/", controllers.ProductDelete(svcs.Recipes, logg))
				r.Get("/recipe", controllers.RecipeGet(svcs.Recipes, logg))
				r.Put("/recipe", controllers.RecipeSet(svcs.Recipes, logg))
			})
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", controllers.SaleList(svcs.Sales, logg))
			r.Post("/", controllers.SaleCreate(svcs.Sales, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Post("/", controllers.OrderCreate(svcs.Orders, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", controllers.OrderGet(svcs.Orders, logg))
				r.Post("/complete", controllers.OrderComplete(svcs.Orders, logg))
				r.Delete("/", controllers.OrderDelete(svcs.Orders, logg))
			})
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Route("/types", func(r chi.Router) {
				r.Get("/", controllers.ExpenseTypeList(svcs.Expenses, logg))
				r.Post("/", controllers.ExpenseTypeCreate(svcs.Expenses, logg))
				r.Delete("/{typeId}", controllers.ExpenseTypeDelete(svcs.Expenses, logg))
			})
			r.Route("/documents", func(r chi.Router) {
				r.Get("/", controllers.ExpenseDocumentList(svcs.Expenses, logg))
				r.Post("/", controllers.ExpenseDocumentPost(svcs.Expenses, logg))
				r.Get("/{documentId}", controllers.ExpenseDocumentGet(svcs.Expenses, logg))
				r.Delete("/{documentId}", controllers.ExpenseDocumentDelete(svcs.Expenses, logg))
			})
		})

		r.Route("/writeoffs", func(r chi.Router) {
			r.Get("/", controllers.WriteOffList(svcs.WriteOffs, logg))
			r.Post("/", controllers.WriteOffCreate(svcs.WriteOffs, logg))
		})
	})

	return r
}
