package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"Storefront/internal/accounts"
	"Storefront/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

type Deps struct {
	ShopURL     string
	AccountsURL string
	JWTSecret   string
}

const (
	readyTimeout      = 2 * time.Second
	readyProbeTimeout = 700 * time.Millisecond

	loginLimit       = 5
	loginLimitWindow = time.Minute
)

var readyClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	},
}

func NewHandler(deps Deps, httpDeps HTTPDeps) (http.Handler, error) {
	shopProxy, err := NewReverseProxy(deps.ShopURL, httpDeps.Log)
	if err != nil {
		return nil, err
	}

	accountsProxy, err := NewReverseProxy(deps.AccountsURL, httpDeps.Log)
	if err != nil {
		return nil, err
	}

	tokens := accounts.NewTokens(deps.JWTSecret)
	loginLimiter := kit.NewIPRateLimiter(loginLimit, loginLimitWindow)

	r := chi.NewRouter()
	setupMiddleware(r, httpDeps)
	setupMetrics(r, httpDeps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps, httpDeps.Log))

	r.With(loginLimiter.Middleware).Post("/accounts/login", accountsProxy.ServeHTTP)
	r.Handle("/accounts", accountsProxy)
	r.Handle("/accounts/*", accountsProxy)

	// Catalog reads are public; catalog mutation is a staff action.
	r.Get("/products", shopProxy.ServeHTTP)
	r.Get("/products/*", shopProxy.ServeHTTP)
	r.With(StaffOnly(tokens)).Post("/products", shopProxy.ServeHTTP)

	r.Handle("/cart", shopProxy)
	r.Handle("/cart/*", shopProxy)
	r.Post("/purchase", shopProxy.ServeHTTP)

	return r, nil
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(deps Deps, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := checkReady(ctx, deps.AccountsURL+"/readyz"); err != nil {
			if log != nil {
				log.Warn("readyz failed: accounts", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "accounts not ready", nil)
			return
		}

		if err := checkReady(ctx, deps.ShopURL+"/readyz"); err != nil {
			if log != nil {
				log.Warn("readyz failed: shop", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "shop not ready", nil)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

func checkReady(ctx context.Context, url string) error {
	cctx, cancel := context.WithTimeout(ctx, readyProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := readyClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status=%d", resp.StatusCode)
	}

	return nil
}
