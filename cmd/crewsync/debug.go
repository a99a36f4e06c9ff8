package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldcrew/crewsync/internal/metrics"
	"github.com/fieldcrew/crewsync/internal/model"
	"github.com/fieldcrew/crewsync/internal/observability/logger"
	"github.com/fieldcrew/crewsync/internal/security/seal"
)

// serveDebug levanta el server de diagnóstico. Es solo para loopback:
// expone estado de inscripciones, así que nunca debería bindear a 0.0.0.0
// en producción.
func serveDebug(ctx context.Context, addr string, a *app) error {
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		type tenantStatus struct {
			TenantID string                 `json:"tenant_id"`
			Role     model.Role             `json:"role"`
			Status   model.CredentialStatus `json:"status"`
			Teams    []string               `json:"teams"`
		}
		var tenants []tenantStatus
		for _, c := range a.creds.All() {
			tenants = append(tenants, tenantStatus{
				TenantID: c.TenantID,
				Role:     c.Role,
				Status:   c.Status,
				Teams:    c.TeamCodes,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hardware_id": a.hwID,
			"seal_ready":  seal.Ready(),
			"tenants":     tenants,
		})
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("debug server escuchando", logger.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
