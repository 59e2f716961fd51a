package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/research-report/internal/model"
	"github.com/sells-group/research-report/internal/progress"
	"github.com/sells-group/research-report/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the research API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		hub := progress.NewHub()
		env, err := initResearch(ctx, hub)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/jobs", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Company  string `json:"company"`
				Industry string `json:"industry"`
				URL      string `json:"url"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				httpError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if body.Company == "" {
				httpError(w, http.StatusBadRequest, "company is required")
				return
			}

			job, err := env.Store.CreateJob(req.Context(), body.Company, body.Industry, body.URL)
			if err != nil {
				zap.L().Error("create job failed", zap.Error(err))
				httpError(w, http.StatusInternalServerError, "create job failed")
				return
			}

			// The job runs in the background; progress streams over /ws/{id}.
			go func() {
				if _, err := env.Runner.Run(ctx, job); err != nil {
					zap.L().Error("research failed",
						zap.String("job_id", job.ID),
						zap.Error(err),
					)
				}
			}()

			writeJSON(w, http.StatusAccepted, job)
		})

		r.Get("/jobs", func(w http.ResponseWriter, req *http.Request) {
			filter := store.JobFilter{
				Status:  model.JobStatus(req.URL.Query().Get("status")),
				Company: req.URL.Query().Get("company"),
			}
			jobs, err := env.Store.ListJobs(req.Context(), filter)
			if err != nil {
				zap.L().Error("list jobs failed", zap.Error(err))
				httpError(w, http.StatusInternalServerError, "list jobs failed")
				return
			}
			writeJSON(w, http.StatusOK, jobs)
		})

		r.Get("/jobs/{id}", func(w http.ResponseWriter, req *http.Request) {
			job, err := env.Store.GetJob(req.Context(), chi.URLParam(req, "id"))
			if errors.Is(err, store.ErrNotFound) {
				httpError(w, http.StatusNotFound, "job not found")
				return
			}
			if err != nil {
				zap.L().Error("get job failed", zap.Error(err))
				httpError(w, http.StatusInternalServerError, "get job failed")
				return
			}
			writeJSON(w, http.StatusOK, job)
		})

		r.Get("/jobs/{id}/report", func(w http.ResponseWriter, req *http.Request) {
			report, err := env.Store.GetReport(req.Context(), chi.URLParam(req, "id"))
			if errors.Is(err, store.ErrNotFound) {
				httpError(w, http.StatusNotFound, "report not found")
				return
			}
			if err != nil {
				zap.L().Error("get report failed", zap.Error(err))
				httpError(w, http.StatusInternalServerError, "get report failed")
				return
			}
			writeJSON(w, http.StatusOK, report)
		})

		r.Get("/ws/{id}", func(w http.ResponseWriter, req *http.Request) {
			if err := hub.Subscribe(w, req, chi.URLParam(req, "id")); err != nil {
				zap.L().Warn("websocket upgrade failed", zap.Error(err))
			}
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			// The signal context is already cancelled; drain on a fresh one.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Error("server shutdown failed", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
