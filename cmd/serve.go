package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pders01/visionqa/internal/catalog"
	"github.com/pders01/visionqa/internal/config"
	"github.com/pders01/visionqa/internal/logging"
	"github.com/pders01/visionqa/internal/metrics"
	"github.com/pders01/visionqa/internal/models"
	"github.com/pders01/visionqa/internal/normalize"
	"github.com/pders01/visionqa/internal/report"
	"github.com/pders01/visionqa/internal/store"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard and metrics over HTTP",
	Long: `Serve the results directory over HTTP:
  GET /                              live catalog dashboard
  GET /api/catalog                   catalog as JSON
  GET /api/records/{name}/metrics    metrics for one record as JSON
  GET /files/*                       screenshots and reports

Examples:
  visionqa serve
  visionqa serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
}

type server struct {
	store    *store.Store
	renderer *report.Renderer
	dash     metrics.Policy
	catalog  metrics.Policy
	logger   logging.Logger
}

func newServer(s *store.Store, dash metrics.Policy, logger logging.Logger) (http.Handler, error) {
	renderer, err := report.New()
	if err != nil {
		return nil, err
	}
	renderer.LinkPrefix = "/files/"

	srv := &server{
		store:    s,
		renderer: renderer,
		dash:     dash,
		catalog:  dash.WithIdentical(true),
		logger:   logging.OrNop(logger),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(srv.logRequests)

	r.Get("/", srv.handleIndex)
	r.Get("/api/catalog", srv.handleCatalog)
	r.Get("/api/records/{name}/metrics", srv.handleMetrics)

	files := http.FileServer(afero.NewHttpFs(s.Fs()).Dir(s.Root()))
	r.Handle("/files/*", http.StripPrefix("/files/", files))

	return r, nil
}

func (srv *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		srv.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (srv *server) scan() (catalog.Catalog, error) {
	return catalog.NewAggregator(srv.catalog, srv.logger).Scan(srv.store)
}

func (srv *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	cat, err := srv.scan()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	html, err := srv.renderer.Index(cat)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

func (srv *server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	cat, err := srv.scan()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (srv *server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if ok, _ := filepath.Match(models.RecordPattern, name); !ok || filepath.Base(name) != name {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid record name: %s", name))
		return
	}

	rec, err := srv.store.ReadRecord(name)
	if errors.Is(err, fs.ErrNotExist) {
		writeError(w, http.StatusNotFound, fmt.Errorf("record not found: %s", name))
		return
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	res := normalize.New(normalize.WithLogger(srv.logger)).Reconcile(rec.Differences)
	writeJSON(w, http.StatusOK, recordMetrics{
		Record:   name,
		SubjectA: rec.SubjectA,
		SubjectB: rec.SubjectB,
		Source:   res.Path,
		Metrics:  metrics.Aggregate(res.Diff, srv.dash),
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	policy, err := config.GetSeverityPolicy()
	if err != nil {
		return err
	}

	handler, err := newServer(openStore(), policy, logging.Default())
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              serveAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	fmt.Fprintf(stdout, "Serving %s on %s\n", storageRoot(), serveAddr)
	logging.Default().Info("server started", "addr", serveAddr, "root", storageRoot())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
