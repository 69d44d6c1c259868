// Command report serves the output directory over HTTP so the per-run
// index.html, plots and workbooks can be browsed. Each run lives under a
// uuid-named subdirectory written by the simulate command.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"decaylab/internal"
	"decaylab/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	logger := internal.NewDefaultLogger()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	addr := ":8080"
	if v := os.Getenv("REPORT_ADDR"); v != "" {
		addr = v
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", listRuns(cfg.Output.Dir))
	r.Handle("/runs/*", http.StripPrefix("/runs/", http.FileServer(http.Dir(cfg.Output.Dir))))

	logger.Info("serving %s on %s", cfg.Output.Dir, addr)
	return http.ListenAndServe(addr, r)
}

// listRuns renders a minimal index of run directories, newest last.
func listRuns(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			http.Error(w, fmt.Sprintf("reading %s: %v", dir, err), http.StatusInternalServerError)
			return
		}

		var b strings.Builder
		b.WriteString("<!doctype html><title>Study runs</title><h1>Study runs</h1><ul>")
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			target := filepath.Join("/runs", e.Name())
			if _, err := os.Stat(filepath.Join(dir, e.Name(), "index.html")); err == nil {
				target = filepath.Join(target, "index.html")
			}
			fmt.Fprintf(&b, `<li><a href="%s">%s</a></li>`, target, e.Name())
		}
		b.WriteString("</ul>")

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(b.String()))
	}
}
