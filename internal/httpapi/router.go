// Package httpapi exposes a read-mostly admin HTTP surface over a
// table registry, built on gorilla/mux the way the teacher repo wires
// its own HTTP routes throughout cmd/tempo/app.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/loxia-systems/termtab/internal/registry"
)

// NewRouter builds the admin mux for reg: table listing, per-table
// stats and print dumps, and the Prometheus scrape endpoint.
func NewRouter(reg *registry.Registry) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/tables", listTablesHandler(reg)).Methods(http.MethodGet)
	r.HandleFunc("/tables/{name}/stats", statsHandler(reg)).Methods(http.MethodGet)
	r.HandleFunc("/tables/{name}/print", printHandler(reg)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func listTablesHandler(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string][]string{"tables": reg.Names()})
	}
}

func statsHandler(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		tbl, ok := reg.Lookup(name)
		if !ok {
			http.Error(w, "no such table: "+name, http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, tbl.Stats())
	}
}

func printHandler(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		tbl, ok := reg.Lookup(name)
		if !ok {
			http.Error(w, "no such table: "+name, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := tbl.Print(w); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
