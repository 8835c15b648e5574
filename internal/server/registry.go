package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/joshp123/eufyvac/internal/core"
)

// RegistryHandler serves plugin discovery as JSON: a summary list at the
// mount path and a descriptor at <mount>/<id>.
func RegistryHandler(svc *core.RegistryService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/plugins"), "/")
		w.Header().Set("Content-Type", "application/json")

		if id == "" {
			writeJSON(w, svc.ListPlugins())
			return
		}

		descriptor, ok := svc.DescribePlugin(id)
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, descriptor)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(v)
}
