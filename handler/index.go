package handler

import (
	"encoding/json"
	"net/http"
	"sort"
)

// entryPoints are the storefront's route groups, as advertised at the API root.
var entryPoints = map[string]string{
	"auth":     "/auth/login",
	"catalog":  "/products",
	"cart":     "/cart",
	"checkout": "/cart/checkout/session",
	"orders":   "/orders",
	"health":   "/health",
	"docs":     "/swagger/index.html",
}

type banner struct {
	Service string            `json:"service"`
	Status  string            `json:"status"`
	Path    string            `json:"path"`
	Groups  []string          `json:"groups"`
	Links   map[string]string `json:"links"`
}

// Handler answers the API root with the storefront banner.
func Handler(w http.ResponseWriter, r *http.Request) {
	groups := make([]string, 0, len(entryPoints))
	for name := range entryPoints {
		groups = append(groups, name)
	}
	sort.Strings(groups)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(banner{
		Service: "Keyboard Collective API",
		Status:  "ok",
		Path:    r.URL.Path,
		Groups:  groups,
		Links:   entryPoints,
	})
}
