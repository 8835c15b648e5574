package eufyclean

import (
	_ "embed"
	"encoding/json"
	"net/http"

	"github.com/joshp123/eufyvac/internal/config"
	"github.com/joshp123/eufyvac/internal/core"
	"github.com/joshp123/eufyvac/internal/rate"
	"github.com/prometheus/client_golang/prometheus"
)

//go:embed AGENTS.md
var agentsMD string

//go:embed dashboard.json
var dashboardJSON []byte

// Plugin implements the plugin contract.
type Plugin struct {
	client        *Client
	health        core.HealthStatus
	healthMessage string
}

// NewPlugin constructs the Eufy Clean plugin from config.
func NewPlugin(cfg *config.EufycleanConfig) (Plugin, bool) {
	if cfg == nil {
		return Plugin{}, false
	}

	runtimeCfg, err := ConfigFromSettings(cfg)
	if err != nil {
		return Plugin{health: core.HealthError, healthMessage: err.Error()}, true
	}

	client, err := NewClient(runtimeCfg)
	if err != nil {
		return Plugin{health: core.HealthError, healthMessage: err.Error()}, true
	}

	return Plugin{client: client, health: core.HealthHealthy}, true
}

// Client exposes the underlying client for the daemon's MQTT bridge.
func (p Plugin) Client() *Client {
	return p.client
}

func (p Plugin) ID() string {
	return "eufyclean"
}

func (p Plugin) Manifest() core.Manifest {
	return core.Manifest{
		PluginID:    "eufyclean",
		DisplayName: "Eufy Clean",
		Version:     "0.1.0",
		Services:    []string{"eufyvac.plugins.eufyclean.Status"},
	}
}

func (p Plugin) AgentsMD() string {
	return agentsMD
}

func (p Plugin) Dashboards() []core.Dashboard {
	return []core.Dashboard{{Name: "eufyclean-overview", JSON: dashboardJSON}}
}

func (p Plugin) Collectors() []prometheus.Collector {
	if p.client == nil {
		return nil
	}
	collectors := []prometheus.Collector{NewMetricsCollector(p.client)}
	return append(collectors, rate.MetricsCollectors()...)
}

func (p Plugin) Health() core.HealthStatus {
	return p.health
}

func (p Plugin) HealthMessage() string {
	return p.healthMessage
}

// RegisterHTTP exposes a JSON status endpoint for the daemon mux.
func (p Plugin) RegisterHTTP(mux *http.ServeMux) {
	if p.client == nil {
		return
	}
	mux.HandleFunc("/plugins/eufyclean/status", func(w http.ResponseWriter, r *http.Request) {
		states, err := p.client.DeviceStates(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(states)
	})
}
