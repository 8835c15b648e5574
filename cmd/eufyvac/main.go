package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joshp123/eufyvac/internal/config"
	"github.com/joshp123/eufyvac/internal/core"
	"github.com/joshp123/eufyvac/internal/server"
	"github.com/joshp123/eufyvac/plugins/eufyclean"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "", "Path to the config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	plugins := []core.Plugin{}
	var cleanPlugin eufyclean.Plugin
	if plugin, ok := eufyclean.NewPlugin(cfg.Eufyclean); ok {
		cleanPlugin = plugin
		plugins = append(plugins, plugin)
	}

	if err := core.ValidatePlugins(plugins); err != nil {
		log.Fatalf("plugins: %v", err)
	}

	metricsRegistry := core.MetricsRegistry(plugins)
	metricsRegistry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "eufyvac_build_info",
		Help: "Build information",
	}, func() float64 { return 1 }))

	if err := core.WriteDashboards(cfg.Core.DashboardDir, plugins); err != nil {
		log.Fatalf("dashboards: %v", err)
	}

	registry := core.NewRegistryService(plugins)

	httpMux := http.NewServeMux()
	httpMux.HandleFunc("/health", server.HealthHandler)
	httpMux.Handle("/metrics", server.MetricsHandler(metricsRegistry))
	httpMux.Handle("/plugins", server.RegistryHandler(registry))
	httpMux.Handle("/plugins/", server.RegistryHandler(registry))
	httpMux.Handle("/dashboards/", server.DashboardsHandler(core.DashboardsMap(plugins)))

	for _, plugin := range plugins {
		if registrant, ok := plugin.(core.HTTPRegistrant); ok {
			registrant.RegisterHTTP(httpMux)
		}
	}

	if bridgeCfg := cfg.Eufyclean; bridgeCfg != nil && bridgeCfg.MQTT != nil && cleanPlugin.Client() != nil {
		go runBridge(bridgeCfg, cleanPlugin.Client())
	}

	httpServer := server.NewHTTPServer(cfg.Core.HTTPAddr, httpMux)
	log.Printf("listening on %s", cfg.Core.HTTPAddr)
	if err := httpServer.ListenAndServe(); err != nil {
		log.Fatalf("http serve: %v", err)
	}
}

func runBridge(cfg *config.EufycleanConfig, client *eufyclean.Client) {
	bridge, err := eufyclean.NewStatusBridge(eufyclean.MQTTConfig{
		Host:     cfg.MQTT.Host,
		Port:     cfg.MQTT.Port,
		TLS:      cfg.MQTT.TLS,
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
		Topic:    cfg.MQTT.Topic,
	})
	if err != nil {
		log.Printf("mqtt bridge: %v", err)
		return
	}
	defer bridge.Close()
	bridge.Run(context.Background(), client, time.Duration(cfg.PollSeconds)*time.Second)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	paths := config.SearchPaths()
	var lastErr error
	for _, candidate := range paths {
		cfg, err := config.Load(candidate)
		if err == nil {
			return cfg, nil
		}
		lastErr = err
		if !errors.Is(err, os.ErrNotExist) {
			break
		}
	}
	return nil, lastErr
}
