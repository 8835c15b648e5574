package eufyclean

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector collects Eufy Clean metrics.
type MetricsCollector struct {
	client *Client

	success prometheus.Gauge

	batteryPercent *prometheus.GaugeVec
	state          *prometheus.GaugeVec
	fanSpeed       *prometheus.GaugeVec
	errorCode      *prometheus.GaugeVec
	powered        *prometheus.GaugeVec
	reachable      *prometheus.GaugeVec
}

func NewMetricsCollector(client *Client) *MetricsCollector {
	labels := []string{"device_id", "device_name", "model"}
	stateLabels := []string{"device_id", "device_name", "model", "state"}
	fanLabels := []string{"device_id", "device_name", "model", "fan_speed"}
	errorLabels := []string{"device_id", "device_name", "model", "error_code"}
	return &MetricsCollector{
		client: client,
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "eufyvac_scrape_success",
			Help: "Last scrape success (1=ok, 0=error)",
		}),
		batteryPercent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eufyvac_battery_percent",
			Help: "Battery percentage (0-100)",
		}, labels),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eufyvac_state",
			Help: "Vacuum lifecycle state (label)",
		}, stateLabels),
		fanSpeed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eufyvac_fan_speed",
			Help: "Fan speed (label)",
		}, fanLabels),
		errorCode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eufyvac_error_code",
			Help: "Vacuum error code (label)",
		}, errorLabels),
		powered: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eufyvac_powered",
			Help: "Whether the vacuum reports powered on (1=yes, 0=no)",
		}, labels),
		reachable: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eufyvac_reachable",
			Help: "Whether the device answered the last poll (1=yes, 0=no)",
		}, labels),
	}
}

func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	c.success.Describe(ch)
	c.batteryPercent.Describe(ch)
	c.state.Describe(ch)
	c.fanSpeed.Describe(ch)
	c.errorCode.Describe(ch)
	c.powered.Describe(ch)
	c.reachable.Describe(ch)
}

func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	states, err := c.client.DeviceStates(ctx)
	if err != nil {
		c.success.Set(0)
		c.collectAll(ch)
		return
	}

	c.success.Set(1)
	c.batteryPercent.Reset()
	c.state.Reset()
	c.fanSpeed.Reset()
	c.errorCode.Reset()
	c.powered.Reset()
	c.reachable.Reset()

	for _, state := range states {
		labels := prometheus.Labels{
			"device_id":   state.Device.ID,
			"device_name": state.Device.Name,
			"model":       state.Device.Model,
		}
		c.batteryPercent.With(labels).Set(float64(state.Status.BatteryPercent))
		if state.Status.Powered {
			c.powered.With(labels).Set(1)
		} else {
			c.powered.With(labels).Set(0)
		}
		if state.Reachable {
			c.reachable.With(labels).Set(1)
		} else {
			c.reachable.With(labels).Set(0)
		}

		if state.Status.State != "" {
			stateLabels := prometheus.Labels{
				"device_id":   state.Device.ID,
				"device_name": state.Device.Name,
				"model":       state.Device.Model,
				"state":       string(state.Status.State),
			}
			c.state.With(stateLabels).Set(1)
		}
		if state.Status.FanSpeed != "" {
			fanLabels := prometheus.Labels{
				"device_id":   state.Device.ID,
				"device_name": state.Device.Name,
				"model":       state.Device.Model,
				"fan_speed":   string(state.Status.FanSpeed),
			}
			c.fanSpeed.With(fanLabels).Set(1)
		}
		if state.Status.ErrorCode != "" {
			errorLabels := prometheus.Labels{
				"device_id":   state.Device.ID,
				"device_name": state.Device.Name,
				"model":       state.Device.Model,
				"error_code":  state.Status.ErrorCode,
			}
			c.errorCode.With(errorLabels).Set(1)
		}
	}

	c.collectAll(ch)
}

func (c *MetricsCollector) collectAll(ch chan<- prometheus.Metric) {
	c.success.Collect(ch)
	c.batteryPercent.Collect(ch)
	c.state.Collect(ch)
	c.fanSpeed.Collect(ch)
	c.errorCode.Collect(ch)
	c.powered.Collect(ch)
	c.reachable.Collect(ch)
}
