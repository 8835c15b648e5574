package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joshp123/eufyvac/internal/config"
	"github.com/joshp123/eufyvac/plugins/eufyclean"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	globals := flag.NewFlagSet("eufyvac-cli", flag.ExitOnError)
	jsonOutput := globals.Bool("json", false, "JSON output")
	configPath := globals.String("config", "", "Path to the config file")
	_ = globals.Parse(os.Args[2:])
	args := globals.Args()

	client := newClient(*configPath)
	out := outputMode{json: *jsonOutput}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "devices":
		devicesCmd(ctx, client, out)
	case "status":
		statusCmd(ctx, client, out, args)
	case "start":
		controlCmd(ctx, client, args, "started cleaning", client.StartClean)
	case "pause":
		controlCmd(ctx, client, args, "paused", client.Pause)
	case "stop":
		controlCmd(ctx, client, args, "stopped", client.Stop)
	case "dock":
		controlCmd(ctx, client, args, "returning to dock", client.Dock)
	case "fan":
		fanCmd(ctx, client, args)
	default:
		usage()
		os.Exit(2)
	}
}

func devicesCmd(ctx context.Context, client *eufyclean.Client, out outputMode) {
	devices, err := client.Devices(ctx)
	if err != nil {
		fatal("devices", err)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })

	if out.json {
		out.printJSON(devices)
		return
	}
	rows := [][]string{{"ID", "NAME", "MODEL", "ADDRESS"}}
	for _, device := range devices {
		rows = append(rows, []string{device.ID, device.Name, device.Model, device.Address})
	}
	out.table(rows)
}

func statusCmd(ctx context.Context, client *eufyclean.Client, out outputMode, args []string) {
	deviceID := resolveDevice(ctx, client, args)
	status, err := client.Status(ctx, deviceID)
	if err != nil {
		if errors.Is(err, eufyclean.ErrDeviceUnavailable) {
			if retained, ok := client.LastStatus(deviceID); ok {
				printStatus(out, retained, false)
				return
			}
		}
		fatal("status", err)
	}
	printStatus(out, status, true)
}

func printStatus(out outputMode, status eufyclean.Status, reachable bool) {
	if out.json {
		out.printJSON(map[string]any{
			"state":      status.State,
			"battery":    status.BatteryPercent,
			"fan_speed":  status.FanSpeed,
			"error_code": status.ErrorCode,
			"powered":    status.Powered,
			"reachable":  reachable,
		})
		return
	}
	fmt.Printf("STATE:   %s\n", status.State)
	fmt.Printf("BATTERY: %d%%\n", status.BatteryPercent)
	fmt.Printf("FAN:     %s\n", status.FanSpeed)
	if status.ErrorCode != "" && status.ErrorCode != "0" {
		fmt.Printf("ERROR:   %s\n", eufyclean.ErrorDescription(status.ErrorCode))
	}
	if !reachable {
		fmt.Println("NOTE:    device unreachable, showing last known status")
	}
}

func controlCmd(ctx context.Context, client *eufyclean.Client, args []string, verb string, action func(context.Context, string) error) {
	deviceID := resolveDevice(ctx, client, args)
	if err := action(ctx, deviceID); err != nil {
		fatal("control", err)
	}
	fmt.Printf("ok: %s\n", verb)
}

func fanCmd(ctx context.Context, client *eufyclean.Client, args []string) {
	if len(args) < 1 {
		fatal("fan", fmt.Errorf("usage: eufyvac-cli fan <quiet|standard|turbo|max> [device-id]"))
	}
	speed, err := resolveFanSpeed(args[0])
	if err != nil {
		fatal("fan", err)
	}
	deviceID := resolveDevice(ctx, client, args[1:])
	if err := client.SetFanSpeed(ctx, deviceID, speed); err != nil {
		fatal("fan", err)
	}
	fmt.Printf("ok: fan speed set to %s\n", speed)
}

func resolveFanSpeed(input string) (eufyclean.FanSpeed, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "quiet":
		return eufyclean.FanQuiet, nil
	case "standard":
		return eufyclean.FanStandard, nil
	case "turbo":
		return eufyclean.FanTurbo, nil
	case "max":
		return eufyclean.FanMax, nil
	default:
		return "", fmt.Errorf("unknown fan speed %q", input)
	}
}

// resolveDevice picks the device: explicit argument, else the single device
// in the account, else an error listing the options.
func resolveDevice(ctx context.Context, client *eufyclean.Client, args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	devices, err := client.Devices(ctx)
	if err != nil {
		fatal("devices", err)
	}
	if len(devices) == 1 {
		return devices[0].ID
	}
	ids := make([]string, 0, len(devices))
	for _, device := range devices {
		ids = append(ids, device.ID)
	}
	sort.Strings(ids)
	fatal("device", fmt.Errorf("multiple devices, pass an id: %s", strings.Join(ids, ", ")))
	return ""
}

func newClient(configPath string) *eufyclean.Client {
	cfg, err := loadConfig(configPath)
	if err != nil {
		fatal("config", err)
	}
	if cfg.Eufyclean == nil {
		fatal("config", fmt.Errorf("eufyclean section missing"))
	}

	runtimeCfg, err := eufyclean.ConfigFromSettings(cfg.Eufyclean)
	if err != nil {
		fatal("config", err)
	}
	client, err := eufyclean.NewClient(runtimeCfg)
	if err != nil {
		fatal("client", err)
	}
	return client
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	var lastErr error
	for _, candidate := range config.SearchPaths() {
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

func usage() {
	fmt.Println("usage: eufyvac-cli <command> [--json] [--config path] [args]")
	fmt.Println()
	fmt.Println("commands:")
	fmt.Println("  devices              list vacuums in the account")
	fmt.Println("  status [device-id]   show current status")
	fmt.Println("  start [device-id]    start an auto clean")
	fmt.Println("  pause [device-id]    pause cleaning")
	fmt.Println("  stop [device-id]     stop cleaning")
	fmt.Println("  dock [device-id]     send the vacuum home")
	fmt.Println("  fan <speed> [device-id]  set suction level")
}

func fatal(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}
