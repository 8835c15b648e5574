package eufyclean

import (
	"context"
	"log/slog"
)

// HomeGroup identifies one Tuya location ("home").
type HomeGroup struct {
	GroupID string
	Name    string
}

// ListHomes enumerates the account's homes. Zero homes is a valid result.
func (s *TuyaSession) ListHomes(ctx context.Context) ([]HomeGroup, error) {
	result, err := s.Request(ctx, "tuya.m.location.list", "2.1", nil, nil, true)
	if err != nil {
		return nil, err
	}
	entries, _ := result.([]any)
	homes := make([]HomeGroup, 0, len(entries))
	for _, entry := range entries {
		raw, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		id := firstString(raw, "groupId", "gid", "id")
		if id == "" {
			continue
		}
		homes = append(homes, HomeGroup{GroupID: id, Name: stringFrom(raw["name"])})
	}
	return homes, nil
}

// ListHomeDevices lists the devices of one home: owned plus shared,
// concatenated. A failure of either sub-call propagates as-is.
func (s *TuyaSession) ListHomeDevices(ctx context.Context, homeID string) ([]map[string]any, error) {
	own, err := s.Request(ctx, "tuya.m.my.group.device.list", "1.0", nil, map[string]string{"gid": homeID}, true)
	if err != nil {
		return nil, err
	}
	shared, err := s.Request(ctx, "tuya.m.my.shared.device.list", "1.0", nil, nil, true)
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for _, result := range []any{own, shared} {
		entries, _ := result.([]any)
		for _, entry := range entries {
			if raw, ok := entry.(map[string]any); ok {
				out = append(out, raw)
			}
		}
	}
	return out, nil
}

// ListAllDevices walks every home and normalizes each raw entry into a
// canonical record. Entries missing an id or local key are dropped with a
// diagnostic; zero usable devices is a valid result.
func (s *TuyaSession) ListAllDevices(ctx context.Context) ([]DeviceRecord, error) {
	homes, err := s.ListHomes(ctx)
	if err != nil {
		return nil, err
	}
	var records []DeviceRecord
	for _, home := range homes {
		entries, err := s.ListHomeDevices(ctx, home.GroupID)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			record, ok := normalizeDeviceRecord(entry)
			if !ok {
				slog.Warn("dropping incomplete device record", "home", home.GroupID, "entry", entry)
				continue
			}
			records = append(records, record)
		}
	}
	return records, nil
}

// Field-name aliases observed across directory API versions, in resolution
// order. First non-empty match wins.
var (
	deviceIDAliases  = []string{"devId", "id", "deviceId", "device_id"}
	localKeyAliases  = []string{"localKey", "local_code", "local_key"}
	nameAliases      = []string{"alias", "name", "device_name"}
	modelAliases     = []string{"productId", "product_code", "model", "product_name"}
	addressAliases   = []string{"lan_ip", "ip"}
	addressSubObject = "wifi"
)

func normalizeDeviceRecord(raw map[string]any) (DeviceRecord, bool) {
	record := DeviceRecord{
		ID:       firstString(raw, deviceIDAliases...),
		LocalKey: firstString(raw, localKeyAliases...),
		Name:     firstString(raw, nameAliases...),
		Model:    firstString(raw, modelAliases...),
		Address:  firstString(raw, addressAliases...),
	}
	if record.Address == "" {
		if wifi, ok := raw[addressSubObject].(map[string]any); ok {
			record.Address = firstString(wifi, addressAliases...)
		}
	}
	if record.Model == "" {
		if product, ok := raw["product"].(map[string]any); ok {
			record.Model = firstString(product, "product_code", "model")
		}
	}
	if record.ID == "" || record.LocalKey == "" {
		return DeviceRecord{}, false
	}
	return record, true
}

func firstString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if value := stringFrom(raw[key]); value != "" {
			return value
		}
	}
	return ""
}
