package counting

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Historical producers disagree on field names ("door1_in" vs "doorIn1" vs
// "door_1_in"). Keys are matched after lowercasing and stripping underscores,
// so each alias set below only lists the distinct normalised spellings.
var inboundAliases = map[string][]string{
	"vehicle": {"vehicleid", "idvehicle"},

	"door1in":    {"door1in", "doorin1"},
	"door1out":   {"door1out", "doorout1"},
	"door1block": {"door1block", "doorblock1"},
	"door2in":    {"door2in", "doorin2"},
	"door2out":   {"door2out", "doorout2"},
	"door2block": {"door2block", "doorblock2"},
	"door3in":    {"door3in", "doorin3"},
	"door3out":   {"door3out", "doorout3"},
	"door3block": {"door3block", "doorblock3"},

	"checkin": {"checkintime", "date", "timestamp", "datetime"},

	"latitude":  {"latitude", "lat"},
	"longitude": {"longitude", "lng", "lon"},
}

const legacyTimeLayout = "2006-01-02 15:04:05"

// DecodeInbound parses a loosely-typed inbound reading into the canonical
// event shape. Unknown fields are ignored, absent counters default to zero and
// the vehicle identifier is trimmed.
func DecodeInbound(payload []byte) (*PassengerEvent, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode inbound reading: %w", err)
	}

	fields := map[string]json.RawMessage{}
	for key, value := range raw {
		fields[strings.ReplaceAll(strings.ToLower(key), "_", "")] = value
	}

	event := &PassengerEvent{}

	vehicleID, err := stringField(fields, "vehicle")
	if err != nil {
		return nil, err
	}
	event.VehicleID = strings.TrimSpace(vehicleID)

	counters := []struct {
		name   string
		target *int
	}{
		{"door1in", &event.Door1In},
		{"door1out", &event.Door1Out},
		{"door1block", &event.Door1Block},
		{"door2in", &event.Door2In},
		{"door2out", &event.Door2Out},
		{"door2block", &event.Door2Block},
		{"door3in", &event.Door3In},
		{"door3out", &event.Door3Out},
		{"door3block", &event.Door3Block},
	}
	for _, counter := range counters {
		value, err := intField(fields, counter.name)
		if err != nil {
			return nil, err
		}
		*counter.target = value
	}

	event.CheckinTime, err = timeField(fields, "checkin")
	if err != nil {
		return nil, err
	}

	event.Latitude, err = floatField(fields, "latitude")
	if err != nil {
		return nil, err
	}
	event.Longitude, err = floatField(fields, "longitude")
	if err != nil {
		return nil, err
	}

	return event, nil
}

func lookupField(fields map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	for _, alias := range inboundAliases[name] {
		if value, found := fields[alias]; found && string(value) != "null" {
			return value, true
		}
	}

	return nil, false
}

func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	value, found := lookupField(fields, name)
	if !found {
		return "", nil
	}

	var parsed string
	if err := json.Unmarshal(value, &parsed); err != nil {
		return "", fmt.Errorf("field %s: %w", name, err)
	}

	return parsed, nil
}

func intField(fields map[string]json.RawMessage, name string) (int, error) {
	value, found := lookupField(fields, name)
	if !found {
		return 0, nil
	}

	var parsed int
	if err := json.Unmarshal(value, &parsed); err != nil {
		return 0, fmt.Errorf("field %s: %w", name, err)
	}
	if parsed < 0 {
		return 0, fmt.Errorf("field %s: negative counter %d", name, parsed)
	}

	return parsed, nil
}

func floatField(fields map[string]json.RawMessage, name string) (float64, error) {
	value, found := lookupField(fields, name)
	if !found {
		return 0, nil
	}

	var parsed float64
	if err := json.Unmarshal(value, &parsed); err != nil {
		return 0, fmt.Errorf("field %s: %w", name, err)
	}

	return parsed, nil
}

func timeField(fields map[string]json.RawMessage, name string) (time.Time, error) {
	value, found := lookupField(fields, name)
	if !found {
		return time.Time{}, nil
	}

	var parsed string
	if err := json.Unmarshal(value, &parsed); err != nil {
		return time.Time{}, fmt.Errorf("field %s: %w", name, err)
	}

	if timestamp, err := time.Parse(time.RFC3339, parsed); err == nil {
		return timestamp.UTC(), nil
	}

	timestamp, err := time.ParseInLocation(legacyTimeLayout, parsed, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("field %s: unrecognised timestamp %q", name, parsed)
	}

	return timestamp, nil
}
