package track

import "strings"

// Result is the structured description of a parcel's status and history
// returned for one barcode lookup. Every field is independently optional;
// rendering code is expected to fall back per field.
type Result struct {
	Barcode       string
	CurrentStatus string
	Sender        string
	Receiver      string
	Events        []Event

	// Payload is the decoded response object the result was projected
	// from, kept untouched for the raw debug view and for hydration
	// snapshots. Nil for hand-built results.
	Payload map[string]any
}

// Event is one checkpoint in a parcel's history.
type Event struct {
	Date        string
	Time        string
	Description string
	Location    string
}

// Decode projects a decoded JSON payload into a Result. Fields of
// unexpected type are treated as absent rather than coerced, so a malformed
// payload can never push a non-string value into the views. Event order is
// preserved exactly as received.
func Decode(payload map[string]any) *Result {
	res := &Result{
		Barcode:       stringField(payload, "barcode"),
		CurrentStatus: stringField(payload, "current_status"),
		Sender:        stringField(payload, "sender"),
		Receiver:      stringField(payload, "receiver"),
		Payload:       payload,
	}
	rawEvents, ok := payload["events"].([]any)
	if !ok {
		return res
	}
	res.Events = make([]Event, 0, len(rawEvents))
	for _, raw := range rawEvents {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		res.Events = append(res.Events, Event{
			Date:        stringField(entry, "date"),
			Time:        stringField(entry, "time"),
			Description: stringField(entry, "description"),
			Location:    stringField(entry, "location"),
		})
	}
	return res
}

// RawValue returns the value the raw debug view should display: the
// payload's raw_response field when the upstream supplied one, otherwise
// the whole payload. Nil when the result was not decoded from a payload.
func (r *Result) RawValue() any {
	if r == nil {
		return nil
	}
	if raw, ok := r.Payload["raw_response"]; ok && raw != nil {
		return raw
	}
	if r.Payload != nil {
		return r.Payload
	}
	return nil
}

func stringField(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	value, ok := payload[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}
