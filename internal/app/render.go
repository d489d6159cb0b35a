package app

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"parceltrack-tui/internal/track"
)

// User-facing copy for the three result views and the lifecycle banners.
const (
	validationMessage   = "Please enter a tracking code."
	unknownErrorMessage = "Unknown error occurred."
	successMessage      = "Parcel information updated successfully."

	summaryEmptyTitle = "No summary details"
	summaryEmptyBody  = "The tracking service returned no summary fields for this parcel."

	timelineEmptyTitle = "No events recorded yet"
	timelineEmptyBody  = "Tracking events appear here as the parcel moves."

	unknownStatusLabel   = "Unknown status"
	unknownLocationLabel = "Unknown location"
	missingGlyph         = "—"
)

// Reveal cadence for freshly rendered entries. Purely cosmetic; the reveal
// ticker grows the visible counts until everything is shown.
const (
	summaryRevealStep  = 80 * time.Millisecond
	timelineRevealStep = 60 * time.Millisecond
	revealTickInterval = 40 * time.Millisecond
)

type summaryEntry struct {
	label string
	value string
}

// summaryEntries builds the (label, value) pairs in their fixed order,
// leaving out anything the payload did not carry.
func summaryEntries(res *track.Result) []summaryEntry {
	if res == nil {
		return nil
	}
	candidates := []summaryEntry{
		{"Tracking code", res.Barcode},
		{"Current status", res.CurrentStatus},
		{"Sender", res.Sender},
		{"Receiver", res.Receiver},
	}
	entries := make([]summaryEntry, 0, len(candidates))
	for _, entry := range candidates {
		if strings.TrimSpace(entry.value) == "" {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// renderSummary renders the summary panel body. visible < 0 shows every
// entry; a smaller count draws only the first entries.
func renderSummary(res *track.Result, visible int) string {
	entries := summaryEntries(res)
	if len(entries) == 0 {
		return renderEmptyState(summaryEmptyTitle, summaryEmptyBody)
	}
	if visible < 0 || visible > len(entries) {
		visible = len(entries)
	}
	lines := make([]string, 0, visible)
	for _, entry := range entries[:visible] {
		lines = append(lines, summaryLabelStyle.Render(entry.label+":")+" "+entry.value)
	}
	return strings.Join(lines, "\n")
}

// renderTimeline renders one numbered item per event in the exact order
// received, with per-field placeholders for anything missing.
func renderTimeline(res *track.Result, visible int) string {
	var events []track.Event
	if res != nil {
		events = res.Events
	}
	if len(events) == 0 {
		return renderEmptyState(timelineEmptyTitle, timelineEmptyBody)
	}
	if visible < 0 || visible > len(events) {
		visible = len(events)
	}
	lines := make([]string, 0, visible*2)
	for idx, event := range events[:visible] {
		meta := orGlyph(event.Date) + " " + orGlyph(event.Time)
		description := event.Description
		if strings.TrimSpace(description) == "" {
			description = unknownStatusLabel
		}
		location := event.Location
		if strings.TrimSpace(location) == "" {
			location = unknownLocationLabel
		}
		lines = append(lines, fmt.Sprintf("%2d. %s  %s", idx+1, timelineMetaStyle.Render(meta), description))
		lines = append(lines, "    "+timelineLocationStyle.Render(location))
	}
	return strings.Join(lines, "\n")
}

// renderRaw pretty-prints exactly what was received, for diagnostics.
func renderRaw(res *track.Result) string {
	value := res.RawValue()
	if value == nil {
		if res == nil {
			return "{}"
		}
		value = projectedPayload(res)
	}
	blob, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "(payload not renderable: " + err.Error() + ")"
	}
	return string(blob)
}

// projectedPayload rebuilds a payload-shaped object for results that were
// not decoded from one, so the raw view always has something to show.
func projectedPayload(res *track.Result) map[string]any {
	events := make([]any, 0, len(res.Events))
	for _, event := range res.Events {
		events = append(events, map[string]any{
			"date":        event.Date,
			"time":        event.Time,
			"description": event.Description,
			"location":    event.Location,
		})
	}
	return map[string]any{
		"barcode":        res.Barcode,
		"current_status": res.CurrentStatus,
		"sender":         res.Sender,
		"receiver":       res.Receiver,
		"events":         events,
	}
}

func renderEmptyState(title, body string) string {
	return emptyStateTitleStyle.Render(title) + "\n" + emptyStateBodyStyle.Render(body)
}

func orGlyph(value string) string {
	if strings.TrimSpace(value) == "" {
		return missingGlyph
	}
	return value
}

// revealCount returns how many entries are visible after elapsed time when
// entry i appears at i*step.
func revealCount(elapsed time.Duration, step time.Duration, total int) int {
	if total <= 0 {
		return 0
	}
	if step <= 0 || elapsed < 0 {
		return total
	}
	visible := int(elapsed/step) + 1
	if visible > total {
		visible = total
	}
	return visible
}
