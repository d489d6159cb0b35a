package app

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"parceltrack-tui/internal/storage"
	"parceltrack-tui/internal/track"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	return NewModelWithOptions(nil, nil, ModelOptions{RevealAnimation: false})
}

// deliver executes a cmd and feeds the resulting msg (or msgs, for a batch)
// back into the model, without following any further cmds.
func deliver(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, sub := range batch {
			m = deliver(t, m, sub)
		}
		return m
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func typeRunes(m Model, text string) Model {
	for _, r := range text {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

func TestSubmitEmptyBarcodeShowsValidationError(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	nextModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	next := nextModel.(Model)

	if cmd != nil {
		t.Fatalf("expected no lookup command for an empty barcode")
	}
	if next.errorText != validationMessage {
		t.Fatalf("unexpected error text: %q", next.errorText)
	}
	if !next.inputErrored {
		t.Fatalf("expected barcode field to be flagged")
	}
	if next.loading {
		t.Fatalf("expected no lookup to start")
	}
}

func TestSubmitStartsLookupAndSuccessReplacesError(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m = typeRunes(m, "  RR123456789IR ")

	submittedModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	submitted := submittedModel.(Model)
	if cmd == nil {
		t.Fatalf("expected lookup command on submit")
	}
	if !submitted.loading {
		t.Fatalf("expected loading state after submit")
	}

	result := track.Decode(map[string]any{
		"barcode":        "RR123456789IR",
		"current_status": "Delivered",
	})
	doneModel, _ := submitted.Update(lookupFinishedMsg{gen: submitted.lookupGen, result: result})
	done := doneModel.(Model)

	if done.loading {
		t.Fatalf("expected loading to clear on completion")
	}
	if done.errorText != "" || done.inputErrored {
		t.Fatalf("expected error state to clear, got %q", done.errorText)
	}
	if done.successText != successMessage {
		t.Fatalf("unexpected success text: %q", done.successText)
	}
	if done.current == nil || done.current.CurrentStatus != "Delivered" {
		t.Fatalf("expected result to be installed")
	}
	if !done.resultsVisible {
		t.Fatalf("expected results area to show")
	}
}

func TestStaleLookupCompletionIsDiscarded(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m = typeRunes(m, "FIRST")
	firstModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	first := firstModel.(Model)
	staleGen := first.lookupGen

	first = typeRunes(first, "2")
	secondModel, _ := first.Update(tea.KeyMsg{Type: tea.KeyEnter})
	second := secondModel.(Model)

	staleResult := track.Decode(map[string]any{"barcode": "FIRST", "current_status": "Stale"})
	afterStaleModel, _ := second.Update(lookupFinishedMsg{gen: staleGen, result: staleResult})
	afterStale := afterStaleModel.(Model)

	if !afterStale.loading {
		t.Fatalf("expected the newer lookup to still be in flight")
	}
	if afterStale.current != nil {
		t.Fatalf("stale completion must not install a result")
	}
	if afterStale.successText != "" || afterStale.errorText != "" {
		t.Fatalf("stale completion must not touch banners")
	}
}

func TestServerErrorMessageShownVerbatim(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m = typeRunes(m, "UNKNOWN1")
	submittedModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	submitted := submittedModel.(Model)

	serverErr := &track.ServerError{StatusCode: http.StatusNotFound, Message: "No parcel found for this code."}
	doneModel, _ := submitted.Update(lookupFinishedMsg{gen: submitted.lookupGen, err: serverErr})
	done := doneModel.(Model)

	if done.loading {
		t.Fatalf("expected loading to clear on error")
	}
	if done.errorText != "No parcel found for this code." {
		t.Fatalf("expected the server message verbatim, got %q", done.errorText)
	}
	if !done.inputErrored {
		t.Fatalf("expected barcode field to be flagged on error")
	}
	if done.successText != "" {
		t.Fatalf("expected no success banner on error")
	}
}

func TestBlankErrorFallsBackToUnknown(t *testing.T) {
	t.Parallel()

	if got := errorMessageFor(errors.New("   ")); got != unknownErrorMessage {
		t.Fatalf("unexpected fallback message: %q", got)
	}
	if got := errorMessageFor(nil); got != "" {
		t.Fatalf("expected empty message for nil error, got %q", got)
	}
}

func TestTypingClearsBannersAndEmptyFieldClearsFlag(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m.setError("No parcel found for this code.")
	m = typeRunes(m, "9")

	if m.errorText != "" {
		t.Fatalf("expected typing to clear the error banner, got %q", m.errorText)
	}
	if !m.inputErrored {
		t.Fatalf("expected field flag to persist while text remains")
	}

	backModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	back := backModel.(Model)
	if back.barcode.Value() != "" {
		t.Fatalf("expected empty field, got %q", back.barcode.Value())
	}
	if back.inputErrored {
		t.Fatalf("expected field flag to clear once the field is empty")
	}

	back.setSuccess(successMessage)
	back = typeRunes(back, "A")
	if back.successText != "" {
		t.Fatalf("expected typing to clear the success banner")
	}
}

func TestHydratedResultRendersWithoutSuccessBanner(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	state := storage.InitialState{Result: map[string]any{
		"barcode":        "RR000000001IR",
		"current_status": "In transit",
		"events": []any{
			map[string]any{"date": "2026-08-20", "description": "Accepted"},
		},
	}}
	nextModel, _ := m.Update(initialStateMsg{state: state})
	next := nextModel.(Model)

	if !next.resultsVisible || next.current == nil {
		t.Fatalf("expected hydrated result to render")
	}
	if next.successText != "" {
		t.Fatalf("hydration must not show the success banner, got %q", next.successText)
	}
	if next.errorText != "" {
		t.Fatalf("unexpected error text: %q", next.errorText)
	}
	if next.barcode.Value() != "RR000000001IR" {
		t.Fatalf("expected barcode field prefilled, got %q", next.barcode.Value())
	}
}

func TestHydratedErrorOnlyShowsBanner(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	nextModel, _ := m.Update(initialStateMsg{state: storage.InitialState{ErrorMessage: "No parcel found for this code."}})
	next := nextModel.(Model)

	if next.errorText != "No parcel found for this code." {
		t.Fatalf("unexpected error text: %q", next.errorText)
	}
	if !next.inputErrored {
		t.Fatalf("expected barcode field flagged from hydrated error")
	}
	if next.current != nil {
		t.Fatalf("expected no result from an error-only snapshot")
	}
}

func TestSuccessfulLookupSavesSnapshot(t *testing.T) {
	t.Parallel()

	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	m := NewModelWithOptions(nil, store, ModelOptions{RevealAnimation: false})
	m = typeRunes(m, "RR42")
	submittedModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	submitted := submittedModel.(Model)

	payload := map[string]any{"barcode": "RR42", "current_status": "Delivered"}
	doneModel, saveCmd := submitted.Update(lookupFinishedMsg{gen: submitted.lookupGen, result: track.Decode(payload)})
	done := doneModel.(Model)
	done = deliver(t, done, saveCmd)

	reloaded := store.LoadInitial()
	if reloaded.Result == nil {
		t.Fatalf("expected a saved result snapshot")
	}
	if reloaded.Result["barcode"] != "RR42" {
		t.Fatalf("unexpected snapshot content: %v", reloaded.Result)
	}
	if strings.Contains(done.statusText, "Could not save") {
		t.Fatalf("unexpected save failure: %q", done.statusText)
	}
}

func TestFailedLookupPersistsErrorSnapshotUntilSuccess(t *testing.T) {
	t.Parallel()

	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	m := NewModelWithOptions(nil, store, ModelOptions{RevealAnimation: false})
	m = typeRunes(m, "RR42")
	submittedModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	submitted := submittedModel.(Model)

	serverErr := &track.ServerError{StatusCode: http.StatusNotFound, Message: "No parcel found for this code."}
	failedModel, saveCmd := submitted.Update(lookupFinishedMsg{gen: submitted.lookupGen, err: serverErr})
	failed := failedModel.(Model)
	failed = deliver(t, failed, saveCmd)

	if got := store.LoadInitial().ErrorMessage; got != "No parcel found for this code." {
		t.Fatalf("expected error snapshot, got %q", got)
	}

	doneModel, successCmd := failed.Update(lookupFinishedMsg{
		gen:    failed.lookupGen,
		result: track.Decode(map[string]any{"barcode": "RR42"}),
	})
	done := doneModel.(Model)
	_ = deliver(t, done, successCmd)

	reloaded := store.LoadInitial()
	if reloaded.ErrorMessage != "" {
		t.Fatalf("expected success to clear the error snapshot, got %q", reloaded.ErrorMessage)
	}
	if reloaded.Result == nil {
		t.Fatalf("expected a result snapshot after success")
	}
}

func TestLookupCmdCarriesGenerationAndServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"No parcel found for this code."}`))
	}))
	defer srv.Close()

	client := track.NewClient(srv.URL, time.Second)
	msg := lookupCmd(client, "RR42", 7, time.Second)()
	finished, ok := msg.(lookupFinishedMsg)
	if !ok {
		t.Fatalf("unexpected msg type %T", msg)
	}
	if finished.gen != 7 {
		t.Fatalf("expected generation 7, got %d", finished.gen)
	}
	var serverErr *track.ServerError
	if !errors.As(finished.err, &serverErr) {
		t.Fatalf("expected a server error, got %v", finished.err)
	}
	if serverErr.Error() != "No parcel found for this code." {
		t.Fatalf("unexpected message: %q", serverErr.Error())
	}
}

func TestViewNeverPanicsAcrossLifecycle(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	_ = m.View()

	sizedModel, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 34})
	sized := sizedModel.(Model)
	_ = sized.View()

	erroredModel, _ := sized.Update(initialStateMsg{state: storage.InitialState{ErrorMessage: "Unable to retrieve information."}})
	errored := erroredModel.(Model)
	if view := errored.View(); !strings.Contains(view, "Unable to retrieve information.") {
		t.Fatalf("expected error banner in view")
	}
}
