package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/scrypster/almanac/internal/storage/sqlite"
	"github.com/scrypster/almanac/pkg/types"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	store, err := sqlite.NewEventStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewRouter(NewExecutor(store))
}

func classification(tool string, extracted *types.ExtractedEvent) *types.ClassificationResult {
	return &types.ClassificationResult{
		Intent:     types.IntentCreate,
		Confidence: 0.9,
		Extracted:  extracted,
		ToolToCall: tool,
		Source:     types.SourceModel,
	}
}

func TestRouteSaveGeneratesClientReference(t *testing.T) {
	router := newTestRouter(t)
	start := time.Now().UTC().Add(time.Hour)

	env := router.Route(context.Background(), classification(types.ToolSaveEvent, &types.ExtractedEvent{
		Title: "Coffee chat",
		Start: timePtr(start),
		End:   timePtr(start.Add(time.Hour)),
	}))
	if !env.Ok {
		t.Fatalf("route failed: %s", env.Error)
	}

	summary := env.Data.(types.EventSummary)
	if summary.ClientReferenceID == "" {
		t.Error("expected a generated client reference")
	}
	if len(summary.ClientReferenceID) != 36 {
		t.Errorf("reference %q does not look like a UUID", summary.ClientReferenceID)
	}
}

func TestRouteSavePreservesClientReference(t *testing.T) {
	router := newTestRouter(t)
	start := time.Now().UTC().Add(time.Hour)

	env := router.Route(context.Background(), classification(types.ToolSaveEvent, &types.ExtractedEvent{
		Title:             "Keyed",
		Start:             timePtr(start),
		End:               timePtr(start.Add(time.Hour)),
		ClientReferenceID: "caller-ref",
	}))
	if !env.Ok {
		t.Fatalf("route failed: %s", env.Error)
	}
	if ref := env.Data.(types.EventSummary).ClientReferenceID; ref != "caller-ref" {
		t.Errorf("reference = %q, want caller-ref", ref)
	}
}

func TestRouteMissingExtractedEvent(t *testing.T) {
	router := newTestRouter(t)
	ctx := context.Background()

	tests := []struct {
		tool    string
		wantErr string
	}{
		{types.ToolSaveEvent, "No event data extracted for save operation"},
		{types.ToolUpdateEvent, "No event data extracted for update operation"},
		{types.ToolCancelEvent, "No event data extracted for cancel operation"},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			env := router.Route(ctx, classification(tt.tool, nil))
			if env.Ok || env.Error != tt.wantErr {
				t.Errorf("envelope = %+v, want error %q", env, tt.wantErr)
			}
		})
	}
}

func TestRouteListWithoutExtractedEvent(t *testing.T) {
	router := newTestRouter(t)

	env := router.Route(context.Background(), classification(types.ToolListEvents, nil))
	if !env.Ok {
		t.Fatalf("list route failed: %s", env.Error)
	}
}

func TestRouteUnknownTool(t *testing.T) {
	router := newTestRouter(t)

	env := router.Route(context.Background(), classification("calendar.teleport", nil))
	if env.Ok {
		t.Fatal("expected failure envelope")
	}
	if !strings.Contains(env.Error, "Unknown or unsupported tool: calendar.teleport") {
		t.Errorf("error = %q", env.Error)
	}
}

func TestCheckMissingFields(t *testing.T) {
	if err := CheckMissingFields(&types.ClassificationResult{}); err != nil {
		t.Errorf("expected nil for no missing fields, got %v", err)
	}
	if err := CheckMissingFields(nil); err != nil {
		t.Errorf("expected nil for nil classification, got %v", err)
	}

	err := CheckMissingFields(&types.ClassificationResult{MissingFields: []string{"start", "end"}})
	if err == nil {
		t.Fatal("expected error")
	}
	var missing *MissingFieldsError
	if !errors.As(err, &missing) {
		t.Fatalf("error type = %T", err)
	}
	if len(missing.Fields) != 2 {
		t.Errorf("fields = %v", missing.Fields)
	}
	if !strings.Contains(err.Error(), "start, end") {
		t.Errorf("message = %q", err.Error())
	}
}
