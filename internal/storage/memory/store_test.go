package memory

import (
	"context"
	"net/http"
	"testing"

	"github.com/tjfontaine/webhook-gateway/internal/core/domain"
	"github.com/tjfontaine/webhook-gateway/internal/core/ports"
)

func testDef(id string) *domain.Definition {
	return &domain.Definition{
		ID:            id,
		URL:           "https://hooks.example.com/" + id,
		Method:        http.MethodPost,
		Headers:       map[string]string{"X-Source": "gateway"},
		RetryAttempts: 3,
	}
}

func TestStore_DefinitionRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()

	if err := store.PutDefinition(ctx, testDef("deploy")); err != nil {
		t.Fatalf("PutDefinition() error = %v", err)
	}

	got, err := store.GetDefinition(ctx, "deploy")
	if err != nil {
		t.Fatalf("GetDefinition() error = %v", err)
	}
	if got == nil || got.URL != "https://hooks.example.com/deploy" {
		t.Errorf("GetDefinition() = %+v, want stored record", got)
	}

	absent, err := store.GetDefinition(ctx, "ghost")
	if err != nil {
		t.Fatalf("GetDefinition(ghost) error = %v", err)
	}
	if absent != nil {
		t.Errorf("GetDefinition(ghost) = %+v, want nil", absent)
	}
}

func TestStore_DefinitionIsolation(t *testing.T) {
	store := New()
	ctx := context.Background()

	def := testDef("deploy")
	if err := store.PutDefinition(ctx, def); err != nil {
		t.Fatalf("PutDefinition() error = %v", err)
	}

	// Mutating the caller's copy after Put must not reach the store.
	def.Headers["X-Source"] = "mutated"

	got, err := store.GetDefinition(ctx, "deploy")
	if err != nil {
		t.Fatalf("GetDefinition() error = %v", err)
	}
	if got.Headers["X-Source"] != "gateway" {
		t.Errorf("stored headers = %v, want unaffected by caller mutation", got.Headers)
	}

	// Mutating what Get returned must not reach the store either.
	got.Headers["X-Source"] = "mutated"
	again, err := store.GetDefinition(ctx, "deploy")
	if err != nil {
		t.Fatalf("GetDefinition() error = %v", err)
	}
	if again.Headers["X-Source"] != "gateway" {
		t.Errorf("stored headers = %v, want unaffected by reader mutation", again.Headers)
	}
}

func TestStore_ListDefinitions(t *testing.T) {
	store := New()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.PutDefinition(ctx, testDef(id)); err != nil {
			t.Fatalf("PutDefinition(%s) error = %v", id, err)
		}
	}

	defs, err := store.ListDefinitions(ctx)
	if err != nil {
		t.Fatalf("ListDefinitions() error = %v", err)
	}
	if len(defs) != 3 {
		t.Errorf("ListDefinitions() = %d entries, want 3", len(defs))
	}
}

func TestStore_DeleteDefinition(t *testing.T) {
	store := New()
	ctx := context.Background()

	if err := store.PutDefinition(ctx, testDef("deploy")); err != nil {
		t.Fatalf("PutDefinition() error = %v", err)
	}

	deleted, err := store.DeleteDefinition(ctx, "deploy")
	if err != nil {
		t.Fatalf("DeleteDefinition() error = %v", err)
	}
	if !deleted {
		t.Error("DeleteDefinition() = false, want true")
	}

	deleted, err = store.DeleteDefinition(ctx, "deploy")
	if err != nil {
		t.Fatalf("DeleteDefinition() second call error = %v", err)
	}
	if deleted {
		t.Error("DeleteDefinition() = true, want false for absent record")
	}
}

func TestStore_Deliveries(t *testing.T) {
	store := New()
	ctx := context.Background()

	for _, d := range []*domain.Delivery{
		{ID: "d1", WebhookID: "deploy", Status: domain.DeliveryStatusSucceeded},
		{ID: "d2", WebhookID: "alert", Status: domain.DeliveryStatusFailed},
		{ID: "d3", WebhookID: "deploy", Status: domain.DeliveryStatusSucceeded},
	} {
		if err := store.SaveDelivery(ctx, d); err != nil {
			t.Fatalf("SaveDelivery(%s) error = %v", d.ID, err)
		}
	}

	all, err := store.ListDeliveries(ctx, ports.DeliveryListOptions{})
	if err != nil {
		t.Fatalf("ListDeliveries() error = %v", err)
	}
	for i, wantID := range []string{"d3", "d2", "d1"} {
		if all[i].ID != wantID {
			t.Errorf("all[%d].ID = %q, want %q (newest first)", i, all[i].ID, wantID)
		}
	}

	deploys, err := store.ListDeliveries(ctx, ports.DeliveryListOptions{WebhookID: "deploy"})
	if err != nil {
		t.Fatalf("ListDeliveries(deploy) error = %v", err)
	}
	if len(deploys) != 2 || deploys[0].ID != "d3" || deploys[1].ID != "d1" {
		t.Errorf("ListDeliveries(deploy) = %+v, want d3 then d1", deploys)
	}

	limited, err := store.ListDeliveries(ctx, ports.DeliveryListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("ListDeliveries(limit) error = %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "d3" {
		t.Errorf("ListDeliveries(limit 2) = %+v, want d3 then d2", limited)
	}

	paged, err := store.ListDeliveries(ctx, ports.DeliveryListOptions{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("ListDeliveries(offset) error = %v", err)
	}
	if len(paged) != 1 || paged[0].ID != "d1" {
		t.Errorf("ListDeliveries(limit 2, offset 2) = %+v, want just d1", paged)
	}

	none, err := store.ListDeliveries(ctx, ports.DeliveryListOptions{Offset: 10})
	if err != nil {
		t.Fatalf("ListDeliveries(past end) error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("ListDeliveries(offset 10) = %+v, want empty", none)
	}
}

func TestStore_Events(t *testing.T) {
	store := New()
	ctx := context.Background()

	if err := store.AppendEvent(ctx, &domain.DeliveryEvent{ID: "evt-1", Type: domain.DeliveryEventSucceeded}); err != nil {
		t.Fatalf("AppendEvent() error = %v", err)
	}
	if err := store.AppendEvent(ctx, &domain.DeliveryEvent{ID: "evt-2", Type: domain.DeliveryEventFailed}); err != nil {
		t.Fatalf("AppendEvent() error = %v", err)
	}
	if err := store.AppendEvent(ctx, nil); err != nil {
		t.Fatalf("AppendEvent(nil) error = %v", err)
	}

	events := store.Events()
	if len(events) != 2 {
		t.Fatalf("Events() = %d, want 2", len(events))
	}
	if events[0].ID != "evt-1" || events[1].ID != "evt-2" {
		t.Errorf("Events() = %+v, want oldest first", events)
	}
}

func TestStore_Close(t *testing.T) {
	store := New()
	if err := store.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
