package capability

import (
	"context"
	"strings"
	"testing"

	"github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/catalog"
	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
	statex "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/state"
)

func inventoryMessage(intent, text string, entities contractx.Entities) contractx.Message {
	session := statex.NewSession("s1", "u1", "web", testNow)
	return contractx.NewMessage(
		contractx.CapabilityOrchestrator, contractx.CapabilityInventory,
		intent, text, entities, session, testNow,
	)
}

func TestCheckStockInStockRoutesToPayment(t *testing.T) {
	store := catalog.NewMemoryStore()
	store.Seed(catalog.Product{ID: "p1", Name: "Desk Lamp", Category: "home", Price: 30.00}, 12)
	inv := NewInventory(store, &fakeOracle{reply: "It is available."}, &fakePublisher{})

	resp, err := inv.Handle(context.Background(), inventoryMessage(
		"check_stock", "do you have the desk lamp?", contractx.Entities{ProductName: "Desk Lamp"}))
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Fatalf("check stock failed: %s", resp.Message)
	}
	if resp.NextCapability != contractx.CapabilityPayment {
		t.Errorf("next capability = %s, want payment", resp.NextCapability)
	}
	if got := resp.SuggestedActions[0]; got != "add_to_cart" {
		t.Errorf("first action = %s, want add_to_cart", got)
	}
	if !strings.Contains(resp.Message, "?") {
		t.Error("expected a follow-up question in the reply")
	}
}

func TestCheckStockOutOfStockRanksAlternativesByPrice(t *testing.T) {
	store := catalog.NewMemoryStore()
	store.Seed(catalog.Product{ID: "p0", Name: "Desk Lamp", Category: "home", Price: 100.00}, 0)
	store.Seed(catalog.Product{ID: "a1", Name: "Floor Light", Category: "home", Price: 80.00}, 5)
	store.Seed(catalog.Product{ID: "a2", Name: "Wall Sconce", Category: "home", Price: 101.00}, 5)
	store.Seed(catalog.Product{ID: "a3", Name: "Chandelier", Category: "home", Price: 150.00}, 5)
	store.Seed(catalog.Product{ID: "a4", Name: "Reading Light", Category: "home", Price: 99.00}, 5)
	store.Seed(catalog.Product{ID: "a5", Name: "Night Light", Category: "home", Price: 100.00}, 0)

	inv := NewInventory(store, &fakeOracle{}, &fakePublisher{})

	resp, err := inv.Handle(context.Background(), inventoryMessage(
		"check_stock", "is the desk lamp in stock?", contractx.Entities{ProductName: "Desk Lamp"}))
	if err != nil {
		t.Fatal(err)
	}
	if resp.NextCapability != "" {
		t.Errorf("next capability = %s, want none for out of stock", resp.NextCapability)
	}

	alternatives, ok := resp.Data["alternatives"].([]catalog.Product)
	if !ok {
		t.Fatalf("alternatives = %T", resp.Data["alternatives"])
	}
	wantOrder := []string{"a4", "a2", "a1", "a3"}
	if len(alternatives) != len(wantOrder) {
		t.Fatalf("got %d alternatives, want %d", len(alternatives), len(wantOrder))
	}
	for i, want := range wantOrder {
		if alternatives[i].ID != want {
			t.Errorf("alternatives[%d] = %s, want %s", i, alternatives[i].ID, want)
		}
	}
	if resp.SuggestedActions[0] != "view_alternatives" {
		t.Errorf("first action = %s, want view_alternatives", resp.SuggestedActions[0])
	}
}

func TestCheckStockUnknownProduct(t *testing.T) {
	store := catalog.NewMemoryStore()
	inv := NewInventory(store, &fakeOracle{}, &fakePublisher{})

	resp, err := inv.Handle(context.Background(), inventoryMessage(
		"check_stock", "do you have flying carpets?", contractx.Entities{ProductName: "flying carpet"}))
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Fatalf("unexpected failure: %s", resp.Message)
	}
	if resp.Data["found"] != false {
		t.Errorf("found = %v, want false", resp.Data["found"])
	}
}

func TestNotifyWhenAvailablePublishesEvent(t *testing.T) {
	store := catalog.NewMemoryStore()
	store.Seed(catalog.Product{ID: "p1", Name: "Desk Lamp", Category: "home", Price: 30.00}, 0)
	publisher := &fakePublisher{}
	inv := NewInventory(store, &fakeOracle{}, publisher)

	resp, err := inv.Handle(context.Background(), inventoryMessage(
		"notify_when_available", "tell me when it's back", contractx.Entities{ProductID: "p1"}))
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Fatalf("notify failed: %s", resp.Message)
	}
	if len(publisher.topics) != 1 || publisher.topics[0] != restockTopic {
		t.Errorf("published topics = %v", publisher.topics)
	}
	event, ok := publisher.payloads[0].(map[string]any)
	if !ok || event["product_id"] != "p1" {
		t.Errorf("payload = %v", publisher.payloads[0])
	}
}

func TestLowStockStatusMessage(t *testing.T) {
	got := formatStockStatus(catalog.StockInfo{InStock: true, Quantity: 3, Status: catalog.StockAvailable, LowStock: true})
	if !strings.Contains(got, "Only 3 left") {
		t.Errorf("status = %q", got)
	}
}
