package catalog

// demoProducts is a small catalog used when no Postgres DSN is
// configured, enough to exercise search, categories, and stock states.
var demoProducts = []struct {
	product  Product
	quantity int
}{
	{Product{ID: "prod-001", Name: "Desk Lamp", Category: "Lighting", Description: "Adjustable LED desk lamp with touch dimmer", Price: 39.99}, 25},
	{Product{ID: "prod-002", Name: "Floor Lamp", Category: "Lighting", Description: "Standing arc lamp with fabric shade", Price: 89.99}, 8},
	{Product{ID: "prod-003", Name: "Reading Light", Category: "Lighting", Description: "Clip-on rechargeable reading light", Price: 19.99}, 0},
	{Product{ID: "prod-004", Name: "Smart Bulb", Category: "Lighting", Description: "WiFi color bulb, works with voice assistants", Price: 24.99}, 40},
	{Product{ID: "prod-005", Name: "Office Chair", Category: "Furniture", Description: "Ergonomic mesh chair with lumbar support", Price: 199.00}, 12},
	{Product{ID: "prod-006", Name: "Standing Desk", Category: "Furniture", Description: "Electric height-adjustable desk, 120cm", Price: 449.00}, 4},
	{Product{ID: "prod-007", Name: "Bookshelf", Category: "Furniture", Description: "Five-tier oak veneer bookshelf", Price: 129.50}, 15},
	{Product{ID: "prod-008", Name: "Wireless Headphones", Category: "Electronics", Description: "Over-ear noise cancelling headphones", Price: 149.99}, 30},
	{Product{ID: "prod-009", Name: "Bluetooth Speaker", Category: "Electronics", Description: "Portable waterproof speaker, 12h battery", Price: 59.99}, 3},
	{Product{ID: "prod-010", Name: "Webcam", Category: "Electronics", Description: "1080p webcam with privacy shutter", Price: 45.00}, 0},
	{Product{ID: "prod-011", Name: "French Press", Category: "Kitchen", Description: "8-cup borosilicate glass french press", Price: 27.95}, 18},
	{Product{ID: "prod-012", Name: "Electric Kettle", Category: "Kitchen", Description: "Gooseneck kettle with temperature control", Price: 64.00}, 9},
}

// SeedDemo loads the demo catalog into an in-memory store.
func SeedDemo(store *MemoryStore) {
	for _, entry := range demoProducts {
		store.Seed(entry.product, entry.quantity)
	}
}
