package gateway

// demoTables builds the canned dataset. Row order is primary-key order and
// must stay stable: replaying a session depends on it.
func demoTables() map[string]*demoTable {
	vendors := &demoTable{
		name: "vendors",
		columns: []Column{
			{Name: "vendor_id", Type: FieldString},
			{Name: "vendor_name", Type: FieldString},
			{Name: "country", Type: FieldString},
			{Name: "on_time_delivery_rate", Type: FieldNumber},
			{Name: "defect_rate", Type: FieldNumber},
			{Name: "product_category", Type: FieldString},
		},
		rows: [][]any{
			{"V001", "Helix Pharma Supply", "US", 0.97, 0.008, "active_ingredients"},
			{"V002", "Basel BioChem", "CH", 0.97, 0.012, "excipients"},
			{"V003", "Mumbai Actives Ltd", "IN", 0.89, 0.021, "active_ingredients"},
			{"V004", "Rhein Packaging", "DE", 0.97, 0.004, "packaging"},
			{"V005", "Austin Cold Chain", "US", 0.93, 0.015, "cold_chain"},
			{"V006", "Pune Excipients Co", "IN", 0.84, 0.031, "excipients"},
			{"V007", "Boston Sterile Labs", "US", 0.95, 0.006, "active_ingredients"},
			{"V008", "Hamburg Glassworks", "DE", 0.91, 0.018, "packaging"},
			{"V009", "Chicago Packaging Inc", "US", 0.88, 0.024, "packaging"},
			{"V010", "Shenzhen Vials", "CN", 0.82, 0.027, "packaging"},
			{"V011", "Denver Biologics", "US", 0.92, 0.01, "cold_chain"},
		},
	}

	batches := &demoTable{
		name: "batches",
		columns: []Column{
			{Name: "batch_id", Type: FieldString},
			{Name: "material_name", Type: FieldString},
			{Name: "status", Type: FieldString},
			{Name: "received_qty", Type: FieldNumber},
			{Name: "produced_qty", Type: FieldNumber},
			{Name: "vendor_id", Type: FieldString},
		},
		rows: [][]any{
			{"B2025001", "Amoxicillin API", "released", 1200.0, 1130.0, "V001"},
			{"B2025002", "Microcrystalline Cellulose", "released", 5000.0, 4920.0, "V002"},
			{"B2025003", "Paracetamol API", "quarantined", 2000.0, 0.0, "V003"},
			{"B2025004", "Blister Foil", "released", 8000.0, 7950.0, "V004"},
			{"B2025005", "Insulin Glargine", "in_transit", 300.0, 0.0, "V005"},
			{"B2025006", "Lactose Monohydrate", "released", 4500.0, 4410.0, "V006"},
			{"B2025007", "Sterile Water", "released", 10000.0, 9980.0, "V007"},
			{"B2025008", "Amber Vials", "quarantined", 15000.0, 0.0, "V008"},
			{"B2025009", "Carton Sleeves", "released", 20000.0, 19800.0, "V009"},
			{"B2025010", "Rubber Stoppers", "delayed", 9000.0, 0.0, "V010"},
		},
	}

	shipments := &demoTable{
		name: "shipments",
		columns: []Column{
			{Name: "shipment_id", Type: FieldString},
			{Name: "batch_id", Type: FieldString},
			{Name: "stage", Type: FieldString},
			{Name: "origin", Type: FieldString},
			{Name: "destination", Type: FieldString},
		},
		rows: [][]any{
			{"S5001", "B2025001", "vendor", "Helix Pharma Supply", "Newark DC"},
			{"S5002", "B2025001", "distribution_center", "Newark DC", "Mercy General Hospital"},
			{"S5003", "B2025001", "hospital", "Mercy General Hospital", "Pharmacy Ward 3"},
			{"S5004", "B2025002", "vendor", "Basel BioChem", "Frankfurt DC"},
			{"S5005", "B2025002", "distribution_center", "Frankfurt DC", "Charite Berlin"},
			{"S5006", "B2025004", "vendor", "Rhein Packaging", "Frankfurt DC"},
			{"S5007", "B2025005", "vendor", "Austin Cold Chain", "Dallas DC"},
			{"S5008", "B2025005", "distribution_center", "Dallas DC", "Houston Methodist"},
			{"S5009", "B2025007", "vendor", "Boston Sterile Labs", "Newark DC"},
			{"S5010", "B2025009", "vendor", "Chicago Packaging Inc", "Chicago DC"},
			{"S5011", "B2025009", "distribution_center", "Chicago DC", "Northwestern Memorial"},
		},
	}

	return map[string]*demoTable{
		"vendors":   vendors,
		"batches":   batches,
		"shipments": shipments,
	}
}
