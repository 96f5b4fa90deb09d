package catalog

// StaticCatalog serves a fixed snapshot built from an in-code descriptor.
// Used in demo mode, where schema and data are canned and never change.
type StaticCatalog struct {
	snapshot *Snapshot
}

func NewStaticCatalog(snapshot *Snapshot) *StaticCatalog {
	return &StaticCatalog{snapshot: snapshot}
}

func (c *StaticCatalog) Snapshot() *Snapshot {
	return c.snapshot
}

// DemoSnapshot describes the canned pharma supply-chain schema: vendor
// master data, production batches and shipment legs. The demo backend
// materializes exactly these tables.
func DemoSnapshot() *Snapshot {
	return &Snapshot{
		Version: "demo-1",
		Entities: []SchemaEntity{
			{Name: "vendors", Kind: KindTable, Description: "vendor master data with delivery performance"},
			{Name: "vendor_id", Kind: KindColumn, Parent: "vendors", Description: "unique vendor identifier"},
			{Name: "vendor_name", Kind: KindColumn, Parent: "vendors", Description: "vendor display name"},
			{Name: "country", Kind: KindColumn, Parent: "vendors", Description: "vendor country code, e.g. US"},
			{Name: "on_time_delivery_rate", Kind: KindColumn, Parent: "vendors", Description: "share of deliveries arriving on time"},
			{Name: "defect_rate", Kind: KindColumn, Parent: "vendors", Description: "share of delivered units rejected"},
			{Name: "product_category", Kind: KindColumn, Parent: "vendors", Description: "primary product category supplied"},

			{Name: "batches", Kind: KindTable, Description: "production batches with receipt and output quantities"},
			{Name: "batch_id", Kind: KindColumn, Parent: "batches", Description: "batch identifier, e.g. B2025001"},
			{Name: "material_name", Kind: KindColumn, Parent: "batches", Description: "material produced in the batch"},
			{Name: "status", Kind: KindColumn, Parent: "batches", Description: "batch lifecycle status"},
			{Name: "received_qty", Kind: KindColumn, Parent: "batches", Description: "raw material quantity received"},
			{Name: "produced_qty", Kind: KindColumn, Parent: "batches", Description: "finished quantity produced"},

			{Name: "shipments", Kind: KindTable, Description: "shipment legs from vendor to distribution center to hospital"},
			{Name: "shipment_id", Kind: KindColumn, Parent: "shipments", Description: "shipment leg identifier"},
			{Name: "stage", Kind: KindColumn, Parent: "shipments", Description: "leg stage: vendor, distribution_center or hospital"},
			{Name: "origin", Kind: KindColumn, Parent: "shipments", Description: "leg origin site"},
			{Name: "destination", Kind: KindColumn, Parent: "shipments", Description: "leg destination site"},

			{Name: "supplies", Kind: KindRelationship, Parent: "vendors>batches", Description: "vendor supplies batch"},
			{Name: "moves", Kind: KindRelationship, Parent: "batches>shipments", Description: "batch moves via shipment leg"},
		},
	}
}
