package catalog

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// GraphCatalog reads the schema from a Neo4j graph following the shape the
// warehouse sync job writes:
//
//	(Catalog)-[:HAS_SCHEMA]->(Schema)-[:HAS_TABLE]->(Table)-[:HAS_COLUMN]->(Column)
//	(Table)-[rel:RELATES_TO]->(Table)
//
// Refresh builds a complete new snapshot and swaps it atomically, so readers
// never observe a partially loaded schema.
type GraphCatalog struct {
	driver   neo4j.DriverWithContext
	database string
	current  atomic.Pointer[Snapshot]
}

func NewGraphCatalog(driver neo4j.DriverWithContext, database string) *GraphCatalog {
	c := &GraphCatalog{driver: driver, database: database}
	c.current.Store(&Snapshot{Version: "empty"})
	return c
}

func (c *GraphCatalog) Snapshot() *Snapshot {
	return c.current.Load()
}

// Refresh reloads the schema graph into a fresh snapshot. The previous
// snapshot stays live for readers until the swap.
func (c *GraphCatalog) Refresh(ctx context.Context) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	snapshot := &Snapshot{Version: fmt.Sprintf("graph-%d", time.Now().Unix())}

	_, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		tables, err := tx.Run(ctx,
			`MATCH (t:Table) OPTIONAL MATCH (t)-[:HAS_COLUMN]->(c:Column)
			 RETURN t.name AS table, coalesce(t.description, '') AS description,
			        collect({name: c.name, description: coalesce(c.description, '')}) AS columns
			 ORDER BY t.name`, nil)
		if err != nil {
			return nil, err
		}
		for tables.Next(ctx) {
			rec := tables.Record()
			tableName, _ := rec.Get("table")
			description, _ := rec.Get("description")
			table := tableName.(string)

			snapshot.Entities = append(snapshot.Entities, SchemaEntity{
				Name:        table,
				Kind:        KindTable,
				Description: description.(string),
			})

			cols, _ := rec.Get("columns")
			for _, raw := range cols.([]any) {
				col := raw.(map[string]any)
				name, ok := col["name"].(string)
				if !ok || name == "" {
					continue
				}
				desc, _ := col["description"].(string)
				snapshot.Entities = append(snapshot.Entities, SchemaEntity{
					Name:        name,
					Kind:        KindColumn,
					Parent:      table,
					Description: desc,
				})
			}
		}
		if err := tables.Err(); err != nil {
			return nil, err
		}

		rels, err := tx.Run(ctx,
			`MATCH (a:Table)-[r:RELATES_TO]->(b:Table)
			 RETURN r.name AS name, a.name AS from, b.name AS to,
			        coalesce(r.description, '') AS description
			 ORDER BY name`, nil)
		if err != nil {
			return nil, err
		}
		for rels.Next(ctx) {
			rec := rels.Record()
			name, _ := rec.Get("name")
			from, _ := rec.Get("from")
			to, _ := rec.Get("to")
			desc, _ := rec.Get("description")
			snapshot.Entities = append(snapshot.Entities, SchemaEntity{
				Name:        name.(string),
				Kind:        KindRelationship,
				Parent:      fmt.Sprintf("%s>%s", from.(string), to.(string)),
				Description: desc.(string),
			})
		}
		return nil, rels.Err()
	})
	if err != nil {
		return fmt.Errorf("schema graph load failed: %w", err)
	}

	c.current.Store(snapshot)
	return nil
}
