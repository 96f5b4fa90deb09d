package main

import (
	"log"
	"os"
	"time"

	"dbquery-be/internal/model"
	"dbquery-be/pkg/database"
	"dbquery-be/pkg/embedding"
	"dbquery-be/pkg/utils"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// seedDocument is one reference document for the grounding corpus.
type seedDocument struct {
	source  string
	content string
}

var corpus = []seedDocument{
	{
		source: "supply_chain_glossary.md",
		content: `OTIF (On Time In Full) measures the share of orders delivered both on schedule and in the full ordered quantity. Vendors below 90% OTIF trigger a supplier review.

On-time delivery rate is the fraction of purchase order lines received on or before the promised date over a rolling 12 month window.

Defect rate is the share of received units rejected at incoming quality inspection. Rates above 2% require a corrective action plan from the vendor.`,
	},
	{
		source: "quality_sop.md",
		content: `A quarantined batch is held in a segregated area and must not be released to production until quality assurance completes the deviation investigation.

Batch release requires a completed batch record review, certificate of analysis, and sign-off by the qualified person.`,
	},
	{
		source: "logistics_handbook.md",
		content: `Cold chain shipments move through temperature-controlled legs from the vendor to a distribution center and on to the hospital pharmacy, with loggers checked at each handover.

A shipment leg records one movement between two sites. Tracing a batch follows its legs in stage order: vendor, distribution center, hospital.`,
	},
	{
		source: "procurement_policy.md",
		content: `Vendor scorecards combine on-time delivery rate, defect rate and responsiveness. Scorecards are refreshed monthly per product category.`,
	},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	var provider embedding.EmbeddingProvider
	if apiKey := os.Getenv("GOOGLE_GEMINI_API_KEY"); apiKey != "" {
		provider = embedding.NewGeminiProvider(apiKey)
		color.Cyan("Using Gemini embeddings")
	} else {
		provider = embedding.NewDemoProvider()
		color.Cyan("Using deterministic demo embeddings")
	}

	color.Cyan("Seeding grounding corpus (%d documents)...", len(corpus))

	for _, doc := range corpus {
		var existing model.GroundingDocument
		if err := db.Where("source_name = ?", doc.source).First(&existing).Error; err == nil {
			color.Yellow("Document '%s' already exists, skipping...", doc.source)
			continue
		}

		docModel := model.GroundingDocument{
			Id:         uuid.New(),
			SourceName: doc.source,
			Content:    doc.content,
			Metadata:   datatypes.JSON([]byte(`{"origin":"seed"}`)),
			CreatedAt:  time.Now(),
		}
		if err := db.Create(&docModel).Error; err != nil {
			color.Red("Error creating document '%s': %v", doc.source, err)
			continue
		}

		chunks := utils.SplitText(doc.content, 1500, 200)
		var failed bool
		for i, chunk := range chunks {
			res, err := provider.Generate(chunk, "RETRIEVAL_DOCUMENT")
			if err != nil {
				color.Red("Error embedding chunk %d of '%s': %v", i, doc.source, err)
				failed = true
				break
			}

			chunkModel := model.DocumentEmbedding{
				Id:             uuid.New(),
				Chunk:          chunk,
				EmbeddingValue: pgvector.NewVector(res.Embedding.Values),
				DocumentId:     docModel.Id,
				ChunkIndex:     i,
				CreatedAt:      time.Now(),
			}
			if err := db.Create(&chunkModel).Error; err != nil {
				color.Red("Error storing chunk %d of '%s': %v", i, doc.source, err)
				failed = true
				break
			}
		}
		if failed {
			continue
		}

		color.Green("Seeded '%s' (%d chunks)", doc.source, len(chunks))
	}

	color.Green("Grounding corpus seeding completed!")
}
