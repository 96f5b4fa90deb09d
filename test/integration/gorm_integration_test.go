package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"dbquery-be/internal/entity"
	"dbquery-be/internal/repository/unitofwork"
	"dbquery-be/pkg/database"
	"dbquery-be/pkg/embedding"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.GroundingDocumentRepository())
	assert.NotNil(t, uow.DocumentEmbeddingRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check Grounding Document Repository", func(t *testing.T) {
		count, err := uow.GroundingDocumentRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("GroundingDocument count: %d", count)
	})

	t.Run("Check Document Embedding Repository", func(t *testing.T) {
		count, err := uow.DocumentEmbeddingRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("DocumentEmbedding count: %d", count)
	})

	t.Run("Transactional Ingest And Similarity Search", func(t *testing.T) {
		ctx := context.Background()
		provider := embedding.NewDemoProvider()

		docId := uuid.New()
		document := &entity.GroundingDocument{
			Id:         docId,
			SourceName: "integration-test-" + uuid.New().String() + ".md",
			Content:    "OTIF measures on time in full delivery performance for vendors.",
			Metadata:   map[string]interface{}{"origin": "integration_test"},
			CreatedAt:  time.Now(),
		}

		err := uow.GroundingDocumentRepository().Create(ctx, document)
		assert.NoError(t, err)

		res, err := provider.Generate(document.Content, "RETRIEVAL_DOCUMENT")
		assert.NoError(t, err)

		err = uow.Begin(ctx)
		assert.NoError(t, err)
		defer uow.Rollback()

		chunk := &entity.DocumentEmbedding{
			Id:             uuid.New(),
			Chunk:          document.Content,
			EmbeddingValue: res.Embedding.Values,
			DocumentId:     docId,
			ChunkIndex:     0,
			CreatedAt:      time.Now(),
		}
		err = uow.DocumentEmbeddingRepository().CreateBulk(ctx, []*entity.DocumentEmbedding{chunk})
		assert.NoError(t, err)

		err = uow.Commit()
		assert.NoError(t, err)

		// The query embedding is identical, so the chunk must come back
		// at similarity ~1.0.
		queryRes, err := provider.Generate(document.Content, "RETRIEVAL_QUERY")
		assert.NoError(t, err)

		scored, err := uow.DocumentEmbeddingRepository().SearchSimilarWithScore(ctx, queryRes.Embedding.Values, 5, 0.5)
		assert.NoError(t, err)
		assert.NotEmpty(t, scored)

		var found bool
		for _, sc := range scored {
			if sc.Embedding.DocumentId == docId {
				found = true
				assert.Equal(t, document.SourceName, sc.SourceName)
				assert.Greater(t, sc.Similarity, 0.9)
			}
		}
		assert.True(t, found, "ingested chunk should be retrievable by similarity")

		// Cleanup
		err = uow.DocumentEmbeddingRepository().DeleteByDocumentId(ctx, docId)
		assert.NoError(t, err)
		err = uow.GroundingDocumentRepository().Delete(ctx, docId)
		assert.NoError(t, err)

		t.Log("Successfully ingested, searched and cleaned up grounding document")
	})
}
