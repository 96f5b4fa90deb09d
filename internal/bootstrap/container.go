package bootstrap

import (
	"context"
	"log"
	"os"

	"dbquery-be/internal/config"
	"dbquery-be/internal/controller"
	"dbquery-be/internal/pkg/logger"
	"dbquery-be/internal/repository/memory"
	"dbquery-be/internal/repository/unitofwork"
	"dbquery-be/internal/service"
	"dbquery-be/pkg/copilot/aggregate"
	"dbquery-be/pkg/copilot/catalog"
	"dbquery-be/pkg/copilot/gateway"
	"dbquery-be/pkg/copilot/grounding"
	"dbquery-be/pkg/copilot/pipeline"
	"dbquery-be/pkg/copilot/query"
	"dbquery-be/pkg/copilot/resolver"
	"dbquery-be/pkg/copilot/session"
	"dbquery-be/pkg/embedding"
	"dbquery-be/pkg/embedding/jina"

	pktNats "dbquery-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	CopilotController  controller.ICopilotController
	DocumentController controller.IDocumentController
	CatalogController  controller.ICatalogController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
}

// NewContainer wires the whole application. db may be nil: demo mode works
// entirely in memory, and the live executor is simply not registered.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	pipeLogger := log.New(os.Stdout, "[copilot] ", log.LstdFlags)

	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// NATS audit stream (auxiliary, app runs without it)
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn("bootstrap", "Failed to connect to NATS publisher", map[string]interface{}{"error": err.Error()})
		natsPub = nil
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn("bootstrap", "Failed to connect to NATS subscriber", map[string]interface{}{"error": err.Error()})
		natsSub = nil
	}
	if natsSub != nil {
		auditService := service.NewAuditService(natsSub, sysLogger)
		go func() {
			if err := auditService.Start(); err != nil {
				sysLogger.Warn("bootstrap", "Audit consumer failed to start", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	// 3. Embedding Provider
	var embeddingProvider embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	case "jina":
		embeddingProvider = jina.NewJinaProvider(cfg.Ai.JinaApiKey)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	case "gemini":
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GeminiApiKey)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	default:
		embeddingProvider = embedding.NewDemoProvider()
		log.Printf("[INFO] Using Embedding Provider: DEMO (deterministic)")
	}

	// 4. Execution stacks, one per mode
	gwConfig := gateway.Config{
		DisplayCap:   cfg.Copilot.DisplayCap,
		RetryBackoff: cfg.Copilot.RetryBackoff,
	}
	groundConfig := grounding.Config{
		TopK:     cfg.Grounding.TopK,
		MinScore: cfg.Grounding.MinScore,
		Timeout:  cfg.Grounding.Timeout,
	}

	executors := map[session.Mode]*pipeline.Executor{}

	// Demo stack: canned schema, canned rows, canned corpus.
	demoCatalog := catalog.NewStaticCatalog(catalog.DemoSnapshot())
	executors[session.ModeDemo] = pipeline.NewExecutor(
		resolver.NewResolver(demoCatalog, pipeLogger),
		query.NewSynthesizer(demoCatalog, pipeLogger),
		gateway.NewGateway(gateway.NewDemoBackend(), gwConfig, pipeLogger),
		grounding.NewGrounder(grounding.NewDemoRetriever(), groundConfig, pipeLogger),
		aggregate.NewAggregator(pipeLogger),
		pipeLogger,
	)

	// Live stack needs the warehouse DB plus a schema catalog.
	liveCatalog, graphCatalog := buildLiveCatalog(cfg, sysLogger)
	if db != nil && liveCatalog != nil {
		searcher := &embeddingSearcher{uowFactory: uowFactory}
		retriever := grounding.NewVectorRetriever(embeddingProvider, searcher, cfg.Grounding.MinScore)
		executors[session.ModeLive] = pipeline.NewExecutor(
			resolver.NewResolver(liveCatalog, pipeLogger),
			query.NewSynthesizer(liveCatalog, pipeLogger),
			gateway.NewGateway(gateway.NewLiveBackend(db, liveCatalog, pipeLogger), gwConfig, pipeLogger),
			grounding.NewGrounder(retriever, groundConfig, pipeLogger),
			aggregate.NewAggregator(pipeLogger),
			pipeLogger,
		)
		log.Printf("[INFO] Live execution mode enabled")
	} else {
		log.Printf("[INFO] Live execution mode disabled (missing database or catalog)")
	}

	defaultMode := session.Mode(cfg.Copilot.DefaultMode)
	if _, ok := executors[defaultMode]; !ok {
		sysLogger.Warn("bootstrap", "Default mode not available, falling back to demo", map[string]interface{}{"mode": cfg.Copilot.DefaultMode})
		defaultMode = session.ModeDemo
	}

	// 5. Services
	sessionRepo := memory.NewSessionRepository(cfg.Copilot.SessionTTL)
	copilotService := service.NewCopilotService(sessionRepo, executors, defaultMode, natsPub)

	catalogView := catalog.Catalog(demoCatalog)
	if liveCatalog != nil {
		catalogView = liveCatalog
	}
	var refresher service.CatalogRefresher
	if graphCatalog != nil {
		refresher = graphCatalog
	}
	catalogService := service.NewCatalogService(catalogView, refresher, natsPub)

	c := &Container{
		CopilotController: controller.NewCopilotController(copilotService),
		CatalogController: controller.NewCatalogController(catalogService),
	}

	// Document ingestion needs the database; demo-only deployments skip it.
	if uowFactory != nil {
		publisherService := service.NewPublisherService(pubSub, cfg.Ai.IngestTopic)
		documentService := service.NewDocumentService(uowFactory, publisherService, natsPub)
		c.DocumentController = controller.NewDocumentController(documentService)
		c.ConsumerService = service.NewConsumerService(
			pubSub,
			cfg.Ai.IngestTopic,
			uowFactory,
			embeddingProvider,
		)
	}

	return c
}

// buildLiveCatalog prefers the Neo4j schema graph, falls back to a snapshot
// file. Returns the catalog plus the graph handle when refresh is possible.
func buildLiveCatalog(cfg *config.Config, sysLogger logger.ILogger) (catalog.Catalog, *catalog.GraphCatalog) {
	if cfg.Graph.URI != "" {
		driver, err := neo4j.NewDriverWithContext(
			cfg.Graph.URI,
			neo4j.BasicAuth(cfg.Graph.User, cfg.Graph.Password, ""),
		)
		if err != nil {
			sysLogger.Warn("bootstrap", "Failed to create Neo4j driver", map[string]interface{}{"error": err.Error()})
		} else {
			gc := catalog.NewGraphCatalog(driver, cfg.Graph.Database)
			if err := gc.Refresh(context.Background()); err != nil {
				sysLogger.Warn("bootstrap", "Initial schema graph refresh failed", map[string]interface{}{"error": err.Error()})
			}
			return gc, gc
		}
	}

	if cfg.Copilot.SnapshotPath != "" {
		snapshot, err := catalog.LoadSnapshot(cfg.Copilot.SnapshotPath)
		if err != nil {
			sysLogger.Warn("bootstrap", "Failed to load catalog snapshot", map[string]interface{}{"error": err.Error()})
			return nil, nil
		}
		return catalog.NewStaticCatalog(snapshot), nil
	}

	return nil, nil
}

// embeddingSearcher adapts the document embedding repository to the
// grounding search surface.
type embeddingSearcher struct {
	uowFactory unitofwork.RepositoryFactory
}

func (s *embeddingSearcher) SearchSimilarWithScore(ctx context.Context, vector []float32, limit int, minScore float64) ([]grounding.SimilarChunk, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.DocumentEmbeddingRepository().SearchSimilarWithScore(ctx, vector, limit, minScore)
	if err != nil {
		return nil, err
	}

	chunks := make([]grounding.SimilarChunk, len(scored))
	for i, sc := range scored {
		chunks[i] = grounding.SimilarChunk{
			DocumentID: sc.Embedding.DocumentId.String(),
			Source:     sc.SourceName,
			Chunk:      sc.Embedding.Chunk,
			Similarity: sc.Similarity,
		}
	}
	return chunks, nil
}
