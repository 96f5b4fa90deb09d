package controller

import (
	"context"
	"net/http/httptest"
	"testing"

	"dbquery-be/internal/dto"
	"dbquery-be/pkg/copilot/session"

	"github.com/gofiber/fiber/v2"
)

// stubCopilotService records the export flags the controller passes down.
type stubCopilotService struct {
	lastPinnedOnly bool
}

func (s *stubCopilotService) CreateSession(ctx context.Context, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	return &dto.CreateSessionResponse{}, nil
}

func (s *stubCopilotService) Ask(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error) {
	return &dto.AskResponse{}, nil
}

func (s *stubCopilotService) SwitchMode(ctx context.Context, req *dto.SwitchModeRequest) (*dto.SwitchModeResponse, error) {
	return &dto.SwitchModeResponse{}, nil
}

func (s *stubCopilotService) PinInsight(ctx context.Context, req *dto.PinInsightRequest) (*dto.PinInsightResponse, error) {
	return &dto.PinInsightResponse{}, nil
}

func (s *stubCopilotService) Export(ctx context.Context, sessionId string, pinnedOnly bool) (*session.Export, error) {
	s.lastPinnedOnly = pinnedOnly
	return &session.Export{SessionID: sessionId}, nil
}

func (s *stubCopilotService) ExportCSV(ctx context.Context, sessionId string, pinnedOnly bool) ([]byte, error) {
	s.lastPinnedOnly = pinnedOnly
	return []byte("vendor_id\nV001\n"), nil
}

func exportTestApp(stub *stubCopilotService) *fiber.App {
	app := fiber.New()
	NewCopilotController(stub).RegisterRoutes(app.Group("/api"))
	return app
}

func TestExportDefaultsToPinnedOnly(t *testing.T) {
	stub := &stubCopilotService{}
	app := exportTestApp(stub)

	paths := []string{
		"/api/copilot/v1/sessions/abc/export",
		"/api/copilot/v1/sessions/abc/export/csv",
	}
	for _, path := range paths {
		stub.lastPinnedOnly = false
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("%s: status = %d, want 200", path, resp.StatusCode)
		}
		if !stub.lastPinnedOnly {
			t.Errorf("%s: pinned_only = false, want the pinned default", path)
		}
	}
}

func TestExportFullTranscriptIsOptIn(t *testing.T) {
	stub := &stubCopilotService{lastPinnedOnly: true}
	app := exportTestApp(stub)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/copilot/v1/sessions/abc/export?pinned_only=false", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if stub.lastPinnedOnly {
		t.Error("pinned_only=false should request the full transcript")
	}
}
