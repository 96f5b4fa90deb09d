package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sync"

	"dbquery-be/internal/dto"
	"dbquery-be/internal/repository/memory"
	"dbquery-be/pkg/copilot/gateway"
	"dbquery-be/pkg/copilot/pipeline"
	"dbquery-be/pkg/copilot/qerr"
	"dbquery-be/pkg/copilot/session"
	"dbquery-be/pkg/events"
	pktNats "dbquery-be/pkg/nats"
)

type ICopilotService interface {
	CreateSession(ctx context.Context, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	Ask(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error)
	SwitchMode(ctx context.Context, req *dto.SwitchModeRequest) (*dto.SwitchModeResponse, error)
	PinInsight(ctx context.Context, req *dto.PinInsightRequest) (*dto.PinInsightResponse, error)
	Export(ctx context.Context, sessionId string, pinnedOnly bool) (*session.Export, error)
	ExportCSV(ctx context.Context, sessionId string, pinnedOnly bool) ([]byte, error)
}

type copilotService struct {
	sessions       *memory.SessionRepository
	executors      map[session.Mode]*pipeline.Executor
	defaultMode    session.Mode
	eventPublisher *pktNats.Publisher

	// One mutex per session keeps turns strictly ordered even when a client
	// fires overlapping asks.
	turnLocks sync.Map
}

func NewCopilotService(
	sessions *memory.SessionRepository,
	executors map[session.Mode]*pipeline.Executor,
	defaultMode session.Mode,
	eventPublisher *pktNats.Publisher,
) ICopilotService {
	return &copilotService{
		sessions:       sessions,
		executors:      executors,
		defaultMode:    defaultMode,
		eventPublisher: eventPublisher,
	}
}

func (s *copilotService) CreateSession(ctx context.Context, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	mode := s.defaultMode
	if req.Mode != "" {
		mode = session.Mode(req.Mode)
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("invalid mode %q", req.Mode)
	}
	if _, ok := s.executors[mode]; !ok {
		return nil, &qerr.BackendUnavailableError{
			Backend: string(mode),
			Err:     fmt.Errorf("backend not configured"),
		}
	}

	sess := session.NewContext(mode)
	s.sessions.Save(sess)

	s.publishEvent(ctx, events.NewSessionStartedEvent(sess.ID, string(mode)))

	return &dto.CreateSessionResponse{
		Id:        sess.ID,
		Mode:      string(sess.Mode()),
		CreatedAt: sess.CreatedAt,
	}, nil
}

func (s *copilotService) Ask(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error) {
	sess, err := s.getSession(req.SessionId)
	if err != nil {
		return nil, err
	}

	lock := s.lockFor(sess.ID)
	lock.Lock()
	defer lock.Unlock()

	executor, ok := s.executors[sess.Mode()]
	if !ok {
		return nil, &qerr.BackendUnavailableError{
			Backend: string(sess.Mode()),
			Err:     fmt.Errorf("backend not configured"),
		}
	}

	answer, err := executor.Execute(ctx, sess, req.Prompt)
	if err != nil {
		s.publishEvent(ctx, events.NewQueryFailedEvent(sess.ID, qerr.KindOf(err), err.Error()))
		return nil, err
	}

	// Execute appended the turn; refresh the TTL.
	s.sessions.Save(sess)

	plan := ""
	rowCount := 0
	if last := sess.LastTurn(); last != nil && last.Query != nil {
		plan = last.Query.String()
	}
	if answer.Result != nil {
		rowCount = answer.Result.RowCount
	}
	s.publishEvent(ctx, events.NewQueryExecutedEvent(sess.ID, answer.ID, string(sess.Mode()), plan, rowCount))

	res := &dto.AskResponse{
		Mode:   string(sess.Mode()),
		Answer: answer,
	}
	if last := sess.LastTurn(); last != nil {
		res.TurnId = last.ID
	}
	return res, nil
}

func (s *copilotService) SwitchMode(ctx context.Context, req *dto.SwitchModeRequest) (*dto.SwitchModeResponse, error) {
	sess, err := s.getSession(req.SessionId)
	if err != nil {
		return nil, err
	}

	mode := session.Mode(req.Mode)
	if !mode.Valid() {
		return nil, fmt.Errorf("invalid mode %q", req.Mode)
	}
	if _, ok := s.executors[mode]; !ok {
		return nil, &qerr.BackendUnavailableError{
			Backend: string(mode),
			Err:     fmt.Errorf("backend not configured"),
		}
	}

	lock := s.lockFor(sess.ID)
	lock.Lock()
	cleared := sess.SwitchMode(mode)
	lock.Unlock()

	s.sessions.Save(sess)

	if cleared {
		s.publishEvent(ctx, events.NewModeSwitchedEvent(sess.ID, string(mode)))
	}

	return &dto.SwitchModeResponse{
		Id:      sess.ID,
		Mode:    string(sess.Mode()),
		Cleared: cleared,
	}, nil
}

func (s *copilotService) PinInsight(ctx context.Context, req *dto.PinInsightRequest) (*dto.PinInsightResponse, error) {
	sess, err := s.getSession(req.SessionId)
	if err != nil {
		return nil, err
	}

	var answerId string
	for _, t := range sess.Turns() {
		if t.ID == req.TurnId && t.Answer != nil {
			answerId = t.Answer.ID
			break
		}
	}
	if answerId == "" || !sess.Pin(answerId) {
		return nil, fmt.Errorf("turn %s not found in session", req.TurnId)
	}
	s.sessions.Save(sess)

	s.publishEvent(ctx, events.NewInsightPinnedEvent(sess.ID, answerId))

	return &dto.PinInsightResponse{
		TurnId:   req.TurnId,
		AnswerId: answerId,
	}, nil
}

func (s *copilotService) Export(ctx context.Context, sessionId string, pinnedOnly bool) (*session.Export, error) {
	sess, err := s.getSession(sessionId)
	if err != nil {
		return nil, err
	}
	return sess.Exportable(pinnedOnly), nil
}

// ExportCSV renders the most recent pinned tabular result as CSV. With
// pinnedOnly false it falls back to the latest turn carrying a result.
func (s *copilotService) ExportCSV(ctx context.Context, sessionId string, pinnedOnly bool) ([]byte, error) {
	sess, err := s.getSession(sessionId)
	if err != nil {
		return nil, err
	}

	turns := sess.Pinned()
	if !pinnedOnly && len(turns) == 0 {
		turns = sess.Turns()
	}

	var result *gateway.ResultSet
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Answer != nil && turns[i].Answer.Result != nil {
			result = turns[i].Answer.Result
			break
		}
	}
	if result == nil {
		return nil, fmt.Errorf("no tabular result to export in session %s", sessionId)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, len(result.Columns))
	for i, col := range result.Columns {
		header[i] = col.Name
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, row := range result.Rows {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = fmt.Sprint(cell)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *copilotService) getSession(sessionId string) (*session.Context, error) {
	sess, found := s.sessions.Get(sessionId)
	if !found {
		return nil, fmt.Errorf("session %s not found or expired", sessionId)
	}
	return sess, nil
}

func (s *copilotService) lockFor(sessionId string) *sync.Mutex {
	v, _ := s.turnLocks.LoadOrStore(sessionId, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (s *copilotService) publishEvent(ctx context.Context, evt events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		fmt.Printf("[WARN] Failed to publish %s event: %v\n", evt.EventType(), err)
	}
}
