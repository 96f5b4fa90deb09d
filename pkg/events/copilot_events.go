package events

import "time"

// Event type codes published to the audit stream.
const (
	TypeSessionStarted   = "COPILOT_SESSION_STARTED"
	TypeQueryExecuted    = "COPILOT_QUERY_EXECUTED"
	TypeQueryFailed      = "COPILOT_QUERY_FAILED"
	TypeModeSwitched     = "COPILOT_MODE_SWITCHED"
	TypeInsightPinned    = "COPILOT_INSIGHT_PINNED"
	TypeDocumentIngested = "GROUNDING_DOCUMENT_INGESTED"
	TypeSchemaRefreshed  = "SCHEMA_CATALOG_REFRESHED"
)

func NewSessionStartedEvent(sessionID, mode string) Event {
	return BaseEvent{
		Type: TypeSessionStarted,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"mode":       mode,
		},
		OccurredAt: time.Now().UTC(),
	}
}

func NewQueryExecutedEvent(sessionID, answerID, backend, plan string, rowCount int) Event {
	return BaseEvent{
		Type: TypeQueryExecuted,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"answer_id":  answerID,
			"backend":    backend,
			"plan":       plan,
			"row_count":  rowCount,
		},
		OccurredAt: time.Now().UTC(),
	}
}

func NewQueryFailedEvent(sessionID, kind, detail string) Event {
	return BaseEvent{
		Type: TypeQueryFailed,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"kind":       kind,
			"detail":     detail,
		},
		OccurredAt: time.Now().UTC(),
	}
}

func NewModeSwitchedEvent(sessionID, mode string) Event {
	return BaseEvent{
		Type: TypeModeSwitched,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"mode":       mode,
		},
		OccurredAt: time.Now().UTC(),
	}
}

func NewInsightPinnedEvent(sessionID, answerID string) Event {
	return BaseEvent{
		Type: TypeInsightPinned,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"answer_id":  answerID,
		},
		OccurredAt: time.Now().UTC(),
	}
}

func NewDocumentIngestedEvent(documentID, sourceName string, chunks int) Event {
	return BaseEvent{
		Type: TypeDocumentIngested,
		Data: map[string]interface{}{
			"document_id": documentID,
			"source_name": sourceName,
			"chunks":      chunks,
		},
		OccurredAt: time.Now().UTC(),
	}
}

func NewSchemaRefreshedEvent(version string, entities int) Event {
	return BaseEvent{
		Type: TypeSchemaRefreshed,
		Data: map[string]interface{}{
			"version":  version,
			"entities": entities,
		},
		OccurredAt: time.Now().UTC(),
	}
}
