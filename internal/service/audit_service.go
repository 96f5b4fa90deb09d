package service

import (
	"context"

	"dbquery-be/internal/pkg/logger"
	"dbquery-be/pkg/events"
	pktNats "dbquery-be/pkg/nats"
)

type IAuditService interface {
	Start() error
}

// auditService consumes the copilot event stream and writes it to the
// structured log, giving operators a durable trail of sessions, queries and
// ingestions without touching the request path.
type auditService struct {
	subscriber *pktNats.Subscriber
	logger     logger.ILogger
}

func NewAuditService(subscriber *pktNats.Subscriber, sysLogger logger.ILogger) IAuditService {
	return &auditService{
		subscriber: subscriber,
		logger:     sysLogger,
	}
}

func (s *auditService) Start() error {
	return s.subscriber.Subscribe("events.>", "audit-logger", func(ctx context.Context, evt events.Event) error {
		s.logger.Info("audit", "event received", map[string]interface{}{
			"type":    evt.EventType(),
			"payload": evt.Payload(),
		})
		return nil
	})
}
