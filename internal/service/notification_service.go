package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-service/internal/config"
	"github.com/spec-kit/civic-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
// Actual SMS/email/push dispatch is stubbed; the subscription itself is the
// "on status changed" extension point.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventGrievanceRegistered, n.handleGrievanceRegistered)
	n.dispatcher.Subscribe(events.EventGrievanceStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventFeedbackSubmitted, n.handleFeedbackSubmitted)
	n.dispatcher.Subscribe(events.EventSettlementCompleted, n.handleSettlementCompleted)
}

func (n *NotificationService) handleGrievanceRegistered(ctx context.Context, event events.Event) error {
	n.logger.Info("GrievanceRegistered", zap.String("number", event.RecordNumber), zap.Any("payload", event.Payload))
	n.sendSMSStub(ctx, event)
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("GrievanceStatusChanged", zap.String("number", event.RecordNumber), zap.Any("payload", event.Payload))
	n.sendSMSStub(ctx, event)
	return nil
}

func (n *NotificationService) handleFeedbackSubmitted(ctx context.Context, event events.Event) error {
	n.logger.Info("FeedbackSubmitted", zap.String("number", event.RecordNumber), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleSettlementCompleted(ctx context.Context, event events.Event) error {
	n.logger.Info("SettlementCompleted", zap.String("number", event.RecordNumber), zap.Any("payload", event.Payload))
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) sendSMSStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.SMSGatewayURL) == "" {
		return
	}
	n.logger.Debug("sendSMSStub",
		zap.String("gateway", n.cfg.SMSGatewayURL),
		zap.String("number", event.RecordNumber),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("number", event.RecordNumber),
		zap.String("event_type", string(event.Type)))
}
