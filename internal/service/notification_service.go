package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/deliverynote-service/internal/events"
	"github.com/spec-kit/deliverynote-service/internal/notify"
	"github.com/spec-kit/deliverynote-service/internal/observability"
)

// NotificationService turns domain events into emails.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     notify.Mailer
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, mailer notify.Mailer, logger *zap.Logger, metrics *observability.Metrics) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		mailer:     mailer,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventGuestInvited, n.handleGuestInvited)
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handlePasswordResetRequested)
	n.dispatcher.Subscribe(events.EventDeliveryNoteSigned, n.handleDeliveryNoteSigned)
}

func (n *NotificationService) handleUserRegistered(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserRegisteredPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	return n.send(ctx, event, notify.Message{
		To:      payload.Email,
		Subject: "Email verification",
		Body:    "Your verification code is: " + payload.Code,
	})
}

func (n *NotificationService) handleGuestInvited(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.GuestInvitedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	return n.send(ctx, event, notify.Message{
		To:      payload.Email,
		Subject: "Company invitation",
		Body: fmt.Sprintf("You have been invited.\nValidation code: %s\nTemporary password: %s\n",
			payload.Code, payload.TemporaryPassword),
	})
}

func (n *NotificationService) handlePasswordResetRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordResetRequestedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	return n.send(ctx, event, notify.Message{
		To:      payload.Email,
		Subject: "Password reset",
		Body: fmt.Sprintf("Your password reset code is: %s\nIt expires at %s.\n",
			payload.Code, payload.ExpiresAt.Format("2006-01-02 15:04 MST")),
	})
}

func (n *NotificationService) handleDeliveryNoteSigned(_ context.Context, event events.Event) error {
	n.logger.Info("DeliveryNoteSigned", zap.String("note_id", event.SubjectID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) send(ctx context.Context, event events.Event, msg notify.Message) error {
	if err := n.mailer.Send(ctx, msg); err != nil {
		n.metrics.RecordUpstreamFailure("mailer")
		n.logger.Error("email delivery failed",
			zap.String("event_type", string(event.Type)),
			zap.String("subject_id", event.SubjectID),
			zap.Error(err))
		return err
	}
	n.logger.Debug("email sent", zap.String("event_type", string(event.Type)), zap.String("subject_id", event.SubjectID))
	return nil
}
