package services

import (
	"context"
	"fmt"

	"shoe-market-backend/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/certificate"
	"github.com/sideshow/apns2/payload"
)

// APNsNotifier sends delivery notifications through Apple Push Notification service
type APNsNotifier struct {
	client *apns2.Client
	topic  string
}

// NewAPNsNotifier loads the .p12 certificate and creates a client for the chosen environment
func NewAPNsNotifier(certPath, certPassword, topic string, production bool) (*APNsNotifier, error) {
	cert, err := certificate.FromP12File(certPath, certPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs certificate: %w", err)
	}

	client := apns2.NewClient(cert)
	if production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNsNotifier{client: client, topic: topic}, nil
}

// NotifyDelivered pushes a "delivered" alert to the user's device
func (n *APNsNotifier) NotifyDelivered(ctx context.Context, user *models.User, record *models.Record) error {
	if user.PushToken == nil || *user.PushToken == "" {
		return nil
	}

	notification := &apns2.Notification{
		DeviceToken: *user.PushToken,
		Topic:       n.topic,
		Payload: payload.NewPayload().
			AlertTitle("Order delivered").
			AlertBody(fmt.Sprintf("Your order of %d item(s) has been delivered", len(record.ShoeIDs))).
			Sound("default").
			Custom("record_id", record.ID),
	}

	res, err := n.client.PushWithContext(ctx, notification)
	if err != nil {
		return fmt.Errorf("failed to send push notification: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("push notification rejected: %d %s", res.StatusCode, res.Reason)
	}

	log.Debug().
		Str("user_id", user.ID).
		Str("record_id", record.ID).
		Str("apns_id", res.ApnsID).
		Msg("Delivery notification sent")
	return nil
}

// NoopNotifier is used when push is not configured
type NoopNotifier struct{}

// NotifyDelivered does nothing
func (NoopNotifier) NotifyDelivered(context.Context, *models.User, *models.Record) error {
	return nil
}
