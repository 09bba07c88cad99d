package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

type pushFunc func(ctx context.Context, n *apns2.Notification) (*apns2.Response, error)

// PushSender delivers notifications to iOS devices through APNs
type PushSender struct {
	topic string
	push  pushFunc
}

// PushOptions configures token-based APNs authentication
type PushOptions struct {
	KeyPath    string
	KeyID      string
	TeamID     string
	Topic      string
	Production bool
}

// NewPushSender loads the .p8 signing key and creates an APNs client
func NewPushSender(opts PushOptions) (*PushSender, error) {
	authKey, err := token.AuthKeyFromFile(opts.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load apns key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   opts.KeyID,
		TeamID:  opts.TeamID,
	})
	if opts.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return newPushSender(opts.Topic, func(ctx context.Context, n *apns2.Notification) (*apns2.Response, error) {
		return client.PushWithContext(ctx, n)
	}), nil
}

func newPushSender(topic string, push pushFunc) *PushSender {
	return &PushSender{topic: topic, push: push}
}

// reminderPayload builds the alert shown for a reminder
func reminderPayload(title, body string, data map[string]string) *payload.Payload {
	p := payload.NewPayload().AlertTitle(title).AlertBody(body).Sound("default")
	for k, v := range data {
		p = p.Custom(k, v)
	}
	return p
}

// SendPush sends an alert to one device
func (s *PushSender) SendPush(ctx context.Context, deviceToken, title, body string, data map[string]string) error {
	if deviceToken == "" {
		return fmt.Errorf("device token is empty")
	}

	resp, err := s.push(ctx, &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       s.topic,
		Payload:     reminderPayload(title, body, data),
	})
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if !resp.Sent() {
		return fmt.Errorf("apns rejected notification: status=%d reason=%s", resp.StatusCode, resp.Reason)
	}

	log.Debug().Str("apns_id", resp.ApnsID).Msg("Push notification sent")
	return nil
}
