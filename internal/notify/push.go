package notify

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/oggyb/matchmaker/internal/config"
	"github.com/oggyb/matchmaker/internal/repository"
)

// MessageSender is the part of *messaging.Client used for push.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// Push delivers notifications through Firebase Cloud Messaging to the
// device token stored on the user.
type Push struct {
	client MessageSender
	users  *repository.UserRepository
}

func NewPush(client MessageSender, users *repository.UserRepository) *Push {
	return &Push{client: client, users: users}
}

// NewFirebaseMessaging builds an FCM client from the configured credentials.
func NewFirebaseMessaging(ctx context.Context, cfg *config.Config) (*messaging.Client, error) {
	var opt option.ClientOption
	switch {
	case cfg.Firebase.CredentialsFile != "":
		opt = option.WithCredentialsFile(cfg.Firebase.CredentialsFile)
	case cfg.Firebase.CredentialsJSON != "":
		opt = option.WithCredentialsJSON([]byte(cfg.Firebase.CredentialsJSON))
	default:
		return nil, errors.New("FIREBASE_CREDENTIALS_PATH or FIREBASE_CREDENTIALS_JSON must be set")
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}
	return client, nil
}

// Notify sends n to the user's device. Users without a push token are
// skipped silently; they never granted notification permission.
func (d *Push) Notify(ctx context.Context, n Notification) error {
	u, err := d.users.Get(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("push lookup %s: %w", n.UserID, err)
	}
	if u.PushToken == "" {
		return nil
	}

	data := make(map[string]string, len(n.Data)+1)
	for k, v := range n.Data {
		data[k] = v
	}
	data["type"] = string(n.Kind)

	_, err = d.client.Send(ctx, &messaging.Message{
		Token: u.PushToken,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: data,
	})
	observe("push", n, err)
	if err != nil {
		return fmt.Errorf("push to %s: %w", n.UserID, err)
	}
	return nil
}
