package notify

import (
	"context"

	"gorm.io/datatypes"

	"github.com/oggyb/matchmaker/internal/db"
	"github.com/oggyb/matchmaker/internal/repository"
)

// InApp writes notifications to the user's inbox table.
type InApp struct {
	repo *repository.NotificationRepository
}

func NewInApp(repo *repository.NotificationRepository) *InApp {
	return &InApp{repo: repo}
}

func (d *InApp) Notify(ctx context.Context, n Notification) error {
	data := make(datatypes.JSONMap, len(n.Data))
	for k, v := range n.Data {
		data[k] = v
	}
	err := d.repo.Create(ctx, &db.Notification{
		UserID: n.UserID,
		Kind:   string(n.Kind),
		Title:  n.Title,
		Body:   n.Body,
		Data:   data,
	})
	observe("inapp", n, err)
	return err
}
