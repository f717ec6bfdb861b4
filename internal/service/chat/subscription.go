package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Subscription delivers live messages of one match until closed.
// The caller must Close it, or cancel the context passed to Subscribe.
type Subscription struct {
	ps     *redis.PubSub
	events chan Event
	done   chan struct{}
	once   sync.Once
}

// Subscribe opens a live feed of new messages in matchID for reader.
// Messages sent after Subscribe returns are delivered.
func (s *Service) Subscribe(ctx context.Context, matchID, reader string) (*Subscription, error) {
	if _, err := s.participant(ctx, matchID, reader); err != nil {
		return nil, err
	}
	ps, err := s.appCtx.RedisCache.Subscribe(ctx, s.appCtx.RedisCache.ChannelForChat(matchID))
	if err != nil {
		return nil, err
	}

	sub := &Subscription{
		ps:     ps,
		events: make(chan Event),
		done:   make(chan struct{}),
	}
	go sub.pump(ctx, s.appCtx.Logger.With("match_id", matchID))
	return sub, nil
}

// Events is closed once the subscription ends.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close ends the subscription. Safe to call more than once.
func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}

func (s *Subscription) pump(ctx context.Context, log *slog.Logger) {
	defer close(s.events)
	defer s.Close()

	in := s.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case m, ok := <-in:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
				log.Warn("drop malformed chat event", "err", err)
				continue
			}
			select {
			case s.events <- ev:
			case <-ctx.Done():
				return
			case <-s.done:
				return
			}
		}
	}
}
