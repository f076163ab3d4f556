package sink

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/shubham-shewale/market-feed/pkg/models"
)

// QuoteStore reads what RedisMirror writes.
type QuoteStore struct {
	client *redis.Client
}

func NewQuoteStore(client *redis.Client) *QuoteStore {
	return &QuoteStore{client: client}
}

// Quotes fetches the latest update for each symbol (MGET). Symbols with no
// mirrored value are skipped.
func (q *QuoteStore) Quotes(ctx context.Context, symbols []string) ([]models.StockUpdate, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	keys := make([]string, len(symbols))
	for i, sym := range symbols {
		keys[i] = KeyPrefix + strings.ToUpper(sym)
	}

	results, err := q.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	var out []models.StockUpdate
	for _, val := range results {
		payload, ok := val.(string)
		if !ok || payload == "" {
			continue
		}
		var u models.StockUpdate
		if err := json.Unmarshal([]byte(payload), &u); err != nil {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

// Alerts returns the mirrored alert list, newest first.
func (q *QuoteStore) Alerts(ctx context.Context) ([]models.Alert, error) {
	vals, err := q.client.LRange(ctx, AlertsKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]models.Alert, 0, len(vals))
	for _, v := range vals {
		var a models.Alert
		if err := json.Unmarshal([]byte(v), &a); err != nil {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// Follow streams price updates for the given symbols until ctx is done.
func (q *QuoteStore) Follow(ctx context.Context, symbols []string, onUpdate func(models.StockUpdate)) error {
	channels := make([]string, len(symbols))
	for i, sym := range symbols {
		channels[i] = ChannelPrefix + strings.ToUpper(sym)
	}

	ps := q.client.Subscribe(ctx, channels...)
	defer ps.Close()

	// wait for the subscription confirmation so no update is missed
	if _, err := ps.Receive(ctx); err != nil {
		return err
	}

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var u models.StockUpdate
			if err := json.Unmarshal([]byte(msg.Payload), &u); err != nil {
				continue
			}
			onUpdate(u)
		}
	}
}

func (q *QuoteStore) Close() error {
	return q.client.Close()
}
