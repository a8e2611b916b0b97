package events

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// StockChangedChannel is the pub/sub channel carrying stock level updates.
// Dashboard and store clients subscribe to it for live inventory views.
const StockChangedChannel = "inventory.stock-changed"

// StockChangedEvent is the payload published whenever a stock row changes
type StockChangedEvent struct {
	LocationID uuid.UUID `json:"location_id"`
	ProductID  uuid.UUID `json:"product_id"`
	Quantity   int       `json:"quantity"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RedisPublisher broadcasts domain events over Redis pub/sub
type RedisPublisher struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisPublisher creates a publisher on an existing Redis connection
func NewRedisPublisher(client *redis.Client, logger zerolog.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, logger: logger}
}

// PublishStockChanged announces the new quantity of one product at one location
func (p *RedisPublisher) PublishStockChanged(ctx context.Context, locationID, productID uuid.UUID, quantity int) error {
	event := StockChangedEvent{
		LocationID: locationID,
		ProductID:  productID,
		Quantity:   quantity,
		OccurredAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.client.Publish(ctx, StockChangedChannel, payload).Err(); err != nil {
		return err
	}

	p.logger.Debug().
		Str("product_id", productID.String()).
		Int("quantity", quantity).
		Msg("stock change published")
	return nil
}
