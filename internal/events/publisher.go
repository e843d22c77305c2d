package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/mailramp/mailramp-backend/internal/logger"
)

// OutcomeEvent is emitted after every dispatch attempt, successful or not.
type OutcomeEvent struct {
	ID         string    `json:"id"`
	CampaignID string    `json:"campaign_id"`
	StepOrder  int       `json:"step_order"`
	Recipient  string    `json:"recipient"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers send outcomes to interested consumers. Publishing is
// best effort: a broker outage never blocks or fails a dispatch pass.
type Publisher interface {
	PublishOutcome(event OutcomeEvent)
	Close() error
}

// AMQPPublisher publishes outcome events to a durable queue.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	log     *logger.Logger
}

func NewAMQPPublisher(url, queue string, log *logger.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &AMQPPublisher{
		conn:    conn,
		channel: ch,
		queue:   queue,
		log:     log.WithComponent("events"),
	}, nil
}

func (p *AMQPPublisher) PublishOutcome(event OutcomeEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.log.Error().Err(err).Msg("failed to encode outcome event")
		return
	}

	err = p.channel.Publish("", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		p.log.Warn().Err(err).Str("campaign_id", event.CampaignID).Msg("failed to publish outcome event")
	}
}

func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

var _ Publisher = (*AMQPPublisher)(nil)
