package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/commercebox/quintal-core/internal/application/alerts"
	"github.com/commercebox/quintal-core/internal/domain/entity"
)

var _ alerts.AlertPublisher = (*AlertPublisher)(nil)

// AlertPublisher publica alertas de stock en un tópico Kafka para consumidores
// externos (notificaciones, dashboards). Particiona por producto: las alertas
// de un mismo producto conservan su orden relativo.
type AlertPublisher struct {
	writer *kafka.Writer
}

// NewAlertPublisher construye el publicador sobre los brokers y tópico dados.
func NewAlertPublisher(brokers []string, topic string) *AlertPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Snappy,
	}
	return &AlertPublisher{writer: writer}
}

// AlertEvent payload publicado por cada alerta.
type AlertEvent struct {
	AlertID   string    `json:"alert_id"`
	ProductID string    `json:"product_id"`
	LotID     string    `json:"lot_id,omitempty"`
	Kind      string    `json:"kind"`
	Priority  string    `json:"priority"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// PublishAlert serializa y publica la alerta.
func (p *AlertPublisher) PublishAlert(ctx context.Context, alert *entity.Alert) error {
	event := AlertEvent{
		AlertID:   alert.ID,
		ProductID: alert.ProductID,
		LotID:     alert.LotID,
		Kind:      alert.Kind,
		Priority:  alert.Priority,
		Title:     alert.Title,
		Message:   alert.Message,
		Timestamp: alert.CreatedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal alert event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(alert.ProductID),
		Value: payload,
		Time:  alert.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(alert.Kind)},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("publish alert event: %w", err)
	}
	return nil
}

// Close cierra el writer.
func (p *AlertPublisher) Close() error {
	return p.writer.Close()
}
