package publisher

import (
	"context"
	"encoding/json"

	errwrap "github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/rahmatrdn/go-sql-dashboard/entity"
)

// Publisher delivers workspace summaries somewhere outside the process.
type Publisher interface {
	Publish(ctx context.Context, summaries []entity.WorkspaceSummary) error
	Close() error
}

// LogPublisher writes each summary as a structured log line.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, summaries []entity.WorkspaceSummary) error {
	for _, s := range summaries {
		fields := []zap.Field{
			zap.String("workspace", s.Workspace),
			zap.Time("window_start", s.WindowStart),
		}
		if s.Error != "" {
			p.log.Warn("workspace summary", append(fields, zap.String("error", s.Error))...)
			continue
		}
		if s.Stats != nil {
			fields = append(fields,
				zap.Int64("total", s.Stats.Total),
				zap.Int64("failed", s.Stats.Failed),
				zap.Int64("slow", s.Stats.Slow))
			if s.Stats.FailedRate != nil {
				fields = append(fields, zap.Float64("failed_rate", *s.Stats.FailedRate))
			}
		}
		p.log.Info("workspace summary", fields...)
	}
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// amqpChannel is the part of *amqp.Channel the publisher uses.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher sends one JSON message per summary to a fanout exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
}

// DialAMQP connects to url and declares exchange as a durable fanout.
func DialAMQP(url, exchange string) (*AMQPPublisher, error) {
	funcName := "publisher.DialAMQP"

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errwrap.Wrap(err, funcName)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errwrap.Wrap(err, funcName)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errwrap.Wrapf(err, "%s: declare exchange %s", funcName, exchange)
	}

	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

func newAMQPPublisher(ch amqpChannel, exchange string) *AMQPPublisher {
	return &AMQPPublisher{channel: ch, exchange: exchange}
}

func (p *AMQPPublisher) Publish(ctx context.Context, summaries []entity.WorkspaceSummary) error {
	funcName := "AMQPPublisher.Publish"

	for _, s := range summaries {
		body, err := json.Marshal(s)
		if err != nil {
			return errwrap.Wrap(err, funcName)
		}
		msg := amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    s.GeneratedAt,
			Type:         "workspace.summary",
			Body:         body,
		}
		if err := p.channel.PublishWithContext(ctx, p.exchange, s.Workspace, false, false, msg); err != nil {
			return errwrap.Wrapf(err, "%s: workspace %s", funcName, s.Workspace)
		}
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	err := p.channel.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Multi publishes to every publisher and returns the first error.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, summaries []entity.WorkspaceSummary) error {
	var firstErr error
	for _, p := range m {
		if err := p.Publish(ctx, summaries); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m Multi) Close() error {
	var firstErr error
	for _, p := range m {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
