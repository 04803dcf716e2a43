// Package mq publishes JSON messages to a RabbitMQ topic exchange. The
// publisher has an explicit Start/Stop lifecycle and is injected into the
// components that need it; nothing in this package is global.
package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// ErrNotStarted is returned by PublishJSON before Start, after Stop, and
// while a dropped connection is being redialed.
var ErrNotStarted = errors.New("mq: publisher not started")

const maxRetryDelay = 30 * time.Second

// JSONPublisher is the publishing surface shared by the AMQP publisher and Nop.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, v any) error
}

// Publisher publishes persistent JSON messages to a topic exchange. When the
// broker drops the connection it redials with doubling delays until it
// succeeds or Stop is called.
type Publisher struct {
	URL      string
	Exchange string

	// RetryDelay is the first pause between redials. Zero means one second.
	RetryDelay time.Duration

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
	done chan struct{}
	wg   sync.WaitGroup

	open func() (*amqp.Connection, *amqp.Channel, <-chan *amqp.Error, error)
}

// NewPublisher returns a publisher for url/exchange. It does not connect.
func NewPublisher(url, exchange string) *Publisher {
	p := &Publisher{URL: url, Exchange: exchange}
	p.open = p.connect
	return p
}

// Start dials the broker, declares the exchange and watches the connection.
// Calling Start on a running publisher is a no-op.
func (p *Publisher) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return nil
	}

	conn, ch, closed, err := p.open()
	if err != nil {
		return err
	}
	p.conn, p.ch = conn, ch
	p.done = make(chan struct{})
	p.wg.Add(1)
	go p.watch(closed, p.done)
	return nil
}

// connect dials, opens a channel and declares the exchange.
func (p *Publisher) connect() (*amqp.Connection, *amqp.Channel, <-chan *amqp.Error, error) {
	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Dial:      amqp.DefaultDial(5 * time.Second),
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, nil, fmt.Errorf("declare exchange: %w", err)
	}
	return conn, ch, conn.NotifyClose(make(chan *amqp.Error, 1)), nil
}

func (p *Publisher) watch(closed <-chan *amqp.Error, done <-chan struct{}) {
	defer p.wg.Done()
	for {
		select {
		case <-done:
			return
		case reason := <-closed:
			select {
			case <-done:
				return
			default:
			}
			ev := log.Warn()
			if reason != nil {
				ev = ev.Str("reason", reason.Reason).Int("code", reason.Code)
			}
			ev.Msg("rabbitmq connection lost; redialing")

			p.mu.Lock()
			p.conn, p.ch = nil, nil
			p.mu.Unlock()

			if closed = p.redial(done); closed == nil {
				return
			}
		}
	}
}

// redial reconnects until it succeeds or done is closed, in which case it
// returns nil.
func (p *Publisher) redial(done <-chan struct{}) <-chan *amqp.Error {
	delay := p.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	for attempt := 1; ; attempt++ {
		select {
		case <-done:
			return nil
		case <-time.After(delay):
		}

		conn, ch, closed, err := p.open()
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("rabbitmq redial failed")
			if delay *= 2; delay > maxRetryDelay {
				delay = maxRetryDelay
			}
			continue
		}

		p.mu.Lock()
		select {
		case <-done:
			p.mu.Unlock()
			closeQuietly(conn, ch)
			return nil
		default:
		}
		p.conn, p.ch = conn, ch
		p.mu.Unlock()
		log.Info().Int("attempt", attempt).Msg("rabbitmq reconnected")
		return closed
	}
}

// PublishJSON marshals v and publishes it under routingKey.
func (p *Publisher) PublishJSON(ctx context.Context, routingKey string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return ErrNotStarted
	}
	return p.ch.PublishWithContext(ctx, p.Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         b,
	})
}

// Stop ends redialing and closes the channel and connection. It is safe to
// call more than once.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.done != nil {
		close(p.done)
		p.done = nil
	}
	conn, ch := p.conn, p.ch
	p.conn, p.ch = nil, nil
	p.mu.Unlock()

	p.wg.Wait()
	if ch != nil {
		_ = ch.Close()
	}
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func closeQuietly(conn *amqp.Connection, ch *amqp.Channel) {
	if ch != nil {
		_ = ch.Close()
	}
	if conn != nil {
		_ = conn.Close()
	}
}

// Nop discards every message. It is used when no broker is configured.
type Nop struct{}

// PublishJSON drops the message.
func (Nop) PublishJSON(context.Context, string, any) error { return nil }
