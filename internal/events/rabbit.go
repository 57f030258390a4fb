package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"grimaldi/internal/log"
)

const (
	reconnectDelay = 5 * time.Second
	publishTimeout = 10 * time.Second
	mailboxSize    = 64
)

var (
	// ErrClosed is returned by Publish after Close.
	ErrClosed = errors.New("events: publisher closed")
	// ErrMailboxFull is returned when the broker is unreachable long enough
	// for the mailbox to fill up.
	ErrMailboxFull = errors.New("events: mailbox full")
)

// RabbitPublisher is an actor that owns one AMQP connection. Publish only
// enqueues; a single goroutine dials, declares the queue, publishes and
// reconnects after failures.
type RabbitPublisher struct {
	addr      string
	queueName string
	delay     time.Duration

	mailbox chan []byte
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once

	conn            *amqp.Connection
	channel         *amqp.Channel
	notifyConnClose chan *amqp.Error
	notifyChanClose chan *amqp.Error

	logger *slog.Logger
}

// NewRabbitPublisher starts the actor. The first connection attempt happens
// in the background, so a missing broker does not block startup.
func NewRabbitPublisher(addr, queueName string) *RabbitPublisher {
	return newRabbitPublisher(addr, queueName, reconnectDelay)
}

func newRabbitPublisher(addr, queueName string, delay time.Duration) *RabbitPublisher {
	p := &RabbitPublisher{
		addr:      addr,
		queueName: queueName,
		delay:     delay,
		mailbox:   make(chan []byte, mailboxSize),
		done:      make(chan struct{}),
		logger:    log.With("component", "rabbitmq", "queue", queueName),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

// Publish enqueues the event for delivery.
func (p *RabbitPublisher) Publish(ctx context.Context, e AnalysisCompleted) error {
	body, err := e.Encode()
	if err != nil {
		return err
	}

	select {
	case <-p.done:
		return ErrClosed
	default:
	}

	select {
	case p.mailbox <- body:
		return nil
	case <-p.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrMailboxFull
	}
}

// Close stops the actor and closes the connection. Events still in the
// mailbox are dropped.
func (p *RabbitPublisher) Close() error {
	p.once.Do(func() { close(p.done) })
	p.wg.Wait()
	return nil
}

func (p *RabbitPublisher) run() {
	defer p.wg.Done()
	defer p.disconnect()

	var pending []byte
	for {
		if p.channel == nil {
			if err := p.connect(); err != nil {
				p.logger.Warn("rabbitmq недоступен", "error", err, "retry_in", p.delay)
				if !p.sleep() {
					return
				}
				continue
			}
		}

		if pending == nil {
			select {
			case <-p.done:
				return
			case err := <-p.notifyConnClose:
				p.logger.Warn("соединение закрыто", "error", err)
				p.reset()
				continue
			case err := <-p.notifyChanClose:
				p.logger.Warn("канал закрыт", "error", err)
				p.reset()
				continue
			case pending = <-p.mailbox:
			}
		}

		if err := p.push(pending); err != nil {
			p.logger.Warn("ошибка публикации", "error", err)
			p.reset()
			if !p.sleep() {
				return
			}
			continue
		}
		pending = nil
	}
}

func (p *RabbitPublisher) connect() error {
	conn, err := amqp.Dial(p.addr)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	_, err = ch.QueueDeclare(
		p.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return err
	}

	p.conn = conn
	p.channel = ch
	p.notifyConnClose = conn.NotifyClose(make(chan *amqp.Error, 1))
	p.notifyChanClose = ch.NotifyClose(make(chan *amqp.Error, 1))
	p.logger.Info("подключено к rabbitmq")
	return nil
}

func (p *RabbitPublisher) push(body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	return p.channel.PublishWithContext(ctx,
		"",          // exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         TypeAnalysisCompleted,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// sleep waits for the reconnect delay; false means the actor is closing.
func (p *RabbitPublisher) sleep() bool {
	t := time.NewTimer(p.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-p.done:
		return false
	}
}

func (p *RabbitPublisher) reset() {
	p.disconnect()
	p.channel = nil
	p.conn = nil
}

func (p *RabbitPublisher) disconnect() {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			p.logger.Debug("ошибка закрытия канала", "error", err)
		}
	}
	if p.conn != nil && !p.conn.IsClosed() {
		if err := p.conn.Close(); err != nil {
			p.logger.Debug("ошибка закрытия соединения", "error", err)
		}
	}
}
