package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Client wraps a RabbitMQ connection with a single channel and the topology
// declarations the service needs.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Dial connects to RabbitMQ and opens a channel.
func Dial(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	return &Client{conn: conn, channel: channel}, nil
}

// Channel returns the open channel.
func (c *Client) Channel() *amqp.Channel {
	return c.channel
}

// DeclareEventExchange declares the durable topic exchange events are
// published to.
func (c *Client) DeclareEventExchange(exchange string) error {
	err := c.channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return nil
}

// DeclareCommandQueue declares the durable command queue and binds it to its
// exchange.
func (c *Client) DeclareCommandQueue(queue, exchange, routingKey string) error {
	if err := c.DeclareEventExchange(exchange); err != nil {
		return err
	}

	q, err := c.channel.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	if err := c.channel.QueueBind(q.Name, routingKey, exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", queue, err)
	}

	return nil
}

// Close closes the channel and the connection.
func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
