package bus

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"
)

// EnsureTopic crée topic sur le contrôleur du cluster s'il n'existe pas encore.
func EnsureTopic(ctx context.Context, address, topic string, partitions, replication int) error {
	brokers := Config{BootstrapServers: address}.brokers()
	if len(brokers) == 0 {
		return errors.New("bootstrap servers manquants")
	}

	conn, err := kafkago.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return classifyDialError(err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("lecture du contrôleur: %w", err)
	}

	ctrlConn, err := kafkago.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return classifyDialError(err)
	}
	defer ctrlConn.Close()

	err = ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: replication,
	})
	if err != nil && !errors.Is(err, kafkago.TopicAlreadyExists) {
		return fmt.Errorf("création du topic %s: %w", topic, err)
	}
	return nil
}
