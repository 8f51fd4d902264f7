package bus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sony/gobreaker"

	"pos-simulator/internal/metrics"
	"pos-simulator/internal/observability"
)

// KafkaSession publie via le client confluent-kafka-go.
type KafkaSession struct {
	producer *kafka.Producer
	breaker  *gobreaker.CircuitBreaker
	cfg      Config
}

// DialKafka crée un producteur (acks=all, retries, gzip) et vérifie que le
// cluster répond en lisant ses métadonnées.
func DialKafka(ctx context.Context, cfg Config) (Session, error) {
	cfg = cfg.withDefaults()
	if cfg.BootstrapServers == "" {
		return nil, errors.New("bootstrap servers manquants")
	}

	producer, err := kafka.NewProducer(producerConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("création du producteur: %w", err)
	}
	go forwardLogs(producer.Logs(), cfg.Logger)

	if err := probeKafka(ctx, producer, cfg.ProbeTimeout); err != nil {
		producer.Close()
		return nil, err
	}

	s := &KafkaSession{
		producer: producer,
		breaker:  gobreaker.NewCircuitBreaker(cfg.CircuitBreaker),
		cfg:      cfg,
	}
	go s.handleEvents()

	return s, nil
}

// producerConfig renvoie la configuration du producteur ; les journaux de librdkafka
// passent par le canal Logs() au lieu de stderr.
func producerConfig(cfg Config) *kafka.ConfigMap {
	return &kafka.ConfigMap{
		"bootstrap.servers":      cfg.BootstrapServers,
		"client.id":              cfg.ClientID,
		"acks":                   "all",
		"retries":                cfg.Retries,
		"compression.type":       "gzip",
		"go.logs.channel.enable": true,
	}
}

// forwardLogs relaie les journaux de librdkafka vers le logger structuré jusqu'à
// la fermeture du client.
func forwardLogs(logs <-chan kafka.LogEvent, logger *observability.Logger) {
	for entry := range logs {
		metadata := map[string]any{
			"client": entry.Name,
			"tag":    entry.Tag,
			"level":  entry.Level,
		}
		// Niveaux syslog ; le client retente seul, une erreur reste un avertissement.
		if entry.Level <= 4 {
			logger.Warn("librdkafka: "+entry.Message, metadata)
			continue
		}
		logger.Info("librdkafka: "+entry.Message, metadata)
	}
}

func probeKafka(ctx context.Context, producer *kafka.Producer, timeout time.Duration) error {
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return ctx.Err()
	}
	_, err := producer.GetMetadata(nil, false, int(timeout.Milliseconds()))
	if err != nil {
		return classifyKafkaError(err)
	}
	return nil
}

// classifyKafkaError enveloppe les erreurs de transport sous ErrNoBrokers.
func classifyKafkaError(err error) error {
	var kErr kafka.Error
	if errors.As(err, &kErr) {
		switch kErr.Code() {
		case kafka.ErrTransport, kafka.ErrAllBrokersDown, kafka.ErrTimedOut, kafka.ErrResolve:
			return fmt.Errorf("%w: %w", ErrNoBrokers, err)
		}
	}
	return err
}

// Send publie un message et attend le rapport de livraison, protégé par le circuit breaker.
func (s *KafkaSession) Send(ctx context.Context, topic string, key, payload []byte) (Delivery, error) {
	start := time.Now()

	res, err := s.breaker.Execute(func() (interface{}, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		deliveryChan := make(chan kafka.Event, 1)
		msg := &kafka.Message{
			TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
			Key:            key,
			Value:          payload,
			Timestamp:      start,
		}
		if err := s.producer.Produce(msg, deliveryChan); err != nil {
			return nil, err
		}
		return awaitDelivery(ctx, deliveryChan, s.cfg.DeliveryTimeout)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.Default.IncBreakerOpen()
		}
		return Delivery{}, fmt.Errorf("%w: %w", ErrSendFailure, err)
	}

	delivery := res.(Delivery)
	delivery.Latency = time.Since(start)
	return delivery, nil
}

// awaitDelivery attend un rapport de livraison ; le canal doit être bufferisé
// pour qu'un rapport tardif ne bloque pas le client.
func awaitDelivery(ctx context.Context, deliveryChan <-chan kafka.Event, timeout time.Duration) (Delivery, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Delivery{}, ctx.Err()
	case <-timer.C:
		return Delivery{}, fmt.Errorf("aucun acquittement après %s", timeout)
	case evt := <-deliveryChan:
		m, ok := evt.(*kafka.Message)
		if !ok {
			return Delivery{}, fmt.Errorf("événement Kafka inattendu: %v", evt)
		}
		if m.TopicPartition.Error != nil {
			return Delivery{}, m.TopicPartition.Error
		}
		delivery := Delivery{
			Partition: m.TopicPartition.Partition,
			Offset:    int64(m.TopicPartition.Offset),
		}
		if m.TopicPartition.Topic != nil {
			delivery.Topic = *m.TopicPartition.Topic
		}
		return delivery, nil
	}
}

// handleEvents journalise les événements hors livraison (erreurs client, etc.).
func (s *KafkaSession) handleEvents() {
	for evt := range s.producer.Events() {
		switch e := evt.(type) {
		case kafka.Error:
			s.cfg.Logger.Error("Erreur du client Kafka", e, map[string]any{"code": e.Code().String()})
		case *kafka.Message:
			if e.TopicPartition.Error != nil {
				s.cfg.Logger.Error("Livraison échouée", e.TopicPartition.Error, nil)
			}
		}
	}
}

// Close attend l'envoi des messages restants et ferme le producteur.
func (s *KafkaSession) Close() {
	if s == nil || s.producer == nil {
		return
	}
	remaining := s.producer.Flush(int(s.cfg.DeliveryTimeout.Milliseconds()))
	if remaining > 0 {
		s.cfg.Logger.Warn("Messages non livrés à la fermeture", map[string]any{"remaining": remaining})
	}
	s.producer.Close()
}

// NewConsumer crée un consommateur prêt à s'abonner.
func NewConsumer(cfg Config, groupID string, autoOffset string) (*kafka.Consumer, error) {
	cfg = cfg.withDefaults()
	if autoOffset == "" {
		autoOffset = "earliest"
	}

	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":      cfg.BootstrapServers,
		"group.id":               groupID,
		"auto.offset.reset":      autoOffset,
		"client.id":              cfg.ClientID + "-consumer",
		"go.logs.channel.enable": true,
	})
	if err != nil {
		return nil, fmt.Errorf("création du consommateur: %w", err)
	}
	go forwardLogs(consumer.Logs(), cfg.Logger)

	return consumer, nil
}

// IsTimeout indique une lecture sans message.
func IsTimeout(err error) bool {
	var kErr kafka.Error
	return errors.As(err, &kErr) && kErr.Code() == kafka.ErrTimedOut
}
