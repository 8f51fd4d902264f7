package bus

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"

	"pos-simulator/internal/metrics"
)

// WriterSession publie via le client pur Go segmentio/kafka-go.
// Le writer n'expose pas les offsets : Delivery.Partition et Delivery.Offset valent -1.
type WriterSession struct {
	writer  *kafkago.Writer
	breaker *gobreaker.CircuitBreaker
	cfg     Config
}

// DialWriter vérifie qu'un broker accepte une connexion TCP Kafka puis prépare
// un writer synchrone (RequireAll, MaxAttempts, gzip).
func DialWriter(ctx context.Context, cfg Config) (Session, error) {
	cfg = cfg.withDefaults()
	brokers := cfg.brokers()
	if len(brokers) == 0 {
		return nil, errors.New("bootstrap servers manquants")
	}

	probeCtx, cancel := context.WithTimeout(ctx, cfg.ProbeTimeout)
	defer cancel()

	conn, err := kafkago.DialContext(probeCtx, "tcp", brokers[0])
	if err != nil {
		return nil, classifyDialError(err)
	}
	_ = conn.Close()

	return &WriterSession{
		writer:  newWriter(cfg, brokers),
		breaker: gobreaker.NewCircuitBreaker(cfg.CircuitBreaker),
		cfg:     cfg,
	}, nil
}

// newWriter prépare un writer synchrone ; MaxAttempts compte l'envoi initial en plus des retries.
// Le topic est créé à la première écriture s'il n'existe pas.
func newWriter(cfg Config, brokers []string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Balancer:               &kafkago.LeastBytes{},
		RequiredAcks:           kafkago.RequireAll,
		MaxAttempts:            cfg.Retries + 1,
		Compression:            kafkago.Gzip,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           cfg.DeliveryTimeout,
		AllowAutoTopicCreation: true,
		Transport:              &kafkago.Transport{ClientID: cfg.ClientID},
	}
}

// classifyDialError enveloppe les erreurs réseau sous ErrNoBrokers.
func classifyDialError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrNoBrokers, err)
	}
	return err
}

// Send écrit le message de façon synchrone ; WriteMessages ne rend la main
// qu'après l'acquittement de tous les réplicas.
func (s *WriterSession) Send(ctx context.Context, topic string, key, payload []byte) (Delivery, error) {
	start := time.Now()

	_, err := s.breaker.Execute(func() (interface{}, error) {
		sendCtx, cancel := context.WithTimeout(ctx, s.cfg.DeliveryTimeout)
		defer cancel()
		return nil, s.writer.WriteMessages(sendCtx, kafkago.Message{
			Topic: topic,
			Key:   key,
			Value: payload,
			Time:  start,
		})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.Default.IncBreakerOpen()
		}
		return Delivery{}, fmt.Errorf("%w: %w", ErrSendFailure, err)
	}

	return Delivery{Topic: topic, Partition: -1, Offset: -1, Latency: time.Since(start)}, nil
}

// Close vide le writer.
func (s *WriterSession) Close() {
	if s == nil || s.writer == nil {
		return
	}
	if err := s.writer.Close(); err != nil {
		s.cfg.Logger.Error("Fermeture du writer Kafka impossible", err, nil)
	}
}
