package bus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"pos-simulator/internal/metrics"
	"pos-simulator/internal/observability"
)

const (
	DefaultMaxAttempts = 5
	DefaultRetryDelay  = 5 * time.Second
)

// Config regroupe les paramètres d'accès à Kafka.
type Config struct {
	BootstrapServers string
	ClientID         string
	// DeliveryTimeout borne l'attente de l'acquittement d'un message et le flush final.
	DeliveryTimeout time.Duration
	// ProbeTimeout borne la vérification de joignabilité à l'établissement.
	ProbeTimeout   time.Duration
	Retries        int
	CircuitBreaker gobreaker.Settings
	Logger         *observability.Logger
}

func (cfg Config) withDefaults() Config {
	if cfg.ClientID == "" {
		cfg.ClientID = "pos-producer"
	}
	if cfg.DeliveryTimeout == 0 {
		cfg.DeliveryTimeout = 10 * time.Second
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if cfg.Retries == 0 {
		cfg.Retries = 3
	}
	if cfg.CircuitBreaker.Name == "" {
		cfg.CircuitBreaker = gobreaker.Settings{
			Name:        "kafka_producer_breaker",
			MaxRequests: 5,
			Interval:    30 * time.Second,
			Timeout:     10 * time.Second,
		}
	}
	return cfg
}

func (cfg Config) brokers() []string {
	var out []string
	for _, b := range strings.Split(cfg.BootstrapServers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Delivery décrit l'acquittement d'un message par le broker.
// Partition et Offset valent -1 quand le client ne les expose pas.
type Delivery struct {
	Topic     string
	Partition int32
	Offset    int64
	Latency   time.Duration
}

// Session est une session de publication vivante.
type Session interface {
	// Send publie payload et attend l'acquittement.
	Send(ctx context.Context, topic string, key, payload []byte) (Delivery, error)
	// Close vide les envois en attente puis libère la session.
	Close()
}

// DialFunc crée une session ; elle renvoie une erreur enveloppant ErrNoBrokers
// quand le broker est injoignable.
type DialFunc func(ctx context.Context, cfg Config) (Session, error)

// Connector établit une session avec un nombre borné de tentatives.
type Connector struct {
	Config      Config
	MaxAttempts int
	RetryDelay  time.Duration
	Dial        DialFunc
	Sleep       func(ctx context.Context, d time.Duration) error
	Logger      *observability.Logger
}

// NewConnector renvoie un Connector avec 5 tentatives espacées de 5 secondes.
func NewConnector(cfg Config, dial DialFunc, logger *observability.Logger) *Connector {
	return &Connector{
		Config:      cfg,
		MaxAttempts: DefaultMaxAttempts,
		RetryDelay:  DefaultRetryDelay,
		Dial:        dial,
		Sleep:       sleepContext,
		Logger:      logger,
	}
}

// Establish tente de se connecter à address. Seule l'indisponibilité du broker
// (ErrNoBrokers) déclenche une nouvelle tentative après RetryDelay ; toute autre
// erreur est renvoyée immédiatement sous ErrUnexpectedConnection.
func (c *Connector) Establish(ctx context.Context, address string) (Session, error) {
	maxAttempts := c.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := c.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	cfg := c.Config
	cfg.BootstrapServers = address

	for attempt := 1; ; attempt++ {
		metrics.Default.IncConnectAttempts()

		session, err := c.Dial(ctx, cfg)
		if err == nil {
			c.Logger.Info("Connexion au broker Kafka établie", map[string]any{
				"address": address,
				"attempt": attempt,
			})
			return session, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		if !errors.Is(err, ErrNoBrokers) {
			c.Logger.Error("Erreur inattendue lors de la création du producteur", err, map[string]any{
				"address": address,
				"attempt": attempt,
			})
			return nil, fmt.Errorf("%w: %w", ErrUnexpectedConnection, err)
		}

		c.Logger.Warn(fmt.Sprintf("Tentative %d/%d échouée", attempt, maxAttempts), map[string]any{
			"address": address,
			"error":   err.Error(),
		})

		if attempt >= maxAttempts {
			c.Logger.Error("Échec de connexion à Kafka après toutes les tentatives", err, map[string]any{
				"address":  address,
				"attempts": maxAttempts,
			})
			return nil, fmt.Errorf("%w après %d tentatives: %w", ErrConnectionExhausted, maxAttempts, err)
		}

		if err := sleep(ctx, c.RetryDelay); err != nil {
			return nil, err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
