package producer

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"pos-simulator/internal/bus"
	"pos-simulator/internal/metrics"
	"pos-simulator/internal/observability"
	"pos-simulator/internal/transaction"
)

// RandSource fournit le tirage de l'attente entre deux envois.
type RandSource interface {
	Int63n(n int64) int64
}

// Runner enchaîne génération, envoi synchrone et attente aléatoire.
type Runner struct {
	Session   bus.Session
	Generator *transaction.Generator
	Topic     string
	// SendTimeout borne l'attente de l'acquittement de chaque enregistrement.
	SendTimeout time.Duration
	MinDelay    time.Duration
	MaxDelay    time.Duration
	// MaxRecords arrête la boucle après N enregistrements ; 0 pour tourner indéfiniment.
	MaxRecords int
	Rand       RandSource
	Logger     *observability.Logger
	Audit      *observability.Logger
	Metrics    *metrics.Counters
	Sleep      func(ctx context.Context, d time.Duration) error
}

// Run boucle jusqu'à l'annulation de ctx (ou MaxRecords). Un échec d'envoi est
// journalisé puis la boucle continue ; Run ne renvoie jamais d'erreur d'envoi.
func (r *Runner) Run(ctx context.Context) error {
	counters := r.Metrics
	if counters == nil {
		counters = metrics.Default
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	r.Logger.Info("Démarrage du simulateur de points de vente", map[string]any{
		"topic": r.Topic,
	})

	for sent := 0; r.MaxRecords == 0 || sent < r.MaxRecords; sent++ {
		if ctx.Err() != nil {
			return nil
		}

		r.publish(ctx, counters)
		if r.MaxRecords > 0 && sent+1 >= r.MaxRecords {
			break
		}

		if err := sleep(ctx, r.nextDelay()); err != nil {
			return nil
		}
	}
	return nil
}

func (r *Runner) publish(ctx context.Context, counters *metrics.Counters) {
	rec := r.Generator.Generate()
	counters.IncGenerated(string(rec.Corruption))

	payload, err := rec.Encode()
	if err != nil {
		counters.IncSendFailed()
		r.Logger.Error("Sérialisation impossible", err, map[string]any{"corruption": rec.Corruption.String()})
		return
	}

	// Un arrêt en cours d'envoi laisse l'acquittement aboutir : Close vide ensuite la file.
	sendCtx := context.WithoutCancel(ctx)
	if r.SendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(sendCtx, r.SendTimeout)
		defer cancel()
	}

	delivery, err := r.Session.Send(sendCtx, r.Topic, rec.Key(), payload)

	event := observability.EventEntry{
		EventType:      "record.sent",
		KafkaTopic:     r.Topic,
		KafkaPartition: delivery.Partition,
		KafkaOffset:    delivery.Offset,
		RawMessage:     string(payload),
		Corruption:     rec.Corruption.String(),
		Delivered:      err == nil,
		Record:         json.RawMessage(payload),
	}

	if err != nil {
		counters.IncSendFailed()
		event.EventType = "record.failed"
		event.Error = err.Error()
		r.Audit.LogEvent(event)
		r.Logger.Error("Échec d'envoi", err, map[string]any{
			"topic":      r.Topic,
			"corruption": rec.Corruption.String(),
		})
		return
	}

	counters.IncSent()
	counters.ObserveLatency(r.Topic, delivery.Latency)
	r.Audit.LogEvent(event)
	r.Logger.Info("Envoyé", map[string]any{
		"topic":      r.Topic,
		"partition":  delivery.Partition,
		"offset":     delivery.Offset,
		"corruption": rec.Corruption.String(),
		"record":     rec.Map(),
	})
}

// nextDelay tire une attente uniforme dans [MinDelay, MaxDelay].
func (r *Runner) nextDelay() time.Duration {
	span := r.MaxDelay - r.MinDelay
	if span <= 0 || r.Rand == nil {
		return r.MinDelay
	}
	return r.MinDelay + time.Duration(r.Rand.Int63n(int64(span)+1))
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
