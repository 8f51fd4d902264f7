/*
pos-inspector lit le topic des transactions et classe chaque message : propre ou
porteur de violations de schéma (champ manquant, null, type invalide, etc.).
Il sert à vérifier de bout en bout ce que le simulateur publie.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"pos-simulator/internal/bus"
	"pos-simulator/internal/catalog"
	"pos-simulator/internal/config"
	"pos-simulator/internal/metrics"
	"pos-simulator/internal/observability"
	"pos-simulator/internal/quality"
)

func main() {
	cfg := config.Load()
	groupID := "pos-inspector"
	fromStart := true

	rootCmd := &cobra.Command{
		Use:          "pos-inspector",
		Short:        "Contrôle qualité des transactions publiées sur Kafka",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			offset := "latest"
			if fromStart {
				offset = "earliest"
			}
			return run(cmd.Context(), cfg, groupID, offset)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&cfg.BootstrapServers, "brokers", cfg.BootstrapServers, "adresse(s) du broker Kafka")
	flags.StringVar(&cfg.Topic, "topic", cfg.Topic, "topic à inspecter")
	flags.StringVar(&groupID, "group", groupID, "groupe de consommateurs")
	flags.BoolVar(&fromStart, "from-beginning", fromStart, "lit le topic depuis le début")
	flags.StringVar(&cfg.MetricsPort, "metrics-port", cfg.MetricsPort, "port HTTP des métriques (vide pour désactiver)")
	flags.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "fichier de logs JSON")
	flags.StringVar(&cfg.EventsFile, "events-file", cfg.EventsFile, "fichier de piste d'audit des messages lus")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, groupID, offset string) error {
	logger, err := observability.NewStdLogger("pos-inspector", cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Close()

	var audit *observability.Logger
	if cfg.EventsFile != "" {
		audit, err = observability.NewFileLogger("pos-inspector", cfg.EventsFile)
		if err != nil {
			return err
		}
		defer audit.Close()
	}

	if cfg.MetricsPort != "" {
		server := metrics.StartServer(":" + cfg.MetricsPort)
		defer metrics.Shutdown(context.Background(), server)
	}

	consumer, err := bus.NewConsumer(bus.Config{
		BootstrapServers: cfg.BootstrapServers,
		ClientID:         "pos-inspector",
		Logger:           logger,
	}, groupID, offset)
	if err != nil {
		logger.Error("Création du consommateur impossible", err, nil)
		return err
	}
	defer consumer.Close()

	if err := consumer.SubscribeTopics([]string{cfg.Topic}, nil); err != nil {
		logger.Error("Abonnement impossible", err, map[string]any{"topic": cfg.Topic})
		return err
	}

	logger.Info("Inspection démarrée", map[string]any{"topic": cfg.Topic, "group": groupID})

	ref := catalog.Default()
	counts := map[bool]int64{}

	for ctx.Err() == nil {
		msg, err := consumer.ReadMessage(500 * time.Millisecond)
		if err != nil {
			if bus.IsTimeout(err) {
				continue
			}
			logger.Error("Lecture Kafka impossible", err, nil)
			continue
		}

		report := inspect(msg, ref, logger, audit)
		metrics.Default.IncConsumed()
		counts[report.Clean()]++
	}

	logger.Info("Inspection arrêtée", map[string]any{
		"clean":   counts[true],
		"corrupt": counts[false],
	})
	return nil
}

// inspect classe un message, l'inscrit dans la piste d'audit et journalise les violations.
func inspect(msg *kafka.Message, ref catalog.Catalog, logger, audit *observability.Logger) quality.Report {
	report := quality.Classify(msg.Value, ref)

	event := observability.EventEntry{
		EventType:      "record.received",
		KafkaPartition: msg.TopicPartition.Partition,
		KafkaOffset:    int64(msg.TopicPartition.Offset),
		RawMessage:     string(msg.Value),
		Delivered:      true,
		Issues:         report.Strings(),
	}
	if msg.TopicPartition.Topic != nil {
		event.KafkaTopic = *msg.TopicPartition.Topic
	}
	if json.Valid(msg.Value) {
		event.Record = json.RawMessage(msg.Value)
	}
	if !report.Clean() {
		event.EventType = "record.received.invalid"
	}
	audit.LogEvent(event)

	if report.Clean() {
		logger.Info("Transaction conforme", map[string]any{"offset": event.KafkaOffset})
		return report
	}

	logger.Warn("Transaction non conforme", map[string]any{
		"offset":     event.KafkaOffset,
		"violations": report.Strings(),
		"raw":        string(msg.Value),
	})
	return report
}
