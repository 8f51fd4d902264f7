/*
pos-producer simule une caisse enregistreuse : il génère en continu des transactions
de point de vente et les publie sur un topic Kafka, avec environ 2 % d'enregistrements
volontairement corrompus pour éprouver les contrôles qualité en aval.

Cycle de vie :
 1. Charge la configuration (.env, variables d'environnement, flags).
 2. Établit la session Kafka avec un nombre borné de tentatives.
 3. Boucle génération → envoi synchrone → attente aléatoire.
 4. Sur SIGINT/SIGTERM, vide les envois en attente et ferme la session.
*/
package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pos-simulator/internal/bus"
	"pos-simulator/internal/catalog"
	"pos-simulator/internal/config"
	"pos-simulator/internal/metrics"
	"pos-simulator/internal/observability"
	"pos-simulator/internal/producer"
	"pos-simulator/internal/transaction"
)

func main() {
	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:          "pos-producer",
		Short:        "Simulateur de transactions de point de vente publiées sur Kafka",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cfg)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&cfg.BootstrapServers, "brokers", cfg.BootstrapServers, "adresse(s) du broker Kafka")
	flags.StringVar(&cfg.Topic, "topic", cfg.Topic, "topic de publication")
	flags.StringVar(&cfg.Client, "client", cfg.Client, "client Kafka: confluent ou kafka-go")
	flags.IntVar(&cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "tentatives de connexion")
	flags.DurationVar(&cfg.RetryDelay, "retry-delay", cfg.RetryDelay, "attente entre deux tentatives")
	flags.DurationVar(&cfg.SendTimeout, "send-timeout", cfg.SendTimeout, "attente maximale d'un acquittement")
	flags.DurationVar(&cfg.MinDelay, "min-delay", cfg.MinDelay, "attente minimale entre deux envois")
	flags.DurationVar(&cfg.MaxDelay, "max-delay", cfg.MaxDelay, "attente maximale entre deux envois")
	flags.BoolVar(&cfg.CreateTopic, "create-topic", cfg.CreateTopic, "crée le topic au démarrage s'il n'existe pas")
	flags.StringVar(&cfg.MetricsPort, "metrics-port", cfg.MetricsPort, "port HTTP des métriques (vide pour désactiver)")
	flags.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "fichier de logs JSON")
	flags.StringVar(&cfg.EventsFile, "events-file", cfg.EventsFile, "fichier de piste d'audit des envois")
	flags.Int64Var(&cfg.Seed, "seed", cfg.Seed, "graine aléatoire (0: horloge)")
	flags.IntVar(&cfg.MaxRecords, "max-records", cfg.MaxRecords, "arrêt après N enregistrements (0: illimité)")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration invalide: %w", err)
	}

	logger, err := observability.NewStdLogger("pos-producer", cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Close()

	var audit *observability.Logger
	if cfg.EventsFile != "" {
		audit, err = observability.NewFileLogger("pos-producer", cfg.EventsFile)
		if err != nil {
			return err
		}
		defer audit.Close()
	}

	var metricsServer *http.Server
	if cfg.MetricsPort != "" {
		metricsServer = metrics.StartServer(":" + cfg.MetricsPort)
		defer metrics.Shutdown(context.Background(), metricsServer)
	}

	busCfg := bus.Config{
		ClientID:        cfg.ClientID,
		DeliveryTimeout: cfg.SendTimeout,
		Logger:          logger,
	}
	dial := bus.DialKafka
	if cfg.Client == config.ClientKafkaGo {
		dial = bus.DialWriter
	}

	connector := bus.NewConnector(busCfg, dial, logger)
	connector.MaxAttempts = cfg.MaxAttempts
	connector.RetryDelay = cfg.RetryDelay

	session, err := connector.Establish(ctx, cfg.BootstrapServers)
	if err != nil {
		logger.Error("Démarrage impossible", err, map[string]any{"address": cfg.BootstrapServers})
		return err
	}
	defer func() {
		logger.Info("Arrêt : envoi des messages restants puis fermeture", nil)
		session.Close()
	}()

	if cfg.CreateTopic {
		topicCtx, cancel := context.WithTimeout(ctx, cfg.SendTimeout)
		err := bus.EnsureTopic(topicCtx, cfg.BootstrapServers, cfg.Topic, 1, 1)
		cancel()
		if err != nil {
			logger.Warn("Création du topic impossible", map[string]any{"topic": cfg.Topic, "error": err.Error()})
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	runner := &producer.Runner{
		Session:     session,
		Generator:   transaction.NewGenerator(catalog.Default(), rng),
		Topic:       cfg.Topic,
		SendTimeout: cfg.SendTimeout,
		MinDelay:    cfg.MinDelay,
		MaxDelay:    cfg.MaxDelay,
		MaxRecords:  cfg.MaxRecords,
		Rand:        rng,
		Logger:      logger,
		Audit:       audit,
		Metrics:     metrics.Default,
	}

	return runner.Run(ctx)
}
