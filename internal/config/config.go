package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	ClientConfluent = "confluent"
	ClientKafkaGo   = "kafka-go"
)

// Config regroupe les paramètres du simulateur de point de vente.
type Config struct {
	BootstrapServers string
	Topic            string
	Client           string
	ClientID         string
	MaxAttempts      int
	RetryDelay       time.Duration
	SendTimeout      time.Duration
	MinDelay         time.Duration
	MaxDelay         time.Duration
	CreateTopic      bool
	MetricsPort      string
	LogFile          string
	EventsFile       string
	// Seed vaut 0 pour une graine dérivée de l'horloge.
	Seed       int64
	MaxRecords int
}

// Load lit un éventuel fichier .env puis les variables d'environnement.
func Load(envFiles ...string) Config {
	// .env absent : ce n'est pas une erreur.
	_ = godotenv.Load(envFiles...)

	return Config{
		BootstrapServers: getEnv("KAFKA_BOOTSTRAP_SERVERS", "kafka:9092"),
		Topic:            getEnv("POS_TOPIC", "transactions"),
		Client:           getEnv("POS_CLIENT", ClientConfluent),
		ClientID:         getEnv("POS_CLIENT_ID", "pos-producer"),
		MaxAttempts:      getEnvInt("POS_MAX_ATTEMPTS", 5),
		RetryDelay:       getEnvDuration("POS_RETRY_DELAY", 5*time.Second),
		SendTimeout:      getEnvDuration("POS_SEND_TIMEOUT", 10*time.Second),
		MinDelay:         getEnvDuration("POS_MIN_DELAY", 500*time.Millisecond),
		MaxDelay:         getEnvDuration("POS_MAX_DELAY", time.Second),
		CreateTopic:      getEnvBool("POS_CREATE_TOPIC", false),
		MetricsPort:      getEnv("POS_METRICS_PORT", ""),
		LogFile:          getEnv("POS_LOG_FILE", ""),
		EventsFile:       getEnv("POS_EVENTS_FILE", ""),
		Seed:             int64(getEnvInt("POS_SEED", 0)),
		MaxRecords:       getEnvInt("POS_MAX_RECORDS", 0),
	}
}

// Validate vérifie la cohérence de la configuration.
func (c Config) Validate() error {
	var errs []error
	if c.BootstrapServers == "" {
		errs = append(errs, errors.New("KAFKA_BOOTSTRAP_SERVERS vide"))
	}
	if c.Topic == "" {
		errs = append(errs, errors.New("topic vide"))
	}
	if c.Client != ClientConfluent && c.Client != ClientKafkaGo {
		errs = append(errs, fmt.Errorf("client %q inconnu (attendu %s ou %s)", c.Client, ClientConfluent, ClientKafkaGo))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("nombre de tentatives invalide: %d", c.MaxAttempts))
	}
	if c.RetryDelay < 0 || c.SendTimeout <= 0 {
		errs = append(errs, errors.New("délais de connexion ou d'envoi invalides"))
	}
	if c.MinDelay < 0 || c.MaxDelay < c.MinDelay {
		errs = append(errs, fmt.Errorf("bornes d'attente invalides: %s > %s", c.MinDelay, c.MaxDelay))
	}
	if c.MaxRecords < 0 {
		errs = append(errs, fmt.Errorf("nombre maximal d'enregistrements invalide: %d", c.MaxRecords))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvDuration accepte une durée Go ("750ms") ou un nombre de secondes ("5").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return fallback
}
