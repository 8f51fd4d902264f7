package observability

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/TylerBrock/colorjson"
	"github.com/goccy/go-json"
	"golang.org/x/term"
)

// LogLevel définit les niveaux de sévérité pour les logs structurés.
type LogLevel string

const (
	LogLevelINFO  LogLevel = "INFO"
	LogLevelWARN  LogLevel = "WARN"
	LogLevelERROR LogLevel = "ERROR"
)

// LogEntry est une ligne de log système, un objet JSON par ligne.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     LogLevel       `json:"level"`
	Message   string         `json:"message"`
	Service   string         `json:"service"`
	Error     string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// EventEntry est une entrée de la piste d'audit : une par tentative de publication
// côté producteur, une par message lu côté inspecteur.
type EventEntry struct {
	Timestamp      string          `json:"timestamp"`
	EventType      string          `json:"event_type"`
	KafkaTopic     string          `json:"kafka_topic"`
	KafkaPartition int32           `json:"kafka_partition"`
	KafkaOffset    int64           `json:"kafka_offset"`
	RawMessage     string          `json:"raw_message"`
	MessageSize    int             `json:"message_size"`
	Corruption     string          `json:"corruption,omitempty"`
	Delivered      bool            `json:"delivered"`
	Error          string          `json:"error,omitempty"`
	Issues         []string        `json:"issues,omitempty"`
	Record         json.RawMessage `json:"record,omitempty"`
}

type sink struct {
	w       io.Writer
	console bool
}

// Logger gère l'écriture concurrente de logs structurés vers un ou plusieurs flux.
type Logger struct {
	mu      sync.Mutex
	service string
	sinks   []sink
	file    *os.File
}

// NewLogger crée un logger JSON écrivant dans w.
func NewLogger(service string, w io.Writer) *Logger {
	return &Logger{service: service, sinks: []sink{{w: w}}}
}

// NewConsoleLogger crée un logger lisible par un humain écrivant dans w.
func NewConsoleLogger(service string, w io.Writer) *Logger {
	return &Logger{service: service, sinks: []sink{{w: w, console: true}}}
}

// NewStdLogger écrit sur stdout (format console si stdout est un terminal, JSON sinon)
// et, si filename n'est pas vide, duplique les entrées JSON dans ce fichier.
func NewStdLogger(service, filename string) (*Logger, error) {
	l := &Logger{
		service: service,
		sinks:   []sink{{w: os.Stdout, console: term.IsTerminal(int(os.Stdout.Fd()))}},
	}
	if filename == "" {
		return l, nil
	}
	file, err := openAppend(filename)
	if err != nil {
		return nil, err
	}
	l.file = file
	l.sinks = append(l.sinks, sink{w: file})
	return l, nil
}

// NewFileLogger écrit uniquement dans filename, pour la piste d'audit.
func NewFileLogger(service, filename string) (*Logger, error) {
	file, err := openAppend(filename)
	if err != nil {
		return nil, err
	}
	return &Logger{service: service, sinks: []sink{{w: file}}, file: file}, nil
}

func openAppend(filename string) (*os.File, error) {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("impossible d'ouvrir le fichier %s: %w", filename, err)
	}
	return file, nil
}

// Log écrit une entrée structurée.
func (l *Logger) Log(level LogLevel, message string, metadata map[string]any) {
	l.write(LogEntry{Level: level, Message: message, Metadata: metadata})
}

// Info est un raccourci pour Log(LogLevelINFO, ...).
func (l *Logger) Info(message string, metadata map[string]any) {
	l.Log(LogLevelINFO, message, metadata)
}

// Warn est un raccourci pour Log(LogLevelWARN, ...).
func (l *Logger) Warn(message string, metadata map[string]any) {
	l.Log(LogLevelWARN, message, metadata)
}

// Error écrit une entrée ERROR accompagnée du message d'erreur.
func (l *Logger) Error(message string, err error, metadata map[string]any) {
	entry := LogEntry{Level: LogLevelERROR, Message: message, Metadata: metadata}
	if err != nil {
		entry.Error = err.Error()
	}
	l.write(entry)
}

func (l *Logger) write(entry LogEntry) {
	if l == nil {
		return
	}
	entry.Timestamp = time.Now().UTC().Format(time.RFC3339)
	entry.Service = l.service

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.sinks {
		if s.console {
			_, _ = io.WriteString(s.w, formatConsole(entry))
			continue
		}
		_ = json.NewEncoder(s.w).Encode(entry)
	}
}

// LogEvent écrit une entrée de piste d'audit (toujours en JSON).
func (l *Logger) LogEvent(event EventEntry) {
	if l == nil {
		return
	}
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	event.MessageSize = len(event.RawMessage)

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.sinks {
		_ = json.NewEncoder(s.w).Encode(event)
	}
}

// Close ferme le fichier sous-jacent s'il existe.
func (l *Logger) Close() {
	if l != nil && l.file != nil {
		_ = l.file.Close()
	}
}

var levelPrefix = map[LogLevel]string{
	LogLevelINFO:  "✅",
	LogLevelWARN:  "⚠️",
	LogLevelERROR: "❌",
}

// formatConsole rend une entrée sur une ligne ; la clé "record" est colorisée.
func formatConsole(entry LogEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s", entry.Timestamp, levelPrefix[entry.Level], entry.Message)
	if entry.Error != "" {
		fmt.Fprintf(&b, ": %s", entry.Error)
	}

	keys := make([]string, 0, len(entry.Metadata))
	for k := range entry.Metadata {
		if k != "record" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Metadata[k])
	}

	if rec, ok := entry.Metadata["record"]; ok {
		b.WriteString(" ")
		b.WriteString(colorize(rec))
	}
	b.WriteString("\n")
	return b.String()
}

// colorize passe par un aller-retour JSON : colorjson ne connaît que les types décodés.
func colorize(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return string(raw)
	}
	out, err := colorjson.NewFormatter().Marshal(generic)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
