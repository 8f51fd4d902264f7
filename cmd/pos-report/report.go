package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"pos-simulator/internal/observability"
)

// Codes ANSI pour l'affichage
const (
	esc         = "\033"
	clearScreen = esc + "[2J"
	homeCursor  = esc + "[H"
	bold        = esc + "[1m"
	reset       = esc + "[0m"
	colorGreen  = esc + "[32m"
	colorRed    = esc + "[31m"
	colorYellow = esc + "[33m"
	colorCyan   = esc + "[36m"
	bgBlue      = esc + "[44m"
)

const recentLimit = 5

// Stats agrège la piste d'audit et les logs système.
type Stats struct {
	TotalLogs   int
	InfoLogs    int
	WarnLogs    int
	ErrorLogs   int
	Attempts    int
	Delivered   int
	Failed      int
	Received    int
	Invalid     int
	Malformed   int
	Corruptions map[string]int
	Issues      map[string]int
	Stores      map[int]int
	Payments    map[string]int
	Revenue     float64
	LastErrors  []observability.LogEntry
}

func newStats() *Stats {
	return &Stats{
		Corruptions: make(map[string]int),
		Issues:      make(map[string]int),
		Stores:      make(map[int]int),
		Payments:    make(map[string]int),
	}
}

// CorruptionRate renvoie la part d'enregistrements corrompus parmi les tentatives.
func (s *Stats) CorruptionRate() float64 {
	if s.Attempts == 0 {
		return 0
	}
	corrupted := 0
	for mode, n := range s.Corruptions {
		if mode != "clean" {
			corrupted += n
		}
	}
	return float64(corrupted) / float64(s.Attempts) * 100
}

// DeliveryRate renvoie la part de tentatives acquittées par le broker.
func (s *Stats) DeliveryRate() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Delivered) / float64(s.Attempts) * 100
}

type saleLine struct {
	StoreID       *int     `json:"store_id"`
	Price         *float64 `json:"price"`
	PaymentMethod *string  `json:"payment_method"`
}

// analyze lit les deux fichiers ; un fichier absent est traité comme vide.
func analyze(logFile, eventsFile string) (*Stats, error) {
	stats := newStats()
	if err := readFile(logFile, func(r io.Reader) error { return stats.readLogs(r) }); err != nil {
		return nil, err
	}
	if err := readFile(eventsFile, func(r io.Reader) error { return stats.readEvents(r) }); err != nil {
		return nil, err
	}
	return stats, nil
}

func readFile(path string, fn func(io.Reader) error) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("ouverture de %s: %w", path, err)
	}
	defer f.Close()
	return fn(f)
}

func (s *Stats) readLogs(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry observability.LogEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		s.TotalLogs++
		switch entry.Level {
		case observability.LogLevelINFO:
			s.InfoLogs++
		case observability.LogLevelWARN:
			s.WarnLogs++
		case observability.LogLevelERROR:
			s.ErrorLogs++
			s.LastErrors = append(s.LastErrors, entry)
			if len(s.LastErrors) > recentLimit {
				s.LastErrors = s.LastErrors[1:]
			}
		}
	}
	return scanner.Err()
}

func (s *Stats) readEvents(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var event observability.EventEntry
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		switch event.EventType {
		case "record.sent", "record.failed":
			s.Attempts++
			if event.Delivered {
				s.Delivered++
			} else {
				s.Failed++
			}
			mode := event.Corruption
			if mode == "" {
				mode = "clean"
			}
			s.Corruptions[mode]++
			if mode == "clean" && event.Delivered {
				s.addSale(event.Record)
			}
		case "record.received", "record.received.invalid":
			s.Received++
			if event.EventType == "record.received.invalid" {
				s.Invalid++
			}
			if len(event.Record) == 0 {
				s.Malformed++
			}
			for _, issue := range event.Issues {
				s.Issues[issue]++
			}
		}
	}
	return scanner.Err()
}

func (s *Stats) addSale(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var line saleLine
	if err := json.Unmarshal(raw, &line); err != nil {
		return
	}
	if line.StoreID != nil {
		s.Stores[*line.StoreID]++
	}
	if line.PaymentMethod != nil {
		s.Payments[*line.PaymentMethod]++
	}
	if line.Price != nil {
		s.Revenue += *line.Price
	}
}

func render(w io.Writer, s *Stats, width int, clock string) {
	if width < 60 {
		width = 60
	}
	if width > 120 {
		width = 120
	}

	title := "RAPPORT POS SIMULATOR"
	pad := width - len(title) - len(clock) - 3
	if pad < 1 {
		pad = 1
	}
	fmt.Fprintf(w, "%s  %s %s%s%s\n", bgBlue+bold, title, clock, strings.Repeat(" ", pad), reset)

	drawBox(w, []string{
		fmt.Sprintf("Logs:       %d total, %d info, %d warn, %d erreurs", s.TotalLogs, s.InfoLogs, s.WarnLogs, s.ErrorLogs),
		fmt.Sprintf("Envois:     %d tentatives, %d acquittés, %d échecs", s.Attempts, s.Delivered, s.Failed),
		fmt.Sprintf("Acquittés:  %s %.1f%%", progressBar(s.DeliveryRate(), width/2), s.DeliveryRate()),
		fmt.Sprintf("Corrompus:  %.2f%%", s.CorruptionRate()),
	}, "Publication", width, colorCyan)

	drawBox(w, sortedCounts(s.Corruptions), "Répartition des corruptions", width, colorYellow)

	inspection := []string{
		fmt.Sprintf("Lus: %d, non conformes: %d, JSON invalide: %d", s.Received, s.Invalid, s.Malformed),
	}
	inspection = append(inspection, sortedCounts(s.Issues)...)
	drawBox(w, inspection, "Inspection", width, colorYellow)

	sales := []string{fmt.Sprintf("Chiffre d'affaires acquitté: %.2f", s.Revenue)}
	stores := make(map[string]int, len(s.Stores))
	for id, n := range s.Stores {
		stores[fmt.Sprintf("magasin %d", id)] = n
	}
	sales = append(sales, sortedCounts(stores)...)
	sales = append(sales, sortedCounts(s.Payments)...)
	drawBox(w, sales, "Ventes", width, colorGreen)

	if len(s.LastErrors) > 0 {
		var lines []string
		for _, entry := range s.LastErrors {
			lines = append(lines, fmt.Sprintf("%s %s: %s", entry.Timestamp, entry.Message, entry.Error))
		}
		drawBox(w, lines, "Dernières erreurs", width, colorRed)
	}
}

func sortedCounts(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("  %-28s %d", k, counts[k]))
	}
	return lines
}

func drawBox(w io.Writer, content []string, title string, width int, color string) {
	fill := width - len([]rune(title)) - 4
	if fill < 0 {
		fill = 0
	}
	fmt.Fprintf(w, "%s┌─ %s%s%s %s─┐%s\n", color, bold, title, reset+color, strings.Repeat("─", fill), reset)
	for _, line := range content {
		if n := len([]rune(line)); n > width-2 {
			line = string([]rune(line)[:width-5]) + "..."
		}
		fmt.Fprintf(w, "%s│%s %s\n", color, reset, line)
	}
	fmt.Fprintf(w, "%s└%s┘%s\n", color, strings.Repeat("─", width), reset)
}

func progressBar(percent float64, width int) string {
	if width < 10 {
		width = 10
	}
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return colorGreen + strings.Repeat("█", filled) + reset + strings.Repeat("░", width-filled)
}
