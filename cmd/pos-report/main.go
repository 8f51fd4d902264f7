/*
pos-report résume la piste d'audit et les logs système produits par pos-producer
et pos-inspector : taux d'acquittement, répartition des corruptions, violations
relevées à la lecture et ventes acquittées.

Avec --watch, le rapport est rafraîchi périodiquement, à la manière de `top`.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	logFile := "pos-producer.log"
	eventsFile := "pos-producer.events"
	watch := false
	interval := 2 * time.Second

	rootCmd := &cobra.Command{
		Use:          "pos-report",
		Short:        "Rapport sur les transactions publiées et inspectées",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !watch {
				return printOnce(logFile, eventsFile)
			}
			return watchLoop(cmd.Context(), logFile, eventsFile, interval)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&logFile, "log-file", logFile, "fichier de logs JSON")
	flags.StringVar(&eventsFile, "events-file", eventsFile, "fichier de piste d'audit")
	flags.BoolVar(&watch, "watch", watch, "rafraîchit le rapport en continu")
	flags.DurationVar(&interval, "interval", interval, "période de rafraîchissement")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return width
}

func printOnce(logFile, eventsFile string) error {
	stats, err := analyze(logFile, eventsFile)
	if err != nil {
		return err
	}
	render(os.Stdout, stats, terminalWidth(), time.Now().Format("15:04:05"))
	return nil
}

func watchLoop(ctx context.Context, logFile, eventsFile string, interval time.Duration) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("--watch nécessite un terminal")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		stats, err := analyze(logFile, eventsFile)
		if err != nil {
			return err
		}
		fmt.Print(clearScreen + homeCursor)
		render(os.Stdout, stats, terminalWidth(), time.Now().Format("15:04:05"))

		select {
		case <-ctx.Done():
			fmt.Println("\n👋 Arrêt du rapport.")
			return nil
		case <-ticker.C:
		}
	}
}
