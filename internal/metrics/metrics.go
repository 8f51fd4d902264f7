package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Counters stocke les métriques du simulateur.
type Counters struct {
	mu              sync.RWMutex
	generated       atomic.Int64
	sent            atomic.Int64
	sendFailed      atomic.Int64
	breakerOpen     atomic.Int64
	connectAttempts atomic.Int64
	consumed        atomic.Int64
	corrupted       map[string]int64
	latency         map[string]time.Duration
}

// Default est l'instance partagée par défaut.
var Default = NewCounters()

// NewCounters crée un collecteur initialisé.
func NewCounters() *Counters {
	return &Counters{
		corrupted: make(map[string]int64),
		latency:   make(map[string]time.Duration),
	}
}

// IncGenerated compte un enregistrement produit ; corruption vide pour un enregistrement propre.
func (c *Counters) IncGenerated(corruption string) {
	c.generated.Add(1)
	if corruption == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.corrupted[corruption]++
}

func (c *Counters) IncSent() {
	c.sent.Add(1)
}

func (c *Counters) IncSendFailed() {
	c.sendFailed.Add(1)
}

func (c *Counters) IncBreakerOpen() {
	c.breakerOpen.Add(1)
}

func (c *Counters) IncConnectAttempts() {
	c.connectAttempts.Add(1)
}

func (c *Counters) IncConsumed() {
	c.consumed.Add(1)
}

// ObserveLatency enregistre la dernière latence d'acquittement pour un topic.
func (c *Counters) ObserveLatency(key string, value time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latency[key] = value
}

// Snapshot renvoie les valeurs actuelles.
func (c *Counters) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	corrupted := make(map[string]int64, len(c.corrupted))
	for k, v := range c.corrupted {
		corrupted[k] = v
	}
	latency := make(map[string]string, len(c.latency))
	for k, v := range c.latency {
		latency[k] = v.String()
	}

	return map[string]any{
		"generated":        c.generated.Load(),
		"sent":             c.sent.Load(),
		"send_failed":      c.sendFailed.Load(),
		"breaker_open":     c.breakerOpen.Load(),
		"connect_attempts": c.connectAttempts.Load(),
		"consumed":         c.consumed.Load(),
		"corrupted":        corrupted,
		"latency":          latency,
	}
}
