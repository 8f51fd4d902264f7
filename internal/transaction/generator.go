package transaction

import (
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"pos-simulator/internal/catalog"
)

// CorruptionRate est la probabilité fixe qu'un enregistrement soit corrompu (2 %).
const CorruptionRate = 0.02

const (
	// InvalidQuantity remplace la quantité en mode invalid_type.
	InvalidQuantity = "invalid"
	// InvalidTimestamp est une date syntaxiquement impossible (mois 13, heure 99).
	InvalidTimestamp = "2023-13-45T99:99:99"

	maxQuantity = 5
)

// Source est la source aléatoire injectée dans le générateur.
// *math/rand.Rand la satisfait.
type Source interface {
	Intn(n int) int
	Float64() float64
	Read(p []byte) (int, error)
}

// Option ajuste un Generator.
type Option func(*Generator)

// WithClock remplace l'horloge utilisée pour l'horodatage.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// Generator produit une transaction par appel à Generate.
type Generator struct {
	catalog catalog.Catalog
	rng     Source
	now     func() time.Time
}

// NewGenerator construit un générateur sur les tables et la source données.
func NewGenerator(c catalog.Catalog, rng Source, opts ...Option) *Generator {
	g := &Generator{
		catalog: c,
		rng:     rng,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate tire un produit, un magasin, un moyen de paiement et une quantité,
// puis corrompt l'enregistrement avec une probabilité CorruptionRate.
// La génération n'échoue jamais.
func (g *Generator) Generate() Record {
	product := g.catalog.Products[g.rng.Intn(len(g.catalog.Products))]
	store := g.catalog.Stores[g.rng.Intn(len(g.catalog.Stores))]
	payment := g.catalog.PaymentMethods[g.rng.Intn(len(g.catalog.PaymentMethods))]
	quantity := g.rng.Intn(maxQuantity) + 1
	price := roundCents(product.Price * float64(quantity))

	if g.rng.Float64() < CorruptionRate {
		mode := Corruptions[g.rng.Intn(len(Corruptions))]
		switch mode {
		case CorruptionMissingField:
			rec := Record{
				ProductID:  Value(product.ID),
				StoreID:    Value(store.ID),
				Quantity:   Value(quantity),
				Price:      Value(price),
				Timestamp:  Value(g.timestamp()),
				Corruption: mode,
			}
			// 0 : transaction_id omis, 1 : payment_method omis.
			if g.rng.Intn(2) == 0 {
				rec.PaymentMethod = Value(payment)
			} else {
				rec.TransactionID = Value(g.transactionID())
			}
			return rec
		case CorruptionNullField:
			return Record{
				TransactionID: Null(),
				ProductID:     Value(product.ID),
				StoreID:       Value(store.ID),
				Quantity:      Null(),
				Price:         Value(price),
				PaymentMethod: Null(),
				Timestamp:     Value(g.timestamp()),
				Corruption:    mode,
			}
		case CorruptionInvalidType:
			return Record{
				TransactionID: Value(g.transactionID()),
				ProductID:     Value(strconv.Itoa(product.ID)),
				StoreID:       Value(store.ID),
				Quantity:      Value(InvalidQuantity),
				Price:         Value(-price),
				PaymentMethod: Value(payment),
				Timestamp:     Value(InvalidTimestamp),
				Corruption:    mode,
			}
		}
	}

	return Record{
		TransactionID: Value(g.transactionID()),
		ProductID:     Value(product.ID),
		StoreID:       Value(store.ID),
		Quantity:      Value(quantity),
		Price:         Value(price),
		PaymentMethod: Value(payment),
		Timestamp:     Value(g.timestamp()),
	}
}

func (g *Generator) transactionID() string {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (g *Generator) timestamp() string {
	return g.now().UTC().Format(time.RFC3339Nano)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
