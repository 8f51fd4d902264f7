package quality

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-simulator/internal/catalog"
	"pos-simulator/internal/transaction"
)

func TestClassifyGeneratedRecordsOnTheWire(t *testing.T) {
	c := catalog.Default()
	g := transaction.NewGenerator(c, rand.New(rand.NewSource(2024)))
	seen := map[transaction.Corruption]int{}

	for i := 0; i < 20000; i++ {
		rec := g.Generate()
		payload, err := rec.Encode()
		require.NoError(t, err)

		report := Classify(payload, c)
		seen[rec.Corruption]++

		switch rec.Corruption {
		case transaction.CorruptionNone:
			require.True(t, report.Clean(), "violations inattendues: %v (%s)", report.Strings(), payload)
		case transaction.CorruptionMissingField:
			require.Len(t, report.Violations, 1, "%s", payload)
			missingID := report.Has("transaction_id", IssueMissing)
			missingPM := report.Has("payment_method", IssueMissing)
			assert.True(t, missingID != missingPM, "%s", payload)
		case transaction.CorruptionNullField:
			assert.ElementsMatch(t,
				[]string{"transaction_id:null", "quantity:null", "payment_method:null"},
				report.Strings(), "%s", payload)
		case transaction.CorruptionInvalidType:
			assert.ElementsMatch(t,
				[]string{"product_id:wrong_type", "quantity:wrong_type", "price:out_of_range", "timestamp:invalid_format"},
				report.Strings(), "%s", payload)
		}
	}

	for _, mode := range transaction.Corruptions {
		assert.Positive(t, seen[mode], "mode %s jamais tiré", mode)
	}
}

func TestClassifyHandcraftedPayloads(t *testing.T) {
	c := catalog.Default()
	tests := []struct {
		name    string
		payload string
		want    []string
	}{
		{
			name:    "json invalide",
			payload: `{"invalid-json"`,
			want:    []string{":malformed_json"},
		},
		{
			name:    "prix incohérent",
			payload: `{"transaction_id":"5b6c7d8e-1111-4222-8333-944455556666","product_id":103,"store_id":1,"quantity":2,"price":10.5,"payment_method":"Cash","timestamp":"2024-05-17T10:30:00Z"}`,
			want:    []string{"price:price_mismatch"},
		},
		{
			name:    "références inconnues",
			payload: `{"transaction_id":"not-a-uuid","product_id":999,"store_id":9,"quantity":7,"price":1,"payment_method":"Barter","timestamp":"2024-05-17T10:30:00+00:00"}`,
			want: []string{
				"transaction_id:invalid_format", "product_id:unknown_reference", "store_id:unknown_reference",
				"quantity:out_of_range", "payment_method:unknown_reference",
			},
		},
		{
			name:    "objet vide",
			payload: `{}`,
			want: []string{
				"transaction_id:missing", "product_id:missing", "store_id:missing", "quantity:missing",
				"price:missing", "payment_method:missing", "timestamp:missing",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ElementsMatch(t, tt.want, Classify([]byte(tt.payload), c).Strings())
		})
	}
}
