package transaction

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeKeepsSchemaOrder(t *testing.T) {
	rec := Record{
		TransactionID: Value("abc"),
		ProductID:     Value(103),
		StoreID:       Value(2),
		Quantity:      Value(2),
		Price:         Value(999.98),
		PaymentMethod: Value("Cash"),
		Timestamp:     Value("2024-05-17T10:30:00Z"),
	}

	payload, err := rec.Encode()
	require.NoError(t, err)
	assert.Equal(t,
		`{"transaction_id":"abc","product_id":103,"store_id":2,"quantity":2,"price":999.98,"payment_method":"Cash","timestamp":"2024-05-17T10:30:00Z"}`,
		string(payload))
}

func TestEncodeDistinguishesAbsentAndNull(t *testing.T) {
	rec := Record{
		TransactionID: Null(),
		ProductID:     Value(101),
		StoreID:       Value(1),
		Quantity:      Null(),
		Price:         Value(999.99),
		Timestamp:     Value("2024-05-17T10:30:00Z"),
		Corruption:    CorruptionNullField,
	}

	payload, err := rec.Encode()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))

	v, ok := decoded["transaction_id"]
	assert.True(t, ok)
	assert.Nil(t, v)
	_, ok = decoded["payment_method"]
	assert.False(t, ok, "payment_method absent ne doit pas être émis")
	assert.NotContains(t, string(payload), "null_field")
}

func TestKey(t *testing.T) {
	assert.Equal(t, []byte("abc"), Record{TransactionID: Value("abc")}.Key())
	assert.Nil(t, Record{TransactionID: Null()}.Key())
	assert.Nil(t, Record{}.Key())
}

func TestMapSkipsAbsentFields(t *testing.T) {
	m := Record{ProductID: Value("103"), Quantity: Null()}.Map()
	assert.Len(t, m, 2)
	assert.Equal(t, "103", m["product_id"])
	assert.Contains(t, m, "quantity")
}

func TestCorruptionString(t *testing.T) {
	assert.Equal(t, "clean", CorruptionNone.String())
	assert.Equal(t, "invalid_type", CorruptionInvalidType.String())
}
