package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableSizes(t *testing.T) {
	c := Default()
	assert.Len(t, c.Products, 15)
	assert.Len(t, c.Stores, 5)
	assert.Len(t, c.PaymentMethods, 5)
}

func TestDefaultReturnsIndependentCopies(t *testing.T) {
	c := Default()
	c.Products[0].Price = -1
	c.PaymentMethods[0] = "Barter"

	fresh := Default()
	assert.Equal(t, 999.99, fresh.Products[0].Price)
	assert.Equal(t, "Credit Card", fresh.PaymentMethods[0])
}

func TestLookups(t *testing.T) {
	c := Default()

	p, ok := c.Product(103)
	require.True(t, ok)
	assert.Equal(t, "PlayStation 5", p.Name)
	assert.Equal(t, 499.99, p.Price)

	_, ok = c.Product(999)
	assert.False(t, ok)

	assert.True(t, c.HasStore(5))
	assert.False(t, c.HasStore(6))
	assert.True(t, c.HasPaymentMethod("Gift Card"))
	assert.False(t, c.HasPaymentMethod("gift card"))
}
