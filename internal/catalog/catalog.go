package catalog

// Product représente un article du catalogue de démonstration.
type Product struct {
	ID       int     `json:"product_id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}

// Store représente un magasin physique émetteur des transactions.
type Store struct {
	ID       int    `json:"store_id"`
	Location string `json:"location"`
}

var products = []Product{
	{ID: 101, Name: "iPhone 15", Category: "Electronics", Price: 999.99},
	{ID: 102, Name: "Samsung QLED TV", Category: "Electronics", Price: 1499.99},
	{ID: 103, Name: "PlayStation 5", Category: "Gaming", Price: 499.99},
	{ID: 104, Name: "Dell XPS Laptop", Category: "Computers", Price: 1299.99},
	{ID: 105, Name: "Sony Headphones", Category: "Audio", Price: 199.99},
	{ID: 106, Name: "Amazon Echo", Category: "Smart Home", Price: 99.99},
	{ID: 107, Name: "Google Nest Hub", Category: "Smart Home", Price: 129.99},
	{ID: 108, Name: "Canon EOS M50", Category: "Cameras", Price: 649.99},
	{ID: 109, Name: "Bose SoundLink", Category: "Audio", Price: 179.99},
	{ID: 110, Name: "Apple Watch", Category: "Wearables", Price: 399.99},
	{ID: 111, Name: "Fitbit Charge 5", Category: "Wearables", Price: 149.99},
	{ID: 112, Name: "Nintendo Switch", Category: "Gaming", Price: 299.99},
	{ID: 113, Name: "MacBook Air", Category: "Computers", Price: 999.99},
	{ID: 114, Name: "Lenovo ThinkPad", Category: "Computers", Price: 849.99},
	{ID: 115, Name: "GoPro Hero10", Category: "Cameras", Price: 499.99},
}

var stores = []Store{
	{ID: 1, Location: "New York"},
	{ID: 2, Location: "Los Angeles"},
	{ID: 3, Location: "Chicago"},
	{ID: 4, Location: "Houston"},
	{ID: 5, Location: "Phoenix"},
}

var paymentMethods = []string{"Credit Card", "Debit Card", "Cash", "Mobile Payment", "Gift Card"}

// Catalog regroupe les tables de référence utilisées par le générateur.
// Les slices ne sont jamais modifiées après construction.
type Catalog struct {
	Products       []Product
	Stores         []Store
	PaymentMethods []string
}

// Default renvoie une copie des tables de référence intégrées.
func Default() Catalog {
	return Catalog{
		Products:       append([]Product(nil), products...),
		Stores:         append([]Store(nil), stores...),
		PaymentMethods: append([]string(nil), paymentMethods...),
	}
}

// Product retrouve un article par identifiant.
func (c Catalog) Product(id int) (Product, bool) {
	for _, p := range c.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// HasStore indique si l'identifiant de magasin existe.
func (c Catalog) HasStore(id int) bool {
	for _, s := range c.Stores {
		if s.ID == id {
			return true
		}
	}
	return false
}

// HasPaymentMethod indique si le moyen de paiement fait partie de l'énumération.
func (c Catalog) HasPaymentMethod(method string) bool {
	for _, m := range c.PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}
