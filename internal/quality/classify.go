package quality

import (
	"bytes"
	"math"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"pos-simulator/internal/catalog"
)

// Issue nomme un type de violation du schéma de transaction.
type Issue string

const (
	IssueMalformed        Issue = "malformed_json"
	IssueMissing          Issue = "missing"
	IssueNull             Issue = "null"
	IssueWrongType        Issue = "wrong_type"
	IssueInvalidFormat    Issue = "invalid_format"
	IssueOutOfRange       Issue = "out_of_range"
	IssueUnknownReference Issue = "unknown_reference"
	IssuePriceMismatch    Issue = "price_mismatch"
)

// Violation associe un champ à l'anomalie détectée.
type Violation struct {
	Field string `json:"field"`
	Issue Issue  `json:"issue"`
}

func (v Violation) String() string {
	return v.Field + ":" + string(v.Issue)
}

// Report liste les violations d'une charge utile ; vide pour un enregistrement propre.
type Report struct {
	Violations []Violation `json:"violations,omitempty"`
}

// Clean indique l'absence de violation.
func (r Report) Clean() bool { return len(r.Violations) == 0 }

// Has indique si la violation field/issue a été relevée.
func (r Report) Has(field string, issue Issue) bool {
	for _, v := range r.Violations {
		if v.Field == field && v.Issue == issue {
			return true
		}
	}
	return false
}

// Strings renvoie les violations sous la forme "champ:issue".
func (r Report) Strings() []string {
	out := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		out = append(out, v.String())
	}
	return out
}

func (r *Report) add(field string, issue Issue) {
	r.Violations = append(r.Violations, Violation{Field: field, Issue: issue})
}

// Classify vérifie une transaction JSON contre le schéma propre et les tables de référence.
func Classify(payload []byte, c catalog.Catalog) Report {
	var report Report

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil || doc == nil {
		report.add("", IssueMalformed)
		return report
	}

	if id, ok := stringField(&report, doc, "transaction_id"); ok {
		if _, err := uuid.Parse(id); err != nil {
			report.add("transaction_id", IssueInvalidFormat)
		}
	}

	product, productOK := catalog.Product{}, false
	if id, ok := intField(&report, doc, "product_id"); ok {
		product, productOK = c.Product(int(id))
		if !productOK {
			report.add("product_id", IssueUnknownReference)
		}
	}

	if id, ok := intField(&report, doc, "store_id"); ok && !c.HasStore(int(id)) {
		report.add("store_id", IssueUnknownReference)
	}

	qty, qtyOK := intField(&report, doc, "quantity")
	if qtyOK && (qty < 1 || qty > 5) {
		report.add("quantity", IssueOutOfRange)
		qtyOK = false
	}

	if price, ok := numberField(&report, doc, "price"); ok {
		switch {
		case price < 0:
			report.add("price", IssueOutOfRange)
		case productOK && qtyOK:
			expected := math.Round(product.Price*float64(qty)*100) / 100
			if math.Abs(expected-price) > 0.005 {
				report.add("price", IssuePriceMismatch)
			}
		}
	}

	if method, ok := stringField(&report, doc, "payment_method"); ok && !c.HasPaymentMethod(method) {
		report.add("payment_method", IssueUnknownReference)
	}

	if ts, ok := stringField(&report, doc, "timestamp"); ok {
		if _, err := time.Parse(time.RFC3339Nano, ts); err != nil {
			report.add("timestamp", IssueInvalidFormat)
		}
	}

	return report
}

func lookup(r *Report, doc map[string]any, field string) (any, bool) {
	v, ok := doc[field]
	if !ok {
		r.add(field, IssueMissing)
		return nil, false
	}
	if v == nil {
		r.add(field, IssueNull)
		return nil, false
	}
	return v, true
}

func stringField(r *Report, doc map[string]any, field string) (string, bool) {
	v, ok := lookup(r, doc, field)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		r.add(field, IssueWrongType)
	}
	return s, ok
}

func intField(r *Report, doc map[string]any, field string) (int64, bool) {
	v, ok := lookup(r, doc, field)
	if !ok {
		return 0, false
	}
	n, ok := v.(json.Number)
	if !ok {
		r.add(field, IssueWrongType)
		return 0, false
	}
	i, err := n.Int64()
	if err != nil {
		r.add(field, IssueWrongType)
		return 0, false
	}
	return i, true
}

func numberField(r *Report, doc map[string]any, field string) (float64, bool) {
	v, ok := lookup(r, doc, field)
	if !ok {
		return 0, false
	}
	n, ok := v.(json.Number)
	if !ok {
		r.add(field, IssueWrongType)
		return 0, false
	}
	f, err := n.Float64()
	if err != nil {
		r.add(field, IssueWrongType)
		return 0, false
	}
	return f, true
}
