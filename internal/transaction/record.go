package transaction

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// Corruption identifie la forme de corruption appliquée à un enregistrement.
type Corruption string

const (
	CorruptionNone         Corruption = ""
	CorruptionMissingField Corruption = "missing_field"
	CorruptionNullField    Corruption = "null_field"
	CorruptionInvalidType  Corruption = "invalid_type"
)

// Corruptions liste les modes de corruption dans l'ordre de tirage.
var Corruptions = []Corruption{CorruptionMissingField, CorruptionNullField, CorruptionInvalidType}

func (c Corruption) String() string {
	if c == CorruptionNone {
		return "clean"
	}
	return string(c)
}

// Field est un emplacement d'enregistrement : absent, null explicite ou valeur.
type Field struct {
	value   any
	present bool
}

// Value construit un champ présent portant v.
func Value(v any) Field {
	return Field{value: v, present: true}
}

// Null construit un champ présent dont la valeur JSON est null.
func Null() Field {
	return Field{present: true}
}

// Present indique si le champ sera émis dans le JSON.
func (f Field) Present() bool { return f.present }

// IsNull indique un champ présent mais null.
func (f Field) IsNull() bool { return f.present && f.value == nil }

// Interface renvoie la valeur brute (nil si absent ou null).
func (f Field) Interface() any { return f.value }

// Record est une transaction de point de vente telle qu'elle est publiée.
// Les champs suivent l'ordre du schéma ; Corruption n'est jamais sérialisé.
type Record struct {
	TransactionID Field
	ProductID     Field
	StoreID       Field
	Quantity      Field
	Price         Field
	PaymentMethod Field
	Timestamp     Field

	Corruption Corruption
}

type namedField struct {
	name  string
	field Field
}

func (r Record) ordered() []namedField {
	return []namedField{
		{"transaction_id", r.TransactionID},
		{"product_id", r.ProductID},
		{"store_id", r.StoreID},
		{"quantity", r.Quantity},
		{"price", r.Price},
		{"payment_method", r.PaymentMethod},
		{"timestamp", r.Timestamp},
	}
}

// MarshalJSON écrit l'objet en conservant l'ordre des champs et en omettant les champs absents.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, nf := range r.ordered() {
		if !nf.field.present {
			continue
		}
		value, err := json.Marshal(nf.field.value)
		if err != nil {
			return nil, fmt.Errorf("champ %s: %w", nf.name, err)
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteByte('"')
		buf.WriteString(nf.name)
		buf.WriteString(`":`)
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Encode renvoie la charge utile JSON (UTF-8) de l'enregistrement.
func (r Record) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// Key renvoie la clé de message Kafka : l'identifiant de transaction s'il est une chaîne.
func (r Record) Key() []byte {
	if id, ok := r.TransactionID.value.(string); ok && id != "" {
		return []byte(id)
	}
	return nil
}

// Map renvoie une vue clé/valeur des champs présents, utile pour les logs.
func (r Record) Map() map[string]any {
	out := make(map[string]any, 7)
	for _, nf := range r.ordered() {
		if nf.field.present {
			out[nf.name] = nf.field.value
		}
	}
	return out
}
