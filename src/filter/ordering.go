package filter

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderingParam is the query key holding the requested ordering.
const OrderingParam = "ordering"

// OrderField is one resolved ordering term.
type OrderField struct {
	Name string
	Expr string
	Desc bool
}

// Ordering is the list of terms applied in sequence.
type Ordering []OrderField

// ParseOrdering resolves a comma separated list of field names, each optionally
// prefixed with "-" for descending order. allowed maps public names to SQL expressions;
// names not in allowed are ignored.
func ParseOrdering(raw string, allowed map[string]string) Ordering {
	var out Ordering
	seen := make(map[string]bool)

	for _, term := range strings.Split(raw, ",") {
		term = strings.TrimSpace(term)
		desc := strings.HasPrefix(term, "-")
		name := strings.TrimPrefix(term, "-")
		if name == "" || seen[name] {
			continue
		}
		expr, ok := allowed[name]
		if !ok {
			continue
		}
		seen[name] = true
		out = append(out, OrderField{Name: name, Expr: expr, Desc: desc})
	}

	return out
}

// Has reports whether the ordering references name.
func (o Ordering) Has(name string) bool {
	for _, f := range o {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Apply adds the ORDER BY terms followed by tiebreak ascending, so that equal keys
// always come back in the same order.
func (o Ordering) Apply(db *gorm.DB, tiebreak string) *gorm.DB {
	for _, f := range o {
		db = db.Order(clause.OrderByColumn{
			Column: clause.Column{Name: f.Expr, Raw: true},
			Desc:   f.Desc,
		})
	}
	if tiebreak != "" {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: tiebreak, Raw: true}})
	}
	return db
}
