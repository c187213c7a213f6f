package filter

import (
	"strings"
)

// Row is an in-memory view of one item's filterable fields.
type Row map[Field]any

// Match evaluates a predicate against an in-memory row. It mirrors the SQL
// compilers so fakes and tests filter with the same semantics as the
// repositories.
func Match(p Predicate, row Row) bool {
	switch pred := p.(type) {
	case All:
		return true
	case Eq:
		return eqValue(row[pred.Field], pred.Value)
	case Like:
		s, ok := row[pred.Field].(string)
		if !ok {
			return false
		}
		return strings.Contains(strings.ToLower(s), strings.ToLower(pred.Pattern))
	case And:
		for _, sub := range pred.Preds {
			if !Match(sub, row) {
				return false
			}
		}
		return true
	case Or:
		for _, sub := range pred.Preds {
			if Match(sub, row) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func eqValue(a, b any) bool {
	if ai, err := asInt(a); err == nil {
		bi, err := asInt(b)
		return err == nil && ai == bi
	}
	return a == b
}
