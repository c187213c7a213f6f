package filter

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalidArgument reports malformed filter input, e.g. a non-integer
// filter_id. Handlers surface it as a client error.
var ErrInvalidArgument = errors.New("invalid argument")

// Build translates an untyped parameter bag (query string or JSON body) into
// a predicate. Recognized keys: query, search_title, search_content, filter,
// filter_type, filter_id. Unknown keys are ignored. An empty bag yields All.
//
// When both search_title and search_content are requested the two substring
// predicates are combined with OR; title search is the default when neither
// is set.
func Build(in map[string]any) (Predicate, error) {
	var preds []Predicate

	if query := asString(in["query"]); query != "" {
		searchTitle := asBool(in["search_title"])
		searchContent := asBool(in["search_content"])

		var text []Predicate
		if searchTitle || !searchContent {
			text = append(text, Like{Field: FieldTitle, Pattern: query})
		}
		if searchContent {
			text = append(text, Like{Field: FieldContent, Pattern: query})
		}

		if len(text) == 1 {
			preds = append(preds, text[0])
		} else {
			preds = append(preds, Or{Preds: text})
		}
	}

	switch asString(in["filter"]) {
	case "unread":
		preds = append(preds, Eq{Field: FieldRead, Value: false})
	case "liked":
		preds = append(preds, Eq{Field: FieldLiked, Value: true})
	}

	filterType := asString(in["filter_type"])
	if (filterType == "feed_id" || filterType == "category_id") && hasFilterID(in) {
		id, err := asInt(in["filter_id"])
		if err != nil {
			return nil, fmt.Errorf("%w: filter_id %v is not an integer", ErrInvalidArgument, in["filter_id"])
		}
		// An explicit 0 means "no constraint": the synthetic "No category"
		// bucket has no database row to match against.
		if id != 0 {
			preds = append(preds, Eq{Field: Field(filterType), Value: id})
		}
	}

	switch len(preds) {
	case 0:
		return All{}, nil
	case 1:
		return preds[0], nil
	default:
		return And{Preds: preds}, nil
	}
}

func hasFilterID(in map[string]any) bool {
	v, ok := in["filter_id"]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok && s == "" {
		return false
	}
	return true
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	default:
		return false
	}
}

func asInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		// JSON numbers decode as float64
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("not an integer: %v", n)
		}
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
