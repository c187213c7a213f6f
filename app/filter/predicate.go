package filter

// Field identifies an article/cluster attribute a predicate can constrain.
type Field string

const (
	FieldTitle      Field = "title"
	FieldContent    Field = "content"
	FieldRead       Field = "read"
	FieldLiked      Field = "liked"
	FieldFeedID     Field = "feed_id"
	FieldCategoryID Field = "category_id"
)

// Predicate is a structured filter expression. It is built once from request
// parameters and compiled separately against each read-model backend, so the
// article and cluster services interpret the same request identically.
type Predicate interface {
	isPredicate()
}

// All matches every item.
type All struct{}

// Eq matches items whose field equals the value.
type Eq struct {
	Field Field
	Value any
}

// Like matches items whose field contains the pattern, case-insensitively.
type Like struct {
	Field   Field
	Pattern string
}

// And matches items satisfying every sub-predicate.
type And struct {
	Preds []Predicate
}

// Or matches items satisfying at least one sub-predicate.
type Or struct {
	Preds []Predicate
}

func (All) isPredicate()  {}
func (Eq) isPredicate()   {}
func (Like) isPredicate() {}
func (And) isPredicate()  {}
func (Or) isPredicate()   {}
