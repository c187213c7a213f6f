package filter

import (
	"fmt"
	"strings"
)

// SQLCompiler renders a predicate as a WHERE fragment for one read-model
// backend. Columns maps predicate fields to SQL expressions, so the same
// predicate compiles against either the articles table or the cluster join.
type SQLCompiler struct {
	Columns map[Field]string
}

// ArticleCompiler compiles predicates against the articles table.
var ArticleCompiler = SQLCompiler{Columns: map[Field]string{
	FieldTitle:      "a.title",
	FieldContent:    "a.content",
	FieldRead:       "a.read",
	FieldLiked:      "a.liked",
	FieldFeedID:     "a.feed_id",
	FieldCategoryID: "a.category_id",
}}

// ClusterCompiler compiles predicates against the clusters-to-articles join;
// read/liked live on the cluster, text and id fields on member articles.
var ClusterCompiler = SQLCompiler{Columns: map[Field]string{
	FieldTitle:      "a.title",
	FieldContent:    "a.content",
	FieldRead:       "c.read",
	FieldLiked:      "c.liked",
	FieldFeedID:     "a.feed_id",
	FieldCategoryID: "a.category_id",
}}

// Compile returns a SQL condition and its arguments. Placeholder numbering
// starts at argIndex so the fragment can follow fixed parameters like the
// user id scope.
func (sc SQLCompiler) Compile(p Predicate, argIndex int) (string, []any) {
	switch pred := p.(type) {
	case All:
		return "TRUE", nil
	case Eq:
		return fmt.Sprintf("%s = $%d", sc.Columns[pred.Field], argIndex), []any{pred.Value}
	case Like:
		return fmt.Sprintf("%s ILIKE $%d", sc.Columns[pred.Field], argIndex), []any{"%" + pred.Pattern + "%"}
	case And:
		return sc.compileList(pred.Preds, " AND ", argIndex)
	case Or:
		return sc.compileList(pred.Preds, " OR ", argIndex)
	default:
		return "TRUE", nil
	}
}

func (sc SQLCompiler) compileList(preds []Predicate, sep string, argIndex int) (string, []any) {
	if len(preds) == 0 {
		return "TRUE", nil
	}

	var parts []string
	var args []any
	for _, sub := range preds {
		cond, subArgs := sc.Compile(sub, argIndex)
		parts = append(parts, cond)
		args = append(args, subArgs...)
		argIndex += len(subArgs)
	}

	return "(" + strings.Join(parts, sep) + ")", args
}
