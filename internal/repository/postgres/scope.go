package postgres

import (
	"fmt"
	"strings"

	"github.com/Rrens/teamhub/internal/access"
)

// scopeColumns names the columns an access.Cond is evaluated against.
// Empty names mean the table has no such column.
type scopeColumns struct {
	team   string
	email  string
	sender string
}

// where accumulates AND-ed clauses and their positional arguments
type where struct {
	clauses []string
	args    []any
}

// arg registers v and returns its placeholder
func (w *where) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *where) add(clause string) {
	w.clauses = append(w.clauses, clause)
}

// scope renders cond against cols and adds it as a clause
func (w *where) scope(cond access.Cond, cols scopeColumns) error {
	clause, err := w.render(cond, cols)
	if err != nil {
		return err
	}
	w.add(clause)
	return nil
}

func (w *where) render(cond access.Cond, cols scopeColumns) (string, error) {
	switch c := cond.(type) {
	case access.Everything:
		return "TRUE", nil
	case access.Nothing:
		return "FALSE", nil
	case access.MemberOf:
		if cols.team == "" {
			return "", fmt.Errorf("scope: table has no team column")
		}
		return fmt.Sprintf("%s IN (SELECT team_id FROM memberships WHERE user_id = %s)", cols.team, w.arg(c.UserID)), nil
	case access.AddressedTo:
		if cols.email == "" {
			return "", fmt.Errorf("scope: table has no email column")
		}
		if c.Email == "" {
			return "FALSE", nil
		}
		return fmt.Sprintf("%s = %s", cols.email, w.arg(c.Email)), nil
	case access.SentBy:
		if cols.sender == "" {
			return "", fmt.Errorf("scope: table has no sender column")
		}
		return fmt.Sprintf("%s = %s", cols.sender, w.arg(c.UserID)), nil
	case access.AnyOf:
		return w.join(c, " OR ", "FALSE", cols)
	case access.AllOf:
		return w.join(c, " AND ", "TRUE", cols)
	case nil:
		return "", fmt.Errorf("scope: nil condition")
	default:
		return "", fmt.Errorf("scope: unsupported condition %T", cond)
	}
}

func (w *where) join(conds []access.Cond, sep, empty string, cols scopeColumns) (string, error) {
	if len(conds) == 0 {
		return empty, nil
	}
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		part, err := w.render(c, cols)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

// String renders the WHERE clause, or nothing when no clause was added
func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.clauses, " AND ")
}

// page appends LIMIT and OFFSET placeholders
func (w *where) page(limit, offset int) string {
	return fmt.Sprintf("LIMIT %s OFFSET %s", w.arg(limit), w.arg(offset))
}
