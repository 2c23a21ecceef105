package ledger

import (
	"fmt"
	"strconv"
	"strings"
)

// The records tab can use one of two column layouts. Which one applies is
// decided once at client construction from the tab name (redesign of the
// original per-call-site branching), and the two adapters implement the same
// interface so the client never branches on layout again.
//
// Native layout (owned by this service):
//
//	A=id B=createdAt C=name D=phone E=reason F=status G=calledAt H=calledBy
//	I=notes J=lastUpdatedAt
//
// Queue layout ("Callback Queue", owned by a third-party intake tool; we must
// not rewrite columns we do not manage):
//
//	A=created_at B=caller C=tag D=status E=assigned_to F=notes G=call_sid
//	H=called_number I=digits
type layout interface {
	// dataRange addresses all data rows (row 2 down).
	dataRange(tab string) string
	// idColumn is the 0-based column holding the lead identity.
	idColumn() int
	// toLead maps a raw row to the canonical shape. ok=false drops the row.
	toLead(row []string, rowIndex int) (l Lead, ok bool)
	// writes produces the ledger writes for an already-patched lead.
	writes(tab string, l Lead, p Patch) []ValueWrite
}

// ValueWrite is one range-addressed cell/row write.
type ValueWrite struct {
	Range  string
	Values [][]string
}

// headerRow column names for the native records tab.
var leadHeaders = []string{
	"id", "createdAt", "name", "phone", "reason",
	"status", "calledAt", "calledBy", "notes", "lastUpdatedAt",
}

// logHeaders column names for the audit log tab.
var logHeaders = []string{
	"logId", "timestamp", "leadId", "action",
	"affiliatePhone", "details", "twilioCallSid",
}

// isQueueTab reports whether the tab name selects the foreign queue layout.
func isQueueTab(tab string) bool {
	return strings.ToLower(strings.Join(strings.Fields(tab), "")) == "callbackqueue"
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// tabRef quotes tab names containing spaces for A1-notation ranges.
func tabRef(tab string) string {
	if strings.ContainsAny(tab, " '") {
		return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
	}
	return tab
}

// colLetter converts a 1-based column number to its letter (1=A, 26=Z, 27=AA).
func colLetter(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+n%26)) + s
		n /= 26
	}
	return s
}

/* ===================== native layout ===================== */

type nativeLayout struct{}

func (nativeLayout) dataRange(tab string) string { return tabRef(tab) + "!A2:J" }

func (nativeLayout) idColumn() int { return 0 }

func (nativeLayout) toLead(row []string, rowIndex int) (Lead, bool) {
	status := cell(row, 5)
	if status == "" {
		status = StatusPending
	}
	return Lead{
		ID:            cell(row, 0),
		CreatedAt:     cell(row, 1),
		Name:          cell(row, 2),
		Phone:         cell(row, 3),
		Reason:        cell(row, 4),
		Status:        status,
		CalledAt:      cell(row, 6),
		CalledBy:      cell(row, 7),
		Notes:         cell(row, 8),
		LastUpdatedAt: cell(row, 9),
		rowIndex:      rowIndex,
	}, true
}

func leadToRow(l Lead) []string {
	return []string{
		l.ID, l.CreatedAt, l.Name, l.Phone, l.Reason,
		l.Status, l.CalledAt, l.CalledBy, l.Notes, l.LastUpdatedAt,
	}
}

// writes rewrites the whole row; every column belongs to us.
func (nativeLayout) writes(tab string, l Lead, _ Patch) []ValueWrite {
	rng := fmt.Sprintf("%s!A%d:J%d", tabRef(tab), l.rowIndex, l.rowIndex)
	return []ValueWrite{{Range: rng, Values: [][]string{leadToRow(l)}}}
}

/* ===================== queue layout ===================== */

type queueLayout struct{}

func (queueLayout) dataRange(tab string) string { return tabRef(tab) + "!A2:I" }

func (queueLayout) idColumn() int { return 6 }

// syntheticID is the identity given to queue rows whose call_sid column is
// empty; it resolves back to the row by position.
func syntheticID(rowIndex int) string {
	return fmt.Sprintf("row-%d", rowIndex)
}

// parseSyntheticID extracts the row index from a "row-N" identity.
func parseSyntheticID(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, "row-")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (queueLayout) toLead(row []string, rowIndex int) (Lead, bool) {
	caller := strings.TrimSpace(cell(row, 1))
	p := ""
	if caller != "" {
		if strings.HasPrefix(caller, "+") {
			p = caller
		} else {
			p = "+" + caller
		}
	}

	status := strings.TrimSpace(cell(row, 3))
	if strings.ToUpper(status) == "NEW" {
		status = StatusPending
	} else if status == "" {
		status = StatusPending
	} else {
		status = strings.ToLower(status)
	}

	id := strings.TrimSpace(cell(row, 6))
	if id == "" {
		id = syntheticID(rowIndex)
	}

	name := "Lead"
	if tag := cell(row, 2); tag != "" {
		name = "Lead (" + tag + ")"
	}

	l := Lead{
		ID:            id,
		CreatedAt:     cell(row, 0),
		Name:          name,
		Phone:         p,
		Reason:        cell(row, 2),
		Status:        status,
		CalledBy:      cell(row, 4),
		Notes:         cell(row, 5),
		LastUpdatedAt: cell(row, 0),
		rowIndex:      rowIndex,
	}
	return l, l.Phone != "" || l.ID != ""
}

// writes touches only the cells we own (status D, assigned_to E, notes F);
// the intake tool's columns stay untouched.
func (queueLayout) writes(tab string, l Lead, p Patch) []ValueWrite {
	var out []ValueWrite
	ref := tabRef(tab)
	if p.Status != nil {
		status := l.Status
		if status == StatusPending {
			status = "NEW"
		}
		out = append(out, ValueWrite{
			Range:  fmt.Sprintf("%s!D%d", ref, l.rowIndex),
			Values: [][]string{{status}},
		})
	}
	if p.CalledBy != nil {
		out = append(out, ValueWrite{
			Range:  fmt.Sprintf("%s!E%d", ref, l.rowIndex),
			Values: [][]string{{l.CalledBy}},
		})
	}
	if p.Notes != nil {
		out = append(out, ValueWrite{
			Range:  fmt.Sprintf("%s!F%d", ref, l.rowIndex),
			Values: [][]string{{l.Notes}},
		})
	}
	return out
}
