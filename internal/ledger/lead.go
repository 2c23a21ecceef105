package ledger

// Lead is one callback request row in the records tab.
//
// Leads are created outside this service (the intake form writes straight to
// the sheet). We read and mutate them, never delete.
//
// rowIndex is the 1-based physical sheet row (header = 1, first data row = 2).
// It exists only to target writes and is zeroed on anything returned to
// callers.
type Lead struct {
	ID            string `json:"id"`
	CreatedAt     string `json:"createdAt"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Reason        string `json:"reason"`
	Status        string `json:"status"`
	CalledAt      string `json:"calledAt"`
	CalledBy      string `json:"calledBy"`
	Notes         string `json:"notes"`
	LastUpdatedAt string `json:"lastUpdatedAt"`

	rowIndex int
}

// Canonical status vocabulary. The queue layout's native "NEW" is normalized
// to pending on read and written back as "NEW".
const (
	StatusPending = "pending"
	StatusCalled  = "called"
)

// Patch carries the mutable Lead fields. Nil means "leave unchanged".
type Patch struct {
	Status   *string
	Notes    *string
	CalledAt *string
	CalledBy *string
}

func (p Patch) empty() bool {
	return p.Status == nil && p.Notes == nil && p.CalledAt == nil && p.CalledBy == nil
}

// Filter selects and orders leads for listing.
type Filter struct {
	// Status matches the canonical status exactly; "" or "all" disables it.
	Status string
	// Query is a case-insensitive substring match on name, or a raw substring
	// match on phone.
	Query string
	// Sort is a Lead field name; defaults to createdAt.
	Sort string
	// Order is "asc" or "desc"; defaults to desc.
	Order string
}

func sortValue(l Lead, field string) string {
	switch field {
	case "id":
		return l.ID
	case "name":
		return l.Name
	case "phone":
		return l.Phone
	case "reason":
		return l.Reason
	case "status":
		return l.Status
	case "calledAt":
		return l.CalledAt
	case "calledBy":
		return l.CalledBy
	case "notes":
		return l.Notes
	case "lastUpdatedAt":
		return l.LastUpdatedAt
	default:
		return l.CreatedAt
	}
}
