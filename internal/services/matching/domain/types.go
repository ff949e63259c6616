// Package domain defines the types and interfaces for the matching service
package domain

// RegisteredEntity is a read only snapshot of a registry record
type RegisteredEntity struct {
	ID            int64
	Name          string
	Email         string
	Phone         string
	ContactPerson string
	Aliases       []string
}

// MatchField names the entity field a candidate or exact match was found on
type MatchField string

// MatchField values
const (
	MatchedByName  MatchField = "name"
	MatchedByAlias MatchField = "alias"
)

// Source tells where a candidate came from
type Source string

// Source values
const (
	SourceRegistry Source = "registry"
	SourceFallback Source = "fallback"
)

// Candidate is a non exact entity ranked against one query name
type Candidate struct {
	Entity     RegisteredEntity
	Similarity float64
	Distance   int
	MatchedBy  MatchField
	Source     Source

	// Ref is the synthetic identifier of a fallback candidate, empty for registry ones
	Ref string
}

// Synthetic reports whether the candidate must not be used as a registry key
func (c Candidate) Synthetic() bool { return c.Source == SourceFallback }

// Role labels which side of a purchase order a name was submitted for
type Role string

// Role values
const (
	RoleVendor   Role = "vendor"
	RoleDelivery Role = "delivery"
)

// ResolutionResult is the outcome of resolving one name
type ResolutionResult struct {
	QueryName   string
	Role        Role
	Exists      bool
	ExactMatch  *RegisteredEntity
	MatchedBy   MatchField
	Suggestions []Candidate

	// Degraded is true when suggestions came from the static fallback pool
	Degraded bool
}

// ConflictType classifies an email comparison
type ConflictType string

// ConflictType values
const (
	Conflict   ConflictType = "conflict"
	NoConflict ConflictType = "no_conflict"
)

// EmailConflict is the outcome of comparing a spreadsheet email with the registry
type EmailConflict struct {
	Type             ConflictType
	QueryName        string
	SpreadsheetEmail string
	RegistryEmail    string
	EntityID         *int64
	EntityName       string
}

// BatchRow is one spreadsheet row to validate
type BatchRow struct {
	VendorName   string `json:"vendor_name" validate:"max=255"`
	DeliveryName string `json:"delivery_name" validate:"max=255"`
	Email        string `json:"email" validate:"max=255"`
}

// BatchValidationReport aggregates every resolution of a batch
type BatchValidationReport struct {
	VendorResults   []ResolutionResult
	DeliveryResults []ResolutionResult
	EmailConflicts  []EmailConflict
}

// Conflicts counts entries that need user attention
func (r BatchValidationReport) Conflicts() int {
	n := 0
	for _, c := range r.EmailConflicts {
		if c.Type == Conflict {
			n++
		}
	}
	return n
}

// Unresolved counts vendor and delivery names without an exact match
func (r BatchValidationReport) Unresolved() int {
	n := 0
	for _, rr := range r.VendorResults {
		if !rr.Exists {
			n++
		}
	}
	for _, rr := range r.DeliveryResults {
		if !rr.Exists {
			n++
		}
	}
	return n
}
