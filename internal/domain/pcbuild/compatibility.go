// internal/domain/pcbuild/compatibility.go
package pcbuild

import "fmt"

// CompatibilityStatus summarizes a build's compatibility check
type CompatibilityStatus string

const (
	Compatible   CompatibilityStatus = "compatible"
	Incompatible CompatibilityStatus = "incompatible"
)

// Issue severities
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// RequiredCategories must each appear at least once in a complete build
var RequiredCategories = []string{
	CategoryCPU,
	CategoryMotherboard,
	CategoryRAM,
	CategoryPSU,
	CategoryCase,
}

// Issue is one finding of the compatibility check
type Issue struct {
	Category string `json:"category,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// CheckCompatibility verifies that every required category is present.
// Socket and form factor matching is not attempted.
func CheckCompatibility(components []Component) (CompatibilityStatus, []Issue) {
	if len(components) == 0 {
		return Incompatible, []Issue{{Message: "no components found in build", Severity: SeverityError}}
	}

	present := make(map[string]bool, len(components))
	for _, c := range components {
		present[c.Category] = true
	}

	var issues []Issue
	for _, cat := range RequiredCategories {
		if !present[cat] {
			issues = append(issues, Issue{
				Category: cat,
				Message:  fmt.Sprintf("missing required component: %s", cat),
				Severity: SeverityError,
			})
		}
	}

	if len(issues) > 0 {
		return Incompatible, issues
	}
	return Compatible, nil
}
