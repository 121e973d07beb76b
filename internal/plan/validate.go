package plan

import (
	"fmt"
	"strings"
)

// ValidationError represents a specific validation failure in a profile.
type ValidationError struct {
	// Field is the profile field that failed validation (e.g., "system.required").
	Field string

	// Message describes what's wrong with the field value.
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("profile validation error: %s: %s", e.Field, e.Message)
}

// Validate checks a profile for structural problems and returns every
// problem found. An empty slice means the profile is usable.
func (p *Profile) Validate() []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(p.Requirements) == "" {
		errs = append(errs, ValidationError{
			Field:   "requirements",
			Message: "a requirements manifest path is required",
		})
	}
	if len(p.System.Required) == 0 {
		errs = append(errs, ValidationError{
			Field:   "system.required",
			Message: "at least one required system package must be listed",
		})
	}
	if !strings.HasPrefix(p.LegacyVersion, p.LegacyMajor+".") {
		errs = append(errs, ValidationError{
			Field:   "legacyVersion",
			Message: fmt.Sprintf("%q is not a %s.x version", p.LegacyVersion, p.LegacyMajor),
		})
	}

	sets := []struct {
		field string
		pkgs  []string
	}{
		{"system.required", p.System.Required},
		{"system.optional", p.System.Optional},
		{"python.backport", p.Python.Backport},
		{"python.optional", p.Python.Optional},
		{"python.optionalPy2", p.Python.OptionalPy2},
		{"python.legacyPy2", p.Python.LegacyPy2},
		{"python.currentPy2", p.Python.CurrentPy2},
	}
	for _, s := range sets {
		errs = append(errs, validatePackageSet(s.field, s.pkgs)...)
	}

	return errs
}

// validatePackageSet rejects blank names, names that look like flags, and
// duplicates within one set.
func validatePackageSet(field string, pkgs []string) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(pkgs))
	for i, pkg := range pkgs {
		name := strings.TrimSpace(pkg)
		switch {
		case name == "":
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Message: "package name must not be empty",
			})
			continue
		case strings.HasPrefix(name, "-"):
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Message: fmt.Sprintf("%q looks like a flag, not a package", name),
			})
			continue
		}
		if seen[name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Message: fmt.Sprintf("duplicate package %q", name),
			})
		}
		seen[name] = true
	}
	return errs
}
