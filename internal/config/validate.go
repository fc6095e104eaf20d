package config

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/heartmarshall/freedict-lookup/internal/domain"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	var errs []domain.FieldError

	if c.Timeout < 0 {
		errs = append(errs, domain.FieldError{Field: "timeout", Message: fmt.Sprintf("must be >= 0 (got %v)", c.Timeout)})
	}

	if c.Database.Enabled() && c.Database.BatchSize <= 0 {
		errs = append(errs, domain.FieldError{Field: "database.batch_size", Message: fmt.Sprintf("must be > 0 (got %d)", c.Database.BatchSize)})
	}

	errs = append(errs, validatePairs(c.Pairs)...)

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// validatePairs checks sources and output names. Two pairs whose outputs
// share a source language would write the same reverse file, and a reverse
// file may not overwrite another pair's forward output.
func validatePairs(pairs []domain.Pair) []domain.FieldError {
	var errs []domain.FieldError
	outputs := make(map[string]int, len(pairs))
	reverses := make(map[string]int, len(pairs))

	for i, p := range pairs {
		field := fmt.Sprintf("pairs[%d]", i)

		if strings.TrimSpace(p.Source) == "" {
			errs = append(errs, domain.FieldError{Field: field + ".source", Message: "required"})
		}
		if !strings.HasSuffix(p.Output, ".json") {
			errs = append(errs, domain.FieldError{Field: field + ".output", Message: fmt.Sprintf("must end in .json (got %q)", p.Output)})
			continue
		}
		if strings.ContainsAny(p.Output, `/\`) {
			errs = append(errs, domain.FieldError{Field: field + ".output", Message: "must be a file name, not a path"})
			continue
		}
		if _, err := language.ParseBase(domain.SourceLanguage(p.Output)); err != nil {
			errs = append(errs, domain.FieldError{Field: field + ".output", Message: fmt.Sprintf("unknown source language %q", domain.SourceLanguage(p.Output))})
		}

		if j, dup := outputs[p.Output]; dup {
			errs = append(errs, domain.FieldError{Field: field + ".output", Message: fmt.Sprintf("duplicate of pairs[%d]", j)})
			continue
		}
		outputs[p.Output] = i

		rev := p.ReverseName()
		if j, dup := reverses[rev]; dup {
			errs = append(errs, domain.FieldError{Field: field + ".output", Message: fmt.Sprintf("reverse table %s collides with pairs[%d]", rev, j)})
			continue
		}
		reverses[rev] = i
	}

	for i, p := range pairs {
		rev := p.ReverseName()
		if k, ok := reverses[rev]; !ok || k != i {
			continue
		}
		if j, clash := outputs[rev]; clash {
			errs = append(errs, domain.FieldError{Field: fmt.Sprintf("pairs[%d].output", i), Message: fmt.Sprintf("reverse table %s overwrites the output of pairs[%d]", rev, j)})
		}
	}

	return errs
}
