package dictionary

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
)

var entryValidate *validator.Validate

var langCodeRe = regexp.MustCompile(`^[a-z]{2,3}([-_][A-Za-z0-9]+)*$`)

func init() {
	entryValidate = validator.New(validator.WithRequiredStructEnabled())
	entryValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = entryValidate.RegisterValidation("langcode", validateLangCode)
}

func validateLangCode(fl validator.FieldLevel) bool {
	return langCodeRe.MatchString(fl.Field().String())
}

// validateEntry checks an entry before it is written. Struct tags cover
// required fields and language codes; the rest is checked by hand.
func validateEntry(e *domain.Entry) error {
	if e == nil {
		return domain.NewValidationError("entry", "required")
	}

	var errs []domain.FieldError

	if err := entryValidate.Struct(e); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate entry: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, domain.FieldError{
				Field:   fieldPath(fe.Namespace()),
				Message: fieldMessage(fe),
			})
		}
	}

	if e.LexicalUnit != nil && e.LexicalUnit.First() == "" {
		errs = append(errs, domain.FieldError{Field: "lexical_unit", Message: "at least one form must be non-blank"})
	}

	seen := make(map[string]string)
	var walk func(prefix string, senses []domain.Sense)
	walk = func(prefix string, senses []domain.Sense) {
		for i, s := range senses {
			path := fmt.Sprintf("%s[%d]", prefix, i)
			if s.ID != "" {
				if prev, dup := seen[s.ID]; dup {
					errs = append(errs, domain.FieldError{
						Field:   path + ".id",
						Message: fmt.Sprintf("duplicate sense id %q (also %s)", s.ID, prev),
					})
				} else {
					seen[s.ID] = path
				}
			}
			walk(path+".subsenses", s.Subsenses)
		}
	}
	walk("senses", e.Senses)

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// fieldPath drops the root type name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "langcode":
		return fmt.Sprintf("invalid language code %q", fe.Value())
	default:
		return "failed " + fe.Tag() + " check"
	}
}
