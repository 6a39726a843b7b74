package content

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidPost is returned when a record fails schema validation.
	ErrInvalidPost = errors.New("content: invalid post")
	// ErrDuplicateSlug is returned when two records share a slug.
	ErrDuplicateSlug = errors.New("content: duplicate slug")
	// ErrDuplicateID is returned when two records share an id.
	ErrDuplicateID = errors.New("content: duplicate id")
)

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var postValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New()

	v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return slugRegex.MatchString(value)
	})

	v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		_, err := ParseTime(value)
		return err == nil
	})

	return v
})

// Validate checks a single record against the post schema.
func Validate(p Post) error {
	err := postValidator().Struct(p)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", ErrInvalidPost, err)
	}
	fields := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, fe.Field()+" ("+fe.Tag()+")")
	}
	name := p.Slug
	if name == "" {
		name = p.Title
	}
	return fmt.Errorf("%w %q: %s", ErrInvalidPost, name, strings.Join(fields, ", "))
}

// ValidateAll validates every record and checks that slugs and ids are
// unique across the collection. All problems are reported together.
func ValidateAll(posts []Post) error {
	var errs []error
	slugs := make(map[string]struct{}, len(posts))
	ids := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		if err := Validate(p); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, ok := slugs[p.Slug]; ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateSlug, p.Slug))
		}
		slugs[p.Slug] = struct{}{}
		if _, ok := ids[p.ID]; ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateID, p.ID))
		}
		ids[p.ID] = struct{}{}
	}
	return errors.Join(errs...)
}
