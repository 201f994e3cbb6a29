package library

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/mrlokans/bookshelf/internal/entities"
)

const (
	MinYear   = 1000
	MaxRating = 5
)

// ValidationErrors maps a JSON field name to what is wrong with it.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, v[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type nowKey struct{}

var bookValidator = newBookValidator()

// newBookValidator checks the validate tags on entities.Book plus the rules
// that depend on more than one field or on the current date.
func newBookValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
		return isHTTPURL(fl.Field().String())
	})
	_ = v.RegisterValidation("readingstatus", func(fl validator.FieldLevel) bool {
		return entities.ReadingStatus(fl.Field().String()).Valid()
	})
	v.RegisterStructValidationCtx(validateBookLevel, entities.Book{})
	return v
}

func validateBookLevel(ctx context.Context, sl validator.StructLevel) {
	b := sl.Current().Interface().(entities.Book)

	now, ok := ctx.Value(nowKey{}).(time.Time)
	if !ok {
		now = time.Now()
	}
	maxYear := now.Year() + 10
	if b.Year != 0 && (b.Year < MinYear || b.Year > maxYear) {
		sl.ReportError(b.Year, "year", "Year", "yearrange", fmt.Sprintf("%d and %d", MinYear, maxYear))
	}

	if b.CurrentPage >= 0 && b.Pages > 0 && b.CurrentPage > b.Pages {
		sl.ReportError(b.CurrentPage, "currentPage", "CurrentPage", "ltepages", "")
	}
}

// ValidateBook checks the invariants every stored book must satisfy.
func ValidateBook(b *entities.Book) error {
	return validateBookAt(b, time.Now())
}

func validateBookAt(b *entities.Book, now time.Time) error {
	ctx := context.WithValue(context.Background(), nowKey{}, now)
	err := bookValidator.StructCtx(ctx, b)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	errs := ValidationErrors{}
	for _, fe := range fieldErrs {
		if _, seen := errs[fe.Field()]; !seen {
			errs[fe.Field()] = fieldMessage(fe)
		}
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fe.Field() + " is required"
	case "gte":
		return fe.Field() + " must not be negative"
	case "lte":
		return fmt.Sprintf("%s must be between 0 and %s", fe.Field(), fe.Param())
	case "yearrange":
		return "year must be between " + fe.Param()
	case "ltepages":
		return "currentPage cannot exceed pages"
	case "httpurl":
		return fe.Field() + " must be an http(s) URL"
	case "readingstatus":
		return "unknown reading status"
	default:
		return fe.Field() + " is invalid"
	}
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Normalize trims free-text fields in place and syncs Genre with Genres.
func Normalize(b *entities.Book) {
	b.Title = strings.TrimSpace(b.Title)
	b.Author = strings.TrimSpace(b.Author)
	b.ISBN = strings.TrimSpace(b.ISBN)
	b.Cover = strings.TrimSpace(b.Cover)
	b.SetGenreNames(b.GenreNames())
}
