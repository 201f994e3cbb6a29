package http

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/genres"
)

var registerValidatorsOnce sync.Once

// registerValidators adds the notblank and readingstatus tags to gin's
// validator and makes it report fields by their JSON names.
func registerValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		_ = v.RegisterValidation("readingstatus", func(fl validator.FieldLevel) bool {
			_, err := entities.ParseReadingStatus(fl.Field().String())
			return err == nil
		})
	})
}

// bindingDetails turns validator errors into field → message pairs.
func bindingDetails(err error) (map[string]string, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = validationMessage(fe)
	}
	return details, true
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "readingstatus":
		return "unknown reading status"
	case "notblank":
		return "must not be blank"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

// bookRequest is the body of create, replace and patch requests. Absent
// fields stay nil so a patch leaves them untouched. Genres may arrive as
// genre, genres or genreIds in any shape the genres package accepts.
type bookRequest struct {
	Title       *string      `json:"title"`
	Author      *string      `json:"author"`
	Genre       *genres.Refs `json:"genre"`
	Genres      *genres.Refs `json:"genres"`
	GenreIDs    *genres.Refs `json:"genreIds"`
	Year        *int         `json:"year" binding:"omitempty,gte=0"`
	Pages       *int         `json:"pages" binding:"omitempty,gte=0"`
	CurrentPage *int         `json:"currentPage" binding:"omitempty,gte=0"`
	Rating      *int         `json:"rating" binding:"omitempty,gte=0,lte=5"`
	Cover       *string      `json:"cover"`
	Synopsis    *string      `json:"synopsis"`
	Notes       *string      `json:"notes"`
	ISBN        *string      `json:"isbn"`
	Status      *string      `json:"status" binding:"omitempty,readingstatus"`
}

// hasGenres reports whether any genre field was sent.
func (r *bookRequest) hasGenres() bool {
	return r.Genre != nil || r.Genres != nil || r.GenreIDs != nil
}

func (r *bookRequest) genreRefs() genres.Refs {
	var lists []genres.Refs
	for _, refs := range []*genres.Refs{r.Genres, r.Genre, r.GenreIDs} {
		if refs != nil {
			lists = append(lists, *refs)
		}
	}
	return genres.Merge(lists...)
}

// apply copies the sent fields onto b and reports whether the status was
// chosen explicitly.
func (r *bookRequest) apply(ctx context.Context, b *entities.Book, catalogue GenreCatalogue) (bool, error) {
	setString(&b.Title, r.Title)
	setString(&b.Author, r.Author)
	setInt(&b.Year, r.Year)
	setInt(&b.Pages, r.Pages)
	setInt(&b.CurrentPage, r.CurrentPage)
	setInt(&b.Rating, r.Rating)
	setString(&b.Cover, r.Cover)
	setString(&b.Synopsis, r.Synopsis)
	setString(&b.Notes, r.Notes)
	setString(&b.ISBN, r.ISBN)

	if r.hasGenres() {
		names, err := resolveGenreNames(ctx, r.genreRefs(), catalogue)
		if err != nil {
			return false, err
		}
		b.SetGenreNames(names)
	}

	if r.Status == nil {
		return false, nil
	}
	status, err := entities.ParseReadingStatus(*r.Status)
	if err != nil {
		return false, err
	}
	b.Status = status
	return true, nil
}

// resolveGenreNames only asks the store for its catalogue when a genre was
// referenced by id.
func resolveGenreNames(ctx context.Context, refs genres.Refs, catalogue GenreCatalogue) ([]string, error) {
	byID := false
	for _, ref := range refs {
		if ref.Name == "" {
			byID = true
			break
		}
	}
	if !byID {
		return genres.Names(refs), nil
	}

	list, err := catalogue.ListGenres(ctx)
	if err != nil {
		return nil, err
	}
	return genres.ResolveNames(refs, list)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

type progressRequest struct {
	CurrentPage *int `json:"currentPage" binding:"required,gte=0"`
}

type genreRequest struct {
	Name string `json:"name" binding:"required,notblank"`
}
