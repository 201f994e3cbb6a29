// Package genres reconciles the different shapes genre data arrives in.
//
// Depending on where a book came from, its genres can be a plain string
// ("Fantasia"), a numeric id (3), an object ({"id": 3, "name": "Fantasia"}),
// or an array mixing any of those. Normalize flattens all of them into an
// ordered, de-duplicated []Ref.
package genres

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/mrlokans/bookshelf/internal/entities"
)

var (
	ErrInvalidGenre = errors.New("invalid genre value")
	ErrUnknownGenre = errors.New("unknown genre")
)

// Ref points at a genre by id, by name, or both.
type Ref struct {
	ID   uint   `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// Refs decodes any supported genre shape from JSON.
type Refs []Ref

func (r *Refs) UnmarshalJSON(data []byte) error {
	refs, err := Normalize(data)
	if err != nil {
		return err
	}
	*r = refs
	return nil
}

// Normalize parses raw JSON genre data into references.
// null and empty input produce an empty, non-nil slice.
func Normalize(raw []byte) (Refs, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Refs{}, nil
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidGenre)
	}

	var refs Refs
	if err := collect(gjson.ParseBytes(raw), &refs); err != nil {
		return nil, err
	}
	return Merge(refs), nil
}

func collect(value gjson.Result, out *Refs) error {
	switch {
	case value.IsArray():
		var err error
		value.ForEach(func(_, item gjson.Result) bool {
			err = collect(item, out)
			return err == nil
		})
		return err
	case value.IsObject():
		ref := Ref{Name: cleanName(value.Get("name").String())}
		if id := value.Get("id"); id.Type == gjson.Number && id.Int() > 0 {
			ref.ID = uint(id.Int())
		}
		if ref.ID != 0 || ref.Name != "" {
			*out = append(*out, ref)
		}
		return nil
	case value.Type == gjson.String:
		if name := cleanName(value.Str); name != "" {
			*out = append(*out, Ref{Name: name})
		}
		return nil
	case value.Type == gjson.Number:
		if value.Int() <= 0 {
			return fmt.Errorf("%w: id %s", ErrInvalidGenre, value.Raw)
		}
		*out = append(*out, Ref{ID: uint(value.Int())})
		return nil
	case value.Type == gjson.Null:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidGenre, value.Raw)
	}
}

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if name == entities.NoGenre {
		return ""
	}
	return name
}

// Merge concatenates reference lists, keeping first-seen order. A ref that
// matches an earlier one by id or by case-insensitive name is dropped, and
// fills in the id or name the earlier one lacked.
func Merge(lists ...Refs) Refs {
	byID := make(map[uint]int)
	byName := make(map[string]int)
	merged := Refs{}
	for _, list := range lists {
		for _, ref := range list {
			name := strings.ToLower(ref.Name)
			pos, found := -1, false
			if ref.ID != 0 {
				pos, found = byID[ref.ID]
			}
			if !found && name != "" {
				pos, found = byName[name]
			}
			if !found {
				pos = len(merged)
				merged = append(merged, ref)
			} else {
				if merged[pos].ID == 0 {
					merged[pos].ID = ref.ID
				}
				if merged[pos].Name == "" {
					merged[pos].Name = ref.Name
				}
			}
			if id := merged[pos].ID; id != 0 {
				if _, ok := byID[id]; !ok {
					byID[id] = pos
				}
			}
			if n := strings.ToLower(merged[pos].Name); n != "" {
				if _, ok := byName[n]; !ok {
					byName[n] = pos
				}
			}
		}
	}
	return merged
}

// Names returns the non-empty names in order.
func Names(refs Refs) []string {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.Name != "" {
			names = append(names, ref.Name)
		}
	}
	return names
}

// ResolveNames turns every reference into a name, looking ids up in the
// catalogue. Names are passed through even if the catalogue lacks them.
func ResolveNames(refs Refs, catalogue []entities.Genre) ([]string, error) {
	names := make([]string, 0, len(refs))
	seen := make(map[string]bool)
	for _, ref := range refs {
		name := ref.Name
		if name == "" {
			g, ok := findByID(catalogue, ref.ID)
			if !ok {
				return nil, fmt.Errorf("%w: id %d", ErrUnknownGenre, ref.ID)
			}
			name = g.Name
		}
		if seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		names = append(names, name)
	}
	return names, nil
}

// Resolve maps references onto catalogue entries. Every reference must
// exist in the catalogue.
func Resolve(refs Refs, catalogue []entities.Genre) ([]entities.Genre, error) {
	resolved := make([]entities.Genre, 0, len(refs))
	seen := make(map[uint]bool)
	for _, ref := range refs {
		var (
			g  entities.Genre
			ok bool
		)
		if ref.Name != "" {
			g, ok = entities.FindGenre(catalogue, ref.Name)
		} else {
			g, ok = findByID(catalogue, ref.ID)
		}
		if !ok {
			if ref.Name != "" {
				return nil, fmt.Errorf("%w: %s", ErrUnknownGenre, ref.Name)
			}
			return nil, fmt.Errorf("%w: id %d", ErrUnknownGenre, ref.ID)
		}
		if seen[g.ID] {
			continue
		}
		seen[g.ID] = true
		resolved = append(resolved, g)
	}
	return resolved, nil
}

// FromNames wraps plain names as references.
func FromNames(names []string) Refs {
	refs := make(Refs, 0, len(names))
	for _, n := range names {
		if n = cleanName(n); n != "" {
			refs = append(refs, Ref{Name: n})
		}
	}
	return Merge(refs)
}

func findByID(catalogue []entities.Genre, id uint) (entities.Genre, bool) {
	for _, g := range catalogue {
		if g.ID == id {
			return g, true
		}
	}
	return entities.Genre{}, false
}
