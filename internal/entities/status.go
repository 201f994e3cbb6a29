package entities

import (
	"fmt"
	"strings"
)

// ReadingStatus describes where a reader is with a book.
type ReadingStatus string

const (
	StatusWantToRead ReadingStatus = "QUERO_LER"
	StatusReading    ReadingStatus = "LENDO"
	StatusFinished   ReadingStatus = "LIDO"
	StatusPaused     ReadingStatus = "PAUSADO"
	StatusAbandoned  ReadingStatus = "ABANDONADO"
)

var statusLabels = map[ReadingStatus]string{
	StatusWantToRead: "Quero Ler",
	StatusReading:    "Lendo",
	StatusFinished:   "Lido",
	StatusPaused:     "Pausado",
	StatusAbandoned:  "Abandonado",
}

// AllReadingStatuses returns every status in display order.
func AllReadingStatuses() []ReadingStatus {
	return []ReadingStatus{
		StatusWantToRead,
		StatusReading,
		StatusFinished,
		StatusPaused,
		StatusAbandoned,
	}
}

// ParseReadingStatus converts user input into a ReadingStatus (case-insensitive).
func ParseReadingStatus(value string) (ReadingStatus, error) {
	s := ReadingStatus(strings.ToUpper(strings.TrimSpace(value)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
	}
	return s, nil
}

// Valid reports whether s is one of the known statuses.
func (s ReadingStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the human readable name, or "Não definido" for unknown values.
func (s ReadingStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return "Não definido"
}
