package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

// ErrInvalidCursor: битый курсор от клиента.
var ErrInvalidCursor = fmt.Errorf("%w: invalid cursor", domain.ErrInvalidInput)

// Cursor: позиция в списке, упорядоченном по (updated_at DESC, id DESC).
type Cursor struct {
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
}

func Encode(c Cursor) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func Decode(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: decode base64: %v", ErrInvalidCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: decode json: %v", ErrInvalidCursor, err)
	}
	return &c, nil
}

// After: строго ли (updatedAt, id) идёт после курсора в порядке DESC.
func (c *Cursor) After(updatedAt time.Time, id string) bool {
	if c == nil {
		return true
	}
	if updatedAt.Before(c.UpdatedAt) {
		return true
	}
	return updatedAt.Equal(c.UpdatedAt) && id < c.ID
}

// Next: курсор на следующую страницу, если текущая заполнена целиком.
func Next(n, limit int, updatedAt time.Time, id string) string {
	if n < limit || n == 0 {
		return ""
	}
	s, _ := Encode(Cursor{UpdatedAt: updatedAt, ID: id})
	return s
}
