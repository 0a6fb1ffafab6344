package search

import (
	"encoding/base64"
	"encoding/json"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/search/result"
)

// cursorState is everything needed to continue a scroll in any process.
// CursorID zero marks an exhausted scroll.
type cursorState struct {
	Index     string   `json:"ix"`
	CursorID  int64    `json:"cid"`
	Count     int      `json:"n"`
	Highlight bool     `json:"hl,omitempty"`
	Fields    []string `json:"f,omitempty"`
	Queries   []string `json:"q,omitempty"`
}

func encodeCursor(s cursorState) (result.Cursor, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return result.Cursor(base64.RawURLEncoding.EncodeToString(b)), nil
}

func decodeCursor(c result.Cursor) (cursorState, error) {
	b, err := base64.RawURLEncoding.DecodeString(string(c))
	if err != nil {
		return cursorState{}, domain.Invalid("malformed scroll_id")
	}
	var s cursorState
	if err := json.Unmarshal(b, &s); err != nil {
		return cursorState{}, domain.Invalid("malformed scroll_id")
	}
	if s.Index == "" || s.Count <= 0 {
		return cursorState{}, domain.Invalid("malformed scroll_id")
	}
	return s, nil
}
