package menu

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/edumanage/edumanage/core"
)

const maxLoggedPayload = 256

var (
	// ErrNotArray is returned by DecodeRecords for payloads that are valid JSON but not an array.
	ErrNotArray = errors.New("menu payload is not an array")

	errNullRecord = errors.New("null record")
)

// RecordError reports an array element that could not be decoded as a record.
type RecordError struct {
	Index int
	Raw   string
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("menu record #%d: %v", e.Index, e.Err)
}

// DecodeRecords decodes a JSON array of menu records element by element.
// Elements that do not decode are left out and reported in `skipped`; err is
// only set when the payload as a whole is unusable (invalid JSON or ErrNotArray).
func DecodeRecords(raw []byte) (records []Record, skipped []*RecordError, err error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		if len(trimmed) > 0 && !json.Valid(trimmed) {
			return nil, nil, errors.New("menu payload is not valid JSON")
		}
		return nil, nil, ErrNotArray
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, nil, errors.Wrap(err, "decoding menu payload")
	}

	records = make([]Record, 0, len(elems))
	for i, elem := range elems {
		if bytes.Equal(bytes.TrimSpace(elem), []byte("null")) {
			skipped = append(skipped, &RecordError{Index: i, Raw: "null", Err: errNullRecord})
			continue
		}
		var rec Record
		if err := json.Unmarshal(elem, &rec); err != nil {
			skipped = append(skipped, &RecordError{Index: i, Raw: excerpt(elem), Err: err})
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

// Normalize decodes a raw menu list. Anything that is not a JSON array of
// menu records yields an empty list and a warning, never an error. Elements
// that do not decode are dropped with a warning each; the rest is kept.
func Normalize(raw []byte, logger core.Logger) []*Item {
	records, skipped, err := DecodeRecords(raw)
	if err != nil {
		logger.Warn(err.Error(), err, map[string]interface{}{"payload": excerpt(bytes.TrimSpace(raw))})
		return []*Item{}
	}
	for _, rerr := range skipped {
		logger.Warn("menu record skipped", rerr, map[string]interface{}{"record": rerr.Raw})
	}
	return NormalizeRecords(records)
}

// NormalizeRecords maps each record to an Item.
// Order precedence: sortOrder, displayOrder, order, 0.
// Parent precedence: parentMenuId, parentId, none.
func NormalizeRecords(records []Record) []*Item {
	items := make([]*Item, 0, len(records))
	for _, rec := range records {
		items = append(items, normalize(rec))
	}
	return items
}

func normalize(rec Record) *Item {
	return &Item{
		ID:          rec.ID,
		Name:        rec.Name,
		DisplayName: displayName(rec),
		Description: rec.Description,
		Icon:        strings.TrimSpace(rec.Icon),
		Route:       strings.TrimSpace(rec.Route),
		ParentID:    resolveParent(rec.ParentMenuID, rec.ParentID),
		Order:       resolveOrder(rec.SortOrder, rec.DisplayOrder, rec.Order),
		Children:    []*Item{},
	}
}

func displayName(rec Record) string {
	for _, name := range []string{rec.DisplayName, rec.Name, rec.ID} {
		if strings.TrimSpace(name) != "" {
			return name
		}
	}
	return ""
}

func resolveOrder(hints ...*int) int {
	for _, hint := range hints {
		if hint != nil {
			return *hint
		}
	}
	return 0
}

func resolveParent(refs ...*string) *string {
	for _, ref := range refs {
		if ref != nil {
			// an empty reference means root as well
			return core.StringPtr(*ref)
		}
	}
	return nil
}

// Sort orders a sibling list in place: order ascending, then display name
// (case-insensitive), then id so that the order stays total.
func Sort(items []*Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return less(items[i], items[j])
	})
}

func less(a, b *Item) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	an, bn := strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName)
	if an != bn {
		return an < bn
	}
	return a.ID < b.ID
}

func excerpt(raw []byte) string {
	if len(raw) > maxLoggedPayload {
		return string(raw[:maxLoggedPayload]) + "..."
	}
	return string(raw)
}
