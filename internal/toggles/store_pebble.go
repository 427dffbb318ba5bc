package toggles

import (
	"context"
	"strconv"

	"github.com/cockroachdb/pebble"

	pebblestore "github.com/streamhub/streamhub/internal/storage/pebble"
)

var togglePrefix = []byte("toggle/")

func toggleKey(name string) []byte {
	return append(append([]byte(nil), togglePrefix...), name...)
}

// PebbleOverride layers an admin-settable override on top of a set of
// static defaults: Enabled consults the store first, falling back to the
// default when no override has been persisted. Set lets a gate be flipped
// at runtime without a restart, the same
// get-with-fallback shape as the teacher's namespace metadata lookup.
type PebbleOverride struct {
	db       *pebblestore.DB
	defaults Static
}

// NewPebbleOverride wraps db with the given defaults.
func NewPebbleOverride(db *pebblestore.DB, defaults Static) *PebbleOverride {
	return &PebbleOverride{db: db, defaults: defaults}
}

func (p *PebbleOverride) Enabled(_ context.Context, name string) bool {
	if b, err := p.db.Get(toggleKey(name)); err == nil {
		if v, err := strconv.ParseBool(string(b)); err == nil {
			return v
		}
	}
	return p.defaults[name]
}

// Set persists an override for name, taking effect immediately for every
// subsequent Enabled call.
func (p *PebbleOverride) Set(name string, value bool) error {
	return p.db.Set(toggleKey(name), []byte(strconv.FormatBool(value)))
}

// Clear removes a persisted override, reverting to the static default.
func (p *PebbleOverride) Clear(name string) error {
	if err := p.db.Delete(toggleKey(name)); err != nil && err != pebble.ErrNotFound {
		return err
	}
	return nil
}
