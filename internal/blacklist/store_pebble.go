package blacklist

import (
	"encoding/json"

	"github.com/cockroachdb/pebble"

	pebblestore "github.com/streamhub/streamhub/internal/storage/pebble"
)

var rulePrefix = []byte("blacklist/rule/")

func ruleKey(id string) []byte {
	return append(append([]byte(nil), rulePrefix...), id...)
}

// PebbleRuleStore persists Rule definitions so a CELChecker can be
// rebuilt across restarts. It is deliberately separate from CELChecker:
// the store owns durability, the checker owns compiled-program
// evaluation, matching the store/engine split used throughout this
// repository (e.g. subscription.PebbleStore vs. subscription.Service).
type PebbleRuleStore struct {
	db *pebblestore.DB
}

// NewPebbleRuleStore wraps db as a rule store.
func NewPebbleRuleStore(db *pebblestore.DB) *PebbleRuleStore {
	return &PebbleRuleStore{db: db}
}

// Put persists a rule definition.
func (s *PebbleRuleStore) Put(rule Rule) error {
	payload, err := json.Marshal(rule)
	if err != nil {
		return err
	}
	return s.db.Set(ruleKey(rule.ID), payload)
}

// Remove deletes a persisted rule, tolerating an already-absent id.
func (s *PebbleRuleStore) Remove(id string) error {
	if err := s.db.Delete(ruleKey(id)); err != nil && err != pebble.ErrNotFound {
		return err
	}
	return nil
}

// LoadAll reads every persisted rule, for use at startup to rebuild a
// CELChecker via repeated Put calls.
func (s *PebbleRuleStore) LoadAll() ([]Rule, error) {
	it, err := s.db.NewIter(&pebble.IterOptions{LowerBound: rulePrefix, UpperBound: prefixUpperBound(rulePrefix)})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var rules []Rule
	for it.First(); it.Valid(); it.Next() {
		var r Rule
		if err := json.Unmarshal(it.Value(), &r); err != nil {
			continue
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func prefixUpperBound(prefix []byte) []byte {
	ub := append([]byte(nil), prefix...)
	for i := len(ub) - 1; i >= 0; i-- {
		if ub[i] != 0xff {
			ub[i]++
			return ub[:i+1]
		}
	}
	return nil
}
