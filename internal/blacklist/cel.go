package blacklist

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// Rule is one administrator-authored blocking predicate: a CEL expression
// over `event_type` and `app` that evaluates to true when consumption
// should be blocked. Adapted from the teacher's celFilter
// (internal/services/streams/celfilter.go), repurposed from payload
// filtering to blacklist evaluation.
type Rule struct {
	ID         string
	Expression string
}

type compiledRule struct {
	id   string
	expr string
	prog cel.Program
}

// CELChecker evaluates a set of compiled CEL rules against every
// (eventType, consumingApp) pair; Blocked reports true if any rule
// matches. Safe for concurrent reads via an RWMutex guarding the rule
// slice; Put/Remove take the write lock only to swap it out.
type CELChecker struct {
	env *cel.Env

	mu    sync.RWMutex
	rules []compiledRule
}

// NewCELChecker builds an empty checker. Rules are added with Put.
func NewCELChecker() (*CELChecker, error) {
	env, err := cel.NewEnv(
		cel.Variable("event_type", cel.StringType),
		cel.Variable("app", cel.StringType),
	)
	if err != nil {
		return nil, err
	}
	return &CELChecker{env: env}, nil
}

// Blocked evaluates every installed rule; the first match blocks. When no
// rule matches (or none are installed), consumption is allowed.
func (c *CELChecker) Blocked(_ context.Context, eventType, consumingApp string) bool {
	c.mu.RLock()
	rules := c.rules
	c.mu.RUnlock()

	for _, r := range rules {
		out, _, err := r.prog.Eval(map[string]any{
			"event_type": eventType,
			"app":        consumingApp,
		})
		if err != nil {
			continue
		}
		if b, ok := out.Value().(bool); ok && b {
			return true
		}
	}
	return false
}

// Put compiles and installs (or replaces) the rule with the given id.
func (c *CELChecker) Put(id, expression string) error {
	ast, iss := c.env.Parse(expression)
	if iss != nil && iss.Err() != nil {
		return fmt.Errorf("blacklist: parse rule %q: %w", id, iss.Err())
	}
	checked, iss2 := c.env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return fmt.Errorf("blacklist: check rule %q: %w", id, iss2.Err())
	}
	prog, err := c.env.Program(checked)
	if err != nil {
		return fmt.Errorf("blacklist: compile rule %q: %w", id, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.rules {
		if existing.id == id {
			next := append([]compiledRule(nil), c.rules...)
			next[i] = compiledRule{id: id, expr: expression, prog: prog}
			c.rules = next
			return nil
		}
	}
	c.rules = append(c.rules, compiledRule{id: id, expr: expression, prog: prog})
	return nil
}

// Remove uninstalls the rule with the given id, if present.
func (c *CELChecker) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.rules {
		if existing.id == id {
			next := append([]compiledRule(nil), c.rules[:i]...)
			c.rules = append(next, c.rules[i+1:]...)
			return
		}
	}
}

// Rules returns the currently installed rules, for administrative listing.
func (c *CELChecker) Rules() []Rule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = Rule{ID: r.id, Expression: r.expr}
	}
	return out
}
