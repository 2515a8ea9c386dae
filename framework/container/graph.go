package container

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// graph is a snapshot of the declared dependency edges.
type graph struct {
	ids      []string
	edges    map[string][]string
	deferred map[string]bool
}

func (c *Container) snapshot() *graph {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g := &graph{
		edges:    make(map[string][]string, len(c.definitions)),
		deferred: make(map[string]bool, len(c.deferred)),
	}
	for id, def := range c.definitions {
		g.ids = append(g.ids, id)
		deps := make([]string, len(def.Dependencies))
		for i, dep := range def.Dependencies {
			deps[i] = c.canonical(dep)
		}
		g.edges[id] = deps
	}
	for id := range c.deferred {
		g.deferred[id] = true
	}
	sort.Strings(g.ids)
	return g
}

const (
	unvisited = iota
	visiting
	done
)

// walk does a depth-first post-order traversal. Dependencies come before
// the beans that need them; roots and edges are visited in a fixed order so
// the result is deterministic.
func (g *graph) walk() (order []string, problems []error) {
	state := make(map[string]int, len(g.ids))
	seenCycles := make(map[string]bool)
	var stack []string

	var visit func(id string)
	visit = func(id string) {
		switch state[id] {
		case done:
			return
		case visiting:
			start := slices.Index(stack, id)
			cycle := append(slices.Clone(stack[start:]), id)
			if sig := cycleSignature(cycle); !seenCycles[sig] {
				seenCycles[sig] = true
				problems = append(problems, &CyclicDependencyError{Path: cycle})
			}
			return
		}
		state[id] = visiting
		stack = append(stack, id)
		for _, dep := range g.edges[id] {
			if _, ok := g.edges[dep]; !ok {
				if !g.deferred[dep] {
					problems = append(problems, &UnknownDependencyError{ID: dep, Path: []string{id}})
				}
				continue
			}
			visit(dep)
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		order = append(order, id)
	}

	for _, id := range g.ids {
		visit(id)
	}
	return order, problems
}

// cycleSignature normalises a cycle so each loop is reported once
// regardless of where the walk entered it.
func cycleSignature(cycle []string) string {
	loop := cycle[:len(cycle)-1]
	first := 0
	for i := range loop {
		if loop[i] < loop[first] {
			first = i
		}
	}
	var sb strings.Builder
	for i := range loop {
		sb.WriteString(loop[(first+i)%len(loop)])
		sb.WriteByte(0)
	}
	return sb.String()
}

// Validate checks the declared graph without running any factory: every
// declared dependency must exist and there must be no cycle. All problems
// are returned joined.
func (c *Container) Validate() error {
	_, problems := c.snapshot().walk()
	return errors.Join(problems...)
}

// Order returns every id in dependency order (dependencies first).
func (c *Container) Order() ([]string, error) {
	order, problems := c.snapshot().walk()
	if len(problems) > 0 {
		return nil, errors.Join(problems...)
	}
	return order, nil
}

// Preinstantiate builds every singleton in dependency order, stopping at the
// first failure or when ctx is done.
func (c *Container) Preinstantiate(ctx context.Context) error {
	order, err := c.Order()
	if err != nil {
		return err
	}
	for _, id := range order {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("container: preinstantiate interrupted: %w", err)
		}
		def, ok := c.Definition(id)
		if !ok || def.Lifetime != LifetimeSingleton || c.Resolved(id) {
			continue
		}
		if _, err := c.ResolveContext(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
