package pipeline

import (
	"fmt"
	"sort"
)

// producers maps every declared output path to the stage producing it.
func (p *Pipeline) producers() (map[string]string, error) {
	out := make(map[string]string)
	for _, name := range p.Names() {
		for _, o := range p.Stages[name].Outs {
			if prev, dup := out[o]; dup {
				return nil, fmt.Errorf("output %s produced by both %s and %s", o, prev, name)
			}
			out[o] = name
		}
	}
	return out, nil
}

// upstreamOf returns the stages whose outputs name depends on, sorted and
// deduplicated. Deps that match no producer are plain workspace files.
func (p *Pipeline) upstreamOf(name string, producers map[string]string) []string {
	seen := make(map[string]struct{})
	var ups []string
	for _, dep := range p.Stages[name].Deps {
		up, ok := producers[dep]
		if !ok || up == name {
			continue
		}
		if _, dup := seen[up]; dup {
			continue
		}
		seen[up] = struct{}{}
		ups = append(ups, up)
	}
	sort.Strings(ups)
	return ups
}

// Sort returns the stage names in dependency order. Cycles are detected with
// a three-color depth-first search: a gray node reached again is on the
// current recursion stack.
func (p *Pipeline) Sort() ([]string, error) {
	producers, err := p.producers()
	if err != nil {
		return nil, err
	}

	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(p.Stages))
	order := make([]string, 0, len(p.Stages))

	var visit func(name string) error
	visit = func(name string) error {
		switch color[name] {
		case gray:
			return fmt.Errorf("cycle detected involving stage %q", name)
		case black:
			return nil
		}
		color[name] = gray
		for _, up := range p.upstreamOf(name, producers) {
			if err := visit(up); err != nil {
				return err
			}
		}
		color[name] = black
		order = append(order, name)
		return nil
	}

	for _, name := range p.Names() {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Ancestors returns the set of targets plus every stage they transitively
// depend on. Unknown targets are an error.
func (p *Pipeline) Ancestors(targets []string) (map[string]bool, error) {
	producers, err := p.producers()
	if err != nil {
		return nil, err
	}

	keep := make(map[string]bool)
	queue := make([]string, 0, len(targets))
	for _, t := range targets {
		if _, ok := p.Stages[t]; !ok {
			return nil, fmt.Errorf("unknown stage %q", t)
		}
		queue = append(queue, t)
	}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if keep[name] {
			continue
		}
		keep[name] = true
		queue = append(queue, p.upstreamOf(name, producers)...)
	}
	return keep, nil
}
