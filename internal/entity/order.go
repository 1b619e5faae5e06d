// SPDX-License-Identifier: Apache-2.0

package entity

import (
	"fmt"
	"slices"
	"strings"
)

// Order decides the sequence in which sections are folded into the payload.
// When two fields resolve to the same target field, the one visited last
// wins, so the order is the tie-break. Fields inside a section are always
// visited in document order.
type Order interface {
	Name() string
	// Arrange returns section positions in visiting order.
	Arrange(sections []Section) []int
}

// DocumentOrder visits sections as they appeared in the extraction.
type DocumentOrder struct{}

func (DocumentOrder) Name() string { return "document" }

func (DocumentOrder) Arrange(sections []Section) []int {
	return positions(len(sections))
}

// ReverseOrder visits sections last to first.
type ReverseOrder struct{}

func (ReverseOrder) Name() string { return "reverse" }

func (ReverseOrder) Arrange(sections []Section) []int {
	idx := positions(len(sections))
	slices.Reverse(idx)
	return idx
}

// AlphabeticalOrder visits sections sorted by their uppercased key prefix,
// falling back to document order for equal names.
type AlphabeticalOrder struct{}

func (AlphabeticalOrder) Name() string { return "alphabetical" }

func (AlphabeticalOrder) Arrange(sections []Section) []int {
	idx := positions(len(sections))
	slices.SortStableFunc(idx, func(a, b int) int {
		return strings.Compare(sectionSortKey(sections[a].Name), sectionSortKey(sections[b].Name))
	})
	return idx
}

// PriorityOrder visits sections whose name contains one of Keywords first,
// earlier keywords before later ones, then the rest in document order.
// Because the last write wins, use Last to push matching sections to the end
// instead so that they override everything else.
type PriorityOrder struct {
	Keywords []string
	Last     bool
}

func (p PriorityOrder) Name() string {
	if p.Last {
		return "priority-last"
	}
	return "priority"
}

func (p PriorityOrder) Arrange(sections []Section) []int {
	idx := positions(len(sections))
	rank := func(pos int) int {
		name := strings.ToLower(sections[pos].Name)
		for i, kw := range p.Keywords {
			if kw != "" && strings.Contains(name, strings.ToLower(kw)) {
				if p.Last {
					return len(p.Keywords) - i
				}
				return i
			}
		}
		if p.Last {
			return 0
		}
		return len(p.Keywords)
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return rank(a) - rank(b)
	})
	return idx
}

// ParseOrder resolves an order by name. keywords only apply to the priority
// orders.
func ParseOrder(name string, keywords []string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "document":
		return DocumentOrder{}, nil
	case "reverse":
		return ReverseOrder{}, nil
	case "alphabetical", "sorted":
		return AlphabeticalOrder{}, nil
	case "priority":
		return PriorityOrder{Keywords: keywords}, nil
	case "priority-last":
		return PriorityOrder{Keywords: keywords, Last: true}, nil
	}
	return nil, fmt.Errorf("unknown section order %q", name)
}

func positions(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func sectionSortKey(name string) string {
	return string(ComputeEntityKey(name, Name("")))
}
