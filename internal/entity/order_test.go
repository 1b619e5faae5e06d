// SPDX-License-Identifier: Apache-2.0

package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmmflow/idp-mcp/internal/entity"
)

func TestOrder_Arrange(t *testing.T) {
	sections := []entity.Section{
		{Name: "Employee Info"},
		{Name: "Claim Details"},
		{Name: "accident"},
	}

	tests := []struct {
		name  string
		order entity.Order
		want  []int
	}{
		{name: "document", order: entity.DocumentOrder{}, want: []int{0, 1, 2}},
		{name: "reverse", order: entity.ReverseOrder{}, want: []int{2, 1, 0}},
		{name: "alphabetical ignores case", order: entity.AlphabeticalOrder{}, want: []int{2, 1, 0}},
		{name: "priority first", order: entity.PriorityOrder{Keywords: []string{"claim"}}, want: []int{1, 0, 2}},
		{name: "priority last", order: entity.PriorityOrder{Keywords: []string{"claim"}, Last: true}, want: []int{0, 2, 1}},
		{name: "priority keyword rank", order: entity.PriorityOrder{Keywords: []string{"accident", "employee"}}, want: []int{2, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.order.Arrange(sections))
		})
	}
}

func TestOrder_ArrangeEmpty(t *testing.T) {
	assert.Empty(t, entity.ReverseOrder{}.Arrange(nil))
	assert.Empty(t, entity.AlphabeticalOrder{}.Arrange(nil))
}

func TestParseOrder(t *testing.T) {
	for _, name := range []string{"", "document", "reverse", "alphabetical", "sorted", "priority", "priority-last", " Reverse "} {
		order, err := entity.ParseOrder(name, []string{"claim"})
		require.NoError(t, err, name)
		assert.NotNil(t, order)
	}

	order, err := entity.ParseOrder("priority-last", []string{"claim"})
	require.NoError(t, err)
	assert.Equal(t, entity.PriorityOrder{Keywords: []string{"claim"}, Last: true}, order)

	_, err = entity.ParseOrder("random", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown section order")
}
