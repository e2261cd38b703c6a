package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageRequestNormalize(t *testing.T) {
	cases := map[string]struct {
		in   PageRequest
		want PageRequest
	}{
		"defaults":      {PageRequest{}, PageRequest{Page: 0, Size: DefaultPageSize}},
		"negative page": {PageRequest{Page: -3, Size: 5}, PageRequest{Page: 0, Size: 5}},
		"size capped":   {PageRequest{Page: 1, Size: 1000}, PageRequest{Page: 1, Size: MaxPageSize}},
		"page capped":   {PageRequest{Page: math.MaxInt, Size: MaxPageSize}, PageRequest{Page: MaxPage, Size: MaxPageSize}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.in.Normalize())
		})
	}
}

func TestPageRequestOffset(t *testing.T) {
	require.Equal(t, 20, PageRequest{Page: 2, Size: 10}.Offset())

	huge := PageRequest{Page: 922337203685477581, Size: MaxPageSize}.Normalize()
	require.Positive(t, huge.Offset())
	require.Positive(t, huge.Offset()+huge.Size)
}

func TestNewPage(t *testing.T) {
	p := NewPage[int](nil, PageRequest{Page: 0, Size: 10}, 21)
	require.NotNil(t, p.Items)
	require.Equal(t, 3, p.TotalPages)
}
