package shared

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequestFromQuery(t *testing.T) {
	cases := []struct {
		query string
		want  PageRequest
	}{
		{"", PageRequest{Page: 1, PageSize: DefaultPageSize}},
		{"page=3&page_size=25", PageRequest{Page: 3, PageSize: 25}},
		{"page=0&page_size=-4", PageRequest{Page: 1, PageSize: DefaultPageSize}},
		{"page_size=500", PageRequest{Page: 1, PageSize: MaxPageSize}},
		{"page=x&page_size=y", PageRequest{Page: 1, PageSize: DefaultPageSize}},
	}
	for _, tc := range cases {
		q, err := url.ParseQuery(tc.query)
		assert.NoError(t, err)
		assert.Equal(t, tc.want, PageRequestFromQuery(q), tc.query)
	}
}

func TestNewPage(t *testing.T) {
	req := PageRequest{Page: 2, PageSize: 10}
	assert.Equal(t, 10, req.Offset())

	page := NewPage[string](req, 21, nil)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 21, page.Total)
	assert.NotNil(t, page.Results)
}
