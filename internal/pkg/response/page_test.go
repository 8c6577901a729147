package response

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPageResponse(t *testing.T) {
	tests := []struct {
		name      string
		items     []string
		page      int
		pageSize  int
		total     int
		wantPages int
		wantSize  int
	}{
		{"empty", nil, 1, 20, 0, 0, 20},
		{"exact fit", []string{"a", "b"}, 1, 2, 4, 2, 2},
		{"partial last page", []string{"a"}, 3, 2, 5, 3, 2},
		{"zero page size", []string{"a"}, 1, 0, 3, 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPageResponse(tt.items, tt.page, tt.pageSize, tt.total)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.wantSize, p.PageSize)
			assert.NotNil(t, p.Items)
		})
	}
}

func TestNewPageResponse_EmptyItemsSerializeAsArray(t *testing.T) {
	body, err := json.Marshal(NewPageResponse[int](nil, 1, 20, 0))
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"page":1,"page_size":20,"total":0,"total_pages":0}`, string(body))
}
