package repository

import "testing"

func TestNewPaginationClamps(t *testing.T) {
	cases := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, 20},
		{3, 500, 3, 100},
		{2, 10, 2, 10},
	}
	for _, tc := range cases {
		p := NewPagination(tc.page, tc.size)
		if p.Page != tc.wantPage || p.PageSize != tc.wantSize {
			t.Errorf("NewPagination(%d,%d) = %+v", tc.page, tc.size, p)
		}
	}
	if off := NewPagination(3, 10).Offset(); off != 20 {
		t.Errorf("offset = %d, want 20", off)
	}
}

func TestNewPagedResultTotalPages(t *testing.T) {
	r := NewPagedResult[int](nil, 21, NewPagination(1, 10))
	if r.TotalPages != 3 {
		t.Fatalf("total pages = %d, want 3", r.TotalPages)
	}
	if r.Items == nil {
		t.Fatalf("items should be an empty slice, not nil")
	}
}
