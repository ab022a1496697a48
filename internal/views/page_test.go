package views

import "testing"

func TestPaginateClampsInputs(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}

	cases := []struct {
		name       string
		page       int
		limit      int
		wantPage   int
		wantLimit  int
		wantFirst  int
		wantLen    int
		wantPages  int
		wantHasNxt bool
		wantHasPrv bool
	}{
		{name: "zero page falls back to first", page: 0, limit: 5, wantPage: 1, wantLimit: 5, wantFirst: 0, wantLen: 5, wantPages: 5, wantHasNxt: true},
		{name: "negative page falls back to first", page: -3, limit: 5, wantPage: 1, wantLimit: 5, wantFirst: 0, wantLen: 5, wantPages: 5, wantHasNxt: true},
		{name: "zero limit falls back to default", page: 1, limit: 0, wantPage: 1, wantLimit: 10, wantFirst: 0, wantLen: 10, wantPages: 3, wantHasNxt: true},
		{name: "oversized limit falls back to default", page: 1, limit: 500, wantPage: 1, wantLimit: 10, wantFirst: 0, wantLen: 10, wantPages: 3, wantHasNxt: true},
		{name: "interior page", page: 2, limit: 10, wantPage: 2, wantLimit: 10, wantFirst: 10, wantLen: 10, wantPages: 3, wantHasNxt: true, wantHasPrv: true},
		{name: "ragged final page", page: 3, limit: 10, wantPage: 3, wantLimit: 10, wantFirst: 20, wantLen: 5, wantPages: 3, wantHasPrv: true},
		{name: "past the end", page: 9, limit: 10, wantPage: 9, wantLimit: 10, wantLen: 0, wantPages: 3, wantHasPrv: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page := Paginate(items, tc.page, tc.limit)

			if page.Page != tc.wantPage || page.Limit != tc.wantLimit {
				t.Fatalf("got page %d limit %d, want page %d limit %d", page.Page, page.Limit, tc.wantPage, tc.wantLimit)
			}
			if page.TotalItems != len(items) {
				t.Fatalf("expected total %d, got %d", len(items), page.TotalItems)
			}
			if page.TotalPages != tc.wantPages {
				t.Fatalf("expected %d pages, got %d", tc.wantPages, page.TotalPages)
			}
			if len(page.Items) != tc.wantLen {
				t.Fatalf("expected %d items, got %d", tc.wantLen, len(page.Items))
			}
			if tc.wantLen > 0 && page.Items[0] != tc.wantFirst {
				t.Fatalf("expected first item %d, got %d", tc.wantFirst, page.Items[0])
			}
			if page.HasNextPage != tc.wantHasNxt {
				t.Fatalf("expected hasNextPage %v, got %v", tc.wantHasNxt, page.HasNextPage)
			}
			if page.HasPrevPage != tc.wantHasPrv {
				t.Fatalf("expected hasPrevPage %v, got %v", tc.wantHasPrv, page.HasPrevPage)
			}
		})
	}
}

func TestPaginateEmptyInput(t *testing.T) {
	page := Paginate([]string(nil), 1, 10)

	if page.TotalItems != 0 || page.TotalPages != 0 {
		t.Fatalf("expected empty totals, got items %d pages %d", page.TotalItems, page.TotalPages)
	}
	if len(page.Items) != 0 {
		t.Fatalf("expected no items, got %d", len(page.Items))
	}
	if page.HasNextPage || page.HasPrevPage {
		t.Fatalf("empty result should have no neighbouring pages")
	}
}

// Walking every page must visit each item exactly once: no duplicates at
// page boundaries, no gaps on the ragged final page.
func TestPaginateCoversEveryItemOnce(t *testing.T) {
	const total, limit = 23, 5

	items := make([]int, total)
	for i := range items {
		items[i] = i
	}

	seen := make(map[int]int)
	first := Paginate(items, 1, limit)
	for page := 1; page <= first.TotalPages; page++ {
		for _, item := range Paginate(items, page, limit).Items {
			seen[item]++
		}
	}

	if len(seen) != total {
		t.Fatalf("expected %d distinct items across pages, got %d", total, len(seen))
	}
	for item, count := range seen {
		if count != 1 {
			t.Fatalf("item %d appeared %d times", item, count)
		}
	}
}
