package models

import "math"

// Product sort keys accepted by the catalog listing
const (
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
	SortRating    = "rating"
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortNameAsc   = "name-asc"
	SortNameDesc  = "name-desc"
)

const (
	DefaultProductLimit = 12
	DefaultListLimit    = 10
	MaxPageLimit        = 100
	MaxPage             = 1_000_000
	DefaultTopLimit     = 5
)

// ProductFilter holds the optional, AND-combined catalog filters.
// Listing is always restricted to active products.
type ProductFilter struct {
	Search    string
	Category  string
	Brand     string
	MinPrice  *float64
	MaxPrice  *float64
	MinRating *float64
	InStock   bool
	Featured  bool
	Sort      string
}

// OrderFilter narrows order listings. Empty UserID means all accounts.
type OrderFilter struct {
	UserID      string
	Status      string
	IsPaid      *bool
	IsDelivered *bool
}

// PageRequest is a 1-based page with a page size.
type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest clamps page and limit into valid ranges.
func NewPageRequest(page, limit, defaultLimit int) PageRequest {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return PageRequest{Page: page, Limit: limit}
}

// Offset is zero for a non-positive page or limit and saturates at
// math.MaxInt.
func (p PageRequest) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// Pagination is the metadata returned with every paged listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func NewPagination(req PageRequest, total int) Pagination {
	pages := 0
	if req.Limit > 0 {
		pages = (total + req.Limit - 1) / req.Limit
	}
	return Pagination{Page: req.Page, Limit: req.Limit, Total: total, Pages: pages}
}

// ProductFacets are the distinct filter values among active products.
type ProductFacets struct {
	Categories []string `json:"categories"`
	Brands     []string `json:"brands"`
}
