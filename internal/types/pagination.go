package types

// PaginationResponse describes the page a list response holds
type PaginationResponse struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ListResponse is one page of items
type ListResponse[T any] struct {
	Items      []T                `json:"items"`
	Pagination PaginationResponse `json:"pagination"`
}

// NewPaginationResponse echoes the requested window with the total matching count
func NewPaginationResponse(total, limit, offset int) PaginationResponse {
	return PaginationResponse{
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
}

// HasMore reports whether items remain past this page
func (p PaginationResponse) HasMore() bool {
	return p.Offset+p.Limit < p.Total
}
