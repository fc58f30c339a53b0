package models

// PaginatedResponse is the data payload of every list endpoint.
type PaginatedResponse struct {
	Data       any `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// NewPage wraps one page of results. page and size must already be normalized.
func NewPage(data any, total, page, size int) PaginatedResponse {
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}

	return PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: pages,
	}
}
