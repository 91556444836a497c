package request

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// PaginatedRequest is the page/per_page pair shared by the admin list endpoints.
type PaginatedRequest struct {
	Page    int `json:"page" validate:"min=1"`
	PerPage int `json:"per_page" validate:"min=1,max=100"`
}

// Limit is PerPage forced into [1, MaxPerPage].
func (p PaginatedRequest) Limit() int {
	switch {
	case p.PerPage < 1:
		return DefaultPerPage
	case p.PerPage > MaxPerPage:
		return MaxPerPage
	}
	return p.PerPage
}

func (p PaginatedRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}
