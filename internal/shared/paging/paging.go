package paging

const (
	DefaultSize = 10
	MaxSize     = 100
)

// Spec selects one page of a result set. Page is zero-based.
type Spec struct {
	Page int
	Size int
}

// Normalize clamps a caller supplied page spec into a usable one.
func Normalize(page, size int) Spec {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	return Spec{Page: page, Size: size}
}

func (s Spec) Offset() int {
	return s.Page * s.Size
}

type Page[T any] struct {
	Items         []T   `json:"items"`
	Page          int   `json:"current_page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
	HasNext       bool  `json:"has_next"`
	HasPrevious   bool  `json:"has_previous"`
}

func New[T any](items []T, spec Spec, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if spec.Size > 0 {
		pages = int((total + int64(spec.Size) - 1) / int64(spec.Size))
	}
	return Page[T]{
		Items:         items,
		Page:          spec.Page,
		Size:          spec.Size,
		TotalElements: total,
		TotalPages:    pages,
		HasNext:       spec.Page+1 < pages,
		HasPrevious:   spec.Page > 0,
	}
}
