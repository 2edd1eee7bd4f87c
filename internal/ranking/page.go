package ranking

// Page is one slice of an already ordered result list.
type Page[T any] struct {
	Items    []T
	Count    int // total items before paging
	Page     int
	PageSize int
}

// HasNext reports whether another page follows.
func (p Page[T]) HasNext() bool {
	if p.PageSize <= 0 || p.Count == 0 {
		return false
	}
	return p.Page-1 < (p.Count-1)/p.PageSize
}

// HasPrevious reports whether a page precedes this one.
func (p Page[T]) HasPrevious() bool {
	return p.Page > 1
}

// NormalizePage clamps page/size: page < 1 becomes 1, size <= 0 becomes def,
// size above maxSize becomes maxSize.
func NormalizePage(page, size, def, maxSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = def
	}
	if maxSize > 0 && size > maxSize {
		size = maxSize
	}
	return page, size
}

// Paginate returns the requested page of items. Pages past the end are empty.
func Paginate[T any](items []T, page, size int) Page[T] {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = len(items)
		if size == 0 {
			size = 1
		}
	}
	out := Page[T]{Count: len(items), Page: page, PageSize: size}
	// checked before multiplying so huge page numbers cannot overflow
	if len(items) == 0 || page-1 > (len(items)-1)/size {
		out.Items = []T{}
		return out
	}
	start := (page - 1) * size
	end := len(items)
	if size < end-start {
		end = start + size
	}
	out.Items = items[start:end]
	return out
}
