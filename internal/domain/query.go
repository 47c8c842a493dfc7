package domain

type SortOrder string

const (
	SortDateDesc  SortOrder = "date-desc"
	SortDateAsc   SortOrder = "date-asc"
	SortTitleAsc  SortOrder = "title-asc"
	SortTitleDesc SortOrder = "title-desc"
)

// SortOrders lists every order in the order the sort menu shows them.
var SortOrders = []SortOrder{SortDateDesc, SortDateAsc, SortTitleAsc, SortTitleDesc}

// ParseSortOrder falls back to SortDateDesc for anything unknown.
func ParseSortOrder(s string) SortOrder {
	for _, o := range SortOrders {
		if string(o) == s {
			return o
		}
	}
	return SortDateDesc
}

func (o SortOrder) Label() string {
	switch o {
	case SortDateAsc:
		return "Date (oldest)"
	case SortTitleAsc:
		return "Title (A-Z)"
	case SortTitleDesc:
		return "Title (Z-A)"
	default:
		return "Date"
	}
}

// Query is the list state chosen by the user.
type Query struct {
	Search string
	Sort   SortOrder
}
