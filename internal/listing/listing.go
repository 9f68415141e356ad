package listing

import (
	"fmt"
	"sort"
	"strings"

	"ticketbari/internal/models"
)

type SortOrder string

const (
	SortNone SortOrder = "none"
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder accepts asc, desc, none or empty (none).
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case "", SortNone:
		return SortNone, nil
	case SortAsc, SortDesc:
		return o, nil
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

// ParseTransport accepts a transport type, all, or empty (all).
func ParseTransport(s string) (models.TransportType, error) {
	t := models.TransportType(strings.ToLower(strings.TrimSpace(s)))
	if t == "" || t == models.TransportAll {
		return models.TransportAll, nil
	}
	if !t.Valid() {
		return "", fmt.Errorf("unknown transport type %q", s)
	}
	return t, nil
}

// Filter keeps the tickets of one transport type. TransportAll keeps all.
func Filter(tickets []models.Ticket, transport models.TransportType) []models.Ticket {
	out := make([]models.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if transport == models.TransportAll || transport == "" || t.TransportType == transport {
			out = append(out, t)
		}
	}
	return out
}

// SortByPrice returns a sorted copy. The sort is stable and SortNone keeps
// the input order.
func SortByPrice(tickets []models.Ticket, order SortOrder) []models.Ticket {
	out := make([]models.Ticket, len(tickets))
	copy(out, tickets)

	switch order {
	case SortAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case SortDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	}
	return out
}

type Page struct {
	Tickets    []models.Ticket `json:"tickets"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
	Total      int             `json:"total"`
}

// Paginate cuts one 1-based page. Pages outside [1, total pages] clamp to the
// nearest valid page.
func Paginate(tickets []models.Ticket, page, size int) Page {
	if size < 1 {
		size = 1
	}
	total := len(tickets)
	totalPages := (total + size - 1) / size

	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page{
		Tickets:    tickets[start:end],
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
		Total:      total,
	}
}
