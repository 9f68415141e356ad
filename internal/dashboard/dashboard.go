package dashboard

import (
	"strings"

	"ticketbari/internal/models"
)

// Root is the dashboard landing page, the statistics view of every role.
const Root = "/dashboard"

type Page struct {
	Path  string        `json:"path"`
	Label string        `json:"label"`
	roles []models.Role
}

func (p Page) allows(role models.Role) bool {
	for _, r := range p.roles {
		if r == role {
			return true
		}
	}
	return false
}

var (
	everyone   = []models.Role{models.RoleCustomer, models.RoleVendor, models.RoleAdmin}
	customers  = []models.Role{models.RoleCustomer}
	vendors    = []models.Role{models.RoleVendor}
	admins     = []models.Role{models.RoleAdmin}
	profileTag = map[models.Role]string{
		models.RoleCustomer: "User Profile",
		models.RoleVendor:   "Vendor Profile",
		models.RoleAdmin:    "Admin Profile",
	}
)

// pages in navigation order. The profile label depends on the role.
var pages = []Page{
	{Path: Root, Label: "Statistics", roles: everyone},
	{Path: Root + "/profile", Label: "Profile", roles: everyone},
	{Path: Root + "/bookings", Label: "My Booked Tickets", roles: customers},
	{Path: Root + "/transactions", Label: "Transaction History", roles: customers},
	{Path: Root + "/add-ticket", Label: "Add Ticket", roles: vendors},
	{Path: Root + "/my-tickets", Label: "My Added Tickets", roles: vendors},
	{Path: Root + "/vendor-bookings", Label: "Requested Bookings", roles: vendors},
	{Path: Root + "/vendor-revenue", Label: "Revenue Overview", roles: vendors},
	{Path: Root + "/manage-tickets", Label: "Manage Tickets", roles: admins},
	{Path: Root + "/manage-users", Label: "Manage Users", roles: admins},
	{Path: Root + "/advertise-tickets", Label: "Advertise Tickets", roles: admins},
}

// Nav returns the fixed navigation set of role, without the statistics root.
func Nav(role models.Role) []Page {
	var out []Page
	for _, p := range pages {
		if p.Path == Root || !p.allows(role) {
			continue
		}
		if label, ok := profileTag[role]; ok && p.Path == Root+"/profile" {
			p.Label = label
		}
		out = append(out, p)
	}
	return out
}

// pageFor finds the page that owns path: an exact match or the longest page
// prefix followed by a slash.
func pageFor(path string) (Page, bool) {
	path = strings.TrimRight(path, "/")
	if path == "" {
		return Page{}, false
	}
	var best Page
	found := false
	for _, p := range pages {
		if path == p.Path || (p.Path != Root && strings.HasPrefix(path, p.Path+"/")) {
			if !found || len(p.Path) > len(best.Path) {
				best = p
				found = true
			}
		}
	}
	return best, found
}

// Allowed reports whether role may open path. Unknown dashboard paths are
// denied.
func Allowed(role models.Role, path string) bool {
	p, ok := pageFor(path)
	return ok && p.allows(role)
}
