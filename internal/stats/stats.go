// Package stats shapes dashboard statistics into chart series.
package stats

import (
	"context"

	"github.com/shopspring/decimal"

	"ticketbari/internal/client"
	"ticketbari/internal/models"
)

// Slice is one pie segment.
type Slice struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// Bar is one bar of a bar chart.
type Bar struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type AdminView struct {
	models.AdminStats
	Roles        []Slice `json:"roleData"`
	TicketStatus []Bar   `json:"ticketStatusData"`
}

type CustomerView struct {
	models.CustomerStats
}

type VendorView struct {
	models.VendorStats
	Tickets []Bar `json:"ticketData"`
}

type RevenueView struct {
	models.RevenueOverview
	Pie []Slice `json:"pieData"`
}

func count(n int) decimal.Decimal { return decimal.NewFromInt(int64(n)) }

func Admin(s models.AdminStats) AdminView {
	return AdminView{
		AdminStats: s,
		Roles: []Slice{
			{Name: "Customers", Value: count(s.CustomerCount)},
			{Name: "Vendors", Value: count(s.VendorCount)},
			{Name: "Admins", Value: count(s.AdminCount)},
			{Name: "Fraud", Value: count(s.FraudCount)},
		},
		TicketStatus: []Bar{
			{Name: "Approved", Count: s.ApprovedTickets},
			{Name: "Pending", Count: s.PendingTickets},
			{Name: "Rejected", Count: s.RejectedTickets},
		},
	}
}

// Vendor fills in empty series so charts never receive null.
func Vendor(s models.VendorStats) VendorView {
	if s.BookingStats == nil {
		s.BookingStats = []models.BookingStat{}
	}
	if s.TransportStats == nil {
		s.TransportStats = []models.TransportStat{}
	}
	return VendorView{
		VendorStats: s,
		Tickets: []Bar{
			{Name: "Approved Tickets", Count: s.ApprovedTickets},
			{Name: "Pending Tickets", Count: s.PendingTickets},
		},
	}
}

func Revenue(o models.RevenueOverview) RevenueView {
	return RevenueView{
		RevenueOverview: o,
		Pie: []Slice{
			{Name: "Tickets Added", Value: count(o.TotalTicketsAdded)},
			{Name: "Tickets Sold", Value: count(o.TotalTicketsSold)},
			{Name: "Revenue ($)", Value: o.TotalRevenue},
		},
	}
}

type API interface {
	AdminStats(ctx context.Context, ts client.TokenSource) (models.AdminStats, error)
	CustomerStats(ctx context.Context, ts client.TokenSource) (models.CustomerStats, error)
	VendorStats(ctx context.Context, ts client.TokenSource, email string) (models.VendorStats, error)
	RevenueOverview(ctx context.Context, ts client.TokenSource) (models.RevenueOverview, error)
}

type Service struct {
	api API
}

func NewService(api API) *Service {
	return &Service{api: api}
}

func (s *Service) Admin(ctx context.Context, ts client.TokenSource) (AdminView, error) {
	st, err := s.api.AdminStats(ctx, ts)
	if err != nil {
		return AdminView{}, err
	}
	return Admin(st), nil
}

func (s *Service) Customer(ctx context.Context, ts client.TokenSource) (CustomerView, error) {
	st, err := s.api.CustomerStats(ctx, ts)
	if err != nil {
		return CustomerView{}, err
	}
	return CustomerView{CustomerStats: st}, nil
}

func (s *Service) Vendor(ctx context.Context, ts client.TokenSource, email string) (VendorView, error) {
	st, err := s.api.VendorStats(ctx, ts, email)
	if err != nil {
		return VendorView{}, err
	}
	return Vendor(st), nil
}

func (s *Service) Revenue(ctx context.Context, ts client.TokenSource) (RevenueView, error) {
	o, err := s.api.RevenueOverview(ctx, ts)
	if err != nil {
		return RevenueView{}, err
	}
	return Revenue(o), nil
}
