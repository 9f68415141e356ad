package models

import "github.com/shopspring/decimal"

type AdminStats struct {
	TotalUsers      int             `json:"totalUsers"`
	CustomerCount   int             `json:"customerCount"`
	VendorCount     int             `json:"vendorCount"`
	AdminCount      int             `json:"adminCount"`
	FraudCount      int             `json:"fraudCount"`
	ApprovedTickets int             `json:"approvedTickets"`
	PendingTickets  int             `json:"pendingTickets"`
	RejectedTickets int             `json:"rejectedTickets"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
}

type CustomerStats struct {
	TotalBookings int             `json:"totalBookings"`
	TotalPayments int             `json:"totalPayments"`
	TotalSpent    decimal.Decimal `json:"totalSpent"`
}

type BookingStat struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type TransportStat struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type VendorStats struct {
	ApprovedTickets int             `json:"approvedTickets"`
	PendingTickets  int             `json:"pendingTickets"`
	BookingStats    []BookingStat   `json:"bookingStats"`
	TransportStats  []TransportStat `json:"transportStats"`
}

type RevenueOverview struct {
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalTicketsAdded int             `json:"totalTicketsAdded"`
	TotalTicketsSold  int             `json:"totalTicketsSold"`
}
