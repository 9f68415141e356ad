// Package fakeapi is an in-memory stand-in for the remote ticketing API,
// used by handler tests and local development.
package fakeapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"ticketbari/internal/models"
)

// Server holds tickets, users, bookings and transactions in memory. Every
// authenticated route only checks that a bearer token is present.
type Server struct {
	mu           sync.Mutex
	tickets      []models.Ticket
	users        []models.User
	bookings     []models.Booking
	transactions map[string][]models.Transaction
	paid         map[string]string
	checkoutURL  string
	hits         map[string]int
}

func New() *Server {
	return &Server{
		transactions: map[string][]models.Transaction{},
		paid:         map[string]string{},
		checkoutURL:  "https://checkout.stripe.test/c/pay/",
		hits:         map[string]int{},
	}
}

func (s *Server) AddTicket(t models.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	s.tickets = append(s.tickets, t)
}

func (s *Server) AddUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, u)
}

func (s *Server) AddBooking(b models.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	s.bookings = append(s.bookings, b)
}

func (s *Server) Ticket(id string) (models.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.ticketIndex(id)
	if i < 0 {
		return models.Ticket{}, false
	}
	return s.tickets[i], true
}

func (s *Server) User(email string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.userIndex(email)
	if i < 0 {
		return models.User{}, false
	}
	return s.users[i], true
}

func (s *Server) Bookings() []models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Booking(nil), s.bookings...)
}

// Hits reports how often the named route was called.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.count)

	r.HandleFunc("/advertised-tickets", s.advertised).Methods("GET").Name("advertised")

	auth := r.NewRoute().Subrouter()
	auth.Use(requireBearer)
	auth.HandleFunc("/tickets", s.listTickets).Methods("GET").Name("tickets")
	auth.HandleFunc("/tickets/search", s.searchTickets).Methods("GET").Name("search")
	auth.HandleFunc("/ticket/{id}", s.getTicket).Methods("GET").Name("ticket")
	auth.HandleFunc("/tickets", s.createTicket).Methods("POST").Name("create-ticket")
	auth.HandleFunc("/ticket/{id}", s.updateTicket).Methods("PATCH").Name("update-ticket")
	auth.HandleFunc("/ticket/{id}", s.deleteTicket).Methods("DELETE").Name("delete-ticket")
	auth.HandleFunc("/my-tickets", s.myTickets).Methods("GET").Name("my-tickets")
	auth.HandleFunc("/bookings", s.createBooking).Methods("POST").Name("create-booking")
	auth.HandleFunc("/my-bookings", s.myBookings).Methods("GET").Name("my-bookings")
	auth.HandleFunc("/vendor/bookings", s.vendorBookings).Methods("GET").Name("vendor-bookings")
	auth.HandleFunc("/vendor/accept/{id}", s.decideBooking(models.BookingAccepted)).Methods("PATCH").Name("accept")
	auth.HandleFunc("/vendor/reject/{id}", s.decideBooking(models.BookingRejected)).Methods("PATCH").Name("reject-booking")
	auth.HandleFunc("/admin/tickets", s.adminTickets).Methods("GET").Name("admin-tickets")
	auth.HandleFunc("/admin/users", s.adminUsers).Methods("GET").Name("admin-users")
	auth.HandleFunc("/admin/advertise-tickets", s.advertiseCandidates).Methods("GET").Name("advertise-candidates")
	auth.HandleFunc("/admin/ticket/approve/{id}", s.moderate(models.TicketApproved)).Methods("PATCH").Name("approve")
	auth.HandleFunc("/admin/ticket/reject/{id}", s.moderate(models.TicketRejected)).Methods("PATCH").Name("reject")
	auth.HandleFunc("/admin/ticket/advertise/{id}", s.setAdvertise).Methods("PATCH").Name("advertise")
	auth.HandleFunc("/admin/make-admin/{email}", s.setRole(models.RoleAdmin)).Methods("PATCH").Name("make-admin")
	auth.HandleFunc("/admin/make-vendor/{email}", s.setRole(models.RoleVendor)).Methods("PATCH").Name("make-vendor")
	auth.HandleFunc("/admin/mark-fraud/{email}", s.markFraud).Methods("PATCH").Name("mark-fraud")
	auth.HandleFunc("/create-checkout-session", s.createCheckout).Methods("POST").Name("checkout")
	auth.HandleFunc("/payment-success", s.paymentSuccess).Methods("POST").Name("payment-success")
	auth.HandleFunc("/transactions", s.listTransactions).Methods("GET").Name("transactions")
	auth.HandleFunc("/admin/stats", s.adminStats).Methods("GET").Name("admin-stats")
	auth.HandleFunc("/dashboard/customer-stats", s.customerStats).Methods("GET").Name("customer-stats")
	auth.HandleFunc("/vendor/stats/{email}", s.vendorStats).Methods("GET").Name("vendor-stats")
	auth.HandleFunc("/vendor/revenue-overview", s.revenue).Methods("GET").Name("revenue")
	auth.HandleFunc("/user", s.saveUser).Methods("POST").Name("save-user")
	auth.HandleFunc("/user/role/{email}", s.userRole).Methods("GET").Name("user-role")
	return r
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if route := mux.CurrentRoute(r); route != nil {
			s.mu.Lock()
			s.hits[route.GetName()]++
			s.mu.Unlock()
		}
		next.ServeHTTP(w, r)
	})
}

func requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			writeError(w, http.StatusUnauthorized, "unauthorized access")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func (s *Server) ticketIndex(id string) int {
	for i, t := range s.tickets {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) userIndex(email string) int {
	for i, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return i
		}
	}
	return -1
}

func (s *Server) approved() []models.Ticket {
	out := []models.Ticket{}
	for _, t := range s.tickets {
		if t.Status == models.TicketApproved {
			out = append(out, t)
		}
	}
	return out
}

func (s *Server) listTickets(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.approved())
}

func (s *Server) searchTickets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, date := q.Get("from"), q.Get("to"), q.Get("date")

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Ticket{}
	for _, t := range s.approved() {
		if from != "" && !strings.EqualFold(t.From, from) {
			continue
		}
		if to != "" && !strings.EqualFold(t.To, to) {
			continue
		}
		if date != "" && t.DepartureTime.UTC().Format("2006-01-02") != date {
			continue
		}
		out = append(out, t)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) advertised(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Ticket{}
	for _, t := range s.approved() {
		if t.Advertise {
			out = append(out, t)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getTicket(w http.ResponseWriter, r *http.Request) {
	t, ok := s.Ticket(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "ticket not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) createTicket(w http.ResponseWriter, r *http.Request) {
	var p models.TicketPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t := p.Apply(models.Ticket{ID: uuid.New().String(), Status: models.TicketPending})

	s.mu.Lock()
	s.tickets = append(s.tickets, t)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]string{"insertedId": t.ID})
}

func (s *Server) updateTicket(w http.ResponseWriter, r *http.Request) {
	var p models.TicketPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.ticketIndex(mux.Vars(r)["id"])
	if i < 0 {
		writeError(w, http.StatusNotFound, "ticket not found")
		return
	}
	s.tickets[i] = p.Apply(s.tickets[i])
	writeJSON(w, http.StatusOK, map[string]int{"modifiedCount": 1})
}

func (s *Server) deleteTicket(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.ticketIndex(mux.Vars(r)["id"])
	if i < 0 {
		writeError(w, http.StatusNotFound, "ticket not found")
		return
	}
	s.tickets = append(s.tickets[:i], s.tickets[i+1:]...)
	writeJSON(w, http.StatusOK, map[string]int{"deletedCount": 1})
}

func (s *Server) myTickets(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Ticket{}
	for _, t := range s.tickets {
		if strings.EqualFold(t.Seller.Email, email) {
			out = append(out, t)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createBooking(w http.ResponseWriter, r *http.Request) {
	var b models.Booking
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.ticketIndex(b.TicketID)
	if i < 0 {
		writeError(w, http.StatusNotFound, "ticket not found")
		return
	}
	if b.Quantity > s.tickets[i].Quantity {
		writeError(w, http.StatusBadRequest, "not enough tickets")
		return
	}
	s.tickets[i].Quantity -= b.Quantity
	b.ID = uuid.New().String()
	s.bookings = append(s.bookings, b)
	writeJSON(w, http.StatusCreated, map[string]string{"insertedId": b.ID})
}

func (s *Server) myBookings(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Booking{}
	for _, b := range s.bookings {
		if strings.EqualFold(b.UserEmail, email) {
			out = append(out, b)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) sellerOf(ticketID string) string {
	if i := s.ticketIndex(ticketID); i >= 0 {
		return s.tickets[i].Seller.Email
	}
	return ""
}

func (s *Server) vendorBookings(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Booking{}
	for _, b := range s.bookings {
		if strings.EqualFold(s.sellerOf(b.TicketID), email) {
			out = append(out, b)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) decideBooking(status models.BookingStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := range s.bookings {
			if s.bookings[i].ID == id {
				s.bookings[i].Status = status
				writeJSON(w, http.StatusOK, map[string]int{"modifiedCount": 1})
				return
			}
		}
		writeError(w, http.StatusNotFound, "booking not found")
	}
}

func (s *Server) adminTickets(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]models.Ticket{}, s.tickets...))
}

func (s *Server) adminUsers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]models.User{}, s.users...))
}

func (s *Server) advertiseCandidates(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.approved())
}

func (s *Server) moderate(status models.TicketStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		i := s.ticketIndex(mux.Vars(r)["id"])
		if i < 0 {
			writeError(w, http.StatusNotFound, "ticket not found")
			return
		}
		s.tickets[i].Status = status
		writeJSON(w, http.StatusOK, map[string]int{"modifiedCount": 1})
	}
}

func (s *Server) setAdvertise(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Advertise bool `json:"advertise"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.ticketIndex(mux.Vars(r)["id"])
	if i < 0 {
		writeError(w, http.StatusNotFound, "ticket not found")
		return
	}
	s.tickets[i].Advertise = body.Advertise
	writeJSON(w, http.StatusOK, map[string]int{"modifiedCount": 1})
}

func (s *Server) setRole(role models.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		i := s.userIndex(mux.Vars(r)["email"])
		if i < 0 {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		s.users[i].Role = role
		writeJSON(w, http.StatusOK, map[string]int{"modifiedCount": 1})
	}
}

// markFraud flags the vendor and hides their tickets from the public lists.
func (s *Server) markFraud(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.userIndex(mux.Vars(r)["email"])
	if i < 0 {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	s.users[i].Fraud = true
	for j := range s.tickets {
		if strings.EqualFold(s.tickets[j].Seller.Email, s.users[i].Email) {
			s.tickets[j].Status = models.TicketRejected
		}
	}
	writeJSON(w, http.StatusOK, map[string]int{"modifiedCount": 1})
}

func (s *Server) createCheckout(w http.ResponseWriter, r *http.Request) {
	var info models.PaymentInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sessionID := "cs_test_" + strings.ReplaceAll(uuid.New().String(), "-", "")

	s.mu.Lock()
	s.paid[sessionID] = info.BookingID
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"url": s.checkoutURL + sessionID})
}

func (s *Server) paymentSuccess(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	bookingID, ok := s.paid[body.SessionID]
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown checkout session")
		return
	}
	for i := range s.bookings {
		b := &s.bookings[i]
		if b.ID != bookingID {
			continue
		}
		b.Status = models.BookingPaid
		tx := models.Transaction{
			TransactionID: "pi_" + strings.TrimPrefix(body.SessionID, "cs_test_"),
			Amount:        b.Price,
			Title:         b.Title,
			Date:          time.Now().UTC(),
		}
		s.transactions[strings.ToLower(b.UserEmail)] = append(s.transactions[strings.ToLower(b.UserEmail)], tx)
		writeJSON(w, http.StatusOK, map[string]any{
			"transactionId": tx.TransactionID,
			"bookingId":     b.ID,
			"amount":        b.Price,
		})
		return
	}
	writeError(w, http.StatusNotFound, "booking not found")
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(r.URL.Query().Get("email"))
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]models.Transaction{}, s.transactions[email]...))
}

func (s *Server) revenueFor(seller string) (decimal.Decimal, int) {
	total, sold := decimal.Zero, 0
	for _, b := range s.bookings {
		if b.Status != models.BookingPaid {
			continue
		}
		if seller != "" && !strings.EqualFold(s.sellerOf(b.TicketID), seller) {
			continue
		}
		total = total.Add(b.Price)
		sold += b.Quantity
	}
	return total, sold
}

func (s *Server) adminStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st models.AdminStats
	st.TotalUsers = len(s.users)
	for _, u := range s.users {
		switch u.Role {
		case models.RoleVendor:
			st.VendorCount++
		case models.RoleAdmin:
			st.AdminCount++
		default:
			st.CustomerCount++
		}
		if u.Fraud {
			st.FraudCount++
		}
	}
	for _, t := range s.tickets {
		switch t.EffectiveStatus() {
		case models.TicketApproved:
			st.ApprovedTickets++
		case models.TicketRejected:
			st.RejectedTickets++
		default:
			st.PendingTickets++
		}
	}
	st.TotalRevenue, _ = s.revenueFor("")
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) customerStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := models.CustomerStats{TotalBookings: len(s.bookings), TotalSpent: decimal.Zero}
	for _, txs := range s.transactions {
		st.TotalPayments += len(txs)
		for _, tx := range txs {
			st.TotalSpent = st.TotalSpent.Add(tx.Amount)
		}
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) vendorStats(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]
	s.mu.Lock()
	defer s.mu.Unlock()

	var st models.VendorStats
	byType := map[models.TransportType]int{}
	var order []models.TransportType
	for _, t := range s.tickets {
		if !strings.EqualFold(t.Seller.Email, email) {
			continue
		}
		switch t.EffectiveStatus() {
		case models.TicketApproved:
			st.ApprovedTickets++
		case models.TicketPending:
			st.PendingTickets++
		}
		if byType[t.TransportType] == 0 {
			order = append(order, t.TransportType)
		}
		byType[t.TransportType]++
	}
	for _, tt := range order {
		st.TransportStats = append(st.TransportStats, models.TransportStat{Type: string(tt), Count: byType[tt]})
	}

	byStatus := map[models.BookingStatus]int{}
	for _, b := range s.bookings {
		if strings.EqualFold(s.sellerOf(b.TicketID), email) {
			byStatus[b.Status]++
		}
	}
	for _, status := range []models.BookingStatus{models.BookingPending, models.BookingAccepted, models.BookingRejected, models.BookingPaid} {
		if n := byStatus[status]; n > 0 {
			st.BookingStats = append(st.BookingStats, models.BookingStat{Name: string(status), Value: n})
		}
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) revenue(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total, sold := s.revenueFor(r.URL.Query().Get("email"))
	writeJSON(w, http.StatusOK, models.RevenueOverview{TotalRevenue: total, TotalTicketsAdded: len(s.tickets), TotalTicketsSold: sold})
}

func (s *Server) saveUser(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil || u.Email == "" {
		writeError(w, http.StatusBadRequest, "invalid user")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.userIndex(u.Email); i >= 0 {
		s.users[i].Name, s.users[i].Photo = u.Name, u.Photo
		writeJSON(w, http.StatusOK, map[string]string{"message": "user updated"})
		return
	}
	u.Role = models.RoleCustomer
	s.users = append(s.users, u)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "user created"})
}

func (s *Server) userRole(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.userIndex(mux.Vars(r)["email"])
	if i < 0 {
		writeJSON(w, http.StatusOK, map[string]string{"role": string(models.RoleCustomer)})
		return
	}
	role := s.users[i].Role
	if role == "" {
		role = models.RoleCustomer
	}
	writeJSON(w, http.StatusOK, map[string]string{"role": string(role)})
}

