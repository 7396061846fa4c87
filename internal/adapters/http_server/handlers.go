package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"hotel_core/internal/adapters/observability"
	"hotel_core/internal/app"
	"hotel_core/internal/domain"
)

const dateLayout = "2006-01-02"

var validate = validator.New(validator.WithRequiredStructEnabled())

type Handlers struct {
	Availability *app.AvailabilityService
	Pricer       *app.Pricer
	Bookings     *app.BookingService
	Lifecycle    *app.LifecycleService
	Settlement   *app.SettlementService
	Policies     *app.PolicyService
	// Loc interprets calendar dates in query strings; UTC when nil.
	Loc *time.Location
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	if h.Loc == nil {
		h.Loc = time.UTC
	}
	staff := RequireRole(RoleOwner, RoleAdmin)
	anyone := RequireRole(RoleGuest, RoleOwner, RoleAdmin)

	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/rooms/search", h.searchRooms)
	s.mux.Get("/v1/room-types/{id}/quote", h.quote)

	s.mux.With(anyone).Post("/v1/reservations", h.book)
	s.mux.With(anyone).Get("/v1/reservations", h.myReservations)
	s.mux.With(anyone).Get("/v1/reservations/{id}", h.getReservation)
	s.mux.With(anyone).Put("/v1/reservations/{id}/cancel", h.cancel)
	s.mux.With(staff).Put("/v1/reservations/{id}/check-in", h.checkIn)
	s.mux.With(staff).Put("/v1/reservations/{id}/check-out", h.checkOut)

	s.mux.With(staff).Get("/v1/hotels/{id}/reservations", h.hotelDay)
	s.mux.With(staff).Get("/v1/hotels/{id}/settlement", h.settlement)
	s.mux.With(staff).Get("/v1/hotels/{id}/discounts", h.listDiscounts)
	s.mux.With(staff).Post("/v1/hotels/{id}/discounts", h.createDiscount)
	s.mux.With(staff).Delete("/v1/discounts/{id}", h.deleteDiscount)
}

// ---- availability & pricing ----

func (h *Handlers) searchRooms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	iv, err := parseInterval(q.Get("checkIn"), q.Get("checkOut"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid interval", err.Error())
		return
	}
	guests, err := strconv.Atoi(q.Get("guests"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid guests", "guests must be an integer")
		return
	}
	sq := app.SearchQuery{Interval: iv, Guests: guests}
	if hs := q.Get("hotelId"); hs != "" {
		id, err := strconv.ParseInt(hs, 10, 64)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid hotelId", "hotelId must be a number")
			return
		}
		sq.HotelID = &id
	}
	offers, err := h.Availability.Search(r.Context(), sq)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, offers)
}

func (h *Handlers) quote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	iv, err := parseInterval(q.Get("checkIn"), q.Get("checkOut"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid interval", err.Error())
		return
	}
	cur, err := domain.ParseCurrency(q.Get("currency"))
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := h.Pricer.QuoteRoomType(r.Context(), id, iv, cur)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ---- reservations ----

type bookBody struct {
	RoomIDs      []int64   `json:"roomIds" validate:"required,min=1,dive,gt=0"`
	CheckIn      time.Time `json:"checkIn" validate:"required"`
	CheckOut     time.Time `json:"checkOut" validate:"required"`
	Guests       int       `json:"guests" validate:"required,min=1"`
	Currency     string    `json:"currency" validate:"required,len=3"`
	LateCheckout bool      `json:"lateCheckout"`
	GuestName    string    `json:"guestName" validate:"required,max=100"`
	GuestEmail   string    `json:"guestEmail" validate:"omitempty,email"`
}

func (h *Handlers) book(w http.ResponseWriter, r *http.Request) {
	var body bookBody
	if !decode(w, r, &body) {
		return
	}
	caller := CallerFrom(r.Context())
	res, err := h.Bookings.Book(r.Context(), app.BookRequest{
		Guest:        domain.Guest{UserID: caller.UserID, Name: strings.TrimSpace(body.GuestName), Email: body.GuestEmail},
		RoomIDs:      body.RoomIDs,
		Interval:     domain.Interval{Start: body.CheckIn, End: body.CheckOut},
		Guests:       body.Guests,
		Currency:     domain.Currency(body.Currency),
		LateCheckout: body.LateCheckout,
	})
	observability.ObserveBooking(err)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/v1/reservations/%d", res.ID))
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handlers) myReservations(w http.ResponseWriter, r *http.Request) {
	out, err := h.Bookings.Mine(r.Context(), CallerFrom(r.Context()).UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) getReservation(w http.ResponseWriter, r *http.Request) {
	res, ok := h.visibleReservation(w, r)
	if !ok {
		return
	}
	writeCached(w, r, res)
}

// visibleReservation loads the path reservation if the caller may see it:
// staff see every reservation, guests only their own.
func (h *Handlers) visibleReservation(w http.ResponseWriter, r *http.Request) (domain.Reservation, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return domain.Reservation{}, false
	}
	res, err := h.Bookings.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return domain.Reservation{}, false
	}
	if c := CallerFrom(r.Context()); !c.Staff() && res.Guest.UserID != c.UserID {
		writeError(w, domain.ErrForbidden)
		return domain.Reservation{}, false
	}
	return res, true
}

func (h *Handlers) checkIn(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.StatusCheckedIn, h.Lifecycle.CheckIn)
}

func (h *Handlers) checkOut(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.StatusCheckedOut, h.Lifecycle.CheckOut)
}

func (h *Handlers) cancel(w http.ResponseWriter, r *http.Request) {
	res, ok := h.visibleReservation(w, r)
	if !ok {
		return
	}
	out, err := h.Lifecycle.Cancel(r.Context(), res.ID)
	observability.ObserveTransition(domain.StatusCancelled, err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) transition(w http.ResponseWriter, r *http.Request, to domain.Status,
	step func(context.Context, int64) (domain.Reservation, error)) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	out, err := step(r.Context(), id)
	observability.ObserveTransition(to, err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ---- hotel operations ----

func (h *Handlers) hotelDay(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	day := time.Now().In(h.Loc)
	if ds := r.URL.Query().Get("date"); ds != "" {
		d, err := time.ParseInLocation(dateLayout, ds, h.Loc)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid date", "date must be YYYY-MM-DD")
			return
		}
		day = d
	}
	out, err := h.Bookings.HotelDay(r.Context(), id, day)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) settlement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	start, err1 := time.ParseInLocation(dateLayout, q.Get("startDate"), h.Loc)
	end, err2 := time.ParseInLocation(dateLayout, q.Get("endDate"), h.Loc)
	if err1 != nil || err2 != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid date range", "startDate and endDate must be YYYY-MM-DD")
		return
	}
	out, err := h.Settlement.Report(r.Context(), id, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, out)
}

// ---- discount policies ----

// policyBody carries discountRate as a percentage with up to two decimals.
type policyBody struct {
	Name           string         `json:"name" validate:"required,max=100"`
	MinDays        int            `json:"minDays" validate:"gte=0"`
	Type           string         `json:"type" validate:"required,oneof=PERCENTAGE FIXED_AMOUNT"`
	DiscountRate   *domain.Amount `json:"discountRate"`
	DiscountAmount *domain.Amount `json:"discountAmount"`
}

type policyView struct {
	ID             int64               `json:"id"`
	HotelID        int64               `json:"hotelId"`
	Name           string              `json:"name"`
	MinDays        int                 `json:"minDays"`
	Type           domain.DiscountKind `json:"type"`
	DiscountRate   *domain.Amount      `json:"discountRate,omitempty"`
	DiscountAmount *domain.Amount      `json:"discountAmount,omitempty"`
}

func toPolicyView(p domain.DiscountPolicy) policyView {
	v := policyView{ID: p.ID, HotelID: p.HotelID, Name: p.Name, MinDays: p.MinDays, Type: p.Kind}
	switch p.Kind {
	case domain.DiscountPercentage:
		rate := domain.Amount(p.Rate)
		v.DiscountRate = &rate
	case domain.DiscountFixedAmount:
		amt := p.Amount
		v.DiscountAmount = &amt
	}
	return v
}

func (h *Handlers) listDiscounts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ps, err := h.Policies.List(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]policyView, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPolicyView(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) createDiscount(w http.ResponseWriter, r *http.Request) {
	hotelID, ok := pathID(w, r)
	if !ok {
		return
	}
	var body policyBody
	if !decode(w, r, &body) {
		return
	}
	p := domain.DiscountPolicy{HotelID: hotelID, Name: body.Name, MinDays: body.MinDays, Kind: domain.DiscountKind(body.Type)}
	if body.DiscountRate != nil {
		p.Rate = int64(*body.DiscountRate)
	}
	if body.DiscountAmount != nil {
		p.Amount = *body.DiscountAmount
	}
	created, err := h.Policies.Create(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPolicyView(created))
}

func (h *Handlers) deleteDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Policies.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- helpers ----

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return 0, false
	}
	return id, true
}

func parseInterval(in, out string) (domain.Interval, error) {
	start, err := time.Parse(time.RFC3339, in)
	if err != nil {
		return domain.Interval{}, fmt.Errorf("checkIn must be RFC3339")
	}
	end, err := time.Parse(time.RFC3339, out)
	if err != nil {
		return domain.Interval{}, fmt.Errorf("checkOut must be RFC3339")
	}
	return domain.Interval{Start: start, End: end}, nil
}

// decode reads a JSON body into dst and runs struct validation.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Malformed body", err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			fields := make([]string, 0, len(ve))
			for _, fe := range ve {
				fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			writeProblem(w, http.StatusBadRequest, "Validation failed", strings.Join(fields, "; "))
			return false
		}
		writeProblem(w, http.StatusBadRequest, "Validation failed", err.Error())
		return false
	}
	return true
}

// writeError maps domain errors onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInterval),
		errors.Is(err, domain.ErrInvalidGuestCount),
		errors.Is(err, domain.ErrEmptySelection),
		errors.Is(err, domain.ErrUnsupportedCurrency),
		errors.Is(err, domain.ErrInvalidPolicy):
		writeProblem(w, http.StatusBadRequest, "Invalid request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeProblem(w, http.StatusForbidden, "Forbidden", "caller may not access this resource")
	case errors.Is(err, domain.ErrRoomUnavailable):
		writeProblem(w, http.StatusConflict, "Room unavailable", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeProblem(w, http.StatusConflict, "Invalid transition", err.Error())
	case errors.Is(err, domain.ErrTransient), errors.Is(err, context.DeadlineExceeded):
		log.Warn().Err(err).Msg("transient failure")
		w.Header().Set("Retry-After", "1")
		writeProblem(w, http.StatusServiceUnavailable, "Service Unavailable", "temporary failure, retry later")
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// writeCached answers with a weak ETag and honors If-None-Match.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	w.Header().Set("ETag", etag)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("write cached body failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}
