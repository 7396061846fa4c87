package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"hotel_core/internal/domain"
)

// MySQL server error numbers the repository reacts to.
const (
	errLockDeadlock    = 1213
	errLockWaitTimeout = 1205
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func valTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// placeholders returns "?,?,?" for n values and the ids as args.
func placeholders(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}

func amount(ns sql.NullString) (domain.Amount, error) {
	if !ns.Valid {
		return 0, nil
	}
	return domain.ParseAmount(ns.String)
}

// storageErr keeps domain errors as they are and marks everything else
// transient.
func storageErr(err error) error {
	if err == nil {
		return nil
	}
	for _, d := range []error{
		domain.ErrNotFound, domain.ErrRoomUnavailable, domain.ErrInvalidTransition,
		domain.ErrInvalidPolicy, domain.ErrTransient,
	} {
		if errors.Is(err, d) {
			return err
		}
	}
	return domain.Transient(err)
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ---- booking unit ----

type bookingTx struct{ tx *sql.Tx }

// Atomically runs the unit at READ COMMITTED. Units touching a common room
// queue on its guard row, and each statement after the lock reads the
// latest committed bindings, so plain reads take no gap locks that could
// deadlock units booking disjoint rooms.
func (r *Repo) Atomically(ctx context.Context, fn func(ctx context.Context, tx domain.BookingTx) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return domain.Transient(err)
	}
	if err := fn(ctx, &bookingTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return conflictErr(err)
	}
	if err := tx.Commit(); err != nil {
		return conflictErr(err)
	}
	return nil
}

// conflictErr turns InnoDB deadlocks between booking units sharing a room
// into ErrRoomUnavailable; the losing unit has been rolled back.
func conflictErr(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == errLockDeadlock {
		return fmt.Errorf("%w: concurrent booking: %v", domain.ErrRoomUnavailable, err)
	}
	return storageErr(err)
}

func (b *bookingTx) LockRooms(ctx context.Context, roomIDs []int64) error {
	if len(roomIDs) == 0 {
		return nil
	}
	values := strings.TrimSuffix(strings.Repeat("(?),", len(roomIDs)), ",")
	ph, args := placeholders(roomIDs)
	if _, err := b.tx.ExecContext(ctx, fmt.Sprintf(insertGuardsSQL, values), args...); err != nil {
		return err
	}
	rows, err := b.tx.QueryContext(ctx, fmt.Sprintf(lockGuardsSQL, ph), args...)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == errLockWaitTimeout {
			return domain.Transient(err)
		}
		return err
	}
	defer rows.Close()
	for rows.Next() {
	}
	return rows.Err()
}

func (b *bookingTx) Occupancies(ctx context.Context, roomIDs []int64, window domain.Interval) ([]domain.Occupancy, error) {
	return occupancies(ctx, b.tx, roomIDs, window)
}

func (b *bookingTx) InsertReservation(ctx context.Context, r domain.Reservation) (int64, error) {
	res, err := b.tx.ExecContext(ctx, insertReservationSQL,
		r.Reference,
		r.Guest.UserID,
		r.Guest.Name,
		r.Guest.Email,
		r.CheckIn.UTC(),
		r.CheckOut.UTC(),
		string(r.Currency),
		r.TotalPrice.String(),
		r.DiscountAmount.String(),
		valStr(r.DiscountPolicyName),
		r.LateCheckout,
		string(r.Status),
		r.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if len(r.Rooms) == 0 {
		return id, nil
	}

	values := make([]string, 0, len(r.Rooms))
	args := make([]any, 0, len(r.Rooms)*6)
	for _, rb := range r.Rooms {
		values = append(values, "(?,?,?,?,?,?)")
		args = append(args, id, rb.RoomID, rb.RoomTypeID, rb.HotelID, rb.RoomNumber, rb.Price.String())
	}
	if _, err := b.tx.ExecContext(ctx, insertBindingsPrefix+strings.Join(values, ","), args...); err != nil {
		return 0, err
	}
	return id, nil
}

// ---- reads ----

func (r *Repo) Occupancies(ctx context.Context, roomIDs []int64, window domain.Interval) ([]domain.Occupancy, error) {
	out, err := occupancies(ctx, r.db, roomIDs, window)
	return out, storageErr(err)
}

func occupancies(ctx context.Context, q querier, roomIDs []int64, window domain.Interval) ([]domain.Occupancy, error) {
	if len(roomIDs) == 0 {
		return nil, nil
	}
	ph, args := placeholders(roomIDs)
	args = append(args, window.End.UTC(), window.Start.UTC())
	rows, err := q.QueryContext(ctx, fmt.Sprintf(occupanciesSQL, ph), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Occupancy
	for rows.Next() {
		var o domain.Occupancy
		var status string
		if err := rows.Scan(&o.ReservationID, &o.RoomID, &o.CheckIn, &o.CheckOut, &o.LateCheckout, &status); err != nil {
			return nil, err
		}
		o.Status = domain.Status(status)
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repo) GetReservation(ctx context.Context, id int64) (domain.Reservation, error) {
	res, err := r.queryReservations(ctx, getReservationSQL, id)
	if err != nil {
		return domain.Reservation{}, storageErr(err)
	}
	if len(res) == 0 {
		return domain.Reservation{}, fmt.Errorf("reservation %d: %w", id, domain.ErrNotFound)
	}
	return res[0], nil
}

func (r *Repo) ListByUser(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	res, err := r.queryReservations(ctx, listByUserSQL, userID)
	return res, storageErr(err)
}

func (r *Repo) ListByHotel(ctx context.Context, hotelID int64, window domain.Interval) ([]domain.Reservation, error) {
	res, err := r.queryReservations(ctx, listByHotelSQL, hotelID, window.End.UTC(), window.Start.UTC())
	return res, storageErr(err)
}

// queryReservations scans reservation rows and attaches their bindings.
func (r *Repo) queryReservations(ctx context.Context, query string, args ...any) ([]domain.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Reservation{}
	index := map[int64]int{}
	for rows.Next() {
		var (
			res                    domain.Reservation
			actualIn, actualOut    sql.NullTime
			total, discount, pname sql.NullString
			currency, status       string
		)
		if err := rows.Scan(
			&res.ID, &res.Reference, &res.Guest.UserID, &res.Guest.Name, &res.Guest.Email,
			&res.CheckIn, &res.CheckOut, &actualIn, &actualOut,
			&currency, &total, &discount, &pname,
			&res.LateCheckout, &status, &res.CreatedAt,
		); err != nil {
			return nil, err
		}
		if actualIn.Valid {
			t := actualIn.Time
			res.ActualCheckIn = &t
		}
		if actualOut.Valid {
			t := actualOut.Time
			res.ActualCheckOut = &t
		}
		if res.TotalPrice, err = amount(total); err != nil {
			return nil, err
		}
		if res.DiscountAmount, err = amount(discount); err != nil {
			return nil, err
		}
		res.DiscountPolicyName = pname.String
		res.Currency = domain.Currency(currency)
		res.Status = domain.Status(status)
		index[res.ID] = len(out)
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]int64, len(out))
	for i, res := range out {
		ids[i] = res.ID
	}
	ph, bargs := placeholders(ids)
	brows, err := r.db.QueryContext(ctx, fmt.Sprintf(bindingsSQL, ph), bargs...)
	if err != nil {
		return nil, err
	}
	defer brows.Close()
	for brows.Next() {
		var resID int64
		var b domain.RoomBinding
		var price sql.NullString
		if err := brows.Scan(&resID, &b.RoomID, &b.RoomTypeID, &b.HotelID, &b.RoomNumber, &price); err != nil {
			return nil, err
		}
		if b.Price, err = amount(price); err != nil {
			return nil, err
		}
		i := index[resID]
		out[i].Rooms = append(out[i].Rooms, b)
	}
	return out, brows.Err()
}

// ---- lifecycle ----

func (r *Repo) CompareAndSetStatus(ctx context.Context, id int64, from, to domain.Status, at time.Time) error {
	var (
		res sql.Result
		err error
	)
	switch to {
	case domain.StatusCheckedIn:
		res, err = r.db.ExecContext(ctx, checkInSQL, string(to), at.UTC(), id, string(from))
	case domain.StatusCheckedOut:
		res, err = r.db.ExecContext(ctx, checkOutSQL, string(to), at.UTC(), id, string(from))
	default:
		res, err = r.db.ExecContext(ctx, setStatusSQL, string(to), id, string(from))
	}
	if err != nil {
		return storageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(err)
	}
	if n == 1 {
		return nil
	}

	var current string
	if err := r.db.QueryRowContext(ctx, statusSQL, id).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("reservation %d: %w", id, domain.ErrNotFound)
		}
		return storageErr(err)
	}
	return fmt.Errorf("%w: reservation %d is %s, expected %s", domain.ErrInvalidTransition, id, current, from)
}

// ---- settlement ----

func (r *Repo) SettlementLines(ctx context.Context, hotelID int64, window domain.Interval) ([]domain.SettlementLine, error) {
	rows, err := r.db.QueryContext(ctx, settlementSQL, hotelID, window.Start.UTC(), window.End.UTC())
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var out []domain.SettlementLine
	for rows.Next() {
		var (
			l        domain.SettlementLine
			currency string
			rooms    sql.NullString
			total    sql.NullString
		)
		if err := rows.Scan(&l.ReservationID, &l.Reference, &l.CheckedOutAt, &currency, &rooms, &total); err != nil {
			return nil, storageErr(err)
		}
		l.Currency = domain.Currency(currency)
		if rooms.Valid && rooms.String != "" {
			l.Rooms = strings.Split(rooms.String, ",")
		}
		if l.TotalPrice, err = amount(total); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, storageErr(rows.Err())
}
