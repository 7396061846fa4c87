package mysql

// -----------------------------------------------------------------------------
// RESERVATIONS
// -----------------------------------------------------------------------------

const insertReservationSQL = `
INSERT INTO reservations
  (reference, user_id, guest_name, guest_email, check_in_time, check_out_time,
   currency, total_price, discount_amount, discount_policy_name, is_late_checkout, status, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const insertBindingsPrefix = "INSERT INTO reservation_rooms\n  (reservation_id, room_id, room_type_id, hotel_id, room_number, price)\nVALUES "

// %s is the placeholder list of room ids.
const insertGuardsSQL = "INSERT IGNORE INTO room_guards (room_id) VALUES %s"

const lockGuardsSQL = "SELECT room_id FROM room_guards WHERE room_id IN (%s) ORDER BY room_id FOR UPDATE"

// Blocking statuses must match domain.Status.Blocks.
const occupanciesSQL = `
SELECT r.id, rr.room_id, r.check_in_time, r.check_out_time, r.is_late_checkout, r.status
FROM reservation_rooms rr
JOIN reservations r ON r.id = rr.reservation_id
WHERE rr.room_id IN (%s)
  AND r.status IN ('PENDING', 'CONFIRMED', 'CHECKED_IN')
  AND r.check_in_time < ?
  AND r.check_out_time > ?
`

const reservationColumns = `
  r.id, r.reference, r.user_id, r.guest_name, r.guest_email,
  r.check_in_time, r.check_out_time, r.actual_check_in_time, r.actual_check_out_time,
  r.currency, r.total_price, r.discount_amount, r.discount_policy_name,
  r.is_late_checkout, r.status, r.created_at`

const getReservationSQL = "SELECT" + reservationColumns + "\nFROM reservations r\nWHERE r.id = ?"

const listByUserSQL = "SELECT" + reservationColumns + `
FROM reservations r
WHERE r.user_id = ?
ORDER BY r.check_in_time DESC, r.id DESC`

const listByHotelSQL = "SELECT" + reservationColumns + `
FROM reservations r
WHERE r.id IN (SELECT reservation_id FROM reservation_rooms WHERE hotel_id = ?)
  AND r.check_in_time < ?
  AND r.check_out_time > ?
ORDER BY r.check_in_time, r.id`

const bindingsSQL = `
SELECT reservation_id, room_id, room_type_id, hotel_id, room_number, price
FROM reservation_rooms
WHERE reservation_id IN (%s)
ORDER BY reservation_id, room_id`

const checkInSQL = `
UPDATE reservations SET status = ?, actual_check_in_time = ?
WHERE id = ? AND status = ?`

const checkOutSQL = `
UPDATE reservations SET status = ?, actual_check_out_time = ?
WHERE id = ? AND status = ?`

const setStatusSQL = `
UPDATE reservations SET status = ?
WHERE id = ? AND status = ?`

const statusSQL = "SELECT status FROM reservations WHERE id = ?"

// Line totals only count the rooms of the requested hotel.
const settlementSQL = `
SELECT
  r.id,
  r.reference,
  COALESCE(r.actual_check_out_time, r.check_out_time) AS checked_out_at,
  r.currency,
  GROUP_CONCAT(rr.room_number ORDER BY rr.room_number SEPARATOR ','),
  SUM(rr.price)
FROM reservations r
JOIN reservation_rooms rr ON rr.reservation_id = r.id AND rr.hotel_id = ?
WHERE r.status = 'CHECKED_OUT'
  AND COALESCE(r.actual_check_out_time, r.check_out_time) >= ?
  AND COALESCE(r.actual_check_out_time, r.check_out_time) < ?
GROUP BY r.id, r.reference, checked_out_at, r.currency
ORDER BY checked_out_at, r.id
`

// -----------------------------------------------------------------------------
// DISCOUNT POLICIES
// -----------------------------------------------------------------------------

const policyColumns = "id, hotel_id, name, min_days, type, discount_rate, discount_amount"

const listPoliciesSQL = "SELECT " + policyColumns + " FROM discount_policies WHERE hotel_id = ? ORDER BY id"

const getPolicySQL = "SELECT " + policyColumns + " FROM discount_policies WHERE id = ?"

const insertPolicySQL = `
INSERT INTO discount_policies (hotel_id, name, min_days, type, discount_rate, discount_amount)
VALUES (?, ?, ?, ?, ?, ?)
`

const deletePolicySQL = "DELETE FROM discount_policies WHERE id = ?"

// -----------------------------------------------------------------------------
// CATALOG (read only)
// -----------------------------------------------------------------------------

const getHotelSQL = "SELECT id, name, address FROM hotels WHERE id = ?"

const listHotelsSQL = "SELECT id, name, address FROM hotels ORDER BY id"

const roomTypeColumns = "id, hotel_id, name, capacity, price_krw, price_usd, price_php, active"

const roomTypesByHotelSQL = "SELECT " + roomTypeColumns + " FROM room_types WHERE hotel_id = ? ORDER BY id"

const getRoomTypeSQL = "SELECT " + roomTypeColumns + " FROM room_types WHERE id = ?"

const roomTypesByIDSQL = "SELECT " + roomTypeColumns + " FROM room_types WHERE id IN (%s) ORDER BY id"

const roomsByTypeSQL = "SELECT id, room_type_id, room_number, active FROM rooms WHERE room_type_id = ? ORDER BY id"

const roomsByIDSQL = "SELECT id, room_type_id, room_number, active FROM rooms WHERE id IN (%s) ORDER BY id"
