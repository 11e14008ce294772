// Package sqlstore provides a relational storage implementation backed by
// Postgres (lib/pq) or SQLite (modernc.org/sqlite) through sqlx.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/mcoot/dinkup/internal/model"
	"github.com/mcoot/dinkup/internal/storage"
	"github.com/mcoot/dinkup/internal/storage/sqlstore/migrations"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Config holds SQL connection settings
type Config struct {
	Driver       string
	DSN          string
	MaxOpenConns int
}

// Store persists pools, sessions and payments in a SQL database
type Store struct {
	db     *sqlx.DB
	driver string
}

// Open connects to the database and applies embedded migrations
func Open(ctx context.Context, cfg Config) (*Store, error) {
	switch cfg.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sql dsn is required")
	}

	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// SQLite allows one writer; a single connection also keeps :memory: databases shared
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := ApplyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, driver: cfg.Driver}, nil
}

// SQLiteDSN builds a modernc.org/sqlite DSN with foreign keys and a busy timeout
func SQLiteDSN(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Close closes the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for health checks
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Ensure Store implements the interface
var _ storage.Storage = (*Store)(nil)

const (
	accountColumns     = "id, email, password_hash, created_at, updated_at"
	playerColumns      = "id, account_id, name, email, phone, payment_handle, notify_email, notify_sms, active, created_at"
	poolColumns        = "id, name, description, active, owner_id, invite_code, created_at, updated_at"
	poolMemberColumns  = "pool_id, player_id, active, joined_at"
	sessionColumns     = "id, pool_id, starts_at, duration_ms, min_players, max_players, courts_needed, cost_per_court, guest_pool_per_court, payment_deadline, notes, status, roster_locked, locked_at, booking_ids, court_numbers, location, created_at, updated_at"
	participantColumns = "id, session_id, player_id, name, is_admin, status, waitlist_position, joined_at, updated_at"
	paymentColumns     = "id, session_id, participant_id, player_id, amount, status, link, requested_at, paid_at"
)

// forUpdate returns the row-locking clause for the current driver.
// SQLite has no row locks; its single connection serializes transactions instead.
func (s *Store) forUpdate() string {
	if s.driver == DriverPostgres {
		return " FOR UPDATE"
	}
	return ""
}

// get runs a single-row query, mapping sql.ErrNoRows to notFound
func get(ctx context.Context, q sqlx.ExtContext, dest any, notFound error, query string, args ...any) error {
	err := sqlx.GetContext(ctx, q, dest, q.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return err
}

// inQuery expands IN (?) placeholders and rebinds the query for the driver
func inQuery(q sqlx.ExtContext, query string, args ...any) (string, []any, error) {
	expanded, expandedArgs, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, err
	}
	return q.Rebind(expanded), expandedArgs, nil
}

// Account operations

func (s *Store) SaveAccount(ctx context.Context, account *model.Account) error {
	_, err := sqlx.NamedExecContext(ctx, s.db, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (:id, :email, :password_hash, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			email = excluded.email,
			password_hash = excluded.password_hash,
			updated_at = excluded.updated_at`,
		accountRow{
			ID:           string(account.ID),
			Email:        strings.ToLower(account.Email),
			PasswordHash: account.PasswordHash,
			CreatedAt:    toMillis(account.CreatedAt),
			UpdatedAt:    toMillis(account.UpdatedAt),
		})
	return err
}

func (s *Store) GetAccount(ctx context.Context, id model.AccountID) (*model.Account, error) {
	var row accountRow
	err := get(ctx, s.db, &row, model.ErrAccountNotFound,
		"SELECT "+accountColumns+" FROM accounts WHERE id = ?", string(id))
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	var row accountRow
	err := get(ctx, s.db, &row, model.ErrAccountNotFound,
		"SELECT "+accountColumns+" FROM accounts WHERE email = ?", strings.ToLower(email))
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// Player operations

func (s *Store) SavePlayer(ctx context.Context, player *model.Player) error {
	_, err := sqlx.NamedExecContext(ctx, s.db, `
		INSERT INTO players (`+playerColumns+`)
		VALUES (:id, :account_id, :name, :email, :phone, :payment_handle, :notify_email, :notify_sms, :active, :created_at)
		ON CONFLICT (id) DO UPDATE SET
			account_id = excluded.account_id,
			name = excluded.name,
			email = excluded.email,
			phone = excluded.phone,
			payment_handle = excluded.payment_handle,
			notify_email = excluded.notify_email,
			notify_sms = excluded.notify_sms,
			active = excluded.active`,
		newPlayerRow(player))
	return err
}

func (s *Store) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var row playerRow
	err := get(ctx, s.db, &row, model.ErrPlayerNotFound,
		"SELECT "+playerColumns+" FROM players WHERE id = ?", string(id))
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

func (s *Store) GetPlayerByAccount(ctx context.Context, accountID model.AccountID) (*model.Player, error) {
	var row playerRow
	err := get(ctx, s.db, &row, model.ErrPlayerNotFound,
		"SELECT "+playerColumns+" FROM players WHERE account_id = ?", string(accountID))
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// Pool operations

func (s *Store) CreatePool(ctx context.Context, pool *model.Pool) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := sqlx.NamedExecContext(ctx, tx, `
			INSERT INTO pools (`+poolColumns+`)
			VALUES (:id, :name, :description, :active, :owner_id, :invite_code, :created_at, :updated_at)`,
			newPoolRow(pool))
		if err != nil {
			return err
		}
		return upsertMembers(ctx, tx, pool)
	})
}

func (s *Store) GetPool(ctx context.Context, id model.PoolID) (*model.Pool, error) {
	return s.loadPool(ctx, s.db, "SELECT "+poolColumns+" FROM pools WHERE id = ?", string(id))
}

func (s *Store) GetPoolByInviteCode(ctx context.Context, code model.InviteCode) (*model.Pool, error) {
	return s.loadPool(ctx, s.db, "SELECT "+poolColumns+" FROM pools WHERE invite_code = ?", string(code))
}

func (s *Store) InviteCodeExists(ctx context.Context, code model.InviteCode) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, s.db, &n,
		s.db.Rebind("SELECT COUNT(*) FROM pools WHERE invite_code = ?"), string(code))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) ListPoolsForPlayer(ctx context.Context, playerID model.PlayerID) ([]*model.Pool, error) {
	var rows []poolRow
	err := sqlx.SelectContext(ctx, s.db, &rows, s.db.Rebind(`
		SELECT p.id, p.name, p.description, p.active, p.owner_id, p.invite_code, p.created_at, p.updated_at
		FROM pools p
		JOIN pool_members m ON m.pool_id = p.id
		WHERE m.player_id = ? AND m.active = ?
		ORDER BY p.id`), string(playerID), true)
	if err != nil {
		return nil, err
	}

	pools := make([]*model.Pool, 0, len(rows))
	for _, row := range rows {
		pools = append(pools, row.toModel())
	}
	if err := attachMembers(ctx, s.db, pools); err != nil {
		return nil, err
	}
	return pools, nil
}

func (s *Store) UpdatePool(ctx context.Context, id model.PoolID, fn storage.PoolMutator) (*model.Pool, error) {
	var result *model.Pool
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		pool, err := s.loadPool(ctx, tx, "SELECT "+poolColumns+" FROM pools WHERE id = ?"+s.forUpdate(), string(id))
		if err != nil {
			return err
		}
		if err := fn(pool); err != nil {
			return err
		}
		pool.ID = id

		_, err = sqlx.NamedExecContext(ctx, tx, `
			UPDATE pools SET
				name = :name,
				description = :description,
				active = :active,
				owner_id = :owner_id,
				invite_code = :invite_code,
				updated_at = :updated_at
			WHERE id = :id`,
			newPoolRow(pool))
		if err != nil {
			return err
		}
		if err := upsertMembers(ctx, tx, pool); err != nil {
			return err
		}
		result = pool
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) loadPool(ctx context.Context, q sqlx.ExtContext, query string, args ...any) (*model.Pool, error) {
	var row poolRow
	if err := get(ctx, q, &row, model.ErrPoolNotFound, query, args...); err != nil {
		return nil, err
	}
	pool := row.toModel()
	if err := attachMembers(ctx, q, []*model.Pool{pool}); err != nil {
		return nil, err
	}
	return pool, nil
}

// attachMembers loads memberships for all pools in one query
func attachMembers(ctx context.Context, q sqlx.ExtContext, pools []*model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	ids := make([]string, len(pools))
	byID := make(map[model.PoolID]*model.Pool, len(pools))
	for i, p := range pools {
		ids[i] = string(p.ID)
		byID[p.ID] = p
	}

	query, args, err := inQuery(q,
		"SELECT "+poolMemberColumns+" FROM pool_members WHERE pool_id IN (?) ORDER BY joined_at, player_id", ids)
	if err != nil {
		return err
	}
	var rows []poolMemberRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return err
	}
	for _, row := range rows {
		pool := byID[model.PoolID(row.PoolID)]
		pool.Members = append(pool.Members, model.PoolMember{
			PlayerID: model.PlayerID(row.PlayerID),
			Active:   row.Active,
			JoinedAt: fromMillis(row.JoinedAt),
		})
	}
	return nil
}

func upsertMembers(ctx context.Context, tx *sqlx.Tx, pool *model.Pool) error {
	for _, m := range pool.Members {
		_, err := sqlx.NamedExecContext(ctx, tx, `
			INSERT INTO pool_members (`+poolMemberColumns+`)
			VALUES (:pool_id, :player_id, :active, :joined_at)
			ON CONFLICT (pool_id, player_id) DO UPDATE SET
				active = excluded.active,
				joined_at = excluded.joined_at`,
			poolMemberRow{
				PoolID:   string(pool.ID),
				PlayerID: string(m.PlayerID),
				Active:   m.Active,
				JoinedAt: toMillis(m.JoinedAt),
			})
		if err != nil {
			return err
		}
	}
	return nil
}

// Session operations

func (s *Store) CreateSession(ctx context.Context, session *model.Session) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := sqlx.NamedExecContext(ctx, tx, `
			INSERT INTO sessions (`+sessionColumns+`)
			VALUES (:id, :pool_id, :starts_at, :duration_ms, :min_players, :max_players, :courts_needed,
				:cost_per_court, :guest_pool_per_court, :payment_deadline, :notes, :status, :roster_locked,
				:locked_at, :booking_ids, :court_numbers, :location, :created_at, :updated_at)`,
			newSessionRow(session))
		if err != nil {
			return err
		}
		return writeRoster(ctx, tx, session)
	})
}

func (s *Store) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	sessions, err := s.loadSessions(ctx, s.db, "SELECT "+sessionColumns+" FROM sessions WHERE id = ?", string(id))
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, model.ErrSessionNotFound
	}
	return sessions[0], nil
}

func (s *Store) ListSessionsForPool(ctx context.Context, poolID model.PoolID) ([]*model.Session, error) {
	return s.loadSessions(ctx, s.db,
		"SELECT "+sessionColumns+" FROM sessions WHERE pool_id = ? ORDER BY starts_at, id", string(poolID))
}

func (s *Store) ListSessionsWithDeadlineBetween(ctx context.Context, from, to time.Time) ([]*model.Session, error) {
	return s.loadSessions(ctx, s.db, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE roster_locked = ? AND payment_deadline BETWEEN ? AND ?
		ORDER BY starts_at, id`, true, toMillis(from), toMillis(to))
}

func (s *Store) UpdateSession(ctx context.Context, id model.SessionID, fn storage.SessionMutator) (*model.Session, error) {
	var result *model.Session
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		sessions, err := s.loadSessions(ctx, tx,
			"SELECT "+sessionColumns+" FROM sessions WHERE id = ?"+s.forUpdate(), string(id))
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			return model.ErrSessionNotFound
		}
		session := sessions[0]
		if err := fn(session); err != nil {
			return err
		}
		session.ID = id

		_, err = sqlx.NamedExecContext(ctx, tx, `
			UPDATE sessions SET
				starts_at = :starts_at,
				duration_ms = :duration_ms,
				min_players = :min_players,
				max_players = :max_players,
				courts_needed = :courts_needed,
				cost_per_court = :cost_per_court,
				guest_pool_per_court = :guest_pool_per_court,
				payment_deadline = :payment_deadline,
				notes = :notes,
				status = :status,
				roster_locked = :roster_locked,
				locked_at = :locked_at,
				booking_ids = :booking_ids,
				court_numbers = :court_numbers,
				location = :location,
				updated_at = :updated_at
			WHERE id = :id`,
			newSessionRow(session))
		if err != nil {
			return err
		}
		if err := writeRoster(ctx, tx, session); err != nil {
			return err
		}
		result = session
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) SessionForPayment(ctx context.Context, paymentID model.PaymentID) (model.SessionID, error) {
	var id string
	err := get(ctx, s.db, &id, model.ErrPaymentNotFound,
		"SELECT session_id FROM payments WHERE id = ?", string(paymentID))
	if err != nil {
		return "", err
	}
	return model.SessionID(id), nil
}

// loadSessions runs a session query and attaches rosters and payments with one query each
func (s *Store) loadSessions(ctx context.Context, q sqlx.ExtContext, query string, args ...any) ([]*model.Session, error) {
	var rows []sessionRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []*model.Session{}, nil
	}

	sessions := make([]*model.Session, 0, len(rows))
	byID := make(map[model.SessionID]*model.Session, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		session, err := row.toModel()
		if err != nil {
			return nil, fmt.Errorf("decode session %s: %w", row.ID, err)
		}
		sessions = append(sessions, session)
		byID[session.ID] = session
		ids = append(ids, row.ID)
	}

	partQuery, partArgs, err := inQuery(q,
		"SELECT "+participantColumns+" FROM participants WHERE session_id IN (?) ORDER BY id", ids)
	if err != nil {
		return nil, err
	}
	var participants []participantRow
	if err := sqlx.SelectContext(ctx, q, &participants, partQuery, partArgs...); err != nil {
		return nil, err
	}
	for _, row := range participants {
		session := byID[model.SessionID(row.SessionID)]
		session.Participants = append(session.Participants, row.toModel())
	}

	payQuery, payArgs, err := inQuery(q,
		"SELECT "+paymentColumns+" FROM payments WHERE session_id IN (?) ORDER BY id", ids)
	if err != nil {
		return nil, err
	}
	var payments []paymentRow
	if err := sqlx.SelectContext(ctx, q, &payments, payQuery, payArgs...); err != nil {
		return nil, err
	}
	for _, row := range payments {
		session := byID[model.SessionID(row.SessionID)]
		session.Payments = append(session.Payments, row.toModel())
	}

	return sessions, nil
}

// writeRoster makes the participant and payment tables match the session
func writeRoster(ctx context.Context, tx *sqlx.Tx, session *model.Session) error {
	keep := make([]string, 0, len(session.Participants))
	for _, p := range session.Participants {
		keep = append(keep, string(p.ID))
	}

	if len(keep) == 0 {
		_, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM participants WHERE session_id = ?"), string(session.ID))
		if err != nil {
			return err
		}
	} else {
		query, args, err := sqlx.In("DELETE FROM participants WHERE session_id = ? AND id NOT IN (?)", string(session.ID), keep)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return err
		}
	}

	for _, p := range session.Participants {
		p.SessionID = session.ID
		_, err := sqlx.NamedExecContext(ctx, tx, `
			INSERT INTO participants (`+participantColumns+`)
			VALUES (:id, :session_id, :player_id, :name, :is_admin, :status, :waitlist_position, :joined_at, :updated_at)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name,
				is_admin = excluded.is_admin,
				status = excluded.status,
				waitlist_position = excluded.waitlist_position,
				updated_at = excluded.updated_at`,
			newParticipantRow(p))
		if err != nil {
			return err
		}
	}

	for _, p := range session.Payments {
		p.SessionID = session.ID
		_, err := sqlx.NamedExecContext(ctx, tx, `
			INSERT INTO payments (`+paymentColumns+`)
			VALUES (:id, :session_id, :participant_id, :player_id, :amount, :status, :link, :requested_at, :paid_at)
			ON CONFLICT (id) DO UPDATE SET
				amount = excluded.amount,
				status = excluded.status,
				link = excluded.link,
				paid_at = excluded.paid_at`,
			newPaymentRow(p))
		if err != nil {
			return err
		}
	}
	return nil
}

// inTx runs fn in a transaction, committing only if fn succeeds
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
