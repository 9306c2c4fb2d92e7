package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	logx "github.com/malyarq/happiness-bot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

// Open initializes the SQLite store at cfg.Path, creating the schema when
// missing.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if log.IsZero() {
		log = logx.Nop()
	}
	st := &sqliteStore{db: db, log: log}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ---- Users ----

func (s *sqliteStore) AddUser(ctx context.Context, u User) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users(id, username, send_time, active) VALUES(?,?,?,?)`,
		u.ID, u.Username, u.SendTime, boolInt(u.Active),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrExists
	}
	s.log.Info("user added", logx.Int64("user_id", u.ID), logx.String("username", u.Username))
	return nil
}

func (s *sqliteStore) GetUser(ctx context.Context, id int64) (User, error) {
	var u User
	var active int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, send_time, active FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Username, &u.SendTime, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.Active = active != 0
	return u, nil
}

func (s *sqliteStore) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	s.log.Info("user deleted", logx.Int64("user_id", id))
	return nil
}

func (s *sqliteStore) UpdateUserTime(ctx context.Context, id int64, sendTime string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET send_time = ? WHERE id = ?`, sendTime, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	s.log.Info("user time updated", logx.Int64("user_id", id), logx.String("send_time", sendTime))
	return nil
}

func (s *sqliteStore) ListActiveUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, send_time, active FROM users WHERE active = 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		var active int
		if err := rows.Scan(&u.ID, &u.Username, &u.SendTime, &active); err != nil {
			return nil, err
		}
		u.Active = active != 0
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *sqliteStore) SetAllActive(ctx context.Context, active bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET active = ?`, boolInt(active))
	if err == nil {
		s.log.Info("broadcast flag updated", logx.Bool("active", active))
	}
	return err
}

// ---- Quotes ----

func (s *sqliteStore) AddQuote(ctx context.Context, text, author string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO quotes(quote, author) VALUES(?,?)`, text, author)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *sqliteStore) DeleteQuote(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quotes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	s.log.Info("quote deleted", logx.Int64("quote_id", id))
	return nil
}

func (s *sqliteStore) RandomQuote(ctx context.Context) (Quote, error) {
	var q Quote
	err := s.db.QueryRowContext(ctx,
		`SELECT id, quote, author FROM quotes ORDER BY RANDOM() LIMIT 1`,
	).Scan(&q.ID, &q.Text, &q.Author)
	if errors.Is(err, sql.ErrNoRows) {
		return Quote{}, ErrNotFound
	}
	if err != nil {
		return Quote{}, err
	}
	return q, nil
}

func (s *sqliteStore) ListQuotes(ctx context.Context) ([]Quote, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, quote, author FROM quotes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Quote
	for rows.Next() {
		var q Quote
		if err := rows.Scan(&q.ID, &q.Text, &q.Author); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *sqliteStore) CountQuotes(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quotes`).Scan(&n)
	return n, err
}

// ---- Pending quotes ----

func (s *sqliteStore) AddPendingQuote(ctx context.Context, userID int64, text, author string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	// Proposer must reference an existing user.
	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO pending_quotes(user_id, quote, author) VALUES(?,?,?)`,
		userID, text, author)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	s.log.Info("pending quote added", logx.Int64("proposal_id", id), logx.Int64("user_id", userID))
	return id, nil
}

func (s *sqliteStore) GetPendingQuote(ctx context.Context, id int64) (PendingQuote, error) {
	var p PendingQuote
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, quote, author, status FROM pending_quotes WHERE id = ?`, id,
	).Scan(&p.ID, &p.UserID, &p.Text, &p.Author, &p.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return PendingQuote{}, ErrNotFound
	}
	if err != nil {
		return PendingQuote{}, err
	}
	return p, nil
}

// AcceptPendingQuote resolves the proposal and inserts the quote atomically.
// The status flip is a compare-and-swap on 'pending', so two concurrent
// decisions can never both apply.
func (s *sqliteStore) AcceptPendingQuote(ctx context.Context, id int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := casPendingStatus(ctx, tx, id, StatusAccepted); err != nil {
		return 0, err
	}

	var text, author string
	if err := tx.QueryRowContext(ctx,
		`SELECT quote, author FROM pending_quotes WHERE id = ?`, id,
	).Scan(&text, &author); err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO quotes(quote, author) VALUES(?,?)`, text, author)
	if err != nil {
		return 0, err
	}
	quoteID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	s.log.Info("pending quote accepted", logx.Int64("proposal_id", id), logx.Int64("quote_id", quoteID))
	return quoteID, nil
}

func (s *sqliteStore) RejectPendingQuote(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := casPendingStatus(ctx, tx, id, StatusRejected); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.log.Info("pending quote rejected", logx.Int64("proposal_id", id))
	return nil
}

func casPendingStatus(ctx context.Context, tx *sql.Tx, id int64, status string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE pending_quotes SET status = ? WHERE id = ? AND status = ?`,
		status, id, StatusPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	// Nothing swapped: either the row is gone or it was already decided.
	var existing string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM pending_quotes WHERE id = ?`, id).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrAlreadyDecided
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
