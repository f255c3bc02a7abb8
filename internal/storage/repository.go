// Package storage is the SQLite-backed Remote Bill Store. It also persists the
// session key/value records and the user accounts used by local logins.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"billed/internal/auth"
	"billed/internal/core"
	"billed/internal/session"
	"billed/internal/store"
)

type SQLiteRepository struct {
	db          *sql.DB
	receiptsDir string
	issuer      *auth.Issuer
}

var (
	_ store.Bills         = (*SQLiteRepository)(nil)
	_ store.Authenticator = (*SQLiteRepository)(nil)
	_ session.Storage     = (*SQLiteRepository)(nil)
)

// NewSQLiteRepository opens (or creates) the database at dbPath. Uploaded
// receipts are written under receiptsDir.
func NewSQLiteRepository(dbPath, receiptsDir string, issuer *auth.Issuer) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	if err := os.MkdirAll(receiptsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create receipts directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, receiptsDir: receiptsDir, issuer: issuer}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const billColumns = `id, email, type, name, amount_cents, date, vat, pct, commentary, file_url, file_name, status, comment_admin`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(row rowScanner) (core.Bill, error) {
	var (
		b      core.Bill
		cents  int64
		status string
	)
	err := row.Scan(&b.ID, &b.Email, &b.Type, &b.Name, &cents, &b.Date, &b.VAT, &b.Pct,
		&b.Commentary, &b.FileURL, &b.FileName, &status, &b.CommentAdmin)
	if err != nil {
		return core.Bill{}, err
	}
	b.Amount = core.Money{Cents: cents}
	b.Status = core.Status(status)
	return b, nil
}

// List returns every bill, newest first by insertion.
func (r *SQLiteRepository) List(ctx context.Context) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+billColumns+` FROM bills ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, serverError("list", err)
	}
	defer rows.Close()

	var bills []core.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, serverError("list", err)
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, serverError("list", err)
	}
	return bills, nil
}

// Get returns a single bill by id.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Bill, error) {
	b, err := scanBill(r.db.QueryRowContext(ctx, `SELECT `+billColumns+` FROM bills WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, notFound("get", id)
	}
	if err != nil {
		return core.Bill{}, serverError("get", err)
	}
	return b, nil
}

// Create writes the receipt to disk and inserts a pending bill that references it.
func (r *SQLiteRepository) Create(ctx context.Context, u store.Upload) (store.Receipt, error) {
	name := filepath.Base(strings.TrimSpace(u.FileName))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return store.Receipt{}, &store.Error{Kind: store.KindUnknown, Op: "create", Message: "Erreur 400"}
	}

	key := uuid.NewString()
	dir := filepath.Join(r.receiptsDir, key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return store.Receipt{}, serverError("create", fmt.Errorf("create receipt directory: %w", err))
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, u.Content, 0o644); err != nil {
		return store.Receipt{}, serverError("create", fmt.Errorf("write receipt: %w", err))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	rec := store.Receipt{
		FileURL:  (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(),
		FileName: name,
		Key:      key,
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO bills (id, email, file_url, file_name, status) VALUES (?, ?, ?, ?, ?)`,
		key, u.Email, rec.FileURL, rec.FileName, string(core.StatusPending))
	if err != nil {
		os.RemoveAll(dir)
		return store.Receipt{}, serverError("create", err)
	}

	slog.InfoContext(ctx, "Receipt stored",
		"id", key,
		"file_name", rec.FileName,
		"size", len(u.Content))
	return rec, nil
}

// Update overwrites the employee-supplied fields. The receipt pair is only
// replaced when the update carries both halves.
func (r *SQLiteRepository) Update(ctx context.Context, id string, b core.Bill) (core.Bill, error) {
	status := b.Status
	if status == "" {
		status = core.StatusPending
	}
	if !status.IsValid() {
		return core.Bill{}, &store.Error{Kind: store.KindUnknown, Op: "update", Message: "Erreur 400: invalid status " + string(status)}
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE bills SET
			email = CASE WHEN ? = '' THEN email ELSE ? END,
			type = ?, name = ?, amount_cents = ?, date = ?, vat = ?, pct = ?,
			commentary = ?, status = ?, comment_admin = ?,
			file_url = CASE WHEN ? = '' OR ? = '' THEN file_url ELSE ? END,
			file_name = CASE WHEN ? = '' OR ? = '' THEN file_name ELSE ? END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		b.Email, b.Email,
		b.Type, b.Name, b.Amount.Cents, b.Date, b.VAT, b.Pct,
		b.Commentary, string(status), b.CommentAdmin,
		b.FileURL, b.FileName, b.FileURL,
		b.FileURL, b.FileName, b.FileName,
		id)
	if err != nil {
		return core.Bill{}, serverError("update", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Bill{}, notFound("update", id)
	}

	slog.InfoContext(ctx, "Bill updated", "id", id, "status", status)
	return r.Get(ctx, id)
}

// MarkExported records that the bill has been appended to the spreadsheet.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE bills SET exported_at = ? WHERE id = ?`, at.UTC(), id); err != nil {
		return fmt.Errorf("mark bill exported: %w", err)
	}
	return nil
}

// IsExported reports whether the bill was already appended to the
// spreadsheet. Unknown bills report false.
func (r *SQLiteRepository) IsExported(ctx context.Context, id string) (bool, error) {
	var exported bool
	err := r.db.QueryRowContext(ctx, `SELECT exported_at IS NOT NULL FROM bills WHERE id = ?`, id).Scan(&exported)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query bill export state: %w", err)
	}
	return exported, nil
}

// ListUnexported returns up to limit pending bills that were never appended
// to the spreadsheet, oldest first.
func (r *SQLiteRepository) ListUnexported(ctx context.Context, limit int) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+billColumns+` FROM bills
		WHERE exported_at IS NULL AND status = 'pending'
		ORDER BY created_at, rowid LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unexported bills: %w", err)
	}
	defer rows.Close()

	var bills []core.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan unexported bill: %w", err)
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

// AddUser creates or replaces the account for email.
func (r *SQLiteRepository) AddUser(ctx context.Context, email string, userType core.UserType, password string) error {
	if !userType.IsValid() {
		return core.ErrInvalidUserType
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (email, type, password_hash) VALUES (?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET type = excluded.type, password_hash = excluded.password_hash`,
		strings.ToLower(email), string(userType), hash)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// Login checks credentials and role, and issues a signed token.
func (r *SQLiteRepository) Login(ctx context.Context, c store.Credentials) (string, error) {
	var userType, hash string
	err := r.db.QueryRowContext(ctx, `SELECT type, password_hash FROM users WHERE email = ?`,
		strings.ToLower(c.Email)).Scan(&userType, &hash)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", serverError("login", err)
	}
	if err != nil || !auth.CheckPassword(hash, c.Password) {
		return "", &store.Error{Kind: store.KindUnauthorized, Op: "login", Message: "Erreur 401", Err: store.ErrInvalidCredentials}
	}
	if c.Type != "" && core.UserType(userType) != c.Type {
		return "", &store.Error{Kind: store.KindUnauthorized, Op: "login", Message: "Erreur 403", Err: store.ErrInvalidCredentials}
	}
	if r.issuer == nil {
		return "", nil
	}
	return r.issuer.Issue(c.Email, core.UserType(userType))
}

// GetItem implements session.Storage.
func (r *SQLiteRepository) GetItem(key string) (string, bool) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Warn("Failed to read session item", "key", key, "error", err)
		}
		return "", false
	}
	return value, true
}

func (r *SQLiteRepository) SetItem(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("set item %s: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) RemoveItem(key string) error {
	if _, err := r.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("remove item %s: %w", key, err)
	}
	return nil
}

func serverError(op string, err error) error {
	return &store.Error{Kind: store.KindServerError, Op: op, Message: "Erreur 500", Err: err}
}

func notFound(op, id string) error {
	return &store.Error{Kind: store.KindNotFound, Op: op, Message: "Erreur 404: bill " + id, Err: store.ErrNotFound}
}
