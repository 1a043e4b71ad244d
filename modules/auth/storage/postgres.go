package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver for migrations
	"github.com/pressly/goose/v3"

	"github.com/romusha/forumauth/modules/auth"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// uniqueViolation is the Postgres error code raised by the unique email
// index.
const uniqueViolation = "23505"

// Postgres is an auth.Repository backed by a Postgres database via pgx.
// The device trust list and bookmarks are stored as JSONB columns; the
// rest of the record maps to plain columns.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to Postgres, applies pending migrations, and
// returns the repository.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if err := migrate(ctx, dsn); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// migrate runs embedded goose migrations over a temporary database/sql
// connection; goose does not speak the pgx native interface.
func migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

const accountColumns = `id, username, email, password_hash, totp_secret,
	paraphrase_hash, paraphrase_salt, public_key, trusted_devices,
	bookmarks, balance, created_at`

func (p *Postgres) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE lower(email) = lower($1)`,
		email)
	return scanAccount(row)
}

func (p *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*auth.Account, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`,
		id)
	return scanAccount(row)
}

func (p *Postgres) Create(ctx context.Context, account *auth.Account) error {
	devices, bookmarks, err := encodeJSONColumns(account)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		account.ID, account.Username, strings.ToLower(account.Email),
		account.PasswordHash, account.TOTPSecret,
		account.ParaphraseHash, account.ParaphraseSalt, account.PublicKey,
		devices, bookmarks, account.Balance, account.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return auth.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (p *Postgres) Update(ctx context.Context, account *auth.Account) error {
	devices, bookmarks, err := encodeJSONColumns(account)
	if err != nil {
		return err
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE accounts
		 SET username = $2, email = $3, password_hash = $4, totp_secret = $5,
		     paraphrase_hash = $6, paraphrase_salt = $7, public_key = $8,
		     trusted_devices = $9, bookmarks = $10, balance = $11
		 WHERE id = $1`,
		account.ID, account.Username, strings.ToLower(account.Email),
		account.PasswordHash, account.TOTPSecret,
		account.ParaphraseHash, account.ParaphraseSalt, account.PublicKey,
		devices, bookmarks, account.Balance)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrAccountNotFound
	}
	return nil
}

func (p *Postgres) List(ctx context.Context) ([]auth.Account, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []auth.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return accounts, nil
}

func encodeJSONColumns(account *auth.Account) ([]byte, []byte, error) {
	devices, err := json.Marshal(account.TrustedDevices)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode trusted devices: %w", err)
	}
	bookmarks := account.Bookmarks
	if bookmarks == nil {
		bookmarks = []string{}
	}
	encoded, err := json.Marshal(bookmarks)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode bookmarks: %w", err)
	}
	return devices, encoded, nil
}

func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		account   auth.Account
		devices   []byte
		bookmarks []byte
	)
	err := row.Scan(&account.ID, &account.Username, &account.Email,
		&account.PasswordHash, &account.TOTPSecret,
		&account.ParaphraseHash, &account.ParaphraseSalt, &account.PublicKey,
		&devices, &bookmarks, &account.Balance, &account.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	if err := json.Unmarshal(devices, &account.TrustedDevices); err != nil {
		return nil, fmt.Errorf("failed to decode trusted devices: %w", err)
	}
	if err := json.Unmarshal(bookmarks, &account.Bookmarks); err != nil {
		return nil, fmt.Errorf("failed to decode bookmarks: %w", err)
	}
	return &account, nil
}
