// Data layer: schema migration and queries for advisors, contacts, analytics events and TFSA history.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"
)

type Advisor struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Contact is the information a visitor leaves before seeing calculator results.
type Contact struct {
	ID         int64     `json:"-"`
	Ref        string    `json:"ref"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Calculator string    `json:"calculator"`
	CreatedAt  time.Time `json:"created_at"`
}

type AnalyticsEvent struct {
	ID         int64
	SessionID  string
	Calculator string
	ContactRef string
	CreatedAt  time.Time
}

type EventCount struct {
	Calculator string `json:"calculator"`
	Count      int64  `json:"count"`
}

const (
	RecordContribution = "contribution"
	RecordWithdrawal   = "withdrawal"
)

// StoredTFSARecord is one saved contribution or withdrawal, amounts in cents.
type StoredTFSARecord struct {
	ID          int64     `json:"id"`
	ContactID   int64     `json:"-"`
	Kind        string    `json:"kind"`
	Year        int       `json:"year"`
	AmountCents int64     `json:"amount_cents"`
	Note        string    `json:"note"`
	CreatedAt   time.Time `json:"created_at"`
}

// StoredTFSAProfile holds the non-transaction inputs of the TFSA calculator for a contact.
type StoredTFSAProfile struct {
	ContactID          int64  `json:"-"`
	BirthYear          int    `json:"birth_year"`
	ResidencySinceYear int    `json:"residency_since_year"`
	ManualRoomCents    int64  `json:"manual_room_cents"`
	Policy             string `json:"policy"`
}

// Store is the persistence contract used by the handlers. postgresStore backs it in
// production and memoryStore in tests and STORE=memory runs.
type Store interface {
	CreateAdvisor(ctx context.Context, email, passwordHash string) (int64, error)
	GetAdvisorByEmail(ctx context.Context, email string) (Advisor, error)
	GetAdvisorByID(ctx context.Context, id int64) (Advisor, error)

	CreateContact(ctx context.Context, c Contact) (Contact, error)
	GetContactByRef(ctx context.Context, ref string) (Contact, error)
	ListContacts(ctx context.Context, limit int) ([]Contact, error)

	RecordEvent(ctx context.Context, e AnalyticsEvent) error
	CountEvents(ctx context.Context) ([]EventCount, error)

	SaveTFSAProfile(ctx context.Context, p StoredTFSAProfile) error
	GetTFSAProfile(ctx context.Context, contactID int64) (StoredTFSAProfile, error)
	ListTFSARecords(ctx context.Context, contactID int64) ([]StoredTFSARecord, error)
	AddTFSARecord(ctx context.Context, r StoredTFSARecord) (int64, error)
	DeleteTFSARecord(ctx context.Context, contactID, id int64) error

	Close() error
}

type postgresStore struct {
	db *sql.DB
}

func openDB(env map[string]string) (*sql.DB, error) {
	host := getEnvDefault("DB_HOST", "localhost", env)
	port := getEnvDefault("DB_PORT", "5432", env)
	user := getEnvDefault("DB_USER", "postgres", env)
	password := getEnv("DB_PASSWORD", env)
	dbname := getEnvDefault("DB_NAME", "advisorcalc", env)
	sslmode := getEnvDefault("DB_SSLMODE", "disable", env)

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if p := getEnv("DB_MAX_OPEN", env); p != "" {
		if n, e := strconv.Atoi(p); e == nil && n > 0 {
			db.SetMaxOpenConns(n)
		}
	}
	return db, nil
}

func newPostgresStore(db *sql.DB) (*postgresStore, error) {
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &postgresStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS advisors (
  id BIGSERIAL PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS contacts (
  id BIGSERIAL PRIMARY KEY,
  ref UUID NOT NULL UNIQUE,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT NOT NULL DEFAULT '',
  calculator TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS analytics_events (
  id BIGSERIAL PRIMARY KEY,
  session_id TEXT NOT NULL,
  calculator TEXT NOT NULL,
  contact_ref TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL
);

-- One TFSA profile per contact; the calculator's non-transaction inputs.
CREATE TABLE IF NOT EXISTS tfsa_profiles (
  contact_id BIGINT PRIMARY KEY,
  birth_year INTEGER NOT NULL CHECK (birth_year >= 1900),
  residency_since_year INTEGER NOT NULL CHECK (residency_since_year >= 0),
  manual_room_cents BIGINT NOT NULL DEFAULT 0 CHECK (manual_room_cents >= 0),
  policy TEXT NOT NULL DEFAULT 'lifetime_table',
  updated_at TIMESTAMPTZ NOT NULL,
  FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS tfsa_records (
  id BIGSERIAL PRIMARY KEY,
  contact_id BIGINT NOT NULL,
  kind TEXT NOT NULL CHECK (kind IN ('contribution', 'withdrawal')),
  year INTEGER NOT NULL CHECK (year >= 2009 AND year <= 2100),
  amount_cents BIGINT NOT NULL CHECK (amount_cents >= 0),
  note TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL,
  FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_analytics_events_calculator ON analytics_events(calculator);
CREATE INDEX IF NOT EXISTS idx_tfsa_records_contact ON tfsa_records(contact_id);
`
	_, err := db.Exec(schema)
	return err
}

func (s *postgresStore) Close() error { return s.db.Close() }

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// uniqueViolation is the Postgres SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

func duplicate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

func (s *postgresStore) CreateAdvisor(ctx context.Context, email, passwordHash string) (int64, error) {
	now := time.Now().UTC()
	var id int64
	err := s.db.QueryRowContext(ctx, `
INSERT INTO advisors(email, password_hash, created_at, updated_at)
VALUES($1,$2,$3,$3)
RETURNING id`, email, passwordHash, now).Scan(&id)
	if err != nil {
		return 0, duplicate(err)
	}
	return id, nil
}

func (s *postgresStore) GetAdvisorByEmail(ctx context.Context, email string) (Advisor, error) {
	var a Advisor
	err := s.db.QueryRowContext(ctx, `
SELECT id, email, password_hash, created_at, updated_at
FROM advisors WHERE email = $1`, email).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Advisor{}, notFound(err)
	}
	return a, nil
}

func (s *postgresStore) GetAdvisorByID(ctx context.Context, id int64) (Advisor, error) {
	var a Advisor
	err := s.db.QueryRowContext(ctx, `
SELECT id, email, password_hash, created_at, updated_at
FROM advisors WHERE id = $1`, id).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Advisor{}, notFound(err)
	}
	return a, nil
}

func (s *postgresStore) CreateContact(ctx context.Context, c Contact) (Contact, error) {
	c.CreatedAt = time.Now().UTC()
	err := s.db.QueryRowContext(ctx, `
INSERT INTO contacts(ref, name, email, phone, calculator, created_at)
VALUES($1,$2,$3,$4,$5,$6)
RETURNING id`, c.Ref, c.Name, c.Email, c.Phone, c.Calculator, c.CreatedAt).Scan(&c.ID)
	if err != nil {
		return Contact{}, duplicate(err)
	}
	return c, nil
}

func (s *postgresStore) GetContactByRef(ctx context.Context, ref string) (Contact, error) {
	var c Contact
	err := s.db.QueryRowContext(ctx, `
SELECT id, ref, name, email, phone, calculator, created_at
FROM contacts WHERE ref = $1`, ref).
		Scan(&c.ID, &c.Ref, &c.Name, &c.Email, &c.Phone, &c.Calculator, &c.CreatedAt)
	if err != nil {
		return Contact{}, notFound(err)
	}
	return c, nil
}

func (s *postgresStore) ListContacts(ctx context.Context, limit int) ([]Contact, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, ref, name, email, phone, calculator, created_at
FROM contacts
ORDER BY created_at DESC, id DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.Ref, &c.Name, &c.Email, &c.Phone, &c.Calculator, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *postgresStore) RecordEvent(ctx context.Context, e AnalyticsEvent) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO analytics_events(session_id, calculator, contact_ref, created_at)
VALUES($1,$2,$3,$4)`, e.SessionID, e.Calculator, e.ContactRef, now)
	return err
}

func (s *postgresStore) CountEvents(ctx context.Context) ([]EventCount, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT calculator, COUNT(*)
FROM analytics_events
GROUP BY calculator
ORDER BY COUNT(*) DESC, calculator ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventCount
	for rows.Next() {
		var ec EventCount
		if err := rows.Scan(&ec.Calculator, &ec.Count); err != nil {
			return nil, err
		}
		out = append(out, ec)
	}
	return out, rows.Err()
}

func (s *postgresStore) SaveTFSAProfile(ctx context.Context, p StoredTFSAProfile) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO tfsa_profiles(contact_id, birth_year, residency_since_year, manual_room_cents, policy, updated_at)
VALUES($1,$2,$3,$4,$5,$6)
ON CONFLICT (contact_id) DO UPDATE
SET birth_year = EXCLUDED.birth_year,
    residency_since_year = EXCLUDED.residency_since_year,
    manual_room_cents = EXCLUDED.manual_room_cents,
    policy = EXCLUDED.policy,
    updated_at = EXCLUDED.updated_at`,
		p.ContactID, p.BirthYear, p.ResidencySinceYear, p.ManualRoomCents, p.Policy, now)
	return err
}

func (s *postgresStore) GetTFSAProfile(ctx context.Context, contactID int64) (StoredTFSAProfile, error) {
	var p StoredTFSAProfile
	err := s.db.QueryRowContext(ctx, `
SELECT contact_id, birth_year, residency_since_year, manual_room_cents, policy
FROM tfsa_profiles WHERE contact_id = $1`, contactID).
		Scan(&p.ContactID, &p.BirthYear, &p.ResidencySinceYear, &p.ManualRoomCents, &p.Policy)
	if err != nil {
		return StoredTFSAProfile{}, notFound(err)
	}
	return p, nil
}

func (s *postgresStore) ListTFSARecords(ctx context.Context, contactID int64) ([]StoredTFSARecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, contact_id, kind, year, amount_cents, note, created_at
FROM tfsa_records
WHERE contact_id = $1
ORDER BY year DESC, id DESC`, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredTFSARecord
	for rows.Next() {
		var r StoredTFSARecord
		if err := rows.Scan(&r.ID, &r.ContactID, &r.Kind, &r.Year, &r.AmountCents, &r.Note, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *postgresStore) AddTFSARecord(ctx context.Context, r StoredTFSARecord) (int64, error) {
	now := time.Now().UTC()
	var id int64
	err := s.db.QueryRowContext(ctx, `
INSERT INTO tfsa_records(contact_id, kind, year, amount_cents, note, created_at)
VALUES($1,$2,$3,$4,$5,$6)
RETURNING id`, r.ContactID, r.Kind, r.Year, r.AmountCents, r.Note, now).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *postgresStore) DeleteTFSARecord(ctx context.Context, contactID, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tfsa_records WHERE id = $1 AND contact_id = $2`, id, contactID)
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
	return nil
}
