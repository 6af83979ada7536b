package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kingbrown/caesarstudy/internal/study"
)

// MinPasswordLength is the shortest password SignUp accepts.
const MinPasswordLength = 6

type accountDoc struct {
	PasswordHash string `json:"passwordHash"`
	CreatedAt    string `json:"createdAt"`
}

type sessionDoc struct {
	UID       string `json:"uid"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

// AccountStore is a Provider backed by the accounts and auth_sessions
// tables. Passwords are stored as bcrypt hashes.
type AccountStore struct {
	db   *sql.DB
	cost int
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db, cost: bcrypt.DefaultCost}
}

func (s *AccountStore) SignUp(ctx context.Context, email, password string) (study.User, error) {
	if !validEmail(email) {
		return study.User{}, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return study.User{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return study.User{}, fmt.Errorf("hashing password: %w", err)
	}
	data, err := json.Marshal(accountDoc{PasswordHash: string(hash), CreatedAt: nowUTC()})
	if err != nil {
		return study.User{}, err
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, data) VALUES (?, ?, jsonb(?))`,
		id, email, string(data),
	)
	if isUniqueViolation(err) {
		return study.User{}, ErrEmailInUse
	}
	if err != nil {
		return study.User{}, fmt.Errorf("creating account: %w", err)
	}
	return study.User{UID: id, Email: &email}, nil
}

func (s *AccountStore) SignIn(ctx context.Context, email, password string) (study.User, error) {
	if !validEmail(email) {
		return study.User{}, ErrInvalidEmail
	}

	var id, hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, json_extract(data, '$.passwordHash') FROM accounts WHERE email = ?`, email,
	).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return study.User{}, ErrUserNotFound
	}
	if err != nil {
		return study.User{}, fmt.Errorf("looking up account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return study.User{}, ErrWrongPassword
	}
	return study.User{UID: id, Email: &email}, nil
}

func (s *AccountStore) CreateSession(ctx context.Context, sessionID string, user study.User) error {
	doc := sessionDoc{UID: user.UID, CreatedAt: nowUTC()}
	if user.Email != nil {
		doc.Email = *user.Email
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO auth_sessions (id, data) VALUES (?, jsonb(?))`,
		sessionID, string(data),
	)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

func (s *AccountStore) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM auth_sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (s *AccountStore) SessionUser(ctx context.Context, sessionID string) (*study.User, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM auth_sessions WHERE id = ?`, sessionID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	var doc sessionDoc
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	user := &study.User{UID: doc.UID}
	if doc.Email != "" {
		user.Email = &doc.Email
	}
	return user, nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func nowUTC() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}
