// Package auth handles user accounts and token-based sessions. Each
// account carries its onboarding progress and the linked X handle, so
// the rest of the app can key everything on the user id.
package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

const defaultTokenTTL = 30 * 24 * time.Hour

// #region schema

const usersSchema = `
CREATE TABLE IF NOT EXISTS users (
	id                  TEXT PRIMARY KEY,
	email               TEXT NOT NULL UNIQUE,
	username            TEXT NOT NULL,
	password_hash       TEXT NOT NULL,
	created_at          TEXT NOT NULL,
	x_username          TEXT,
	x_connected         INTEGER NOT NULL DEFAULT 0,
	onboarding_step     INTEGER NOT NULL DEFAULT 1,
	onboarding_complete INTEGER NOT NULL DEFAULT 0
);
`

// #endregion schema

// #region errors

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// #endregion errors

// #region types

// User is one account. The password hash never leaves the package.
type User struct {
	ID                 string    `json:"user_id"`
	Email              string    `json:"email"`
	Username           string    `json:"username"`
	CreatedAt          time.Time `json:"created_at"`
	XUsername          string    `json:"x_username,omitempty"`
	XConnected         bool      `json:"x_connected"`
	OnboardingStep     int       `json:"onboarding_step"`
	OnboardingComplete bool      `json:"onboarding_complete"`
}

// #endregion types

// #region service

// Service registers users, verifies credentials, and issues signed
// tokens.
type Service struct {
	db       *sql.DB
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

// NewService runs migrations and returns a Service. secret signs
// session tokens and must stay stable across restarts.
func NewService(db *sql.DB, secret string) (*Service, error) {
	if secret == "" {
		return nil, errors.New("auth: empty signing secret")
	}
	if _, err := db.Exec(usersSchema); err != nil {
		return nil, fmt.Errorf("migrate users: %w", err)
	}
	return &Service{
		db:       db,
		secret:   []byte(secret),
		tokenTTL: defaultTokenTTL,
		now:      time.Now,
	}, nil
}

// #endregion service

// #region register-login

// Register creates an account. An empty username defaults to the local
// part of the email.
func (s *Service) Register(email, password, username string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errors.New("email and password required")
	}
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		ID:             uuid.New().String(),
		Email:          email,
		Username:       username,
		CreatedAt:      s.now().UTC(),
		OnboardingStep: 1,
	}
	_, err = s.db.Exec(
		`INSERT INTO users (id, email, username, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Username, string(hash), u.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// Login verifies credentials and returns a signed session token.
func (s *Service) Login(email, password string) (string, *User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var u User
	var hash, created string
	err := s.db.QueryRow(
		`SELECT id, email, username, password_hash, created_at,
		        COALESCE(x_username, ''), x_connected, onboarding_step, onboarding_complete
		 FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.Username, &hash, &created,
			&u.XUsername, &u.XConnected, &u.OnboardingStep, &u.OnboardingComplete)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)

	token, err := s.issueToken(u.ID)
	if err != nil {
		return "", nil, err
	}
	return token, &u, nil
}

func (s *Service) issueToken(userID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Authenticate resolves a session token to its user.
func (s *Service) Authenticate(tokenString string) (*User, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return s.GetUser(claims.Subject)
}

// #endregion register-login

// #region lookup-update

// GetUser returns one account by id.
func (s *Service) GetUser(id string) (*User, error) {
	var u User
	var created string
	err := s.db.QueryRow(
		`SELECT id, email, username, created_at,
		        COALESCE(x_username, ''), x_connected, onboarding_step, onboarding_complete
		 FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.Username, &created,
			&u.XUsername, &u.XConnected, &u.OnboardingStep, &u.OnboardingComplete)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &u, nil
}

// ListConnected returns all accounts with a linked X handle. The
// schedulers iterate these.
func (s *Service) ListConnected() ([]*User, error) {
	rows, err := s.db.Query(
		`SELECT id, email, username, created_at,
		        COALESCE(x_username, ''), x_connected, onboarding_step, onboarding_complete
		 FROM users WHERE x_connected = 1`)
	if err != nil {
		return nil, fmt.Errorf("list connected users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var u User
		var created string
		err := rows.Scan(&u.ID, &u.Email, &u.Username, &created,
			&u.XUsername, &u.XConnected, &u.OnboardingStep, &u.OnboardingComplete)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		users = append(users, &u)
	}
	return users, rows.Err()
}

// ConnectX links an X handle to the account and advances onboarding.
func (s *Service) ConnectX(id, xUsername string) error {
	return s.update(id,
		`UPDATE users SET x_username = ?, x_connected = 1, onboarding_step = 2 WHERE id = ?`,
		xUsername, id)
}

// SetOnboardingStep moves the account to the given step.
func (s *Service) SetOnboardingStep(id string, step int) error {
	return s.update(id, `UPDATE users SET onboarding_step = ? WHERE id = ?`, step, id)
}

// CompleteOnboarding marks the account fully onboarded.
func (s *Service) CompleteOnboarding(id string) error {
	return s.update(id,
		`UPDATE users SET onboarding_complete = 1, onboarding_step = 4 WHERE id = ?`, id)
}

func (s *Service) update(id, query string, args ...any) error {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("update user %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// #endregion lookup-update
