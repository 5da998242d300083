package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt cost factor (12 balances security and login latency)
const bcryptCost = 12

// ErrAccountNotFound is returned when an account lookup fails.
var ErrAccountNotFound = errors.New("account not found")

// ErrAccountExists is returned when trying to create a duplicate account.
var ErrAccountExists = errors.New("account already exists")

// ErrInvalidCredentials is returned when login credentials are incorrect.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Account represents a player account. The username doubles as the stable
// player id the simulation uses.
type Account struct {
	Username     string
	PasswordHash string
	DisplayName  string
	IsAdmin      bool
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// CreateAccount creates a new account. The password is hashed with bcrypt
// before storage.
func (d *Database) CreateAccount(username, password, displayName string) (*Account, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, errors.New("username cannot be empty")
	}
	if len(password) < 4 {
		return nil, errors.New("password must be at least 4 characters")
	}
	if displayName == "" {
		displayName = username
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = d.db.Exec(
		d.rebind("INSERT INTO accounts (username, password_hash, display_name) VALUES (?, ?, ?)"),
		username, string(hash), displayName,
	)
	if err != nil {
		if d.dialect.IsDuplicateKeyError(err) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return &Account{
		Username:     username,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		CreatedAt:    time.Now(),
	}, nil
}

// ValidateLogin checks credentials and stamps the last login time.
func (d *Database) ValidateLogin(username, password string) (*Account, error) {
	account, err := d.GetAccount(username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if _, err := d.db.Exec(
		d.rebind("UPDATE accounts SET last_login = CURRENT_TIMESTAMP WHERE username = ?"),
		account.Username,
	); err != nil {
		// Not worth failing the login over.
		return account, nil
	}

	return account, nil
}

// GetAccount retrieves an account by username.
func (d *Database) GetAccount(username string) (*Account, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	var account Account
	var lastLogin sql.NullTime

	err := d.db.QueryRow(
		d.rebind("SELECT username, password_hash, display_name, is_admin, created_at, last_login FROM accounts WHERE username = ?"),
		username,
	).Scan(&account.Username, &account.PasswordHash, &account.DisplayName, &account.IsAdmin, &account.CreatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if lastLogin.Valid {
		account.LastLogin = &lastLogin.Time
	}

	return &account, nil
}

// SetAdmin grants or revokes admin on an account.
func (d *Database) SetAdmin(username string, isAdmin bool) error {
	result, err := d.db.Exec(
		d.rebind("UPDATE accounts SET is_admin = ? WHERE username = ?"),
		isAdmin, strings.ToLower(strings.TrimSpace(username)),
	)
	if err != nil {
		return fmt.Errorf("failed to set admin: %w", err)
	}
	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return ErrAccountNotFound
	}
	return nil
}
