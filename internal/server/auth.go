package server

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/spirekeep/idlespire/internal/database"
	"github.com/spirekeep/idlespire/internal/logger"
)

const welcomeBanner = `
=====================================
       Welcome to Idle Spire!
=====================================

  [L] Login
  [R] Register
`

// isValidUsername accepts letters and digits, starting with a letter,
// between 3 and 20 characters.
func isValidUsername(name string) bool {
	runes := []rune(name)
	if len(runes) < 3 || len(runes) > 20 {
		return false
	}
	if !unicode.IsLetter(runes[0]) {
		return false
	}
	for _, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// handleAuth runs the login/registration dialog for a fresh connection.
func (s *Server) handleAuth(client Client, ip string) (*database.Account, error) {
	if locked, remaining := s.loginLimiter.IsLocked(ip); locked {
		client.WriteLine(fmt.Sprintf("Too many failed logins. Try again in %s.", remaining.Round(time.Second)))
		return nil, errors.New("ip locked out")
	}

	client.WriteLine(welcomeBanner)
	client.WriteLine("Enter choice: ")

	choice, err := client.ReadLine()
	if err != nil {
		return nil, errors.New("connection closed")
	}

	switch strings.ToLower(strings.TrimSpace(choice)) {
	case "l", "login":
		return s.handleLogin(client, ip)
	case "r", "register":
		return s.handleRegister(client)
	default:
		client.WriteLine("Invalid choice. Disconnecting.")
		return nil, errors.New("invalid choice")
	}
}

func (s *Server) handleLogin(client Client, ip string) (*database.Account, error) {
	client.WriteLine("Username: ")
	username, err := client.ReadLine()
	if err != nil {
		return nil, errors.New("connection closed")
	}
	client.WriteLine("Password: ")
	password, err := client.ReadLine()
	if err != nil {
		return nil, errors.New("connection closed")
	}

	account, err := s.db.ValidateLogin(strings.TrimSpace(username), password)
	if err != nil {
		if locked, lockout := s.loginLimiter.RecordFailure(ip); locked {
			client.WriteLine(fmt.Sprintf("Too many failed logins. Locked out for %s.", lockout))
			return nil, errors.New("ip locked out")
		}
		client.WriteLine("Invalid username or password.")
		return nil, fmt.Errorf("login failed: %w", err)
	}

	s.loginLimiter.RecordSuccess(ip)
	return account, nil
}

func (s *Server) handleRegister(client Client) (*database.Account, error) {
	client.WriteLine("Choose a username (3-20 letters and digits): ")
	username, err := client.ReadLine()
	if err != nil {
		return nil, errors.New("connection closed")
	}
	username = strings.TrimSpace(username)
	if !isValidUsername(username) {
		client.WriteLine("That username is not allowed.")
		return nil, errors.New("invalid username")
	}
	if ok, reason := s.nameFilter.Check(username); !ok {
		client.WriteLine(reason)
		return nil, errors.New("filtered username")
	}

	client.WriteLine("Choose a password (8+ characters): ")
	password, err := client.ReadLine()
	if err != nil {
		return nil, errors.New("connection closed")
	}
	if len(password) < 8 {
		client.WriteLine("Password must be at least 8 characters.")
		return nil, errors.New("password too short")
	}

	client.WriteLine("Display name (enter to reuse username): ")
	displayName, err := client.ReadLine()
	if err != nil {
		return nil, errors.New("connection closed")
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = username
	}
	if ok, reason := s.nameFilter.Check(displayName); !ok {
		client.WriteLine(reason)
		return nil, errors.New("filtered display name")
	}

	account, err := s.db.CreateAccount(username, password, displayName)
	if err != nil {
		if errors.Is(err, database.ErrAccountExists) {
			client.WriteLine("That username is already taken.")
		} else {
			client.WriteLine("Registration failed. Please try again.")
		}
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	logger.Info("Account created", "username", username)
	client.WriteLine(fmt.Sprintf("Welcome, %s! Your account is ready.", displayName))
	return account, nil
}
