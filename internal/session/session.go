package session

import (
	"strconv"
)

// Store keys. The balance is kept in paise so arithmetic stays integral.
const (
	keyToken    = "token"
	keyUsername = "username"
	keyBalance  = "balance"
)

// Session is the explicit user session, created at login and destroyed
// at logout. Components receive it instead of reaching into ambient
// storage. Values are cached in memory and written through to the
// store on every change.
type Session struct {
	store    *Store
	token    string
	username string
	balance  int64 // paise
}

// Load reads the persisted session from the store. An empty store
// yields an unauthenticated session.
func Load(store *Store) (*Session, error) {
	token, err := store.Get(keyToken)
	if err != nil {
		return nil, err
	}
	username, err := store.Get(keyUsername)
	if err != nil {
		return nil, err
	}
	balanceStr, err := store.Get(keyBalance)
	if err != nil {
		return nil, err
	}

	var balance int64
	if balanceStr != "" {
		// A corrupt value reads as zero rather than failing startup.
		balance, _ = strconv.ParseInt(balanceStr, 10, 64)
	}

	return &Session{
		store:    store,
		token:    token,
		username: username,
		balance:  balance,
	}, nil
}

// Begin persists a fresh session after a successful login.
func (s *Session) Begin(token, username string, balance int64) error {
	if err := s.store.Set(keyToken, token); err != nil {
		return err
	}
	if err := s.store.Set(keyUsername, username); err != nil {
		return err
	}
	if err := s.store.Set(keyBalance, strconv.FormatInt(balance, 10)); err != nil {
		return err
	}
	s.token, s.username, s.balance = token, username, balance
	return nil
}

// End destroys the session: token, username, and balance are cleared
// in bulk.
func (s *Session) End() error {
	if err := s.store.Clear(); err != nil {
		return err
	}
	s.token, s.username, s.balance = "", "", 0
	return nil
}

// Token returns the auth token, or "" when unauthenticated.
func (s *Session) Token() string { return s.token }

// Username returns the logged-in username.
func (s *Session) Username() string { return s.username }

// Authenticated reports whether a user is logged in.
func (s *Session) Authenticated() bool { return s.token != "" }

// Balance returns the wallet balance in paise.
func (s *Session) Balance() int64 { return s.balance }

// SetBalance persists a new wallet balance. Called only on successful
// order placement.
func (s *Session) SetBalance(balance int64) error {
	if err := s.store.Set(keyBalance, strconv.FormatInt(balance, 10)); err != nil {
		return err
	}
	s.balance = balance
	return nil
}
