/*
engine.go - Reservation engine entry point and account operations

PURPOSE:
  Engine exposes the customer operations. It holds only the store and a
  logger, so one Engine can serve any number of concurrent Sessions.

OPERATIONS:
  Login, CreateCustomer:  this file
  Search:                 search.go
  Book:                   book.go
  Reservations:           reservations.go
  Pay:                    pay.go
  Cancel:                 cancel.go

RESULTS:
  Each operation returns a result struct and an error. Errors are always
  *OpError (see errors.go); text rendering is left to the caller.

RETRIES:
  The engine never retries. A failure with IsRetryable(err) left no
  effects behind and the whole operation may be repeated.

SEE ALSO:
  - store.go: Store/Tx contract
  - console/console.go: Presentation layer
*/
package flight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/warp/flight-engine/logger"
	"golang.org/x/crypto/bcrypt"
)

// MaxIdentifierLength bounds usernames and passwords.
const MaxIdentifierLength = 20

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	store    TxStore
	log      logger.Logger
	hashCost int
}

type Option func(*Engine)

func WithLogger(l logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithHashCost sets the bcrypt cost used for new passwords.
func WithHashCost(cost int) Option {
	return func(e *Engine) { e.hashCost = cost }
}

func New(store TxStore, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		log:      logger.Nop(),
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// fail wraps err into an *OpError and logs it. Store failures are logged
// at error level with the underlying cause, everything else at warn.
func (e *Engine) fail(op Op, s *Session, err error, fields ...logger.Field) error {
	kind := classify(err)
	fields = append(fields,
		logger.F("op", string(op)),
		logger.F("kind", string(kind)),
		logger.F("error", err),
	)
	if s != nil && s.LoggedIn() {
		fields = append(fields, logger.F("user", s.Username()))
	}
	if kind == KindStore {
		e.log.Error("operation failed", fields...)
	} else {
		e.log.Warn("operation rejected", fields...)
	}
	return &OpError{Op: op, Kind: kind, Err: err}
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// =============================================================================
// LOGIN
// =============================================================================

type LoginResult struct {
	Username string
}

// Login binds the session to username if the credentials match. A
// session can be bound only once.
func (e *Engine) Login(ctx context.Context, s *Session, username, password string) (LoginResult, error) {
	if s.LoggedIn() {
		return LoginResult{}, e.fail(OpLogin, s, ErrAlreadyLoggedIn)
	}

	name := normalizeUsername(username)
	c, err := e.store.Customer(ctx, name)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return LoginResult{}, e.fail(OpLogin, s, ErrLoginFailed, logger.F("username", name))
		}
		return LoginResult{}, e.fail(OpLogin, s, fmt.Errorf("%w: %w", ErrLoginFailed, err), logger.F("username", name))
	}
	if bcrypt.CompareHashAndPassword(c.PasswordHash, []byte(password)) != nil {
		return LoginResult{}, e.fail(OpLogin, s, ErrLoginFailed, logger.F("username", name))
	}

	s.username = c.Username
	e.log.Info("logged in", logger.F("user", c.Username))
	return LoginResult{Username: c.Username}, nil
}

// =============================================================================
// CREATE CUSTOMER
// =============================================================================

type CreateCustomerResult struct {
	Username string
	Balance  int64
}

// CreateCustomer persists a new account. It never touches any session.
func (e *Engine) CreateCustomer(ctx context.Context, username, password string, initialBalance int64) (CreateCustomerResult, error) {
	name := normalizeUsername(username)
	if err := validateCustomer(name, password, initialBalance); err != nil {
		return CreateCustomerResult{}, e.fail(OpCreateCustomer, nil, err, logger.F("username", name))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), e.hashCost)
	if err != nil {
		return CreateCustomerResult{}, e.fail(OpCreateCustomer, nil, fmt.Errorf("hash password: %w", err))
	}

	c := Customer{Username: name, PasswordHash: hash, Balance: initialBalance}
	err = e.store.WithTx(ctx, func(tx Tx) error {
		return tx.InsertCustomer(ctx, c)
	})
	if err != nil {
		return CreateCustomerResult{}, e.fail(OpCreateCustomer, nil, err, logger.F("username", name))
	}

	e.log.Info("customer created", logger.F("user", name), logger.F("balance", initialBalance))
	return CreateCustomerResult{Username: name, Balance: initialBalance}, nil
}

func validateCustomer(username, password string, balance int64) error {
	switch {
	case balance < 0:
		return fmt.Errorf("%w: negative initial balance %d", ErrInvalidCustomer, balance)
	case username == "" || len(username) > MaxIdentifierLength:
		return fmt.Errorf("%w: username must be 1-%d characters", ErrInvalidCustomer, MaxIdentifierLength)
	case password == "" || len(password) > MaxIdentifierLength:
		return fmt.Errorf("%w: password must be 1-%d characters", ErrInvalidCustomer, MaxIdentifierLength)
	}
	return nil
}
