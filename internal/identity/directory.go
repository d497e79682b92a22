package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/chorequest/internal/apperr"
	"github.com/dukerupert/chorequest/internal/docstore"
	"github.com/dukerupert/chorequest/internal/id"
	"github.com/dukerupert/chorequest/internal/validation"
)

const (
	collectionAccounts = "accounts"

	accountFieldEmail        = "email"
	accountFieldPasswordHash = "passwordHash"
	accountFieldDisplayName  = "displayName"
	accountFieldCreatedAt    = "createdAt"

	// MinPasswordLength is the shortest password SignUp accepts.
	MinPasswordLength = 6
)

// Directory stores accounts in the document store and issues tokens.
type Directory struct {
	docs   docstore.Store
	tokens *TokenIssuer
	cost   int
	logger *slog.Logger

	// signup serializes the email uniqueness check with the insert.
	signup sync.Mutex
}

// NewDirectory creates a Directory. A bcrypt cost of 0 uses bcrypt.DefaultCost.
func NewDirectory(docs docstore.Store, tokens *TokenIssuer, bcryptCost int, logger *slog.Logger) *Directory {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Directory{
		docs:   docs,
		tokens: tokens,
		cost:   bcryptCost,
		logger: logger.With("component", "identity"),
	}
}

// Tokens returns the directory's token issuer.
func (d *Directory) Tokens() *TokenIssuer {
	return d.tokens
}

// NewClient returns a signed-out client.
func (d *Directory) NewClient() *Client {
	return &Client{dir: d}
}

// Resume returns a signed-in client for a valid token. The token's account
// must still exist.
func (d *Directory) Resume(ctx context.Context, token string) (*Client, error) {
	claims, err := d.tokens.Verify(token)
	if err != nil {
		return nil, apperr.ErrInvalidToken.WithCause(err)
	}
	p, err := d.Lookup(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.ErrInvalidToken
	}
	c := d.NewClient()
	c.principal = p
	c.token = token
	c.claims = *claims
	return c, nil
}

// Register creates an account. The email is stored lower-cased.
func (d *Directory) Register(ctx context.Context, email, password, displayName string) (*Principal, error) {
	email = normalizeEmail(email)
	if email == "" || !validation.Email().Check(email, nil) {
		return nil, apperr.Invalid("invalid email", map[string]string{"email": "Please enter a valid email address"})
	}
	if len(password) < MinPasswordLength {
		return nil, apperr.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	d.signup.Lock()
	defer d.signup.Unlock()

	existing, err := d.docs.Query(ctx, collectionAccounts, docstore.Where(accountFieldEmail, email))
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if len(existing) > 0 {
		return nil, apperr.ErrEmailInUse
	}

	accountID, err := id.Generate()
	if err != nil {
		return nil, err
	}
	err = d.docs.Set(ctx, collectionAccounts, accountID, docstore.Document{
		accountFieldEmail:        email,
		accountFieldPasswordHash: string(hash),
		accountFieldDisplayName:  strings.TrimSpace(displayName),
		accountFieldCreatedAt:    docstore.ServerTimestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}

	d.logger.Info("account registered", "user_id", accountID)
	return &Principal{ID: accountID, DisplayName: strings.TrimSpace(displayName), Email: email}, nil
}

// Authenticate checks a password. Unknown emails and wrong passwords both
// return apperr.ErrInvalidCredentials.
func (d *Directory) Authenticate(ctx context.Context, email, password string) (*Principal, error) {
	snaps, err := d.docs.Query(ctx, collectionAccounts, docstore.Where(accountFieldEmail, normalizeEmail(email)))
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	if len(snaps) == 0 {
		return nil, apperr.ErrInvalidCredentials
	}

	snap := snaps[0]
	hash, _ := snap.Data[accountFieldPasswordHash].(string)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}
	return principalFrom(&snap), nil
}

// Lookup returns the principal for an account id, or nil if there is none.
func (d *Directory) Lookup(ctx context.Context, accountID string) (*Principal, error) {
	snap, err := d.docs.Get(ctx, collectionAccounts, accountID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return principalFrom(snap), nil
}

func (d *Directory) setDisplayName(ctx context.Context, accountID, name string) error {
	err := d.docs.Update(ctx, collectionAccounts, accountID, docstore.Document{accountFieldDisplayName: name})
	if err != nil {
		return fmt.Errorf("update display name: %w", err)
	}
	return nil
}

func (d *Directory) issue(p *Principal) (string, Claims, error) {
	token, claims, err := d.tokens.Issue(*p)
	if err != nil {
		return "", Claims{}, fmt.Errorf("issue token: %w", err)
	}
	return token, claims, nil
}

func principalFrom(snap *docstore.Snapshot) *Principal {
	email, _ := snap.Data[accountFieldEmail].(string)
	name, _ := snap.Data[accountFieldDisplayName].(string)
	return &Principal{ID: snap.ID, DisplayName: name, Email: email}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// expired reports whether claims expire before now.
func expired(c Claims, now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}
