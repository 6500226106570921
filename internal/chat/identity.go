package chat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"promptchat-backend/internal/database"
)

// ResolvedUser is the outcome of mapping a client token to a durable user
// row. Token always carries the value the caller should persist client-side;
// IsNew marks a freshly minted identity.
type ResolvedUser struct {
	UserId uuid.UUID
	Token  string
	IsNew  bool
}

// ResolveUser maps a long-lived client token to the user row behind it,
// creating one on first contact. The identity is a pseudonym for recognizing
// returning anonymous visitors only; no authorization decision may key on it.
func ResolveUser(ctx context.Context, db *gorm.DB, clientToken string) (ResolvedUser, error) {
	if clientToken != "" {
		var user database.User
		err := db.WithContext(ctx).First(&user, "cookie_id = ?", clientToken).Error
		if err == nil {
			return ResolvedUser{UserId: user.Id, Token: clientToken}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return ResolvedUser{}, fmt.Errorf("error looking up user: %w", err)
		}
		// Unknown token, fall through and mint a fresh identity.
	}

	token, err := newClientToken()
	if err != nil {
		return ResolvedUser{}, fmt.Errorf("%w: %v", ErrIdentityCreation, err)
	}

	user := database.User{
		Id:        uuid.New(),
		CookieId:  token,
		CreatedAt: time.Now().UTC(),
	}

	database.WriteMu.Lock()
	err = db.WithContext(ctx).Create(&user).Error
	database.WriteMu.Unlock()
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ResolvedUser{}, fmt.Errorf("%w: client token collision", ErrIdentityCreation)
		}
		return ResolvedUser{}, fmt.Errorf("%w: %v", ErrIdentityCreation, err)
	}

	return ResolvedUser{UserId: user.Id, Token: token, IsNew: true}, nil
}

// newClientToken produces an opaque 256-bit token. Clients store it verbatim
// and never parse it for structure.
func newClientToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
