package usecase

import (
	"context"
	"sync"
	"time"

	"studydash-backend/internal/integration/domain"
	"studydash-backend/internal/integration/provider"
	"studydash-backend/internal/integration/repository"
	"studydash-backend/pkg/crypto"
)

// refreshWindow is how close to expiry a token may get before a sync
// run refreshes it up front instead of risking a mid-run 401
const refreshWindow = 5 * time.Minute

// Vault owns the secret columns of a credential: it is the only code
// that encrypts or decrypts them, and it refreshes tokens proactively.
type Vault struct {
	key   string
	creds repository.CredentialRepository

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewVault(key string, creds repository.CredentialRepository) *Vault {
	return &Vault{
		key:   key,
		creds: creds,
		locks: make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing refreshes of one credential
func (v *Vault) lockFor(credentialID string) *sync.Mutex {
	v.mu.Lock()
	defer v.mu.Unlock()
	lock, ok := v.locks[credentialID]
	if !ok {
		lock = &sync.Mutex{}
		v.locks[credentialID] = lock
	}
	return lock
}

// EncryptSecrets fills the credential's secret columns with ciphertext
func (v *Vault) EncryptSecrets(cred *domain.Credential, clientID, clientSecret, accessToken, refreshToken string) error {
	fields := []struct {
		plain string
		dst   *string
	}{
		{clientID, &cred.ClientID},
		{clientSecret, &cred.ClientSecret},
		{accessToken, &cred.AccessToken},
		{refreshToken, &cred.RefreshToken},
	}
	for _, f := range fields {
		if f.plain == "" {
			*f.dst = ""
			continue
		}
		ciphertext, err := crypto.Encrypt(f.plain, v.key)
		if err != nil {
			return &domain.LocalStoreError{Op: "encrypt credential", Err: err}
		}
		*f.dst = ciphertext
	}
	return nil
}

func (v *Vault) decrypt(ciphertext, field string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	plain, err := crypto.Decrypt(ciphertext, v.key)
	if err != nil {
		return "", &domain.LocalStoreError{Op: "decrypt " + field, Err: err}
	}
	return plain, nil
}

// tokenFresh reports whether the stored token is safe to use without a
// refresh. A zero expiry means unknown and always refreshes.
func tokenFresh(expiry time.Time) bool {
	return !expiry.IsZero() && time.Until(expiry) > refreshWindow
}

// ValidToken returns a plaintext access token that is good for at least
// the refresh window, refreshing and persisting first when it is not.
// Concurrent callers for the same credential serialize on a mutex, and
// the loser of the race re-reads the row so the token is refreshed once.
func (v *Vault) ValidToken(ctx context.Context, adapter provider.Adapter, cred *domain.Credential) (string, error) {
	if tokenFresh(cred.TokenExpiry) {
		return v.decrypt(cred.AccessToken, "access token")
	}

	lock := v.lockFor(cred.ID)
	lock.Lock()
	defer lock.Unlock()

	current, err := v.creds.FindByID(cred.ID)
	if err != nil {
		return "", &domain.LocalStoreError{Op: "load credential", Err: err}
	}
	if current == nil {
		return "", domain.ErrNotConnected
	}
	if tokenFresh(current.TokenExpiry) {
		*cred = *current
		return v.decrypt(current.AccessToken, "access token")
	}

	input := provider.GrantInput{BaseURL: current.BaseURL}
	if input.ClientID, err = v.decrypt(current.ClientID, "client id"); err != nil {
		return "", err
	}
	if input.ClientSecret, err = v.decrypt(current.ClientSecret, "client secret"); err != nil {
		return "", err
	}
	if input.AccessToken, err = v.decrypt(current.AccessToken, "access token"); err != nil {
		return "", err
	}
	if input.RefreshToken, err = v.decrypt(current.RefreshToken, "refresh token"); err != nil {
		return "", err
	}

	grant, err := adapter.Refresh(ctx, input)
	if err != nil {
		return "", err
	}

	encryptedAccess, err := crypto.Encrypt(grant.AccessToken, v.key)
	if err != nil {
		return "", &domain.LocalStoreError{Op: "encrypt access token", Err: err}
	}
	encryptedRefresh := ""
	if grant.RefreshToken != "" {
		if encryptedRefresh, err = crypto.Encrypt(grant.RefreshToken, v.key); err != nil {
			return "", &domain.LocalStoreError{Op: "encrypt refresh token", Err: err}
		}
	}

	if err := v.creds.UpdateToken(current.ID, encryptedAccess, encryptedRefresh, grant.Expiry); err != nil {
		return "", &domain.LocalStoreError{Op: "persist refreshed token", Err: err}
	}

	current.AccessToken = encryptedAccess
	current.RefreshToken = encryptedRefresh
	current.TokenExpiry = grant.Expiry
	*cred = *current

	return grant.AccessToken, nil
}
