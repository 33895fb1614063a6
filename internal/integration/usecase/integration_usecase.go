package usecase

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	courserepo "studydash-backend/internal/course/repository"
	"studydash-backend/internal/integration/domain"
	"studydash-backend/internal/integration/dto"
	"studydash-backend/internal/integration/provider"
	"studydash-backend/internal/integration/repository"
	"studydash-backend/internal/notification"
)

// IntegrationUsecase manages provider connections and runs syncs
type IntegrationUsecase interface {
	Connect(userID, providerName string, req *dto.ConnectRequest) (*domain.Credential, error)
	Disconnect(userID, providerName string) error
	Get(userID, providerName string) (*domain.Credential, error)
	List(userID string) ([]*domain.Credential, error)
	UpdateSettings(userID, providerName string, req *dto.UpdateSettingsRequest) (*domain.Credential, error)

	// Sync runs one synchronization for the user's connection. The
	// returned result is non-nil even when err is an auth failure.
	Sync(ctx context.Context, userID, providerName string, toggles *domain.CategoryToggles) (*domain.SyncResult, error)
}

type integrationUsecase struct {
	creds         repository.CredentialRepository
	vault         *Vault
	courses       courserepo.CourseRepository
	items         courserepo.WorkItemRepository
	events        courserepo.EventRepository
	tombstones    courserepo.TombstoneRepository
	notifications *notification.Service

	// newAdapter is swappable in tests
	newAdapter func(name, baseURL string) (provider.Adapter, error)
	retryBase  time.Duration

	mu      sync.Mutex
	running map[string]bool
}

func NewIntegrationUsecase(
	creds repository.CredentialRepository,
	vault *Vault,
	courses courserepo.CourseRepository,
	items courserepo.WorkItemRepository,
	events courserepo.EventRepository,
	tombstones courserepo.TombstoneRepository,
	notifications *notification.Service,
) IntegrationUsecase {
	return &integrationUsecase{
		creds:         creds,
		vault:         vault,
		courses:       courses,
		items:         items,
		events:        events,
		tombstones:    tombstones,
		notifications: notifications,
		newAdapter:    provider.New,
		retryBase:     500 * time.Millisecond,
		running:       make(map[string]bool),
	}
}

// tryLock claims the run lock for one user and provider
func (u *integrationUsecase) tryLock(userID, providerName string) bool {
	key := userID + "/" + providerName
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.running[key] {
		return false
	}
	u.running[key] = true
	return true
}

func (u *integrationUsecase) unlock(userID, providerName string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.running, userID+"/"+providerName)
}

func (u *integrationUsecase) Connect(userID, providerName string, req *dto.ConnectRequest) (*domain.Credential, error) {
	baseURL, err := provider.NormalizeBaseURL(req.BaseURL)
	if err != nil {
		return nil, err
	}
	if _, err := u.newAdapter(providerName, baseURL); err != nil {
		return nil, err
	}

	if providerName == provider.Moodle {
		if req.AccessToken == "" {
			return nil, fmt.Errorf("moodle requires a web service token")
		}
	} else {
		if req.ClientID == "" || req.ClientSecret == "" {
			return nil, fmt.Errorf("%s requires a client id and secret", providerName)
		}
		if req.AccessToken == "" && req.RefreshToken == "" {
			return nil, fmt.Errorf("%s requires an access or refresh token", providerName)
		}
	}

	existing, err := u.creds.FindByUserAndProvider(userID, providerName)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		// Reconnect: replace the secret material, keep the toggles
		existing.BaseURL = baseURL
		existing.TokenExpiry = time.Time{}
		if err := u.vault.EncryptSecrets(existing, req.ClientID, req.ClientSecret, req.AccessToken, req.RefreshToken); err != nil {
			return nil, err
		}
		if err := u.creds.Update(existing); err != nil {
			return nil, err
		}
		log.Printf("[Integration] User %s reconnected %s", userID, providerName)
		return existing, nil
	}

	cred := &domain.Credential{
		UserID:            userID,
		Provider:          providerName,
		BaseURL:           baseURL,
		SyncEnabled:       true,
		SyncCourses:       true,
		SyncAssignments:   true,
		SyncGrades:        true,
		SyncEvents:        true,
		SyncAnnouncements: true,
	}
	if err := u.vault.EncryptSecrets(cred, req.ClientID, req.ClientSecret, req.AccessToken, req.RefreshToken); err != nil {
		return nil, err
	}
	if err := u.creds.Create(cred); err != nil {
		return nil, err
	}

	log.Printf("[Integration] User %s connected %s at %s", userID, providerName, baseURL)
	return cred, nil
}

// Disconnect removes the credential. Synced entities and tombstones
// stay behind.
func (u *integrationUsecase) Disconnect(userID, providerName string) error {
	cred, err := u.creds.FindByUserAndProvider(userID, providerName)
	if err != nil {
		return err
	}
	if cred == nil {
		return domain.ErrNotConnected
	}
	if err := u.creds.Delete(cred.ID); err != nil {
		return err
	}
	log.Printf("[Integration] User %s disconnected %s", userID, providerName)
	return nil
}

func (u *integrationUsecase) Get(userID, providerName string) (*domain.Credential, error) {
	cred, err := u.creds.FindByUserAndProvider(userID, providerName)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, domain.ErrNotConnected
	}
	return cred, nil
}

func (u *integrationUsecase) List(userID string) ([]*domain.Credential, error) {
	return u.creds.ListByUser(userID)
}

func (u *integrationUsecase) UpdateSettings(userID, providerName string, req *dto.UpdateSettingsRequest) (*domain.Credential, error) {
	cred, err := u.Get(userID, providerName)
	if err != nil {
		return nil, err
	}

	if req.SyncEnabled != nil {
		cred.SyncEnabled = *req.SyncEnabled
	}
	if req.SyncCourses != nil {
		cred.SyncCourses = *req.SyncCourses
	}
	if req.SyncAssignments != nil {
		cred.SyncAssignments = *req.SyncAssignments
	}
	if req.SyncGrades != nil {
		cred.SyncGrades = *req.SyncGrades
	}
	if req.SyncEvents != nil {
		cred.SyncEvents = *req.SyncEvents
	}
	if req.SyncAnnouncements != nil {
		cred.SyncAnnouncements = *req.SyncAnnouncements
	}

	if err := u.creds.Update(cred); err != nil {
		return nil, err
	}
	return cred, nil
}
