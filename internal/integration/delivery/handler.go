package delivery

import (
	"errors"
	"net/http"

	"studydash-backend/internal/integration/domain"
	integrationdto "studydash-backend/internal/integration/dto"
	"studydash-backend/internal/integration/usecase"

	"github.com/gin-gonic/gin"
)

// IntegrationHandler handles provider connection and sync HTTP requests
type IntegrationHandler struct {
	integrationUsecase usecase.IntegrationUsecase
}

func NewIntegrationHandler(integrationUsecase usecase.IntegrationUsecase) *IntegrationHandler {
	return &IntegrationHandler{
		integrationUsecase: integrationUsecase,
	}
}

func userID(c *gin.Context) string {
	return c.GetString("userID")
}

// List returns every connection of the user
// GET /api/integrations
func (h *IntegrationHandler) List(c *gin.Context) {
	creds, err := h.integrationUsecase.List(userID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, creds)
}

// Get returns one connection
// GET /api/integrations/:provider
func (h *IntegrationHandler) Get(c *gin.Context) {
	cred, err := h.integrationUsecase.Get(userID(c), c.Param("provider"))
	if err != nil {
		if errors.Is(err, domain.ErrNotConnected) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cred)
}

// Connect creates or replaces a provider connection
// POST /api/integrations/:provider
func (h *IntegrationHandler) Connect(c *gin.Context) {
	var req integrationdto.ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cred, err := h.integrationUsecase.Connect(userID(c), c.Param("provider"), &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, cred)
}

// UpdateSettings patches the sync toggles of a connection
// PATCH /api/integrations/:provider
func (h *IntegrationHandler) UpdateSettings(c *gin.Context) {
	var req integrationdto.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cred, err := h.integrationUsecase.UpdateSettings(userID(c), c.Param("provider"), &req)
	if err != nil {
		if errors.Is(err, domain.ErrNotConnected) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cred)
}

// Disconnect removes a connection; synced entities stay
// DELETE /api/integrations/:provider
func (h *IntegrationHandler) Disconnect(c *gin.Context) {
	if err := h.integrationUsecase.Disconnect(userID(c), c.Param("provider")); err != nil {
		if errors.Is(err, domain.ErrNotConnected) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "disconnected"})
}

// Sync runs one synchronization and returns the per-category outcome
// POST /api/integrations/:provider/sync
func (h *IntegrationHandler) Sync(c *gin.Context) {
	var req integrationdto.SyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	result, err := h.integrationUsecase.Sync(c.Request.Context(), userID(c), c.Param("provider"), req.Categories)
	if err != nil {
		switch {
		case domain.IsAuthError(err):
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "result": result})
		case errors.Is(err, domain.ErrSyncInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrNotConnected):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrSyncDisabled):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}
