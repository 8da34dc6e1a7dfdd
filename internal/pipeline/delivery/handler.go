package delivery

import (
	"net/http"
	"strconv"

	accountdelivery "jobtrail-backend/internal/account/delivery"
	accountusecase "jobtrail-backend/internal/account/usecase"
	pipelinedomain "jobtrail-backend/internal/pipeline/domain"
	"jobtrail-backend/internal/pipeline/repository"
	"jobtrail-backend/internal/pipeline/usecase"

	"github.com/gin-gonic/gin"
)

// SyncHandler exposes the pipeline control surface: start, cancel,
// inspect runs, reset stages, and list records needing attention
type SyncHandler struct {
	sync         *usecase.SyncUsecase
	accounts     *accountusecase.AccountUsecase
	pipelineRepo repository.PipelineRepository
}

func NewSyncHandler(sync *usecase.SyncUsecase, accounts *accountusecase.AccountUsecase, pipelineRepo repository.PipelineRepository) *SyncHandler {
	return &SyncHandler{
		sync:         sync,
		accounts:     accounts,
		pipelineRepo: pipelineRepo,
	}
}

// ownedAccountID validates that the query or body account belongs to the
// caller. Returns "" after writing the error response.
func (h *SyncHandler) ownedAccountID(c *gin.Context, accountID string) string {
	user := accountdelivery.CurrentUser(c)
	if accountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account_id is required"})
		return ""
	}
	account, err := h.accounts.GetOwned(user.ID, accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return ""
	}
	if account == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return ""
	}
	return accountID
}

func (h *SyncHandler) StartSync(c *gin.Context) {
	user := accountdelivery.CurrentUser(c)

	var opts usecase.SyncOptions
	if err := c.ShouldBindJSON(&opts); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// No explicit accounts means all of the caller's accounts; explicit
	// accounts must belong to the caller
	if len(opts.AccountIDs) == 0 {
		accounts, err := h.accounts.List(user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		for _, a := range accounts {
			if a.Active {
				opts.AccountIDs = append(opts.AccountIDs, a.ID)
			}
		}
	} else {
		for _, id := range opts.AccountIDs {
			if h.ownedAccountID(c, id) == "" {
				return
			}
		}
	}

	if err := h.sync.StartSync(opts); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "sync started", "account_ids": opts.AccountIDs})
}

func (h *SyncHandler) CancelSync(c *gin.Context) {
	var req struct {
		AccountID string `json:"account_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.ownedAccountID(c, req.AccountID) == "" {
		return
	}

	h.sync.CancelSync(req.AccountID)
	c.JSON(http.StatusOK, gin.H{"message": "cancellation requested"})
}

func (h *SyncHandler) SyncStatus(c *gin.Context) {
	accountID := h.ownedAccountID(c, c.Query("account_id"))
	if accountID == "" {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"account_id": accountID,
		"syncing":    h.sync.Syncing(accountID),
	})
}

func (h *SyncHandler) ListRuns(c *gin.Context) {
	accountID := h.ownedAccountID(c, c.Query("account_id"))
	if accountID == "" {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := h.sync.ListRuns(accountID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (h *SyncHandler) ResetStage(c *gin.Context) {
	var req struct {
		AccountID string `json:"account_id" binding:"required"`
		Stage     string `json:"stage" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.ownedAccountID(c, req.AccountID) == "" {
		return
	}

	affected, err := h.sync.ResetStage(req.AccountID, pipelinedomain.Stage(req.Stage))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "stage reset", "records_reset": affected})
}

func (h *SyncHandler) ListNeedsAttention(c *gin.Context) {
	accountID := h.ownedAccountID(c, c.Query("account_id"))
	if accountID == "" {
		return
	}

	records, err := h.pipelineRepo.ListNeedsAttention(accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}
