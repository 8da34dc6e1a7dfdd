package delivery

import (
	"net/http"
	"strconv"

	accountdelivery "jobtrail-backend/internal/account/delivery"
	accountusecase "jobtrail-backend/internal/account/usecase"
	reviewdomain "jobtrail-backend/internal/review/domain"
	"jobtrail-backend/internal/review/usecase"

	"github.com/gin-gonic/gin"
)

// ReviewHandler exposes the manual review queue
type ReviewHandler struct {
	review   *usecase.ReviewUsecase
	accounts *accountusecase.AccountUsecase
}

func NewReviewHandler(review *usecase.ReviewUsecase, accounts *accountusecase.AccountUsecase) *ReviewHandler {
	return &ReviewHandler{
		review:   review,
		accounts: accounts,
	}
}

func (h *ReviewHandler) List(c *gin.Context) {
	accountID := h.ownedAccountID(c, c.Query("account_id"))
	if accountID == "" {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.review.List(accountID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *ReviewHandler) Count(c *gin.Context) {
	accountID := h.ownedAccountID(c, c.Query("account_id"))
	if accountID == "" {
		return
	}

	count, err := h.review.Count(accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// Confirm promotes the reviewed item to a job record
func (h *ReviewHandler) Confirm(c *gin.Context) {
	item := h.ownedItem(c)
	if item == nil {
		return
	}

	job, err := h.review.Confirm(c.Request.Context(), item.ID, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item confirmed", "job": job})
}

// Reject discards the reviewed item without creating a job
func (h *ReviewHandler) Reject(c *gin.Context) {
	item := h.ownedItem(c)
	if item == nil {
		return
	}

	if _, err := h.review.Confirm(c.Request.Context(), item.ID, false); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item rejected"})
}

func (h *ReviewHandler) ownedAccountID(c *gin.Context, accountID string) string {
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

func (h *ReviewHandler) ownedItem(c *gin.Context) *reviewdomain.ReviewItem {
	item, err := h.review.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "review item not found"})
		return nil
	}
	if h.ownedAccountID(c, item.AccountID) == "" {
		return nil
	}
	return item
}
