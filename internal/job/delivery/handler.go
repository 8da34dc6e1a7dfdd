package delivery

import (
	"context"
	"net/http"
	"strconv"

	accountdelivery "jobtrail-backend/internal/account/delivery"
	accountusecase "jobtrail-backend/internal/account/usecase"
	jobdomain "jobtrail-backend/internal/job/domain"
	"jobtrail-backend/internal/job/repository"

	"github.com/gin-gonic/gin"
)

// SemanticSearcher finds job record IDs by meaning. Nil when the vector
// store is not configured.
type SemanticSearcher interface {
	SemanticSearch(ctx context.Context, accountID, query string, limit int) ([]string, []float64, error)
	DeleteJob(ctx context.Context, jobID string) error
}

// JobHandler exposes the tracked application records
type JobHandler struct {
	jobRepo  repository.JobRepository
	accounts *accountusecase.AccountUsecase
	searcher SemanticSearcher
}

func NewJobHandler(jobRepo repository.JobRepository, accounts *accountusecase.AccountUsecase, searcher SemanticSearcher) *JobHandler {
	return &JobHandler{
		jobRepo:  jobRepo,
		accounts: accounts,
		searcher: searcher,
	}
}

func (h *JobHandler) List(c *gin.Context) {
	user := accountdelivery.CurrentUser(c)
	accountID := c.Query("account_id")
	if accountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account_id is required"})
		return
	}

	account, err := h.accounts.GetOwned(user.ID, accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if account == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}

	status := jobdomain.Status(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	jobs, err := h.jobRepo.ListByAccount(accountID, status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (h *JobHandler) Get(c *gin.Context) {
	job := h.ownedJob(c)
	if job == nil {
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) Delete(c *gin.Context) {
	job := h.ownedJob(c)
	if job == nil {
		return
	}

	if err := h.jobRepo.Delete(job.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if h.searcher != nil {
		// Embedding cleanup is best effort; the record is already gone
		_ = h.searcher.DeleteJob(c.Request.Context(), job.ID)
	}
	c.JSON(http.StatusOK, gin.H{"message": "job deleted"})
}

// SemanticSearch finds jobs by meaning via the vector store, then loads
// the matching records
func (h *JobHandler) SemanticSearch(c *gin.Context) {
	if h.searcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "semantic search is not configured"})
		return
	}

	user := accountdelivery.CurrentUser(c)

	var req struct {
		AccountID string `json:"account_id" binding:"required"`
		Query     string `json:"query" binding:"required"`
		Limit     int    `json:"limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.accounts.GetOwned(user.ID, req.AccountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if account == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}

	ids, distances, err := h.searcher.SemanticSearch(c.Request.Context(), req.AccountID, req.Query, req.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	type scoredJob struct {
		Job      *jobdomain.JobRecord `json:"job"`
		Distance float64              `json:"distance"`
	}
	results := make([]scoredJob, 0, len(ids))
	for i, id := range ids {
		job, err := h.jobRepo.GetByID(id)
		if err != nil || job == nil {
			continue
		}
		distance := 0.0
		if i < len(distances) {
			distance = distances[i]
		}
		results = append(results, scoredJob{Job: job, Distance: distance})
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *JobHandler) ownedJob(c *gin.Context) *jobdomain.JobRecord {
	user := accountdelivery.CurrentUser(c)

	job, err := h.jobRepo.GetByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return nil
	}

	account, err := h.accounts.GetOwned(user.ID, job.AccountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil
	}
	if account == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return nil
	}
	return job
}
