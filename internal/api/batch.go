package api

import (
	"net/http"

	"voice-gateway/internal/models"
	"voice-gateway/internal/store"
	"voice-gateway/internal/ws"

	"github.com/gin-gonic/gin"
)

type BatchHandler struct {
	recipients *store.RecipientStore
	hub        *ws.Hub
}

func NewBatchHandler(recipients *store.RecipientStore, hub *ws.Hub) *BatchHandler {
	return &BatchHandler{recipients: recipients, hub: hub}
}

type RecipientRequest struct {
	PhoneNumber      string            `json:"phone_number"`
	Name             string            `json:"name"`
	Email            string            `json:"email"`
	DynamicVariables map[string]string `json:"dynamic_variables"`
}

type RegisterBatchRequest struct {
	JobID      string             `json:"job_id" binding:"required"`
	Recipients []RecipientRequest `json:"recipients"`
}

// RegisterRecipients is called right after a batch job is submitted to the
// voice platform, so webhook calls from the job can find their recipient.
func (h *BatchHandler) RegisterRecipients(c *gin.Context) {
	var req RegisterBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipients := make([]models.RecipientContext, 0, len(req.Recipients))
	for _, r := range req.Recipients {
		recipients = append(recipients, models.RecipientContext{
			PhoneNumber:      r.PhoneNumber,
			Name:             r.Name,
			Email:            r.Email,
			DynamicVariables: r.DynamicVariables,
		})
	}

	if err := h.recipients.RegisterBatch(req.JobID, recipients); err != nil {
		abortWithError(c, err)
		return
	}

	h.hub.BroadcastEvent(ws.EventBatchRegistered, gin.H{"job_id": req.JobID, "recipient_count": len(recipients)})
	c.JSON(http.StatusCreated, gin.H{
		"status":          "Recipients registered",
		"job_id":          req.JobID,
		"recipient_count": len(recipients),
	})
}

func (h *BatchHandler) ListJobs(c *gin.Context) {
	jobs := h.recipients.Jobs()
	if jobs == nil {
		jobs = []models.BatchJobSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

func (h *BatchHandler) LookupRecipient(c *gin.Context) {
	recipient, err := h.recipients.Lookup(c.Param("phone"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipient)
}

// ClearJob is idempotent
func (h *BatchHandler) ClearJob(c *gin.Context) {
	jobID := c.Param("jobId")
	h.recipients.ClearJob(jobID)

	h.hub.BroadcastEvent(ws.EventBatchCleared, gin.H{"job_id": jobID})
	c.JSON(http.StatusOK, gin.H{"status": "Recipients cleared", "job_id": jobID})
}
