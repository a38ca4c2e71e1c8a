package httpapi

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"attendanceportal/internal/apperr"
	"attendanceportal/internal/queue"
)

func (a *API) sendOTP(c *gin.Context) {
	var req struct {
		Receiver string `json:"receiver" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("receiver is required"))
		return
	}

	ctx := c.Request.Context()
	sessionID, code, err := a.OTP.Issue(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := a.WhatsApp.SendOTP(ctx, req.Receiver, code); err != nil {
		respondError(c, err)
		return
	}
	otpIssuedTotal.Inc()

	// The code itself never leaves the server side.
	c.JSON(http.StatusOK, gin.H{
		"message":   "otp sent successfully",
		"sessionId": sessionID,
	})
}

func (a *API) verifyOTP(c *gin.Context) {
	var req struct {
		SessionID string `json:"sessionId" binding:"required"`
		OTP       string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("sessionId and otp are required"))
		return
	}

	ok, err := a.OTP.Verify(c.Request.Context(), req.SessionID, req.OTP)
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		respondError(c, apperr.Unauthorized("invalid or expired otp"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "otp verified successfully"})
}

func (a *API) sendAbsentMessages(c *gin.Context) {
	var req struct {
		AbsentClass int `json:"absentClass"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.AbsentClass == 0 {
		respondError(c, apperr.Invalid("please provide a valid class"))
		return
	}

	ctx := c.Request.Context()
	rows, err := a.Reports.ExportRows(ctx, []int{req.AbsentClass}, allGenders, "ABSENT")
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			c.JSON(http.StatusOK, gin.H{"message": "no absentees found for the selected class"})
			return
		}
		respondError(c, err)
		return
	}

	date := time.Now().In(a.Loc).Format("02/01/2006")
	queued := 0
	for _, row := range rows {
		msg, err := queue.NewMessage(queue.TypeAbsentNotice, queue.AbsentNotice{
			Barcode: row.Barcode,
			Name:    row.Name,
			Contact: row.ContactNumber,
			Date:    date,
		})
		if err != nil {
			log.Printf("skipping absent notice for %s: %v", row.Barcode, err)
			continue
		}
		if err := a.Queue.Publish(ctx, msg); err != nil {
			log.Printf("failed to queue absent notice for %s: %v", row.Barcode, err)
			continue
		}
		queued++
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "absent messages queued for delivery",
		"queued":  queued,
	})
}
