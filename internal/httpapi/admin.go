package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"attendanceportal/internal/apperr"
	"attendanceportal/internal/auth"
)

func (a *API) adminLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("username and password are required"))
		return
	}
	adm, err := a.Admins.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	token, err := auth.Issue(adm.ID.Hex(), a.Cfg.JWTIssuer, a.Cfg.JWTSigningKey, a.Cfg.AccessTTL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "login successful",
		"token":     token.Value,
		"expiresAt": token.ExpiresAt.Unix(),
		"adminId":   adm.ID.Hex(),
	})
}

func (a *API) adminRegister(c *gin.Context) {
	var req struct {
		Username             string `json:"username"`
		Contact              string `json:"contact"`
		EmailID              string `json:"emailId"`
		Password             string `json:"password"`
		VerificationPassword string `json:"verificationPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("invalid admin payload"))
		return
	}
	adm, err := a.Admins.Register(c.Request.Context(), req.Username, req.Contact, req.EmailID, req.Password, req.VerificationPassword)
	if err != nil {
		respondError(c, err)
		return
	}
	token, err := auth.Issue(adm.ID.Hex(), a.Cfg.JWTIssuer, a.Cfg.JWTSigningKey, a.Cfg.AccessTTL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":   "admin registered successfully",
		"token":     token.Value,
		"expiresAt": token.ExpiresAt.Unix(),
	})
}

func (a *API) adminValidate(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Contact  string `json:"contact"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("username and contact are required"))
		return
	}
	if err := a.Admins.Validate(c.Request.Context(), req.Username, req.Contact); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "valid credentials"})
}

func (a *API) adminValidateByContactPassword(c *gin.Context) {
	var req struct {
		Contact  string `json:"contact"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("contact number and password are required"))
		return
	}
	if err := a.Admins.ValidateByContactAndPassword(c.Request.Context(), req.Contact, req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "success"})
}

func (a *API) adminFetchUsername(c *gin.Context) {
	var req struct {
		Contact string `json:"contact"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("contact number is required"))
		return
	}
	username, err := a.Admins.UsernameByContact(c.Request.Context(), req.Contact)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": username})
}

func (a *API) adminChangePassword(c *gin.Context) {
	var req struct {
		Username    string `json:"username"`
		Contact     string `json:"contact"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("username, contact and newPassword are required"))
		return
	}
	if err := a.Admins.ChangePassword(c.Request.Context(), req.Username, req.Contact, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated successfully"})
}

func (a *API) adminChangeVerificationPassword(c *gin.Context) {
	var req struct {
		Username    string `json:"username"`
		Contact     string `json:"contact"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("username, contact and newPassword are required"))
		return
	}
	if err := a.Admins.ChangeVerificationPassword(c.Request.Context(), auth.AdminID(c), req.Username, req.Contact, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "verification password updated successfully"})
}

func (a *API) adminChangeUsername(c *gin.Context) {
	var req struct {
		CurrentUsername string `json:"currentUsername"`
		Contact         string `json:"contact"`
		NewUsername     string `json:"newUsername"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("currentUsername, contact and newUsername are required"))
		return
	}
	if err := a.Admins.ChangeUsername(c.Request.Context(), req.CurrentUsername, req.Contact, req.NewUsername); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "username updated successfully"})
}

func (a *API) adminVerifyPassword(c *gin.Context) {
	var req struct {
		AdminID  string `json:"adminId"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("adminId and password are required"))
		return
	}
	if err := a.Admins.VerifyPassword(c.Request.Context(), req.AdminID, req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "password verified"})
}

func (a *API) adminVerifyVerificationPassword(c *gin.Context) {
	var req struct {
		AdminID              string `json:"adminId"`
		VerificationPassword string `json:"verificationPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("adminId and verificationPassword are required"))
		return
	}
	if err := a.Admins.VerifyVerificationPassword(c.Request.Context(), req.AdminID, req.VerificationPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "verification password verified"})
}

func (a *API) adminChangeContact(c *gin.Context) {
	var req struct {
		Username       string `json:"username"`
		CurrentContact string `json:"currentContact"`
		NewContact     string `json:"newContact"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("username, current contact, and new contact number are required"))
		return
	}
	if err := a.Admins.ChangeContact(c.Request.Context(), req.Username, req.CurrentContact, req.NewContact); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "contact number updated successfully"})
}

func (a *API) adminGetContact(c *gin.Context) {
	contact, err := a.Admins.ContactOf(c.Request.Context(), auth.AdminID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "contact": contact})
}
