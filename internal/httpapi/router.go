// Package httpapi assembles the gin router and the request handlers.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attendanceportal/internal/admin"
	"attendanceportal/internal/attendance"
	"attendanceportal/internal/auth"
	"attendanceportal/internal/config"
	"attendanceportal/internal/httpmiddleware"
	"attendanceportal/internal/notify"
	"attendanceportal/internal/otp"
	"attendanceportal/internal/queue"
	"attendanceportal/internal/student"
)

// Health reports backing-store connectivity for /healthz.
type Health interface {
	Healthy(ctx context.Context) bool
}

// API bundles the services behind the HTTP surface.
type API struct {
	Cfg        config.App
	Students   *student.Service
	Reconciler *attendance.Service
	Reports    *attendance.Reports
	Admins     *admin.Service
	OTP        *otp.Store
	WhatsApp   *notify.Client
	Queue      queue.Queue
	Loc        *time.Location
	Mongo      Health
	Redis      Health
}

// Router builds the gin engine with middleware and all routes.
func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:           24 * time.Hour,
	}))
	r.Use(securityHeaders())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", a.healthz)

	authRequired := auth.AdminAuth(a.Cfg.JWTSigningKey, a.Cfg.JWTIssuer)
	loginLimiter := httpmiddleware.NewSimpleTokenBucket(a.Cfg.LoginRatePerMin, a.Cfg.LoginRatePerMin).GinMiddleware()

	api := r.Group("/api")

	adm := api.Group("/admin")
	adm.POST("/login", loginLimiter, a.adminLogin)
	adm.POST("/register", a.adminRegister)
	adm.POST("/validate", a.adminValidate)
	adm.POST("/validate-admin-bycp", a.adminValidateByContactPassword)
	adm.POST("/fetch-username", a.adminFetchUsername)
	adm.POST("/changePassword", a.adminChangePassword)
	adm.POST("/changeVerificationPassword", authRequired, a.adminChangeVerificationPassword)
	adm.POST("/changeAdminUsername", authRequired, a.adminChangeUsername)
	adm.POST("/verifyPassword", authRequired, a.adminVerifyPassword)
	adm.POST("/verifyVerificationPassword", authRequired, a.adminVerifyVerificationPassword)
	adm.POST("/changeAdminContact", authRequired, a.adminChangeContact)
	adm.GET("/get-contact", authRequired, a.adminGetContact)

	st := api.Group("/students", authRequired)
	st.POST("/addStudent", a.studentAdd)
	st.PUT("/:id", a.studentEdit)
	st.DELETE("/:id", a.studentDelete)
	st.GET("/get-student/:id", a.studentGet)
	st.GET("/:class", a.studentList)
	st.GET("/counts/all", a.studentCounts)
	st.DELETE("/delete/studentDatabase", a.studentPurgeClass)

	att := api.Group("/attendance", authRequired)
	att.POST("/scan", a.attendanceScan)
	att.POST("/absentees", a.attendanceMarkAbsentees)
	att.POST("/updateAttendance", a.attendanceUpdateStatus)
	att.POST("/getAttendanceData", a.attendanceExport)
	att.POST("/monthly", a.attendanceMonthly)
	att.POST("/get/today", a.attendanceToday)
	att.POST("/get/all-attendance", a.attendanceMuster)
	att.GET("/:barcode", a.attendanceHistory)

	api.POST("/send-otp", a.sendOTP)
	api.POST("/verify-otp", a.verifyOTP)
	api.POST("/send-absent-messages", authRequired, a.sendAbsentMessages)

	return r
}

func (a *API) healthz(c *gin.Context) {
	ctx := c.Request.Context()
	mongoHealthy := a.Mongo != nil && a.Mongo.Healthy(ctx)
	redisHealthy := a.Redis != nil && a.Redis.Healthy(ctx)
	status := http.StatusOK
	if !mongoHealthy || !redisHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "mongo": mongoHealthy, "redis": redisHealthy})
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
