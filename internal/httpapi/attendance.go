package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"attendanceportal/internal/apperr"
	"attendanceportal/internal/attendance"
	"attendanceportal/internal/student"
)

var allGenders = []string{student.GenderMale, student.GenderFemale, student.GenderOther}

func (a *API) attendanceScan(c *gin.Context) {
	var req struct {
		Barcode   string    `json:"barcode" binding:"required"`
		Timestamp time.Time `json:"timestamp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("barcode and an ISO timestamp are required"))
		return
	}

	entry, err := a.Reconciler.MarkPresent(c.Request.Context(), req.Barcode, req.Timestamp)
	if err != nil {
		scansTotal.WithLabelValues("rejected").Inc()
		respondError(c, err)
		return
	}
	scansTotal.WithLabelValues("marked").Inc()
	c.JSON(http.StatusOK, gin.H{
		"message":    "attendance marked as present",
		"attendance": entry,
	})
}

func (a *API) attendanceMarkAbsentees(c *gin.Context) {
	var req struct {
		AbsentClass []int `json:"absentClass"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("please provide a valid class to mark absentees"))
		return
	}

	res, err := a.Reconciler.MarkAbsentees(c.Request.Context(), req.AbsentClass)
	if err != nil {
		bulkAbsentTotal.WithLabelValues("rejected").Inc()
		respondError(c, err)
		return
	}
	bulkAbsentTotal.WithLabelValues("marked").Inc()

	switch {
	case res.RosterSize == 0:
		c.JSON(http.StatusOK, gin.H{"message": "no students found in the selected class"})
	case len(res.Marked) == 0:
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("all students in class %s are already marked present", joinClasses(req.AbsentClass)),
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"message":     fmt.Sprintf("absentees for class %s marked successfully", joinClasses(req.AbsentClass)),
			"absentCount": len(res.Marked),
			"absentees":   res.Marked,
		})
	}
}

func (a *API) attendanceUpdateStatus(c *gin.Context) {
	var req struct {
		Barcode string `json:"barcode"`
		Date    string `json:"date"`
		Status  string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Barcode == "" || req.Date == "" || req.Status == "" {
		respondError(c, apperr.Invalid("barcode, date, and status are required"))
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondError(c, apperr.Invalid("invalid date format"))
		return
	}

	status := attendance.Status(strings.ToUpper(req.Status))
	if err := a.Reconciler.UpdateStatus(c.Request.Context(), req.Barcode, date, status); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("attendance updated successfully to %s", status),
	})
}

func (a *API) attendanceExport(c *gin.Context) {
	var req struct {
		Std    json.RawMessage `json:"std"`
		Gender string          `json:"gender"`
		Status string          `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("std, gender, and status are required"))
		return
	}
	classes, err := coerceClasses(req.Std)
	if err != nil {
		respondError(c, err)
		return
	}
	genders := allGenders
	if req.Gender != "" && !strings.EqualFold(req.Gender, "ALL") {
		genders = []string{req.Gender}
	}

	rows, err := a.Reports.ExportRows(c.Request.Context(), classes, genders, strings.ToUpper(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendanceData": rows})
}

func (a *API) attendanceMonthly(c *gin.Context) {
	var req struct {
		Barcode string `json:"barcode"`
		Year    int    `json:"year"`
		Month   int    `json:"month"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("barcode, year, and month are required"))
		return
	}
	summary, err := a.Reports.Monthly(c.Request.Context(), req.Barcode, req.Year, req.Month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (a *API) attendanceToday(c *gin.Context) {
	summary, err := a.Reports.Today(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (a *API) attendanceMuster(c *gin.Context) {
	var req struct {
		Month    int             `json:"month"`
		Year     int             `json:"year"`
		Standard json.RawMessage `json:"standard"`
		Gender   string          `json:"gender"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("month and year are required"))
		return
	}
	class := 0
	if len(req.Standard) > 0 {
		classes, err := coerceClasses(req.Standard)
		if err != nil {
			respondError(c, err)
			return
		}
		if len(classes) == 1 {
			class = classes[0]
		}
	}
	gender := req.Gender
	if strings.EqualFold(gender, "ALL") {
		gender = ""
	}

	muster, err := a.Reports.Muster(c.Request.Context(), req.Year, req.Month, class, gender)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"year": req.Year, "month": req.Month, "muster": muster})
}

func (a *API) attendanceHistory(c *gin.Context) {
	barcode := strings.TrimSpace(c.Param("barcode"))
	if barcode == "" || !isAlphanumeric(barcode) {
		respondError(c, apperr.Invalid("barcode must be alphanumeric"))
		return
	}
	rows, err := a.Reports.History(c.Request.Context(), barcode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendance": rows})
}

// coerceClasses accepts "ALL", a quoted number, or a bare number and returns
// the class filter.
func coerceClasses(raw json.RawMessage) ([]int, error) {
	if len(raw) == 0 {
		return student.Classes, nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if strings.EqualFold(asString, "ALL") {
			return student.Classes, nil
		}
		n, err := strconv.Atoi(asString)
		if err != nil {
			return nil, apperr.Invalid("invalid class value")
		}
		return []int{n}, nil
	}
	var asNumber int
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return []int{asNumber}, nil
	}
	return nil, apperr.Invalid("invalid class value")
}

func joinClasses(classes []int) string {
	parts := make([]string, len(classes))
	for i, c := range classes {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ",")
}

// parseDate accepts a calendar date or a full timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
