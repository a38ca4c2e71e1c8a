package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"attendanceportal/internal/apperr"
	"attendanceportal/internal/student"
)

type studentRequest struct {
	Name                   string `json:"name"`
	ContactNumber          string `json:"contactNumber"`
	AlternateContactNumber string `json:"alternateContactNumber"`
	City                   string `json:"city"`
	GRNumber               string `json:"grNumber"`
	Barcode                string `json:"barcode"`
	Class                  int    `json:"class"`
	DateOfBirth            string `json:"dateOfBirth"`
	Gender                 string `json:"gender"`
	Note                   string `json:"note"`
}

func (r studentRequest) toStudent() (student.Student, error) {
	dob, err := parseDate(r.DateOfBirth)
	if err != nil {
		return student.Student{}, apperr.Invalid("invalid dateOfBirth, expected YYYY-MM-DD")
	}
	return student.Student{
		Name:                   r.Name,
		ContactNumber:          r.ContactNumber,
		AlternateContactNumber: r.AlternateContactNumber,
		City:                   r.City,
		GRNumber:               r.GRNumber,
		Barcode:                r.Barcode,
		Class:                  r.Class,
		DateOfBirth:            dob,
		Gender:                 r.Gender,
		Note:                   r.Note,
	}, nil
}

func (a *API) studentAdd(c *gin.Context) {
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("invalid student payload"))
		return
	}
	st, err := req.toStudent()
	if err != nil {
		respondError(c, err)
		return
	}
	created, err := a.Students.Add(c.Request.Context(), st)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "student added successfully", "student": created})
}

func (a *API) studentEdit(c *gin.Context) {
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("invalid student payload"))
		return
	}
	st, err := req.toStudent()
	if err != nil {
		respondError(c, err)
		return
	}
	updated, err := a.Students.Edit(c.Request.Context(), c.Param("id"), st)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "student updated successfully", "student": updated})
}

func (a *API) studentDelete(c *gin.Context) {
	if err := a.Students.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "student and related attendance entries deleted successfully"})
}

func (a *API) studentGet(c *gin.Context) {
	st, err := a.Students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (a *API) studentList(c *gin.Context) {
	class, err := strconv.Atoi(c.Param("class"))
	if err != nil {
		respondError(c, apperr.Invalid("invalid or missing class specified"))
		return
	}
	gender := normalizeGender(c.Query("gender"))
	students, err := a.Students.List(c.Request.Context(), class, gender, c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	if students == nil {
		students = []student.Student{}
	}
	c.JSON(http.StatusOK, gin.H{"class": class, "students": students})
}

func (a *API) studentCounts(c *gin.Context) {
	summary, err := a.Reports.Counts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (a *API) studentPurgeClass(c *gin.Context) {
	var req struct {
		Class int `json:"class"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Invalid("invalid class"))
		return
	}
	deleted, err := a.Students.PurgeClass(c.Request.Context(), req.Class)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("deleted %d students from class %d", deleted, req.Class),
	})
}

// normalizeGender title-cases a gender query param; "all" and "" both mean
// no filter.
func normalizeGender(g string) string {
	if g == "" {
		return ""
	}
	g = strings.ToLower(g)
	return strings.ToUpper(g[:1]) + g[1:]
}
