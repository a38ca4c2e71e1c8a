package attendance

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"attendanceportal/internal/apperr"
	"attendanceportal/internal/student"
)

// Reports builds the read-only views over the ledger and the directory.
type Reports struct {
	ledger Ledger
	dir    Directory
	loc    *time.Location
	now    func() time.Time
}

// NewReports creates the reporting views.
func NewReports(ledger Ledger, dir Directory, loc *time.Location) *Reports {
	if loc == nil {
		loc = time.UTC
	}
	return &Reports{ledger: ledger, dir: dir, loc: loc, now: time.Now}
}

// RosterEntry is a student reference inside a report bucket.
type RosterEntry struct {
	Name    string `json:"name"`
	Barcode string `json:"barcode"`
}

// ClassBuckets partitions a class into present and absent students.
type ClassBuckets struct {
	Present []RosterEntry `json:"PRESENT"`
	Absent  []RosterEntry `json:"ABSENT"`
}

// StatusCounts holds per-class bucket sizes.
type StatusCounts struct {
	Present int `json:"PRESENT"`
	Absent  int `json:"ABSENT"`
}

// TodaySummary is the daily categorization view. Every tracked class appears,
// with empty buckets when nothing matched.
type TodaySummary struct {
	Categorized map[string]ClassBuckets `json:"categorizedData"`
	Counts      map[string]StatusCounts `json:"counts"`
}

// Today partitions all students with an entry today into per-class buckets.
// A student with no entry on the day is in neither bucket: "no record" is a
// third, implicit state distinct from absent.
func (r *Reports) Today(ctx context.Context) (*TodaySummary, error) {
	date := DayOf(r.now(), r.loc)
	day, err := r.ledger.Day(ctx, date)
	if err != nil {
		return nil, err
	}
	if day == nil {
		return nil, apperr.NotFound("no attendance records found for today")
	}

	presentSet := make(map[string]bool, len(day.PresentList))
	barcodes := make([]string, 0, len(day.PresentList)+len(day.AbsentList))
	for _, e := range day.PresentList {
		presentSet[e.Barcode] = true
		barcodes = append(barcodes, e.Barcode)
	}
	for _, e := range day.AbsentList {
		barcodes = append(barcodes, e.Barcode)
	}

	students, err := r.dir.ByBarcodes(ctx, barcodes)
	if err != nil {
		return nil, err
	}

	summary := &TodaySummary{
		Categorized: make(map[string]ClassBuckets),
		Counts:      make(map[string]StatusCounts),
	}
	for _, c := range student.Classes {
		summary.Categorized[strconv.Itoa(c)] = ClassBuckets{
			Present: []RosterEntry{},
			Absent:  []RosterEntry{},
		}
	}
	for _, st := range students {
		key := strconv.Itoa(st.Class)
		buckets := summary.Categorized[key]
		ref := RosterEntry{Name: st.Name, Barcode: st.Barcode}
		if presentSet[st.Barcode] {
			buckets.Present = append(buckets.Present, ref)
		} else {
			buckets.Absent = append(buckets.Absent, ref)
		}
		summary.Categorized[key] = buckets
	}
	for key, buckets := range summary.Categorized {
		summary.Counts[key] = StatusCounts{
			Present: len(buckets.Present),
			Absent:  len(buckets.Absent),
		}
	}
	return summary, nil
}

// ExportRow is one line of the downloadable attendance report.
type ExportRow struct {
	Name          string    `json:"name"`
	ContactNumber string    `json:"contactNumber"`
	City          string    `json:"city"`
	Barcode       string    `json:"barcode"`
	Gender        string    `json:"gender"`
	Class         int       `json:"class"`
	Status        Status    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
}

// ExportRows returns today's rows filtered by classes, genders and status
// ("ALL", "PRESENT" or "ABSENT"). Rendering to PDF or Excel happens clientside.
func (r *Reports) ExportRows(ctx context.Context, classes []int, genders []string, status string) ([]ExportRow, error) {
	wantPresent, wantAbsent := false, false
	switch status {
	case "ALL":
		wantPresent, wantAbsent = true, true
	case string(StatusPresent):
		wantPresent = true
	case string(StatusAbsent):
		wantAbsent = true
	default:
		return nil, apperr.Invalid("invalid status provided, use PRESENT, ABSENT, or ALL")
	}

	date := DayOf(r.now(), r.loc)
	day, err := r.ledger.Day(ctx, date)
	if err != nil {
		return nil, err
	}
	if day == nil {
		return nil, apperr.NotFound("no attendance records found for today")
	}

	presentBy := make(map[string]Entry, len(day.PresentList))
	absentBy := make(map[string]Entry, len(day.AbsentList))
	var barcodes []string
	if wantPresent {
		for _, e := range day.PresentList {
			presentBy[e.Barcode] = e
			barcodes = append(barcodes, e.Barcode)
		}
	}
	if wantAbsent {
		for _, e := range day.AbsentList {
			absentBy[e.Barcode] = e
			barcodes = append(barcodes, e.Barcode)
		}
	}

	students, err := r.dir.ByBarcodes(ctx, barcodes)
	if err != nil {
		return nil, err
	}
	classSet := make(map[int]bool, len(classes))
	for _, c := range classes {
		classSet[c] = true
	}
	genderSet := make(map[string]bool, len(genders))
	for _, g := range genders {
		genderSet[g] = true
	}

	var rows []ExportRow
	for _, st := range students {
		if !classSet[st.Class] || !genderSet[st.Gender] {
			continue
		}
		row := ExportRow{
			Name:          st.Name,
			ContactNumber: st.ContactNumber,
			City:          st.City,
			Barcode:       st.Barcode,
			Gender:        st.Gender,
			Class:         st.Class,
		}
		if e, ok := presentBy[st.Barcode]; ok {
			row.Status, row.Timestamp = StatusPresent, e.Timestamp
		} else if e, ok := absentBy[st.Barcode]; ok {
			row.Status, row.Timestamp = StatusAbsent, e.Timestamp
		} else {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, apperr.NotFound("no students found matching the criteria")
	}
	return rows, nil
}

// DetailRow is one resolved (day, status, timestamp) record for a student.
type DetailRow struct {
	Date      time.Time `json:"date"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// MonthlySummary aggregates one student's month.
type MonthlySummary struct {
	TotalDays   int         `json:"totalDays"`
	PresentDays int         `json:"presentDays"`
	AbsentDays  int         `json:"absentDays"`
	Details     []DetailRow `json:"details"`
}

// Monthly returns one row per day in (year, month) where the barcode appears
// in either list.
func (r *Reports) Monthly(ctx context.Context, barcode string, year, month int) (*MonthlySummary, error) {
	if barcode == "" || year < 1 || month < 1 || month > 12 {
		return nil, apperr.Invalid("barcode, year, and month are required")
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	days, err := r.ledger.Range(ctx, from, to)
	if err != nil {
		return nil, err
	}

	summary := &MonthlySummary{Details: []DetailRow{}}
	for _, d := range days {
		if e := findEntry(d.PresentList, barcode); e != nil {
			summary.TotalDays++
			summary.PresentDays++
			summary.Details = append(summary.Details, DetailRow{Date: d.Date, Status: StatusPresent, Timestamp: e.Timestamp})
		} else if e := findEntry(d.AbsentList, barcode); e != nil {
			summary.TotalDays++
			summary.AbsentDays++
			summary.Details = append(summary.Details, DetailRow{Date: d.Date, Status: StatusAbsent, Timestamp: e.Timestamp})
		}
	}
	return summary, nil
}

// History returns the full attendance history for a known barcode.
func (r *Reports) History(ctx context.Context, barcode string) ([]DetailRow, error) {
	st, err := r.dir.GetByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, apperr.NotFound("student with the given barcode does not exist")
	}
	days, err := r.ledger.DaysWithBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, apperr.NotFound("no attendance records found for the given barcode")
	}
	rows := make([]DetailRow, 0, len(days))
	for _, d := range days {
		if e := findEntry(d.PresentList, barcode); e != nil {
			rows = append(rows, DetailRow{Date: d.Date, Status: StatusPresent, Timestamp: e.Timestamp})
		} else if e := findEntry(d.AbsentList, barcode); e != nil {
			rows = append(rows, DetailRow{Date: d.Date, Status: StatusAbsent, Timestamp: e.Timestamp})
		}
	}
	return rows, nil
}

// Muster builds the month-by-day grid: barcode -> day-of-month ("01".."31")
// -> "P", "A" or "-" for days with no entry. class 0 and gender "" disable
// the respective filters.
func (r *Reports) Muster(ctx context.Context, year, month, class int, gender string) (map[string]map[string]string, error) {
	if year < 1 || month < 1 || month > 12 {
		return nil, apperr.Invalid("month and year are required")
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	daysInMonth := to.AddDate(0, 0, -1).Day()

	days, err := r.ledger.Range(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, apperr.NotFound("no attendance records found for the selected month")
	}

	seen := make(map[string]bool)
	var barcodes []string
	for _, d := range days {
		for _, e := range append(append([]Entry(nil), d.PresentList...), d.AbsentList...) {
			if !seen[e.Barcode] {
				seen[e.Barcode] = true
				barcodes = append(barcodes, e.Barcode)
			}
		}
	}
	students, err := r.dir.ByBarcodes(ctx, barcodes)
	if err != nil {
		return nil, err
	}
	include := make(map[string]bool)
	for _, st := range students {
		if class != 0 && st.Class != class {
			continue
		}
		if gender != "" && st.Gender != gender {
			continue
		}
		include[st.Barcode] = true
	}

	muster := make(map[string]map[string]string)
	blank := func(barcode string) map[string]string {
		row, ok := muster[barcode]
		if !ok {
			row = make(map[string]string, daysInMonth)
			for i := 1; i <= daysInMonth; i++ {
				row[fmt.Sprintf("%02d", i)] = "-"
			}
			muster[barcode] = row
		}
		return row
	}
	for _, d := range days {
		key := fmt.Sprintf("%02d", d.Date.Day())
		for _, e := range d.PresentList {
			if include[e.Barcode] {
				blank(e.Barcode)[key] = "P"
			}
		}
		for _, e := range d.AbsentList {
			if include[e.Barcode] {
				blank(e.Barcode)[key] = "A"
			}
		}
	}
	return muster, nil
}

// ClassCount holds per-class roster and attendance totals.
type ClassCount struct {
	StudentCount int `json:"studentCount"`
	PresentCount int `json:"presentCount"`
	AbsentCount  int `json:"absentCount"`
}

// CountsSummary is the portal dashboard view.
type CountsSummary struct {
	TotalStudents int64                 `json:"totalStudents"`
	TotalPresent  int                   `json:"totalPresentStudents"`
	TotalAbsent   int                   `json:"totalAbsentStudents"`
	ClassDetails  map[string]ClassCount `json:"classDetails"`
}

// Counts computes total and per-class student counts and today's
// present/absent counts by set intersection between the class roster and the
// ledger, so repeated entries never double count.
func (r *Reports) Counts(ctx context.Context) (*CountsSummary, error) {
	total, err := r.dir.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	roster, err := r.dir.RosterByClasses(ctx, student.Classes)
	if err != nil {
		return nil, err
	}

	date := DayOf(r.now(), r.loc)
	day, err := r.ledger.Day(ctx, date)
	if err != nil {
		return nil, err
	}
	presentSet := make(map[string]bool)
	absentSet := make(map[string]bool)
	if day != nil {
		for _, e := range day.PresentList {
			presentSet[e.Barcode] = true
		}
		for _, e := range day.AbsentList {
			absentSet[e.Barcode] = true
		}
	}

	summary := &CountsSummary{
		TotalStudents: total,
		ClassDetails:  make(map[string]ClassCount),
	}
	for _, c := range student.Classes {
		summary.ClassDetails[strconv.Itoa(c)] = ClassCount{}
	}
	for _, st := range roster {
		key := strconv.Itoa(st.Class)
		counts := summary.ClassDetails[key]
		counts.StudentCount++
		if presentSet[st.Barcode] {
			counts.PresentCount++
			summary.TotalPresent++
		} else if absentSet[st.Barcode] {
			counts.AbsentCount++
			summary.TotalAbsent++
		}
		summary.ClassDetails[key] = counts
	}
	return summary, nil
}
