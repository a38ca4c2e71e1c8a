package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendanceportal/internal/apperr"
	"attendanceportal/internal/student"
)

func newTestReports(t *testing.T, students ...student.Student) (*Reports, *Service, *MemoryLedger) {
	t.Helper()
	ledger := NewMemoryLedger()
	dir := seedDirectory(t, students...)
	now := func() time.Time {
		return time.Date(2025, 7, 14, 9, 0, 0, 0, ist)
	}
	svc := NewService(ledger, dir, ist)
	svc.now = now
	rep := NewReports(ledger, dir, ist)
	rep.now = now
	return rep, svc, ledger
}

func TestTodayNoRecords(t *testing.T) {
	rep, _, _ := newTestReports(t)
	_, err := rep.Today(context.Background())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestTodayBucketsByClass(t *testing.T) {
	rep, svc, _ := newTestReports(t,
		student.Student{Name: "Aarav", Barcode: "KSS0000001", Class: 9, Gender: student.GenderMale},
		student.Student{Name: "Diya", Barcode: "KSS0000002", Class: 9, Gender: student.GenderFemale},
		student.Student{Name: "Ishaan", Barcode: "KSS0000003", Class: 10, Gender: student.GenderMale},
	)
	ctx := context.Background()

	_, err := svc.MarkPresent(ctx, "KSS0000001", time.Date(2025, 7, 14, 8, 45, 0, 0, ist))
	require.NoError(t, err)
	_, err = svc.MarkAbsentees(ctx, []int{9})
	require.NoError(t, err)

	summary, err := rep.Today(ctx)
	require.NoError(t, err)

	nine := summary.Categorized["9"]
	require.Len(t, nine.Present, 1)
	assert.Equal(t, "Aarav", nine.Present[0].Name)
	require.Len(t, nine.Absent, 1)
	assert.Equal(t, "Diya", nine.Absent[0].Name)

	// Class 10 has no entries today but still appears with empty buckets.
	ten, ok := summary.Categorized["10"]
	require.True(t, ok)
	assert.Empty(t, ten.Present)
	assert.Empty(t, ten.Absent)

	assert.Equal(t, StatusCounts{Present: 1, Absent: 1}, summary.Counts["9"])
	assert.Equal(t, StatusCounts{}, summary.Counts["10"])
}

func TestExportRowsFilters(t *testing.T) {
	rep, svc, _ := newTestReports(t,
		student.Student{Name: "Aarav", Barcode: "KSS0000001", Class: 9, Gender: student.GenderMale, City: "Pune", ContactNumber: "9811111111"},
		student.Student{Name: "Diya", Barcode: "KSS0000002", Class: 9, Gender: student.GenderFemale},
		student.Student{Name: "Ishaan", Barcode: "KSS0000003", Class: 10, Gender: student.GenderMale},
	)
	ctx := context.Background()

	_, err := svc.MarkPresent(ctx, "KSS0000001", time.Date(2025, 7, 14, 8, 45, 0, 0, ist))
	require.NoError(t, err)
	_, err = svc.MarkAbsentees(ctx, []int{9, 10})
	require.NoError(t, err)

	all := []string{student.GenderMale, student.GenderFemale, student.GenderOther}

	rows, err := rep.ExportRows(ctx, []int{9, 10}, all, "ALL")
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = rep.ExportRows(ctx, []int{9}, all, "PRESENT")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Aarav", rows[0].Name)
	assert.Equal(t, "Pune", rows[0].City)
	assert.Equal(t, StatusPresent, rows[0].Status)

	rows, err = rep.ExportRows(ctx, []int{9}, []string{student.GenderFemale}, "ABSENT")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Diya", rows[0].Name)

	_, err = rep.ExportRows(ctx, []int{9}, []string{student.GenderOther}, "ABSENT")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = rep.ExportRows(ctx, []int{9}, all, "LATE")
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
}

func TestMonthly(t *testing.T) {
	rep, svc, _ := newTestReports(t,
		student.Student{Name: "Aarav", Barcode: "KSS0000001", Class: 9, Gender: student.GenderMale},
	)
	ctx := context.Background()

	_, err := svc.MarkPresent(ctx, "KSS0000001", time.Date(2025, 7, 14, 8, 45, 0, 0, ist))
	require.NoError(t, err)
	_, err = svc.MarkPresent(ctx, "KSS0000001", time.Date(2025, 7, 15, 8, 50, 0, 0, ist))
	require.NoError(t, err)

	// A day from another month must not count.
	_, err = svc.MarkPresent(ctx, "KSS0000001", time.Date(2025, 6, 30, 8, 50, 0, 0, ist))
	require.NoError(t, err)

	summary, err := rep.Monthly(ctx, "KSS0000001", 2025, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalDays)
	assert.Equal(t, 2, summary.PresentDays)
	assert.Zero(t, summary.AbsentDays)
	assert.Len(t, summary.Details, 2)

	_, err = rep.Monthly(ctx, "", 2025, 7)
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
	_, err = rep.Monthly(ctx, "KSS0000001", 2025, 13)
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
}

func TestHistory(t *testing.T) {
	rep, svc, _ := newTestReports(t,
		student.Student{Name: "Aarav", Barcode: "KSS0000001", Class: 9, Gender: student.GenderMale},
		student.Student{Name: "Diya", Barcode: "KSS0000002", Class: 9, Gender: student.GenderFemale},
	)
	ctx := context.Background()

	_, err := rep.History(ctx, "UNKNOWN99")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	// Known student but no ledger entries yet.
	_, err = rep.History(ctx, "KSS0000002")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.MarkPresent(ctx, "KSS0000001", time.Date(2025, 7, 14, 8, 45, 0, 0, ist))
	require.NoError(t, err)

	rows, err := rep.History(ctx, "KSS0000001")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, StatusPresent, rows[0].Status)
}

func TestMusterGrid(t *testing.T) {
	rep, svc, _ := newTestReports(t,
		student.Student{Name: "Aarav", Barcode: "KSS0000001", Class: 9, Gender: student.GenderMale},
		student.Student{Name: "Diya", Barcode: "KSS0000002", Class: 9, Gender: student.GenderFemale},
	)
	ctx := context.Background()

	_, err := svc.MarkPresent(ctx, "KSS0000001", time.Date(2025, 7, 14, 8, 45, 0, 0, ist))
	require.NoError(t, err)
	_, err = svc.MarkAbsentees(ctx, []int{9})
	require.NoError(t, err)

	muster, err := rep.Muster(ctx, 2025, 7, 0, "")
	require.NoError(t, err)

	row := muster["KSS0000001"]
	require.NotNil(t, row)
	assert.Len(t, row, 31)
	assert.Equal(t, "P", row["14"])
	assert.Equal(t, "-", row["15"])

	assert.Equal(t, "A", muster["KSS0000002"]["14"])

	// A correction flips the grid cell.
	require.NoError(t, svc.UpdateStatus(ctx, "KSS0000002", time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC), StatusPresent))
	muster, err = rep.Muster(ctx, 2025, 7, 0, "")
	require.NoError(t, err)
	assert.Equal(t, "P", muster["KSS0000002"]["14"])
}

func TestMusterFilters(t *testing.T) {
	rep, svc, _ := newTestReports(t,
		student.Student{Name: "Aarav", Barcode: "KSS0000001", Class: 9, Gender: student.GenderMale},
		student.Student{Name: "Ishaan", Barcode: "KSS0000003", Class: 10, Gender: student.GenderMale},
	)
	ctx := context.Background()

	_, err := svc.MarkAbsentees(ctx, []int{9, 10})
	require.NoError(t, err)

	muster, err := rep.Muster(ctx, 2025, 7, 9, "")
	require.NoError(t, err)
	assert.Contains(t, muster, "KSS0000001")
	assert.NotContains(t, muster, "KSS0000003")

	muster, err = rep.Muster(ctx, 2025, 7, 0, student.GenderMale)
	require.NoError(t, err)
	assert.Len(t, muster, 2)

	_, err = rep.Muster(ctx, 2025, 6, 0, "")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCountsSetSemantics(t *testing.T) {
	rep, svc, _ := newTestReports(t,
		student.Student{Name: "Aarav", Barcode: "KSS0000001", Class: 9, Gender: student.GenderMale},
		student.Student{Name: "Diya", Barcode: "KSS0000002", Class: 9, Gender: student.GenderFemale},
		student.Student{Name: "Ishaan", Barcode: "KSS0000003", Class: 10, Gender: student.GenderMale},
	)
	ctx := context.Background()

	_, err := svc.MarkPresent(ctx, "KSS0000001", time.Date(2025, 7, 14, 8, 45, 0, 0, ist))
	require.NoError(t, err)
	_, err = svc.MarkAbsentees(ctx, []int{9})
	require.NoError(t, err)

	summary, err := rep.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.TotalStudents)
	assert.Equal(t, 1, summary.TotalPresent)
	assert.Equal(t, 1, summary.TotalAbsent)
	assert.Equal(t, ClassCount{StudentCount: 2, PresentCount: 1, AbsentCount: 1}, summary.ClassDetails["9"])
	assert.Equal(t, ClassCount{StudentCount: 1}, summary.ClassDetails["10"])
}

func TestCountsWithoutLedger(t *testing.T) {
	rep, _, _ := newTestReports(t,
		student.Student{Name: "Aarav", Barcode: "KSS0000001", Class: 9, Gender: student.GenderMale},
	)
	summary, err := rep.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.TotalStudents)
	assert.Zero(t, summary.TotalPresent)
	assert.Zero(t, summary.TotalAbsent)
}
