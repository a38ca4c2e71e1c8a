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

var ist = time.FixedZone("IST", 5*3600+30*60)

func seedDirectory(t *testing.T, students ...student.Student) *student.MemoryRepository {
	t.Helper()
	repo := student.NewMemoryRepository()
	for _, st := range students {
		_, err := repo.Insert(context.Background(), st)
		require.NoError(t, err)
	}
	return repo
}

func newTestService(t *testing.T, students ...student.Student) (*Service, *MemoryLedger) {
	t.Helper()
	ledger := NewMemoryLedger()
	svc := NewService(ledger, seedDirectory(t, students...), ist)
	svc.now = func() time.Time {
		return time.Date(2025, 7, 14, 9, 0, 0, 0, ist)
	}
	return svc, ledger
}

func TestMarkPresent(t *testing.T) {
	svc, _ := newTestService(t,
		student.Student{Name: "Aarav", Barcode: "KSS0000001", Class: 9, Gender: student.GenderMale},
	)
	ctx := context.Background()
	ts := time.Date(2025, 7, 14, 8, 45, 0, 0, ist)

	entry, err := svc.MarkPresent(ctx, "KSS0000001", ts)
	require.NoError(t, err)
	assert.Equal(t, "KSS0000001", entry.Barcode)
	assert.True(t, entry.Timestamp.Equal(ts))
}

func TestMarkPresentValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	ts := time.Date(2025, 7, 14, 8, 45, 0, 0, ist)

	_, err := svc.MarkPresent(ctx, "", ts)
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))

	_, err = svc.MarkPresent(ctx, "KSS0000001", time.Time{})
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
}

func TestMarkPresentUnknownBarcode(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.MarkPresent(context.Background(), "NOPE123", time.Date(2025, 7, 14, 8, 45, 0, 0, ist))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestMarkPresentDoubleScanConflicts(t *testing.T) {
	svc, _ := newTestService(t,
		student.Student{Name: "Aarav", Barcode: "KSS0000001", Class: 9, Gender: student.GenderMale},
	)
	ctx := context.Background()
	ts := time.Date(2025, 7, 14, 8, 45, 0, 0, ist)

	_, err := svc.MarkPresent(ctx, "KSS0000001", ts)
	require.NoError(t, err)

	_, err = svc.MarkPresent(ctx, "KSS0000001", ts.Add(time.Minute))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestMarkPresentRejectedWhenAbsent(t *testing.T) {
	svc, _ := newTestService(t,
		student.Student{Name: "Aarav", Barcode: "KSS0000001", Class: 9, Gender: student.GenderMale},
	)
	ctx := context.Background()

	_, err := svc.MarkAbsentees(ctx, []int{9})
	require.NoError(t, err)

	_, err = svc.MarkPresent(ctx, "KSS0000001", time.Date(2025, 7, 14, 10, 0, 0, 0, ist))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestMarkPresentScansOnSameLocalDayShareADocument(t *testing.T) {
	svc, ledger := newTestService(t,
		student.Student{Name: "Aarav", Barcode: "KSS0000001", Class: 9, Gender: student.GenderMale},
		student.Student{Name: "Diya", Barcode: "KSS0000002", Class: 9, Gender: student.GenderFemale},
	)
	ctx := context.Background()

	// 23:30 UTC on the 13th is already the 14th in IST.
	_, err := svc.MarkPresent(ctx, "KSS0000001", time.Date(2025, 7, 13, 23, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = svc.MarkPresent(ctx, "KSS0000002", time.Date(2025, 7, 14, 8, 0, 0, 0, ist))
	require.NoError(t, err)

	day, err := ledger.Day(ctx, time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, day)
	assert.Len(t, day.PresentList, 2)
}

func TestMarkAbsenteesSkipsPresent(t *testing.T) {
	svc, ledger := newTestService(t,
		student.Student{Name: "Aarav", Barcode: "KSS0000001", Class: 9, Gender: student.GenderMale},
		student.Student{Name: "Diya", Barcode: "KSS0000002", Class: 9, Gender: student.GenderFemale},
		student.Student{Name: "Ishaan", Barcode: "KSS0000003", Class: 10, Gender: student.GenderMale},
	)
	ctx := context.Background()

	_, err := svc.MarkPresent(ctx, "KSS0000001", time.Date(2025, 7, 14, 8, 45, 0, 0, ist))
	require.NoError(t, err)

	res, err := svc.MarkAbsentees(ctx, []int{9})
	require.NoError(t, err)
	assert.Equal(t, 2, res.RosterSize)
	require.Len(t, res.Marked, 1)
	assert.Equal(t, "KSS0000002", res.Marked[0].Barcode)
	assert.Equal(t, 9, res.Marked[0].Class)

	day, err := ledger.Day(ctx, time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, day.HasAbsent("KSS0000001"))
	assert.False(t, day.HasAbsent("KSS0000003"))
}

func TestMarkAbsenteesTwiceConflicts(t *testing.T) {
	svc, _ := newTestService(t,
		student.Student{Name: "Aarav", Barcode: "KSS0000001", Class: 9, Gender: student.GenderMale},
	)
	ctx := context.Background()

	_, err := svc.MarkAbsentees(ctx, []int{9})
	require.NoError(t, err)

	_, err = svc.MarkAbsentees(ctx, []int{9})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestMarkAbsenteesEmptyRoster(t *testing.T) {
	svc, _ := newTestService(t,
		student.Student{Name: "Ishaan", Barcode: "KSS0000003", Class: 10, Gender: student.GenderMale},
	)
	res, err := svc.MarkAbsentees(context.Background(), []int{9})
	require.NoError(t, err)
	assert.Zero(t, res.RosterSize)
	assert.Empty(t, res.Marked)
}

func TestMarkAbsenteesAllPresent(t *testing.T) {
	svc, _ := newTestService(t,
		student.Student{Name: "Aarav", Barcode: "KSS0000001", Class: 9, Gender: student.GenderMale},
	)
	ctx := context.Background()

	_, err := svc.MarkPresent(ctx, "KSS0000001", time.Date(2025, 7, 14, 8, 45, 0, 0, ist))
	require.NoError(t, err)

	res, err := svc.MarkAbsentees(ctx, []int{9})
	require.NoError(t, err)
	assert.Equal(t, 1, res.RosterSize)
	assert.Empty(t, res.Marked)

	// An all-present run leaves no class guard, so a later run still works.
	res, err = svc.MarkAbsentees(ctx, []int{9})
	require.NoError(t, err)
	assert.Empty(t, res.Marked)
}

func TestMarkAbsenteesValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.MarkAbsentees(ctx, nil)
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))

	_, err = svc.MarkAbsentees(ctx, []int{7})
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
}

func TestAppendAbsentRejectsPresentBarcode(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()
	date := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)
	ts := time.Date(2025, 7, 14, 8, 45, 0, 0, ist)

	// A scan that lands after the roster read must still win over the bulk
	// append.
	require.NoError(t, ledger.AppendPresent(ctx, date, Entry{Barcode: "KSS0000001", Timestamp: ts}))

	err := ledger.AppendAbsent(ctx, date, []Entry{
		{Barcode: "KSS0000001", Class: 9, Timestamp: ts},
		{Barcode: "KSS0000002", Class: 9, Timestamp: ts},
	}, []int{9})
	assert.ErrorIs(t, err, ErrConditionFailed)

	// The batch is all-or-nothing: the clean barcode is not written either.
	day, err := ledger.Day(ctx, date)
	require.NoError(t, err)
	assert.True(t, day.HasPresent("KSS0000001"))
	assert.False(t, day.HasAbsent("KSS0000001"))
	assert.False(t, day.HasAbsent("KSS0000002"))
}

func TestUpdateStatusMovesAndKeepsTimestamp(t *testing.T) {
	svc, ledger := newTestService(t,
		student.Student{Name: "Aarav", Barcode: "KSS0000001", Class: 9, Gender: student.GenderMale},
	)
	ctx := context.Background()

	_, err := svc.MarkAbsentees(ctx, []int{9})
	require.NoError(t, err)

	date := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)
	before, err := ledger.Day(ctx, date)
	require.NoError(t, err)
	origTS := before.AbsentList[0].Timestamp

	require.NoError(t, svc.UpdateStatus(ctx, "KSS0000001", date, StatusPresent))

	day, err := ledger.Day(ctx, date)
	require.NoError(t, err)
	assert.False(t, day.HasAbsent("KSS0000001"))
	require.True(t, day.HasPresent("KSS0000001"))
	assert.True(t, day.PresentList[0].Timestamp.Equal(origTS))
}

func TestUpdateStatusAlreadyInState(t *testing.T) {
	svc, ledger := newTestService(t,
		student.Student{Name: "Aarav", Barcode: "KSS0000001", Class: 9, Gender: student.GenderMale},
	)
	ctx := context.Background()

	_, err := svc.MarkPresent(ctx, "KSS0000001", time.Date(2025, 7, 14, 8, 45, 0, 0, ist))
	require.NoError(t, err)

	date := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)
	before, _ := ledger.Day(ctx, date)

	err = svc.UpdateStatus(ctx, "KSS0000001", date, StatusPresent)
	assert.Equal(t, apperr.KindAlreadyInState, apperr.KindOf(err))

	after, _ := ledger.Day(ctx, date)
	assert.Equal(t, before.PresentList, after.PresentList)
	assert.Equal(t, before.AbsentList, after.AbsentList)
}

func TestUpdateStatusMissingRecords(t *testing.T) {
	svc, _ := newTestService(t,
		student.Student{Name: "Aarav", Barcode: "KSS0000001", Class: 9, Gender: student.GenderMale},
		student.Student{Name: "Diya", Barcode: "KSS0000002", Class: 9, Gender: student.GenderFemale},
	)
	ctx := context.Background()
	date := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)

	// No document for the day at all.
	err := svc.UpdateStatus(ctx, "KSS0000001", date, StatusPresent)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.MarkPresent(ctx, "KSS0000001", time.Date(2025, 7, 14, 8, 45, 0, 0, ist))
	require.NoError(t, err)

	// Day exists but the barcode is in neither list.
	err = svc.UpdateStatus(ctx, "KSS0000002", date, StatusPresent)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	err = svc.UpdateStatus(ctx, "KSS0000002", date, StatusAbsent)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUpdateStatusValidation(t *testing.T) {
	svc, _ := newTestService(t)
	date := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)

	err := svc.UpdateStatus(context.Background(), "KSS0000001", date, Status("LATE"))
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))

	err = svc.UpdateStatus(context.Background(), "", date, StatusPresent)
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
}

func TestUpdateStatusRoundTrip(t *testing.T) {
	svc, ledger := newTestService(t,
		student.Student{Name: "Aarav", Barcode: "KSS0000001", Class: 9, Gender: student.GenderMale},
	)
	ctx := context.Background()
	date := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)

	_, err := svc.MarkAbsentees(ctx, []int{9})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(ctx, "KSS0000001", date, StatusPresent))
	require.NoError(t, svc.UpdateStatus(ctx, "KSS0000001", date, StatusAbsent))

	day, err := ledger.Day(ctx, date)
	require.NoError(t, err)
	assert.True(t, day.HasAbsent("KSS0000001"))
	assert.False(t, day.HasPresent("KSS0000001"))
	assert.Len(t, day.AbsentList, 1)
}

func TestRemoveBarcodesCascades(t *testing.T) {
	svc, ledger := newTestService(t,
		student.Student{Name: "Aarav", Barcode: "KSS0000001", Class: 9, Gender: student.GenderMale},
		student.Student{Name: "Diya", Barcode: "KSS0000002", Class: 9, Gender: student.GenderFemale},
	)
	ctx := context.Background()

	_, err := svc.MarkPresent(ctx, "KSS0000001", time.Date(2025, 7, 14, 8, 45, 0, 0, ist))
	require.NoError(t, err)
	_, err = svc.MarkAbsentees(ctx, []int{9})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveBarcodes(ctx, []string{"KSS0000001", "KSS0000002"}))

	day, err := ledger.Day(ctx, time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, day.PresentList)
	assert.Empty(t, day.AbsentList)
}

func TestDayOf(t *testing.T) {
	// An instant late on the 13th UTC is the 14th in IST.
	got := DayOf(time.Date(2025, 7, 13, 22, 0, 0, 0, time.UTC), ist)
	assert.True(t, got.Equal(time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)))

	got = DayOf(time.Date(2025, 7, 14, 9, 0, 0, 0, ist), ist)
	assert.True(t, got.Equal(time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)))
}

func TestDateKey(t *testing.T) {
	got := DateKey(time.Date(2025, 7, 14, 18, 30, 0, 0, time.UTC))
	assert.True(t, got.Equal(time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)))
}
