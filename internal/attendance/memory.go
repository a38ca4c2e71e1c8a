package attendance

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// MemoryLedger is a map-backed ledger for dev and tests. The mutex stands in
// for the per-document atomicity the database provides.
type MemoryLedger struct {
	mu   sync.Mutex
	days map[time.Time]*Day
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{days: make(map[time.Time]*Day)}
}

func (l *MemoryLedger) Day(_ context.Context, date time.Time) (*Day, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	d, ok := l.days[date]
	if !ok {
		return nil, nil
	}
	cp := *d
	cp.PresentList = append([]Entry(nil), d.PresentList...)
	cp.AbsentList = append([]Entry(nil), d.AbsentList...)
	return &cp, nil
}

func (l *MemoryLedger) Range(_ context.Context, from, to time.Time) ([]Day, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Day
	for date, d := range l.days {
		if !date.Before(from) && date.Before(to) {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (l *MemoryLedger) DaysWithBarcode(_ context.Context, barcode string) ([]Day, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Day
	for _, d := range l.days {
		if d.HasPresent(barcode) || d.HasAbsent(barcode) {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (l *MemoryLedger) AppendPresent(_ context.Context, date time.Time, e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	d := l.ensure(date)
	if d.HasPresent(e.Barcode) || d.HasAbsent(e.Barcode) {
		return ErrConditionFailed
	}
	d.PresentList = append(d.PresentList, e)
	return nil
}

func (l *MemoryLedger) AppendAbsent(_ context.Context, date time.Time, entries []Entry, guardClasses []int) error {
	if len(entries) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	d := l.ensure(date)
	guard := make(map[int]bool, len(guardClasses))
	for _, c := range guardClasses {
		guard[c] = true
	}
	for _, a := range d.AbsentList {
		if guard[a.Class] {
			return ErrConditionFailed
		}
	}
	for _, e := range entries {
		if d.HasPresent(e.Barcode) {
			return ErrConditionFailed
		}
	}
	d.AbsentList = append(d.AbsentList, entries...)
	return nil
}

func (l *MemoryLedger) Move(_ context.Context, date time.Time, e Entry, to Status) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	d, ok := l.days[date]
	if !ok {
		return ErrConditionFailed
	}
	var source, dest *[]Entry
	switch to {
	case StatusPresent:
		source, dest = &d.AbsentList, &d.PresentList
	case StatusAbsent:
		source, dest = &d.PresentList, &d.AbsentList
	default:
		return errors.New("invalid destination status")
	}
	if findEntry(*dest, e.Barcode) != nil {
		return ErrConditionFailed
	}
	idx := -1
	for i := range *source {
		if (*source)[i].Barcode == e.Barcode {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrConditionFailed
	}
	*source = append((*source)[:idx], (*source)[idx+1:]...)
	*dest = append(*dest, Entry{Barcode: e.Barcode, Timestamp: e.Timestamp})
	return nil
}

func (l *MemoryLedger) RemoveBarcodes(_ context.Context, barcodes []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	drop := make(map[string]bool, len(barcodes))
	for _, b := range barcodes {
		drop[b] = true
	}
	for _, d := range l.days {
		d.PresentList = without(d.PresentList, drop)
		d.AbsentList = without(d.AbsentList, drop)
	}
	return nil
}

func (l *MemoryLedger) ensure(date time.Time) *Day {
	d, ok := l.days[date]
	if !ok {
		d = &Day{Date: date}
		l.days[date] = d
	}
	return d
}

func without(list []Entry, drop map[string]bool) []Entry {
	out := list[:0]
	for _, e := range list {
		if !drop[e.Barcode] {
			out = append(out, e)
		}
	}
	return out
}
