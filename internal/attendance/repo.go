package attendance

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrConditionFailed reports that a conditional update found its precondition
// no longer true, typically because a concurrent writer got there first.
var ErrConditionFailed = errors.New("conditional update failed")

// Ledger is the storage contract for attendance days. Append and Move are
// conditional updates: the duplicate checks and the write happen as one
// atomic operation on the day document, so check-then-append never races.
type Ledger interface {
	// Day returns the document for a date, nil when none exists.
	Day(ctx context.Context, date time.Time) (*Day, error)
	// Range returns all days with from <= date < to, ordered by date.
	Range(ctx context.Context, from, to time.Time) ([]Day, error)
	// DaysWithBarcode returns every day where barcode appears in either list.
	DaysWithBarcode(ctx context.Context, barcode string) ([]Day, error)
	// AppendPresent pushes e onto the present list of date, creating the day
	// when missing. Fails with ErrConditionFailed if the barcode is already in
	// either list.
	AppendPresent(ctx context.Context, date time.Time, e Entry) error
	// AppendAbsent pushes entries onto the absent list of date, creating the
	// day when missing. Fails with ErrConditionFailed if any entry's barcode
	// is already in the present list or the absent list already holds an
	// entry for any of the guard classes.
	AppendAbsent(ctx context.Context, date time.Time, entries []Entry, guardClasses []int) error
	// Move transfers e between lists, preserving its timestamp. Fails with
	// ErrConditionFailed if e is no longer in the source list or its barcode
	// is already in the destination list.
	Move(ctx context.Context, date time.Time, e Entry, to Status) error
	// RemoveBarcodes pulls the barcodes out of both lists of every day.
	RemoveBarcodes(ctx context.Context, barcodes []string) error
}

// MongoLedger persists attendance days in the attendance_days collection.
// The unique index on date turns a lost conditional upsert into a duplicate
// key error, which is reported as ErrConditionFailed.
type MongoLedger struct {
	col *mongo.Collection
}

// NewMongoLedger creates a ledger over db's attendance_days collection.
func NewMongoLedger(db *mongo.Database) *MongoLedger {
	return &MongoLedger{col: db.Collection("attendance_days")}
}

func (l *MongoLedger) Day(ctx context.Context, date time.Time) (*Day, error) {
	var d Day
	if err := l.col.FindOne(ctx, bson.M{"date": date}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (l *MongoLedger) Range(ctx context.Context, from, to time.Time) ([]Day, error) {
	filter := bson.M{"date": bson.M{"$gte": from, "$lt": to}}
	cur, err := l.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []Day
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (l *MongoLedger) DaysWithBarcode(ctx context.Context, barcode string) ([]Day, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"presentList.barcode": barcode},
		bson.M{"absentList.barcode": barcode},
	}}
	cur, err := l.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []Day
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (l *MongoLedger) AppendPresent(ctx context.Context, date time.Time, e Entry) error {
	filter := bson.M{
		"date":                date,
		"presentList.barcode": bson.M{"$ne": e.Barcode},
		"absentList.barcode":  bson.M{"$ne": e.Barcode},
	}
	update := bson.M{
		"$push":        bson.M{"presentList": e},
		"$setOnInsert": bson.M{"absentList": bson.A{}},
	}
	res, err := l.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// The day exists but the guard filter excluded it.
			return ErrConditionFailed
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConditionFailed
	}
	return nil
}

func (l *MongoLedger) AppendAbsent(ctx context.Context, date time.Time, entries []Entry, guardClasses []int) error {
	if len(entries) == 0 {
		return nil
	}
	barcodes := make([]string, 0, len(entries))
	for _, e := range entries {
		barcodes = append(barcodes, e.Barcode)
	}
	// The present-list guard closes the window between the caller's roster
	// read and this append: a scan that lands in between excludes the day
	// from the filter and the upsert collapses into ErrConditionFailed.
	filter := bson.M{
		"date":                date,
		"presentList.barcode": bson.M{"$nin": barcodes},
	}
	if len(guardClasses) > 0 {
		filter["absentList"] = bson.M{"$not": bson.M{"$elemMatch": bson.M{"class": bson.M{"$in": guardClasses}}}}
	}
	update := bson.M{
		"$push":        bson.M{"absentList": bson.M{"$each": entries}},
		"$setOnInsert": bson.M{"presentList": bson.A{}},
	}
	res, err := l.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConditionFailed
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConditionFailed
	}
	return nil
}

func (l *MongoLedger) Move(ctx context.Context, date time.Time, e Entry, to Status) error {
	var source, dest string
	switch to {
	case StatusPresent:
		source, dest = "absentList", "presentList"
	case StatusAbsent:
		source, dest = "presentList", "absentList"
	default:
		return errors.New("invalid destination status")
	}
	filter := bson.M{
		"date":               date,
		source + ".barcode":  e.Barcode,
		dest + ".barcode":    bson.M{"$ne": e.Barcode},
	}
	update := bson.M{
		"$pull": bson.M{source: bson.M{"barcode": e.Barcode}},
		"$push": bson.M{dest: Entry{Barcode: e.Barcode, Timestamp: e.Timestamp}},
	}
	res, err := l.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return ErrConditionFailed
	}
	return nil
}

func (l *MongoLedger) RemoveBarcodes(ctx context.Context, barcodes []string) error {
	if len(barcodes) == 0 {
		return nil
	}
	pull := bson.M{"$pull": bson.M{
		"presentList": bson.M{"barcode": bson.M{"$in": barcodes}},
		"absentList":  bson.M{"barcode": bson.M{"$in": barcodes}},
	}}
	_, err := l.col.UpdateMany(ctx, bson.M{}, pull)
	return err
}
