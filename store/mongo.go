package store

import (
	"context"
	"fmt"
	"time"

	"urbane/db"
	"urbane/models"
	"urbane/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo implements Store over the global collections in db.
type Mongo struct{}

func NewMongo() *Mongo { return &Mongo{} }

var _ Store = (*Mongo)(nil)
var _ Tx = mongoTx{}

func notFound(err error) error {
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	return err
}

func (m *Mongo) Booking(ctx context.Context, orderID string) (*models.Booking, error) {
	var b models.Booking
	err := db.BookingsCollection.FindOne(ctx, bson.M{"_id": orderID}).Decode(&b)
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (m *Mongo) Partner(ctx context.Context, partnerID string) (*models.PartnerProfile, error) {
	var p models.PartnerProfile
	err := db.PartnersCollection.FindOne(ctx, bson.M{"_id": partnerID}).Decode(&p)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (m *Mongo) Timing(ctx context.Context, partnerID, dateID string) (*models.PartnerTiming, error) {
	var t models.PartnerTiming
	err := db.PartnerTimingsCollection.FindOne(ctx, bson.M{"_id": models.TimingID(partnerID, dateID)}).Decode(&t)
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (m *Mongo) PartnerDayBookingCount(ctx context.Context, partnerID string, day time.Time) (int, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	n, err := db.BookingsCollection.CountDocuments(ctx, bson.M{
		"assignedpartnerid":    partnerID,
		"bookingdateIsoString": bson.M{"$gte": start.Format(time.RFC3339), "$lt": end.Format(time.RFC3339)},
		"status":               bson.M{"$in": models.ActiveStatuses},
	})
	if err != nil {
		return 0, fmt.Errorf("count partner bookings: %w", err)
	}
	return int(n), nil
}

func (m *Mongo) ApprovedLeave(ctx context.Context, partnerID, dateID string) (*models.PartnerLeave, error) {
	var l models.PartnerLeave
	err := db.PartnerLeavesCollection.FindOne(ctx, bson.M{
		"partnerId": partnerID,
		"dayList":   dateID,
		"status":    "approved",
	}).Decode(&l)
	if err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

func (m *Mongo) User(ctx context.Context, clientID string) (*models.User, error) {
	var u models.User
	err := db.UsersCollection.FindOne(ctx, bson.M{"_id": clientID}).Decode(&u)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (m *Mongo) UpdateWallet(ctx context.Context, clientID string, balance float64, removeCouponID string) error {
	update := bson.M{"$set": bson.M{"payment.balance": balance}}
	if removeCouponID != "" {
		update["$pull"] = bson.M{"couponIds": removeCouponID}
	}
	_, err := db.UsersCollection.UpdateOne(ctx, bson.M{"_id": clientID}, update)
	return err
}

func (m *Mongo) SetNotificationSeen(ctx context.Context, orderID string, seen bool) error {
	_, err := db.BookingsCollection.UpdateOne(ctx,
		bson.M{"_id": orderID},
		bson.M{"$set": bson.M{"newBookingNotificationReceived": seen}},
	)
	return err
}

func (m *Mongo) DistanceConfig(ctx context.Context) (*models.DistanceConfig, error) {
	var c models.DistanceConfig
	err := db.ConfigurationsCollection.FindOne(ctx, bson.M{"_id": models.DistanceConfigID}).Decode(&c)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (m *Mongo) BumpDistanceHits(ctx context.Context) error {
	_, err := db.ConfigurationsCollection.UpdateOne(ctx,
		bson.M{"_id": models.DistanceConfigID},
		bson.M{"$inc": bson.M{"hitCount": 1, "hitCountCreate": 1}},
	)
	return err
}

func (m *Mongo) RunTxn(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return db.WithTxn(ctx, func(sc context.Context) error {
		return fn(sc, mongoTx{})
	})
}

// mongoTx routes Tx calls through the session context carried in ctx.
type mongoTx struct{}

func (mongoTx) Counter(ctx context.Context) (int64, error) {
	var doc struct {
		Count int64 `bson:"count"`
	}
	err := db.BookingsCollection.FindOne(ctx, bson.M{"_id": db.CounterDocID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return doc.Count, nil
}

func (mongoTx) SetCounter(ctx context.Context, n int64) error {
	_, err := db.BookingsCollection.UpdateOne(ctx,
		bson.M{"_id": db.CounterDocID},
		bson.M{"$set": bson.M{"count": n}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (mongoTx) PutBooking(ctx context.Context, b *models.Booking) error {
	_, err := db.BookingsCollection.ReplaceOne(ctx, bson.M{"_id": b.OrderID}, b,
		options.Replace().SetUpsert(true))
	return err
}

func (mongoTx) UpdateBooking(ctx context.Context, b *models.Booking) error {
	res, err := db.BookingsCollection.ReplaceOne(ctx, bson.M{"_id": b.OrderID}, b)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (mongoTx) SnapshotRescheduled(ctx context.Context, b *models.Booking) error {
	_, err := db.RescheduledCollection.ReplaceOne(ctx, bson.M{"_id": b.OrderID}, b,
		options.Replace().SetUpsert(true))
	return err
}

func (mongoTx) Timing(ctx context.Context, partnerID, dateID string) (*models.PartnerTiming, error) {
	var t models.PartnerTiming
	err := db.PartnerTimingsCollection.FindOne(ctx, bson.M{"_id": models.TimingID(partnerID, dateID)}).Decode(&t)
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (mongoTx) PutTiming(ctx context.Context, t *models.PartnerTiming) error {
	_, err := db.PartnerTimingsCollection.ReplaceOne(ctx, bson.M{"_id": t.ID}, t,
		options.Replace().SetUpsert(true))
	return err
}

func (mongoTx) CreditInfo(ctx context.Context, partnerID string) (*models.CreditInfo, error) {
	var ci models.CreditInfo
	err := db.CreditInfoCollection.FindOne(ctx, bson.M{"_id": partnerID}).Decode(&ci)
	if err != nil {
		return nil, notFound(err)
	}
	return &ci, nil
}

func (mongoTx) PutCreditInfo(ctx context.Context, ci *models.CreditInfo) error {
	_, err := db.CreditInfoCollection.ReplaceOne(ctx, bson.M{"_id": ci.PartnerID}, ci,
		options.Replace().SetUpsert(true))
	return err
}

func (mongoTx) AppendCreditTransaction(ctx context.Context, ct *models.CreditTransaction) error {
	if ct.ID == "" {
		ct.ID = utils.GetUUID()
	}
	_, err := db.CreditTransactionsCollection.InsertOne(ctx, ct)
	return err
}

func (mongoTx) MissedLead(ctx context.Context, partnerID, orderID string) (*models.MissedLead, error) {
	var ml models.MissedLead
	err := db.MissedLeadsCollection.FindOne(ctx, bson.M{"_id": models.MissedLeadID(partnerID, orderID)}).Decode(&ml)
	if err != nil {
		return nil, notFound(err)
	}
	return &ml, nil
}

func (mongoTx) PutMissedLead(ctx context.Context, ml *models.MissedLead) error {
	_, err := db.MissedLeadsCollection.ReplaceOne(ctx, bson.M{"_id": ml.ID}, ml,
		options.Replace().SetUpsert(true))
	return err
}

func (mongoTx) DeleteMissedLead(ctx context.Context, partnerID, orderID string) error {
	_, err := db.MissedLeadsCollection.DeleteOne(ctx, bson.M{"_id": models.MissedLeadID(partnerID, orderID)})
	return err
}

func (mongoTx) BookingLog(ctx context.Context, partnerID string) (*models.BookingLog, error) {
	var bl models.BookingLog
	err := db.BookingLogsCollection.FindOne(ctx, bson.M{"_id": partnerID}).Decode(&bl)
	if err != nil {
		return nil, notFound(err)
	}
	return &bl, nil
}

func (mongoTx) PutBookingLog(ctx context.Context, bl *models.BookingLog) error {
	_, err := db.BookingLogsCollection.ReplaceOne(ctx, bson.M{"_id": bl.PartnerID}, bl,
		options.Replace().SetUpsert(true))
	return err
}
