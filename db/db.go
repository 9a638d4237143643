package db

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	BookingsCollection           *mongo.Collection
	RescheduledCollection        *mongo.Collection
	PartnersCollection           *mongo.Collection
	PartnerTimingsCollection     *mongo.Collection
	PartnerLeavesCollection      *mongo.Collection
	MissedLeadsCollection        *mongo.Collection
	BookingLogsCollection        *mongo.Collection
	CreditInfoCollection         *mongo.Collection
	CreditTransactionsCollection *mongo.Collection
	UsersCollection              *mongo.Collection
	ConfigurationsCollection     *mongo.Collection
	Client                       *mongo.Client
)

// CounterDocID is the singleton counter document inside the bookings
// collection; it carries only the last issued sequential booking id.
const CounterDocID = "COUNTS"

// Initialize MongoDB connection
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	clientOptions := options.Client().ApplyURI(uri)
	var err error
	Client, err = mongo.Connect(context.TODO(), clientOptions)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	database := Client.Database("bookingdb")
	BookingsCollection = database.Collection("bookings")
	RescheduledCollection = database.Collection("rescheduledBookings")
	PartnersCollection = database.Collection("partners")
	PartnerTimingsCollection = database.Collection("partnerTimings")
	PartnerLeavesCollection = database.Collection("partnerLeaves")
	MissedLeadsCollection = database.Collection("missedLeads")
	BookingLogsCollection = database.Collection("bookingLogs")
	CreditInfoCollection = database.Collection("creditInfo")
	CreditTransactionsCollection = database.Collection("creditTransactions")
	UsersCollection = database.Collection("users")
	ConfigurationsCollection = database.Collection("configurations")
}

// WithTxn runs fn inside one multi-document transaction. The driver may
// re-run fn on transient write conflicts, so fn must keep its read and
// compute phases free of out-of-band side effects.
func WithTxn(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := Client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}
