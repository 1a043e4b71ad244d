package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/romusha/forumauth/modules/auth"
)

const accountsCollection = "accounts"

// Mongo is an auth.Repository backed by a MongoDB collection. Email
// uniqueness is enforced by a unique index, so concurrent registrations
// race safely at the database level.
type Mongo struct {
	coll *mongo.Collection
}

// NewMongo connects to MongoDB and prepares the accounts collection.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	coll := client.Database(database).Collection(accountsCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create email index: %w", err)
	}

	return &Mongo{coll: coll}, nil
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.coll.Database().Client().Disconnect(ctx)
}

// accountDoc is the BSON shape of an account. IDs are stored as their
// canonical string form so documents stay readable in the shell.
type accountDoc struct {
	ID             string      `bson:"_id"`
	Username       string      `bson:"username"`
	Email          string      `bson:"email"`
	PasswordHash   string      `bson:"password_hash"`
	TOTPSecret     string      `bson:"totp_secret"`
	ParaphraseHash string      `bson:"paraphrase_hash"`
	ParaphraseSalt string      `bson:"paraphrase_salt"`
	PublicKey      string      `bson:"public_key"`
	TrustedDevices []deviceDoc `bson:"trusted_devices"`
	Bookmarks      []string    `bson:"bookmarks"`
	Balance        int64       `bson:"balance"`
	CreatedAt      time.Time   `bson:"created_at"`
}

type deviceDoc struct {
	Fingerprint string    `bson:"fingerprint"`
	Salt        string    `bson:"salt"`
	UserAgent   string    `bson:"user_agent"`
	Screen      string    `bson:"screen"`
	BoundAt     time.Time `bson:"bound_at"`
}

func toDoc(a *auth.Account) accountDoc {
	devices := make([]deviceDoc, 0, len(a.TrustedDevices))
	for _, d := range a.TrustedDevices {
		devices = append(devices, deviceDoc(d))
	}
	return accountDoc{
		ID:             a.ID.String(),
		Username:       a.Username,
		Email:          strings.ToLower(a.Email),
		PasswordHash:   a.PasswordHash,
		TOTPSecret:     a.TOTPSecret,
		ParaphraseHash: a.ParaphraseHash,
		ParaphraseSalt: a.ParaphraseSalt,
		PublicKey:      a.PublicKey,
		TrustedDevices: devices,
		Bookmarks:      a.Bookmarks,
		Balance:        a.Balance,
		CreatedAt:      a.CreatedAt,
	}
}

func (d accountDoc) toAccount() (auth.Account, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return auth.Account{}, fmt.Errorf("failed to parse account id %q: %w", d.ID, err)
	}
	devices := make([]auth.TrustedDevice, 0, len(d.TrustedDevices))
	for _, dev := range d.TrustedDevices {
		devices = append(devices, auth.TrustedDevice(dev))
	}
	return auth.Account{
		ID:             id,
		Username:       d.Username,
		Email:          d.Email,
		PasswordHash:   d.PasswordHash,
		TOTPSecret:     d.TOTPSecret,
		ParaphraseHash: d.ParaphraseHash,
		ParaphraseSalt: d.ParaphraseSalt,
		PublicKey:      d.PublicKey,
		TrustedDevices: devices,
		Bookmarks:      d.Bookmarks,
		Balance:        d.Balance,
		CreatedAt:      d.CreatedAt,
	}, nil
}

func (m *Mongo) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	return m.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (m *Mongo) FindByID(ctx context.Context, id uuid.UUID) (*auth.Account, error) {
	return m.findOne(ctx, bson.M{"_id": id.String()})
}

func (m *Mongo) findOne(ctx context.Context, filter bson.M) (*auth.Account, error) {
	var doc accountDoc
	err := m.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, auth.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	account, err := doc.toAccount()
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (m *Mongo) Create(ctx context.Context, account *auth.Account) error {
	_, err := m.coll.InsertOne(ctx, toDoc(account))
	if mongo.IsDuplicateKeyError(err) {
		return auth.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (m *Mongo) Update(ctx context.Context, account *auth.Account) error {
	result, err := m.coll.ReplaceOne(ctx, bson.M{"_id": account.ID.String()}, toDoc(account))
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if result.MatchedCount == 0 {
		return auth.ErrAccountNotFound
	}
	return nil
}

func (m *Mongo) List(ctx context.Context) ([]auth.Account, error) {
	cursor, err := m.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer cursor.Close(ctx)

	var accounts []auth.Account
	for cursor.Next(ctx) {
		var doc accountDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode account: %w", err)
		}
		account, err := doc.toAccount()
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return accounts, nil
}
