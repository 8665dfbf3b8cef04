package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"doorlist/entity"
	"doorlist/internal/config"
)

const (
	collectionUsers       = "users"
	collectionLocks       = "registration_locks"
	collectionSubmissions = "submissions"
)

type MongoDB struct {
	ctx           context.Context
	clientOptions *options.ClientOptions
	database      string
}

func NewMongoClient(conf *config.Config) *MongoDB {
	if !conf.Mongo.Enabled {
		return nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client := &MongoDB{
		ctx:           context.Background(),
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
	}
	return client
}

func (m *MongoDB) connect() (*mongo.Client, error) {
	connection, err := mongo.Connect(m.ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	return connection, nil
}

func (m *MongoDB) disconnect(connection *mongo.Client) {
	_ = connection.Disconnect(m.ctx)
}

func (m *MongoDB) GetUser(token string) (*entity.User, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionUsers)
	filter := bson.D{{Key: "token", Value: token}}
	var user entity.User
	err = collection.FindOne(m.ctx, filter).Decode(&user)
	return &user, err
}

func (m *MongoDB) GetTelegramUsers() ([]*entity.User, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionUsers)
	filter := bson.D{{Key: "telegram_id", Value: bson.D{{Key: "$gt", Value: 0}}}, {Key: "telegram_enabled", Value: true}}
	cursor, err := collection.Find(m.ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(m.ctx)

	var users []*entity.User
	err = cursor.All(m.ctx, &users)
	if err != nil {
		return nil, err
	}
	return users, nil
}

type lockDoc struct {
	Key       string    `bson:"_id"`
	Lease     string    `bson:"lease"`
	CreatedAt time.Time `bson:"created_at"`
}

// lockTTL bounds how long a stale lock can block registrations when a
// holder dies before releasing.
const lockTTL = 30 * time.Second

// AcquireLock takes the advisory registration lock for one dedup key.
// Returns a lease id to release with, or an error when the lock is
// held. Best-effort only: it narrows the read-then-append window, it
// does not make it atomic.
func (m *MongoDB) AcquireLock(key string) (string, error) {
	connection, err := m.connect()
	if err != nil {
		return "", err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionLocks)
	lease := uuid.New().String()
	_, err = collection.InsertOne(m.ctx, lockDoc{
		Key:       key,
		Lease:     lease,
		CreatedAt: time.Now(),
	})
	if err == nil {
		return lease, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return "", fmt.Errorf("insert lock: %w", err)
	}

	// held; steal it if the previous holder's lease expired
	filter := bson.D{
		{Key: "_id", Value: key},
		{Key: "created_at", Value: bson.D{{Key: "$lt", Value: time.Now().Add(-lockTTL)}}},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "lease", Value: lease},
		{Key: "created_at", Value: time.Now()},
	}}}
	res, err := collection.UpdateOne(m.ctx, filter, update)
	if err != nil {
		return "", fmt.Errorf("steal lock: %w", err)
	}
	if res.ModifiedCount == 0 {
		return "", errors.New("registration lock held")
	}
	return lease, nil
}

// ReleaseLock frees the lock if the lease still belongs to the caller.
func (m *MongoDB) ReleaseLock(key, lease string) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionLocks)
	_, err = collection.DeleteOne(m.ctx, bson.D{{Key: "_id", Value: key}, {Key: "lease", Value: lease}})
	return err
}

// SaveSubmission mirrors a registration for operator queries. Failures
// here never affect the registration itself.
func (m *MongoDB) SaveSubmission(rec *entity.Registration) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionSubmissions)
	_, err = collection.InsertOne(m.ctx, rec)
	return err
}
