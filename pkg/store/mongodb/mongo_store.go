package mongodb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/variety-jones/cptracker/pkg/models"
	"github.com/variety-jones/cptracker/pkg/store"
)

const (
	kUsersCollectionName = "users"

	kUsernameKey  = "username"
	kTotalKey     = "total"
	kEasyKey      = "easy"
	kMediumKey    = "medium"
	kHardKey      = "hard"
	kQuestionsKey = "questions"
)

// userDocument is the persisted shape of a models.UserRecord.
type userDocument struct {
	ID        string   `bson:"_id"`
	Username  string   `bson:"username"`
	Total     int      `bson:"total"`
	Easy      int      `bson:"easy"`
	Medium    int      `bson:"medium"`
	Hard      int      `bson:"hard"`
	Questions []string `bson:"questions"`
}

func toDocument(u models.UserRecord) userDocument {
	return userDocument{
		ID:        u.ID,
		Username:  u.Username,
		Total:     u.Total,
		Easy:      u.Easy,
		Medium:    u.Medium,
		Hard:      u.Hard,
		Questions: u.Questions.Sorted(),
	}
}

func (doc userDocument) record() models.UserRecord {
	return models.UserRecord{
		ID:        doc.ID,
		Username:  doc.Username,
		Total:     doc.Total,
		Easy:      doc.Easy,
		Medium:    doc.Medium,
		Hard:      doc.Hard,
		Questions: models.NewQuestionSet(doc.Questions...),
	}
}

// MongoStore is the MongoDB implementation of store.UserStore.
type MongoStore struct {
	mongoClient     *mongo.Client
	usersCollection *mongo.Collection
}

// FindByUsername looks up a single user by username.
func (ms *MongoStore) FindByUsername(ctx context.Context, username string) (
	models.UserRecord, error) {
	var doc userDocument
	err := ms.usersCollection.FindOne(ctx,
		bson.D{{kUsernameKey, username}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.UserRecord{}, errors.Wrapf(store.ErrNotFound,
			"username %q", username)
	}
	if err != nil {
		return models.UserRecord{}, fmt.Errorf("could not find user %s "+
			"with error [%w]", username, err)
	}
	return doc.record(), nil
}

// Insert persists a new user, assigning it a fresh id.
func (ms *MongoStore) Insert(ctx context.Context, user models.UserRecord) (
	models.UserRecord, error) {
	user.ID = uuid.NewString()
	zap.S().Infof("Inserting user %s with %d questions", user.Username,
		user.Questions.Len())

	if _, err := ms.usersCollection.InsertOne(ctx, toDocument(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.UserRecord{}, errors.Wrapf(store.ErrDuplicate,
				"username %q", user.Username)
		}
		zap.S().Debugf("user: %+v", user)
		return models.UserRecord{}, fmt.Errorf("insert of user %s failed "+
			"with error [%w]", user.Username, err)
	}
	return user, nil
}

// UpdateByID overwrites the counts and adds every question to the stored
// set with $addToSet, so concurrent refreshes of the same user cannot drop
// each other's titles.
func (ms *MongoStore) UpdateByID(ctx context.Context, id string,
	update store.UserUpdate) error {
	change := bson.D{
		{"$set", bson.D{
			{kTotalKey, update.Total},
			{kEasyKey, update.Easy},
			{kMediumKey, update.Medium},
			{kHardKey, update.Hard},
		}},
		{"$addToSet", bson.D{
			{kQuestionsKey, bson.D{{"$each", update.Questions.Sorted()}}},
		}},
	}

	res, err := ms.usersCollection.UpdateByID(ctx, id, change)
	if err != nil {
		zap.S().Debugf("update for %s: %+v", id, change)
		return fmt.Errorf("update of user %s failed with error [%w]", id, err)
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(store.ErrNotFound, "id %q", id)
	}
	return nil
}

// DeleteByUsername removes the user. Deleting an absent user is not an error.
func (ms *MongoStore) DeleteByUsername(ctx context.Context, username string) error {
	res, err := ms.usersCollection.DeleteOne(ctx, bson.D{{kUsernameKey, username}})
	if err != nil {
		return fmt.Errorf("delete of user %s failed with error [%w]",
			username, err)
	}
	zap.S().Infof("Deleted %d document(s) for user %s", res.DeletedCount,
		username)
	return nil
}

// ListAll returns every user in the requested order.
func (ms *MongoStore) ListAll(ctx context.Context, order store.Sort) (
	[]models.UserRecord, error) {
	cursor, err := ms.usersCollection.Find(ctx, bson.D{},
		options.Find().SetSort(sortDocument(order)))
	if err != nil {
		return nil, fmt.Errorf("could not list users with error [%w]", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("could not decode users with error [%w]", err)
	}

	users := make([]models.UserRecord, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.record())
	}
	zap.S().Debugf("Retrieved a batch of %d users", len(users))
	return users, nil
}

// Close disconnects the underlying client.
func (ms *MongoStore) Close(ctx context.Context) error {
	return ms.mongoClient.Disconnect(ctx)
}

func sortDocument(order store.Sort) bson.D {
	dir := 1
	if order.Direction == store.Descending {
		dir = -1
	}
	if order.Field == store.FieldUsername {
		return bson.D{{kUsernameKey, dir}}
	}
	return bson.D{{string(order.Field), dir}, {kUsernameKey, 1}}
}

// NewMongoStore connects to MongoDB and makes sure the username index exists.
func NewMongoStore(ctx context.Context, mongoURI, databaseName string) (
	*MongoStore, error) {
	zap.S().Infof("Attempting to create a new mongo store. databaseName = %s",
		databaseName)

	// Create a new client and connect to the server
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, fmt.Errorf("could not create mongo client with error [%w]",
			err)
	}

	// Ping the primary
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("could not ping primary with error [%w]", err)
	}

	ms := new(MongoStore)
	ms.mongoClient = client
	ms.usersCollection = client.Database(databaseName).
		Collection(kUsersCollectionName)

	index := mongo.IndexModel{
		Keys:    bson.D{{kUsernameKey, 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := ms.usersCollection.Indexes().CreateOne(ctx, index); err != nil {
		return nil, fmt.Errorf("could not create username index "+
			"with error [%w]", err)
	}

	return ms, nil
}

var _ store.UserStore = (*MongoStore)(nil)
