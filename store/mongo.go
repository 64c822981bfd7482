package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"commons/models"
)

// Mongo is the production Store, backed by one database with a collection
// per entity kind. Multi-record atomic units run inside a session
// transaction, so they need a replica-set or sharded deployment.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongo(client *mongo.Client, db *mongo.Database) *Mongo {
	return &Mongo{client: client, db: db}
}

func (m *Mongo) coll(kind Kind) *mongo.Collection {
	return m.db.Collection(string(kind))
}

func (m *Mongo) findOne(ctx context.Context, kind Kind, filter bson.M, out interface{}) error {
	err := m.coll(kind).FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return wrapMongoErr(err)
}

func (m *Mongo) InsertAccount(ctx context.Context, account *models.Account) error {
	_, err := m.coll(KindAccount).InsertOne(ctx, account)
	return wrapMongoErr(err)
}

func (m *Mongo) Account(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	var account models.Account
	if err := m.findOne(ctx, KindAccount, bson.M{"_id": id}, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (m *Mongo) AccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	var account models.Account
	filter := bson.M{"username": caseExact(username)}
	if err := m.findOne(ctx, KindAccount, filter, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (m *Mongo) InsertProfile(ctx context.Context, profile *models.Profile) error {
	_, err := m.coll(KindProfile).InsertOne(ctx, profile)
	return wrapMongoErr(err)
}

func (m *Mongo) Profile(ctx context.Context, id primitive.ObjectID) (*models.Profile, error) {
	var profile models.Profile
	if err := m.findOne(ctx, KindProfile, bson.M{"_id": id}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (m *Mongo) ProfileByAccount(ctx context.Context, accountID primitive.ObjectID) (*models.Profile, error) {
	var profile models.Profile
	if err := m.findOne(ctx, KindProfile, bson.M{"account": accountID}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (m *Mongo) UpdateProfile(ctx context.Context, id primitive.ObjectID, update ProfileUpdate) error {
	set := bson.M{}
	if update.FirstName != nil {
		set["firstName"] = *update.FirstName
	}
	if update.LastName != nil {
		set["lastName"] = *update.LastName
	}
	if update.Biography != nil {
		set["biography"] = *update.Biography
	}
	if update.ProfileImg != nil {
		set["profileImg"] = *update.ProfileImg
	}
	if len(set) == 0 {
		return nil
	}
	res, err := m.coll(KindProfile).UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return wrapMongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) InsertCommunity(ctx context.Context, community *models.Community) error {
	_, err := m.coll(KindCommunity).InsertOne(ctx, community)
	return wrapMongoErr(err)
}

func (m *Mongo) Community(ctx context.Context, id primitive.ObjectID) (*models.Community, error) {
	var community models.Community
	if err := m.findOne(ctx, KindCommunity, bson.M{"_id": id}, &community); err != nil {
		return nil, err
	}
	return &community, nil
}

func (m *Mongo) CommunityByName(ctx context.Context, name string) (*models.Community, error) {
	var community models.Community
	filter := bson.M{"name": caseExact(name)}
	if err := m.findOne(ctx, KindCommunity, filter, &community); err != nil {
		return nil, err
	}
	return &community, nil
}

func (m *Mongo) DeleteCommunity(ctx context.Context, id primitive.ObjectID) error {
	return m.deleteByID(ctx, KindCommunity, id)
}

func (m *Mongo) PopularCommunities(ctx context.Context, skip, limit int) ([]models.Community, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$addFields", Value: bson.D{{Key: "followerCount", Value: bson.D{{Key: "$size", Value: "$followers"}}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "followerCount", Value: -1}, {Key: "created", Value: 1}}}},
		{{Key: "$skip", Value: skip}},
		{{Key: "$limit", Value: limit}},
	}
	cursor, err := m.coll(KindCommunity).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapMongoErr(err)
	}
	defer cursor.Close(ctx)

	var communities []models.Community
	if err := cursor.All(ctx, &communities); err != nil {
		return nil, wrapMongoErr(err)
	}
	return communities, nil
}

func (m *Mongo) InsertPost(ctx context.Context, post *models.Post) error {
	_, err := m.coll(KindPost).InsertOne(ctx, post)
	return wrapMongoErr(err)
}

func (m *Mongo) Post(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	if err := m.findOne(ctx, KindPost, bson.M{"_id": id}, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (m *Mongo) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	return m.deleteByID(ctx, KindPost, id)
}

func (m *Mongo) InsertComment(ctx context.Context, comment *models.Comment) error {
	_, err := m.coll(KindComment).InsertOne(ctx, comment)
	return wrapMongoErr(err)
}

func (m *Mongo) Comment(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var comment models.Comment
	if err := m.findOne(ctx, KindComment, bson.M{"_id": id}, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (m *Mongo) CommentsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Comment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := m.coll(KindComment).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, wrapMongoErr(err)
	}
	defer cursor.Close(ctx)

	var comments []models.Comment
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, wrapMongoErr(err)
	}
	return comments, nil
}

func (m *Mongo) DeleteComment(ctx context.Context, id primitive.ObjectID) error {
	return m.deleteByID(ctx, KindComment, id)
}

func (m *Mongo) AddToSet(ctx context.Context, kind Kind, id primitive.ObjectID, field Field, member primitive.ObjectID) error {
	update := bson.M{"$addToSet": bson.M{string(field): member}}
	return m.updateByID(ctx, kind, id, update)
}

func (m *Mongo) Pull(ctx context.Context, kind Kind, id primitive.ObjectID, field Field, member primitive.ObjectID) error {
	update := bson.M{"$pull": bson.M{string(field): member}}
	return m.updateByID(ctx, kind, id, update)
}

func (m *Mongo) Search(ctx context.Context, query string, limit int) (*SearchResults, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	results := &SearchResults{}

	findLimit := options.Find().SetLimit(int64(limit))

	cursor, err := m.coll(KindCommunity).Find(ctx, bson.M{"$or": bson.A{
		bson.M{"name": pattern},
		bson.M{"description": pattern},
		bson.M{"tags": pattern},
	}}, findLimit)
	if err != nil {
		return nil, wrapMongoErr(err)
	}
	if err := cursor.All(ctx, &results.Communities); err != nil {
		return nil, wrapMongoErr(err)
	}

	cursor, err = m.coll(KindPost).Find(ctx, bson.M{"$or": bson.A{
		bson.M{"title": pattern},
		bson.M{"body": pattern},
	}}, findLimit)
	if err != nil {
		return nil, wrapMongoErr(err)
	}
	if err := cursor.All(ctx, &results.Posts); err != nil {
		return nil, wrapMongoErr(err)
	}

	cursor, err = m.coll(KindComment).Find(ctx, bson.M{"body": pattern}, findLimit)
	if err != nil {
		return nil, wrapMongoErr(err)
	}
	if err := cursor.All(ctx, &results.Comments); err != nil {
		return nil, wrapMongoErr(err)
	}

	return results, nil
}

// Atomic runs fn inside a Mongo session transaction. The driver already
// retries units aborted with a transient label; anything that still comes
// back labeled as a conflict is surfaced as ErrConflictingWrite.
func (m *Mongo) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := m.client.StartSession()
	if err != nil {
		return wrapMongoErr(err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return wrapMongoErr(err)
}

func (m *Mongo) deleteByID(ctx context.Context, kind Kind, id primitive.ObjectID) error {
	res, err := m.coll(kind).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrapMongoErr(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) updateByID(ctx context.Context, kind Kind, id primitive.ObjectID, update bson.M) error {
	res, err := m.coll(kind).UpdateByID(ctx, id, update)
	if err != nil {
		return wrapMongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// caseExact builds the anchored case-insensitive match used for usernames
// and community names.
func caseExact(value string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(value) + "$", Options: "i"}
}

func wrapMongoErr(err error) error {
	if err == nil {
		return nil
	}
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		if serverErr.HasErrorLabel("TransientTransactionError") || serverErr.HasErrorLabel("UnknownTransactionCommitResult") {
			return fmt.Errorf("%w: %v", ErrConflictingWrite, err)
		}
	}
	return err
}
