package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/songs/internal/models"
	"github.com/desertthunder/songs/internal/shared"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoSongRepository implements [models.SongRepository] on a MongoDB collection.
type MongoSongRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoSongRepository creates a repository over database.collection using an already connected client.
func NewMongoSongRepository(client *mongo.Client, database, collection string) *MongoSongRepository {
	return &MongoSongRepository{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}
}

var withoutInternalID = bson.D{{Key: models.InternalIDField, Value: 0}}

// Replace drops the collection and inserts songs in order.
func (r *MongoSongRepository) Replace(ctx context.Context, songs []models.Song) error {
	if err := r.coll.Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop songs: %w", err)
	}

	if len(songs) == 0 {
		return nil
	}

	docs := lo.Map(songs, func(song models.Song, _ int) any {
		return songToBSON(song.Without(models.InternalIDField))
	})

	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert songs: %w", err)
	}

	return nil
}

// List returns every song without its internal identifier.
func (r *MongoSongRepository) List(ctx context.Context) ([]models.Song, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetProjection(withoutInternalID))
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer cur.Close(ctx)

	songs := []models.Song{}
	for cur.Next(ctx) {
		var raw bson.D
		if err := cur.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to decode song: %w", err)
		}

		song, err := songFromBSON(raw)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return songs, nil
}

// Find returns the first song whose id equals any of ids, without its internal identifier.
func (r *MongoSongRepository) Find(ctx context.Context, ids ...models.Value) (models.Song, error) {
	if len(ids) == 0 {
		return nil, shared.ErrSongNotFound
	}

	candidates := lo.Map(ids, func(id models.Value, _ int) any { return valueToBSON(id) })
	filter := bson.D{{Key: models.IDField, Value: bson.D{{Key: "$in", Value: bson.A(candidates)}}}}

	var raw bson.D
	err := r.coll.FindOne(ctx, filter, options.FindOne().SetProjection(withoutInternalID)).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, shared.ErrSongNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query song: %w", err)
	}

	return songFromBSON(raw)
}

// Exists reports whether a song with the given id is stored.
func (r *MongoSongRepository) Exists(ctx context.Context, id models.Value) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, idFilter(id), options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check song: %w", err)
	}
	return n > 0, nil
}

// Insert stores song and returns the hex form of the ObjectID MongoDB assigned to it.
func (r *MongoSongRepository) Insert(ctx context.Context, song models.Song) (string, error) {
	res, err := r.coll.InsertOne(ctx, songToBSON(song.Without(models.InternalIDField)))
	if err != nil {
		return "", fmt.Errorf("failed to insert song: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Sprint(res.InsertedID), nil
	}
	return oid.Hex(), nil
}

// Update applies patch with $set and returns the stored document, internal identifier included.
func (r *MongoSongRepository) Update(ctx context.Context, id models.Value, patch models.Song) (models.Song, error) {
	patch = patch.Without(models.InternalIDField)
	filter := idFilter(id)

	if len(patch) == 0 {
		exists, err := r.Exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, shared.ErrSongNotFound
		}
		return nil, shared.ErrNotModified
	}

	res, err := r.coll.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: songToBSON(patch)}})
	if err != nil {
		return nil, fmt.Errorf("failed to update song: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, shared.ErrSongNotFound
	}
	if res.ModifiedCount == 0 {
		return nil, shared.ErrNotModified
	}

	var raw bson.D
	if err := r.coll.FindOne(ctx, filter).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to reload song: %w", err)
	}

	return songFromBSON(raw)
}

// Delete removes one song with the given id.
func (r *MongoSongRepository) Delete(ctx context.Context, id models.Value) error {
	res, err := r.coll.DeleteOne(ctx, idFilter(id))
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}
	if res.DeletedCount == 0 {
		return shared.ErrSongNotFound
	}
	return nil
}

func (r *MongoSongRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

func (r *MongoSongRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func idFilter(id models.Value) bson.D {
	return bson.D{{Key: models.IDField, Value: valueToBSON(id)}}
}

// songToBSON converts a song into a BSON document with fields in sorted order.
func songToBSON(song models.Song) bson.D {
	doc := make(bson.D, 0, len(song))
	for _, k := range song.Fields() {
		doc = append(doc, bson.E{Key: k, Value: valueToBSON(song[k])})
	}
	return doc
}

// songFromBSON converts a decoded BSON document into a song. An ObjectID becomes {"$oid": "..."}.
func songFromBSON(doc bson.D) (models.Song, error) {
	song := make(models.Song, len(doc))
	for _, e := range doc {
		v, err := valueFromBSON(e.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", e.Key, err)
		}
		song[e.Key] = v
	}
	return song, nil
}

func valueToBSON(v models.Value) any {
	switch v.Kind() {
	case models.KindBool:
		b, _ := v.AsBool()
		return b
	case models.KindNumber:
		n, _ := v.AsNumber()
		if i, err := n.Int64(); err == nil {
			return i
		}
		f, _ := v.AsFloat()
		return f
	case models.KindString:
		s, _ := v.AsString()
		return s
	case models.KindArray:
		items, _ := v.AsArray()
		return bson.A(lo.Map(items, func(item models.Value, _ int) any { return valueToBSON(item) }))
	case models.KindObject:
		if hex, ok := models.InternalIDHex(v); ok {
			if oid, err := primitive.ObjectIDFromHex(hex); err == nil {
				return oid
			}
		}
		fields, _ := v.AsObject()
		return songToBSON(models.Song(fields))
	default:
		return nil
	}
}

func valueFromBSON(x any) (models.Value, error) {
	switch t := x.(type) {
	case nil, primitive.Null, primitive.Undefined:
		return models.Null(), nil
	case bool:
		return models.Bool(t), nil
	case int32:
		return models.Int(int64(t)), nil
	case int64:
		return models.Int(t), nil
	case int:
		return models.Int(int64(t)), nil
	case float64:
		return models.Float(t), nil
	case string:
		return models.String(t), nil
	case primitive.ObjectID:
		return models.InternalID(t.Hex()), nil
	case primitive.DateTime:
		return models.String(t.Time().UTC().Format(time.RFC3339Nano)), nil
	case primitive.Decimal128:
		return models.Number(json.Number(t.String())), nil
	case primitive.D:
		song, err := songFromBSON(t)
		if err != nil {
			return models.Null(), err
		}
		return models.Object(song), nil
	case primitive.M:
		return objectFromMap(t)
	case map[string]any:
		return objectFromMap(t)
	case primitive.A:
		return arrayFromSlice(t)
	case []any:
		return arrayFromSlice(t)
	default:
		return models.Null(), fmt.Errorf("unsupported BSON type %T", x)
	}
}

func objectFromMap(m map[string]any) (models.Value, error) {
	fields := make(map[string]models.Value, len(m))
	for k, item := range m {
		v, err := valueFromBSON(item)
		if err != nil {
			return models.Null(), fmt.Errorf("field %q: %w", k, err)
		}
		fields[k] = v
	}
	return models.Object(fields), nil
}

func arrayFromSlice(s []any) (models.Value, error) {
	items := make([]models.Value, 0, len(s))
	for _, item := range s {
		v, err := valueFromBSON(item)
		if err != nil {
			return models.Null(), err
		}
		items = append(items, v)
	}
	return models.Array(items...), nil
}
