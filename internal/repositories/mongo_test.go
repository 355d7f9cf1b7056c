package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/songs/internal/models"
	"github.com/desertthunder/songs/internal/shared"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestSongToBSON(t *testing.T) {
	song := models.Song{
		"title": models.String("Song"),
		"id":    models.Int(7),
		"bpm":   models.Float(120.5),
		"tags":  models.Array(models.String("a"), models.Null()),
		"meta":  models.Object(map[string]models.Value{"live": models.Bool(true)}),
	}

	doc := songToBSON(song)

	wantKeys := []string{"bpm", "id", "meta", "tags", "title"}
	if len(doc) != len(wantKeys) {
		t.Fatalf("expected %d fields, got %d", len(wantKeys), len(doc))
	}
	for i, k := range wantKeys {
		if doc[i].Key != k {
			t.Errorf("field %d: expected %s, got %s", i, k, doc[i].Key)
		}
	}

	if id, ok := doc[1].Value.(int64); !ok || id != 7 {
		t.Errorf("expected int64 id 7, got %#v", doc[1].Value)
	}
	if bpm, ok := doc[0].Value.(float64); !ok || bpm != 120.5 {
		t.Errorf("expected float64 bpm, got %#v", doc[0].Value)
	}
	if tags, ok := doc[3].Value.(bson.A); !ok || len(tags) != 2 || tags[1] != nil {
		t.Errorf("expected bson.A tags with nil, got %#v", doc[3].Value)
	}
	if meta, ok := doc[2].Value.(bson.D); !ok || meta[0].Key != "live" {
		t.Errorf("expected nested bson.D, got %#v", doc[2].Value)
	}

	if _, err := bson.Marshal(doc); err != nil {
		t.Errorf("converted document should marshal: %v", err)
	}
}

func TestSongFromBSON(t *testing.T) {
	oid := primitive.NewObjectID()
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	doc := bson.D{
		{Key: "_id", Value: oid},
		{Key: "id", Value: int32(5)},
		{Key: "plays", Value: int64(1 << 40)},
		{Key: "rating", Value: 4.5},
		{Key: "explicit", Value: false},
		{Key: "released", Value: primitive.NewDateTimeFromTime(when)},
		{Key: "artists", Value: primitive.A{"x", bson.D{{Key: "name", Value: "y"}}}},
		{Key: "extra", Value: bson.M{"k": nil}},
	}

	song, err := songFromBSON(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if hex, ok := models.InternalIDHex(song["_id"]); !ok || hex != oid.Hex() {
		t.Errorf("expected _id %s, got %v", oid.Hex(), song["_id"])
	}
	if id, ok := song["id"].AsInt(); !ok || id != 5 {
		t.Errorf("expected id 5, got %v", song["id"])
	}
	if plays, _ := song["plays"].AsInt(); plays != 1<<40 {
		t.Errorf("expected plays 1<<40, got %v", song["plays"])
	}
	if released, _ := song["released"].AsString(); released != "2024-01-02T03:04:05Z" {
		t.Errorf("unexpected released %v", song["released"])
	}
	artists, _ := song["artists"].AsArray()
	if len(artists) != 2 || artists[1].Kind() != models.KindObject {
		t.Errorf("unexpected artists %v", song["artists"])
	}
	extra, _ := song["extra"].AsObject()
	if !extra["k"].IsNull() {
		t.Errorf("expected null k, got %v", extra["k"])
	}

	if _, err := songFromBSON(bson.D{{Key: "bad", Value: primitive.Regex{Pattern: "x"}}}); err == nil {
		t.Error("expected error for unsupported BSON type")
	}
}

func TestValueBSONRoundTrip(t *testing.T) {
	oid := primitive.NewObjectID()
	values := []models.Value{
		models.Null(),
		models.Bool(true),
		models.Int(-3),
		models.Float(0.25),
		models.String("hello"),
		models.Array(models.Int(1), models.String("two")),
		models.Object(map[string]models.Value{"a": models.Int(1)}),
		models.InternalID(oid.Hex()),
	}

	for _, v := range values {
		back, err := valueFromBSON(valueToBSON(v))
		if err != nil {
			t.Fatalf("round trip of %v failed: %v", v, err)
		}
		if !back.Equal(v) {
			t.Errorf("round trip changed %v into %v", v, back)
		}
	}

	if got, ok := valueToBSON(models.InternalID(oid.Hex())).(primitive.ObjectID); !ok || got != oid {
		t.Errorf("expected ObjectID, got %#v", valueToBSON(models.InternalID(oid.Hex())))
	}
}

func newMockRepository(mt *mtest.T) *MongoSongRepository {
	return NewMongoSongRepository(mt.Client, mt.DB.Name(), mt.Coll.Name())
}

func namespace(mt *mtest.T) string {
	return mt.DB.Name() + "." + mt.Coll.Name()
}

func startedCommands(mt *mtest.T) []string {
	names := []string{}
	for _, evt := range mt.GetAllStartedEvents() {
		names = append(names, evt.CommandName)
	}
	return names
}

// findCommand returns the find command sent to the server, after checking it projects out the internal id.
func findCommand(mt *mtest.T) bson.Raw {
	mt.Helper()

	evt := mt.GetStartedEvent()
	if evt == nil || evt.CommandName != "find" {
		mt.Fatalf("expected a find command, got %v", evt)
	}
	if v, ok := evt.Command.Lookup("projection", models.InternalIDField).AsInt64OK(); !ok || v != 0 {
		mt.Errorf("expected projection {_id: 0}, got %s", evt.Command.Lookup("projection"))
	}
	return evt.Command
}

func TestMongoSongRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	oid := primitive.NewObjectID()
	serverError := mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad value", Name: "BadValue"})

	mt.Run("Replace drops then inserts", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}),
		)

		songs := []models.Song{
			{"id": models.Int(1), models.InternalIDField: models.InternalID(oid.Hex())},
			{"id": models.Int(2)},
		}
		if err := newMockRepository(mt).Replace(ctx, songs); err != nil {
			mt.Fatalf("expected no error, got %v", err)
		}

		got := startedCommands(mt)
		if len(got) != 2 || got[0] != "drop" || got[1] != "insert" {
			mt.Errorf("expected drop then insert, got %v", got)
		}
	})

	mt.Run("Replace with no songs only drops", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		if err := newMockRepository(mt).Replace(ctx, nil); err != nil {
			mt.Fatalf("expected no error, got %v", err)
		}
		if got := startedCommands(mt); len(got) != 1 || got[0] != "drop" {
			mt.Errorf("expected only drop, got %v", got)
		}
	})

	mt.Run("Replace drop failure", func(mt *mtest.T) {
		mt.AddMockResponses(serverError)

		if err := newMockRepository(mt).Replace(ctx, []models.Song{{"id": models.Int(1)}}); err == nil {
			mt.Fatal("expected error")
		}
		if got := startedCommands(mt); len(got) != 1 {
			mt.Errorf("expected insert to be skipped, got %v", got)
		}
	})

	mt.Run("List", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{{Key: "id", Value: 1}, {Key: "title", Value: "One"}},
			bson.D{{Key: "id", Value: "two"}, {Key: "title", Value: "Two"}},
		))

		songs, err := newMockRepository(mt).List(ctx)
		if err != nil {
			mt.Fatalf("expected no error, got %v", err)
		}

		findCommand(mt)
		if len(songs) != 2 {
			mt.Fatalf("expected 2 songs, got %d", len(songs))
		}
		if !songs[0]["id"].Equal(models.Int(1)) || !songs[1]["id"].Equal(models.String("two")) {
			mt.Errorf("unexpected ids %v, %v", songs[0]["id"], songs[1]["id"])
		}
	})

	mt.Run("List empty collection", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		songs, err := newMockRepository(mt).List(ctx)
		if err != nil {
			mt.Fatalf("expected no error, got %v", err)
		}
		if songs == nil || len(songs) != 0 {
			mt.Errorf("expected empty non-nil slice, got %#v", songs)
		}
	})

	mt.Run("Find matches any candidate", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{{Key: "id", Value: 1}, {Key: "title", Value: "One"}},
		))

		song, err := newMockRepository(mt).Find(ctx, models.String("1"), models.Int(1))
		if err != nil {
			mt.Fatalf("expected no error, got %v", err)
		}

		cmd := findCommand(mt)

		candidates, err := cmd.Lookup("filter", models.IDField, "$in").Array().Values()
		if err != nil || len(candidates) != 2 {
			mt.Fatalf("expected two $in candidates, got %v (%v)", candidates, err)
		}
		if s, ok := candidates[0].StringValueOK(); !ok || s != "1" {
			mt.Errorf("expected string candidate \"1\", got %s", candidates[0])
		}
		if i, ok := candidates[1].AsInt64OK(); !ok || i != 1 {
			mt.Errorf("expected integer candidate 1, got %s", candidates[1])
		}

		if title, _ := song["title"].AsString(); title != "One" {
			mt.Errorf("expected title One, got %v", song["title"])
		}
		if _, ok := song[models.InternalIDField]; ok {
			mt.Error("expected internal id to be absent")
		}
	})

	mt.Run("Find no documents", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		if _, err := newMockRepository(mt).Find(ctx, models.Int(404)); !errors.Is(err, shared.ErrSongNotFound) {
			mt.Errorf("expected ErrSongNotFound, got %v", err)
		}
	})

	mt.Run("Find without candidates", func(mt *mtest.T) {
		if _, err := newMockRepository(mt).Find(ctx); !errors.Is(err, shared.ErrSongNotFound) {
			mt.Errorf("expected ErrSongNotFound, got %v", err)
		}
		if got := startedCommands(mt); len(got) != 0 {
			mt.Errorf("expected no commands, got %v", got)
		}
	})

	mt.Run("Find server error", func(mt *mtest.T) {
		mt.AddMockResponses(serverError)

		_, err := newMockRepository(mt).Find(ctx, models.Int(1))
		if err == nil || errors.Is(err, shared.ErrSongNotFound) {
			mt.Errorf("expected wrapped server error, got %v", err)
		}
	})

	mt.Run("Exists", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{{Key: "_id", Value: 1}, {Key: "n", Value: 1}}),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch),
		)
		repo := newMockRepository(mt)

		if ok, err := repo.Exists(ctx, models.Int(1)); err != nil || !ok {
			mt.Errorf("expected song to exist, got %v (%v)", ok, err)
		}
		if ok, err := repo.Exists(ctx, models.Int(2)); err != nil || ok {
			mt.Errorf("expected song to be missing, got %v (%v)", ok, err)
		}
	})

	mt.Run("Insert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		hex, err := newMockRepository(mt).Insert(ctx, models.Song{"id": models.Int(9)})
		if err != nil {
			mt.Fatalf("expected no error, got %v", err)
		}
		if _, err := primitive.ObjectIDFromHex(hex); err != nil {
			mt.Errorf("expected ObjectID hex, got %q", hex)
		}
	})

	updateTests := []struct {
		name      string
		patch     models.Song
		responses func(mt *mtest.T) []bson.D
		wantErr   error
		commands  []string
	}{
		{
			name:  "modified",
			patch: models.Song{"id": models.Int(1), "title": models.String("New")},
			responses: func(mt *mtest.T) []bson.D {
				return []bson.D{
					mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
					mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
						bson.D{{Key: "_id", Value: oid}, {Key: "id", Value: 1}, {Key: "title", Value: "New"}},
					),
				}
			},
			commands: []string{"update", "find"},
		},
		{
			name:  "not matched",
			patch: models.Song{"id": models.Int(404), "title": models.String("New")},
			responses: func(mt *mtest.T) []bson.D {
				return []bson.D{mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0})}
			},
			wantErr:  shared.ErrSongNotFound,
			commands: []string{"update"},
		},
		{
			name:  "matched but unchanged",
			patch: models.Song{"id": models.Int(1), "title": models.String("One")},
			responses: func(mt *mtest.T) []bson.D {
				return []bson.D{mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0})}
			},
			wantErr:  shared.ErrNotModified,
			commands: []string{"update"},
		},
		{
			name:  "empty patch on missing song",
			patch: models.Song{models.InternalIDField: models.InternalID(oid.Hex())},
			responses: func(mt *mtest.T) []bson.D {
				return []bson.D{mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch)}
			},
			wantErr:  shared.ErrSongNotFound,
			commands: []string{"aggregate"},
		},
		{
			name:  "empty patch on stored song",
			patch: models.Song{},
			responses: func(mt *mtest.T) []bson.D {
				return []bson.D{mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{{Key: "_id", Value: 1}, {Key: "n", Value: 1}})}
			},
			wantErr:  shared.ErrNotModified,
			commands: []string{"aggregate"},
		},
	}

	for _, tt := range updateTests {
		mt.Run("Update "+tt.name, func(mt *mtest.T) {
			mt.AddMockResponses(tt.responses(mt)...)

			song, err := newMockRepository(mt).Update(ctx, models.Int(1), tt.patch)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					mt.Errorf("expected %v, got %v", tt.wantErr, err)
				}
			} else if err != nil {
				mt.Fatalf("expected no error, got %v", err)
			} else {
				if !song[models.InternalIDField].Equal(models.InternalID(oid.Hex())) {
					mt.Errorf("expected internal id %s, got %v", oid.Hex(), song[models.InternalIDField])
				}
				if title, _ := song["title"].AsString(); title != "New" {
					mt.Errorf("expected reloaded title New, got %v", song["title"])
				}
			}

			got := startedCommands(mt)
			if len(got) != len(tt.commands) {
				mt.Fatalf("expected commands %v, got %v", tt.commands, got)
			}
			for i := range got {
				if got[i] != tt.commands[i] {
					mt.Errorf("expected commands %v, got %v", tt.commands, got)
				}
			}
		})
	}

	deleteTests := []struct {
		name     string
		response bson.D
		wantErr  error
	}{
		{name: "deleted", response: mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1})},
		{name: "nothing deleted", response: mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}), wantErr: shared.ErrSongNotFound},
	}

	for _, tt := range deleteTests {
		mt.Run("Delete "+tt.name, func(mt *mtest.T) {
			mt.AddMockResponses(tt.response)

			err := newMockRepository(mt).Delete(ctx, models.Int(1))
			if !errors.Is(err, tt.wantErr) {
				mt.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	mt.Run("Delete server error", func(mt *mtest.T) {
		mt.AddMockResponses(serverError)

		err := newMockRepository(mt).Delete(ctx, models.Int(1))
		if err == nil || errors.Is(err, shared.ErrSongNotFound) {
			mt.Errorf("expected wrapped server error, got %v", err)
		}
	})
}
