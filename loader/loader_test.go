package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/rushteam/storyrec/core"
)

func TestNormalizeDoc(t *testing.T) {
	oid := bson.NewObjectID()
	when := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	row := normalizeDoc(bson.M{
		"_id":       oid,
		"story_id":  int32(7),
		"tags":      bson.A{"dragon", "brave"},
		"read_date": bson.NewDateTimeFromTime(when),
		"meta":      bson.D{{Key: "source", Value: "ocr"}},
	})

	assert.Equal(t, oid.Hex(), row["_id"])
	assert.Equal(t, int32(7), row["story_id"])
	assert.Equal(t, []any{"dragon", "brave"}, row["tags"])
	assert.True(t, when.Equal(row["read_date"].(time.Time)))
	assert.Equal(t, core.Row{"source": "ocr"}, row["meta"])
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "snap.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{
		"stories": [{"story_id": "s1", "genre": "Adventure", "views": 3}],
		"users": [{"user_id": "u1"}],
		"history": [{"user_id": "u1", "story_id": "s1", "liked": true}]
	}`), 0o644))

	snap, err := NewFileLoader(jsonPath).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Stories, 1)
	assert.Equal(t, "s1", snap.Stories[0]["story_id"])
	assert.Equal(t, 3.0, snap.Stories[0]["views"])
	assert.Equal(t, true, snap.History[0]["liked"])

	yamlPath := filepath.Join(dir, "snap.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
stories:
  - story_id: s1
    genre: Adventure|Friendship
users:
  - user_id: u1
history: []
`), 0o644))
	snap, err = NewFileLoader(yamlPath).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Adventure|Friendship", snap.Stories[0]["genre"])
	assert.Empty(t, snap.History)
}

func TestFileLoader_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewFileLoader(filepath.Join(dir, "missing.json")).Load(context.Background())
	assert.True(t, core.IsUnavailable(err))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"stories": [`), 0o644))
	_, err = NewFileLoader(bad).Load(context.Background())
	assert.True(t, core.IsInvalidInput(err))

	txt := filepath.Join(dir, "snap.txt")
	require.NoError(t, os.WriteFile(txt, []byte(``), 0o644))
	_, err = NewFileLoader(txt).Load(context.Background())
	assert.True(t, core.IsInvalidInput(err))
}

func TestFileLoader_ExampleSnapshot(t *testing.T) {
	snap, err := NewFileLoader("../configs/snapshot.example.yaml").Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Stories, 4)
	assert.Len(t, snap.Users, 2)
	assert.Len(t, snap.History, 3)
	assert.Equal(t, "s1", snap.Stories[0]["story_id"])
}

func TestNewMongoLoader_Unreachable(t *testing.T) {
	_, err := NewMongoLoader("not-a-mongo-uri", "storyrec")
	assert.True(t, core.IsInvalidInput(err))

	// 服务端不可达不影响创建，Ping 与 Load 返回 UNAVAILABLE
	l, err := NewMongoLoader("mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200&connectTimeoutMS=200", "storyrec")
	require.NoError(t, err)
	defer l.Close(context.Background())
	assert.Equal(t, "mongo", l.Name())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.True(t, core.IsUnavailable(l.Ping(ctx)))

	_, err = l.Load(ctx)
	assert.True(t, core.IsUnavailable(err))
}
