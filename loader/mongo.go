package loader

import (
	"context"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/rushteam/storyrec/core"
)

// Collections 是三张表对应的集合名
type Collections struct {
	Stories string
	Users   string
	History string
}

// DefaultCollections 与线上库一致：Story / User / History
var DefaultCollections = Collections{Stories: "Story", Users: "User", History: "History"}

// MongoLoader 从 MongoDB 读取快照。文档被转换成 map[string]any 行，
// ObjectID 转为 hex 字符串，DateTime 转为 time.Time。
type MongoLoader struct {
	client      *mongo.Client
	database    string
	collections Collections
}

// MongoOption 配置 MongoLoader
type MongoOption func(*MongoLoader)

// WithCollections 覆盖默认集合名
func WithCollections(c Collections) MongoOption {
	return func(l *MongoLoader) { l.collections = c }
}

// NewMongoLoader 创建 MongoDB 客户端，调用方负责 Close。
// 驱动按需建立连接，这里只校验 URI，不访问服务端：库暂时不可达时服务照常启动，
// 由 Holder 的定时重建或 /admin/reload 在恢复后加载快照。URI 非法返回 INVALID_INPUT。
func NewMongoLoader(uri, database string, opts ...MongoOption) (*MongoLoader, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opt := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)
	client, err := mongo.Connect(opt)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleLoader, core.ErrorCodeInvalidInput, "mongo connect: "+err.Error())
	}

	l := &MongoLoader{client: client, database: database, collections: DefaultCollections}
	for _, o := range opts {
		o(l)
	}
	return l, nil
}

// Ping 检查服务端是否可达，不可达返回 UNAVAILABLE
func (l *MongoLoader) Ping(ctx context.Context) error {
	if err := l.client.Ping(ctx, nil); err != nil {
		return loadError("mongo ping", err)
	}
	return nil
}

func (l *MongoLoader) Name() string { return "mongo" }

// Load 依次读取三个集合
func (l *MongoLoader) Load(ctx context.Context) (*core.Snapshot, error) {
	db := l.client.Database(l.database)
	snap := &core.Snapshot{}

	targets := []struct {
		name string
		dst  *core.Table
	}{
		{l.collections.Stories, &snap.Stories},
		{l.collections.Users, &snap.Users},
		{l.collections.History, &snap.History},
	}
	for _, t := range targets {
		table, err := readCollection(ctx, db.Collection(t.name))
		if err != nil {
			return nil, fmt.Errorf("collection %s: %w", t.name, err)
		}
		*t.dst = table
	}
	return snap, nil
}

// Close 断开连接
func (l *MongoLoader) Close(ctx context.Context) error {
	return l.client.Disconnect(ctx)
}

func readCollection(ctx context.Context, coll *mongo.Collection) (core.Table, error) {
	cursor, err := coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, loadError("mongo find", err)
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, loadError("mongo decode", err)
	}

	table := make(core.Table, 0, len(docs))
	for _, doc := range docs {
		table = append(table, normalizeDoc(doc))
	}
	return table, nil
}

func normalizeDoc(doc bson.M) core.Row {
	row := make(core.Row, len(doc))
	for k, v := range doc {
		row[k] = normalizeValue(v)
	}
	return row
}

// normalizeValue 把 BSON 类型转换成引擎可识别的 Go 基础类型
func normalizeValue(v any) any {
	switch val := v.(type) {
	case bson.M:
		return normalizeDoc(val)
	case bson.D:
		row := make(core.Row, len(val))
		for _, e := range val {
			row[e.Key] = normalizeValue(e.Value)
		}
		return row
	case bson.A:
		out := make([]any, len(val))
		for i, x := range val {
			out[i] = normalizeValue(x)
		}
		return out
	case bson.ObjectID:
		return val.Hex()
	case bson.DateTime:
		return val.Time().UTC()
	case bson.Decimal128:
		if f, err := strconv.ParseFloat(val.String(), 64); err == nil {
			return f
		}
		return val.String()
	default:
		return v
	}
}
