package xarchive

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
)

// mongoDocument 归档文档结构。
type mongoDocument struct {
	Key        string            `bson:"call_key"`
	KeyID      string            `bson:"key_id"`
	Scope      string            `bson:"scope"`
	Method     string            `bson:"method"`
	Params     map[string]string `bson:"params"`
	Body       string            `bson:"body"`
	ArchivedAt time.Time         `bson:"archived_at"`
}

// inserter *mongo.Collection 实现此接口。
type inserter interface {
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
}

// Mongo 每次调用写入一份文档的归档。集合的生命周期由调用方管理。
type Mongo struct {
	coll inserter
	now  func() time.Time
}

// NewMongo 创建写入 coll 的归档。
func NewMongo(coll *mongo.Collection, opts ...Option) (*Mongo, error) {
	if coll == nil {
		return nil, ErrNilClient
	}
	return newMongo(coll, opts...), nil
}

func newMongo(coll inserter, opts ...Option) *Mongo {
	o := applyOptions(opts)
	return &Mongo{coll: coll, now: o.Now}
}

// Save 插入一份文档。
func (m *Mongo) Save(ctx context.Context, id xapi.Identity, raw []byte) error {
	rec := NewRecord(id, raw, m.now())
	doc := mongoDocument{
		Key:        rec.Key,
		KeyID:      rec.KeyID,
		Scope:      rec.Scope,
		Method:     rec.Method,
		Params:     rec.Params,
		Body:       string(rec.Body),
		ArchivedAt: rec.ArchivedAt,
	}
	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("xarchive: mongo insert: %w", err)
	}
	return nil
}

var _ xapi.ArchiveStore = (*Mongo)(nil)
