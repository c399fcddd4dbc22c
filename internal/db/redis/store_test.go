package redis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/docmind/internal/db"
)

// --- client.go ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestWaitForReady_Timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(errors.New("connection refused"))).
		AnyTimes()

	s := NewStoreForTest(c)
	err := s.WaitForReady(context.Background(), 250*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

// --- hash.go ---

func TestHSetMulti_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(2)),
			mock.Result(mock.RedisInt64(2)),
		})

	s := NewStoreForTest(c)
	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "k1", Fields: map[string]string{"f1": "v1"}},
		{Key: "k2", Fields: map[string]string{"f2": "v2"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSetMulti_ErrorNamesKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(1)),
			mock.ErrorResult(errors.New("OOM")),
		})

	s := NewStoreForTest(c)
	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "k1", Fields: map[string]string{"f": "v"}},
		{Key: "k2", Fields: map[string]string{"f": "v"}},
	})
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpHSet {
		t.Fatalf("expected HSET db.Error, got %v", err)
	}
	if !strings.Contains(err.Error(), "k2") {
		t.Errorf("error should name the failing key: %v", err)
	}
}

func TestHSetMulti_Empty(t *testing.T) {
	s := NewStoreForTest(nil)
	if err := s.HSetMulti(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHGetAllMulti_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
				"content": mock.RedisString("a"),
			})),
			mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{})),
		})

	s := NewStoreForTest(c)
	results, err := s.HGetAllMulti(context.Background(), []string{"k1", "missing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0]["content"] != "a" || len(results[1]) != 0 {
		t.Errorf("unexpected results: %v", results)
	}
}

func TestHGetAllMulti_Empty(t *testing.T) {
	s := NewStoreForTest(nil)
	results, err := s.HGetAllMulti(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil, got %v", results)
	}
}

func TestDelMulti_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "k1", "k2")).
		Return(mock.Result(mock.RedisInt64(2)))

	s := NewStoreForTest(c)
	n, err := s.DelMulti(context.Background(), []string{"k1", "k2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
}

func TestDelMulti_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "k1")).
		Return(mock.ErrorResult(errors.New("READONLY")))

	s := NewStoreForTest(c)
	_, err := s.DelMulti(context.Background(), []string{"k1"})
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpDel {
		t.Fatalf("expected DEL db.Error, got %v", err)
	}
}

// --- kv.go ---

func TestGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "k")).
		Return(mock.Result(mock.RedisString("value")))

	s := NewStoreForTest(c)
	got, err := s.Get(context.Background(), "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "value" {
		t.Errorf("got %q", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "k")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	if _, err := s.Get(context.Background(), "k"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestSetWithTTL(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v", "EX", "60")).
		Return(mock.Result(mock.RedisString("OK")))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.SetWithTTL(context.Background(), "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetWithTTL(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- index.go ---

func chunkIndex(t *testing.T) *db.IndexDefinition {
	t.Helper()
	def, err := db.NewIndex("idx").
		Prefix("docmind:chunk:").
		Tag("owner_id").
		Numeric("document_id").
		VectorHNSW("vector", 4, db.DistanceCosine, 16, 200).
		Build()
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	return def
}

func TestCreateIndex_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match(
			"FT.CREATE", "idx", "ON", "HASH", "PREFIX", "1", "docmind:chunk:", "SCHEMA",
			"owner_id", "TAG", "CASESENSITIVE",
			"document_id", "NUMERIC",
			"vector", "VECTOR", "HNSW", "10",
			"TYPE", "FLOAT32", "DIM", "4", "DISTANCE_METRIC", "COSINE", "M", "16", "EF_CONSTRUCTION", "200",
		)).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.CreateIndex(context.Background(), chunkIndex(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.CREATE" })).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := NewStoreForTest(c)
	if err := s.CreateIndex(context.Background(), chunkIndex(t)); !errors.Is(err, db.ErrIndexExists) {
		t.Fatalf("expected ErrIndexExists, got %v", err)
	}
}

func TestCreateIndex_InvalidDefinition(t *testing.T) {
	s := NewStoreForTest(nil)
	if err := s.CreateIndex(context.Background(), &db.IndexDefinition{Name: "idx"}); err == nil {
		t.Fatal("expected validation error")
	}
	if err := s.CreateIndex(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil definition")
	}
}

func TestDropIndex_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.DROPINDEX", "idx")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := NewStoreForTest(c)
	if err := s.DropIndex(context.Background(), "idx"); !errors.Is(err, db.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestIndexExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "present")).
		Return(mock.Result(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("present"))))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "absent")).
		Return(mock.Result(mock.RedisError("Unknown index name")))

	s := NewStoreForTest(c)
	ok, err := s.IndexExists(context.Background(), "present")
	if err != nil || !ok {
		t.Fatalf("present: ok=%v err=%v", ok, err)
	}
	ok, err = s.IndexExists(context.Background(), "absent")
	if err != nil || ok {
		t.Fatalf("absent: ok=%v err=%v", ok, err)
	}
}

// --- search.go ---

func TestSearchKNN_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var got []string
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			got = cmd
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(1),
			mock.RedisString("docmind:chunk:abc"),
			mock.RedisArray(
				mock.RedisString("__vector_score"),
				mock.RedisString("0.1"), // cosine distance 0.1 -> similarity 0.9
				mock.RedisString("content"),
				mock.RedisString("hello"),
			),
		)))

	s := NewStoreForTest(c)
	result, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName:    "idx",
		Tags:         []db.TagMatch{{Field: "owner_id", Value: "user-1"}},
		Vector:       []float32{0.1, 0.2},
		K:            30,
		ReturnFields: []string{"content"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 1 || result.Entries[0].Key != "docmind:chunk:abc" {
		t.Fatalf("unexpected entries: %+v", result.Entries)
	}
	e := result.Entries[0]
	if e.Score < 0.89 || e.Score > 0.91 {
		t.Errorf("expected score ~0.9, got %f", e.Score)
	}
	if _, ok := e.Fields["__vector_score"]; ok {
		t.Error("score field must be stripped from Fields")
	}
	if e.Fields["content"] != "hello" {
		t.Errorf("content = %q", e.Fields["content"])
	}

	joined := strings.Join(got, " ")
	if got[2] != `(@owner_id:{user\-1})=>[KNN 30 @vector $BLOB]` {
		t.Errorf("query = %q", got[2])
	}
	for _, want := range []string{"RETURN 2 __vector_score content", "SORTBY __vector_score", "LIMIT 0 30", "DIALECT 2"} {
		if !strings.Contains(joined, want) {
			t.Errorf("command %q missing %q", joined, want)
		}
	}
}

func TestSearchKNN_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.SEARCH" })).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c)
	result, err := s.SearchKNN(context.Background(), &db.KNNQuery{IndexName: "idx", Vector: []float32{0.1}, K: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 0 {
		t.Errorf("expected 0 entries, got %d", len(result.Entries))
	}
}

func TestSearchKNN_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.SEARCH" })).
		Return(mock.ErrorResult(errors.New("connection reset")))

	s := NewStoreForTest(c)
	_, err := s.SearchKNN(context.Background(), &db.KNNQuery{IndexName: "idx", Vector: []float32{0.1}, K: 10})
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpSearch {
		t.Fatalf("expected FT.SEARCH db.Error, got %v", err)
	}
}

func TestSearchKNN_Validation(t *testing.T) {
	s := NewStoreForTest(nil)
	for _, q := range []*db.KNNQuery{
		{Vector: []float32{1}, K: 1},
		{IndexName: "idx", K: 1},
		{IndexName: "idx", Vector: []float32{1}},
	} {
		if _, err := s.SearchKNN(context.Background(), q); err == nil {
			t.Errorf("expected validation error for %+v", q)
		}
	}
}

func TestBuildKNNQuery(t *testing.T) {
	if got := buildKNNQuery(nil, "vector", 5); got != "*=>[KNN 5 @vector $BLOB]" {
		t.Errorf("no tags: %q", got)
	}
	got := buildKNNQuery([]db.TagMatch{
		{Field: "owner_id", Value: "u1"},
		{Field: "source", Value: "legal docs"},
	}, "vector", 9)
	if got != `(@owner_id:{u1} @source:{legal\ docs})=>[KNN 9 @vector $BLOB]` {
		t.Errorf("tags: %q", got)
	}
}

func TestVectorToBytes(t *testing.T) {
	b := vectorToBytes([]float32{1.0, -2.5})
	if len(b) != 8 {
		t.Fatalf("len = %d, want 8", len(b))
	}
	// 1.0 as little-endian float32 is 00 00 80 3f
	if b[0] != 0x00 || b[3] != 0x3f {
		t.Errorf("unexpected encoding: % x", b)
	}
}
