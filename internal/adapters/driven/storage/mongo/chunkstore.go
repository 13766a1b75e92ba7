package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/custodia-labs/kbsync/internal/core/domain"
	"github.com/custodia-labs/kbsync/internal/core/ports/driven"
	"github.com/custodia-labs/kbsync/internal/logger"
)

// Ensure ChunkRepository implements the interface.
var _ driven.ChunkRepository = (*ChunkRepository)(nil)

const (
	chunkType    = "kb_chunk"
	closeTimeout = 5 * time.Second

	// DefaultDatabase and DefaultCollection are used when Config leaves them empty.
	DefaultDatabase   = "kbsync"
	DefaultCollection = "kb_chunks"
)

// Config holds the connection settings.
type Config struct {
	URI        string
	Database   string
	Collection string

	// ConnectTimeout bounds server selection and the initial ping.
	ConnectTimeout time.Duration
}

// ChunkRepository stores chunk records in a MongoDB collection.
type ChunkRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

// chunkDocument is the stored shape of a chunk.
type chunkDocument struct {
	Type      string       `bson:"type"`
	FolderID  string       `bson:"folder_id"`
	DocID     string       `bson:"doc_id"`
	ChunkID   string       `bson:"chunk_id"`
	Content   string       `bson:"content"`
	Embedding []float64    `bson:"embedding"`
	MetaInfo  metaDocument `bson:"meta_info"`
	Checksum  string       `bson:"checksum,omitempty"`
	Source    string       `bson:"source,omitempty"`
	UpdatedAt time.Time    `bson:"updated_at"`
}

type metaDocument struct {
	FileName     string `bson:"file_name"`
	MimeType     string `bson:"mime_type"`
	ModifiedTime string `bson:"modified_time"`
	Revision     string `bson:"revision"`
}

// NewChunkRepository connects, pings and ensures indexes.
func NewChunkRepository(ctx context.Context, cfg Config) (*ChunkRepository, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("%w: mongo uri is required", domain.ErrConfiguration)
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}

	opts := options.Client().ApplyURI(cfg.URI).SetServerSelectionTimeout(cfg.ConnectTimeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	repo := NewWithCollection(client, client.Database(cfg.Database).Collection(cfg.Collection))
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Warn("mongo: failed to ensure chunk indexes: %v", err)
	}
	return repo, nil
}

// NewWithCollection wraps an existing collection. client may be nil, in
// which case Close does not disconnect.
func NewWithCollection(client *mongo.Client, collection *mongo.Collection) *ChunkRepository {
	return &ChunkRepository{
		client:     client,
		collection: collection,
		now:        time.Now,
	}
}

// EnsureIndexes creates the identity and folder indexes.
func (r *ChunkRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "doc_id", Value: 1}, {Key: "chunk_id", Value: 1}},
			Options: options.Index().SetName("kb_doc_chunk_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "folder_id", Value: 1}, {Key: "doc_id", Value: 1}},
			Options: options.Index().SetName("kb_folder_doc_idx"),
		},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// BulkUpsert issues one unordered bulk write of upserts. On a partial
// failure the applied count is still returned alongside the error.
func (r *ChunkRepository) BulkUpsert(ctx context.Context, chunks []domain.ChunkRecord) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	now := r.now().UTC()
	models := make([]mongo.WriteModel, 0, len(chunks))
	for _, c := range chunks {
		doc := toDocument(c, now)
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.D{
				{Key: "type", Value: chunkType},
				{Key: "doc_id", Value: c.DocumentID},
				{Key: "chunk_id", Value: c.ChunkID},
			}).
			SetUpdate(bson.D{{Key: "$set", Value: doc}}).
			SetUpsert(true))
	}

	res, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	n := 0
	if res != nil {
		n = int(res.ModifiedCount + res.UpsertedCount)
	}
	if err != nil {
		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) {
			return n, fmt.Errorf("bulk upsert: %d of %d writes failed: %w", len(bwe.WriteErrors), len(chunks), err)
		}
		return n, fmt.Errorf("bulk upsert: %w", err)
	}
	return n, nil
}

// DeleteByRefs removes chunks one reference at a time.
func (r *ChunkRepository) DeleteByRefs(ctx context.Context, refs []domain.ChunkRef) (int, error) {
	total := 0
	for _, ref := range refs {
		if !ref.Valid() {
			continue
		}
		filter := bson.D{{Key: "type", Value: chunkType}, {Key: "doc_id", Value: ref.DocumentID}}

		var res *mongo.DeleteResult
		var err error
		if ref.IsWildcard() {
			res, err = r.collection.DeleteMany(ctx, filter)
		} else {
			filter = append(filter, bson.E{Key: "chunk_id", Value: ref.ChunkID})
			res, err = r.collection.DeleteOne(ctx, filter)
		}
		if err != nil {
			return total, fmt.Errorf("delete chunks of %s: %w", ref.DocumentID, err)
		}
		total += int(res.DeletedCount)
	}
	return total, nil
}

// DeleteByFolder removes every chunk tagged with folderID.
func (r *ChunkRepository) DeleteByFolder(ctx context.Context, folderID string) (int, error) {
	res, err := r.collection.DeleteMany(ctx, bson.D{
		{Key: "type", Value: chunkType},
		{Key: "folder_id", Value: folderID},
	})
	if err != nil {
		return 0, fmt.Errorf("delete folder chunks: %w", err)
	}
	return int(res.DeletedCount), nil
}

// ReplaceFolder deletes the folder's chunks then upserts chunks.
func (r *ChunkRepository) ReplaceFolder(ctx context.Context, folderID string, chunks []domain.ChunkRecord) (domain.ReplaceStats, error) {
	deleted, err := r.DeleteByFolder(ctx, folderID)
	if err != nil {
		return domain.ReplaceStats{}, err
	}
	upserted, err := r.BulkUpsert(ctx, chunks)
	return domain.ReplaceStats{Deleted: deleted, Upserted: upserted}, err
}

// SearchSimilar streams every embedded chunk and ranks it in process.
func (r *ChunkRepository) SearchSimilar(ctx context.Context, query []float32, topK int) ([]domain.ScoredChunk, error) {
	cursor, err := r.collection.Find(ctx, bson.D{
		{Key: "type", Value: chunkType},
		{Key: "embedding.0", Value: bson.D{{Key: "$exists", Value: true}}},
	})
	if err != nil {
		return nil, fmt.Errorf("find chunks: %w", err)
	}
	defer cursor.Close(ctx)

	var chunks []domain.ChunkRecord
	for cursor.Next(ctx) {
		var doc chunkDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode chunk: %w", err)
		}
		chunks = append(chunks, doc.toRecord())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	return domain.RankChunks(query, chunks, topK), nil
}

// Count returns the number of stored chunks.
func (r *ChunkRepository) Count(ctx context.Context) (int, error) {
	n, err := r.collection.CountDocuments(ctx, bson.D{{Key: "type", Value: chunkType}})
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return int(n), nil
}

// Close disconnects the client.
func (r *ChunkRepository) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func toDocument(c domain.ChunkRecord, now time.Time) chunkDocument {
	return chunkDocument{
		Type:      chunkType,
		FolderID:  c.FolderID,
		DocID:     c.DocumentID,
		ChunkID:   c.ChunkID,
		Content:   c.Content,
		Embedding: float64Embedding(c.Embedding),
		MetaInfo: metaDocument{
			FileName:     c.Metadata.FileName,
			MimeType:     c.Metadata.MimeType,
			ModifiedTime: c.Metadata.ModifiedTime,
			Revision:     c.Metadata.Revision,
		},
		Checksum:  c.Checksum,
		Source:    c.Source,
		UpdatedAt: now,
	}
}

func (d chunkDocument) toRecord() domain.ChunkRecord {
	return domain.ChunkRecord{
		FolderID:   d.FolderID,
		DocumentID: d.DocID,
		ChunkID:    d.ChunkID,
		Content:    d.Content,
		Embedding:  float32Embedding(d.Embedding),
		Metadata: domain.SourceMetadata{
			FileName:     d.MetaInfo.FileName,
			MimeType:     d.MetaInfo.MimeType,
			ModifiedTime: d.MetaInfo.ModifiedTime,
			Revision:     d.MetaInfo.Revision,
		},
		Checksum:  d.Checksum,
		Source:    d.Source,
		UpdatedAt: d.UpdatedAt,
	}
}

func float64Embedding(vec []float32) []float64 {
	if len(vec) == 0 {
		return nil
	}
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out
}

func float32Embedding(vec []float64) []float32 {
	if len(vec) == 0 {
		return nil
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}
