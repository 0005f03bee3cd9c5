package services

import (
	"context"
	"crypto/md5"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
)

// VectorIndex is the persistent store of reference-corpus chunks. All
// transport failures wrap ErrStoreUnavailable so callers can tell a
// store outage apart from an empty retrieval result.
type VectorIndex interface {
	EnsureCollection(ctx context.Context) error
	UpsertChunks(ctx context.Context, chunks []Chunk) error
	QuerySimilar(ctx context.Context, text string, sources []string, limit int) ([]string, error)
	ListSources(ctx context.Context) (map[string]int, error)
}

type qdrantIndex struct {
	client         *qdrant.Client
	embedder       Embedder
	collectionName string
	vectorSize     uint64
	logger         *zap.Logger
}

const (
	// text-embedding-004 dimensionality.
	embeddingVectorSize = 768

	payloadKeyText   = "text"
	payloadKeySource = "source"

	// Upper bound on points scanned when aggregating source counts.
	listSourcesScrollLimit = 10000
)

func NewQdrantIndex(urlStr, apiKey, collectionName string, embedder Embedder, logger *zap.Logger) (VectorIndex, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid qdrant url: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port, not the REST one.
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &qdrantIndex{
		client:         client,
		embedder:       embedder,
		collectionName: collectionName,
		vectorSize:     embeddingVectorSize,
		logger:         logger,
	}, nil
}

// EnsureCollection implements VectorIndex.
func (q *qdrantIndex) EnsureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("%w: failed to check collection: %v", ErrStoreUnavailable, err)
	}

	if exists {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to create collection: %v", ErrStoreUnavailable, err)
	}

	q.logger.Info("qdrant collection created", zap.String("collection", q.collectionName))
	return nil
}

// UpsertChunks implements VectorIndex. Point ids are derived from each
// chunk's content hash, so upserting identical text overwrites the
// existing point instead of duplicating it.
func (q *qdrantIndex) UpsertChunks(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for _, chunk := range chunks {
		embedding, err := q.embedder.GenerateEmbedding(ctx, chunk.Text)
		if err != nil {
			return fmt.Errorf("failed to embed chunk %s: %w", chunk.ID, err)
		}

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(chunkPointID(chunk.Text)),
			Vectors: qdrant.NewVectors(embedding...),
			Payload: qdrant.NewValueMap(map[string]interface{}{
				payloadKeyText:   chunk.Text,
				payloadKeySource: chunk.Source,
			}),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to upsert points: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// QuerySimilar implements VectorIndex. An empty result is a normal
// outcome, not an error.
func (q *qdrantIndex) QuerySimilar(ctx context.Context, text string, sources []string, limit int) ([]string, error) {
	embedding, err := q.embedder.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var filter *qdrant.Filter
	if len(sources) > 0 {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatchKeywords(payloadKeySource, sources...),
			},
		}
	}

	scored, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(embedding...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query points: %v", ErrStoreUnavailable, err)
	}

	texts := make([]string, 0, len(scored))
	for _, point := range scored {
		if value, ok := point.Payload[payloadKeyText]; ok {
			if s := value.GetStringValue(); s != "" {
				texts = append(texts, s)
			}
		}
	}

	return texts, nil
}

// ListSources implements VectorIndex, aggregating chunk counts per
// source tag for the documents endpoint.
func (q *qdrantIndex) ListSources(ctx context.Context) (map[string]int, error) {
	points, err := q.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: q.collectionName,
		Limit:          qdrant.PtrOf(uint32(listSourcesScrollLimit)),
		WithPayload:    qdrant.NewWithPayloadInclude(payloadKeySource),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to scroll points: %v", ErrStoreUnavailable, err)
	}

	counts := make(map[string]int)
	for _, point := range points {
		if value, ok := point.Payload[payloadKeySource]; ok {
			if s := value.GetStringValue(); s != "" {
				counts[s]++
			}
		}
	}

	return counts, nil
}

// chunkPointID renders a chunk's 128-bit content hash as the UUID form
// qdrant accepts for point ids.
func chunkPointID(text string) string {
	sum := md5.Sum([]byte(text))
	id, _ := uuid.FromBytes(sum[:])
	return id.String()
}
