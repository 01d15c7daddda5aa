package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/randalmurphal/astchunk/internal/chunk"
)

// ErrMissingVector is returned when a record reaches the vector store unembedded.
var ErrMissingVector = errors.New("record has no vector")

// QdrantSink handles vector storage in Qdrant.
type QdrantSink struct {
	client     *qdrant.Client
	collection string
	dimension  int
	ensured    bool
}

// NewQdrantSink connects to Qdrant over gRPC.
func NewQdrantSink(host string, port int, collection string, dimension int) (*QdrantSink, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}

	return &QdrantSink{client: client, collection: collection, dimension: dimension}, nil
}

// Close closes the Qdrant connection.
func (s *QdrantSink) Close() error {
	return s.client.Close()
}

// EnsureCollection creates the collection if it doesn't exist.
func (s *QdrantSink) EnsureCollection(ctx context.Context) error {
	if s.ensured {
		return nil
	}

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return err
	}

	if !exists {
		err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(s.dimension),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return err
		}
	}

	s.ensured = true
	return nil
}

// DeleteCollection removes the collection.
func (s *QdrantSink) DeleteCollection(ctx context.Context) error {
	s.ensured = false
	return s.client.DeleteCollection(ctx, s.collection)
}

// Write upserts records as points. Every record must carry a vector.
func (s *QdrantSink) Write(ctx context.Context, records []chunk.Record) error {
	if len(records) == 0 {
		return nil
	}

	points, err := buildPoints(records)
	if err != nil {
		return err
	}

	if err := s.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("ensure collection %s: %w", s.collection, err)
	}

	// Point IDs derive from content, so an edited file would otherwise keep
	// the points of its previous chunks.
	for _, f := range FilesIn(records) {
		if err := s.deleteFile(ctx, f.Repo, f.Path); err != nil {
			return fmt.Errorf("clear %s: %w", f.Path, err)
		}
	}

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	return err
}

// RemoveFiles deletes every point of the given files.
func (s *QdrantSink) RemoveFiles(ctx context.Context, repo string, paths []string) error {
	for _, p := range paths {
		if err := s.deleteFile(ctx, repo, p); err != nil {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

func (s *QdrantSink) deleteFile(ctx context.Context, repo, path string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(fileFilter(repo, path)),
	})
	return err
}

func fileFilter(repo, path string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("repo", repo),
			qdrant.NewMatch("file_path", path),
		},
	}
}

// DeleteRepo removes every point belonging to repo.
func (s *QdrantSink) DeleteRepo(ctx context.Context, repo string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("repo", repo)},
		}),
	})
	return err
}

// CollectionInfo contains collection metadata.
type CollectionInfo struct {
	PointsCount int64
	VectorSize  int
	Status      string
}

// CollectionInfo gets collection metadata.
func (s *QdrantSink) CollectionInfo(ctx context.Context) (*CollectionInfo, error) {
	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return nil, err
	}

	vectorSize := 0
	if params := info.Config.GetParams(); params != nil {
		if vecConfig := params.GetVectorsConfig(); vecConfig != nil {
			if vecParams := vecConfig.GetParams(); vecParams != nil {
				vectorSize = int(vecParams.GetSize())
			}
		}
	}

	pointsCount := int64(0)
	if info.PointsCount != nil {
		pointsCount = int64(*info.PointsCount)
	}

	return &CollectionInfo{
		PointsCount: pointsCount,
		VectorSize:  vectorSize,
		Status:      info.Status.String(),
	}, nil
}

func buildPoints(records []chunk.Record) ([]*qdrant.PointStruct, error) {
	points := make([]*qdrant.PointStruct, len(records))
	for i := range records {
		r := &records[i]
		if len(r.Vector) == 0 {
			return nil, fmt.Errorf("%w: %s (%s)", ErrMissingVector, r.ID, r.FilePath)
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(r.ID),
			Vectors: qdrant.NewVectors(r.Vector...),
			Payload: qdrant.NewValueMap(recordPayload(r)),
		}
	}
	return points, nil
}

// recordPayload flattens a record into values the Qdrant value map accepts.
func recordPayload(r *chunk.Record) map[string]any {
	return map[string]any{
		"repo":             r.Repo,
		"file_path":        r.FilePath,
		"language":         r.Language,
		"start_line":       r.StartLine,
		"end_line":         r.EndLine,
		"byte_start":       r.ByteStart,
		"byte_stop":        r.ByteStop,
		"content":          r.Content,
		"chunk_size":       r.Size,
		"node_count":       r.NodeCount,
		"ancestors":        payloadValue(r.Ancestors),
		"metadata":         payloadValue(r.Metadata),
		"is_test":          r.IsTest,
		"retrieval_weight": float64(r.RetrievalWeight),
	}
}

// payloadValue converts typed slices and maps into []any / map[string]any.
func payloadValue(v any) any {
	switch x := v.(type) {
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = payloadValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = payloadValue(e)
		}
		return out
	case nil:
		return map[string]any{}
	default:
		return v
	}
}
