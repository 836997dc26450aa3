package vector

import (
	"context"
	"fmt"

	"github.com/hyperjump/kaimono/internal/models"
	"github.com/qdrant/go-client/qdrant"
)

// qdrantAPI is the subset of *qdrant.Client used by QdrantIndex.
type qdrantAPI interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	CreateFieldIndex(ctx context.Context, request *qdrant.CreateFieldIndexCollection) (*qdrant.UpdateResult, error)
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Delete(ctx context.Context, request *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
	Count(ctx context.Context, request *qdrant.CountPoints) (uint64, error)
	Close() error
}

// QdrantOptions configures the connection to a Qdrant server (gRPC port).
type QdrantOptions struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	Dimensions int
}

// QdrantIndex stores product points in a Qdrant collection with cosine distance.
type QdrantIndex struct {
	client     qdrantAPI
	collection string
	dimensions int
}

// NewQdrantIndex connects to Qdrant and makes sure the collection and its payload
// indexes exist.
func NewQdrantIndex(ctx context.Context, opts QdrantOptions) (*QdrantIndex, error) {
	if opts.Dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if opts.Collection == "" {
		return nil, fmt.Errorf("qdrant collection name is required")
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   opts.Host,
		Port:   opts.Port,
		APIKey: opts.APIKey,
		UseTLS: opts.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant client: %w", err)
	}
	idx := newQdrantIndex(client, opts.Collection, opts.Dimensions)
	if err := idx.EnsureCollection(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return idx, nil
}

func newQdrantIndex(client qdrantAPI, collection string, dimensions int) *QdrantIndex {
	return &QdrantIndex{client: client, collection: collection, dimensions: dimensions}
}

// EnsureCollection creates the collection and keyword indexes on the filter fields when
// the collection does not exist yet.
func (q *QdrantIndex) EnsureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", q.collection, err)
	}
	if exists {
		return nil
	}
	if err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(q.dimensions),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	}); err != nil {
		return fmt.Errorf("create collection %s: %w", q.collection, err)
	}
	for _, field := range []string{FieldOwnerID, FieldCategory, FieldProductID} {
		if _, err := q.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: q.collection,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
			Wait:           qdrant.PtrOf(true),
		}); err != nil {
			return fmt.Errorf("create payload index %s: %w", field, err)
		}
	}
	return nil
}

// Type returns the index type identifier.
func (q *QdrantIndex) Type() string {
	return string(IndexTypeQdrant)
}

// Upsert writes points and waits for the write to be applied.
func (q *QdrantIndex) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	pts := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		if len(p.Vector) != q.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(p.Vector), q.dimensions)
		}
		pts[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(PayloadMap(p.Payload)),
		}
	}
	if _, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         pts,
	}); err != nil {
		return fmt.Errorf("upsert %d points: %w", len(points), err)
	}
	return nil
}

// Search runs a filtered nearest-neighbour query with the threshold applied server side.
func (q *QdrantIndex) Search(ctx context.Context, vector []float32, filter Filter, limit int, threshold float64) ([]models.RetrievalHit, error) {
	if limit <= 0 {
		return nil, nil
	}
	n := uint64(limit)
	req := &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &n,
		Filter:         qdrantFilter(filter),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if threshold > 0 {
		t := float32(threshold)
		req.ScoreThreshold = &t
	}
	resp, err := q.client.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.collection, err)
	}

	hits := make([]models.RetrievalHit, 0, len(resp))
	for _, r := range resp {
		md := make(map[string]any, len(r.Payload))
		for key, v := range r.Payload {
			md[key] = convertQdrantValue(v)
		}
		payload := PayloadFromMap(md)
		hits = append(hits, models.RetrievalHit{
			PointID:   pointIDString(r.Id),
			ProductID: payload.ProductID,
			Score:     float64(r.Score),
			Payload:   payload,
		})
	}
	return hits, nil
}

// Delete removes points by id.
func (q *QdrantIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewIDUUID(id)
	}
	if _, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(pointIDs...),
	}); err != nil {
		return fmt.Errorf("delete %d points: %w", len(ids), err)
	}
	return nil
}

// Count returns the exact number of points in the collection.
func (q *QdrantIndex) Count(ctx context.Context) (int, error) {
	n, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", q.collection, err)
	}
	return int(n), nil
}

// Close closes the gRPC connection.
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}

func qdrantFilter(f Filter) *qdrant.Filter {
	if f.Empty() {
		return nil
	}
	filter := &qdrant.Filter{}
	if f.OwnerID != "" {
		filter.Must = append(filter.Must, qdrant.NewMatch(FieldOwnerID, f.OwnerID))
	}
	if f.Category != "" {
		filter.Must = append(filter.Must, qdrant.NewMatch(FieldCategory, f.Category))
	}
	return filter
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	switch x := id.PointIdOptions.(type) {
	case *qdrant.PointId_Uuid:
		return x.Uuid
	case *qdrant.PointId_Num:
		return fmt.Sprintf("%d", x.Num)
	}
	return ""
}

func convertQdrantValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_NullValue:
		return nil
	case *qdrant.Value_ListValue:
		out := make([]any, len(val.ListValue.Values))
		for i, lv := range val.ListValue.Values {
			out[i] = convertQdrantValue(lv)
		}
		return out
	case *qdrant.Value_StructValue:
		out := make(map[string]any)
		for k, nv := range val.StructValue.Fields {
			out[k] = convertQdrantValue(nv)
		}
		return out
	}
	return nil
}
