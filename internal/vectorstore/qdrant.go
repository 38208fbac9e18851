package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// payloadIDField carries the original "<memory_id>:<sector>" id, since
// Qdrant point ids must be UUIDs or unsigned integers.
const payloadIDField = "_original_id"

// Qdrant is a VectorStore backed by a Qdrant collection over its gRPC API
// (default port 6334).
type Qdrant struct {
	client     *qdrant.Client
	collection string
	dimension  int
	metric     string
}

func NewQdrant(ctx context.Context, dsn, collection string, dimension int, metric string) (*Qdrant, error) {
	if collection == "" {
		return nil, fmt.Errorf("qdrant collection name is required")
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse qdrant url: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}
	portStr := u.Port()
	if portStr == "" {
		portStr = "6334"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid qdrant port: %w", err)
	}
	cfg := &qdrant.Config{Host: host, Port: port}
	if u.Scheme == "https" {
		cfg.UseTLS = true
	}
	if key := u.Query().Get("api_key"); key != "" {
		cfg.APIKey = key
	}
	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}
	q := &Qdrant{client: client, collection: collection, dimension: dimension, metric: strings.ToLower(strings.TrimSpace(metric))}
	if err := q.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return q, nil
}

func (q *Qdrant) ensureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("check qdrant collection: %w", err)
	}
	if exists {
		return nil
	}
	if q.dimension <= 0 {
		return fmt.Errorf("qdrant backend requires vec_dim > 0")
	}
	var distance qdrant.Distance
	switch q.metric {
	case "l2", "euclidean":
		distance = qdrant.Distance_Euclid
	case "ip", "dot":
		distance = qdrant.Distance_Dot
	default:
		distance = qdrant.Distance_Cosine
	}
	return q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dimension),
			Distance: distance,
		}),
	})
}

func idToUUID(id string) (uuidStr string, original string) {
	if _, err := uuid.Parse(id); err == nil {
		return id, ""
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String(), id
}

func (q *Qdrant) Upsert(ctx context.Context, id string, vector []float32, metadata map[string]string) error {
	uuidStr, original := idToUUID(id)
	payload := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		payload[k] = v
	}
	if original != "" {
		payload[payloadIDField] = original
	}
	vec := make([]float32, len(vector))
	copy(vec, vector)
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewIDUUID(uuidStr),
			Vectors: qdrant.NewVectorsDense(vec),
			Payload: qdrant.NewValueMap(payload),
		}},
	})
	return err
}

func (q *Qdrant) Delete(ctx context.Context, id string) error {
	uuidStr, _ := idToUUID(id)
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Points:         qdrant.NewPointsSelector(qdrant.NewIDUUID(uuidStr)),
	})
	return err
}

func (q *Qdrant) GetVector(ctx context.Context, id string) ([]float32, bool, error) {
	uuidStr, _ := idToUUID(id)
	points, err := q.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: q.collection,
		Ids:            []*qdrant.PointId{qdrant.NewIDUUID(uuidStr)},
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil || len(points) == 0 {
		return nil, false, err
	}
	return points[0].Vectors.GetVector().GetData(), true, nil
}

func (q *Qdrant) SimilaritySearch(ctx context.Context, vector []float32, k int, filter map[string]string) ([]Result, error) {
	if k <= 0 {
		k = 10
	}
	vec := make([]float32, len(vector))
	copy(vec, vector)
	var qf *qdrant.Filter
	if len(filter) > 0 {
		must := make([]*qdrant.Condition, 0, len(filter))
		for k, v := range filter {
			must = append(must, qdrant.NewMatch(k, v))
		}
		qf = &qdrant.Filter{Must: must}
	}
	limit := uint64(k)
	hits, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQueryDense(vec),
		Limit:          &limit,
		Filter:         qf,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(hits))
	for _, hit := range hits {
		md := make(map[string]string)
		original := ""
		if hit.Payload != nil {
			for k, v := range hit.Payload {
				if k == payloadIDField {
					original = v.GetStringValue()
					continue
				}
				md[k] = v.GetStringValue()
			}
		}
		id := original
		if id == "" {
			id = hit.Id.GetUuid()
		}
		out = append(out, Result{ID: id, Score: float64(hit.Score), Metadata: md})
	}
	return out, nil
}

func (q *Qdrant) IterateAllIDs(ctx context.Context, batchSize int, fn func(ids []string) (bool, error)) error {
	if batchSize <= 0 {
		batchSize = 1000
	}
	var offset *qdrant.PointId
	for {
		resp, err := q.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: q.collection,
			Limit:          ptrU32(uint32(batchSize)),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return err
		}
		if len(resp) == 0 {
			return nil
		}
		ids := make([]string, 0, len(resp))
		for _, pt := range resp {
			original := ""
			if pt.Payload != nil {
				if v, ok := pt.Payload[payloadIDField]; ok {
					original = v.GetStringValue()
				}
			}
			if original == "" {
				original = pt.Id.GetUuid()
			}
			ids = append(ids, original)
		}
		more, err := fn(ids)
		if err != nil || !more {
			return err
		}
		offset = resp[len(resp)-1].Id
	}
}

func (q *Qdrant) Close() error { return q.client.Close() }

func ptrU32(v uint32) *uint32 { return &v }
