// internal/billing/search.go
package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"billing-chart-workers/internal/models"
)

// maxResultWindow matches the default index.max_result_window.
const maxResultWindow = 10000

// SearchStore reads billing records from an Elasticsearch index.
type SearchStore struct {
	client *elasticsearch.Client
	index  string
}

func NewSearchStore(client *elasticsearch.Client, index string) *SearchStore {
	if index == "" {
		index = DefaultTable
	}
	return &SearchStore{client: client, index: index}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source models.Record `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func buildMatchAllQuery() map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"match_all": map[string]interface{}{},
		},
		"sort": []interface{}{
			map[string]interface{}{
				models.FieldAdmissionDate: map[string]interface{}{
					"order":         "desc",
					"missing":       "_last",
					"unmapped_type": "date",
				},
			},
		},
	}
}

func (s *SearchStore) FetchAllRecords(ctx context.Context) ([]models.Record, error) {
	body, err := json.Marshal(buildMatchAllQuery())
	if err != nil {
		return nil, fmt.Errorf("%w: encode query: %v", ErrSearchFailed, err)
	}

	size := maxResultWindow
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchFailed, err)
	}

	records := make([]models.Record, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		if hit.Source != nil {
			records = append(records, hit.Source)
		}
	}
	return records, nil
}
