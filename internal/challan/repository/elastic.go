package repository

import (
	"context"
	"sync"

	"github.com/fekuna/omnipos-challan-service/internal/challan/dto"
	"github.com/fekuna/omnipos-challan-service/internal/model"
	"github.com/fekuna/omnipos-challan-service/internal/search"
)

const challanIndex = "challans"

const challanMapping = `{
	"mappings": {
		"properties": {
			"number": { "type": "text", "fields": { "raw": { "type": "keyword" } } },
			"financial_year": { "type": "keyword" },
			"tax_type": { "type": "keyword" },
			"inventory_mode": { "type": "keyword" },
			"client_name": { "type": "text" },
			"client_gstin": { "type": "keyword" },
			"items": {
				"properties": {
					"title": { "type": "text" },
					"code": { "type": "keyword" },
					"category": { "type": "keyword" }
				}
			},
			"created_by": { "type": "keyword" },
			"created_at": { "type": "date" },
			"cancelled_at": { "type": "date" }
		}
	}
}`

type ElasticIndex struct {
	client *search.Client
	once   sync.Once
}

func NewElasticIndex(client *search.Client) *ElasticIndex {
	return &ElasticIndex{client: client}
}

func (e *ElasticIndex) ensureIndex(ctx context.Context) {
	e.once.Do(func() {
		_ = e.client.CreateIndex(ctx, challanIndex, challanMapping)
	})
}

func (e *ElasticIndex) Index(ctx context.Context, c *model.Challan) error {
	e.ensureIndex(ctx)
	return e.client.Index(ctx, challanIndex, c.ID, c)
}

func (e *ElasticIndex) Search(ctx context.Context, in *dto.SearchInput) ([]string, int, error) {
	e.ensureIndex(ctx)

	q := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  in.Query,
				"fields": []string{"number^3", "client_name^2", "client_gstin", "items.title", "items.code"},
				"type":   "best_fields",
			},
		},
		"_source": false,
		"sort":    []interface{}{"_score", map[string]interface{}{"created_at": "desc"}},
	}
	if in.PageSize > 0 {
		page := in.Page
		if page < 1 {
			page = 1
		}
		q["from"] = (page - 1) * in.PageSize
		q["size"] = in.PageSize
	}

	res, err := e.client.Search(ctx, challanIndex, q)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]string, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, res.Hits.Total.Value, nil
}
