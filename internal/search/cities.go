package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/Skotchmaster/cities_manager/internal/models"
)

const DefaultIndex = "cities"

// CityIndex keeps a full-text copy of the cities table in Elasticsearch.
type CityIndex struct {
	ES    *elasticsearch.Client
	Index string
}

func NewCityIndex(es *elasticsearch.Client, index string) *CityIndex {
	if index == "" {
		index = DefaultIndex
	}
	return &CityIndex{ES: es, Index: index}
}

type cityDoc struct {
	ID   string `json:"cityID"`
	Name string `json:"cityName"`
}

func (i *CityIndex) Put(ctx context.Context, city models.City) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(cityDoc{ID: city.ID.String(), Name: city.Name}); err != nil {
		return fmt.Errorf("encode city: %w", err)
	}

	res, err := i.ES.Index(
		i.Index,
		&buf,
		i.ES.Index.WithContext(ctx),
		i.ES.Index.WithDocumentID(city.ID.String()),
		i.ES.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("index city: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("index city", res.Status(), res.Body)
	}
	return nil
}

func (i *CityIndex) Remove(ctx context.Context, id uuid.UUID) error {
	res, err := i.ES.Delete(
		i.Index,
		id.String(),
		i.ES.Delete.WithContext(ctx),
		i.ES.Delete.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("delete city: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return responseError("delete city", res.Status(), res.Body)
	}
	return nil
}

func (i *CityIndex) Search(ctx context.Context, query string, from, size int) (int64, []models.City, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"match": map[string]interface{}{
				"cityName": map[string]interface{}{
					"query":     query,
					"fuzziness": "AUTO",
				},
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := i.ES.Search(
		i.ES.Search.WithContext(ctx),
		i.ES.Search.WithIndex(i.Index),
		i.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search cities: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, nil, responseError("search cities", res.Status(), res.Body)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source cityDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("decode search response: %w", err)
	}

	cities := make([]models.City, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		id, err := uuid.Parse(hit.Source.ID)
		if err != nil {
			continue
		}
		cities = append(cities, models.City{ID: id, Name: hit.Source.Name})
	}
	return r.Hits.Total.Value, cities, nil
}

func responseError(op, status string, body io.Reader) error {
	b, _ := io.ReadAll(body)
	return fmt.Errorf("%s: elasticsearch %s: %s", op, status, b)
}
