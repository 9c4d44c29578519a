package elastic

import (
	"errors"
	"fmt"
	"net/http"

	es "github.com/elastic/go-elasticsearch/v8"
)

// Connect builds a client for url. An optional transport is used in tests.
func Connect(url string, transport http.RoundTripper) (*es.Client, error) {
	if url == "" {
		return nil, errors.New("ELASTIC_URL is empty")
	}
	client, err := es.NewClient(es.Config{
		Addresses: []string{url},
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to elasticsearch: %w", err)
	}
	return client, nil
}
