package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/pkg/errors"

	"viz-query-service/config"
	"viz-query-service/logger"
	"viz-query-service/models"
)

// ElasticsearchClient sends query documents to an Elasticsearch cluster.
type ElasticsearchClient struct {
	client *elasticsearch.Client
	log    *logger.Logger
}

// NewElasticsearchClient builds a client and pings the cluster. A failed ping is
// only logged, the cluster may come up later.
func NewElasticsearchClient(cfg config.Elasticsearch) (*ElasticsearchClient, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	}
	if cfg.InsecureSkipVerify {
		esCfg.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		}
	}
	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, errors.Wrap(err, "create elasticsearch client")
	}
	es := &ElasticsearchClient{client: client, log: logger.GetLogger("elasticsearch")}
	res, err := client.Ping()
	if err != nil {
		es.log.Warn().Err(err).Strs("addresses", cfg.Addresses).Msg("ping failed")
		return es, nil
	}
	defer res.Body.Close()
	es.log.Info().Str("status", res.Status()).Msg("ping")
	return es, nil
}

// Search implements Transport. The endpoint names the index or alias to search.
func (es *ElasticsearchClient) Search(ctx context.Context, index string, body models.Query) (map[string]interface{}, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, errors.Wrap(err, "encode query")
	}
	es.log.Debug().Str("index", index).RawJSON("query", bytes.TrimSpace(buf.Bytes())).Msg("search")

	req := esapi.SearchRequest{
		Body: &buf,
	}
	if index != "" {
		req.Index = []string{index}
	}
	res, err := req.Do(ctx, es.client)
	if err != nil {
		return nil, errors.Wrapf(err, "search %s", index)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, errors.Errorf("error searching %s: %s", index, res.String())
	}
	var searchResponse map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&searchResponse); err != nil {
		return nil, errors.Wrap(err, "decode search response")
	}
	return searchResponse, nil
}
