package services

import (
	"context"
	"encoding/json"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"viz-query-service/models"
)

// RestTransport posts query documents to a search endpoint URL.
type RestTransport struct {
	client *resty.Client
}

// NewRestTransport returns a transport on top of client, a new resty client when nil.
func NewRestTransport(client *resty.Client) *RestTransport {
	if client == nil {
		client = resty.New()
	}
	return &RestTransport{client: client}
}

// Search implements Transport. The endpoint is the URL to post to.
func (t *RestTransport) Search(ctx context.Context, endpoint string, body models.Query) (map[string]interface{}, error) {
	if endpoint == "" {
		return nil, errors.New("no search endpoint")
	}
	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "post %s", endpoint)
	}
	if resp.IsError() {
		return nil, errors.Errorf("post %s: %s", endpoint, resp.Status())
	}
	var out map[string]interface{}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, errors.Wrap(err, "decode search response")
	}
	return out, nil
}
