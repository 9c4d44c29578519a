package elastic

import (
	"context"
	"fmt"
	"strings"

	es "github.com/elastic/go-elasticsearch/v8"
)

const IdxTeams = "teams_v1"

const teamsMapping = `{"settings":{"number_of_shards":1},"mappings":{"dynamic":"strict","properties":{
	"team_id":{"type":"long"},"name":{"type":"text"},"tag":{"type":"keyword"},
	"status":{"type":"keyword"},"players":{"type":"keyword"},"reserve":{"type":"keyword"},
	"telegram":{"type":"keyword"},"vk":{"type":"keyword"},"email":{"type":"keyword"},
	"action":{"type":"keyword"},"source":{"type":"keyword"},
	"registered_at":{"type":"date"},"updated_at":{"type":"date"}
}}}`

func EnsureIndexes(ctx context.Context, c *es.Client) error {
	return ensure(ctx, c, IdxTeams, teamsMapping)
}

func ensure(ctx context.Context, c *es.Client, index, body string) error {
	exists, err := c.Indices.Exists([]string{index}, c.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	exists.Body.Close()
	if exists.StatusCode == 200 {
		return nil
	}
	res, err := c.Indices.Create(index, c.Indices.Create.WithBody(strings.NewReader(body)), c.Indices.Create.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", index, res.String())
	}
	return nil
}
