package sink

import (
	"context"
	"fmt"
	"io"
	"strconv"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"

	"github.com/sirdesai22/regdesk/internal/elastic"
	"github.com/sirdesai22/regdesk/internal/models"
)

// Elastic indexes each team as one document in teams_v1, keyed by team id.
type Elastic struct {
	client *es.Client
}

func NewElastic(c *es.Client) *Elastic { return &Elastic{client: c} }

func (e *Elastic) Name() string { return "elastic" }

func (e *Elastic) Configured() bool { return e.client != nil }

func (e *Elastic) Deliver(ctx context.Context, env models.Envelope) error {
	id := strconv.FormatInt(env.Data.ID, 10)
	res, err := e.client.Index(elastic.IdxTeams, esutil.NewJSONReader(elastic.BuildTeamDoc(env)),
		e.client.Index.WithDocumentID(id),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	if res.IsError() {
		return fmt.Errorf("index team %s: %s", id, res.Status())
	}
	return nil
}
