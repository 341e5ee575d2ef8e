package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/samber/oops"

	"github.com/oksasatya/stockmaster/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

// accountDocument is the searchable projection of an account.
// Credentials and pending codes are never indexed.
type accountDocument struct {
	ID         string `json:"id"`
	LoginID    string `json:"loginId"`
	Email      string `json:"email"`
	IsVerified bool   `json:"isVerified"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type AccountIndexer struct {
	es    *elasticsearch.Client
	index string
}

func NewAccountIndexer(es *elasticsearch.Client, index string) *AccountIndexer {
	return &AccountIndexer{es: es, index: index}
}

func (x *AccountIndexer) Index(ctx context.Context, a *entity.Account) error {
	b, err := json.Marshal(accountDocument{
		ID:         a.ID,
		LoginID:    a.LoginID,
		Email:      a.Email,
		IsVerified: a.IsVerified,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:  a.UpdatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.index, DocumentID: a.ID, Body: bytes.NewReader(b), Refresh: "false"}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		return oops.Code("INDEX_FAILED").With("account_id", a.ID).Wrapf(err, "index account")
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return oops.Code("INDEX_FAILED").With("account_id", a.ID).Errorf("index account: %s", res.Status())
	}
	return nil
}

// Search runs a multi_match over loginId and email.
func (x *AccountIndexer) Search(ctx context.Context, q string, size int) ([]entity.Account, error) {
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"loginId^2", "email"},
			},
		},
		"size": size,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.es.Search(x.es.Search.WithContext(c), x.es.Search.WithIndex(x.index), x.es.Search.WithBody(bytes.NewReader(b)))
	if err != nil {
		return nil, oops.Code("SEARCH_FAILED").Wrapf(err, "search accounts")
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, oops.Code("SEARCH_FAILED").Errorf("search accounts: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source accountDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]entity.Account, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source.toEntity())
	}
	return out, nil
}

func (d accountDocument) toEntity() entity.Account {
	a := entity.Account{ID: d.ID, LoginID: d.LoginID, Email: d.Email, IsVerified: d.IsVerified}
	a.CreatedAt, _ = time.Parse(time.RFC3339Nano, d.CreatedAt)
	a.UpdatedAt, _ = time.Parse(time.RFC3339Nano, d.UpdatedAt)
	return a
}
