package elastic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/stockmaster/internal/domain/entity"
)

func newTestIndexer(t *testing.T, h http.HandlerFunc) *AccountIndexer {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewAccountIndexer(es, "accounts")
}

func TestAccountIndexer_Index(t *testing.T) {
	var (
		gotPath string
		gotBody map[string]any
	)
	x := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	})

	otp := "123456"
	a := &entity.Account{ID: "abc", LoginID: "alice01", Email: "a@x.com", PasswordHash: "secret-hash", EmailOTP: &otp, CreatedAt: time.Now()}
	require.NoError(t, x.Index(context.Background(), a))

	assert.Equal(t, "/accounts/_doc/abc", gotPath)
	assert.Equal(t, "alice01", gotBody["loginId"])
	assert.NotContains(t, gotBody, "password")
	assert.NotContains(t, gotBody, "emailOtp")
}

func TestAccountIndexer_IndexErrorStatus(t *testing.T) {
	x := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"mapper_parsing_exception"}`)
	})

	err := x.Index(context.Background(), &entity.Account{ID: "abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestAccountIndexer_Search(t *testing.T) {
	var gotQuery string
	x := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotQuery = string(b)
		_, _ = io.WriteString(w, `{"hits":{"hits":[
			{"_id":"1","_source":{"id":"1","loginId":"alice01","email":"a@x.com","isVerified":true}},
			{"_id":"2","_source":{"id":"2","loginId":"alicia2","email":"b@x.com","isVerified":false}}
		]}}`)
	})

	got, err := x.Search(context.Background(), "ali", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alice01", got[0].LoginID)
	assert.True(t, got[0].IsVerified)
	assert.Equal(t, "b@x.com", got[1].Email)
	assert.True(t, strings.Contains(gotQuery, `"size":5`))
}
