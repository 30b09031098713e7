package holly

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"gotest.tools/assert"
)

func newTestGuardianClient(searchURL string) *GuardianClient {
	client := NewGuardianClient("test-key")
	client.searchURL = searchURL
	return client
}

func TestHeadlinesWithCategoryTopic(t *testing.T) {
	var query url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(`{"response":{"status":"ok","results":[{"webTitle":"Chips keep shrinking","webUrl":"https://example.com/chips"},{"webTitle":"New battery tech","webUrl":"https://example.com/battery"}]}}`))
	}))
	defer srv.Close()

	now := time.Date(2021, time.March, 14, 15, 9, 0, 0, time.UTC)
	client := newTestGuardianClient(srv.URL)
	result := client.Headlines(context.Background(), "technology", now)

	assert.Equal(t, query.Get("from-date"), "2021-03-13")
	assert.Equal(t, query.Get("order-by"), "newest")
	assert.Equal(t, query.Get("page-size"), "5")
	assert.Equal(t, query.Get("api-key"), "test-key")
	assert.Equal(t, query.Get("q"), "technology")
	assert.Equal(t, query.Get("tag"), "technology/technology")

	assert.Equal(t, len(result.Articles), 2)
	assert.Equal(t, result.Articles[0].Title, "Chips keep shrinking")
	assert.Equal(t, result.Articles[0].URL, "https://example.com/chips")
	assert.Equal(t, result.Text, "Getting the latest news about technology from yesterday from The Guardian. Headline number 1: Chips keep shrinking. Headline number 2: New battery tech. Would you like me to provide the URLs to see the full articles?")
}

func TestHeadlinesWithFreeTextTopic(t *testing.T) {
	var query url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(`{"response":{"status":"ok","results":[{"webTitle":"A","webUrl":"u"}]}}`))
	}))
	defer srv.Close()

	client := newTestGuardianClient(srv.URL)
	client.Headlines(context.Background(), "space travel", time.Now())

	assert.Equal(t, query.Get("q"), "space travel")
	assert.Equal(t, query.Get("tag"), "")
}

func TestHeadlinesWithoutTopic(t *testing.T) {
	var query url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(`{"response":{"status":"ok","results":[{"webTitle":"A","webUrl":"u"}]}}`))
	}))
	defer srv.Close()

	client := newTestGuardianClient(srv.URL)
	result := client.Headlines(context.Background(), "", time.Now())

	assert.Equal(t, query.Get("q"), "")
	assert.Assert(t, strings.HasPrefix(result.Text, "Here are the top headlines from yesterday from The Guardian:"), "text: %s", result.Text)
}

func TestHeadlinesNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":{"status":"ok","results":[]}}`))
	}))
	defer srv.Close()

	client := newTestGuardianClient(srv.URL)
	result := client.Headlines(context.Background(), "technology", time.Now())

	assert.Equal(t, result.Text, "I couldn't find any news headlines for that topic from yesterday.")
	assert.Equal(t, len(result.Articles), 0)
	assert.Assert(t, result.Articles != nil)
}

func TestHeadlinesBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":{"status":"error"}}`))
	}))
	defer srv.Close()

	client := newTestGuardianClient(srv.URL)
	result := client.Headlines(context.Background(), "", time.Now())

	assert.Equal(t, result.Text, "I couldn't fetch any news headlines at the moment.")
	assert.Equal(t, len(result.Articles), 0)
}

func TestHeadlinesTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := newTestGuardianClient(srv.URL)
	result := client.Headlines(context.Background(), "", time.Now())

	assert.Assert(t, strings.HasPrefix(result.Text, "Sorry, I had trouble getting the news. The error was:"), "text: %s", result.Text)
	assert.Equal(t, len(result.Articles), 0)
}

func TestHeadlinesMissingAPIKey(t *testing.T) {
	client := NewGuardianClient("")
	result := client.Headlines(context.Background(), "technology", time.Now())

	assert.Equal(t, result.Text, "Please set your Guardian API key.")
	assert.Equal(t, len(result.Articles), 0)
	assert.Assert(t, result.Articles != nil)
}
