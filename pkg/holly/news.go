package holly

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ilikeorangutans/holly/pkg/predicates"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	newsTriggerWords = []string{"on", "about", "relating to", "for"}

	// topics with a matching Guardian section tag
	newsCategoryTags = []string{"politics", "technology", "sports", "science", "business"}
)

const defaultGuardianURL = "https://content.guardianapis.com/search"

// NewsLookup retrieves recent headlines for a topic. An empty topic means
// top headlines.
type NewsLookup interface {
	Headlines(ctx context.Context, topic string, now time.Time) NewsResult
}

type Article struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type NewsResult struct {
	Text     string
	Articles []Article
}

type NewsResponse struct {
	Response
	Articles []Article `json:"articles"`
}

func AddNewsHandler(a *Assistant, news NewsLookup) {
	a.On(
		func(ctx context.Context, cmd Command) (Payload, error) {
			result := news.Headlines(ctx, extractTopic(cmd), cmd.Now)

			articles := result.Articles
			if articles == nil {
				articles = []Article{}
			}

			return NewsResponse{
				Response: Response{Text: result.Text, Type: "news"},
				Articles: articles,
			}, nil
		},
		predicates.ContainsAny("news"),
	)
}

// extractTopic looks for the first trigger word surrounded by spaces and
// returns everything after the word's first occurrence, trimmed. The first
// occurrence may be inside another word ("london news on x" yields
// "don news on x"); clients grew up with that behaviour, keep it.
func extractTopic(cmd Command) string {
	for _, word := range newsTriggerWords {
		if !strings.Contains(cmd.Lowered, " "+word+" ") {
			continue
		}
		idx := strings.Index(cmd.Lowered, word)
		return strings.TrimSpace(cmd.Raw[idx+len(word):])
	}

	return ""
}

func NewGuardianClient(apiKey string) *GuardianClient {
	return &GuardianClient{
		apiKey:     apiKey,
		searchURL:  defaultGuardianURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     log.With().Str("component", "news").Logger(),
	}
}

type GuardianClient struct {
	apiKey     string
	searchURL  string
	httpClient *http.Client
	logger     zerolog.Logger
}

// Headlines searches the Guardian for articles published since yesterday,
// newest first, capped at five.
func (c *GuardianClient) Headlines(ctx context.Context, topic string, now time.Time) NewsResult {
	if c.apiKey == "" {
		return NewsResult{Text: "Please set your Guardian API key.", Articles: []Article{}}
	}

	params := url.Values{}
	params.Set("from-date", now.AddDate(0, 0, -1).Format("2006-01-02"))
	params.Set("order-by", "newest")
	params.Set("page-size", "5")
	params.Set("api-key", c.apiKey)

	intro := "Here are the top headlines from yesterday from The Guardian:"
	if topic != "" {
		params.Set("q", topic)
		if tag := categoryTag(topic); tag != "" {
			params.Set("tag", tag+"/"+tag)
		}
		intro = fmt.Sprintf("Getting the latest news about %s from yesterday from The Guardian.", topic)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return c.transportError(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.transportError(fmt.Errorf("news API returned %s", resp.Status))
	}

	var search guardianResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return c.transportError(fmt.Errorf("unable to parse news response: %w", err))
	}

	if search.Response.Status != "ok" {
		return NewsResult{Text: "I couldn't fetch any news headlines at the moment.", Articles: []Article{}}
	}
	if len(search.Response.Results) == 0 {
		return NewsResult{Text: "I couldn't find any news headlines for that topic from yesterday.", Articles: []Article{}}
	}

	articles := make([]Article, 0, len(search.Response.Results))
	headlines := make([]string, 0, len(search.Response.Results))
	for i, result := range search.Response.Results {
		articles = append(articles, Article{Title: result.WebTitle, URL: result.WebURL})
		headlines = append(headlines, fmt.Sprintf("Headline number %d: %s", i+1, result.WebTitle))
	}

	return NewsResult{
		Text:     fmt.Sprintf("%s %s. Would you like me to provide the URLs to see the full articles?", intro, strings.Join(headlines, ". ")),
		Articles: articles,
	}
}

func (c *GuardianClient) transportError(err error) NewsResult {
	c.logger.Error().Err(err).Msg("fetching headlines failed")
	return NewsResult{
		Text:     fmt.Sprintf("Sorry, I had trouble getting the news. The error was: %s.", err),
		Articles: []Article{},
	}
}

func categoryTag(topic string) string {
	lowered := strings.ToLower(topic)
	for _, tag := range newsCategoryTags {
		if lowered == tag {
			return tag
		}
	}

	return ""
}

type guardianResponse struct {
	Response struct {
		Status  string `json:"status"`
		Results []struct {
			WebTitle string `json:"webTitle"`
			WebURL   string `json:"webUrl"`
		} `json:"results"`
	} `json:"response"`
}
