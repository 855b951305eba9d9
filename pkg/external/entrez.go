package external

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// EntrezClient handles interactions with NCBI E-utilities. It is shared by
// the PubMed, Cochrane and systematic-review adapters, which differ only in
// the search filter they apply.
type EntrezClient struct {
	baseURL    string
	apiKey     string
	email      string // Required by NCBI for large-scale queries
	httpClient *http.Client
	limiter    *rate.Limiter
}

// EntrezConfig contains configuration for the E-utilities client.
type EntrezConfig struct {
	BaseURL   string
	APIKey    string
	Email     string
	Timeout   time.Duration
	RateLimit int // requests per second
}

// NewEntrezClient creates a new E-utilities client. NCBI allows 3 req/s
// without an API key and 10 req/s with one; the default stays on the safe
// side of the anonymous limit.
func NewEntrezClient(config EntrezConfig) *EntrezClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"
	}
	if config.RateLimit == 0 {
		config.RateLimit = 3
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}

	return &EntrezClient{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		email:   config.Email,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

type entrezSearchResponse struct {
	XMLName xml.Name `xml:"eSearchResult"`
	Count   int      `xml:"Count"`
	IDList  struct {
		IDs []string `xml:"Id"`
	} `xml:"IdList"`
}

type entrezFetchResponse struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []entrezArticle `xml:"PubmedArticle"`
}

type entrezArticle struct {
	MedlineCitation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			ArticleTitle string `xml:"ArticleTitle"`
			Abstract     struct {
				AbstractText []string `xml:"AbstractText"`
			} `xml:"Abstract"`
			AuthorList struct {
				Authors []struct {
					LastName string `xml:"LastName"`
					ForeName string `xml:"ForeName"`
				} `xml:"Author"`
			} `xml:"AuthorList"`
			Journal struct {
				Title        string `xml:"Title"`
				JournalIssue struct {
					PubDate struct {
						Year  string `xml:"Year"`
						Month string `xml:"Month"`
					} `xml:"PubDate"`
				} `xml:"JournalIssue"`
			} `xml:"Journal"`
		} `xml:"Article"`
		MeshHeadingList struct {
			Headings []struct {
				DescriptorName string `xml:"DescriptorName"`
			} `xml:"MeshHeading"`
		} `xml:"MeshHeadingList"`
	} `xml:"MedlineCitation"`
	PubmedData struct {
		ArticleIDs struct {
			IDs []struct {
				IDType string `xml:"IdType,attr"`
				Value  string `xml:",chardata"`
			} `xml:"ArticleId"`
		} `xml:"ArticleIdList"`
	} `xml:"PubmedData"`
}

// EntrezArticle is the parsed, flattened form of one fetched article.
type EntrezArticle struct {
	PMID      string
	PMCID     string
	DOI       string
	Title     string
	Abstract  string
	Authors   []string
	Journal   string
	Year      int
	MeshTerms []string
}

// Search runs esearch against the given database and returns up to retmax
// matching IDs.
func (c *EntrezClient) Search(ctx context.Context, db, term string, retmax int) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"db":      {db},
		"term":    {term},
		"retmode": {"xml"},
		"retmax":  {strconv.Itoa(retmax)},
		"sort":    {"relevance"},
	}
	c.applyCredentials(params)

	body, err := c.get(ctx, c.baseURL+"esearch.fcgi", params)
	if err != nil {
		return nil, fmt.Errorf("entrez search: %w", err)
	}

	var response entrezSearchResponse
	if err := xml.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("parsing entrez search response: %w", err)
	}
	return response.IDList.IDs, nil
}

// FetchArticles runs efetch for the given PMIDs and returns the parsed
// articles with abstracts and MeSH indexing.
func (c *EntrezClient) FetchArticles(ctx context.Context, db string, ids []string) ([]EntrezArticle, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"db":      {db},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"xml"},
	}
	c.applyCredentials(params)

	body, err := c.get(ctx, c.baseURL+"efetch.fcgi", params)
	if err != nil {
		return nil, fmt.Errorf("entrez fetch: %w", err)
	}

	var response entrezFetchResponse
	if err := xml.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("parsing entrez fetch response: %w", err)
	}

	articles := make([]EntrezArticle, 0, len(response.Articles))
	for _, raw := range response.Articles {
		articles = append(articles, flattenEntrezArticle(raw))
	}
	return articles, nil
}

func (c *EntrezClient) applyCredentials(params url.Values) {
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	if c.email != "" {
		params.Set("email", c.email)
	}
}

func (c *EntrezClient) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func flattenEntrezArticle(raw entrezArticle) EntrezArticle {
	article := EntrezArticle{
		PMID:     raw.MedlineCitation.PMID,
		Title:    raw.MedlineCitation.Article.ArticleTitle,
		Abstract: strings.Join(raw.MedlineCitation.Article.Abstract.AbstractText, " "),
		Journal:  raw.MedlineCitation.Article.Journal.Title,
	}

	if year, err := strconv.Atoi(raw.MedlineCitation.Article.Journal.JournalIssue.PubDate.Year); err == nil {
		article.Year = year
	}

	for _, author := range raw.MedlineCitation.Article.AuthorList.Authors {
		name := strings.TrimSpace(author.ForeName + " " + author.LastName)
		if name != "" {
			article.Authors = append(article.Authors, name)
		}
	}

	for _, heading := range raw.MedlineCitation.MeshHeadingList.Headings {
		if heading.DescriptorName != "" {
			article.MeshTerms = append(article.MeshTerms, heading.DescriptorName)
		}
	}

	for _, id := range raw.PubmedData.ArticleIDs.IDs {
		switch id.IDType {
		case "doi":
			article.DOI = strings.TrimSpace(id.Value)
		case "pmc":
			article.PMCID = strings.TrimSpace(id.Value)
		}
	}
	return article
}
