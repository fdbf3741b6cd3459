// Package serpapi implements search.Engine against the SerpAPI Google
// search endpoint.
//
// Only the presence of organic results is inspected. The API key is sent as
// a query parameter and is redacted from every error the engine returns.
package serpapi
