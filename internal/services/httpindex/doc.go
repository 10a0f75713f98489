// Package httpindex talks to staging repositories that publish plain HTTP
// directory listings.
//
// Client wraps net/http with a fixed User-Agent, per-request timeouts and a
// fixed-delay retry loop for transport errors and 408/429/5xx responses.
// Crawler walks listing pages breadth-first from a root URL, following
// sub-directory anchors and collecting file links, while never leaving the
// root and never visiting the same listing twice.
package httpindex
