// Package mock provides a scriptable search engine for tests.
package mock
