package customHttpClient

import (
	"net/http"
	"sync"

	"github.com/akolanti/rulebook-rag/internal/config"
)

var (
	once   sync.Once
	pooled *http.Client
)

// GetPooledClient returns one shared client so embedding calls reuse
// connections. Deadlines come from the caller's context.
func GetPooledClient() *http.Client {
	once.Do(func() {
		pooled = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        config.MaxIdleConns,
				MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
				IdleConnTimeout:     config.IdleConnTimeout,
			},
		}
	})
	return pooled
}
