package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
