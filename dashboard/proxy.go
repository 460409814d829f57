package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/andyle182810/orchestrator-dashboard/apiclient"
	"github.com/andyle182810/orchestrator-dashboard/middleware"
	"github.com/rs/zerolog/log"
)

type ProxyConfig struct {
	// Origin is the orchestrator backend, without the /api/v1 prefix.
	Origin    string
	APIKey    string
	Transport http.RoundTripper
}

// NewProxy forwards browser calls under /api to the orchestrator unchanged,
// so the page can call the backend through its own origin. The static API key
// and the request ID are attached on the way out.
func NewProxy(cfg ProxyConfig) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(cfg.Origin)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy origin %q: %w", cfg.Origin, err)
	}

	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid proxy origin %q: scheme and host are required", cfg.Origin) //nolint:err113
	}

	return &httputil.ReverseProxy{ //nolint:exhaustruct
		Rewrite: func(req *httputil.ProxyRequest) {
			req.SetURL(target)
			req.SetXForwarded()

			if cfg.APIKey != "" {
				req.Out.Header.Set(apiclient.HeaderXAPIKey, cfg.APIKey)
			}

			if id := middleware.RequestIDFromContext(req.In.Context()); id != "" {
				req.Out.Header.Set(apiclient.HeaderXRequestID, id)
			}
		},
		Transport:    cfg.Transport,
		ErrorHandler: proxyErrorHandler,
	}, nil
}

func proxyErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	log.Error().
		Err(err).
		Str("path", r.URL.Path).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Msg("Failed to proxy request to orchestrator")

	w.Header().Set(apiclient.HeaderContentType, apiclient.ContentTypeJSON)
	w.WriteHeader(http.StatusBadGateway)

	_ = json.NewEncoder(w).Encode(apiclient.APIError{
		Error: "orchestrator API is unreachable",
		Code:  middleware.CodeUpstreamFailed,
	})
}
