package orchestrator

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/andyle182810/orchestrator-dashboard/apiclient"
	"github.com/rs/zerolog/log"
)

type Stat struct {
	Resource Resource `json:"resource"`
	Label    string   `json:"label"`
	Count    *int     `json:"count"`
	Error    string   `json:"error,omitempty"`
	Code     string   `json:"code,omitempty"`
}

// Value renders the count the way the stat cards show it.
func (s Stat) Value() string {
	if s.Count == nil {
		return "--"
	}

	return strconv.Itoa(*s.Count)
}

type Overview struct {
	Stats     []Stat    `json:"stats"`
	FetchedAt time.Time `json:"fetched_at"` //nolint:tagliatelle
}

// Connected reports whether at least one collection could be counted.
func (o Overview) Connected() bool {
	for _, stat := range o.Stats {
		if stat.Count != nil {
			return true
		}
	}

	return false
}

func (o Overview) Stat(resource Resource) (Stat, bool) {
	for _, stat := range o.Stats {
		if stat.Resource == resource {
			return stat, true
		}
	}

	return Stat{}, false //nolint:exhaustruct
}

// Overview counts every collection with one independent request each. A
// failed request leaves its count unknown and never fails the overview.
func (c *Client) Overview(ctx context.Context) Overview {
	stats := make([]Stat, len(Resources))

	var wg sync.WaitGroup

	for idx, resource := range Resources {
		wg.Add(1)

		go func() {
			defer wg.Done()

			stats[idx] = c.stat(ctx, resource)
		}()
	}

	wg.Wait()

	return Overview{
		Stats:     stats,
		FetchedAt: time.Now().UTC(),
	}
}

func (c *Client) stat(ctx context.Context, resource Resource) Stat {
	stat := Stat{
		Resource: resource,
		Label:    resource.Label(),
		Count:    nil,
		Error:    "",
		Code:     "",
	}

	count, err := c.Count(ctx, resource)
	if err != nil {
		stat.Error = err.Error()

		if clientErr, ok := apiclient.AsClientError(err); ok {
			stat.Code = clientErr.Code
			stat.Error = clientErr.Message
		}

		log.Warn().
			Err(err).
			Str("resource", string(resource)).
			Str("code", stat.Code).
			Msg("Failed to count orchestrator resource")

		return stat
	}

	stat.Count = &count

	return stat
}
