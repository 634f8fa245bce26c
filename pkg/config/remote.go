package config

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"llmbridge/pkg/logger"
)

// DefaultPollInterval is used when remote.poll_interval is unset.
const DefaultPollInterval = 60 * time.Second

// AliasSetter is implemented by anything that accepts model alias updates.
// RemoteManager pushes aliases through it after each successful fetch,
// keeping the manager package decoupled from this one.
type AliasSetter interface {
	SetAlias(alias, model string)
}

// RemoteAliases is the document served by the remote origin.
type RemoteAliases struct {
	ModelAliases map[string]string `json:"model_aliases"` // empty values are ignored
	UpdatedAt    string            `json:"updated_at"`
}

// RemoteManager polls a remote JSON document for model alias updates.
type RemoteManager struct {
	current  atomic.Value // underlying type is *RemoteAliases
	url      string
	interval time.Duration
	client   *http.Client
	setter   AliasSetter
}

// NewRemoteManager initialises a new RemoteManager. setter may be nil.
func NewRemoteManager(url string, interval time.Duration, setter AliasSetter) *RemoteManager {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	rm := &RemoteManager{
		url:      url,
		interval: interval,
		setter:   setter,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	rm.current.Store(&RemoteAliases{})
	return rm
}

// RemoteFromConfig builds a RemoteManager from the remote.* keys. It returns
// nil when remote.url is empty.
func RemoteFromConfig(src Source, setter AliasSetter) *RemoteManager {
	url := String(src, "remote.url", "")
	if url == "" {
		return nil
	}
	return NewRemoteManager(url, Duration(src, "remote.poll_interval", DefaultPollInterval), setter)
}

// Start fetches once, then keeps polling in the background until ctx is done.
func (rm *RemoteManager) Start(ctx context.Context) {
	if err := rm.Fetch(ctx); err != nil {
		logger.Error("remote aliases initial fetch failed", "error", err)
	}

	go func() {
		ticker := time.NewTicker(rm.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := rm.Fetch(ctx); err != nil {
					logger.Error("remote aliases fetch error", "error", err)
				}
			}
		}
	}()
}

// Fetch retrieves the remote document once and applies it.
func (rm *RemoteManager) Fetch(ctx context.Context) error {
	if rm.url == "" {
		return fmt.Errorf("remote alias URL is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rm.url, nil)
	if err != nil {
		return err
	}

	resp, err := rm.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var doc RemoteAliases
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("decode remote aliases: %w", err)
	}

	rm.current.Store(&doc)
	logger.Info("remote aliases updated", "count", len(doc.ModelAliases), "updated_at", doc.UpdatedAt)

	rm.apply(doc.ModelAliases)
	return nil
}

// apply skips empty values so an alias is never cleared remotely.
func (rm *RemoteManager) apply(aliases map[string]string) {
	if rm.setter == nil {
		return
	}
	for alias, model := range aliases {
		if alias == "" || model == "" {
			continue
		}
		rm.setter.SetAlias(alias, model)
		logger.Debug("remote alias applied", "alias", alias, "model", model)
	}
}

// Current returns the last fetched document.
func (rm *RemoteManager) Current() *RemoteAliases {
	val := rm.current.Load()
	if val == nil {
		return &RemoteAliases{}
	}
	return val.(*RemoteAliases)
}
