package router

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/kodhe/router/internal/artifact"
	"github.com/kodhe/router/internal/observability/logging"
)

// The on-disk snapshot is a JSON document wrapped in a fixed textual
// envelope so the artifact is self-identifying and trivially versioned.
const (
	cacheEnvelopeHeader = "----- ROUTE CACHE v1 -----"
	cacheEnvelopeFooter = "----- END ROUTE CACHE -----"
)

// snapshotRoute is the serialized form of one route. Only the fields
// that survive a cache cycle are stored; inline actions carry a null
// action placeholder and are skipped entirely on load.
type snapshotRoute struct {
	Method     string   `json:"method"`
	URI        string   `json:"uri"`
	Middleware []string `json:"middleware,omitempty"`
	Name       string   `json:"name,omitempty"`
	Namespace  string   `json:"namespace,omitempty"`
	ActionType string   `json:"action_type"`
	Action     *string  `json:"action"`
}

// snapshotFile is the cache artifact payload.
type snapshotFile struct {
	Routes    []snapshotRoute `json:"routes"`
	Total     int             `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}

// SaveSnapshot serializes the route table to the cache artifact using an
// atomic temp-write-then-rename.
func (c *Collection) SaveSnapshot(path string) error {
	c.mu.RLock()
	routes := c.routes
	c.mu.RUnlock()

	snapshot := snapshotFile{
		Routes:    make([]snapshotRoute, 0, len(routes)),
		CreatedAt: time.Now().UTC(),
	}

	for _, route := range routes {
		entry := snapshotRoute{
			Method:     route.Method,
			URI:        route.URI,
			Middleware: route.GetMiddleware(),
			Name:       route.GetName(),
			Namespace:  route.GetNamespace(),
			ActionType: string(route.Action.Type),
		}
		if route.Action.Serializable() {
			name := route.Action.Name
			entry.Action = &name
		}
		snapshot.Routes = append(snapshot.Routes, entry)
	}
	snapshot.Total = len(snapshot.Routes)

	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize route snapshot: %w", err)
	}

	return artifact.Write(path, cacheEnvelopeHeader, cacheEnvelopeFooter, payload)
}

// LoadSnapshot rehydrates the route table from the cache artifact.
// Loading is disabled outside production deployments. A missing artifact
// is a cache miss; a corrupt artifact is also a cache miss and the stale
// file is deleted. Entries whose action could not be restored (inline
// actions) are skipped. Returns the number of routes restored.
func (c *Collection) LoadSnapshot(path string, production bool, patterns *PatternTable, logger *logging.Logger) (int, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if !production {
		return 0, nil
	}

	payload, ok, err := artifact.Read(path, cacheEnvelopeHeader, cacheEnvelopeFooter)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}

	var snapshot snapshotFile
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		logger.Warn("route cache is corrupt; treating as cache miss",
			logging.Path(path),
			logging.Err(err),
		)
		_ = os.Remove(path)
		return 0, nil
	}

	restored := 0
	for _, entry := range snapshot.Routes {
		if ActionType(entry.ActionType) != ActionNamed || entry.Action == nil {
			// Inline actions do not survive a cache cycle.
			continue
		}

		route := NewRoute(entry.Method, entry.URI, NamedAction(*entry.Action), patterns)
		if len(entry.Middleware) > 0 {
			route.Middleware(entry.Middleware...)
		}
		if entry.Name != "" {
			route.Name(entry.Name)
		}
		if entry.Namespace != "" {
			route.Prefix(entry.Namespace)
		}
		c.Add(route)
		restored++
	}

	logger.Info("route table restored from cache",
		logging.Path(path),
		logging.Int("routes", restored),
		logging.Int("skipped", snapshot.Total-restored),
	)
	return restored, nil
}
