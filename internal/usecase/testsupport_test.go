package usecase

import (
	"context"
	"log/slog"
	"net/url"

	"figures-hub/internal/domain"
)

// fakeAPI is an in-memory domain.FigureAPI keyed by request path.
type fakeAPI struct {
	responses   map[string][]byte
	errs        map[string]error
	queries     []apiCall
	mutations   []apiCall
	invalidated [][]string
}

type apiCall struct {
	path   string
	query  url.Values
	method string
	body   any
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		responses: map[string][]byte{
			"me/providers": []byte(`[
				{"id": "fts", "name": "FTS", "prefix": "fts"},
				{"id": "reliefweb", "name": "ReliefWeb", "prefix": "rw"}
			]`),
		},
		errs: map[string]error{},
	}
}

func (f *fakeAPI) Query(_ context.Context, path string, query url.Values, _ bool) ([]byte, error) {
	f.queries = append(f.queries, apiCall{path: path, query: query})
	if err, failing := f.errs[path]; failing {
		return nil, err
	}
	return f.responses[path], nil
}

func (f *fakeAPI) Mutate(_ context.Context, path string, body any, method string) ([]byte, error) {
	f.mutations = append(f.mutations, apiCall{path: path, method: method, body: body})
	if err, failing := f.errs[path]; failing {
		return nil, err
	}
	return f.responses[path], nil
}

func (f *fakeAPI) Namespace() string {
	return "keyfigures"
}

func (f *fakeAPI) InvalidateTags(_ context.Context, tags []string) error {
	f.invalidated = append(f.invalidated, tags)
	return nil
}

// lastQuery returns the most recent query call.
func (f *fakeAPI) lastQuery() apiCall {
	return f.queries[len(f.queries)-1]
}

// queryTo returns the most recent query issued to the path. Some
// operations follow the main fetch with a provider lookup, so the last
// recorded call is not always the one under test.
func (f *fakeAPI) queryTo(path string) apiCall {
	for i := len(f.queries) - 1; i >= 0; i-- {
		if f.queries[i].path == path {
			return f.queries[i]
		}
	}
	return apiCall{}
}

var _ domain.FigureAPI = (*fakeAPI)(nil)

func newTestFigures(api *fakeAPI) *Figures {
	registry := NewProviderRegistry(api, slog.Default())
	return NewFigures(api, registry, slog.Default())
}

func newTestPresences(api *fakeAPI) *Presences {
	registry := NewProviderRegistry(api, slog.Default())
	return NewPresences(api, registry, slog.Default())
}
