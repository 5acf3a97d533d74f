package handler

import (
	"context"
	"log/slog"
	"net/url"

	"figures-hub/internal/domain"
	"figures-hub/internal/usecase"
)

// stubAPI is an in-memory domain.FigureAPI keyed by request path.
type stubAPI struct {
	responses   map[string][]byte
	errs        map[string]error
	queries     []stubCall
	invalidated [][]string
}

type stubCall struct {
	path  string
	query url.Values
}

func newStubAPI() *stubAPI {
	return &stubAPI{
		responses: map[string][]byte{
			"me/providers": []byte(`[{"id": "fts", "name": "FTS", "prefix": "fts"}]`),
		},
		errs: map[string]error{},
	}
}

func (s *stubAPI) Query(_ context.Context, path string, query url.Values, _ bool) ([]byte, error) {
	s.queries = append(s.queries, stubCall{path: path, query: query})
	if err, failing := s.errs[path]; failing {
		return nil, err
	}
	return s.responses[path], nil
}

// lastQueryTo returns the most recent query issued to the path.
func (s *stubAPI) lastQueryTo(path string) stubCall {
	for i := len(s.queries) - 1; i >= 0; i-- {
		if s.queries[i].path == path {
			return s.queries[i]
		}
	}
	return stubCall{}
}

func (s *stubAPI) Mutate(_ context.Context, path string, _ any, _ string) ([]byte, error) {
	if err, failing := s.errs[path]; failing {
		return nil, err
	}
	return s.responses[path], nil
}

func (s *stubAPI) Namespace() string {
	return "keyfigures"
}

func (s *stubAPI) InvalidateTags(_ context.Context, tags []string) error {
	s.invalidated = append(s.invalidated, tags)
	return nil
}

func newStubFigures(api *stubAPI) *usecase.Figures {
	registry := usecase.NewProviderRegistry(api, slog.Default())
	return usecase.NewFigures(api, registry, slog.Default())
}

var _ domain.FigureAPI = (*stubAPI)(nil)
