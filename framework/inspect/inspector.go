// Package inspect serves a read-mostly JSON view of a container over HTTP.
package inspect

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/km-arc/go-beans/framework/container"
	gohttp "github.com/km-arc/go-beans/framework/http"
	"github.com/km-arc/go-beans/framework/routing"
)

// Bean is the JSON shape of one definition.
type Bean struct {
	ID           string   `json:"id"`
	Lifetime     string   `json:"lifetime"`
	Source       string   `json:"source"`
	Dependencies []string `json:"dependencies"`
	Tags         []string `json:"tags"`
	Resolved     bool     `json:"resolved"`
}

// Graph is the JSON shape of GET /graph.
type Graph struct {
	Order []string            `json:"order"`
	Edges map[string][]string `json:"edges"`
}

// Instance is the JSON shape of a resolved bean.
type Instance struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Inspector exposes c through HTTP handlers.
type Inspector struct {
	c      *container.Container
	logger *slog.Logger
}

func New(c *container.Container, logger *slog.Logger) *Inspector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Inspector{c: c, logger: logger}
}

// Mount registers the inspector routes on r:
//
//	GET    /health
//	GET    /beans
//	GET    /beans/{id}
//	POST   /beans/{id}/resolve
//	DELETE /beans/{id}/instance
//	GET    /graph
func (i *Inspector) Mount(r *routing.Router) {
	r.Get("/health", i.health)
	r.Get("/graph", i.graph)
	r.Prefix("/beans", func(beans *routing.Router) {
		beans.Get("/", i.list)
		beans.Get("/{id}", i.show)
		beans.Post("/{id}/resolve", i.resolve)
		beans.Delete("/{id}/instance", i.evict)
	})
}

func (i *Inspector) health(w http.ResponseWriter, _ *http.Request) {
	gohttp.NewResponse(w).Success("ok")
}

func (i *Inspector) list(w http.ResponseWriter, _ *http.Request) {
	defs := i.c.Definitions()
	out := make([]Bean, 0, len(defs))
	for _, def := range defs {
		out = append(out, i.view(def))
	}
	gohttp.NewResponse(w).Success(out)
}

func (i *Inspector) show(w http.ResponseWriter, req *http.Request) {
	res := gohttp.NewResponse(w)
	id := routing.Param(req, "id")
	def, ok := i.c.Definition(id)
	if !ok {
		res.NotFound(fmt.Sprintf("no bean registered for %q", id))
		return
	}
	res.Success(i.view(def))
}

func (i *Inspector) graph(w http.ResponseWriter, _ *http.Request) {
	res := gohttp.NewResponse(w)
	order, err := i.c.Order()
	if err != nil {
		res.Error(http.StatusConflict, err.Error())
		return
	}
	edges := make(map[string][]string, len(order))
	for _, def := range i.c.Definitions() {
		edges[def.ID] = nonNil(def.Dependencies)
	}
	res.Success(Graph{Order: order, Edges: edges})
}

func (i *Inspector) resolve(w http.ResponseWriter, req *http.Request) {
	res := gohttp.NewResponse(w)
	id := routing.Param(req, "id")

	inst, err := i.c.ResolveContext(req.Context(), id)
	if err != nil {
		if res.ContainerError(err) == http.StatusInternalServerError {
			i.logger.Error("resolve failed", "id", id, "err", err)
		}
		return
	}
	res.Success(Instance{
		ID:    id,
		Type:  fmt.Sprintf("%T", inst),
		Value: fmt.Sprintf("%+v", inst),
	})
}

func (i *Inspector) evict(w http.ResponseWriter, req *http.Request) {
	res := gohttp.NewResponse(w)
	id := routing.Param(req, "id")
	if !i.c.Bound(id) {
		res.NotFound(fmt.Sprintf("no bean registered for %q", id))
		return
	}
	if i.c.Evict(id) {
		i.logger.Info("instance evicted", "id", id)
	}
	res.NoContent()
}

func (i *Inspector) view(def container.Definition) Bean {
	return Bean{
		ID:           def.ID,
		Lifetime:     def.Lifetime.String(),
		Source:       def.Source,
		Dependencies: nonNil(def.Dependencies),
		Tags:         nonNil(i.c.TagsOf(def.ID)),
		Resolved:     i.c.Resolved(def.ID),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
