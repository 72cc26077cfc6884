package router

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// APIDoc serves a Swagger 2.0 document listing the versioned API routes.
// It satisfies swag.Swagger so gin-swagger can expose it as doc.json.
type APIDoc struct {
	router  *Router
	title   string
	version string

	once sync.Once
	doc  string
}

// NewAPIDoc describes the routes of r; call it after r.Setup
func NewAPIDoc(r *Router, title, version string) *APIDoc {
	return &APIDoc{router: r, title: title, version: version}
}

type swaggerParam struct {
	Name     string `json:"name"`
	In       string `json:"in"`
	Required bool   `json:"required"`
	Type     string `json:"type"`
}

type swaggerOperation struct {
	Tags       []string                     `json:"tags"`
	Parameters []swaggerParam               `json:"parameters,omitempty"`
	Security   []map[string][]string        `json:"security,omitempty"`
	Responses  map[string]map[string]string `json:"responses"`
}

// ReadDoc renders the document once; routes do not change after Setup
func (d *APIDoc) ReadDoc() string {
	d.once.Do(func() {
		d.doc = d.render()
	})
	return d.doc
}

func (d *APIDoc) render() string {
	base := d.router.BasePath()
	paths := map[string]map[string]swaggerOperation{}

	for _, rt := range d.router.Routes() {
		if !strings.HasPrefix(rt.Path, base+"/") {
			continue
		}
		rel := strings.TrimPrefix(rt.Path, base)
		path, params := swaggerPath(rel)

		op := swaggerOperation{
			Tags:       []string{strings.SplitN(strings.TrimPrefix(rel, "/"), "/", 2)[0]},
			Parameters: params,
			Responses:  map[string]map[string]string{strconv.Itoa(http.StatusOK): {"description": "OK"}},
		}
		if !isPublicPath(rel) {
			op.Security = []map[string][]string{{"BearerAuth": {}}}
		}
		if paths[path] == nil {
			paths[path] = map[string]swaggerOperation{}
		}
		paths[path][strings.ToLower(rt.Method)] = op
	}

	doc := map[string]any{
		"swagger":  "2.0",
		"info":     map[string]string{"title": d.title, "version": d.version},
		"basePath": base,
		"securityDefinitions": map[string]any{
			"BearerAuth": map[string]string{"type": "apiKey", "in": "header", "name": "Authorization"},
		},
		"paths": paths,
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return "{}"
	}
	return string(out)
}

// swaggerPath turns /customers/:id into /customers/{id} and lists the params
func swaggerPath(path string) (string, []swaggerParam) {
	segments := strings.Split(path, "/")
	var params []swaggerParam
	for i, seg := range segments {
		if strings.HasPrefix(seg, ":") || strings.HasPrefix(seg, "*") {
			name := seg[1:]
			segments[i] = "{" + name + "}"
			params = append(params, swaggerParam{Name: name, In: "path", Required: true, Type: "string"})
		}
	}
	return strings.Join(segments, "/"), params
}

func isPublicPath(rel string) bool {
	switch rel {
	case "/auth/login", "/system/info", "/system/health":
		return true
	}
	return false
}
