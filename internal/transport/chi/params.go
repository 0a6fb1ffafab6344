package chi

import (
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/docsearch/internal/domain"
)

// pathParam binds a simple-style path parameter, unescaping it.
func pathParam(r *http.Request, name string) (string, error) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, gochi.URLParam(r, name), &v,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
	if err != nil {
		return "", domain.Invalid("invalid format for parameter %s", name)
	}
	return v, nil
}

// queryList binds an optional comma separated query parameter (?fields=a,b).
func queryList(r *http.Request, name string) ([]string, error) {
	var v []string
	if err := runtime.BindQueryParameter("form", false, false, name, r.URL.Query(), &v); err != nil {
		return nil, domain.Invalid("invalid format for parameter %s", name)
	}
	return v, nil
}

// pathParams binds several path parameters in order.
func pathParams(r *http.Request, names ...string) ([]string, error) {
	out := make([]string, len(names))
	for i, name := range names {
		v, err := pathParam(r, name)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
