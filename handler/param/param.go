package param

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/schema"
)

var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
	decoder.SetAliasTag("json")
}

// Binding decode request parameters into v: query string for bodyless
// methods, json body otherwise.
func Binding(r *http.Request, v interface{}) error {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return decoder.Decode(v, r.URL.Query())
	default:
		defer r.Body.Close()
		return json.NewDecoder(r.Body).Decode(v)
	}
}
