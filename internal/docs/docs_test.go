package docs

import (
	"encoding/json"
	"regexp"
	"testing"
)

func TestSwaggerDoc(t *testing.T) {
	raw := SwaggerInfo.ReadDoc()

	var doc struct {
		Paths       map[string]map[string]json.RawMessage `json:"paths"`
		Definitions map[string]json.RawMessage            `json:"definitions"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("doc is not valid JSON: %v", err)
	}

	for _, route := range []struct{ path, method string }{
		{"/auth/login", "post"},
		{"/budgets", "get"},
		{"/budgets/{budget_id}/periods/{id}/deposit-results", "get"},
		{"/budgets/{budget_id}/periods/{id}/user-results", "get"},
		{"/budgets/{budget_id}/charts/deposits-in-periods", "get"},
		{"/budgets/{budget_id}/expenses", "post"},
	} {
		if _, ok := doc.Paths[route.path][route.method]; !ok {
			t.Errorf("missing %s %s", route.method, route.path)
		}
	}

	for _, m := range regexp.MustCompile(`"#/definitions/([^"]+)"`).FindAllStringSubmatch(raw, -1) {
		if _, ok := doc.Definitions[m[1]]; !ok {
			t.Errorf("unresolved reference %s", m[1])
		}
	}
}
