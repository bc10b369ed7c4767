package openapi2mcp

import (
	"regexp"
	"testing"
)

const multiMethodYAML = `
openapi: 3.0.3
info:
  title: Ordering
  version: 1.0.0
paths:
  /b:
    delete:
      operationId: deleteB
      responses:
        '204':
          description: No content
    get:
      operationId: getB
      responses:
        '200':
          description: OK
    post:
      operationId: postB
      responses:
        '201':
          description: Created
  /a:
    put:
      operationId: putA
      responses:
        '200':
          description: OK
    get:
      operationId: getA
      responses:
        '200':
          description: OK
`

func opIDs(ops []OpenAPIOperation) []string {
	ids := make([]string, 0, len(ops))
	for _, op := range ops {
		ids = append(ids, op.OperationID)
	}
	return ids
}

func TestExtractOperationsDeterministicOrder(t *testing.T) {
	doc, err := LoadOpenAPISpecFromString(multiMethodYAML)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"getA", "putA", "getB", "postB", "deleteB"}
	for i := 0; i < 5; i++ {
		ops, issues := ExtractOpenAPIOperations(doc)
		if len(issues) != 0 {
			t.Fatalf("unexpected issues: %v", issues)
		}
		got := opIDs(ops)
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("run %d: expected order %v, got %v", i, want, got)
			}
		}
	}
}

func TestExtractOperationsSkipsDeprecated(t *testing.T) {
	doc, err := LoadOpenAPISpecFromString(`
openapi: 3.0.3
info:
  title: Deprecated
  version: 1.0.0
paths:
  /old:
    get:
      operationId: oldOp
      deprecated: true
      responses:
        '200':
          description: OK
  /new:
    get:
      operationId: newOp
      responses:
        '200':
          description: OK
`)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ops, _ := ExtractOpenAPIOperations(doc)
	ids := opIDs(ops)
	if len(ids) != 1 || ids[0] != "newOp" {
		t.Errorf("expected deprecated operation to be skipped, got %v", ids)
	}
}

func TestExtractOperationsMissingOperationID(t *testing.T) {
	doc, err := LoadOpenAPISpecFromString(`
openapi: 3.0.3
info:
  title: NoID
  version: 1.0.0
paths:
  /pets/{id}:
    get:
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: string
      responses:
        '200':
          description: OK
`)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ops, _ := ExtractOpenAPIOperations(doc)
	if len(ops) != 1 {
		t.Fatalf("expected 1 operation, got %d", len(ops))
	}
	if ops[0].OperationID != "get_pets_id" {
		t.Errorf("expected synthesized id get_pets_id, got %q", ops[0].OperationID)
	}
}

func TestExtractOperationsBadOperationDoesNotDropOthers(t *testing.T) {
	doc, err := LoadOpenAPISpecFromString(multiMethodYAML)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// Break one operation's parameters after load.
	doc.Paths.Value("/a").Put.Parameters = append(doc.Paths.Value("/a").Put.Parameters, nil)

	ops, issues := ExtractOpenAPIOperations(doc)
	if len(issues) != 1 {
		t.Fatalf("expected 1 extraction issue, got %v", issues)
	}
	if issues[0].Path != "/a" || issues[0].Method != "PUT" {
		t.Errorf("issue should name the broken operation, got %+v", issues[0])
	}
	ids := opIDs(ops)
	if len(ids) != 4 {
		t.Errorf("expected 4 surviving operations, got %v", ids)
	}
	for _, id := range ids {
		if id == "putA" {
			t.Errorf("broken operation should not be extracted")
		}
	}
}

func TestExtractOperationsMergesPathLevelParameters(t *testing.T) {
	doc, err := LoadOpenAPISpecFromString(`
openapi: 3.0.3
info:
  title: Merge
  version: 1.0.0
paths:
  /tenants/{tenant}/items:
    parameters:
      - name: tenant
        in: path
        required: true
        schema:
          type: string
    get:
      operationId: listItems
      parameters:
        - name: limit
          in: query
          schema:
            type: integer
      responses:
        '200':
          description: OK
`)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ops, _ := ExtractOpenAPIOperations(doc)
	if len(ops) != 1 {
		t.Fatalf("expected 1 operation, got %d", len(ops))
	}
	var names []string
	for _, p := range ops[0].Parameters {
		names = append(names, p.Value.Name)
	}
	if len(names) != 2 || names[0] != "tenant" || names[1] != "limit" {
		t.Errorf("expected path-level parameter merged first, got %v", names)
	}
}

func TestExtractOperationsOperationSecurityOverridesGlobal(t *testing.T) {
	doc, err := LoadOpenAPISpecFromString(`
openapi: 3.0.3
info:
  title: Security
  version: 1.0.0
security:
  - oauth: [read]
paths:
  /public:
    get:
      operationId: publicOp
      security: []
      responses:
        '200':
          description: OK
  /private:
    get:
      operationId: privateOp
      responses:
        '200':
          description: OK
components:
  securitySchemes:
    oauth:
      type: oauth2
      flows:
        authorizationCode:
          authorizationUrl: https://idp.example.com/authorize
          tokenUrl: https://idp.example.com/token
          scopes:
            read: Read access
`)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ops, _ := ExtractOpenAPIOperations(doc)
	byID := map[string]OpenAPIOperation{}
	for _, op := range ops {
		byID[op.OperationID] = op
	}
	if operationRequiresAuth(byID["publicOp"]) {
		t.Errorf("empty operation-level security should opt out of auth")
	}
	if !operationRequiresAuth(byID["privateOp"]) {
		t.Errorf("global security should apply when operation is silent")
	}
}

func TestExtractFilteredOperations(t *testing.T) {
	doc, err := LoadOpenAPISpecFromString(`
openapi: 3.0.3
info:
  title: Filter
  version: 1.0.0
paths:
  /a:
    get:
      operationId: adminOp
      description: Admin-only maintenance endpoint
      responses:
        '200':
          description: OK
  /b:
    get:
      operationId: userOp
      description: Regular user endpoint
      responses:
        '200':
          description: OK
`)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ops, _ := ExtractFilteredOpenAPIOperations(doc, regexp.MustCompile(`endpoint`), regexp.MustCompile(`Admin-only`))
	ids := opIDs(ops)
	if len(ids) != 1 || ids[0] != "userOp" {
		t.Errorf("expected include/exclude filters to leave userOp, got %v", ids)
	}
}

func TestSlugForOperation(t *testing.T) {
	cases := []struct {
		method, path, want string
	}{
		{"GET", "/pets/{id}", "get_pets_id"},
		{"POST", "/pets", "post_pets"},
		{"DELETE", "/users/{user-id}/sessions", "delete_users_user_id_sessions"},
	}
	for _, tc := range cases {
		if got := slugForOperation(tc.method, tc.path); got != tc.want {
			t.Errorf("slugForOperation(%s, %s) = %q, want %q", tc.method, tc.path, got, tc.want)
		}
	}
}
