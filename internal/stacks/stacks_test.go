package stacks

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/bookworm-infra-go/internal/template"
)

var testEnv = template.Environment{Account: "123456789012", Region: "eu-west-1"}

const testAssetKey = "assets/0123abcd.zip"

// doc is a template decoded from its JSON form.
type doc map[string]any

func (d doc) resource(t *testing.T, id string) map[string]any {
	t.Helper()
	resources := d["Resources"].(map[string]any)
	r, ok := resources[id]
	require.True(t, ok, "resource %s not found", id)
	return r.(map[string]any)
}

func (d doc) props(t *testing.T, id string) map[string]any {
	t.Helper()
	return d.resource(t, id)["Properties"].(map[string]any)
}

func (d doc) ofType(cfnType string) []string {
	var ids []string
	for id, r := range d["Resources"].(map[string]any) {
		if r.(map[string]any)["Type"] == cfnType {
			ids = append(ids, id)
		}
	}
	return ids
}

func decode(t *testing.T, stack *template.Stack) doc {
	t.Helper()
	tmpl, err := stack.Build()
	require.NoError(t, err)
	data, err := template.ToJSON(tmpl)
	require.NoError(t, err)
	var d doc
	require.NoError(t, json.Unmarshal(data, &d))
	return d
}

func jsonOf(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func newTestShared(t *testing.T) *Shared {
	t.Helper()
	shared, err := NewShared(SharedProps{Env: testEnv, GitHubOrg: "Acme", GitHubRepo: "Bookworm"})
	require.NoError(t, err)
	return shared
}

func newTestApp(t *testing.T, shared *Shared) *App {
	t.Helper()
	app, err := NewApp(AppProps{
		Env:            testEnv,
		Repository:     &shared.Repository,
		AssetsBucket:   shared.AssetsBucket,
		UploadCoverKey: testAssetKey,
	})
	require.NoError(t, err)
	return app
}

// statements returns the policy statements of an IAM policy resource.
func statements(t *testing.T, d doc, id string) []map[string]any {
	t.Helper()
	document := d.props(t, id)["PolicyDocument"].(map[string]any)
	var out []map[string]any
	for _, s := range document["Statement"].([]any) {
		out = append(out, s.(map[string]any))
	}
	return out
}

func actions(statement map[string]any) []string {
	switch a := statement["Action"].(type) {
	case string:
		return []string{a}
	case []any:
		var out []string
		for _, v := range a {
			out = append(out, v.(string))
		}
		return out
	}
	return nil
}

func TestAssembly_StackDependencies(t *testing.T) {
	shared := newTestShared(t)
	ide, err := NewIDE(IDEProps{Env: testEnv, Username: "jane"})
	require.NoError(t, err)
	app := newTestApp(t, shared)

	assert.Empty(t, shared.Stack.Dependencies())
	assert.Empty(t, ide.Stack.Dependencies())
	assert.Equal(t, []string{SharedStackName}, app.Stack.Dependencies())

	waves, err := template.NewAssembly(shared.Stack, ide.Stack, app.Stack).DeployOrder()
	require.NoError(t, err)
	require.Len(t, waves, 2)
	assert.Len(t, waves[0], 2)
	assert.Equal(t, AppStackName, waves[1][0].Name())
}
