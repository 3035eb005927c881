package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/passage/internal/runtime"
	"github.com/aretw0/passage/pkg/adapters/file"
	"github.com/aretw0/passage/pkg/domain"
	contract "github.com/aretw0/passage/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlCatalog = `routes:
  - id: root
    on_leave:
      result: left-root
  - id: inbox
    description: Message list
    on_leave:
      convention: callback
      effect: redirect
      to: login
      query:
        next: /inbox
    on_enter:
      convention: deferred
      result: inbox
`

const jsonCatalog = `{
  "routes": [
    {"id": "root"},
    {"id": "inbox", "on_enter": {"result": "inbox"}}
  ]
}`

const tomlCatalog = `
[[routes]]
id = "root"

[[routes]]
id = "inbox"

[routes.on_enter]
convention = "callback"
result = "inbox"
`

func writeCatalog(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoader_Contract(t *testing.T) {
	for name, content := range map[string]string{
		"routes.yaml": yamlCatalog,
		"routes.json": jsonCatalog,
		"routes.toml": tomlCatalog,
	} {
		t.Run(name, func(t *testing.T) {
			loader, err := file.NewLoader(writeCatalog(t, name, content))
			require.NoError(t, err)
			contract.RouteLoaderContractTest(t, loader, []string{"root", "inbox"})
		})
	}
}

func TestLoader_CompiledHooksRun(t *testing.T) {
	loader, err := file.NewLoader(writeCatalog(t, "routes.yml", yamlCatalog))
	require.NoError(t, err)
	ctx := context.Background()

	root, err := loader.GetRoute(ctx, "root")
	require.NoError(t, err)
	inbox, err := loader.GetRoute(ctx, "inbox")
	require.NoError(t, err)

	tr := domain.NewTransition("/inbox", nil)
	runner := runtime.NewRunner()
	result, err := runner.Leave(ctx, tr, []domain.Route{root, inbox}, nil)
	require.NoError(t, err)
	assert.Nil(t, result, "last hook result wins even when nil")

	r, ok := domain.IsRedirect(tr.AbortReason())
	require.True(t, ok)
	assert.Equal(t, "login", r.To)
	assert.Equal(t, "/inbox", r.Query["next"])

	entered, err := runner.Enter(ctx, tr, []domain.Route{root, inbox}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "inbox", entered)
}

func TestLoader_Errors(t *testing.T) {
	_, err := file.NewLoader(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = file.NewLoader(writeCatalog(t, "routes.ini", "x=1"))
	assert.ErrorContains(t, err, "unsupported catalog format")

	_, err = file.NewLoader(writeCatalog(t, "routes.yaml", "routes:\n  - id: a\n    on_leave: {effect: explode}\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidRoute)

	_, err = file.NewLoader(writeCatalog(t, "routes.yaml", "routes: [\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidRoute)
}

func TestLoader_ReloadKeepsPreviousOnError(t *testing.T) {
	path := writeCatalog(t, "routes.yaml", yamlCatalog)
	loader, err := file.NewLoader(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("routes:\n  - id: only\n"), 0644))
	require.NoError(t, loader.Reload())
	ids, _ := loader.ListRoutes(context.Background())
	assert.Equal(t, []string{"only"}, ids)

	require.NoError(t, os.WriteFile(path, []byte("routes:\n  - {}\n"), 0644))
	assert.Error(t, loader.Reload())
	ids, _ = loader.ListRoutes(context.Background())
	assert.Equal(t, []string{"only"}, ids)
}

func TestLoader_Watch(t *testing.T) {
	path := writeCatalog(t, "routes.yaml", yamlCatalog)
	loader, err := file.NewLoader(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, err := loader.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("routes:\n  - id: fresh\n"), 0644))

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change notification")
	}
	require.NoError(t, loader.Reload())
	_, err = loader.GetRoute(ctx, "fresh")
	assert.NoError(t, err)

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-changes:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

type staticGuard struct {
	verdict domain.Verdict
	calls   []domain.Invocation
}

func (g *staticGuard) Execute(ctx context.Context, name string, inv domain.Invocation) (domain.Verdict, error) {
	g.calls = append(g.calls, inv)
	return g.verdict, nil
}

func TestLoader_GuardHooks(t *testing.T) {
	path := writeCatalog(t, "routes.yaml", "routes:\n  - id: admin\n    on_enter:\n      run: is-admin\n")

	_, err := file.NewLoader(path)
	require.ErrorIs(t, err, domain.ErrInvalidRoute, "guards need an executor")

	guard := &staticGuard{verdict: domain.Verdict{Effect: "redirect", To: "login"}}
	loader, err := file.NewLoader(path, file.WithExecutor(guard))
	require.NoError(t, err)

	admin, err := loader.GetRoute(context.Background(), "admin")
	require.NoError(t, err)

	tr := domain.NewTransition("/admin", nil)
	_, err = runtime.NewRunner().Enter(context.Background(), tr, []domain.Route{admin}, domain.Params{"id": 1}, nil)
	require.NoError(t, err)

	r, ok := domain.IsRedirect(tr.AbortReason())
	require.True(t, ok)
	assert.Equal(t, "login", r.To)
	require.Len(t, guard.calls, 1)
	assert.Equal(t, "admin", guard.calls[0].RouteID)
	assert.Equal(t, domain.PhaseEnter, guard.calls[0].Phase)
	assert.Equal(t, "/admin", guard.calls[0].Path)
}
