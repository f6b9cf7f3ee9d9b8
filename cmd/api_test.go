package cmd

import (
	"bytes"
	"context"
	"testing"

	"environovalab/labapi"
	"environovalab/labapi/labapitest"

	"github.com/stretchr/testify/require"
)

type cliTest struct {
	t   *testing.T
	api *labapitest.Server
	dir string
}

func newCliTest(t *testing.T) *cliTest {
	return &cliTest{
		t:   t,
		api: labapitest.New(t),
		dir: t.TempDir(),
	}
}

func (c *cliTest) run(args ...string) (string, error) {
	cmd := newApiCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--api", c.api.URL, "--config-dir", c.dir}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cliTest) mustRun(args ...string) string {
	out, err := c.run(args...)
	require.NoError(c.t, err, out)
	return out
}

func TestCliLoginPersistsSession(t *testing.T) {
	c := newCliTest(t)
	c.api.AddAccount("ana", "secreto", false)

	require.Equal(t, "not logged in\n", c.mustRun("whoami"))
	require.Equal(t, "Logged in as ana (user)\n", c.mustRun("login", "ana", "--password", "secreto"))
	require.Equal(t, "ana (user)\n", c.mustRun("whoami"))

	// The API cookie survived between runs
	c.api.AddSampleType(labapi.SampleType{ //nolint:exhaustruct
		Type:      "agua",
		Parameter: "pH",
		Unit:      "U pH",
		Method:    "SM 4500",
		Technique: "Electrométrico",
		Price:     1000,
	})
	require.Contains(t, c.mustRun("samples", "list"), "pH")

	require.Equal(t, "Logged out\n", c.mustRun("logout"))
	require.Equal(t, "not logged in\n", c.mustRun("whoami"))
}

func TestCliGuards(t *testing.T) {
	c := newCliTest(t)
	c.api.AddAccount("ana", "secreto", false)

	_, err := c.run("samples", "list")
	require.ErrorIs(t, err, errNotLoggedIn)

	c.mustRun("login", "ana", "--password", "secreto")
	c.api.ClearRequests()
	_, err = c.run("users", "list")
	require.ErrorIs(t, err, errAdminOnly)
	_, err = c.run("samples", "delete", "1")
	require.ErrorIs(t, err, errAdminOnly)
	require.Empty(t, c.api.Requests())
}

func TestCliUserChanges(t *testing.T) {
	c := newCliTest(t)
	c.api.AddAccount("jefa", "secreto", true)
	c.api.AddAccount("ana", "secreto", false)
	c.mustRun("login", "jefa", "--password", "secreto")

	c.api.ClearRequests()
	_, err := c.run("users", "set-role", "jefa", "user")
	require.Error(t, err)
	require.Empty(t, c.api.Requests())
	require.True(t, c.api.Account("jefa").IsAdmin)

	out := c.mustRun("users", "set-role", "ana", "admin")
	require.Equal(t, "Rol actualizado correctamente\n", out)
	require.True(t, c.api.Account("ana").IsAdmin)

	c.mustRun("users", "toggle-active", "ana")
	require.False(t, c.api.Account("ana").Active)
}

func TestCliExpiredSession(t *testing.T) {
	c := newCliTest(t)
	c.api.AddAccount("ana", "secreto", false)
	c.mustRun("login", "ana", "--password", "secreto")

	c.api.ExpireSessions()
	_, err := c.run("samples", "list")
	require.ErrorIs(t, err, errSessionExpired)
	require.Equal(t, "not logged in\n", c.mustRun("whoami"))
}

func TestCliAddSampleValidates(t *testing.T) {
	c := newCliTest(t)
	c.api.AddAccount("jefa", "secreto", true)
	c.mustRun("login", "jefa", "--password", "secreto")

	c.api.ClearRequests()
	_, err := c.run("samples", "add", "--parametro", "pH")
	require.Error(t, err)
	require.Empty(t, c.api.Mutations())

	out := c.mustRun(
		"samples", "add", "--tipo", "agua", "--parametro", "pH", "--unidad", "U pH", "--metodo", "SM 4500",
		"--tecnica", "Electrométrico", "--precio", "10.00",
	)
	require.Contains(t, out, "Created ")
	require.Len(t, c.api.SampleTypes(), 1)
}
