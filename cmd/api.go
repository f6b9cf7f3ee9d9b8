package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"environovalab/config"
	"environovalab/forms"
	"environovalab/jarstore"
	"environovalab/labapi"
	"environovalab/log"
	"environovalab/oops"
	"environovalab/session"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var Api = newApiCmd()

// The command line keeps a single session, so its jar always has the same key
const cliJarKey = "cli"

var errNotLoggedIn = errors.New("log in first: environovalab api login <username>")
var errAdminOnly = errors.New("this command is for administrators only")
var errSessionExpired = errors.New("the API session has expired, log in again")

type sessionFile struct {
	Username string `yaml:"username"`
	Role     string `yaml:"role"`
}

// apiEnv is the state every api subcommand works with: the persisted session plus a client whose
// cookies live next to it
type apiEnv struct {
	dir     string
	session session.Session
	store   *jarstore.FileStore
	jar     *jarstore.Jar
	client  *labapi.Client
	out     io.Writer
}

func newApiCmd() *cobra.Command {
	var apiBaseUrl string
	var configDir string

	open := func(cmd *cobra.Command) (*apiEnv, error) {
		dir := configDir
		if dir == "" {
			userConfigDir, err := os.UserConfigDir()
			if err != nil {
				return nil, oops.Wrap(err)
			}
			dir = filepath.Join(userConfigDir, "environovalab")
		}
		return openApiEnv(cmd.Context(), dir, apiBaseUrl, cmd.OutOrStdout())
	}

	apiCmd := &cobra.Command{
		Use:           "api",
		Short:         "Talk to the lab API from the command line",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	apiCmd.PersistentFlags().StringVar(&apiBaseUrl, "api", config.Cfg.ApiBaseUrl, "API base url")
	apiCmd.PersistentFlags().StringVar(
		&configDir, "config-dir", "", "where session.yaml and cookies.yaml live (default $XDG_CONFIG_HOME/environovalab)",
	)

	var password string
	loginCmd := &cobra.Command{
		Use:  "login <username>",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := open(cmd)
			if err != nil {
				return err
			}
			if password == "" {
				password = os.Getenv("ENVIRONOVALAB_PASSWORD")
			}
			if password == "" {
				password, err = promptLine(cmd.InOrStdin(), cmd.ErrOrStderr(), "Contraseña: ")
				if err != nil {
					return err
				}
			}
			return env.login(cmd.Context(), args[0], password)
		},
	}
	loginCmd.Flags().StringVar(&password, "password", "", "password (or ENVIRONOVALAB_PASSWORD)")

	logoutCmd := &cobra.Command{
		Use:  "logout",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := open(cmd)
			if err != nil {
				return err
			}
			return env.logout(cmd.Context())
		},
	}

	whoamiCmd := &cobra.Command{
		Use:  "whoami",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := open(cmd)
			if err != nil {
				return err
			}
			if !env.session.Authenticated {
				fmt.Fprintln(env.out, "not logged in")
				return nil
			}
			fmt.Fprintf(env.out, "%s (%s)\n", env.session.DisplayName, env.session.Role)
			return nil
		},
	}

	samplesCmd := &cobra.Command{
		Use:     "samples",
		Aliases: []string{"tipos-muestra"},
	}
	samplesListCmd := &cobra.Command{
		Use:  "list [query]",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := open(cmd)
			if err != nil {
				return err
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			return env.listSamples(cmd.Context(), query)
		},
	}
	sampleValues := url.Values{}
	sampleFlags := []string{"tipo", "parametro", "unidad", "metodo", "tecnica", "precio"}
	sampleFlagValues := make([]string, len(sampleFlags))
	samplesAddCmd := &cobra.Command{
		Use:  "add",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := open(cmd)
			if err != nil {
				return err
			}
			for i, flag := range sampleFlags {
				sampleValues.Set(flag, sampleFlagValues[i])
			}
			return env.addSample(cmd.Context(), sampleValues)
		},
	}
	for i, flag := range sampleFlags {
		samplesAddCmd.Flags().StringVar(&sampleFlagValues[i], flag, "", "")
	}
	samplesDeleteCmd := &cobra.Command{
		Use:  "delete <id>",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := open(cmd)
			if err != nil {
				return err
			}
			return env.deleteSample(cmd.Context(), labapi.ObjectId(args[0]))
		},
	}
	samplesCmd.AddCommand(samplesListCmd)
	samplesCmd.AddCommand(samplesAddCmd)
	samplesCmd.AddCommand(samplesDeleteCmd)

	usersCmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"usuarios"},
	}
	usersListCmd := &cobra.Command{
		Use:  "list",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := open(cmd)
			if err != nil {
				return err
			}
			return env.listUsers(cmd.Context())
		},
	}
	usersSetRoleCmd := &cobra.Command{
		Use:  "set-role <username> <admin|user>",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := open(cmd)
			if err != nil {
				return err
			}
			var isAdmin bool
			switch session.Role(args[1]) {
			case session.RoleAdmin:
				isAdmin = true
			case session.RoleUser:
				isAdmin = false
			default:
				return oops.Newf("unknown role %q, expected admin or user", args[1])
			}
			return env.changeUser(cmd.Context(), args[0], func(ctx context.Context, id labapi.ObjectId) (string, error) {
				return env.client.Users().UpdateRole(ctx, id, isAdmin)
			})
		},
	}
	usersToggleActiveCmd := &cobra.Command{
		Use:  "toggle-active <username>",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := open(cmd)
			if err != nil {
				return err
			}
			return env.changeUser(cmd.Context(), args[0], env.client.Users().ToggleActive)
		},
	}
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersSetRoleCmd)
	usersCmd.AddCommand(usersToggleActiveCmd)

	apiCmd.AddCommand(loginCmd)
	apiCmd.AddCommand(logoutCmd)
	apiCmd.AddCommand(whoamiCmd)
	apiCmd.AddCommand(samplesCmd)
	apiCmd.AddCommand(usersCmd)
	return apiCmd
}

func openApiEnv(ctx context.Context, dir string, apiBaseUrl string, out io.Writer) (*apiEnv, error) {
	logger := &log.TaskLogger{Component: "cli"}
	s, err := readSessionFile(dir)
	if err != nil {
		return nil, err
	}

	store := jarstore.NewFileStore(filepath.Join(dir, "cookies.yaml"))
	jar, err := jarstore.NewJar(ctx, store, cliJarKey, apiBaseUrl, logger)
	if err != nil {
		return nil, err
	}
	client, err := labapi.New(apiBaseUrl, jar, config.Cfg.ApiTimeout, logger)
	if err != nil {
		return nil, err
	}
	return &apiEnv{
		dir:     dir,
		session: s,
		store:   store,
		jar:     jar,
		client:  client,
		out:     out,
	}, nil
}

func sessionPath(dir string) string {
	return filepath.Join(dir, "session.yaml")
}

// A missing or unreadable session file is the anonymous session
func readSessionFile(dir string) (session.Session, error) {
	content, err := os.ReadFile(sessionPath(dir))
	if errors.Is(err, fs.ErrNotExist) {
		return session.Anonymous(), nil
	} else if err != nil {
		return session.Session{}, oops.Wrap(err)
	}

	var file sessionFile
	if err := yaml.Unmarshal(content, &file); err != nil || file.Username == "" {
		return session.Anonymous(), nil //nolint:nilerr
	}
	return session.SignedIn(file.Username, session.ParseRole(file.Role)), nil
}

func writeSessionFile(dir string, s session.Session) error {
	content, err := yaml.Marshal(sessionFile{
		Username: s.DisplayName,
		Role:     string(s.Role),
	})
	if err != nil {
		return oops.Wrap(err)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return oops.Wrap(err)
	}
	return oops.Wrap(os.WriteFile(sessionPath(dir), content, 0600))
}

func removeSessionFile(dir string) error {
	err := os.Remove(sessionPath(dir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return oops.Wrap(err)
}

func promptLine(in io.Reader, prompt io.Writer, label string) (string, error) {
	fmt.Fprint(prompt, label)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", oops.Wrap(err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// authorize runs the same guard as the pages. A decision to redirect becomes an error.
func (e *apiEnv) authorize(capability session.Capability) error {
	switch session.Guard(e.session, capability) {
	case session.RedirectLogin:
		return errNotLoggedIn
	case session.RedirectDashboard:
		return errAdminOnly
	case session.Render:
	}
	return nil
}

// apiError drops the local session when the API no longer knows it
func (e *apiEnv) apiError(err error) error {
	if err == nil {
		return nil
	}
	if labapi.IsUnauthorized(err) && e.session.Authenticated {
		if clearErr := e.clearSession(); clearErr != nil {
			return clearErr
		}
		return errSessionExpired
	}
	if message := labapi.UserMessage(err); message != "" {
		return fmt.Errorf("%s: %w", message, err)
	}
	return err
}

func (e *apiEnv) clearSession() error {
	if err := e.jar.Clear(); err != nil {
		return err
	}
	e.session = session.Anonymous()
	return removeSessionFile(e.dir)
}

func (e *apiEnv) login(ctx context.Context, username, password string) error {
	values := url.Values{"username": {username}, "password": {password}}
	credentials, errs := forms.Login(values)
	if errs.Any() {
		return oops.New(errs.String())
	}

	result, err := e.client.Login(ctx, credentials)
	if err != nil {
		return e.apiError(err)
	}
	e.session = result.Session()
	if err := writeSessionFile(e.dir, e.session); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Logged in as %s (%s)\n", e.session.DisplayName, e.session.Role)
	return nil
}

func (e *apiEnv) logout(ctx context.Context) error {
	if e.session.Authenticated {
		if err := e.client.Logout(ctx); err != nil {
			log.Info().Err(err).Msg("API logout failed, forgetting the session locally")
		}
	}
	if err := e.clearSession(); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "Logged out")
	return nil
}

func (e *apiEnv) listSamples(ctx context.Context, query string) error {
	if err := e.authorize(session.CapabilityNone); err != nil {
		return err
	}
	var sampleTypes []labapi.SampleType
	var err error
	if query != "" {
		sampleTypes, err = e.client.SampleTypes().Search(ctx, query)
	} else {
		sampleTypes, err = e.client.SampleTypes().List(ctx)
	}
	if err != nil {
		return e.apiError(err)
	}

	w := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIPO\tPARAMETRO\tUNIDAD\tMETODO\tPRECIO")
	for _, sampleType := range sampleTypes {
		fmt.Fprintf(
			w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			sampleType.Id, sampleType.Type, sampleType.Parameter, sampleType.Unit, sampleType.Method,
			sampleType.Price,
		)
	}
	return oops.Wrap(w.Flush())
}

func (e *apiEnv) addSample(ctx context.Context, values url.Values) error {
	if err := e.authorize(session.CapabilityAdmin); err != nil {
		return err
	}
	sampleType, errs := forms.SampleType(values)
	if errs.Any() {
		return oops.New(errs.String())
	}

	created, err := e.client.SampleTypes().Create(ctx, sampleType)
	if err != nil {
		return e.apiError(err)
	}
	fmt.Fprintf(e.out, "Created %s\n", created.Id)
	return nil
}

func (e *apiEnv) deleteSample(ctx context.Context, id labapi.ObjectId) error {
	if err := e.authorize(session.CapabilityAdmin); err != nil {
		return err
	}
	if err := e.client.SampleTypes().Delete(ctx, id); err != nil {
		return e.apiError(err)
	}
	fmt.Fprintf(e.out, "Deleted %s\n", id)
	return nil
}

func (e *apiEnv) listUsers(ctx context.Context) error {
	if err := e.authorize(session.CapabilityAdmin); err != nil {
		return err
	}
	users, err := e.client.Users().List(ctx)
	if err != nil {
		return e.apiError(err)
	}

	w := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSUARIO\tCORREO\tROL\tACTIVO")
	for _, user := range users {
		fmt.Fprintf(
			w, "%s\t%s\t%s\t%s\t%t\n",
			user.Id, user.Username, user.Email, session.RoleFromIsAdmin(user.IsAdmin), user.Active,
		)
	}
	return oops.Wrap(w.Flush())
}

type userChange func(ctx context.Context, id labapi.ObjectId) (string, error)

// changeUser resolves username to an id and applies change, refusing to touch the caller's own
// account
func (e *apiEnv) changeUser(ctx context.Context, username string, change userChange) error {
	if err := e.authorize(session.CapabilityAdmin); err != nil {
		return err
	}
	if e.session.IsSelf(username) {
		return oops.New("No puede modificar su propio usuario")
	}

	users, err := e.client.Users().List(ctx)
	if err != nil {
		return e.apiError(err)
	}
	var userId labapi.ObjectId
	for _, user := range users {
		if user.Username == username {
			userId = user.Id
		}
	}
	if userId == "" {
		return oops.Newf("user not found: %s", username)
	}

	message, err := change(ctx, userId)
	if err != nil {
		return e.apiError(err)
	}
	fmt.Fprintln(e.out, message)
	return nil
}
