package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ganttboard/internal/client"
	"ganttboard/internal/model"
	"ganttboard/pkg/config"
	"ganttboard/pkg/logger"
)

const defaultURL = "http://localhost:5000"

// Options 便于测试时注入输出、存储和 HTTP 客户端
type Options struct {
	Out        io.Writer
	Store      client.Store
	HTTPClient *http.Client
}

// env 命令执行期间共享的依赖，在 PersistentPreRunE 中初始化
type env struct {
	opts    Options
	baseURL string
	path    string
	verbose bool

	out     io.Writer
	logger  *zap.Logger
	session *client.Session
	api     *client.Client
}

// 不需要刷新登录状态的命令
var skipRefresh = map[string]bool{"login": true, "logout": true, "ping": true}

func NewRootCommand(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	e := &env{opts: opts, out: opts.Out}

	root := &cobra.Command{
		Use:           "ganttctl",
		Short:         "Command line client for the Gantt board API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.init(cmd)
		},
	}
	root.SetOut(opts.Out)

	root.PersistentFlags().StringVar(&e.baseURL, "url", config.GetEnv("GANTTBOARD_URL", defaultURL), "API base URL")
	root.PersistentFlags().StringVar(&e.path, "session", "", "session file (default: user config dir)")
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "log API requests")

	root.AddCommand(
		e.pingCmd(),
		e.loginCmd(),
		e.logoutCmd(),
		e.whoamiCmd(),
		e.passwdCmd(),
		e.projectsCmd(),
		e.tasksCmd(),
		e.ganttCmd(),
	)
	return root
}

// Execute 供 cmd/ganttctl 使用
func Execute() int {
	root := NewRootCommand(Options{})
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func (e *env) init(cmd *cobra.Command) error {
	e.logger = zap.NewNop()
	if e.verbose {
		e.logger = logger.New("local", "debug")
	}

	store := e.opts.Store
	if store == nil {
		path := e.path
		if path == "" {
			var err error
			if path, err = client.DefaultSessionPath(); err != nil {
				return fmt.Errorf("locate session file: %w", err)
			}
		}
		store = client.FileStore{Path: path}
	}

	e.session = client.NewSession(store)
	if err := e.session.Hydrate(); err != nil {
		e.logger.Warn("Discarding unreadable session", zap.Error(err))
		_ = e.session.Clear()
	}

	clientOpts := []client.Option{client.WithLogger(e.logger)}
	if e.opts.HTTPClient != nil {
		clientOpts = append(clientOpts, client.WithHTTPClient(e.opts.HTTPClient))
	}
	e.api = client.New(e.baseURL, e.session, clientOpts...)

	if skipRefresh[cmd.Name()] || !e.session.LoggedIn() {
		return nil
	}
	// 启动时用 /api/auth/me 校验保存的 token，失败则视为已登出
	if _, err := e.api.Me(e.ctx(cmd)); err != nil {
		e.logger.Debug("Session refresh failed", zap.Error(err))
		_ = e.session.Clear()
	}
	return nil
}

func (e *env) requireLogin() error {
	if !e.session.LoggedIn() {
		return errors.New("not logged in; run `ganttctl login` first")
	}
	return nil
}

func (e *env) ctx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func parseIDArg(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func parseDateFlag(name, value string) (model.Date, error) {
	d, err := model.ParseDate(value)
	if err != nil {
		return model.Date{}, fmt.Errorf("--%s: %w", name, err)
	}
	return d, nil
}

func optionalString(cmd *cobra.Command, name, value string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}
