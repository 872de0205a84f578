// Command cmsctl is an operator tool for the content backend: it seeds media
// rows from image files and lists or reorders content collections remotely.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"agency-cms/internal/cmsclient"
	"agency-cms/internal/config"
)

// clientOptions are applied to every API client; tests swap the transport.
var clientOptions []cmsclient.Option

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("cmsctl")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var site config.SiteConfig
	if err := config.ParseEnv(&site); err != nil {
		fmt.Fprintln(os.Stderr, "WARN:", err)
	}

	root := &cobra.Command{
		Use:           "cmsctl",
		Short:         "Content backend operator tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("server", site.BackendURL, "backend base URL")
	flags.String("api-key", site.APIKey, "backend API key")
	flags.String("username", "admin", "admin username for write commands")
	flags.String("password", "", "admin password for write commands (or CMSCTL_PASSWORD)")
	for _, name := range []string{"server", "api-key", "username", "password"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(mediaSQLCommand(), contentCommand(v))
	return root
}

// newClient builds an API client from the bound flags. Write commands log in first.
func newClient(ctx context.Context, v *viper.Viper, login bool) (*cmsclient.Client, error) {
	c := cmsclient.New(v.GetString("server"), v.GetString("api-key"), clientOptions...)
	if !login {
		return c, nil
	}
	password := v.GetString("password")
	if password == "" {
		return nil, fmt.Errorf("a password is required: pass --password or set CMSCTL_PASSWORD")
	}
	if err := c.Login(ctx, v.GetString("username"), password); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return c, nil
}
