package commands

import (
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/canopy-network/canopy/lib/schnorrkel/keyring"
)

const (
	exitUserError   = 1
	exitSystemError = 2

	passphraseEnv = "SCHNORRKEL_PASSPHRASE"
)

// commandError is an error used to signal different error situations in command handling.
type commandError struct {
	s         string
	userError bool
}

func (c commandError) Error() string {
	return c.s
}

func (c commandError) isUserError() bool {
	return c.userError
}

func newUserError(format string, a ...interface{}) commandError {
	return commandError{s: fmt.Sprintf(format, a...), userError: true}
}

// Catch the obvious user errors from Cobra.
var userErrorRegexp = regexp.MustCompile("argument|flag|shorthand")

func isUserError(err error) bool {
	if cErr, ok := err.(commandError); ok && cErr.isUserError() {
		return true
	}
	return userErrorRegexp.MatchString(err.Error())
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	keystore   string
	prefix     int
	logLevel   string
	passphrase string
}

type cli struct {
	opts   globalOptions
	logger *logrus.Logger
}

// config loads the YAML configuration and applies flag overrides.
func (c *cli) config(cmd *cobra.Command) (keyring.Config, error) {
	cfg, err := keyring.LoadConfig(c.opts.configPath)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("keystore") {
		cfg.KeystorePath = c.opts.keystore
	}
	if cmd.Flags().Changed("prefix") {
		if c.opts.prefix < 0 || c.opts.prefix > 1<<14-1 {
			return cfg, newUserError("ss58 prefix %d out of range", c.opts.prefix)
		}
		cfg.SS58Prefix = uint16(c.opts.prefix)
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = c.opts.logLevel
	}
	// Short-lived processes have no scrape endpoint.
	cfg.Metrics = false
	c.logger.SetLevel(cfg.Level())
	return cfg, nil
}

// keyring builds an empty keyring from the effective configuration.
func (c *cli) keyring(cmd *cobra.Command) (*keyring.Keyring, error) {
	cfg, err := c.config(cmd)
	if err != nil {
		return nil, err
	}
	return keyring.New(cfg, c.logger, prometheus.NewRegistry())
}

// storedKeyring builds a keyring and loads the keystore into it.
func (c *cli) storedKeyring(cmd *cobra.Command) (*keyring.Keyring, error) {
	kr, err := c.keyring(cmd)
	if err != nil {
		return nil, err
	}
	if err := kr.Load(c.passphrase()); err != nil {
		return nil, err
	}
	return kr, nil
}

func (c *cli) passphrase() string {
	if c.opts.passphrase != "" {
		return c.opts.passphrase
	}
	return os.Getenv(passphraseEnv)
}

// NewRootCommand returns the schnorrkel command tree. Logs go to logOut.
func NewRootCommand(logOut io.Writer) *cobra.Command {
	c := &cli{logger: logrus.New()}
	c.logger.SetOutput(logOut)

	root := &cobra.Command{
		Use:           "schnorrkel",
		Short:         "schnorrkel manages sr25519 keys, signatures and VRF proofs",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 1 {
				cmd.Usage()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.opts.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&c.opts.keystore, "keystore", "", "keystore path (overrides the configuration)")
	flags.IntVar(&c.opts.prefix, "prefix", 42, "SS58 network prefix (overrides the configuration)")
	flags.StringVar(&c.opts.logLevel, "log-level", "warning", "log level")
	flags.StringVar(&c.opts.passphrase, "passphrase", "", "keystore passphrase (default $"+passphraseEnv+")")

	root.AddCommand(
		c.generateCmd(),
		c.inspectCmd(),
		c.insertCmd(),
		c.deriveCmd(),
		c.signCmd(),
		c.verifyCmd(),
		c.vrfSignCmd(),
		c.vrfVerifyCmd(),
	)
	return root
}

// Execute runs the command tree against the process arguments and exits
// with a non-zero status on failure.
func Execute() {
	root := NewRootCommand(os.Stderr)
	if _, err := root.ExecuteC(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if isUserError(err) {
			os.Exit(exitUserError)
		}
		os.Exit(exitSystemError)
	}
}
