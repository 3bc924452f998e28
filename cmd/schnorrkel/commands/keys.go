package commands

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canopy-network/canopy/lib/schnorrkel"
	"github.com/canopy-network/canopy/lib/schnorrkel/adapters"
	"github.com/canopy-network/canopy/lib/schnorrkel/keyring"
)

// ephemeralName holds a key resolved from --uri for one invocation.
const ephemeralName = "uri"

// keySource selects the signing key: a secret URI or a keystore entry.
type keySource struct {
	uri  string
	name string
}

func (ks *keySource) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ks.uri, "uri", "", "secret URI of the key, e.g. \"//Alice\"")
	cmd.Flags().StringVar(&ks.name, "key", "", "name of a key in the keystore")
}

// open returns a keyring holding the selected key and the name to use.
func (ks *keySource) open(c *cli, cmd *cobra.Command) (*keyring.Keyring, string, error) {
	switch {
	case ks.uri != "" && ks.name != "":
		return nil, "", newUserError("--uri and --key are mutually exclusive")
	case ks.name != "":
		kr, err := c.storedKeyring(cmd)
		if err != nil {
			return nil, "", err
		}
		return kr, ks.name, nil
	case cmd.Flags().Changed("uri"):
		kr, err := c.keyring(cmd)
		if err != nil {
			return nil, "", err
		}
		if _, err := kr.AddURI(ephemeralName, ks.uri); err != nil {
			return nil, "", err
		}
		return kr, ephemeralName, nil
	default:
		return nil, "", newUserError("one of --uri or --key is required")
	}
}

// parsePublic accepts hex public keys and SS58 addresses.
func parsePublic(s string) (schnorrkel.PublicKey, error) {
	if strings.HasPrefix(s, "0x") || len(s) == 2*schnorrkel.PublicKeyLength {
		return schnorrkel.PublicKeyFromHex(s)
	}
	pk, _, err := adapters.DecodeAddress(s)
	return pk, err
}

// parseMessage decodes hex input when asHex is set.
func parseMessage(s string, asHex bool) ([]byte, error) {
	if !asHex {
		return []byte(s), nil
	}
	msg, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, newUserError("message is not valid hex: %v", err)
	}
	return msg, nil
}

func printKey(cmd *cobra.Command, kr *keyring.Keyring, name string) error {
	pk, err := kr.PublicKey(name)
	if err != nil {
		return err
	}
	addr, err := kr.Address(name)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Public key (hex): 0x%s\n", pk)
	fmt.Fprintf(out, "SS58 Address:     %s\n", addr)
	return nil
}

func (c *cli) generateCmd() *cobra.Command {
	var (
		words int
		name  string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a key pair from a fresh mnemonic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bits := words / 3 * 32
			if words%3 != 0 || bits < 128 || bits > 256 {
				return newUserError("--words must be one of 12, 15, 18, 21 or 24")
			}

			var (
				kr  *keyring.Keyring
				err error
			)
			if name != "" {
				kr, err = c.storedKeyring(cmd)
			} else {
				kr, err = c.keyring(cmd)
			}
			if err != nil {
				return err
			}

			label := name
			if label == "" {
				label = "generated"
			}
			phrase, _, err := kr.Generate(label, bits)
			if err != nil {
				return err
			}
			if name != "" {
				if err := kr.Save(c.passphrase()); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Secret phrase:    %s\n", phrase)
			return printKey(cmd, kr, label)
		},
	}
	cmd.Flags().IntVar(&words, "words", 12, "number of mnemonic words")
	cmd.Flags().StringVar(&name, "name", "", "store the key in the keystore under this name")
	return cmd
}

func (c *cli) insertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insert <name> <uri>",
		Short: "Resolve a secret URI and store it in the keystore",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kr, err := c.storedKeyring(cmd)
			if err != nil {
				return err
			}
			if _, err := kr.AddURI(args[0], args[1]); err != nil {
				return err
			}
			if err := kr.Save(c.passphrase()); err != nil {
				return err
			}
			return printKey(cmd, kr, args[0])
		},
	}
}

func (c *cli) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <uri|address>",
		Short: "Show the public key and address of a secret URI or SS58 address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pk, prefix, err := adapters.DecodeAddress(args[0]); err == nil {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Public key (hex): 0x%s\n", pk)
				fmt.Fprintf(out, "Network prefix:   %d\n", prefix)
				return nil
			}

			kr, err := c.keyring(cmd)
			if err != nil {
				return err
			}
			if _, err := kr.AddURI(ephemeralName, args[0]); err != nil {
				return err
			}
			return printKey(cmd, kr, ephemeralName)
		},
	}
}

func (c *cli) deriveCmd() *cobra.Command {
	var (
		source keySource
		public string
		child  string
	)
	cmd := &cobra.Command{
		Use:   "derive <path>",
		Short: "Derive a child key along a path such as //polkadot/0",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			if public != "" {
				return c.derivePublic(cmd, public, path)
			}

			kr, parent, err := source.open(c, cmd)
			if err != nil {
				return err
			}
			name := child
			if name == "" {
				name = "derived"
			}
			if _, err := kr.Derive(parent, name, path); err != nil {
				return err
			}
			if child != "" {
				if source.name == "" {
					return newUserError("--name requires --key")
				}
				if err := kr.Save(c.passphrase()); err != nil {
					return err
				}
			}
			return printKey(cmd, kr, name)
		},
	}
	source.register(cmd)
	cmd.Flags().StringVar(&public, "public", "", "derive soft junctions from this public key or address")
	cmd.Flags().StringVar(&child, "name", "", "store the child in the keystore under this name")
	return cmd
}

func (c *cli) derivePublic(cmd *cobra.Command, public, path string) error {
	pk, err := parsePublic(public)
	if err != nil {
		return newUserError("invalid public key: %v", err)
	}
	junctions, err := schnorrkel.ParseDerivationPath(path)
	if err != nil {
		return newUserError("invalid path: %v", err)
	}

	kr, err := c.keyring(cmd)
	if err != nil {
		return err
	}
	derived, err := kr.Scheme().DerivePublicPath(pk, junctions)
	if err != nil {
		return err
	}

	cfg, err := c.config(cmd)
	if err != nil {
		return err
	}
	addr, err := adapters.EncodeAddress(derived, cfg.SS58Prefix)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Public key (hex): 0x%s\n", derived)
	fmt.Fprintf(out, "SS58 Address:     %s\n", addr)
	return nil
}
