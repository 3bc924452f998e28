package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canopy-network/canopy/lib/schnorrkel"
)

func (c *cli) signCmd() *cobra.Command {
	var (
		source keySource
		asHex  bool
	)
	cmd := &cobra.Command{
		Use:   "sign <message>",
		Short: "Sign a message under the configured signing context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := parseMessage(args[0], asHex)
			if err != nil {
				return err
			}
			kr, name, err := source.open(c, cmd)
			if err != nil {
				return err
			}
			sig, err := kr.Sign(name, msg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "0x%s\n", sig)
			return nil
		},
	}
	source.register(cmd)
	cmd.Flags().BoolVar(&asHex, "hex", false, "treat the message as hex")
	return cmd
}

func (c *cli) verifyCmd() *cobra.Command {
	var (
		asHex      bool
		deprecated bool
	)
	cmd := &cobra.Command{
		Use:   "verify <signature> <message> <public|address>",
		Short: "Verify a signature",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := schnorrkel.SignatureFromHex(args[0])
			if err != nil {
				return newUserError("invalid signature: %v", err)
			}
			msg, err := parseMessage(args[1], asHex)
			if err != nil {
				return err
			}
			pk, err := parsePublic(args[2])
			if err != nil {
				return newUserError("invalid public key: %v", err)
			}

			kr, err := c.keyring(cmd)
			if err != nil {
				return err
			}

			var ok bool
			if deprecated {
				ok, err = kr.Scheme().VerifyDeprecated(sig, msg, pk)
			} else {
				ok, err = kr.Verify(sig, msg, pk)
			}
			if err != nil {
				return err
			}
			if !ok {
				return newUserError("signature is not valid")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signature verifies correctly.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&asHex, "hex", false, "treat the message as hex")
	cmd.Flags().BoolVar(&deprecated, "deprecated", false, "verify with the pre-audit transcript format")
	return cmd
}
