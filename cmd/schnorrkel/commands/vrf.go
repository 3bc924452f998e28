package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canopy-network/canopy/lib/schnorrkel"
)

const (
	defaultVRFDomain = "schnorrkel-cli"
	vrfMessageLabel  = "message"
)

func vrfTranscript(domain string, msg []byte) *schnorrkel.Transcript {
	return schnorrkel.NewTranscript([]byte(domain)).Append([]byte(vrfMessageLabel), msg)
}

func (c *cli) vrfSignCmd() *cobra.Command {
	var (
		source keySource
		domain string
		asHex  bool
	)
	cmd := &cobra.Command{
		Use:   "vrf-sign <message>",
		Short: "Evaluate the VRF on a message and print the output, proof and randomness",
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
			result, err := kr.VrfSign(name, vrfTranscript(domain, msg))
			if err != nil {
				return err
			}
			pk, err := kr.PublicKey(name)
			if err != nil {
				return err
			}
			randomness, err := kr.Scheme().MakeBytes(pk, vrfTranscript(domain, msg), result.Output)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Output:     0x%s\n", result.Output)
			fmt.Fprintf(out, "Proof:      0x%s\n", result.Proof)
			fmt.Fprintf(out, "Randomness: 0x%s\n", hex.EncodeToString(randomness))
			return nil
		},
	}
	source.register(cmd)
	cmd.Flags().StringVar(&domain, "domain", defaultVRFDomain, "transcript domain label")
	cmd.Flags().BoolVar(&asHex, "hex", false, "treat the message as hex")
	return cmd
}

func (c *cli) vrfVerifyCmd() *cobra.Command {
	var (
		domain string
		asHex  bool
	)
	cmd := &cobra.Command{
		Use:   "vrf-verify <public|address> <output> <proof> <message>",
		Short: "Verify a VRF proof and print the randomness it yields",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			pk, err := parsePublic(args[0])
			if err != nil {
				return newUserError("invalid public key: %v", err)
			}
			outBytes, err := hex.DecodeString(trimHex(args[1]))
			if err != nil {
				return newUserError("invalid output: %v", err)
			}
			output, err := schnorrkel.VrfOutputFromBytes(outBytes)
			if err != nil {
				return newUserError("invalid output: %v", err)
			}
			proofBytes, err := hex.DecodeString(trimHex(args[2]))
			if err != nil {
				return newUserError("invalid proof: %v", err)
			}
			proof, err := schnorrkel.VrfProofFromBytes(proofBytes)
			if err != nil {
				return newUserError("invalid proof: %v", err)
			}
			msg, err := parseMessage(args[3], asHex)
			if err != nil {
				return err
			}

			kr, err := c.keyring(cmd)
			if err != nil {
				return err
			}
			randomness, ok, err := kr.VrfVerify(pk, vrfTranscript(domain, msg), output, proof)
			if err != nil {
				return err
			}
			if !ok {
				return newUserError("vrf proof is not valid")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Randomness: 0x%s\n", hex.EncodeToString(randomness))
			return nil
		},
	}
	cmd.Flags().StringVar(&domain, "domain", defaultVRFDomain, "transcript domain label")
	cmd.Flags().BoolVar(&asHex, "hex", false, "treat the message as hex")
	return cmd
}

func trimHex(s string) string {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}
