package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/client"
)

func main() {
	if err := loadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "solwallet",
		Usage: "Solana wallet: sign and verify messages, send SOL transfers",
		Description: `A command line wallet for Solana clusters.

The private key never leaves the keypair file signer; every signature is
verified locally before it is printed or broadcast. Transfers are driven
through build, stamp, sign, submit and confirmation and printed as JSON.`,
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "rpc-url",
				Usage:   "Solana JSON-RPC endpoint",
				Value:   client.EndpointDevnet,
				EnvVars: []string{envPrefix + "RPC_URL"},
			},
			&cli.StringFlag{
				Name:    "ws-url",
				Usage:   "PubSub endpoint (derived from rpc-url when empty)",
				EnvVars: []string{envPrefix + "WS_URL"},
			},
			&cli.StringFlag{
				Name:    "keypair",
				Usage:   "Path to a solana-keygen JSON keypair file",
				Value:   defaultKeypairPath(),
				EnvVars: []string{envPrefix + "KEYPAIR"},
			},
			&cli.StringFlag{
				Name:    "commitment",
				Usage:   "Commitment level: processed, confirmed or finalized",
				Value:   string(client.CommitmentConfirmed),
				EnvVars: []string{envPrefix + "COMMITMENT"},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "Per-request timeout",
				Value:   30 * time.Second,
				EnvVars: []string{envPrefix + "TIMEOUT"},
			},
			&cli.Float64Flag{
				Name:    "rate-limit",
				Usage:   "Maximum requests per second to the node (0 disables)",
				Value:   8,
				EnvVars: []string{envPrefix + "RATE_LIMIT"},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				EnvVars: []string{envPrefix + "DEBUG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "address",
				Usage:  "Print the public key of the keypair",
				Action: addressCommand,
			},
			{
				Name:  "balance",
				Usage: "Show the SOL balance of an address",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "address",
						Usage: "Account address (defaults to the keypair)",
					},
				},
				Action: balanceCommand,
			},
			{
				Name:  "airdrop",
				Usage: "Request a faucet airdrop (devnet/testnet only)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "amount",
						Usage: "Amount in SOL",
						Value: "1",
					},
					&cli.StringFlag{
						Name:  "address",
						Usage: "Account address (defaults to the keypair)",
					},
				},
				Action: airdropCommand,
			},
			{
				Name:  "sign",
				Usage: "Sign a message with the keypair",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "message",
						Usage:    "Message text (UTF-8)",
						Required: true,
					},
				},
				Action: signCommand,
			},
			{
				Name:  "verify",
				Usage: "Verify a detached ed25519 signature",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "message",
						Usage:    "Message text (UTF-8)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "signature",
						Usage:    "Signature (base58)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "pubkey",
						Usage:    "Signer public key (base58)",
						Required: true,
					},
				},
				Action: verifyCommand,
			},
			{
				Name:  "send",
				Usage: "Send SOL and wait for confirmation",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "to",
						Usage: "Recipient address",
					},
					&cli.StringFlag{
						Name:  "amount",
						Usage: "Amount in SOL",
					},
					&cli.DurationFlag{
						Name:  "wait",
						Usage: "How long to wait for confirmation",
						Value: 60 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "subscribe",
						Usage: "Use a signatureSubscribe stream to wake confirmation polling early",
					},
					&cli.StringFlag{
						Name:  "resume",
						Usage: "Resume a saved attempt JSON file instead of building a new transfer",
					},
					&cli.StringFlag{
						Name:  "save",
						Usage: "Write the attempt JSON to this file after every run",
					},
					&cli.StringFlag{
						Name:    "metrics-addr",
						Usage:   "Serve Prometheus metrics on this address (e.g. :9090) while the transfer runs",
						EnvVars: []string{envPrefix + "METRICS_ADDR"},
					},
				},
				Action: sendCommand,
			},
			{
				Name:  "status",
				Usage: "Check the confirmation status of a transaction",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "signature",
						Usage:    "Transaction ID (base58)",
						Required: true,
					},
					&cli.DurationFlag{
						Name:  "wait",
						Usage: "How long to wait for a terminal status (0 queries once)",
						Value: 0,
					},
				},
				Action: statusCommand,
			},
		},
	}
}
