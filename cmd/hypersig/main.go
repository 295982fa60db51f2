// Command hypersig is a thin CLI front end for key generation, signing
// and verification, dispatching to the xmss/statefile packages the same
// way the teacher's own xmssmt command dispatches to the xmssmt package.
package main

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/adust09/hypercube/statefile"
	"github.com/adust09/hypercube/th/tweak_hash"
	"github.com/adust09/hypercube/xmss"
)

// instantiation names accepted by --instantiation; kept as a small lookup
// table rather than a switch so `algs` and the keygen validation share one
// source of truth.
var instantiations = map[string]func() *xmss.GeneralizedXMSS{
	"tsl":           xmss.NewSHA3TSL,
	"tl1c":          xmss.NewSHA3TL1C,
	"tlfc":          func() *xmss.GeneralizedXMSS { return xmss.NewSHA3TLFC(false) },
	"tlfc-strict":   func() *xmss.GeneralizedXMSS { return xmss.NewSHA3TLFC(true) },
	"poseidon-tl1c": xmss.NewPoseidonTL1C,
}

func resolveInstantiation(name string) (*xmss.GeneralizedXMSS, error) {
	factory, ok := instantiations[name]
	if !ok {
		return nil, fmt.Errorf("unknown instantiation %q", name)
	}
	return factory(), nil
}

func cmdAlgs(c *cli.Context) error {
	for name := range instantiations {
		fmt.Println(name)
	}
	return nil
}

func cmdKeygen(c *cli.Context) error {
	name := c.String("instantiation")
	keyPath := c.String("key")
	activationEpoch := c.Int("activation-epoch")
	numActiveEpochs := c.Int("num-active-epochs")

	scheme, err := resolveInstantiation(name)
	if err != nil {
		return err
	}

	pk, sk := scheme.KeyGen(rand.Reader, activationEpoch, numActiveEpochs)

	store, err := statefile.Open(keyPath)
	if err != nil {
		return fmt.Errorf("open statefile: %w", err)
	}
	defer store.Close()
	if err := store.Init(sk); err != nil {
		return fmt.Errorf("init statefile: %w", err)
	}

	pkData, err := pk.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal public key: %w", err)
	}
	pubPath := keyPath + ".pub"
	if err := os.WriteFile(pubPath, pkData, 0644); err != nil {
		return fmt.Errorf("write public key: %w", err)
	}

	fmt.Printf("wrote secret key state to %s and public key to %s\n", keyPath, pubPath)
	return nil
}

func cmdSign(c *cli.Context) error {
	name := c.String("instantiation")
	keyPath := c.String("key")
	messagePath := c.String("message")

	scheme, err := resolveInstantiation(name)
	if err != nil {
		return err
	}

	store, err := statefile.Open(keyPath)
	if err != nil {
		return fmt.Errorf("open statefile: %w", err)
	}
	defer store.Close()
	if !store.Initialized() {
		return fmt.Errorf("%s has not been initialized; run keygen first", keyPath)
	}

	thash := tweak_hash.NewSHA3TweakableHash(24, 24)
	sk, err := store.Load(thash)
	if err != nil {
		return fmt.Errorf("load secret key: %w", err)
	}

	message, err := os.ReadFile(messagePath)
	if err != nil {
		return fmt.Errorf("read message: %w", err)
	}

	sig, err := statefile.SignNext(scheme, store, sk, rand.Reader, message)
	if err != nil {
		return fmt.Errorf("sign: %w", err)
	}

	sigData, err := sig.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal signature: %w", err)
	}

	sigPath := c.String("signature")
	if sigPath == "" {
		sigPath = messagePath + ".sig"
	}
	if err := os.WriteFile(sigPath, sigData, 0644); err != nil {
		return fmt.Errorf("write signature: %w", err)
	}

	fmt.Printf("wrote signature to %s (epoch %d)\n", sigPath, sk.NextIndex-1)
	return nil
}

func cmdVerify(c *cli.Context) error {
	pubPath := c.String("pubkey")
	messagePath := c.String("message")
	sigPath := c.String("signature")
	epoch := c.Int("epoch")

	scheme, err := resolveInstantiation(c.String("instantiation"))
	if err != nil {
		return err
	}

	pkData, err := os.ReadFile(pubPath)
	if err != nil {
		return fmt.Errorf("read public key: %w", err)
	}
	var pk xmss.PublicKey
	if err := json.Unmarshal(pkData, &pk); err != nil {
		return fmt.Errorf("unmarshal public key: %w", err)
	}

	message, err := os.ReadFile(messagePath)
	if err != nil {
		return fmt.Errorf("read message: %w", err)
	}

	sigData, err := os.ReadFile(sigPath)
	if err != nil {
		return fmt.Errorf("read signature: %w", err)
	}
	var sig xmss.Signature
	if err := json.Unmarshal(sigData, &sig); err != nil {
		return fmt.Errorf("unmarshal signature: %w", err)
	}

	if scheme.Verify(&pk, uint32(epoch), message, &sig) {
		fmt.Println("OK")
		return nil
	}
	fmt.Println("FAILED")
	return cli.NewExitError("signature did not verify", 1)
}

func main() {
	app := cli.NewApp()
	app.Name = "hypersig"
	app.Usage = "generate, sign and verify with a hypercube-encoded hash-based signature scheme"

	instantiationFlag := cli.StringFlag{
		Name:  "instantiation",
		Usage: "tsl, tl1c, tlfc, tlfc-strict, poseidon-tl1c",
		Value: "tl1c",
	}

	app.Commands = []cli.Command{
		{
			Name:   "algs",
			Usage:  "List available instantiations",
			Action: cmdAlgs,
		},
		{
			Name:  "keygen",
			Usage: "Generate a new key pair",
			Flags: []cli.Flag{
				instantiationFlag,
				cli.StringFlag{Name: "key", Usage: "path to the secret key statefile", Required: true},
				cli.IntFlag{Name: "activation-epoch", Usage: "first active epoch", Value: 0},
				cli.IntFlag{Name: "num-active-epochs", Usage: "number of active epochs", Value: 1024},
			},
			Action: cmdKeygen,
		},
		{
			Name:  "sign",
			Usage: "Sign a message with the next unused epoch",
			Flags: []cli.Flag{
				instantiationFlag,
				cli.StringFlag{Name: "key", Usage: "path to the secret key statefile", Required: true},
				cli.StringFlag{Name: "message", Usage: "path to the message file", Required: true},
				cli.StringFlag{Name: "signature", Usage: "output path for the signature (default: <message>.sig)"},
			},
			Action: cmdSign,
		},
		{
			Name:  "verify",
			Usage: "Verify a signature against a public key",
			Flags: []cli.Flag{
				instantiationFlag,
				cli.StringFlag{Name: "pubkey", Usage: "path to the public key file", Required: true},
				cli.StringFlag{Name: "message", Usage: "path to the message file", Required: true},
				cli.StringFlag{Name: "signature", Usage: "path to the signature file", Required: true},
				cli.IntFlag{Name: "epoch", Usage: "epoch the signature claims to be for", Required: true},
			},
			Action: cmdVerify,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
