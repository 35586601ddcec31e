package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/lagoon/internal/core/application"
	"github.com/vulpemventures/lagoon/internal/core/domain"
	cypher "github.com/vulpemventures/lagoon/internal/infrastructure/key-cypher/aes128"
	keystore "github.com/vulpemventures/lagoon/internal/infrastructure/key-store/in-memory"
	"github.com/vulpemventures/lagoon/internal/infrastructure/storage/db/inmemory"
)

const (
	NETWORK  = "regtest"
	PASSWORD = "password"
)

var (
	keyringSvc *application.KeyringService
	txSvc      *application.TransactionService
)

func startServices() {
	log.SetLevel(log.DebugLevel)

	domain.KeyCypher = cypher.NewAES128Cypher()
	domain.KeyStore = keystore.NewInMemoryKeyStore()

	repoManager := inmemory.NewRepoManager()
	keyringSvc = application.NewKeyringService(
		repoManager, NETWORK, application.BuildInfo{
			Version: "dev", Commit: "none", Date: "unknown",
		},
	)
	txSvc = application.NewTransactionService(repoManager, NETWORK)

	keyringSvc.RegisterHandlerForKeyringEvent(
		domain.KeyringUnlocked, func(event domain.KeyringEvent) {
			fmt.Printf("KEYRING UNLOCKED, SIGNING KEYS %v\n", event.PublicKeys)
		},
	)
}

func main() {
	startServices()

	ctx := context.Background()

	mnemonic, err := keyringSvc.GenSeed(ctx)
	if err != nil {
		log.WithError(err).Fatal("failed to generate mnemonic")
	}
	fmt.Println("MNEMONIC:", strings.Join(mnemonic, " "))

	if err := keyringSvc.CreateKeyring(ctx, mnemonic, PASSWORD); err != nil {
		log.WithError(err).Fatal("failed to initialize keyring")
	}
	if err := keyringSvc.Unlock(ctx, PASSWORD); err != nil {
		log.WithError(err).Fatal("failed to unlock keyring")
	}

	signers, err := keyringSvc.ListSigners(ctx)
	if err != nil {
		log.WithError(err).Fatal("failed to list signers")
	}
	for _, signerInfo := range signers {
		fmt.Printf(
			"SIGNER %s %s %s\n",
			signerInfo.Identity, signerInfo.Type, signerInfo.PublicKey,
		)
	}

	// Pass a partial transaction in base64 format to sign it with the brand
	// new keyring. Inputs must commit to keys derived from the mnemonic above,
	// import your own keys with keyringSvc.ImportKey otherwise.
	if len(os.Args) > 1 {
		signedTx, err := txSvc.SignPsbt(ctx, os.Args[1])
		if err != nil {
			log.WithError(err).Fatal("failed to sign partial transaction")
		}
		fmt.Println("SIGNED TX:", signedTx)

		info, err := txSvc.InspectPsbt(ctx, signedTx)
		if err != nil {
			log.WithError(err).Fatal("failed to inspect partial transaction")
		}
		for _, in := range info.Inputs {
			fmt.Printf("INPUT %s:%d SIGNED BY %v\n", in.TxID, in.VOut, in.SignedBy)
		}

		if info.IsComplete {
			txHex, err := txSvc.FinalizePsbt(ctx, signedTx)
			if err != nil {
				log.WithError(err).Fatal("failed to finalize partial transaction")
			}
			fmt.Println("FINAL TX:", txHex)
		}
	}

	log.Exit(0)
}
