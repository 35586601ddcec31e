package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/cobra"
	"github.com/vulpemventures/lagoon/internal/core/domain"
)

var (
	datadir   = btcutil.AppDataDir("lagoon-cli", false)
	statePath = filepath.Join(datadir, "state.json")

	mnemonic    string
	password    string
	oldPassword string
	newPassword string

	importWIF         string
	importXPrv        string
	importPath        string
	importFingerprint string
	importOriginPath  string

	keyringGenSeedCmd = &cobra.Command{
		Use:   "genseed",
		Short: "generate a random mnemonic",
		Long: "this command lets you generate a new random mnemonic to " +
			"initialize a new keyring from scratch",
		RunE: keyringGenSeed,
	}
	keyringCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "initialize with a brand new keyring",
		Long: "this command lets you initialize a new keyring from scratch " +
			"with the given mnemonic (or let me create one for you), " +
			"encrypted with your choosen password",
		RunE: keyringCreate,
	}
	keyringUnlockCmd = &cobra.Command{
		Use:   "unlock",
		Short: "unlock the keyring",
		Long: "this command lets you verify that the keyring can be unlocked " +
			"with your password, its unlocked state lasts until the command returns",
		RunE: keyringUnlock,
	}
	keyringLockCmd = &cobra.Command{
		Use:   "lock",
		Short: "lock the keyring",
		Long:  "this command lets you lock the keyring with your password",
		RunE:  keyringLock,
	}
	keyringChangePwdCmd = &cobra.Command{
		Use:   "changepassword",
		Short: "change the keyring password",
		Long:  "this command lets you change the encryption password of the keyring",
		RunE:  keyringChangePwd,
	}
	keyringStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "get keyring status",
		Long: "this command returns info about the status of the keyring, like " +
			"if it's initialized or unlocked",
		RunE: keyringStatus,
	}
	keyringInfoCmd = &cobra.Command{
		Use:   "info",
		Short: "get info about the keyring",
		Long: "this command returns info about the keyring (network and build " +
			"info), along with its registered signers if the password is given",
		RunE: keyringInfo,
	}
	keyringImportCmd = &cobra.Command{
		Use:   "import",
		Short: "import a single key into the keyring",
		Long: "this command lets you import either a WIF private key or a " +
			"base58 extended private key, with optional derivation scope and " +
			"key origin, into the keyring",
		RunE: keyringImport,
	}
	keyringSignersCmd = &cobra.Command{
		Use:   "signers",
		Short: "list the signers of the keyring",
		Long: "this command returns the list of signers of the keyring with " +
			"their identity, type, ordering and public key",
		RunE: keyringSigners,
	}
	keyringExportCmd = &cobra.Command{
		Use:   "export",
		Short: "export the keys of the keyring",
		Long: "this command returns the keys of the keyring in their " +
			"serialized form, mapped by public identifier. Keep the output " +
			"safe, it embeds secret key material",
		RunE: keyringExport,
	}
	keyringCmd = &cobra.Command{
		Use:   "keyring",
		Short: "interact with the lagoon keyring",
		Long: "this command lets you initialize, unlock or change the password " +
			"of the keyring, as long as managing its keys and retrieving info " +
			"about its status",
	}
)

func init() {
	keyringCreateCmd.Flags().StringVar(
		&mnemonic, "mnemonic", "", "space separated word list as keyring seed",
	)
	keyringCreateCmd.Flags().StringVar(&password, "password", "", "encryption password")
	keyringCreateCmd.MarkFlagRequired("password")

	keyringUnlockCmd.Flags().StringVar(&password, "password", "", "encryption password")
	keyringUnlockCmd.MarkFlagRequired("password")

	keyringLockCmd.Flags().StringVar(&password, "password", "", "encryption password")
	keyringLockCmd.MarkFlagRequired("password")

	keyringChangePwdCmd.Flags().StringVar(&oldPassword, "old-password", "", "current password")
	keyringChangePwdCmd.Flags().StringVar(&newPassword, "new-password", "", "new password")
	keyringChangePwdCmd.MarkFlagRequired("old-password")
	keyringChangePwdCmd.MarkFlagRequired("new-password")

	keyringInfoCmd.Flags().StringVar(&password, "password", "", "encryption password")

	keyringImportCmd.Flags().StringVar(&password, "password", "", "encryption password")
	keyringImportCmd.Flags().StringVar(&importWIF, "wif", "", "WIF private key to import")
	keyringImportCmd.Flags().StringVar(&importXPrv, "xprv", "", "base58 extended private key to import")
	keyringImportCmd.Flags().StringVar(
		&importPath, "path", "", "derivation path narrowing the extended key to a subtree",
	)
	keyringImportCmd.Flags().StringVar(
		&importFingerprint, "fingerprint", "", "master fingerprint of the extended key origin",
	)
	keyringImportCmd.Flags().StringVar(
		&importOriginPath, "origin-path", "", "derivation path from the origin to the extended key",
	)
	keyringImportCmd.MarkFlagRequired("password")

	keyringSignersCmd.Flags().StringVar(&password, "password", "", "encryption password")
	keyringSignersCmd.MarkFlagRequired("password")

	keyringExportCmd.Flags().StringVar(&password, "password", "", "encryption password")
	keyringExportCmd.MarkFlagRequired("password")

	keyringCmd.AddCommand(
		keyringGenSeedCmd, keyringCreateCmd, keyringUnlockCmd, keyringLockCmd,
		keyringChangePwdCmd, keyringStatusCmd, keyringInfoCmd, keyringImportCmd,
		keyringSignersCmd, keyringExportCmd,
	)
}

func keyringGenSeed(cmd *cobra.Command, args []string) error {
	svc, err := getKeyringService()
	if err != nil {
		return err
	}

	words, err := svc.GenSeed(context.Background())
	if err != nil {
		printErr(err)
		return nil
	}

	fmt.Println(strings.Join(words, " "))
	return nil
}

func keyringCreate(cmd *cobra.Command, args []string) error {
	svc, err := getKeyringService()
	if err != nil {
		return err
	}

	ctx := context.Background()
	mnemonicToGenerate := len(mnemonic) == 0
	words := strings.Fields(mnemonic)
	if mnemonicToGenerate {
		words, err = svc.GenSeed(ctx)
		if err != nil {
			printErr(err)
			return nil
		}
	}

	if err := svc.CreateKeyring(ctx, words, password); err != nil {
		printErr(err)
		return nil
	}

	if mnemonicToGenerate {
		fmt.Println(strings.Join(words, " "))
		return nil
	}

	fmt.Println("")
	fmt.Println("keyring initialized")
	return nil
}

func keyringUnlock(cmd *cobra.Command, args []string) error {
	svc, err := getKeyringService()
	if err != nil {
		return err
	}

	if err := svc.Unlock(context.Background(), password); err != nil {
		printErr(err)
		return nil
	}

	fmt.Println("keyring unlocked")
	return nil
}

func keyringLock(cmd *cobra.Command, args []string) error {
	svc, err := getKeyringService()
	if err != nil {
		return err
	}

	if err := svc.Lock(context.Background(), password); err != nil {
		printErr(err)
		return nil
	}

	fmt.Println("keyring locked")
	return nil
}

func keyringChangePwd(cmd *cobra.Command, args []string) error {
	svc, err := getKeyringService()
	if err != nil {
		return err
	}

	if err := svc.ChangePassword(
		context.Background(), oldPassword, newPassword,
	); err != nil {
		printErr(err)
		return nil
	}

	fmt.Println("keyring password updated")
	return nil
}

func keyringStatus(cmd *cobra.Command, args []string) error {
	svc, err := getKeyringService()
	if err != nil {
		return err
	}

	status := svc.GetStatus(context.Background())

	jsonReply, err := jsonResponse(status)
	if err != nil {
		printErr(err)
		return nil
	}

	fmt.Println(jsonReply)
	return nil
}

func keyringInfo(cmd *cobra.Command, args []string) error {
	svc, err := getKeyringService()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if len(password) > 0 {
		if err := svc.Unlock(ctx, password); err != nil {
			printErr(err)
			return nil
		}
	}

	info, err := svc.GetInfo(ctx)
	if err != nil {
		printErr(err)
		return nil
	}

	jsonReply, err := jsonResponse(info)
	if err != nil {
		printErr(err)
		return nil
	}

	fmt.Println(jsonReply)
	return nil
}

func keyringImport(cmd *cobra.Command, args []string) error {
	if (len(importWIF) > 0) == (len(importXPrv) > 0) {
		printErr(fmt.Errorf("exactly one of --wif and --xprv must be set"))
		return nil
	}

	svc, err := getKeyringService()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := svc.Unlock(ctx, password); err != nil {
		printErr(err)
		return nil
	}

	if err := svc.ImportKey(ctx, password, domain.KeyRecord{
		WIF:         importWIF,
		XPrv:        importXPrv,
		Path:        importPath,
		Fingerprint: importFingerprint,
		OriginPath:  importOriginPath,
	}); err != nil {
		printErr(err)
		return nil
	}

	fmt.Println("key imported")
	return nil
}

func keyringSigners(cmd *cobra.Command, args []string) error {
	svc, err := getKeyringService()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := svc.Unlock(ctx, password); err != nil {
		printErr(err)
		return nil
	}

	signers, err := svc.ListSigners(ctx)
	if err != nil {
		printErr(err)
		return nil
	}

	jsonReply, err := jsonResponse(signers)
	if err != nil {
		printErr(err)
		return nil
	}

	fmt.Println(jsonReply)
	return nil
}

func keyringExport(cmd *cobra.Command, args []string) error {
	svc, err := getKeyringService()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := svc.Unlock(ctx, password); err != nil {
		printErr(err)
		return nil
	}

	keys, err := svc.ExportKeys(ctx, password)
	if err != nil {
		printErr(err)
		return nil
	}

	jsonReply, err := jsonResponse(keys)
	if err != nil {
		printErr(err)
		return nil
	}

	fmt.Println(jsonReply)
	return nil
}
