package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	txFinalize bool

	txSignCmd = &cobra.Command{
		Use:   "sign",
		Short: "sign a partial transaction",
		Long: "this command lets you run a signing pass with all the signers " +
			"of the keyring over the given partial transaction (in base64 format)",
		RunE: txSign,
	}
	txFinalizeCmd = &cobra.Command{
		Use:   "finalize",
		Short: "finalize a partial transaction",
		Long: "this command lets you finalize the given partial transaction " +
			"(in base64 format) and extract its complete raw form (in hex " +
			"format), ready to be broadcasted",
		RunE: txFinalizeRun,
	}
	txInspectCmd = &cobra.Command{
		Use:   "inspect",
		Short: "get info about a partial transaction",
		Long: "this command returns a breakdown of the given partial " +
			"transaction (in base64 format), like its inputs with their " +
			"signatures and its outputs, and whether it's complete",
		RunE: txInspect,
	}
	txCmd = &cobra.Command{
		Use:   "transaction",
		Short: "interact with partial transactions",
		Long: "this command lets you sign, finalize and inspect partially " +
			"signed bitcoin transactions with the keys of the keyring",
	}
)

func init() {
	txSignCmd.Flags().StringVar(&password, "password", "", "encryption password")
	txSignCmd.Flags().BoolVar(
		&txFinalize, "finalize", false,
		"use this flag to also finalize the signed transaction and get the "+
			"raw tx hex instead of the updated partial transaction",
	)
	txSignCmd.MarkFlagRequired("password")

	txCmd.AddCommand(txSignCmd, txFinalizeCmd, txInspectCmd)
}

func txSign(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		printErr(fmt.Errorf("missing partial transaction in base64 format"))
		return nil
	}

	keyringSvc, err := getKeyringService()
	if err != nil {
		return err
	}
	svc, err := getTransactionService()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := keyringSvc.Unlock(ctx, password); err != nil {
		printErr(err)
		return nil
	}

	signedTx, err := svc.SignPsbt(ctx, args[0])
	if err != nil {
		printErr(err)
		return nil
	}

	if !txFinalize {
		fmt.Println(signedTx)
		return nil
	}

	txHex, err := svc.FinalizePsbt(ctx, signedTx)
	if err != nil {
		printErr(err)
		return nil
	}

	fmt.Println(txHex)
	return nil
}

func txFinalizeRun(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		printErr(fmt.Errorf("missing partial transaction in base64 format"))
		return nil
	}

	svc, err := getTransactionService()
	if err != nil {
		return err
	}

	txHex, err := svc.FinalizePsbt(context.Background(), args[0])
	if err != nil {
		printErr(err)
		return nil
	}

	fmt.Println(txHex)
	return nil
}

func txInspect(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		printErr(fmt.Errorf("missing partial transaction in base64 format"))
		return nil
	}

	svc, err := getTransactionService()
	if err != nil {
		return err
	}

	info, err := svc.InspectPsbt(context.Background(), args[0])
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
