// privatepay-cli is a command-line client for interacting with a
// privatepayd daemon.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/emduc/PrivatePay/internal/rpcclient"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// Parse global flags that appear before the subcommand.
	rpcURL := "http://127.0.0.1:9645"

	args := os.Args[1:]
	for len(args) > 0 {
		switch {
		case args[0] == "--rpc" && len(args) > 1:
			rpcURL = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--rpc="):
			rpcURL = args[0][len("--rpc="):]
			args = args[1:]
		default:
			goto dispatch
		}
	}

dispatch:
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	client := rpcclient.New(rpcURL)
	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "import":
		cmdImport(client)
	case "info":
		cmdInfo(client)
	case "connect":
		cmdConnect(client)
	case "accounts":
		cmdAccounts(client)
	case "sessions":
		cmdSessions(client)
	case "switch":
		cmdSwitch(client, cmdArgs)
	case "sign":
		cmdSign(client, cmdArgs)
	case "send":
		cmdSend(rpcURL, cmdArgs)
	case "pending":
		cmdPending(client)
	case "approve":
		cmdApprove(client, cmdArgs)
	case "reject":
		cmdReject(client, cmdArgs)
	case "progress":
		cmdProgress(client)
	case "spoofing":
		cmdSpoofing(client, cmdArgs)
	case "chain":
		cmdChain(client, cmdArgs)
	case "balance":
		cmdBalance(client, cmdArgs)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: privatepay-cli [global flags] <command> [flags]

Global flags:
  --rpc <url>        RPC endpoint (default: http://127.0.0.1:9645)

Wallet commands:
  import             Import a recovery phrase (prompted, hidden input)
  info               Show master and current session addresses
  connect            Open a new session (derives a fresh address)
  accounts           Show the current session address
  sessions           List all derived sessions
  switch <n>         Switch to a previously derived session
  sign <message>     Sign a message with the current session key

Transaction commands:
  send --to <addr> [--value <wei-hex>] [--data <hex>] [--gas <hex>]
                     Submit a transaction and wait for approval
  pending            List transactions awaiting approval
  approve <txId>     Approve a pending transaction
  reject <txId>      Reject a pending transaction
  progress           Show the active submission's progress

Chain commands:
  chain              Show the advertised chain id
  chain switch <id>  Switch the advertised chain (0x-prefixed hex)
  balance <addr>     Show the synthetic balance advertised for an address
  spoofing on|off    Toggle decoy address display
`)
}

// ── Wallet commands ─────────────────────────────────────────────────────

func cmdImport(client *rpcclient.Client) {
	phrase, err := readSecret("Recovery phrase: ")
	if err != nil {
		fatal("read phrase: %v", err)
	}

	var result struct {
		Success       bool   `json:"success"`
		MasterAddress string `json:"masterAddress"`
	}
	err = client.Call("importWallet", map[string]string{"seedPhrase": string(phrase)}, &result)
	if err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Wallet imported\nMaster address: %s\n", result.MasterAddress)
}

func cmdInfo(client *rpcclient.Client) {
	var info struct {
		MasterAddress         string `json:"masterAddress"`
		CurrentSessionAddress string `json:"currentSessionAddress"`
		SessionCount          uint32 `json:"sessionCount"`
	}
	if err := client.Call("getWalletInfo", nil, &info); err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Master:   %s\n", info.MasterAddress)
	if info.CurrentSessionAddress != "" {
		fmt.Printf("Session:  %s\n", info.CurrentSessionAddress)
	} else {
		fmt.Println("Session:  (none)")
	}
	fmt.Printf("Sessions: %d\n", info.SessionCount)
}

func cmdConnect(client *rpcclient.Client) {
	var result struct {
		Address string `json:"address"`
	}
	if err := client.Call("connect", nil, &result); err != nil {
		fatal("%v", err)
	}
	if result.Address == "" {
		fatal("no wallet imported; run 'privatepay-cli import' first")
	}
	fmt.Printf("Session address: %s\n", result.Address)
}

func cmdAccounts(client *rpcclient.Client) {
	var result struct {
		Address string `json:"address"`
	}
	if err := client.Call("getAccounts", nil, &result); err != nil {
		fatal("%v", err)
	}
	if result.Address == "" {
		fmt.Println("Not connected")
		return
	}
	fmt.Println(result.Address)
}

func cmdSessions(client *rpcclient.Client) {
	var result struct {
		Sessions []struct {
			Number    uint32 `json:"sessionNumber"`
			Address   string `json:"address"`
			IsCurrent bool   `json:"isCurrent"`
		} `json:"sessions"`
	}
	if err := client.Call("getAllSessions", nil, &result); err != nil {
		fatal("%v", err)
	}
	if len(result.Sessions) == 0 {
		fmt.Println("No sessions yet")
		return
	}
	for _, s := range result.Sessions {
		marker := " "
		if s.IsCurrent {
			marker = "*"
		}
		fmt.Printf("%s %3d  %s\n", marker, s.Number, s.Address)
	}
}

func cmdSwitch(client *rpcclient.Client, args []string) {
	if len(args) != 1 {
		fatal("usage: privatepay-cli switch <session-number>")
	}
	n, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil || n == 0 {
		fatal("invalid session number %q", args[0])
	}

	var result struct {
		Address string `json:"address"`
	}
	err = client.Call("switchToSession", map[string]uint32{"sessionNumber": uint32(n)}, &result)
	if err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Switched to session %d: %s\n", n, result.Address)
}

func cmdSign(client *rpcclient.Client, args []string) {
	if len(args) != 1 {
		fatal("usage: privatepay-cli sign <message>")
	}
	var result struct {
		Signature string `json:"signature"`
	}
	if err := client.Call("personalSign", map[string]string{"message": args[0]}, &result); err != nil {
		fatal("%v", err)
	}
	fmt.Println(result.Signature)
}

// ── Transaction commands ────────────────────────────────────────────────

func cmdSend(rpcURL string, args []string) {
	txParams := map[string]interface{}{}
	for len(args) > 0 {
		switch {
		case args[0] == "--to" && len(args) > 1:
			txParams["to"] = args[1]
			args = args[2:]
		case args[0] == "--value" && len(args) > 1:
			txParams["value"] = args[1]
			args = args[2:]
		case args[0] == "--data" && len(args) > 1:
			txParams["data"] = args[1]
			args = args[2:]
		case args[0] == "--gas" && len(args) > 1:
			txParams["gas"] = args[1]
			args = args[2:]
		default:
			fatal("unknown send flag %q", args[0])
		}
	}
	if txParams["to"] == nil {
		fatal("usage: privatepay-cli send --to <addr> [--value <wei-hex>] [--data <hex>] [--gas <hex>]")
	}

	// The daemon holds this call open until the transaction is approved,
	// funded, and broadcast.
	client := rpcclient.NewWithTimeout(rpcURL, 10*time.Minute)
	fmt.Println("Transaction queued; approve it with 'privatepay-cli pending' and 'approve <txId>'")

	var result struct {
		TxHash string `json:"txHash"`
	}
	err := client.Call("sendTransaction", map[string]interface{}{"txParams": txParams}, &result)
	if err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Broadcast: %s\n", result.TxHash)
}

func cmdPending(client *rpcclient.Client) {
	var result struct {
		Transactions []struct {
			ID             string                 `json:"txId"`
			Params         map[string]interface{} `json:"params"`
			ReceivedAt     time.Time              `json:"receivedAt"`
			SessionAddress string                 `json:"sessionAddress"`
		} `json:"transactions"`
	}
	if err := client.Call("getPendingTransactions", nil, &result); err != nil {
		fatal("%v", err)
	}
	if len(result.Transactions) == 0 {
		fmt.Println("No pending transactions")
		return
	}
	for _, tx := range result.Transactions {
		params, _ := json.MarshalIndent(tx.Params, "  ", "  ")
		fmt.Printf("%s  (received %s)\n  %s\n",
			tx.ID, tx.ReceivedAt.Format(time.RFC3339), params)
	}
}

func cmdApprove(client *rpcclient.Client, args []string) {
	if len(args) != 1 {
		fatal("usage: privatepay-cli approve <txId>")
	}
	if err := client.Call("approveTransaction", map[string]string{"txId": args[0]}, nil); err != nil {
		fatal("%v", err)
	}
	fmt.Println("Approved; track it with 'privatepay-cli progress'")
}

func cmdReject(client *rpcclient.Client, args []string) {
	if len(args) != 1 {
		fatal("usage: privatepay-cli reject <txId>")
	}
	if err := client.Call("rejectTransaction", map[string]string{"txId": args[0]}, nil); err != nil {
		fatal("%v", err)
	}
	fmt.Println("Rejected")
}

func cmdProgress(client *rpcclient.Client) {
	var result *struct {
		TxID       string `json:"txId"`
		Step       int    `json:"step"`
		TotalSteps int    `json:"totalSteps"`
		Label      string `json:"label"`
		Status     string `json:"status"`
		Hash       string `json:"hash"`
		Error      string `json:"error"`
	}
	if err := client.Call("getTransactionProgress", nil, &result); err != nil {
		fatal("%v", err)
	}
	if result == nil {
		fmt.Println("No submission in flight")
		return
	}
	fmt.Printf("%s  step %d/%d  %s  [%s]\n",
		result.TxID, result.Step, result.TotalSteps, result.Label, result.Status)
	if result.Hash != "" {
		fmt.Printf("  hash:  %s\n", result.Hash)
	}
	if result.Error != "" {
		fmt.Printf("  error: %s\n", result.Error)
	}
}

// ── Chain commands ──────────────────────────────────────────────────────

func cmdChain(client *rpcclient.Client, args []string) {
	if len(args) == 2 && args[0] == "switch" {
		if err := client.Call("switchChain", map[string]string{"chainId": args[1]}, nil); err != nil {
			fatal("%v", err)
		}
		fmt.Printf("Switched to chain %s\n", args[1])
		return
	}
	if len(args) != 0 {
		fatal("usage: privatepay-cli chain [switch <0x-chain-id>]")
	}

	var chainID struct {
		ChainID string `json:"chainId"`
	}
	var version struct {
		NetworkVersion string `json:"networkVersion"`
	}
	if err := client.Call("getChainId", nil, &chainID); err != nil {
		fatal("%v", err)
	}
	if err := client.Call("getNetworkVersion", nil, &version); err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Chain id: %s (network %s)\n", chainID.ChainID, version.NetworkVersion)
}

func cmdBalance(client *rpcclient.Client, args []string) {
	if len(args) != 1 {
		fatal("usage: privatepay-cli balance <address>")
	}
	var result struct {
		Balance string `json:"balance"`
	}
	if err := client.Call("getBalance", map[string]string{"address": args[0]}, &result); err != nil {
		fatal("%v", err)
	}
	fmt.Println(result.Balance)
}

func cmdSpoofing(client *rpcclient.Client, args []string) {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		fatal("usage: privatepay-cli spoofing on|off")
	}
	enabled := args[0] == "on"
	if err := client.Call("setAddressSpoofing", map[string]bool{"enabled": enabled}, nil); err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Address spoofing %s\n", args[0])
}

// ── Input helpers ───────────────────────────────────────────────────────

func readSecret(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return secret, nil
}

// ── Error helper ────────────────────────────────────────────────────────

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
