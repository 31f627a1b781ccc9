// Command tg-auth generates the Telegram session string the ingest stage
// needs. It authenticates once, interactively, and prints the string to add
// to .env as TG_SESSION_STRING.
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/celestix/gotgproto"
	"github.com/celestix/gotgproto/sessionMaker"
	"github.com/glebarez/sqlite"
	"github.com/gotd/td/session/tdesktop"
)

func main() {
	fmt.Println("telegram session generator")
	fmt.Println()

	in := bufio.NewReader(os.Stdin)

	apiID, apiHash := readCredentials(in)

	var client *gotgproto.Client
	var err error

	accounts, tdataPath := findDesktopSessions(in)
	if len(accounts) > 0 && wantDesktopAuth(in, len(accounts), tdataPath) {
		client, err = loginFromTData(apiID, apiHash, accounts, in)
	} else {
		client, err = loginWithPhone(apiID, apiHash, in)
	}
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	defer client.Stop()

	sessionString, err := client.ExportStringSession()
	if err != nil {
		fmt.Printf("error exporting session: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nauthenticated as @" + client.Self.Username)
	fmt.Println("\nsession string (add to .env as TG_SESSION_STRING):")
	fmt.Println("---")
	fmt.Println(sessionString)
	fmt.Println("---")
	fmt.Println("\nkeep this secret: it grants full access to your telegram account")
}

// readCredentials takes api_id and api_hash from the environment, prompting
// for whatever is missing.
func readCredentials(in *bufio.Reader) (int, string) {
	apiIDStr := os.Getenv("TG_API_ID")
	apiHash := os.Getenv("TG_API_HASH")

	if apiIDStr == "" {
		fmt.Print("api_id (from https://my.telegram.org): ")
		apiIDStr = readLine(in)
	}
	if apiHash == "" {
		fmt.Print("api_hash: ")
		apiHash = readLine(in)
	}

	apiID, err := strconv.Atoi(apiIDStr)
	if err != nil {
		fmt.Printf("invalid api_id: %v\n", err)
		os.Exit(1)
	}
	return apiID, apiHash
}

// findDesktopSessions looks for a Telegram Desktop tdata directory, first at
// the platform default and then at a user-supplied path.
func findDesktopSessions(in *bufio.Reader) ([]tdesktop.Account, string) {
	path := defaultTDataPath()
	accounts, err := tdesktop.Read(path, nil)
	if err == nil && len(accounts) > 0 {
		return accounts, path
	}

	fmt.Printf("no telegram desktop data at %s\n", path)
	fmt.Print("telegram desktop path (enter to skip): ")
	custom := readLine(in)
	if custom == "" {
		return nil, ""
	}
	if !strings.HasSuffix(custom, "tdata") {
		custom = filepath.Join(custom, "tdata")
	}
	accounts, err = tdesktop.Read(custom, nil)
	if err != nil {
		return nil, ""
	}
	return accounts, custom
}

func wantDesktopAuth(in *bufio.Reader, count int, path string) bool {
	fmt.Printf("\nfound %d telegram desktop session(s) at %s\n", count, path)
	fmt.Print("use desktop session? [Y/n]: ")
	answer := strings.ToLower(readLine(in))
	return answer == "" || answer == "y" || answer == "yes"
}

func loginFromTData(apiID int, apiHash string, accounts []tdesktop.Account, in *bufio.Reader) (*gotgproto.Client, error) {
	account := accounts[0]
	if len(accounts) > 1 {
		fmt.Printf("select account 1-%d [1]: ", len(accounts))
		if choice := readLine(in); choice != "" {
			n, err := strconv.Atoi(choice)
			if err == nil && n >= 1 && n <= len(accounts) {
				account = accounts[n-1]
			}
		}
	}

	fmt.Println("\nauthenticating with telegram desktop session...")
	return gotgproto.NewClient(
		apiID,
		apiHash,
		gotgproto.ClientTypePhone(""), // empty = use session
		&gotgproto.ClientOpts{
			Session:          sessionMaker.TdataSession(account).Name("tdata_session"),
			DisableCopyright: true,
		},
	)
}

func loginWithPhone(apiID int, apiHash string, in *bufio.Reader) (*gotgproto.Client, error) {
	fmt.Print("phone number with country code (e.g. +1234567890): ")
	phone := readLine(in)

	fmt.Println("\nauthenticating, check telegram for the login code...")
	client, err := gotgproto.NewClient(
		apiID,
		apiHash,
		gotgproto.ClientTypePhone(phone),
		&gotgproto.ClientOpts{
			Session:          sessionMaker.SqlSession(sqlite.Open("tg_session")),
			DisableCopyright: true,
		},
	)
	if err == nil {
		fmt.Println("\ntg_session.db holds temporary state, delete it after copying the string")
	}
	return client, err
}

func defaultTDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Telegram Desktop", "tdata")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Telegram Desktop", "tdata")
	default: // linux
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "TelegramDesktop", "tdata")
	}
}

func readLine(in *bufio.Reader) string {
	s, _ := in.ReadString('\n')
	return strings.TrimSpace(s)
}
