package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"

	"pschat/settings"
)

func main() {
	dbPath := flag.String("db", "", "Path to the badger settings DB")
	flag.Parse()
	if *dbPath == "" {
		log.Fatal("missing -db path")
	}

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	var rawBlob, theme, token []byte
	err = db.View(func(txn *badger.Txn) error {
		rawBlob = readKey(txn, "settings")
		theme = readKey(txn, "theme")
		token = readKey(txn, "ps-token")
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	tokenState := "absent"
	if len(token) > 0 {
		tokenState = fmt.Sprintf("present (%d bytes)", len(token))
	}
	fmt.Printf("theme key: %q\n", string(theme))
	fmt.Printf("login token: %s\n", tokenState)

	if len(rawBlob) == 0 {
		fmt.Println("no settings blob stored")
		return
	}
	var blob settings.Blob
	if err := json.Unmarshal(rawBlob, &blob); err != nil {
		log.Fatal("Error unmarshaling settings blob: ", err)
	}

	fmt.Printf("blob version: %d (current %d)\n", blob.Version, settings.BlobVersion)
	fmt.Printf("username: %q  avatar: %q  theme: %q\n", blob.Username, blob.Avatar, blob.Theme)
	fmt.Printf("server: %s\n", blob.ServerURL)
	fmt.Printf("loginserver: %s\n", blob.LoginServerURL)
	fmt.Println()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Room", "Open", "Last Read", "Highlight Words"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, room := range blob.Rooms {
		table.Append([]string{
			room.ID,
			fmt.Sprintf("%t", room.Open),
			room.LastReadTime.Format("2006-01-02 15:04:05"),
			strings.Join(blob.HighlightWords[room.ID], ", "),
		})
	}
	if words, ok := blob.HighlightWords["global"]; ok {
		table.Append([]string{"global", "", "", strings.Join(words, ", ")})
	}
	table.Render()
}

func readKey(txn *badger.Txn, key string) []byte {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return nil
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil
	}
	return val
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	db, err := badger.Open(opts)
	if err != nil {
		// A dirty shutdown can leave the value log needing a truncate,
		// which read-only mode refuses. Open in write mode once, then
		// reopen read-only.
		if strings.Contains(err.Error(), "Log truncate required") {
			repairOpts := badger.DefaultOptions(path).
				WithLogger(nil).WithBypassLockGuard(true)

			db, err = badger.Open(repairOpts)
			if err != nil {
				return nil, fmt.Errorf("repair failed: %w", err)
			}

			db.Close()
			return badger.Open(opts)
		}
		return nil, err
	}
	return db, nil
}
