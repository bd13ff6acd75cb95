package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	team := fs.Int("team", 0, "show one player instead of the match state (with -index)")
	index := fs.Int("index", 0, "player index when -team is set")
	_ = fs.Parse(args)

	u := strings.TrimRight(strings.TrimSpace(*baseURL), "/") + "/admin/v1/state"
	if *team != 0 {
		u = fmt.Sprintf("%s/admin/v1/players/%d/%d", strings.TrimRight(strings.TrimSpace(*baseURL), "/"), *team, *index)
	}
	os.Exit(adminRequest(http.MethodGet, u, 5*time.Second))
}

func snapshotCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)

	u := strings.TrimRight(strings.TrimSpace(*baseURL), "/") + "/admin/v1/snapshot"
	os.Exit(adminRequest(http.MethodPost, u, 10*time.Second))
}

// adminRequest prints the response body and returns the process exit code.
func adminRequest(method, u string, timeout time.Duration) int {
	req, _ := http.NewRequest(method, u, nil)
	cl := &http.Client{Timeout: timeout}
	resp, err := cl.Do(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		return 1
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Println(string(b))
	if resp.StatusCode/100 != 2 {
		return 1
	}
	return 0
}
