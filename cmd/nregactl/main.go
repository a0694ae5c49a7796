package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"nregahub/pkg/models"
)

const defaultBaseURL = "http://localhost:8080"

func baseURL() string {
	if v := strings.TrimSpace(os.Getenv("NREGAHUB_API_URL")); v != "" {
		return strings.TrimRight(v, "/")
	}
	return defaultBaseURL
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: nregactl <command> [args]

commands:
  districts [-state NAME]     list the district catalog
  district <code>             show one district
  stats <code> [-year YYYY]   list statistics for a district
  latest <code>               show the most recent statistic row
  health                      store-wide coverage report
  watch                       tail the live sync feed`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	var err error
	switch os.Args[1] {
	case "districts":
		err = cmdDistricts(os.Args[2:])
	case "district":
		err = cmdDistrict(os.Args[2:])
	case "stats":
		err = cmdStats(os.Args[2:])
	case "latest":
		err = cmdLatest(os.Args[2:])
	case "health":
		err = cmdHealth()
	case "watch":
		err = cmdWatch()
	default:
		usage()
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func getJSON(path string, out any) error {
	resp, err := http.Get(baseURL() + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func cmdDistricts(args []string) error {
	fs := flag.NewFlagSet("districts", flag.ExitOnError)
	state := fs.String("state", "", "filter by state")
	_ = fs.Parse(args)

	path := "/districts"
	if *state != "" {
		path += "?state=" + url.QueryEscape(*state)
	}

	var resp struct {
		Total int               `json:"total"`
		Items []models.District `json:"items"`
	}
	if err := getJSON(path, &resp); err != nil {
		return err
	}

	fmt.Printf("%-10s %-24s %s\n", "CODE", "NAME", "STATE")
	for _, d := range resp.Items {
		fmt.Printf("%-10s %-24s %s\n", d.DistrictCode, d.Name, d.State)
	}
	fmt.Printf("total: %d\n", resp.Total)
	return nil
}

func cmdDistrict(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("district code required")
	}

	var d models.District
	if err := getJSON("/districts/"+url.PathEscape(args[0]), &d); err != nil {
		return err
	}
	return printJSON(d)
}

func cmdStats(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("district code required")
	}
	code := args[0]

	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	year := fs.Int("year", 0, "filter by year")
	_ = fs.Parse(args[1:])

	path := "/districts/" + url.PathEscape(code) + "/stats"
	if *year > 0 {
		path += fmt.Sprintf("?year=%d", *year)
	}

	var resp struct {
		Total int                      `json:"total"`
		Items []models.PeriodStatistic `json:"items"`
	}
	if err := getJSON(path, &resp); err != nil {
		return err
	}

	fmt.Printf("%-6s %-6s %12s %12s %16s %8s\n", "YEAR", "MONTH", "WORKERS", "ACTIVE", "EXPENDITURE", "RATE")
	for _, s := range resp.Items {
		month := "annual"
		if s.Month != nil {
			month = fmt.Sprintf("%d", *s.Month)
		}
		fmt.Printf("%-6d %-6s %12d %12d %16s %8s\n",
			s.Year, month, s.TotalWorkers, s.ActiveWorkers,
			s.TotalExpenditure.StringFixed(2), s.EmploymentRate.StringFixed(2))
	}
	fmt.Printf("total: %d\n", resp.Total)
	return nil
}

func cmdLatest(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("district code required")
	}

	var resp json.RawMessage
	if err := getJSON("/districts/"+url.PathEscape(args[0])+"/stats/latest", &resp); err != nil {
		return err
	}
	return printJSON(resp)
}

func cmdHealth() error {
	var resp json.RawMessage
	if err := getJSON("/health/data", &resp); err != nil {
		return err
	}
	return printJSON(resp)
}

// cmdWatch tails the live sync feed over WebSocket until interrupted.
func cmdWatch() error {
	u, err := url.Parse(baseURL())
	if err != nil {
		return err
	}
	wsURL := "ws://" + u.Host + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	fmt.Println("watching sync feed (ctrl-c to stop)")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	msgCh := make(chan []byte)
	errCh := make(chan error, 1)
	go func() {
		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				errCh <- err
				return
			}
			msgCh <- b
		}
	}()

	for {
		select {
		case <-sigCh:
			return nil
		case err := <-errCh:
			return err
		case b := <-msgCh:
			fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05"), strings.TrimSpace(string(b)))
		}
	}
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
