// Command mortgagemesh runs the mortgage processing workflow system: as a
// JSON-RPC server (serve) or as a one-shot CLI that drives the same method
// table in-process.
//
// Exit codes: 0 on success, 1 on a domain or transport error, 2 on usage
// errors.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/mortgagemesh"
	"github.com/hupe1980/mortgagemesh/config"
	"github.com/hupe1980/mortgagemesh/core"
	"github.com/hupe1980/mortgagemesh/extract"
	"github.com/hupe1980/mortgagemesh/extract/anthropic"
	"github.com/hupe1980/mortgagemesh/extract/openai"
	"github.com/hupe1980/mortgagemesh/logging"
	"github.com/hupe1980/mortgagemesh/metrics"
	"github.com/hupe1980/mortgagemesh/rpc"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "serve":
		return cmdServe(rest)
	case "start":
		return cmdStart(rest)
	case "status":
		return cmdExecutionID("status", "workflow/status", rest)
	case "list":
		return cmdNoParams("list", "workflow/list", rest)
	case "cancel":
		return cmdExecutionID("cancel", "workflow/cancel", rest)
	case "agents":
		return cmdNoParams("agents", "agents/list", rest)
	case "agent-info":
		return cmdAgentInfo(rest)
	case "agent-run":
		return cmdAgentRun(rest)
	case "tools":
		return cmdNoParams("tools", "tools/list", rest)
	case "tool-call":
		return cmdToolCall(rest)
	case "health":
		return cmdNoParams("health", "system/health", rest)
	case "cleanup":
		return cmdCleanup(rest)
	case "sample":
		return cmdSample(rest)
	case "help", "-h", "--help":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: mortgagemesh <command> [flags]

Commands:
  serve        Run the JSON-RPC server
  start        Start a workflow execution over an application file
  status       Show one execution
  list         List all executions
  cancel       Cancel a running execution
  agents       List registered agents
  agent-info   Show one agent including its tool schemas
  agent-run    Run a single agent over an application file
  tools        List registered tools
  tool-call    Invoke a single tool standalone
  health       Show system health
  cleanup      Remove old terminal executions
  sample       Print a sample application JSON

Run 'mortgagemesh <command> -h' for command flags.
`)
}

// commonFlags are shared by every subcommand.
type commonFlags struct {
	configPath string
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{}
	fs.StringVar(&c.configPath, "config", "", "Path to YAML config file")
	return c
}

// buildMesh wires a Mesh from the config file and its extractor selection.
func buildMesh(c *commonFlags, withMetrics bool) (*mortgagemesh.Mesh, *config.Config, logging.Logger, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	logger := buildLogger(cfg)

	var ex extract.DocumentExtractor
	switch cfg.Extractor {
	case "anthropic":
		ex = anthropic.NewExtractor()
	case "openai":
		ex = openai.NewExtractor()
	default:
		ex = extract.NewStaticExtractor()
	}

	var rec *metrics.Recorder
	if withMetrics {
		rec = metrics.NewRecorder(prometheus.DefaultRegisterer)
	}

	mesh := mortgagemesh.New(func(o *mortgagemesh.Options) {
		o.Config = cfg
		o.Extractor = ex
		o.Logger = logger
		o.Metrics = rec
	})
	return mesh, cfg, logger, nil
}

func buildLogger(cfg *config.Config) logging.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.LogFormat == "json" {
		return logging.NewJSONLogger(os.Stderr, level)
	}
	return logging.NewSlogAdapter(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func cmdServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	c := addCommonFlags(fs)
	addr := fs.String("addr", "", "Listen address (overrides config)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	mesh, cfg, logger, err := buildMesh(c, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	srv := rpc.NewServer(mesh.Dispatcher(), cfg.Server, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	mesh.Wait()
	return 0
}

func cmdStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	c := addCommonFlags(fs)
	appPath := fs.String("app", "", "Path to application JSON file ('-' for stdin)")
	mode := fs.String("mode", "sequential", "Workflow mode: sequential or parallel")
	steps := fs.String("steps", "", "Comma-separated step subset (default: all)")
	wait := fs.Bool("wait", false, "Block until the execution reaches a terminal status")
	waitTimeout := fs.Duration("wait-timeout", 2*time.Minute, "Maximum time to wait with -wait")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *appPath == "" {
		fmt.Fprintln(os.Stderr, "start: -app is required")
		return 2
	}

	appData, err := readInput(*appPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	var app json.RawMessage = appData

	params := map[string]any{
		"application": app,
		"mode":        *mode,
	}
	if *steps != "" {
		params["steps"] = splitCSV(*steps)
	}

	mesh, _, _, err := buildMesh(c, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	result, code := dispatch(mesh, "workflow/start", params)
	if code != 0 {
		return code
	}

	if !*wait {
		printJSON(result)
		return 0
	}

	rec, ok := result.(*core.ExecutionRecord)
	if !ok {
		printJSON(result)
		return 1
	}

	deadline := time.Now().Add(*waitTimeout)
	for {
		snap, err := mesh.Status(rec.ID)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if snap.Status.Terminal() {
			printJSON(snap)
			if snap.Status != core.ExecutionCompleted {
				return 1
			}
			return 0
		}
		if time.Now().After(deadline) {
			fmt.Fprintf(os.Stderr, "execution %s still %s after %s\n", rec.ID, snap.Status, *waitTimeout)
			return 1
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func cmdExecutionID(name, method string, args []string) int {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	c := addCommonFlags(fs)
	id := fs.String("id", "", "Execution id")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *id == "" {
		fmt.Fprintf(os.Stderr, "%s: -id is required\n", name)
		return 2
	}

	mesh, _, _, err := buildMesh(c, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	result, code := dispatch(mesh, method, map[string]any{"execution_id": *id})
	if code == 0 {
		printJSON(result)
	}
	return code
}

func cmdNoParams(name, method string, args []string) int {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	c := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	mesh, _, _, err := buildMesh(c, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	result, code := dispatch(mesh, method, nil)
	if code == 0 {
		printJSON(result)
	}
	return code
}

func cmdAgentInfo(args []string) int {
	fs := flag.NewFlagSet("agent-info", flag.ExitOnError)
	c := addCommonFlags(fs)
	name := fs.String("name", "", "Agent step identifier")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *name == "" {
		fmt.Fprintln(os.Stderr, "agent-info: -name is required")
		return 2
	}

	mesh, _, _, err := buildMesh(c, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	result, code := dispatch(mesh, "agents/info", map[string]any{"name": *name})
	if code == 0 {
		printJSON(result)
	}
	return code
}

func cmdAgentRun(args []string) int {
	fs := flag.NewFlagSet("agent-run", flag.ExitOnError)
	c := addCommonFlags(fs)
	name := fs.String("name", "", "Agent step identifier")
	appPath := fs.String("app", "", "Path to application JSON file ('-' for stdin)")
	toolNames := fs.String("tools", "", "Comma-separated subset of the agent's tools to run (default: all)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *name == "" || *appPath == "" {
		fmt.Fprintln(os.Stderr, "agent-run: -name and -app are required")
		return 2
	}

	appData, err := readInput(*appPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	var app core.Application
	if err := json.Unmarshal(appData, &app); err != nil {
		fmt.Fprintf(os.Stderr, "agent-run: invalid application JSON: %v\n", err)
		return 1
	}
	if err := app.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	mesh, _, logger, err := buildMesh(c, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	a, err := mesh.Registry().Agent(*name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	rc := core.NewRunContext(context.Background(), "adhoc", &app, logger)
	res, err := a.Run(rc, splitCSV(*toolNames)...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printJSON(res)
	if !res.Success {
		return 1
	}
	return 0
}

func cmdToolCall(args []string) int {
	fs := flag.NewFlagSet("tool-call", flag.ExitOnError)
	c := addCommonFlags(fs)
	name := fs.String("name", "", "Tool name")
	rawArgs := fs.String("args", "{}", "Tool arguments as JSON object")
	appPath := fs.String("app", "", "Optional application JSON file for document tools")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *name == "" {
		fmt.Fprintln(os.Stderr, "tool-call: -name is required")
		return 2
	}

	var toolArgs map[string]any
	if err := json.Unmarshal([]byte(*rawArgs), &toolArgs); err != nil {
		fmt.Fprintf(os.Stderr, "tool-call: invalid -args JSON: %v\n", err)
		return 2
	}

	params := map[string]any{
		"name":      *name,
		"arguments": toolArgs,
	}
	if *appPath != "" {
		appData, err := readInput(*appPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		params["application"] = json.RawMessage(appData)
	}

	mesh, _, _, err := buildMesh(c, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	result, code := dispatch(mesh, "tools/call", params)
	if code == 0 {
		printJSON(result)
	}
	return code
}

func cmdCleanup(args []string) int {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	c := addCommonFlags(fs)
	olderThan := fs.String("older-than", "", "Age cutoff as a duration, for example 24h (default: config)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	params := map[string]any{}
	if *olderThan != "" {
		params["older_than"] = *olderThan
	}

	mesh, _, _, err := buildMesh(c, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	result, code := dispatch(mesh, "system/cleanup", params)
	if code == 0 {
		printJSON(result)
	}
	return code
}

func cmdSample(args []string) int {
	fs := flag.NewFlagSet("sample", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	printJSON(sampleApplication())
	return 0
}

// dispatch routes one method through the in-process dispatcher and maps RPC
// errors onto exit codes.
func dispatch(mesh *mortgagemesh.Mesh, method string, params map[string]any) (any, int) {
	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return nil, 1
		}
		raw = data
	}

	result, rpcErr := mesh.Dispatcher().Dispatch(context.Background(), method, raw)
	if rpcErr != nil {
		fmt.Fprintf(os.Stderr, "error %d: %s\n", rpcErr.Code, rpcErr.Message)
		if rpcErr.Data != nil {
			if data, err := json.Marshal(rpcErr.Data); err == nil {
				fmt.Fprintf(os.Stderr, "detail: %s\n", data)
			}
		}
		return nil, 1
	}
	return result, 0
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func sampleApplication() *core.Application {
	return &core.Application{
		ID: "APP-2024-001",
		Borrower: core.Borrower{
			FirstName:        "Jane",
			LastName:         "Homeowner",
			SSN:              "123-45-6789",
			DateOfBirth:      "1988-04-12",
			Email:            "jane.homeowner@example.com",
			Phone:            "+1-555-0142",
			CurrentAddress:   "742 Evergreen Terrace, Springfield, IL 62704",
			EmploymentStatus: "employed",
			Employer:         "Springfield General Hospital",
			AnnualIncome:     95000,
			MonthlyDebt:      650,
			CreditScore:      742,
		},
		Property: core.Property{
			Address:       "1420 Maple Street, Springfield, IL 62704",
			PropertyType:  "single_family",
			PropertyValue: 385000,
			YearBuilt:     1998,
		},
		Loan: core.LoanRequest{
			LoanAmount:    308000,
			LoanType:      "conventional",
			LoanTermYears: 30,
			DownPayment:   77000,
			Purpose:       "purchase",
		},
		Documents: []core.Document{
			{ID: "doc-1", Type: core.DocumentIdentity, FileName: "drivers_license.pdf"},
			{ID: "doc-2", Type: core.DocumentPayStub, FileName: "paystub_march.pdf"},
			{ID: "doc-3", Type: core.DocumentBankStatement, FileName: "bank_statement_q1.pdf"},
			{ID: "doc-4", Type: core.DocumentTaxDocument, FileName: "w2_2023.pdf"},
		},
		Status:    core.ProcessingPending,
		CreatedAt: time.Now(),
	}
}
