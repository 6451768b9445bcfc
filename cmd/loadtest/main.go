// loadtest прогоняет сценарии составления заказа против ComposeService.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	abastav1 "github.com/vladislavdragonenkov/abasta/proto/abasta/v1"
)

const (
	idempotencyHeader   = "idempotency-key"
	authorizationHeader = "authorization"
)

type loadMode string

const (
	modeCompose     loadMode = "compose"
	modeComposeSave loadMode = "compose-save"
	modeComposeSend loadMode = "compose-send"
)

type config struct {
	addr        string
	email       string
	password    string
	total       int
	totalSet    bool
	duration    time.Duration
	concurrency int
	connections int
	timeout     time.Duration
	mode        loadMode
	supplierID  string
	productIDs  []string
	channel     string
	namePrefix  string
	outputPath  string
}

// composeClient: подмножество ComposeServiceClient, которое использует сценарий.
type composeClient interface {
	OpenDraft(ctx context.Context, in *abastav1.OpenDraftRequest, opts ...grpc.CallOption) (*abastav1.DraftResponse, error)
	CloseDraft(ctx context.Context, in *abastav1.DraftRequest, opts ...grpc.CallOption) (*abastav1.CloseDraftResponse, error)
	SelectSupplier(ctx context.Context, in *abastav1.SelectSupplierRequest, opts ...grpc.CallOption) (*abastav1.SupplierChangeResponse, error)
	AddProduct(ctx context.Context, in *abastav1.ItemRequest, opts ...grpc.CallOption) (*abastav1.AddProductResponse, error)
	SetName(ctx context.Context, in *abastav1.SetNameRequest, opts ...grpc.CallOption) (*abastav1.DraftResponse, error)
	SaveDraft(ctx context.Context, in *abastav1.DraftRequest, opts ...grpc.CallOption) (*abastav1.SaveDraftResponse, error)
	OpenDispatch(ctx context.Context, in *abastav1.DraftRequest, opts ...grpc.CallOption) (*abastav1.OpenDispatchResponse, error)
	SelectChannel(ctx context.Context, in *abastav1.SelectChannelRequest, opts ...grpc.CallOption) (*abastav1.DraftResponse, error)
	SendOrder(ctx context.Context, in *abastav1.DraftRequest, opts ...grpc.CallOption) (*abastav1.SendOrderResponse, error)
}

var _ composeClient = abastav1.ComposeServiceClient(nil)

func parseConfig(args []string) (config, error) {
	var (
		cfg         config
		modeValue   string
		productsRaw string
	)

	flags := flag.NewFlagSet("loadtest", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.StringVar(&cfg.addr, "addr", "localhost:50051", "gRPC target address")
	flags.StringVar(&cfg.email, "email", "", "backend user email")
	flags.StringVar(&cfg.password, "password", "", "backend user password")
	flags.IntVar(&cfg.total, "total", 200, "total scenarios to execute in count mode; in duration mode only used when explicitly set")
	flags.DurationVar(&cfg.duration, "duration", 0, "optional time-based run duration (e.g. 10m)")
	flags.IntVar(&cfg.concurrency, "concurrency", 20, "number of concurrent workers")
	flags.IntVar(&cfg.connections, "connections", 10, "number of gRPC client connections")
	flags.DurationVar(&cfg.timeout, "timeout", 5*time.Second, "per-RPC timeout")
	flags.StringVar(&modeValue, "mode", string(modeCompose), "load mode: compose | compose-save | compose-send")
	flags.StringVar(&cfg.supplierID, "supplier", "", "supplier id for new drafts")
	flags.StringVar(&productsRaw, "products", "", "comma-separated product ids added to each draft")
	flags.StringVar(&cfg.channel, "channel", "email", "dispatch channel for compose-send: email | whatsapp")
	flags.StringVar(&cfg.namePrefix, "name-prefix", "load", "order name prefix")
	flags.StringVar(&cfg.outputPath, "output", "", "optional JSON report output file path")
	if err := flags.Parse(args); err != nil {
		return cfg, err
	}
	flags.Visit(func(f *flag.Flag) {
		if f.Name == "total" {
			cfg.totalSet = true
		}
	})

	mode, err := parseMode(modeValue)
	if err != nil {
		return cfg, err
	}
	cfg.mode = mode
	cfg.productIDs = splitList(productsRaw)
	cfg.channel = strings.TrimSpace(cfg.channel)

	switch {
	case strings.TrimSpace(cfg.email) == "" || cfg.password == "":
		return cfg, errors.New("email and password are required")
	case cfg.duration < 0:
		return cfg, errors.New("duration must be >= 0")
	case cfg.duration == 0 && cfg.total <= 0:
		return cfg, errors.New("total must be > 0 when duration is not set")
	case cfg.duration > 0 && cfg.totalSet && cfg.total <= 0:
		return cfg, errors.New("total must be > 0 when explicitly set with duration")
	case cfg.concurrency <= 0:
		return cfg, errors.New("concurrency must be > 0")
	case cfg.connections <= 0:
		return cfg, errors.New("connections must be > 0")
	case cfg.timeout <= 0:
		return cfg, errors.New("timeout must be > 0")
	case strings.TrimSpace(cfg.supplierID) == "":
		return cfg, errors.New("supplier is required")
	case len(cfg.productIDs) == 0:
		return cfg, errors.New("at least one product is required")
	case cfg.channel != "email" && cfg.channel != "whatsapp":
		return cfg, fmt.Errorf("unsupported channel: %s", cfg.channel)
	case strings.TrimSpace(cfg.namePrefix) == "":
		return cfg, errors.New("name-prefix is required")
	}
	return cfg, nil
}

func parseMode(value string) (loadMode, error) {
	switch mode := loadMode(strings.TrimSpace(value)); mode {
	case modeCompose, modeComposeSave, modeComposeSend:
		return mode, nil
	default:
		return "", fmt.Errorf("unsupported mode: %s", value)
	}
}

func splitList(raw string) []string {
	var out []string
	for _, chunk := range strings.Split(raw, ",") {
		if value := strings.TrimSpace(chunk); value != "" {
			out = append(out, value)
		}
	}
	return out
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

var errFailedScenarios = errors.New("load test finished with failed scenarios")

func run(args []string, out io.Writer) error {
	cfg, err := parseConfig(args)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	conns := make([]*grpc.ClientConn, 0, cfg.connections)
	defer func() {
		for _, conn := range conns {
			_ = conn.Close()
		}
	}()

	clients := make([]abastav1.ComposeServiceClient, 0, cfg.connections)
	for i := 0; i < cfg.connections; i++ {
		conn, dialErr := grpc.NewClient(cfg.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if dialErr != nil {
			return fmt.Errorf("create grpc client connection: %w", dialErr)
		}
		conns = append(conns, conn)
		clients = append(clients, abastav1.NewComposeServiceClient(conn))
	}

	// Каждому воркеру своя сессия: черновики изолированы по пользователю и токену.
	col := newCollector()
	workers := make([]worker, 0, cfg.concurrency)
	for i := 0; i < cfg.concurrency; i++ {
		client := clients[i%len(clients)]
		token, loginErr := login(client, cfg, col)
		if loginErr != nil {
			return fmt.Errorf("login failed: %w", loginErr)
		}
		workers = append(workers, worker{client: client, token: token})
	}

	startedAt := time.Now()
	runID := fmt.Sprintf("%d-%d", startedAt.UnixNano(), os.Getpid())
	runWorkers(workers, cfg, runID, col)

	result := col.buildReport(startedAt, time.Since(startedAt))
	printReport(out, result, cfg)
	if cfg.outputPath != "" {
		if err := writeJSONReport(cfg.outputPath, result); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	if result.FailedScenarios > 0 {
		return errFailedScenarios
	}
	return nil
}

type worker struct {
	client composeClient
	token  string
}

func runWorkers(workers []worker, cfg config, runID string, col *collector) {
	jobs := make(chan int, len(workers)*2)
	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func(w worker) {
			defer wg.Done()
			for id := range jobs {
				_ = runScenario(w, cfg, id, runID, col)
			}
		}(w)
	}
	dispatchJobs(jobs, cfg)
	wg.Wait()
}

func login(client abastav1.ComposeServiceClient, cfg config, col *collector) (string, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	resp, err := client.Login(ctx, &abastav1.LoginRequest{Email: cfg.email, Password: cfg.password})
	col.record("Login", time.Since(start), grpcCode(err))
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("login returned empty token")
	}
	return resp.Token, nil
}

func dispatchJobs(jobs chan<- int, cfg config) {
	defer close(jobs)

	if cfg.duration <= 0 {
		for i := 0; i < cfg.total; i++ {
			jobs <- i
		}
		return
	}

	timer := time.NewTimer(cfg.duration)
	defer timer.Stop()

	for i := 0; ; i++ {
		if cfg.totalSet && i >= cfg.total {
			return
		}
		select {
		case <-timer.C:
			return
		case jobs <- i:
		}
	}
}

// errScenarioRejected: RPC прошёл, но сервер вернул отказ в теле ответа.
var errScenarioRejected = errors.New("scenario rejected by server")

func runScenario(w worker, cfg config, index int, runID string, col *collector) (err error) {
	scenarioStart := time.Now()
	defer func() {
		code := grpcCode(err)
		if errors.Is(err, errScenarioRejected) {
			code = codes.FailedPrecondition
		}
		col.record(scenarioMetric, time.Since(scenarioStart), code)
	}()

	call := rpcCaller{w: w, timeout: cfg.timeout, col: col}

	opened, err := timed(call, "OpenDraft", nil, func(ctx context.Context) (*abastav1.DraftResponse, error) {
		return w.client.OpenDraft(ctx, &abastav1.OpenDraftRequest{Mode: "new"})
	})
	if err != nil {
		return err
	}
	if opened.Draft == nil || opened.Draft.ID == "" {
		return fmt.Errorf("%w: open returned empty draft", errScenarioRejected)
	}
	draftID := opened.Draft.ID
	defer func() {
		_, _ = timed(call, "CloseDraft", nil, func(ctx context.Context) (*abastav1.CloseDraftResponse, error) {
			return w.client.CloseDraft(ctx, &abastav1.DraftRequest{DraftID: draftID})
		})
	}()

	if _, err := timed(call, "SelectSupplier", nil, func(ctx context.Context) (*abastav1.SupplierChangeResponse, error) {
		return w.client.SelectSupplier(ctx, &abastav1.SelectSupplierRequest{DraftID: draftID, SupplierID: cfg.supplierID})
	}); err != nil {
		return err
	}

	for _, productID := range cfg.productIDs {
		if _, err := timed(call, "AddProduct", nil, func(ctx context.Context) (*abastav1.AddProductResponse, error) {
			return w.client.AddProduct(ctx, &abastav1.ItemRequest{DraftID: draftID, ProductID: productID})
		}); err != nil {
			return err
		}
	}

	if cfg.mode == modeCompose {
		return nil
	}

	if _, err := timed(call, "SetName", nil, func(ctx context.Context) (*abastav1.DraftResponse, error) {
		return w.client.SetName(ctx, &abastav1.SetNameRequest{DraftID: draftID, Name: fmt.Sprintf("%s-%s-%d", cfg.namePrefix, runID, index)})
	}); err != nil {
		return err
	}

	saveKey := fmt.Sprintf("lt-save-%s-%d", runID, index)
	saved, err := timed(call, "SaveDraft", []string{idempotencyHeader, saveKey}, func(ctx context.Context) (*abastav1.SaveDraftResponse, error) {
		return w.client.SaveDraft(ctx, &abastav1.DraftRequest{DraftID: draftID})
	})
	if err != nil {
		return err
	}
	if !saved.Success {
		return fmt.Errorf("%w: save: %s", errScenarioRejected, saved.Message)
	}

	if cfg.mode == modeComposeSave {
		return nil
	}

	dispatch, err := timed(call, "OpenDispatch", nil, func(ctx context.Context) (*abastav1.OpenDispatchResponse, error) {
		return w.client.OpenDispatch(ctx, &abastav1.DraftRequest{DraftID: draftID})
	})
	if err != nil {
		return err
	}
	if !dispatch.Opened {
		return fmt.Errorf("%w: dispatch: %s", errScenarioRejected, dispatch.Message)
	}

	if _, err := timed(call, "SelectChannel", nil, func(ctx context.Context) (*abastav1.DraftResponse, error) {
		return w.client.SelectChannel(ctx, &abastav1.SelectChannelRequest{DraftID: draftID, Channel: cfg.channel})
	}); err != nil {
		return err
	}

	sendKey := fmt.Sprintf("lt-send-%s-%d", runID, index)
	sent, err := timed(call, "SendOrder", []string{idempotencyHeader, sendKey}, func(ctx context.Context) (*abastav1.SendOrderResponse, error) {
		return w.client.SendOrder(ctx, &abastav1.DraftRequest{DraftID: draftID})
	})
	if err != nil {
		return err
	}
	if !sent.Success {
		return fmt.Errorf("%w: send: %s", errScenarioRejected, sent.Message)
	}
	return nil
}

type rpcCaller struct {
	w       worker
	timeout time.Duration
	col     *collector
}

// timed выполняет RPC с токеном сессии и пишет задержку в collector.
func timed[Resp any](c rpcCaller, method string, extraMD []string, fn func(context.Context) (*Resp, error)) (*Resp, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	md := append([]string{authorizationHeader, "Bearer " + c.w.token}, extraMD...)
	ctx = metadata.AppendToOutgoingContext(ctx, md...)

	resp, err := fn(ctx)
	c.col.record(method, time.Since(start), grpcCode(err))
	if err == nil && resp == nil {
		return nil, status.Error(codes.Internal, method+" returned empty response")
	}
	return resp, err
}

func grpcCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	return status.Code(err)
}
