package main

import (
    "context"
    "encoding/json"
    "flag"
    "log"
    "net/http"
    "os"
    "path/filepath"
    "time"

    "github.com/joho/godotenv"

    "reweave/internal/analytics"
    "reweave/internal/config"
    "reweave/internal/events"
    "reweave/internal/graph"
    "reweave/internal/llm"
    "reweave/internal/orchestrator"
    "reweave/internal/planner"
    "reweave/internal/runstore"
    t "reweave/internal/types"
)

func main() {
    analysisPath := flag.String("analysis", "", "path to the analysis input JSON")
    outDir := flag.String("out", "out", "output directory")
    cfgPath := flag.String("config", "", "run policy YAML (optional)")
    model := flag.String("model", "gemini-2.5-flash", "Gemini model id")
    offline := flag.Bool("offline", false, "use the deterministic fake client")
    eventsAddr := flag.String("events-addr", "", "serve step events over websocket on this address")
    parallel := flag.Int("parallel", 0, "override max parallel steps")
    timeout := flag.Duration("timeout", 0, "override run timeout")
    planOnly := flag.Bool("plan-only", false, "stop after writing the strategy document")
    flag.Parse()
    if *analysisPath == "" { log.Fatal("--analysis is required") }
    if err := os.MkdirAll(*outDir, 0o755); err != nil { log.Fatal(err) }

    _ = godotenv.Load()

    pol := config.DefaultPolicy()
    if *cfgPath != "" {
        var err error
        pol, err = config.Load(*cfgPath)
        if err != nil { log.Fatal(err) }
    }
    if *parallel > 0 { pol.MaxParallel = *parallel }
    if *timeout > 0 { pol.RunTimeout = *timeout }

    var in t.AnalysisInput
    readJSON(*analysisPath, &in)
    log.Printf("analysis input: %d entities, %d dependencies", len(in.Entities), len(in.Dependencies))

    g, diags := graph.Build(in.Entities, in.Dependencies)
    for _, d := range diags {
        log.Printf("graph: %s: %s", d.Kind, d.Detail)
    }
    log.Printf("graph built: %d nodes, %d edges", g.NodeCount(), g.EdgeCount())

    ctx := context.Background()
    res, err := analytics.Analyze(ctx, g, analytics.Options{
        BetweennessMaxNodes: pol.Analytics.BetweennessMaxNodes,
        CoreTopK:            pol.Analytics.CoreTopK,
    })
    if err != nil { log.Fatal(err) }
    writeJSON(*outDir, "knowledge_graph.json", res.Knowledge())

    doc := planner.Plan(g, res)
    writeJSON(*outDir, "strategy.json", doc)
    log.Printf("strategy: %d steps", len(doc.Steps))
    if *planOnly {
        log.Println("plan written →", *outDir)
        return
    }

    var cli llm.Client
    var broker llm.PermitBroker
    if *offline {
        cli = llm.NewFakeClient()
    } else {
        if os.Getenv("GEMINI_API_KEY") == "" { log.Fatal("GEMINI_API_KEY is not set") }
        gem, err := llm.NewGeminiClient(ctx, *model)
        if err != nil { log.Fatal(err) }
        cli = llm.Wrap(gem,
            llm.Retry(3, 500*time.Millisecond),
            llm.RateLimit(2, 4),
        )
        // Reserved credits let a dispatched step's role calls bypass the
        // middleware limiter; dispatch itself is paced here instead.
        broker = llm.NewBroker(llm.NewLimiter(2, 4))
    }
    defer cli.Close()

    var sink orchestrator.Sink
    if *eventsAddr != "" {
        hub := events.NewHub()
        sink = hub
        go func() {
            log.Printf("events on ws://%s/events", *eventsAddr)
            mux := http.NewServeMux()
            mux.Handle("/events", hub)
            if err := http.ListenAndServe(*eventsAddr, mux); err != nil {
                log.Printf("events server: %v", err)
            }
        }()
    }

    rc := t.NewRunContext(filepath.Base(*analysisPath), *outDir)
    orc := &orchestrator.Orchestrator{
        Invoker: llm.NewGenerator(cli),
        Policy:  pol,
        Events:  sink,
        Broker:  broker,
    }
    sum, err := orc.Run(t.WithRunContext(ctx, rc), doc, rc)
    if err != nil { log.Fatal(err) }
    writeJSON(*outDir, "run_summary.json", sum)

    store := runstore.NewFromEnv()
    defer store.Close()
    if err := store.Save(ctx, sum); err != nil {
        log.Printf("runstore: %v", err)
    }

    log.Printf("run %s: %d completed, %d failed, %d blocked, %d pending",
        sum.RunID, len(sum.Completed), len(sum.Failed), len(sum.Blocked), len(sum.Pending))
    log.Println("run completed →", *outDir)
}

func writeJSON(dir, name string, v any) {
    b, _ := json.MarshalIndent(v, "", "  ")
    os.WriteFile(filepath.Join(dir, name), b, 0o644)
}

func readJSON(path string, v any) {
    b, err := os.ReadFile(path)
    if err != nil {
        log.Fatalf("failed to read %s: %v", path, err)
    }
    if err := json.Unmarshal(b, v); err != nil {
        log.Fatalf("failed to unmarshal %s: %v", path, err)
    }
}
