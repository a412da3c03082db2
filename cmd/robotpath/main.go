// robotpath converts sliced toolpaths into validated 6-axis joint sequences.
// It loads a robot/pump configuration, runs inverse kinematics with
// continuity-preserving branch selection over every toolpath point, checks
// pump feasibility per segment and writes the planned joint sequence plus a
// validation report as JSON.
//
// Usage:
//
//	robotpath -config printer.cfg -toolpath path.json [options]
//
// Options:
//
//	-config string    Robot configuration file (required)
//	-toolpath string  Toolpath JSON file (required)
//	-out string       Output file (default: stdout)
//	-workers int      Parallel IK workers (default: config / NumCPU)
//	-trace            Enable debug tracing
//
// Exit codes: 0 plan clean, 1 load or runtime failure, 2 plan finished with
// fatal findings.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"robotpath/pkg/config"
	"robotpath/pkg/log"
	"robotpath/pkg/pipeline"
	"robotpath/pkg/toolpath"
)

func main() {
	configFile := flag.String("config", "", "Robot configuration file (required)")
	toolpathFile := flag.String("toolpath", "", "Toolpath JSON file (required)")
	outFile := flag.String("out", "", "Output file (default: stdout)")
	workers := flag.Int("workers", 0, "Parallel IK workers (default: config / NumCPU)")
	trace := flag.Bool("trace", false, "Enable debug tracing")
	flag.Parse()

	if *configFile == "" || *toolpathFile == "" {
		fmt.Fprintln(os.Stderr, "Error: -config and -toolpath are required")
		flag.Usage()
		os.Exit(1)
	}

	// Optional .env for ROBOTPATH_LOG_LEVEL and NO_COLOR.
	_ = godotenv.Load()

	logger := log.New("robotpath")
	log.ConfigureFromEnv(logger)
	if *trace {
		logger.SetLevel(log.DEBUG)
	}
	log.SetDefaultLogger(logger)

	os.Exit(run(*configFile, *toolpathFile, *outFile, *workers, logger))
}

func run(configFile, toolpathFile, outFile string, workers int, logger *log.Logger) int {
	setup, err := config.LoadSetup(configFile)
	if err != nil {
		logger.Error("config: %v", err)
		return 1
	}

	points, err := toolpath.ReadFile(toolpathFile)
	if err != nil {
		logger.Error("toolpath: %v", err)
		return 1
	}
	logger.Info("loaded %d toolpath points from %s", len(points), toolpathFile)

	if workers > 0 {
		setup.Workers = workers
	}
	planner, err := pipeline.New(pipeline.Options{
		Robot:           setup.Robot,
		BedToBase:       setup.BedToBase,
		ToolOrientation: setup.ToolOrientation,
		Pump:            setup.Pump,
		PrintSpeed:      setup.PrintSpeed,
		TravelSpeed:     setup.TravelSpeed,
		StartJoints:     setup.StartJoints,
		EndJoints:       setup.EndJoints,
		OnFatal:         pipeline.FatalPolicy(setup.OnFatal),
		Workers:         setup.Workers,
	})
	if err != nil {
		logger.Error("planner: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := planner.Plan(ctx, points)
	if err != nil {
		logger.Error("plan: %v", err)
		return 1
	}

	if err := writeResult(outFile, result); err != nil {
		logger.Error("output: %v", err)
		return 1
	}

	for _, f := range result.Report.Findings() {
		logger.Warn("%s", f)
	}
	if result.Report.HasFatal() {
		logger.Error("plan not printable: %s", result.Report.Summary())
		return 2
	}
	logger.Info("plan accepted: %d/%d points", result.Accepted(), len(points))
	return 0
}

func writeResult(outFile string, result *pipeline.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if outFile == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(outFile, data, 0644)
}
