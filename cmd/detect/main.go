package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"thermaldetect/internal/app"
	"thermaldetect/internal/config"
	"thermaldetect/internal/events"
	"thermaldetect/internal/logger"
	"thermaldetect/internal/services/ai"
)

func main() {
	os.Exit(run())
}

// run keeps the exit-code contract in one place: option and setup failures
// are fatal and reported before or as the first events; everything after
// model load degrades per item instead of failing the process.
func run() int {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: detect <options-json>")
		return 1
	}

	opts, err := config.ParseOptions(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	settings := config.Load()
	emitter := events.NewEmitter(os.Stdout)

	log, err := logger.New(settings, emitter, uuid.NewString())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer log.Sync()

	detector, err := ai.NewYOLODetector(opts, settings, log)
	if err != nil {
		log.Error("Failed to load model: %v", err)
		return 1
	}
	defer detector.Close()

	application := app.NewApp(opts, settings, detector, emitter, log)
	if err := application.Run(); err != nil {
		log.Error("Run failed: %v", err)
		return 1
	}
	return 0
}
