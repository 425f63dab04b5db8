package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/delaneyj/rxstate/cmd/codegen/templates"
	"github.com/urfave/cli/v3"
)

const (
	arityCountKey = "count"
	outputKey     = "out"
)

func main() {
	cmd := &cli.Command{
		Name:  "generate",
		Usage: "Generate the fixed-arity memoized selectors",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  arityCountKey,
				Usage: "Highest number of input selectors to generate",
				Value: 3,
			},
			&cli.StringFlag{
				Name:  outputKey,
				Usage: "File to write",
				Value: "memo/memo_gen.go",
			},
		},
		Action: generate,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func generate(ctx context.Context, cmd *cli.Command) error {
	start := time.Now()
	log.Printf("Codegen for memo started !")
	defer func() {
		log.Printf("Codegen for memo finished in %v", time.Since(start))
	}()

	count := cmd.Uint(arityCountKey)
	if count == 0 {
		return fmt.Errorf("count must be at least 1")
	}
	out := cmd.String(outputKey)

	contents := templates.MemoGen(int(count))
	if err := os.WriteFile(out, []byte(contents), 0644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	log.Printf("Wrote Memo1..Memo%d to %s", count, out)
	return nil
}
