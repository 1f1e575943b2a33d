package filter

import (
	"context"
	"fmt"
	"testing"
)

func BenchmarkCompileFilter(b *testing.B) {
	expressions := []struct {
		name string
		expr string
	}{
		{"simple", `hasTag("sun")`},
		{"complex", `hasTag("sun") and Safety == "safe" and score > 1 and created() > monthsAgo(6)`},
	}

	for _, tc := range expressions {
		b.Run(tc.name, func(b *testing.B) {
			for b.Loop() {
				if _, err := CompileFilter(tc.expr); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkCompileFilterWithCache(b *testing.B) {
	compiler := NewExprCompiler(WithCache(100))
	expression := `hasTag("sun") and score > 1`

	for b.Loop() {
		if _, err := compiler.Compile(expression); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEvaluateFilter(b *testing.B) {
	filter, err := CompileFilter(`hasTag("moon") and safety != "unsafe"`)
	if err != nil {
		b.Fatal(err)
	}
	records := generateRecords(100)

	for b.Loop() {
		for _, r := range records {
			filter.Evaluate(r)
		}
	}
}

func BenchmarkSelectConcurrent(b *testing.B) {
	filter, err := CompileFilter(`hasTag("moon") and safety != "unsafe"`)
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()

	for _, size := range []int{100, 1000, 10000} {
		records := generateRecords(size)
		for _, workers := range []int{1, 4} {
			b.Run(fmt.Sprintf("records=%d/workers=%d", size, workers), func(b *testing.B) {
				evaluator := NewConcurrentEvaluator(WithWorkers(workers))
				defer evaluator.Stop(ctx)

				for b.Loop() {
					if _, err := evaluator.Select(ctx, filter, records); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkSelectAll(b *testing.B) {
	manager := NewManager()
	defer manager.Close(context.Background())

	if err := manager.RegisterFilters(map[string]string{
		"sunny":  `hasTag("sun")`,
		"safe":   `safety == "safe"`,
		"loops":  `hasFlag("loop")`,
		"recent": `created() > monthsAgo(3)`,
	}); err != nil {
		b.Fatal(err)
	}
	records := generateRecords(1000)

	for b.Loop() {
		if _, err := manager.SelectAll(context.Background(), records); err != nil {
			b.Fatal(err)
		}
	}
}
