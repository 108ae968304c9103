package health

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
)

func benchRegistry(size int) *Registry {
	reg := NewRegistry()
	for i := 0; i < size; i++ {
		reg.Register(fmt.Sprintf("check%d", i), StatusFunc(func(ctx context.Context) Status {
			return Up()
		}))
	}
	return reg
}

// BenchmarkEvaluate measures single isolated check invocation.
func BenchmarkEvaluate(b *testing.B) {
	check := StatusFunc(func(ctx context.Context) Status { return Up() })
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Evaluate(ctx, check)
	}
}

// BenchmarkRegistry_Check measures scaling with check count.
func BenchmarkRegistry_Check(b *testing.B) {
	for _, size := range []int{1, 5, 10, 20} {
		b.Run(fmt.Sprintf("checks=%d", size), func(b *testing.B) {
			reg := benchRegistry(size)
			ctx := context.Background()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = reg.Check(ctx)
			}
		})
	}
}

// BenchmarkRegistry_Register measures registration overhead.
func BenchmarkRegistry_Register(b *testing.B) {
	check := StatusFunc(func(ctx context.Context) Status { return Up() })

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg := NewRegistry()
		reg.Register("check", check)
	}
}

// BenchmarkReport_MarshalJSON measures payload rendering.
func BenchmarkReport_MarshalJSON(b *testing.B) {
	report := benchRegistry(5).Check(context.Background())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = report.MarshalJSON()
	}
}

// BenchmarkHealthHandler_ServeHTTP measures handler overhead.
func BenchmarkHealthHandler_ServeHTTP(b *testing.B) {
	handler := HealthHandler(benchRegistry(3))
	req := httptest.NewRequest("GET", "/health", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}
}

// BenchmarkConcurrent_Registry measures concurrent registry usage.
func BenchmarkConcurrent_Registry(b *testing.B) {
	reg := benchRegistry(5)
	ctx := context.Background()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = reg.CheckReadiness(ctx)
		}
	})
}
