package semkmeans_test

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/hupe1980/semkmeans"
	"github.com/hupe1980/semkmeans/memdriver"
)

func Example() {
	rng := rand.New(rand.NewSource(42))
	const n, d = 200, 4
	data := make([]float64, n*d)
	for r := 0; r < n; r++ {
		center := 0.0
		if r >= n/2 {
			center = 20.0
		}
		for c := 0; c < d; c++ {
			data[r*d+c] = center + (rng.Float64()-0.5)*0.5
		}
	}
	rowSource, err := memdriver.New(data, n, d)
	if err != nil {
		panic(err)
	}

	res, err := semkmeans.New(rowSource, 2).
		Init(semkmeans.InitKMeansPP).
		MaxIters(100).
		Tolerance(0.0).
		Workers(4).
		CacheBytes(1 << 20).
		CacheUpdateStartInterval(5).
		Variant(semkmeans.VariantMinimized).
		Seed(42).
		Logger(semkmeans.NewJSONLogger(slog.LevelWarn)).
		Run(context.Background())
	if err != nil {
		panic(err)
	}

	total := 0
	for _, sz := range res.Sizes {
		total += sz
	}
	fmt.Println(res.Converged, total)
	// Output: true 200
}
