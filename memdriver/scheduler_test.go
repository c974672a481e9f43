package memdriver

import (
	"context"
	"math/rand"
	"testing"

	"github.com/hupe1980/semkmeans"
)

func TestClusterTwoBlobs(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const n, d = 40, 3
	data := make([]float64, n*d)
	for r := 0; r < n; r++ {
		center := 0.0
		if r >= n/2 {
			center = 10.0
		}
		for c := 0; c < d; c++ {
			data[r*d+c] = center + (rng.Float64()-0.5)*0.5
		}
	}

	res, err := Cluster(context.Background(), data, n, d, 2, func(b semkmeans.Builder) semkmeans.Builder {
		return b.Init(semkmeans.InitForgy).Workers(4).Seed(1)
	})
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	if !res.Converged {
		t.Fatalf("expected convergence, got %+v", res)
	}
	total := 0
	for _, sz := range res.Sizes {
		total += sz
	}
	if total != n {
		t.Fatalf("sum of sizes = %d, want %d", total, n)
	}
}
